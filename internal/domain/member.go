package domain

import "time"

// Member represents an authenticated customer. Guests check out with no
// member at all; the checkout core only links members to orders and group
// memberships, account management lives elsewhere.
type Member struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}
