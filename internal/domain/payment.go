package domain

import "time"

type PaymentStatus string

const (
	PaymentCreated    PaymentStatus = "Created"
	PaymentAuthorized PaymentStatus = "Authorized"
	PaymentCaptured   PaymentStatus = "Captured"
	PaymentRefunded   PaymentStatus = "Refunded"
	PaymentVoid       PaymentStatus = "Void"
	PaymentFailed     PaymentStatus = "Failed"
)

// Payment belongs to exactly one order. Payments are never deleted; a retry
// appends a new one with the next transaction reference.
type Payment struct {
	ID                   string
	OrderID              string
	Gateway              string
	Amount               int64
	Currency             string
	Status               PaymentStatus
	TransactionReference string
	Message              string
	CreatedAt            time.Time
}

// IsSettled reports whether the funds for this payment are secured.
func (p *Payment) IsSettled() bool {
	return p.Status == PaymentCaptured
}
