package domain

import "errors"

var (
	// ErrNotFound is returned by stores when an order, payment or member
	// lookup matches nothing.
	ErrNotFound = errors.New("not found")
)
