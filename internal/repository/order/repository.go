package order

import (
	"context"
	"time"

	"shopcheckout/internal/domain"
)

// Repository persists orders with their items, modifiers and payments.
//
// The Mark* methods are compare-and-set transitions: they return true only
// when this call performed the transition. Duplicate gateway callbacks and
// double submits race through these, so the guards live in SQL rather than
// in application memory.
type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)

	SaveOrder(ctx context.Context, o *domain.Order) error
	SaveItem(ctx context.Context, it *domain.Item) error
	SaveModifier(ctx context.Context, m *domain.Modifier) error
	SavePayment(ctx context.Context, p *domain.Payment) error

	MarkPlaced(ctx context.Context, orderID string, at time.Time, ip string) (bool, error)
	MarkPaid(ctx context.Context, orderID string, at time.Time) (bool, error)
	MarkConfirmationSent(ctx context.Context, orderID string) (bool, error)
	MarkReceiptSent(ctx context.Context, orderID string) (bool, error)
	CapturePayment(ctx context.Context, paymentID string) (bool, error)
}
