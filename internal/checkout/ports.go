package checkout

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shopcheckout/internal/domain"
	"shopcheckout/internal/gateway"
)

// OrderStore is the slice of persistence the processor needs. The Mark*
// methods are compare-and-set: they report whether this caller won the
// transition, so racing callback deliveries cannot double-place an order or
// double-send an email.
type OrderStore interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	SaveItem(ctx context.Context, it *domain.Item) error
	SaveModifier(ctx context.Context, m *domain.Modifier) error
	SavePayment(ctx context.Context, p *domain.Payment) error
	MarkPlaced(ctx context.Context, orderID string, at time.Time, ip string) (bool, error)
	MarkPaid(ctx context.Context, orderID string, at time.Time) (bool, error)
	MarkConfirmationSent(ctx context.Context, orderID string) (bool, error)
	MarkReceiptSent(ctx context.Context, orderID string) (bool, error)
}

// MemberStore links members to orders. AddToGroup is idempotent.
type MemberStore interface {
	AddToGroup(ctx context.Context, memberID, group string) error
}

// Notifier sends order emails. Sends are fire-and-forget from the
// processor's point of view: failures are logged, never propagated.
type Notifier interface {
	SendConfirmation(ctx context.Context, o *domain.Order) error
	SendReceipt(ctx context.Context, o *domain.Order) error
	SendAdminNotification(ctx context.Context, o *domain.Order) error
}

// Session is the caller's cart bookkeeping: which order is the active cart
// and which order was placed most recently.
type Session interface {
	CartID() string
	ClearCart()
	SetLastOrder(orderID string)
}

// Recorder counts checkout outcomes.
type Recorder interface {
	OrderPlaced()
	PaymentInitiated(gatewayID, outcome string)
	PaymentCompleted()
	ReceiptSent()
}

// Config carries the checkout knobs, injected at construction.
type Config struct {
	SendConfirmation      bool
	SendAdminNotification bool
	AllowZeroOrderTotal   bool
	BaseCurrency          string
	SiteBaseURL           string
	CustomerGroup         string
}

// Context is the request-scoped state the processor needs: who is checking
// out, which order is their active cart, and where the request came from.
type Context struct {
	Member    *domain.Member
	CartID    string
	IPAddress string
}

// Deps bundles the processor's collaborators.
type Deps struct {
	Orders   OrderStore
	Members  MemberStore
	Gateways gateway.Adapter
	Notifier Notifier
	Session  Session
	Hooks    *Hooks
	Metrics  Recorder
	Config   Config
	Logger   *zap.Logger
}
