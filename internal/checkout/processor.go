package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopcheckout/internal/domain"
	"shopcheckout/internal/gateway"
)

// Processor drives a single order from cart to placed and paid. It is
// constructed per request around one order; all failures are recorded as a
// human-readable message retrievable via Error, and methods signal failure
// by returning false or nil rather than an error value. The caller surfaces
// Error to the end user.
type Processor struct {
	order  *domain.Order
	reqCtx Context
	deps   Deps
	errMsg string
}

// New builds a processor for the given order.
func New(order *domain.Order, reqCtx Context, deps Deps) *Processor {
	return &Processor{order: order, reqCtx: reqCtx, deps: deps}
}

// Order returns the order the processor is bound to.
func (p *Processor) Order() *domain.Order {
	return p.order
}

// Error returns the latest recorded failure reason, empty when none.
func (p *Processor) Error() string {
	return p.errMsg
}

func (p *Processor) fail(msg string) {
	p.errMsg = msg
}

// placeable checks placement preconditions without recording an error.
func placeable(o *domain.Order) (bool, string) {
	switch {
	case o == nil:
		return false, "no order"
	case !o.IsCart():
		return false, "not a cart"
	case len(o.Items) == 0:
		return false, "no items"
	}
	return true, ""
}

// CanPlace reports whether the order can be placed: it exists, is still a
// cart, and has at least one line item. On failure the reason is recorded.
// Read-only otherwise.
func (p *Processor) CanPlace(o *domain.Order) bool {
	ok, reason := placeable(o)
	if !ok {
		p.fail(reason)
	}
	return ok
}

// pendingRequiredModifier returns a modifier that blocks placement, or nil.
func pendingRequiredModifier(o *domain.Order) *domain.Modifier {
	for i := range o.Modifiers {
		m := &o.Modifiers[i]
		if m.RequiredBeforePlace && m.Pending {
			return m
		}
	}
	return nil
}

// PlaceOrder transitions the cart to Unpaid or Paid. Placed is set at most
// once; re-invocation never overwrites it. Returns false with a recorded
// reason when preconditions fail.
func (p *Processor) PlaceOrder(ctx context.Context) bool {
	if !p.CanPlace(p.order) {
		return false
	}
	if m := pendingRequiredModifier(p.order); m != nil {
		p.fail(fmt.Sprintf("%s not determined", m.Type))
		return false
	}

	order := p.order
	log := p.localized()

	if p.reqCtx.CartID != "" && p.reqCtx.CartID == order.ID {
		p.deps.Session.ClearCart()
	}

	if order.TotalOutstanding(false) > 0 {
		order.Status = domain.StatusUnpaid
	} else {
		order.Status = domain.StatusPaid
	}

	if order.Placed == nil {
		now := time.Now().UTC()
		won, err := p.deps.Orders.MarkPlaced(ctx, order.ID, now, p.reqCtx.IPAddress)
		if err != nil {
			p.fail(fmt.Sprintf("could not place order: %v", err))
			return false
		}
		if won {
			order.Placed = &now
			order.IPAddress = p.reqCtx.IPAddress
		}
	}

	for i := range order.Items {
		it := &order.Items[i]
		it.Finalize()
		if err := p.deps.Orders.SaveItem(ctx, it); err != nil {
			p.fail(fmt.Sprintf("could not save order item: %v", err))
			return false
		}
	}
	for i := range order.Modifiers {
		m := &order.Modifiers[i]
		m.Finalize()
		if err := p.deps.Orders.SaveModifier(ctx, m); err != nil {
			p.fail(fmt.Sprintf("could not save order modifier: %v", err))
			return false
		}
	}

	if m := p.reqCtx.Member; m != nil {
		if order.MemberID == nil {
			id := m.ID
			order.MemberID = &id
		}
		if err := p.deps.Members.AddToGroup(ctx, m.ID, p.deps.Config.CustomerGroup); err != nil {
			log.Warn("could not add member to customer group", zap.String("member_id", m.ID), zap.Error(err))
		}
	}

	p.deps.Hooks.firePlace(order)

	if err := p.deps.Orders.SaveOrder(ctx, order); err != nil {
		p.fail(fmt.Sprintf("could not save order: %v", err))
		return false
	}

	if !order.ConfirmationSent && p.deps.Config.SendConfirmation {
		if won, err := p.deps.Orders.MarkConfirmationSent(ctx, order.ID); err != nil {
			log.Warn("could not mark confirmation sent", zap.Error(err))
		} else if won {
			order.ConfirmationSent = true
			if err := p.deps.Notifier.SendConfirmation(ctx, order); err != nil {
				log.Warn("could not send order confirmation", zap.Error(err))
			}
		}
	}
	if p.deps.Config.SendAdminNotification {
		if err := p.deps.Notifier.SendAdminNotification(ctx, order); err != nil {
			log.Warn("could not send admin notification", zap.Error(err))
		}
	}

	p.deps.Session.SetLastOrder(order.ID)
	p.deps.Metrics.OrderPlaced()
	log.Info("order placed", zap.String("status", string(order.Status)))
	return true
}

// MakePayment initiates a payment through the named gateway. The returned
// response is nil only when no gateway interaction happened (bad gateway id,
// unpayable order, or adapter failure); error responses from the gateway are
// returned so the caller can inspect them, with the message recorded.
func (p *Processor) MakePayment(ctx context.Context, gatewayID string, data map[string]string, successURL, cancelURL string) *gateway.Response {
	payment := p.CreatePayment(gatewayID)
	if payment == nil {
		return nil
	}
	log := p.localized().With(zap.String("gateway", gatewayID))

	svc, err := p.deps.Gateways.Service(payment, p.deps.Gateways.Intent(gatewayID))
	if err != nil {
		p.fail(err.Error())
		p.deps.Metrics.PaymentInitiated(gatewayID, "error")
		return nil
	}

	returnURL := successURL
	if returnURL == "" {
		returnURL = p.order.Link(p.deps.Config.SiteBaseURL)
	}
	svc.SetReturnURL(returnURL)
	if cancelURL != "" {
		svc.SetCancelURL(cancelURL)
	}

	resp, err := svc.Initiate(ctx, p.gatewayPayload(data, payment))
	if err != nil {
		payment.Status = domain.PaymentFailed
		payment.Message = err.Error()
		if saveErr := p.deps.Orders.SavePayment(ctx, payment); saveErr != nil {
			log.Warn("could not save failed payment", zap.Error(saveErr))
		}
		p.fail(err.Error())
		p.deps.Metrics.PaymentInitiated(gatewayID, "error")
		return nil
	}

	if err := p.deps.Orders.SavePayment(ctx, payment); err != nil {
		p.fail(fmt.Sprintf("could not save payment: %v", err))
		p.deps.Metrics.PaymentInitiated(gatewayID, "error")
		return nil
	}

	if resp.IsError() {
		msg := resp.Message()
		if msg == "" {
			msg = "payment gateway error"
		}
		p.fail(msg)
		p.deps.Metrics.PaymentInitiated(gatewayID, "declined")
		return resp
	}
	p.deps.Metrics.PaymentInitiated(gatewayID, "ok")

	// An onsite response returns control here, so no later callback will
	// place the order. Captured payments place via CompletePayment instead.
	if !resp.IsRedirect() && payment.Status != domain.PaymentCaptured {
		p.PlaceOrder(ctx)
	}
	return resp
}

// CreatePayment validates the gateway and the order's payability, then
// appends a new payment for the current outstanding balance in the shop's
// base currency. Returns nil with a recorded reason on failure.
func (p *Processor) CreatePayment(gatewayID string) *domain.Payment {
	if !p.deps.Gateways.IsSupported(gatewayID) {
		p.fail(fmt.Sprintf("invalid payment gateway %q", gatewayID))
		return nil
	}
	if !p.order.CanPay(p.reqCtx.Member) {
		p.fail("order can not be paid")
		return nil
	}
	payment := &domain.Payment{
		ID:                   uuid.NewString(),
		OrderID:              p.order.ID,
		Gateway:              gatewayID,
		Amount:               p.order.TotalOutstanding(true),
		Currency:             p.deps.Config.BaseCurrency,
		Status:               domain.PaymentCreated,
		TransactionReference: p.order.NextTransactionReference(),
		CreatedAt:            time.Now().UTC(),
	}
	p.order.Payments = append(p.order.Payments, payment)
	return payment
}

// CompletePayment finalizes order state after a capture event. It is safe
// to invoke repeatedly: once the order is fully paid it is a no-op, and the
// Paid and ReceiptSent transitions are compare-and-set in storage so racing
// callback deliveries settle exactly once.
func (p *Processor) CompletePayment(ctx context.Context) {
	order := p.order
	if order.Paid != nil {
		return
	}
	log := p.localized()

	p.deps.Hooks.firePayment(order)

	if ok, _ := placeable(order); ok {
		p.PlaceOrder(ctx)
	}

	grand := order.GrandTotal()
	settled := grand > 0 && order.TotalOutstanding(false) <= 0
	zeroAllowed := grand == 0 && p.deps.Config.AllowZeroOrderTotal
	if settled || zeroAllowed {
		now := time.Now().UTC()
		won, err := p.deps.Orders.MarkPaid(ctx, order.ID, now)
		if err != nil {
			log.Warn("could not mark order paid", zap.Error(err))
		} else if won {
			order.Status = domain.StatusPaid
			order.Paid = &now
			if err := p.deps.Orders.SaveOrder(ctx, order); err != nil {
				log.Warn("could not save paid order", zap.Error(err))
			}
			for i := range order.Items {
				it := &order.Items[i]
				it.OnPayment()
				if err := p.deps.Orders.SaveItem(ctx, it); err != nil {
					log.Warn("could not save order item", zap.Error(err))
				}
			}
			p.deps.Hooks.firePaid(order)
			p.deps.Metrics.PaymentCompleted()
			log.Info("order paid")
		}
	}

	if !order.ReceiptSent {
		if won, err := p.deps.Orders.MarkReceiptSent(ctx, order.ID); err != nil {
			log.Warn("could not mark receipt sent", zap.Error(err))
		} else if won {
			order.ReceiptSent = true
			if err := p.deps.Notifier.SendReceipt(ctx, order); err != nil {
				log.Warn("could not send receipt", zap.Error(err))
			}
			p.deps.Metrics.ReceiptSent()
		}
	}
}

// localized returns the processor logger bound to the order and its locale,
// so everything downstream of placement formats for the right audience.
func (p *Processor) localized() *zap.Logger {
	return p.deps.Logger.With(
		zap.String("order_ref", p.order.Reference),
		zap.String("locale", p.order.Locale),
	)
}

// gatewayPayload merges caller-supplied gateway data with order-derived
// fields. Custom data is the base; derived fields are applied on top and win
// on key collision.
func (p *Processor) gatewayPayload(custom map[string]string, payment *domain.Payment) map[string]string {
	o := p.order
	payload := make(map[string]string, len(custom)+20)
	for k, v := range custom {
		payload[k] = v
	}
	payload["transactionId"] = payment.TransactionReference
	payload["firstName"] = o.FirstName
	payload["lastName"] = o.LastName
	payload["email"] = o.Email
	payload["company"] = o.Company
	addAddress(payload, "billing", o.BillingAddress)
	addAddress(payload, "shipping", o.ShippingAddress)
	return payload
}

func addAddress(payload map[string]string, prefix string, a domain.Address) {
	payload[prefix+"Address1"] = a.Address1
	payload[prefix+"Address2"] = a.Address2
	payload[prefix+"City"] = a.City
	payload[prefix+"Postcode"] = a.Postcode
	payload[prefix+"State"] = a.State
	payload[prefix+"Country"] = a.Country
	payload[prefix+"Phone"] = a.Phone
}
