package checkout

import "shopcheckout/internal/domain"

// Hook is an observer invoked synchronously at a checkout lifecycle point.
type Hook func(o *domain.Order)

// Hooks holds the registered observers. Registration happens at wiring
// time; the processor fires them in registration order.
type Hooks struct {
	onPlace   []Hook
	onPayment []Hook
	onPaid    []Hook
}

func NewHooks() *Hooks {
	return &Hooks{}
}

// OnPlace registers an observer fired when an order is placed.
func (h *Hooks) OnPlace(fn Hook) *Hooks {
	h.onPlace = append(h.onPlace, fn)
	return h
}

// OnPayment registers an observer fired on every capture event received
// while the order is unpaid.
func (h *Hooks) OnPayment(fn Hook) *Hooks {
	h.onPayment = append(h.onPayment, fn)
	return h
}

// OnPaid registers an observer fired once, when the order becomes fully paid.
func (h *Hooks) OnPaid(fn Hook) *Hooks {
	h.onPaid = append(h.onPaid, fn)
	return h
}

func (h *Hooks) firePlace(o *domain.Order) {
	if h == nil {
		return
	}
	for _, fn := range h.onPlace {
		fn(o)
	}
}

func (h *Hooks) firePayment(o *domain.Order) {
	if h == nil {
		return
	}
	for _, fn := range h.onPayment {
		fn(o)
	}
}

func (h *Hooks) firePaid(o *domain.Order) {
	if h == nil {
		return
	}
	for _, fn := range h.onPaid {
		fn(o)
	}
}
