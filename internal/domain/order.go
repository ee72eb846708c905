package domain

import (
	"fmt"
	"time"
)

// OrderStatus values only move forward over an order's life: a cart is
// placed exactly once, becoming Unpaid or Paid, and later fulfilment
// statuses never fall back to Cart.
type OrderStatus string

const (
	StatusCart       OrderStatus = "Cart"
	StatusUnpaid     OrderStatus = "Unpaid"
	StatusPaid       OrderStatus = "Paid"
	StatusProcessing OrderStatus = "Processing"
	StatusSent       OrderStatus = "Sent"
	StatusComplete   OrderStatus = "Complete"
	StatusCancelled  OrderStatus = "Cancelled"
)

// Address is the postal shape handed to payment gateways. Collection and
// validation of addresses happen outside the checkout core.
type Address struct {
	Address1 string
	Address2 string
	City     string
	Postcode string
	State    string
	Country  string
	Phone    string
}

// Item is a single order line. Prices are integer cents.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Title     string
	Quantity  int
	UnitPrice int64
	Total     int64
	Finalized bool
	Purchased bool
}

// Finalize locks in the line total at placement time so later catalog price
// changes cannot affect a placed order.
func (i *Item) Finalize() {
	i.Total = i.UnitPrice * int64(i.Quantity)
	i.Finalized = true
}

// OnPayment marks the line as purchased once the order is fully paid;
// fulfilment reads this flag.
func (i *Item) OnPayment() {
	i.Purchased = true
}

type ModifierType string

const (
	ModifierShipping ModifierType = "shipping"
	ModifierTax      ModifierType = "tax"
	ModifierDiscount ModifierType = "discount"
)

// Modifier contributes to the order total. A modifier whose value is still
// Pending has no determined amount yet; required-before-place modifiers
// block placement while pending.
type Modifier struct {
	ID                  string
	OrderID             string
	Type                ModifierType
	Amount              int64
	Required            bool
	RequiredBeforePlace bool
	Pending             bool
	Finalized           bool
}

func (m *Modifier) Finalize() {
	m.Finalized = true
}

// Order is the aggregate the checkout core operates on. It is created as a
// cart by out-of-scope collaborators, placed exactly once, and never deleted.
type Order struct {
	ID               string
	Reference        string
	Status           OrderStatus
	Placed           *time.Time
	Paid             *time.Time
	ConfirmationSent bool
	ReceiptSent      bool
	Locale           string
	IPAddress        string
	Currency         string
	MemberID         *string

	Email     string
	FirstName string
	LastName  string
	Company   string

	BillingAddress  Address
	ShippingAddress Address

	Items     []Item
	Modifiers []Modifier
	Payments  []*Payment

	CreatedAt time.Time
}

// IsCart reports whether the order has not been placed yet.
func (o *Order) IsCart() bool {
	return o.Status == StatusCart
}

// GrandTotal is the sum of line totals and determined modifier amounts.
// Pending modifiers contribute nothing until their value is known.
func (o *Order) GrandTotal() int64 {
	var total int64
	for i := range o.Items {
		it := &o.Items[i]
		if it.Finalized {
			total += it.Total
		} else {
			total += it.UnitPrice * int64(it.Quantity)
		}
	}
	for i := range o.Modifiers {
		m := &o.Modifiers[i]
		if m.Pending {
			continue
		}
		total += m.Amount
	}
	return total
}

// TotalPaid sums captured payments.
func (o *Order) TotalPaid() int64 {
	var total int64
	for _, p := range o.Payments {
		if p.IsSettled() {
			total += p.Amount
		}
	}
	return total
}

// TotalOutstanding is the grand total minus settled payments. With
// includeUnsettled, authorized but uncaptured payments also count against
// the balance, so a retry does not charge twice for in-flight money.
// The result is clamped to [0, GrandTotal].
func (o *Order) TotalOutstanding(includeUnsettled bool) int64 {
	grand := o.GrandTotal()
	paid := o.TotalPaid()
	if includeUnsettled {
		for _, p := range o.Payments {
			if p.Status == PaymentAuthorized {
				paid += p.Amount
			}
		}
	}
	outstanding := grand - paid
	if outstanding < 0 {
		outstanding = 0
	}
	if outstanding > grand {
		outstanding = grand
	}
	return outstanding
}

// CanPay reports whether the given member (nil for guests) may pay this
// order right now. Cancelled and fully settled orders are not payable.
func (o *Order) CanPay(m *Member) bool {
	if o.Status != StatusCart && o.Status != StatusUnpaid {
		return false
	}
	if o.MemberID != nil && m != nil && *o.MemberID != m.ID {
		return false
	}
	return o.TotalOutstanding(true) > 0 || o.GrandTotal() == 0
}

// Link returns the canonical order view URL under the given site base.
func (o *Order) Link(base string) string {
	return fmt.Sprintf("%s/orders/%s", base, o.Reference)
}

// NextTransactionReference derives the gateway transaction id for the next
// payment on this order: the order reference, suffixed with "-N" for
// payments beyond the first (retries).
func (o *Order) NextTransactionReference() string {
	if n := len(o.Payments); n > 0 {
		return fmt.Sprintf("%s-%d", o.Reference, n)
	}
	return o.Reference
}
