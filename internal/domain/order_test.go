package domain

import "testing"

func testOrder() *Order {
	return &Order{
		ID:        "o1",
		Reference: "R100",
		Status:    StatusCart,
		Currency:  "USD",
		Items: []Item{
			{ID: "i1", Quantity: 2, UnitPrice: 1000},
			{ID: "i2", Quantity: 1, UnitPrice: 500},
		},
		Modifiers: []Modifier{
			{ID: "m1", Type: ModifierShipping, Amount: 300},
		},
	}
}

func TestGrandTotal(t *testing.T) {
	o := testOrder()
	if got := o.GrandTotal(); got != 2800 {
		t.Fatalf("expected 2800, got %d", got)
	}
}

func TestGrandTotalSkipsPendingModifiers(t *testing.T) {
	o := testOrder()
	o.Modifiers[0].Pending = true
	if got := o.GrandTotal(); got != 2500 {
		t.Fatalf("expected 2500, got %d", got)
	}
}

func TestGrandTotalUsesFinalizedItemTotals(t *testing.T) {
	o := testOrder()
	o.Items[0].Finalize()
	o.Items[0].UnitPrice = 9999 // catalog change after placement
	if got := o.GrandTotal(); got != 2800 {
		t.Fatalf("expected locked-in 2800, got %d", got)
	}
}

func TestTotalOutstanding(t *testing.T) {
	o := testOrder()
	o.Payments = []*Payment{
		{ID: "pm1", Amount: 1000, Status: PaymentCaptured},
		{ID: "pm2", Amount: 800, Status: PaymentAuthorized},
		{ID: "pm3", Amount: 500, Status: PaymentFailed},
	}

	if got := o.TotalOutstanding(false); got != 1800 {
		t.Errorf("expected 1800 without unsettled, got %d", got)
	}
	if got := o.TotalOutstanding(true); got != 1000 {
		t.Errorf("expected 1000 with unsettled, got %d", got)
	}
}

func TestTotalOutstandingClampsAtZero(t *testing.T) {
	o := testOrder()
	o.Payments = []*Payment{
		{ID: "pm1", Amount: 5000, Status: PaymentCaptured},
	}
	if got := o.TotalOutstanding(false); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestNextTransactionReference(t *testing.T) {
	o := testOrder()
	if got := o.NextTransactionReference(); got != "R100" {
		t.Errorf("expected R100, got %q", got)
	}
	o.Payments = append(o.Payments, &Payment{ID: "pm1"})
	if got := o.NextTransactionReference(); got != "R100-1" {
		t.Errorf("expected R100-1, got %q", got)
	}
	o.Payments = append(o.Payments, &Payment{ID: "pm2"})
	if got := o.NextTransactionReference(); got != "R100-2" {
		t.Errorf("expected R100-2, got %q", got)
	}
}

func TestCanPay(t *testing.T) {
	member := &Member{ID: "m1"}
	other := "m2"

	tests := []struct {
		name  string
		setup func(o *Order)
		m     *Member
		want  bool
	}{
		{"guest cart", func(o *Order) {}, nil, true},
		{"member cart", func(o *Order) {}, member, true},
		{"unpaid order", func(o *Order) { o.Status = StatusUnpaid }, nil, true},
		{"cancelled", func(o *Order) { o.Status = StatusCancelled }, nil, false},
		{"fully paid", func(o *Order) {
			o.Status = StatusPaid
		}, nil, false},
		{"settled", func(o *Order) {
			o.Payments = []*Payment{{Amount: 2800, Status: PaymentCaptured}}
		}, nil, false},
		{"someone else's order", func(o *Order) { o.MemberID = &other }, member, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := testOrder()
			tc.setup(o)
			if got := o.CanPay(tc.m); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestItemFinalize(t *testing.T) {
	it := Item{Quantity: 3, UnitPrice: 700}
	it.Finalize()
	if it.Total != 2100 || !it.Finalized {
		t.Fatalf("expected finalized total 2100, got %d (finalized=%v)", it.Total, it.Finalized)
	}
}

func TestLink(t *testing.T) {
	o := testOrder()
	if got := o.Link("https://shop.example.com"); got != "https://shop.example.com/orders/R100" {
		t.Fatalf("unexpected link %q", got)
	}
}
