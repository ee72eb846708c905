package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"shopcheckout/internal/checkout"
	"shopcheckout/internal/domain"
	"shopcheckout/internal/gateway"
	"shopcheckout/internal/session"
)

// fakeOrders is an in-memory Repository with the same compare-and-set
// semantics the postgres implementation enforces in SQL.
type fakeOrders struct {
	mu     sync.Mutex
	byID   map[string]*domain.Order
	placed map[string]bool
	paid   map[string]bool
}

func newFakeOrders(orders ...*domain.Order) *fakeOrders {
	f := &fakeOrders{
		byID:   map[string]*domain.Order{},
		placed: map[string]bool{},
		paid:   map[string]bool{},
	}
	for _, o := range orders {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Create(_ context.Context, o *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[o.ID] = o
	return nil
}

func (f *fakeOrders) GetByReference(_ context.Context, reference string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byID {
		if o.Reference == reference {
			return o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOrders) GetByPaymentID(_ context.Context, paymentID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byID {
		for _, p := range o.Payments {
			if p.ID == paymentID {
				return o, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOrders) SaveOrder(_ context.Context, _ *domain.Order) error       { return nil }
func (f *fakeOrders) SaveItem(_ context.Context, _ *domain.Item) error         { return nil }
func (f *fakeOrders) SaveModifier(_ context.Context, _ *domain.Modifier) error { return nil }
func (f *fakeOrders) SavePayment(_ context.Context, _ *domain.Payment) error   { return nil }

func (f *fakeOrders) MarkPlaced(_ context.Context, orderID string, _ time.Time, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.placed[orderID] {
		return false, nil
	}
	f.placed[orderID] = true
	return true, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, orderID string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paid[orderID] {
		return false, nil
	}
	f.paid[orderID] = true
	return true, nil
}

func (f *fakeOrders) MarkConfirmationSent(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.byID[orderID]
	if o == nil || o.ConfirmationSent {
		return false, nil
	}
	o.ConfirmationSent = true
	return true, nil
}

func (f *fakeOrders) MarkReceiptSent(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.byID[orderID]
	if o == nil || o.ReceiptSent {
		return false, nil
	}
	o.ReceiptSent = true
	return true, nil
}

func (f *fakeOrders) CapturePayment(_ context.Context, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byID {
		for _, p := range o.Payments {
			if p.ID == paymentID && (p.Status == domain.PaymentCreated || p.Status == domain.PaymentAuthorized) {
				p.Status = domain.PaymentCaptured
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeMembers struct{}

func (fakeMembers) GetByID(_ context.Context, _ string) (*domain.Member, error) {
	return nil, domain.ErrNotFound
}
func (fakeMembers) AddToGroup(_ context.Context, _, _ string) error { return nil }

type countingNotifier struct {
	confirmations int
	receipts      int
	adminNotes    int
}

func (n *countingNotifier) SendConfirmation(_ context.Context, _ *domain.Order) error {
	n.confirmations++
	return nil
}
func (n *countingNotifier) SendReceipt(_ context.Context, _ *domain.Order) error {
	n.receipts++
	return nil
}
func (n *countingNotifier) SendAdminNotification(_ context.Context, _ *domain.Order) error {
	n.adminNotes++
	return nil
}

type nopMetrics struct{}

func (nopMetrics) OrderPlaced()                 {}
func (nopMetrics) PaymentInitiated(_, _ string) {}
func (nopMetrics) PaymentCompleted()            {}
func (nopMetrics) ReceiptSent()                 {}

func testCart() *domain.Order {
	return &domain.Order{
		ID:        "o1",
		Reference: "R100",
		Status:    domain.StatusCart,
		Locale:    "en_US",
		Currency:  "USD",
		Email:     "jo@example.com",
		Items: []domain.Item{
			{ID: "i1", OrderID: "o1", ProductID: "p1", Title: "Widget", Quantity: 1, UnitPrice: 50},
		},
	}
}

func testRouter(orders *fakeOrders, notifier *countingNotifier) http.Handler {
	gateways := gateway.NewRegistry(map[string]gateway.GatewayConfig{
		"dummy":   {Kind: gateway.KindOnsite, Intent: gateway.IntentPurchase},
		"offsite": {Kind: gateway.KindOffsite, Intent: gateway.IntentPurchase, PageURL: "https://pay.example.com/hosted"},
	}, zap.NewNop())

	return buildRouter(zap.NewNop(), nil, Deps{
		Orders:   orders,
		Members:  fakeMembers{},
		Gateways: gateways,
		Notifier: notifier,
		Sessions: session.NewStore(),
		Hooks:    checkout.NewHooks(),
		Metrics:  nopMetrics{},
		Checkout: checkout.Config{
			SendConfirmation: true,
			BaseCurrency:     "USD",
			SiteBaseURL:      "https://shop.example.com",
			CustomerGroup:    "customers",
		},
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetOrderNotFound(t *testing.T) {
	router := testRouter(newFakeOrders(), &countingNotifier{})
	rec := doJSON(t, router, http.MethodGet, "/checkout/orders/R999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPlaceOrderRoute(t *testing.T) {
	orders := newFakeOrders(testCart())
	notifier := &countingNotifier{}
	router := testRouter(orders, notifier)

	rec := doJSON(t, router, http.MethodPost, "/checkout/orders/R100/place", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "Unpaid" {
		t.Errorf("expected Unpaid, got %s", resp.Status)
	}
	if resp.Placed == nil {
		t.Error("expected placed timestamp")
	}
	if notifier.confirmations != 1 {
		t.Errorf("expected 1 confirmation, got %d", notifier.confirmations)
	}

	// Placing again is rejected with the recorded reason.
	rec = doJSON(t, router, http.MethodPost, "/checkout/orders/R100/place", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestMakePaymentRouteInvalidGateway(t *testing.T) {
	orders := newFakeOrders(testCart())
	router := testRouter(orders, &countingNotifier{})

	rec := doJSON(t, router, http.MethodPost, "/checkout/orders/R100/payments", makePaymentRequest{Gateway: "stripe"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	o, _ := orders.GetByReference(context.Background(), "R100")
	if len(o.Payments) != 0 {
		t.Error("expected no payment created")
	}
}

func TestMakePaymentRouteOnsiteSettles(t *testing.T) {
	orders := newFakeOrders(testCart())
	notifier := &countingNotifier{}
	router := testRouter(orders, notifier)

	rec := doJSON(t, router, http.MethodPost, "/checkout/orders/R100/payments", makePaymentRequest{Gateway: "dummy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp makePaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RedirectURL != "" {
		t.Error("onsite purchase should not redirect")
	}
	if resp.Payment.Status != "Captured" {
		t.Errorf("expected Captured payment, got %s", resp.Payment.Status)
	}
	if resp.Order.Status != "Paid" {
		t.Errorf("expected Paid order, got %s", resp.Order.Status)
	}
	if notifier.receipts != 1 {
		t.Errorf("expected 1 receipt, got %d", notifier.receipts)
	}
}

func TestOffsiteFlowWithDuplicateCallbacks(t *testing.T) {
	orders := newFakeOrders(testCart())
	notifier := &countingNotifier{}
	router := testRouter(orders, notifier)

	rec := doJSON(t, router, http.MethodPost, "/checkout/orders/R100/payments", makePaymentRequest{Gateway: "offsite"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp makePaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RedirectURL == "" {
		t.Fatal("expected redirect URL")
	}
	o, _ := orders.GetByReference(context.Background(), "R100")
	if o.Placed != nil {
		t.Fatal("offsite flow must not place before callback")
	}

	// The gateway delivers the capture callback twice.
	for i := 0; i < 2; i++ {
		rec = doJSON(t, router, http.MethodPost, "/checkout/payments/"+resp.Payment.ID+"/complete", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("callback %d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	if o.Status != domain.StatusPaid || o.Paid == nil {
		t.Errorf("expected Paid order, got %s", o.Status)
	}
	if o.Placed == nil {
		t.Error("expected callback to place the order")
	}
	if notifier.receipts != 1 {
		t.Errorf("expected exactly 1 receipt across duplicate callbacks, got %d", notifier.receipts)
	}
	if notifier.confirmations != 1 {
		t.Errorf("expected exactly 1 confirmation, got %d", notifier.confirmations)
	}
}

func TestCallbackUnknownPayment(t *testing.T) {
	router := testRouter(newFakeOrders(), &countingNotifier{})
	rec := doJSON(t, router, http.MethodPost, "/checkout/payments/nope/complete", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := testRouter(newFakeOrders(), &countingNotifier{})
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
