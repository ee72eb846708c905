// Package metrics exposes prometheus collectors for checkout outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements the checkout core's Recorder interface.
type Metrics struct {
	ordersPlaced      prometheus.Counter
	paymentsInitiated *prometheus.CounterVec
	paymentsCompleted prometheus.Counter
	receiptsSent      prometheus.Counter
}

// New registers the checkout collectors with the given registerer. Tests
// pass a private prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ordersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout", Name: "orders_placed_total",
			Help: "Orders transitioned out of cart status.",
		}),
		paymentsInitiated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout", Name: "payments_initiated_total",
			Help: "Payment initiations by gateway and outcome.",
		}, []string{"gateway", "outcome"}),
		paymentsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout", Name: "payments_completed_total",
			Help: "Orders that became fully paid.",
		}),
		receiptsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout", Name: "receipts_sent_total",
			Help: "Receipt notifications sent.",
		}),
	}
}

func (m *Metrics) OrderPlaced() {
	m.ordersPlaced.Inc()
}

func (m *Metrics) PaymentInitiated(gatewayID, outcome string) {
	m.paymentsInitiated.WithLabelValues(gatewayID, outcome).Inc()
}

func (m *Metrics) PaymentCompleted() {
	m.paymentsCompleted.Inc()
}

func (m *Metrics) ReceiptSent() {
	m.receiptsSent.Inc()
}
