package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics counts the money-moving operations of the order engine.
type EngineMetrics struct {
	ordersCreated    prometheus.Counter
	settlements      prometheus.Counter
	settledCents     prometheus.Counter
	payoutsRequested prometheus.Counter
	payoutsDenied    prometheus.Counter
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	m := &EngineMetrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders successfully created.",
		}),
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Delivered-order settlements executed.",
		}),
		settledCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_credited_cents_total",
			Help: "Total cents credited to seller wallets.",
		}),
		payoutsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payouts_requested_total",
			Help: "Payout requests accepted.",
		}),
		payoutsDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payouts_denied_total",
			Help: "Payout requests denied for insufficient funds.",
		}),
	}
	reg.MustRegister(m.ordersCreated, m.settlements, m.settledCents, m.payoutsRequested, m.payoutsDenied)
	return m
}

func (m *EngineMetrics) IncOrdersCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *EngineMetrics) ObserveSettlement(creditedCents int64) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.Inc()
	m.settledCents.Add(float64(creditedCents))
}

func (m *EngineMetrics) IncPayoutRequested() {
	if m == nil || m.payoutsRequested == nil {
		return
	}
	m.payoutsRequested.Inc()
}

func (m *EngineMetrics) IncPayoutDenied() {
	if m == nil || m.payoutsDenied == nil {
		return
	}
	m.payoutsDenied.Inc()
}
