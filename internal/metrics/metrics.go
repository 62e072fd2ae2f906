package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds the service's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestDuration     *prometheus.HistogramVec
	WorkflowTransitions *prometheus.CounterVec
	PaymentsRecorded    *prometheus.CounterVec
	PaymentAmount       prometheus.Counter
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cityhall_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
		WorkflowTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityhall_workflow_transitions_total",
			Help: "Total number of successful workflow transitions",
		}, []string{"entity", "action"}),
		PaymentsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityhall_payments_recorded_total",
			Help: "Total number of holding tax payments recorded",
		}, []string{"method"}),
		PaymentAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "cityhall_payment_amount_total",
			Help: "Sum of recorded holding tax payment amounts",
		}),
	}
}

// ObserveRequest records one served request. Call with time.Now() taken
// before the handler chain ran.
func (m *Metrics) ObserveRequest(method, route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}

// IncrementTransition records a committed status change.
func (m *Metrics) IncrementTransition(entity, action string) {
	if m == nil {
		return
	}
	m.WorkflowTransitions.WithLabelValues(entity, action).Inc()
}

// RecordPayment records a committed payment.
func (m *Metrics) RecordPayment(method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.WithLabelValues(method).Inc()
	m.PaymentAmount.Add(amount.InexactFloat64())
}

// PoolStats is the part of the connection pool statistics exported as gauges.
type PoolStats interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// ObservePool registers gauges that read stats on every scrape.
func ObservePool(reg prometheus.Registerer, stats func() PoolStats) {
	factory := promauto.With(reg)
	gauge := func(name, help string, read func(PoolStats) int32) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(read(stats()))
		})
	}
	gauge("cityhall_db_pool_acquired_connections", "Connections currently in use",
		func(s PoolStats) int32 { return s.AcquiredConns() })
	gauge("cityhall_db_pool_idle_connections", "Idle connections held by the pool",
		func(s PoolStats) int32 { return s.IdleConns() })
	gauge("cityhall_db_pool_total_connections", "Connections open in the pool",
		func(s PoolStats) int32 { return s.TotalConns() })
}
