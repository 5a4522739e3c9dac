package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records the price-change workflow activity.
type PricingMetrics struct {
	decisionDuration *prometheus.HistogramVec
	requestsCreated  prometheus.Counter
	decisions        *prometheus.CounterVec
	bulkApplied      prometheus.Counter
	bulkSkipped      *prometheus.CounterVec
}

// NewPricingMetrics registers the workflow metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	decisionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "price_request_decision_duration_seconds",
		Help:    "Duration of price request decisions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"decision"})
	requestsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_requests_created_total",
		Help: "Price change requests created.",
	})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_request_decisions_total",
		Help: "Price change request decisions by outcome.",
	}, []string{"decision"})
	bulkApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_bulk_applied_total",
		Help: "Products repriced through bulk apply.",
	})
	bulkSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_bulk_skipped_total",
		Help: "Bulk items skipped by reason.",
	}, []string{"reason"})
	reg.MustRegister(decisionDuration, requestsCreated, decisions, bulkApplied, bulkSkipped)
	return &PricingMetrics{
		decisionDuration: decisionDuration,
		requestsCreated:  requestsCreated,
		decisions:        decisions,
		bulkApplied:      bulkApplied,
		bulkSkipped:      bulkSkipped,
	}
}

// IncRequestCreated counts a newly created price change request.
func (p *PricingMetrics) IncRequestCreated() {
	if p == nil || p.requestsCreated == nil {
		return
	}
	p.requestsCreated.Inc()
}

// ObserveDecision records a decision outcome and its duration.
func (p *PricingMetrics) ObserveDecision(decision string, duration time.Duration) {
	if p == nil || p.decisions == nil {
		return
	}
	label := normalizeLabel(decision)
	p.decisions.WithLabelValues(label).Inc()
	p.decisionDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// AddBulkApplied counts products updated by a bulk apply call.
func (p *PricingMetrics) AddBulkApplied(count int) {
	if p == nil || p.bulkApplied == nil || count <= 0 {
		return
	}
	p.bulkApplied.Add(float64(count))
}

// IncBulkSkipped counts a skipped bulk item by reason.
func (p *PricingMetrics) IncBulkSkipped(reason string) {
	if p == nil || p.bulkSkipped == nil {
		return
	}
	p.bulkSkipped.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
