package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for inheritance calculations.
type Metrics struct {
	// Calculation outcomes by madhab and outcome ("success" or "<kind>_error")
	Calculations *prometheus.CounterVec

	// Engine latency per madhab
	CalculateLatency *prometheus.HistogramVec

	// Special cases applied (awl, radd, umariyyah, ...)
	SpecialCases *prometheus.CounterVec

	CacheLookups   *prometheus.CounterVec
	Deduplicated   prometheus.Counter
	HistoryErrors  *prometheus.CounterVec
	PublishErrors  prometheus.Counter
	CompareLatency prometheus.Histogram
}

// New creates the inheritance metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faraid_calculations_total",
			Help: "Total calculations by madhab and outcome",
		}, []string{"madhab", "outcome"}),

		CalculateLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "faraid_calculate_duration_seconds",
			Help:    "Duration of a single engine calculation",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}, []string{"madhab"}),

		SpecialCases: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faraid_special_cases_total",
			Help: "Special cases applied by type",
		}, []string{"case"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faraid_result_cache_lookups_total",
			Help: "Result cache lookups by result (hit or miss)",
		}, []string{"result"}),

		Deduplicated: factory.NewCounter(prometheus.CounterOpts{
			Name: "faraid_calculations_deduplicated_total",
			Help: "Concurrent identical calculations served from one in-flight computation",
		}),

		HistoryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faraid_history_errors_total",
			Help: "History store failures by operation",
		}, []string{"operation"}),

		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "faraid_event_publish_errors_total",
			Help: "Calculation events that could not be published",
		}),

		CompareLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "faraid_compare_duration_seconds",
			Help:    "Duration of a four-school comparison",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
	}
}

// IncrementOutcome records a calculation outcome.
func (m *Metrics) IncrementOutcome(madhab, outcome string) {
	if m != nil {
		m.Calculations.WithLabelValues(madhab, outcome).Inc()
	}
}

// ObserveCalculateLatency records the engine duration for one madhab.
func (m *Metrics) ObserveCalculateLatency(madhab string, d time.Duration) {
	if m != nil {
		m.CalculateLatency.WithLabelValues(madhab).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementSpecialCase(kind string) {
	if m != nil {
		m.SpecialCases.WithLabelValues(kind).Inc()
	}
}

// RecordCacheLookup is shaped to be passed to engine.WithCacheObserver.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) IncrementDeduplicated() {
	if m != nil {
		m.Deduplicated.Inc()
	}
}

func (m *Metrics) IncrementHistoryError(operation string) {
	if m != nil {
		m.HistoryErrors.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) IncrementPublishError() {
	if m != nil {
		m.PublishErrors.Inc()
	}
}

func (m *Metrics) ObserveCompareLatency(d time.Duration) {
	if m != nil {
		m.CompareLatency.Observe(d.Seconds())
	}
}
