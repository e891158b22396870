// internal/runtime/metrics.go

package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for rule runs. A nil *Metrics records nothing.
type Metrics struct {
	runsTotal        *prometheus.CounterVec
	rulesFiredTotal  *prometheus.CounterVec
	evaluationsTotal *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	scansPerRun      *prometheus.HistogramVec
}

// NewMetrics creates and registers run metrics. A nil registerer yields nil metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rex",
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total forward-chaining runs",
		}, []string{"ruleset", "result"}),

		rulesFiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rex",
			Subsystem: "engine",
			Name:      "rules_fired_total",
			Help:      "Total rules fired",
		}, []string{"ruleset", "rule"}),

		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rex",
			Subsystem: "engine",
			Name:      "rule_evaluations_total",
			Help:      "Total rule condition evaluations",
		}, []string{"ruleset", "result"}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rex",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Runs aborted by an error, by error kind",
		}, []string{"ruleset", "kind"}),

		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rex",
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Time spent in a forward-chaining run",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"ruleset"}),

		scansPerRun: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rex",
			Subsystem: "engine",
			Name:      "scans_per_run",
			Help:      "Rule-list scans needed to reach a fixpoint",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"ruleset"}),
	}

	for _, c := range []prometheus.Collector{
		m.runsTotal, m.rulesFiredTotal, m.evaluationsTotal,
		m.errorsTotal, m.runDuration, m.scansPerRun,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordEvaluation(ruleSet string, matched bool) {
	if m == nil {
		return
	}
	result := "unmatched"
	if matched {
		result = "matched"
	}
	m.evaluationsTotal.WithLabelValues(ruleSet, result).Inc()
}

func (m *Metrics) recordFired(ruleSet, rule string) {
	if m == nil {
		return
	}
	m.rulesFiredTotal.WithLabelValues(ruleSet, rule).Inc()
}

func (m *Metrics) recordRun(ruleSet string, report *Report, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		m.errorsTotal.WithLabelValues(ruleSet, KindOf(err).String()).Inc()
	}
	m.runsTotal.WithLabelValues(ruleSet, result).Inc()
	m.runDuration.WithLabelValues(ruleSet).Observe(report.Duration.Seconds())
	m.scansPerRun.WithLabelValues(ruleSet).Observe(float64(report.Scans))
}
