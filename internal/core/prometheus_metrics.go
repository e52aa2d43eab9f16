package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

// PrometheusMetricsRecorder exports operation counters, latency histograms,
// solver verdict counters, and the last achieved objective through a
// Prometheus registry, for deployments that scrape.
type PrometheusMetricsRecorder struct {
	durations  *prometheus.HistogramVec
	results    *prometheus.CounterVec
	solves     *prometheus.CounterVec
	objectives *prometheus.GaugeVec
}

var _ MetricsRecorder = (*PrometheusMetricsRecorder)(nil)

// NewPrometheusMetricsRecorder constructs a recorder and registers its
// collectors with reg.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	r := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flux_service_operation_duration_seconds",
			Help:    "Latency of flux core service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flux_service_operations_total",
			Help: "Outcomes of flux core service operations.",
		}, []string{"operation", "status"}),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flux_solve_status_total",
			Help: "Optimizer verdicts of flux studies (optimal, infeasible, unbounded, error).",
		}, []string{"operation", "status"}),
		objectives: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flux_solve_last_objective",
			Help: "Objective value achieved by the most recent flux study.",
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.durations, r.results, r.solves, r.objectives} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// ObserveSolve records the optimizer verdict of a flux study.
func (r *PrometheusMetricsRecorder) ObserveSolve(_ context.Context, operation string, status metabolic.SolveStatus, objective float64) {
	if operation == "" {
		return
	}
	r.solves.WithLabelValues(operation, string(status)).Inc()
	r.objectives.WithLabelValues(operation).Set(objective)
}
