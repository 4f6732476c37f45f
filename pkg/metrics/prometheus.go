package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsSubmitted    *prometheus.CounterVec
	runsFinished     *prometheus.CounterVec
	pollsTotal       *prometheus.CounterVec
	pollLatency      prometheus.Histogram
	verdictsTotal    *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerpulse_runs_submitted_total",
				Help: "Total comparison runs submitted to the run service",
			},
			[]string{"template"},
		),
		runsFinished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerpulse_runs_finished_total",
				Help: "Total runs that reached a terminal phase",
			},
			[]string{"phase"},
		),
		pollsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerpulse_status_polls_total",
				Help: "Total run status checks issued",
			},
			[]string{"result"},
		),
		pollLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tickerpulse_status_poll_duration_seconds",
				Help:    "Duration of run status checks in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		verdictsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerpulse_verdicts_total",
				Help: "Consensus verdicts computed for completed runs",
			},
			[]string{"verdict"},
		),
		providerFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerpulse_provider_failures_total",
				Help: "Provider-level failures inside otherwise successful runs",
			},
			[]string{"provider"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickerpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordRunSubmitted records a run accepted by the run service.
func (r *Recorder) RecordRunSubmitted(template string) {
	r.runsSubmitted.WithLabelValues(template).Inc()
}

// RecordRunFinished records the terminal phase of a run.
func (r *Recorder) RecordRunFinished(phase string) {
	r.runsFinished.WithLabelValues(phase).Inc()
}

// RecordPoll records one status check and its latency.
func (r *Recorder) RecordPoll(seconds float64, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.pollsTotal.WithLabelValues(result).Inc()
	r.pollLatency.Observe(seconds)
}

// RecordVerdict records a computed consensus verdict.
func (r *Recorder) RecordVerdict(verdict string) {
	r.verdictsTotal.WithLabelValues(verdict).Inc()
}

// RecordProviderFailure records a single provider erroring within a run.
func (r *Recorder) RecordProviderFailure(provider string) {
	r.providerFailures.WithLabelValues(provider).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
