// Package metrics exposes Prometheus collectors for dataset generation runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/samadpls/archdata/internal/model"
)

const namespace = "archdata"

// PipelineMetrics exposes counters/histograms for generation runs. A nil
// *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	llmRequests    *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	stageRetries   *prometheus.CounterVec
	alignments     *prometheus.CounterVec
	variants       *prometheus.CounterVec
	branchFailures *prometheus.CounterVec
	records        prometheus.Gauge
}

// NewPipelineMetrics registers the collectors with reg, or with the default
// registerer when reg is nil.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total completion requests by provider and outcome",
		}, []string{"provider", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Latency of completion requests",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider"}),
		stageRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_retries_total",
			Help:      "Regeneration attempts per pipeline stage",
		}, []string{"stage"}),
		alignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "alignment_total",
			Help:      "Alignment verdicts by outcome and score status",
		}, []string{"verdict", "status"}),
		variants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "augmentation",
			Name:      "variants_total",
			Help:      "Augmented variants emitted by type",
		}, []string{"type"}),
		branchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "augmentation",
			Name:      "branch_failures_total",
			Help:      "Augmentation branches that failed and were skipped",
		}, []string{"type"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "records",
			Help:      "Records in the most recently assembled dataset",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.llmRequests, m.llmLatency, m.stageRetries, m.alignments,
		m.variants, m.branchFailures, m.records)
	return m
}

func (m *PipelineMetrics) ObserveLLMRequest(provider string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmRequests.WithLabelValues(provider, status).Inc()
	m.llmLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *PipelineMetrics) ObserveRetry(stage string) {
	if m == nil {
		return
	}
	m.stageRetries.WithLabelValues(stage).Inc()
}

func (m *PipelineMetrics) ObserveAlignment(score model.AlignmentScore) {
	if m == nil {
		return
	}
	verdict := "rejected"
	if score.IsAligned {
		verdict = "aligned"
	}
	m.alignments.WithLabelValues(verdict, string(score.Status)).Inc()
}

func (m *PipelineMetrics) ObserveVariant(typ model.AugmentationType) {
	if m == nil {
		return
	}
	m.variants.WithLabelValues(string(typ)).Inc()
}

func (m *PipelineMetrics) ObserveBranchFailure(typ model.AugmentationType) {
	if m == nil {
		return
	}
	m.branchFailures.WithLabelValues(string(typ)).Inc()
}

func (m *PipelineMetrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.records.Set(float64(n))
}
