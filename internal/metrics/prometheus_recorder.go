package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "dist"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration     *prom.HistogramVec
	buildDuration     prom.Histogram
	stageResults      *prom.CounterVec
	buildOutcome      *prom.CounterVec
	filesCopied       *prom.CounterVec
	filesRewritten    *prom.CounterVec
	rebuilds          *prom.CounterVec
	liveReloadClients prom.Gauge
}

// NewPrometheusRecorder constructs and registers the dist metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		filesCopied: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_copied_total",
			Help:      "Files copied into the destination tree by category",
		}, []string{"category"}),
		filesRewritten: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_rewritten_total",
			Help:      "Files whose references were rewritten by category",
		}, []string{"category"}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Rebuilds started by the watcher by trigger",
		}, []string{"trigger"}),
		liveReloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected live reload clients",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.filesCopied, pr.filesRewritten, pr.rebuilds, pr.liveReloadClients)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddFilesCopied(category string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.filesCopied.WithLabelValues(category).Add(float64(n))
}

func (p *PrometheusRecorder) AddFilesRewritten(category string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.filesRewritten.WithLabelValues(category).Add(float64(n))
}

func (p *PrometheusRecorder) IncRebuild(trigger string) {
	if p == nil {
		return
	}
	p.rebuilds.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.liveReloadClients.Set(float64(n))
}
