package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skalibog/tradegate/pkg/models"
)

// Recorder собирает метрики конвейера в Prometheus
type Recorder struct {
	registry      *prometheus.Registry
	evaluations   *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
	confidence    prometheus.Histogram
	openPositions prometheus.Gauge
	latency       prometheus.Histogram
	journalErrors prometheus.Counter
}

// New создает метрики в собственном реестре
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_evaluations_total",
				Help: "Total number of snapshot evaluations",
			},
			[]string{"symbol"},
		),
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_decisions_total",
				Help: "Consensus decisions by direction",
			},
			[]string{"direction"},
		),
		verdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradegate_gate_verdicts_total",
				Help: "Risk gate verdicts by reason",
			},
			[]string{"accepted", "reason"},
		),
		confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradegate_consensus_confidence",
				Help:    "Distribution of consensus confidence",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		openPositions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradegate_open_positions",
				Help: "Positions admitted by the risk gate",
			},
		),
		latency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradegate_evaluation_duration_seconds",
				Help:    "Duration of a single evaluation",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		journalErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tradegate_journal_errors_total",
				Help: "Failed journal writes",
			},
		),
	}
}

// RecordEvaluation фиксирует результат одного прогона
func (r *Recorder) RecordEvaluation(eval *models.Evaluation, openPositions int, took time.Duration) {
	r.evaluations.WithLabelValues(eval.Symbol).Inc()
	r.decisions.WithLabelValues(string(eval.Decision.Direction)).Inc()
	r.verdicts.WithLabelValues(boolLabel(eval.Verdict.Accepted), eval.Verdict.Reason).Inc()
	r.confidence.Observe(eval.Decision.Confidence)
	r.openPositions.Set(float64(openPositions))
	r.latency.Observe(took.Seconds())
}

// RecordJournalError фиксирует неудачную запись в журнал
func (r *Recorder) RecordJournalError() {
	r.journalErrors.Inc()
}

// Registry возвращает реестр метрик
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler HTTP-обработчик для /metrics
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
