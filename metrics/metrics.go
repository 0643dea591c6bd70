// Package metrics counts ingestion and chat activity with Prometheus.
//
// Collectors live on a private registry, so several Metrics values can exist
// in one process. A command line run writes the registry to a textfile for
// the node exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/docqa/batch"
	"github.com/poiesic/docqa/ingestion"
)

const namespace = "docqa"

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	urlsMapped     prometheus.Counter
	pagesExtracted prometheus.Counter
	chunksCreated  prometheus.Counter
	batches        *prometheus.CounterVec
	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	questions      *prometheus.CounterVec
}

var _ ingestion.Recorder = (*Metrics)(nil)

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		urlsMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_mapped_total",
			Help:      "URLs discovered by map or crawl requests.",
		}),
		pagesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_extracted_total",
			Help:      "Pages with non-empty extracted content.",
		}),
		chunksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_created_total",
			Help:      "Chunks produced by the splitter.",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Extraction and index batches by outcome.",
		}, []string{"stage", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_runs_total",
			Help:      "Ingestion runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_run_duration_seconds",
			Help:      "Wall time of ingestion runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"mode"}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions answered by the chat service by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.urlsMapped,
		m.pagesExtracted,
		m.chunksCreated,
		m.batches,
		m.runs,
		m.runDuration,
		m.questions,
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) URLsMapped(n int)     { m.urlsMapped.Add(float64(n)) }
func (m *Metrics) PagesExtracted(n int) { m.pagesExtracted.Add(float64(n)) }
func (m *Metrics) ChunksCreated(n int)  { m.chunksCreated.Add(float64(n)) }

// Batches adds a stage summary to the batch counters.
func (m *Metrics) Batches(stage string, s batch.Summary) {
	m.batches.WithLabelValues(stage, "succeeded").Add(float64(s.Succeeded))
	m.batches.WithLabelValues(stage, "failed").Add(float64(s.Failed))
}

// RunFinished records the outcome and duration of an ingestion run.
func (m *Metrics) RunFinished(mode ingestion.Mode, d time.Duration, err error) {
	m.runs.WithLabelValues(string(mode), outcome(err)).Inc()
	m.runDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
}

// QuestionAnswered counts a chat exchange.
func (m *Metrics) QuestionAnswered(err error) {
	m.questions.WithLabelValues(outcome(err)).Inc()
}

// WriteToTextfile writes the current values in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
