package ingestion

import (
	"time"

	"github.com/poiesic/docqa/batch"
)

// Mode names the discovery strategy of a run.
type Mode string

const (
	// ModeMap discovers URLs with a map request and extracts them in batches.
	ModeMap Mode = "map"
	// ModeCrawl discovers and extracts pages with a single crawl request.
	ModeCrawl Mode = "crawl"
)

// Report summarizes one pipeline run.
type Report struct {
	RunID          string
	Mode           Mode
	SeedURL        string
	URLsMapped     int
	PagesExtracted int
	ChunksCreated  int
	Extraction     batch.Summary // Zero in crawl mode
	Indexing       batch.Summary
	Duration       time.Duration
}

// Recorder receives per-stage counts of a run.
// A nil Recorder on the pipeline disables recording.
type Recorder interface {
	URLsMapped(n int)
	PagesExtracted(n int)
	ChunksCreated(n int)
	Batches(stage string, summary batch.Summary)
	RunFinished(mode Mode, d time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) URLsMapped(int)                         {}
func (noopRecorder) PagesExtracted(int)                     {}
func (noopRecorder) ChunksCreated(int)                      {}
func (noopRecorder) Batches(string, batch.Summary)          {}
func (noopRecorder) RunFinished(Mode, time.Duration, error) {}
