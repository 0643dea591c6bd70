package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/batch"
	"github.com/poiesic/docqa/ingestion"
)

func TestRecorder(t *testing.T) {
	m := New()

	m.URLsMapped(45)
	m.PagesExtracted(25)
	m.ChunksCreated(30)
	m.Batches("extract", batch.Summary{Total: 3, Succeeded: 2, Failed: 1})
	m.Batches("index", batch.Summary{Total: 1, Succeeded: 1})
	m.RunFinished(ingestion.ModeMap, 2*time.Second, nil)
	m.RunFinished(ingestion.ModeCrawl, time.Second, errors.New("crawl failed"))

	assert.Equal(t, float64(45), testutil.ToFloat64(m.urlsMapped))
	assert.Equal(t, float64(25), testutil.ToFloat64(m.pagesExtracted))
	assert.Equal(t, float64(30), testutil.ToFloat64(m.chunksCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.batches.WithLabelValues("extract", "succeeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.batches.WithLabelValues("extract", "failed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.batches.WithLabelValues("index", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("map", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("crawl", "error")))
}

func TestQuestionAnswered(t *testing.T) {
	m := New()
	m.QuestionAnswered(nil)
	m.QuestionAnswered(nil)
	m.QuestionAnswered(errors.New("timeout"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.questions.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.questions.WithLabelValues("error")))
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.URLsMapped(1)
	assert.Equal(t, float64(0), testutil.ToFloat64(b.urlsMapped))
}

func TestWriteToTextfile(t *testing.T) {
	m := New()
	m.ChunksCreated(12)

	path := filepath.Join(t.TempDir(), "docqa.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docqa_chunks_created_total 12")
}
