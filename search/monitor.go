package search

import (
	"log/slog"

	"github.com/poiesic/docqa/core"
)

// SearchMonitor receives callbacks at each stage of a retrieval.
type SearchMonitor interface {
	Start(query string)
	AfterIndexSearch(results []*core.SearchResult)
	BelowThreshold(result *core.SearchResult)
	VerbatimHit(result *core.SearchResult)
	Finish(results []*core.SearchResult)
}

type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterIndexSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) BelowThreshold(_ *core.SearchResult)     {}
func (n *noopMonitor) VerbatimHit(_ *core.SearchResult)        {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)           {}

// LogMonitor reports retrieval stages to a logger at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *LogMonitor) Start(query string) {
	m.logger().Debug("retrieving", "query", query)
}

func (m *LogMonitor) AfterIndexSearch(results []*core.SearchResult) {
	m.logger().Debug("index search complete", "hits", len(results))
}

func (m *LogMonitor) BelowThreshold(result *core.SearchResult) {
	m.logger().Debug("dropped low score hit", "source", result.Chunk.SourceURL, "score", result.Score)
}

func (m *LogMonitor) VerbatimHit(result *core.SearchResult) {
	m.logger().Debug("verbatim hit", "source", result.Chunk.SourceURL)
}

func (m *LogMonitor) Finish(results []*core.SearchResult) {
	for i, r := range results {
		m.logger().Debug("result", "rank", i+1, "source", r.Chunk.SourceURL, "score", r.Score)
	}
}
