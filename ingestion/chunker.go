package ingestion

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/poiesic/docqa/core"
)

const (
	// DefaultChunkSize and DefaultChunkOverlap apply to aggregated map+extract output.
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 200

	// DefaultPageChunkSize and DefaultPageChunkOverlap apply per page in crawl mode.
	DefaultPageChunkSize    = 600
	DefaultPageChunkOverlap = 50
)

// Chunker splits content records into overlapping chunks.
// Splitting prefers paragraph breaks, then line breaks, then spaces, and
// falls back to single characters. Lengths are counted in runes.
type Chunker struct {
	size     int
	overlap  int
	splitter textsplitter.RecursiveCharacter
	strict   textsplitter.RecursiveCharacter // No overlap, used to refit oversized chunks
}

// NewChunker creates a chunker producing chunks of at most size runes, each
// sharing at most overlap runes with its predecessor from the same source.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrInvalidArgument, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", core.ErrInvalidArgument, size, overlap)
	}
	return &Chunker{
		size:     size,
		overlap:  overlap,
		splitter: newSplitter(size, overlap),
		strict:   newSplitter(size, 0),
	}, nil
}

func newSplitter(size, overlap int) textsplitter.RecursiveCharacter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
}

// Size returns the maximum chunk length in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the maximum overlap between consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks every record in order. Each chunk inherits the source URL of
// its record. Records with blank text produce no chunks.
func (c *Chunker) Split(records []*core.ContentRecord) ([]*core.Chunk, error) {
	chunks := make([]*core.Chunk, 0, len(records))
	for _, record := range records {
		if err := core.ValidateContentRecord(record); err != nil {
			if record != nil && record.SourceURL != "" && record.RawText == "" {
				continue
			}
			return nil, err
		}

		texts, err := c.splitter.SplitText(record.RawText)
		if err == nil {
			texts, err = c.fit(texts)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to split %s: %w", record.SourceURL, err)
		}

		index := 0
		for _, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			chunks = append(chunks, core.NewChunk(record.SourceURL, text, index))
			index++
		}
	}
	return chunks, nil
}

// fit re-splits any text longer than the chunk size. When it keeps an
// overlap, the recursive splitter can emit a chunk one separator too long.
// Pieces equal to the chunk just emitted are dropped.
func (c *Chunker) fit(texts []string) ([]string, error) {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		if utf8.RuneCountInString(text) <= c.size {
			out = append(out, text)
			continue
		}
		parts, err := c.strict.SplitText(text)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			for _, piece := range cutRunes(part, c.size) {
				if len(out) > 0 && out[len(out)-1] == piece {
					continue
				}
				out = append(out, piece)
			}
		}
	}
	return out, nil
}

// cutRunes splits text into pieces of at most n runes.
func cutRunes(text string, n int) []string {
	runes := []rune(text)
	if len(runes) <= n {
		return []string{text}
	}
	pieces := make([]string, 0, len(runes)/n+1)
	for len(runes) > n {
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return append(pieces, string(runes))
}
