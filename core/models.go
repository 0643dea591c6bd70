package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for indexed chunks.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID derives the ID of a chunk from its source and text.
// Re-ingesting the same page content yields the same IDs.
func ChunkID(sourceURL, text string) ID {
	return IDFromContent(sourceURL + "\x00" + text)
}

// ContentRecord is the raw content of one extracted page.
// Records are created by an extractor and are not modified afterwards.
type ContentRecord struct {
	RawText   string
	SourceURL string
}

// Chunk is a bounded slice of extracted text with its inherited source.
// It is the unit handed to the vector index.
type Chunk struct {
	Id        ID
	Text      string
	SourceURL string
	Index     int // Position within the chunks derived from SourceURL
}

// NewChunk creates a chunk and assigns its content-based ID.
func NewChunk(sourceURL, text string, index int) *Chunk {
	return &Chunk{
		Id:        ChunkID(sourceURL, text),
		Text:      text,
		SourceURL: sourceURL,
		Index:     index,
	}
}

// IndexRecord is a chunk together with its embedding, as held by a vector index.
type IndexRecord struct {
	Chunk
	Vector []float32
}

// SearchResult represents a chunk returned by similarity search with its relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleHuman marks a turn written by the user.
	RoleHuman Role = "human"
	// RoleAI marks a turn produced by the assistant.
	RoleAI Role = "ai"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role
	Text string
}

// Answer is the result of a retrieval-augmented question.
// Sources holds exactly the chunks that were given to the model as context.
type Answer struct {
	Question string // Question sent to the retriever, rewritten when history was present
	Text     string
	Sources  []*SearchResult
}

// SourceURLs returns the distinct source URLs of the answer's context in retrieval order.
func (a *Answer) SourceURLs() []string {
	seen := make(map[string]bool, len(a.Sources))
	urls := make([]string, 0, len(a.Sources))
	for _, s := range a.Sources {
		if s == nil || s.Chunk == nil || seen[s.Chunk.SourceURL] {
			continue
		}
		seen[s.Chunk.SourceURL] = true
		urls = append(urls, s.Chunk.SourceURL)
	}
	return urls
}
