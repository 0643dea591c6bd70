package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunkID(t *testing.T) {
	a := ChunkID("https://example.com/a", "shared text")
	b := ChunkID("https://example.com/b", "shared text")
	if a == b {
		t.Errorf("ChunkID() ignored the source url")
	}
	if a != ChunkID("https://example.com/a", "shared text") {
		t.Errorf("ChunkID() is not deterministic")
	}
}

func TestNewChunk(t *testing.T) {
	c := NewChunk("https://example.com/docs", "body", 3)
	if c.Id != ChunkID("https://example.com/docs", "body") {
		t.Errorf("NewChunk() id = %d, want content id", c.Id)
	}
	if c.Index != 3 || c.Text != "body" || c.SourceURL != "https://example.com/docs" {
		t.Errorf("NewChunk() = %+v", c)
	}
}

func TestAnswer_SourceURLs(t *testing.T) {
	a := &Answer{
		Sources: []*SearchResult{
			{Chunk: NewChunk("https://example.com/b", "one", 0)},
			{Chunk: NewChunk("https://example.com/a", "two", 0)},
			{Chunk: NewChunk("https://example.com/b", "three", 1)},
			nil,
		},
	}

	got := a.SourceURLs()
	want := []string{"https://example.com/b", "https://example.com/a"}
	if len(got) != len(want) {
		t.Fatalf("SourceURLs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SourceURLs()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
