package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// fakeStore records added documents and answers searches from a canned list.
type fakeStore struct {
	added     []schema.Document
	results   []schema.Document
	lastK     int
	lastOpts  vectorstores.Options
	addErr    error
	searchErr error
}

func (f *fakeStore) AddDocuments(_ context.Context, docs []schema.Document, opts ...vectorstores.Option) ([]string, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, docs...)
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].Metadata[metaChunkID].(string)
	}
	return ids, nil
}

func (f *fakeStore) SimilaritySearch(_ context.Context, _ string, k int, opts ...vectorstores.Option) ([]schema.Document, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.lastK = k
	f.lastOpts = vectorstores.Options{}
	for _, opt := range opts {
		opt(&f.lastOpts)
	}
	return f.results, nil
}

func TestStore_Upsert(t *testing.T) {
	fake := &fakeStore{}
	s := New(fake, WithNamespace("azure"))

	chunks := []*core.Chunk{
		core.NewChunk("https://learn.microsoft.com/a", "first", 0),
		core.NewChunk("https://learn.microsoft.com/a", "second", 1),
	}
	require.NoError(t, s.Upsert(context.Background(), chunks))

	require.Len(t, fake.added, 2)
	assert.Equal(t, "second", fake.added[1].PageContent)
	assert.Equal(t, "https://learn.microsoft.com/a", fake.added[1].Metadata[metaSource])
	assert.Equal(t, 1, fake.added[1].Metadata[metaIndex])
}

func TestStore_UpsertEmpty(t *testing.T) {
	fake := &fakeStore{addErr: errors.New("should not be called")}
	s := New(fake)
	assert.NoError(t, s.Upsert(context.Background(), nil))
}

func TestStore_UpsertError(t *testing.T) {
	fake := &fakeStore{addErr: errors.New("quota exceeded")}
	s := New(fake)
	err := s.Upsert(context.Background(), []*core.Chunk{core.NewChunk("https://x", "t", 0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestStore_Search(t *testing.T) {
	chunk := core.NewChunk("https://learn.microsoft.com/b", "Connect to Azure", 2)
	fake := &fakeStore{results: []schema.Document{
		{
			PageContent: chunk.Text,
			Score:       0.91,
			Metadata: map[string]any{
				metaSource:  chunk.SourceURL,
				metaIndex:   float64(2),
				metaChunkID: "not-a-number",
			},
		},
		{PageContent: "orphan", Score: 0.5, Metadata: map[string]any{}},
	}}
	s := New(fake, WithNamespace("azure"), WithScoreThreshold(0.3))

	results, err := s.Search(context.Background(), "how do I connect", 4)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunk, results[0].Chunk)
	assert.Equal(t, float32(0.91), results[0].Score)

	assert.Equal(t, 4, fake.lastK)
	assert.Equal(t, "azure", fake.lastOpts.NameSpace)
	assert.Equal(t, float32(0.3), fake.lastOpts.ScoreThreshold)
}

func TestStore_SearchInvalidK(t *testing.T) {
	s := New(&fakeStore{})
	_, err := s.Search(context.Background(), "q", 0)
	assert.True(t, errors.Is(err, storage.ErrInvalidQuery))
}

func TestStore_Closed(t *testing.T) {
	s := New(&fakeStore{})
	require.NoError(t, s.Close())

	_, err := s.Search(context.Background(), "q", 1)
	assert.True(t, errors.Is(err, storage.ErrStorageClosed))
	err = s.Upsert(context.Background(), []*core.Chunk{core.NewChunk("https://x", "t", 0)})
	assert.True(t, errors.Is(err, storage.ErrStorageClosed))
}

func TestChunkFromDocument_RestoresID(t *testing.T) {
	chunk := core.NewChunk("https://x", "text", 0)
	doc := schema.Document{PageContent: "text", Metadata: map[string]any{metaSource: "https://x", metaChunkID: "42"}}
	got, err := chunkFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, core.ID(42), got.Id)
	assert.NotEqual(t, chunk.Id, got.Id)
}

func TestNewQdrant_Validation(t *testing.T) {
	embedder := mock.NewMockEmbedder()

	_, err := NewQdrant("http://localhost:6333", "docs", "", nil)
	assert.True(t, errors.Is(err, storage.ErrEmbedderRequired))

	_, err = NewQdrant("not a url", "docs", "", embedder)
	assert.True(t, errors.Is(err, ErrInvalidURL))

	_, err = NewQdrant("http://localhost:6333", "", "", embedder)
	assert.Error(t, err)

	idx, err := NewQdrant("http://localhost:6333", "docs", "", embedder)
	require.NoError(t, err)
	assert.NoError(t, idx.Close())
}

func TestNewPinecone_RequiresHost(t *testing.T) {
	_, err := NewPinecone("", "key", "", mock.NewMockEmbedder())
	assert.Error(t, err)

	_, err = NewPinecone("index.pinecone.io", "key", "", nil)
	assert.True(t, errors.Is(err, storage.ErrEmbedderRequired))
}
