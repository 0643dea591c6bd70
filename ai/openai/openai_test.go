package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/poiesic/docqa/ai"
)

type embeddingServer struct {
	requests  atomic.Int32
	failFirst int32
	batches   [][]string
}

func (s *embeddingServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := s.requests.Add(1)
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		if n <= s.failFirst {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}

		var payload struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "text-embedding-3-small", payload.Model)
		s.batches = append(s.batches, payload.Input)

		type datum struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, len(payload.Input))
		for i, text := range payload.Input {
			data[i] = datum{Object: "embedding", Embedding: []float32{float32(len(text)), 1}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": payload.Model})
	}
}

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithAPIKey("sk-test"),
		ai.WithEmbeddingBatchSize(2),
		ai.WithRetryMinBackoff(10*time.Millisecond),
	)
}

func TestEmbedder_EmbedDocumentsBatches(t *testing.T) {
	srv := &embeddingServer{}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	vectors, err := embedder.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(3), vectors[2][0])

	// Batch size 2 splits three texts into two requests.
	assert.Equal(t, int32(2), srv.requests.Load())
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, srv.batches)
}

func TestEmbedder_RetriesOnceAfterBackoff(t *testing.T) {
	srv := &embeddingServer{failFirst: 1}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	start := time.Now()
	vector, err := embedder.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vector)
	assert.Equal(t, int32(2), srv.requests.Load())
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestEmbedder_GivesUpAfterSingleRetry(t *testing.T) {
	srv := &embeddingServer{failFirst: 10}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	embedder, err := NewEmbedder(testConfig(server.URL))
	require.NoError(t, err)

	_, err = embedder.EmbedDocuments(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, int32(2), srv.requests.Load())
}

func TestChatModel_GenerateContent(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		var payload struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		gotModel = payload.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Use Enable-AzureRM."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	provider, err := NewProvider(testConfig(server.URL))
	require.NoError(t, err)
	defer provider.Close()

	resp, err := provider.ChatModel().GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "how do I enable it?"),
	}, llms.WithTemperature(0))
	require.NoError(t, err)

	text, err := ai.FirstChoice(resp)
	require.NoError(t, err)
	assert.Equal(t, "Use Enable-AzureRM.", text)
	assert.Equal(t, "gpt-4.1-mini", gotModel)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithChatModel(""))
	_, err := NewProvider(cfg)
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	assert.Equal(t, "none", token(&ai.Config{}))
	assert.Equal(t, "sk-x", token(&ai.Config{APIKey: "sk-x"}))
}
