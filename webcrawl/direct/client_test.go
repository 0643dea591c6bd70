package direct

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/webcrawl"
)

func docsSite() http.Handler {
	mux := http.NewServeMux()
	html := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/docs/{$}", html(`<html><head><title>Docs Home</title></head><body>
		<nav><a href="/docs/install">Install</a></nav>
		<main><h1>Welcome</h1><p>Start here.</p>
		<a href="/docs/usage#options">Usage</a>
		<a href="https://elsewhere.example.org/x">Elsewhere</a>
		<a href="/blog/post">Blog</a>
		<a href="mailto:docs@example.com">Mail</a>
		</main></body></html>`))
	mux.HandleFunc("/docs/install", html(`<html><body>
		<main><h1>Install</h1><p>Run the installer.</p><a href="usage">Next</a></main>
		<footer>Copyright notice</footer></body></html>`))
	mux.HandleFunc("/docs/usage", html(`<html><body><article><h1>Usage</h1><p>Call it.</p></article></body></html>`))
	mux.HandleFunc("/docs/notes.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  plain notes  \n"))
	})
	mux.HandleFunc("/docs/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	mux.HandleFunc("/docs/empty", html(`<html><body><nav>only chrome</nav></body></html>`))
	return mux
}

func newTestClient(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(docsSite())
	t.Cleanup(server.Close)

	c, err := New(WithConcurrency(2))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, server
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(WithConcurrency(0))
	assert.Error(t, err)
	_, err = New(WithTimeout(0))
	assert.Error(t, err)
	_, err = New(WithMaxContentSize(0))
	assert.Error(t, err)
}

func TestClient_Map(t *testing.T) {
	c, server := newTestClient(t)

	req := webcrawl.NewMapRequest(server.URL + "/docs/")
	req.MaxDepth = 2
	urls, err := c.Map(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{
		server.URL + "/docs/",
		server.URL + "/docs/install",
		server.URL + "/docs/usage",
	}, urls)
}

func TestClient_MapBounds(t *testing.T) {
	c, server := newTestClient(t)

	t.Run("limit", func(t *testing.T) {
		req := webcrawl.NewMapRequest(server.URL + "/docs/")
		req.Limit = 2
		urls, err := c.Map(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{server.URL + "/docs/", server.URL + "/docs/install"}, urls)
	})

	t.Run("breadth", func(t *testing.T) {
		req := webcrawl.MapRequest{URL: server.URL + "/docs/", MaxDepth: 1, MaxBreadth: 1}
		urls, err := c.Map(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, []string{server.URL + "/docs/", server.URL + "/docs/install"}, urls)
	})
}

func TestClient_MapSeedFailure(t *testing.T) {
	c, server := newTestClient(t)

	_, err := c.Map(context.Background(), webcrawl.NewMapRequest(server.URL+"/docs/missing/page"))
	assert.Error(t, err)

	_, err = c.Map(context.Background(), webcrawl.MapRequest{})
	assert.ErrorIs(t, err, webcrawl.ErrEmptyURL)

	_, err = c.Map(context.Background(), webcrawl.MapRequest{URL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestClient_Extract(t *testing.T) {
	c, server := newTestClient(t)

	urls := []string{
		server.URL + "/docs/install",
		server.URL + "/docs/notes.txt",
		server.URL + "/docs/logo.png",
		server.URL + "/nope",
		server.URL + "/docs/empty",
	}
	resp, err := c.Extract(context.Background(), urls, webcrawl.DepthBasic)
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, urls[0], resp.Results[0].URL)
	assert.Contains(t, resp.Results[0].RawContent, "Run the installer.")
	assert.NotContains(t, resp.Results[0].RawContent, "Copyright")
	assert.Equal(t, webcrawl.Page{URL: urls[1], RawContent: "plain notes"}, resp.Results[1])

	require.Len(t, resp.Failed, 3)
	assert.Equal(t, urls[2], resp.Failed[0].URL)
	assert.Contains(t, resp.Failed[0].Error, "unsupported content type")
	assert.Equal(t, urls[3], resp.Failed[1].URL)
	assert.Contains(t, resp.Failed[1].Error, "404")
	assert.Equal(t, urls[4], resp.Failed[2].URL)
	assert.Equal(t, webcrawl.ErrEmptyContent.Error(), resp.Failed[2].Error)
}

func TestClient_ExtractCanceled(t *testing.T) {
	c, server := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Extract(ctx, []string{server.URL + "/docs/install"}, webcrawl.DepthBasic)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Crawl(t *testing.T) {
	c, server := newTestClient(t)

	req := webcrawl.NewCrawlRequest(server.URL + "/docs/")
	req.MaxDepth = 2
	pages, err := c.Crawl(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Contains(t, pages[2].RawContent, "Call it.")
}
