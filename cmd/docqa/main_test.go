package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/docqa"
	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/config"
	"github.com/poiesic/docqa/webcrawl"
)

// site serves a small documentation site from memory.
type site map[string]string

func (s site) Map(_ context.Context, req webcrawl.MapRequest) ([]string, error) {
	var urls []string
	for u := range s {
		if strings.HasPrefix(u, req.URL) {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func (s site) Extract(_ context.Context, urls []string, _ webcrawl.ExtractDepth) (*webcrawl.ExtractResponse, error) {
	resp := &webcrawl.ExtractResponse{}
	for _, u := range urls {
		resp.Results = append(resp.Results, webcrawl.Page{URL: u, RawContent: s[u]})
	}
	return resp, nil
}

func (s site) Crawl(ctx context.Context, req webcrawl.CrawlRequest) ([]webcrawl.Page, error) {
	urls, _ := s.Map(ctx, webcrawl.MapRequest{URL: req.URL})
	resp, _ := s.Extract(ctx, urls, req.ExtractDepth)
	return resp.Results, nil
}

var docs = site{
	"https://docs.example.com/install": "Install the Az module with Install-Module -Name Az from the PowerShell Gallery.",
	"https://docs.example.com/signin":  "Sign in to Azure with Connect-AzAccount before running other cmdlets.",
	"https://docs.example.com/vm":      "Create a virtual machine with New-AzVM and a resource group.",
}

// writeConfig saves a badger/direct configuration that needs no secrets.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Index.Backend = config.IndexBadger
	cfg.Index.Badger.Path = filepath.Join(dir, "index")
	cfg.Crawl.Backend = config.CrawlDirect
	cfg.Chat.TopK = 2
	path := filepath.Join(dir, "docqa.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

// run executes one invocation with a fresh mock provider answering replies.
func run(t *testing.T, in string, replies []string, args ...string) (string, error) {
	t.Helper()
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), mock.NewMockChatModelWithReplies(replies...))
	var out bytes.Buffer
	app := newApp(strings.NewReader(in), &out, docqa.WithProvider(provider), docqa.WithCrawlService(docs))
	err := app.Run(append([]string{"docqa", "--env-file", ""}, args...))
	return out.String(), err
}

func ingest(t *testing.T, cfgPath string) {
	t.Helper()
	out, err := run(t, "", []string{"unused"}, "--config", cfgPath, "ingest", "https://docs.example.com/")
	require.NoError(t, err)
	require.Contains(t, out, "Chunks created: 3")
}

func TestSetupLogger(t *testing.T) {
	_, err := run(t, "", nil, "--log-level", "verbose", "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	_, err = run(t, "", nil, "--log-level", "DEBUG", "config", "show")
	assert.NoError(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "docqa.yaml")

	out, err := run(t, "", nil, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	defaults := config.DefaultConfig()
	assert.Equal(t, defaults.Index, cfg.Index)
	assert.Equal(t, defaults.Crawl.Timeout, cfg.Crawl.Timeout)
	assert.Equal(t, defaults.Ingestion, cfg.Ingestion)

	_, err = run(t, "", nil, "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, "", nil, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	out, err := run(t, "", nil, "--config", writeConfig(t), "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: badger")
	assert.NotContains(t, out, "api_key:")
}

func TestBackendOverrides(t *testing.T) {
	out, err := run(t, "", nil, "--index-backend", "qdrant", "--crawl-backend", "direct", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: qdrant")
	assert.Contains(t, out, "backend: direct")

	t.Setenv("DOCQA_INDEX_BACKEND", "badger")
	out, err = run(t, "", nil, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: badger")
}

func TestIngestCommand(t *testing.T) {
	cfgPath := writeConfig(t)

	t.Run("map mode", func(t *testing.T) {
		out, err := run(t, "", nil, "--config", cfgPath, "ingest", "https://docs.example.com/")
		require.NoError(t, err)
		assert.Contains(t, out, "URLs mapped: 3")
		assert.Contains(t, out, "Extract batches: 1/1")
		assert.Contains(t, out, "Index batches: 1/1")
	})

	t.Run("crawl mode", func(t *testing.T) {
		out, err := run(t, "", nil, "--config", cfgPath, "ingest", "--mode", "crawl", "https://docs.example.com/")
		require.NoError(t, err)
		assert.Contains(t, out, "(crawl)")
		assert.Contains(t, out, "Pages extracted: 3")
		assert.NotContains(t, out, "Extract batches")
	})

	t.Run("missing seed", func(t *testing.T) {
		_, err := run(t, "", nil, "--config", cfgPath, "ingest")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "seed URL is required")
	})

	t.Run("bad mode", func(t *testing.T) {
		_, err := run(t, "", nil, "--config", cfgPath, "ingest", "--mode", "spider", "https://docs.example.com/")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid mode")
	})
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	t.Setenv("PINECONE_API_KEY", "")

	// Defaults select pinecone and tavily, which need secrets and a host.
	_, err := run(t, "", nil, "ask", "how do I install")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "pinecone.host")
}

func TestAskCommand(t *testing.T) {
	cfgPath := writeConfig(t)
	ingest(t, cfgPath)

	metricsPath := filepath.Join(t.TempDir(), "docqa.prom")
	out, err := run(t, "", []string{"Run Connect-AzAccount."},
		"--config", cfgPath, "--metrics-file", metricsPath, "ask", "how", "do", "I", "sign", "in", "with", "connect-azaccount")
	require.NoError(t, err)
	assert.Contains(t, out, "Run Connect-AzAccount.")
	assert.Contains(t, out, "sources:\n")
	assert.Contains(t, out, "https://docs.example.com/signin")

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docqa_questions_total{outcome="ok"} 1`)

	_, err = run(t, "", nil, "--config", cfgPath, "ask")
	assert.Error(t, err)
}

func TestChatCommand(t *testing.T) {
	cfgPath := writeConfig(t)
	ingest(t, cfgPath)

	input := "how do I install the az module\n\n/reset\nhow do I create a vm\nand sign in?\nexit\nnever read\n"
	out, err := run(t, input, []string{"Use Install-Module.", "Use New-AzVM.", "how do I sign in to azure", "Use Connect-AzAccount."},
		"--config", cfgPath, "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "Use Install-Module.")
	assert.Contains(t, out, "history cleared")
	assert.Contains(t, out, "Use New-AzVM.")
	assert.Contains(t, out, "Use Connect-AzAccount.")
	assert.NotContains(t, out, "how do I sign in to azure", "rewritten questions are not shown")
}

func TestChatCommand_EndOfInput(t *testing.T) {
	cfgPath := writeConfig(t)
	out, err := run(t, "", nil, "--config", cfgPath, "chat")
	require.NoError(t, err)
	assert.Equal(t, "> \n", out)
}

func TestSearchCommand(t *testing.T) {
	cfgPath := writeConfig(t)
	ingest(t, cfgPath)

	out, err := run(t, "", nil, "--config", cfgPath, "search", "-k", "1", "new-azvm virtual machine")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 hits")
	assert.Contains(t, out, "https://docs.example.com/vm #0")

	_, err = run(t, "", nil, "--config", cfgPath, "search")
	assert.Error(t, err)
}

func TestReembedCommand(t *testing.T) {
	cfgPath := writeConfig(t)
	ingest(t, cfgPath)

	out, err := run(t, "", nil, "--config", cfgPath, "reembed", "--batch-size", "2", "--report-interval", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3/3")
	assert.Contains(t, out, "Re-embedding complete. Processed 3 chunks")

	_, err = run(t, "", nil, "--config", cfgPath, "reembed", "--batch-size", "0")
	assert.Error(t, err)
}

func TestCommandFlags(t *testing.T) {
	app := newApp(strings.NewReader(""), &bytes.Buffer{})

	find := func(name string) *cli.Command {
		for _, cmd := range app.Commands {
			if cmd.Name == name {
				return cmd
			}
		}
		t.Fatalf("command %s not found", name)
		return nil
	}

	for _, flag := range find("ingest").Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "mode" {
			assert.Equal(t, "map", f.Value)
		}
	}
	for _, flag := range find("reembed").Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == "batch-size" {
			assert.Equal(t, 100, f.Value)
		}
	}
	assert.Len(t, find("config").Subcommands, 2)
}
