// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/docqa"
	"github.com/poiesic/docqa/chat"
	"github.com/poiesic/docqa/config"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/metrics"
	"github.com/poiesic/docqa/reembed"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// runner carries state shared by the commands of one invocation.
type runner struct {
	opts    []docqa.AssistantOption
	metrics *metrics.Metrics
}

func newApp(in io.Reader, out io.Writer, opts ...docqa.AssistantOption) *cli.App {
	r := &runner{opts: opts, metrics: metrics.New()}

	return &cli.App{
		Name:      "docqa",
		Usage:     "Ingest a documentation site and answer questions about it",
		Reader:    in,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file (defaults are used when empty)",
				EnvVars: []string{"DOCQA_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file if it exists",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "index-backend",
				Usage:   "Override index.backend (pinecone, qdrant, badger)",
				EnvVars: []string{"DOCQA_INDEX_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "crawl-backend",
				Usage:   "Override crawl.backend (tavily, direct)",
				EnvVars: []string{"DOCQA_CRAWL_BACKEND"},
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics in text format to this file on exit",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return loadEnv(c.String("env-file"))
		},
		After: r.writeMetrics,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Discover, extract, chunk and index a documentation site",
				ArgsUsage: "<seed-url>",
				Action:    r.ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Discovery mode: map (map then extract in batches) or crawl (single crawl request)",
						Value:   string(ingestion.ModeMap),
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question from the indexed documentation",
				ArgsUsage: "<question>",
				Action:    r.askCommand,
			},
			{
				Name:   "chat",
				Usage:  "Start an interactive conversation (type exit to quit, /reset to clear history)",
				Action: r.chatCommand,
			},
			{
				Name:      "search",
				Usage:     "Show the chunks retrieved for a query",
				ArgsUsage: "<query>",
				Action:    r.searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of chunks to return (defaults to chat.top_k)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed every chunk of a badger index with the configured embedding model",
				Action: r.reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:  "config",
				Usage: "Manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:      "init",
						Usage:     "Write the default configuration",
						ArgsUsage: "<path>",
						Action:    configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing file",
							},
						},
					},
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: configShowCommand,
					},
				},
			},
		},
	}
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if v := c.String("index-backend"); v != "" {
		cfg.Index.Backend = v
	}
	if v := c.String("crawl-backend"); v != "" {
		cfg.Crawl.Backend = v
	}
	return cfg, nil
}

func (r *runner) openAssistant(c *cli.Context) (*docqa.Assistant, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	cfg.ResolveSecrets(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := append([]docqa.AssistantOption{docqa.WithMetrics(r.metrics)}, r.opts...)
	a, err := docqa.NewAssistant(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

func (r *runner) ingestCommand(c *cli.Context) error {
	seed := strings.TrimSpace(c.Args().First())
	if seed == "" {
		return errors.New("seed URL is required")
	}
	mode := ingestion.Mode(c.String("mode"))
	if mode != ingestion.ModeMap && mode != ingestion.ModeCrawl {
		return fmt.Errorf("invalid mode %q: must be map or crawl", mode)
	}

	a, _, err := r.openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, err := a.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	var report *ingestion.Report
	if mode == ingestion.ModeCrawl {
		report, err = pipeline.RunCrawl(c.Context, seed)
	} else {
		report, err = pipeline.Run(c.Context, seed)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Run %s (%s) of %s finished in %v\n", report.RunID, report.Mode, report.SeedURL, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "URLs mapped: %d\n", report.URLsMapped)
	fmt.Fprintf(out, "Pages extracted: %d\n", report.PagesExtracted)
	fmt.Fprintf(out, "Chunks created: %d\n", report.ChunksCreated)
	if report.Mode == ingestion.ModeMap {
		fmt.Fprintf(out, "Extract batches: %d/%d\n", report.Extraction.Succeeded, report.Extraction.Total)
	}
	fmt.Fprintf(out, "Index batches: %d/%d\n", report.Indexing.Succeeded, report.Indexing.Total)
	return nil
}

func (r *runner) askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("question is required")
	}

	a, _, err := r.openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	service, err := a.NewChatService()
	if err != nil {
		return err
	}

	answer, err := service.Ask(c.Context, question, nil)
	r.metrics.QuestionAnswered(err)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, chat.FormatAnswer(answer))
	return nil
}

func (r *runner) chatCommand(c *cli.Context) error {
	a, _, err := r.openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	service, err := a.NewChatService()
	if err != nil {
		return err
	}
	conv := chat.NewConversation(service)

	out := c.App.Writer
	scanner := bufio.NewScanner(c.App.Reader)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/reset":
			conv.Reset()
			fmt.Fprintln(out, "history cleared")
			continue
		}

		answer, err := conv.Ask(c.Context, line)
		r.metrics.QuestionAnswered(err)
		if err != nil {
			if c.Context.Err() != nil {
				return c.Context.Err()
			}
			slog.Error("question failed", "err", err)
			fmt.Fprintf(out, "error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "%s\n\n", chat.FormatAnswer(answer))
	}
}

func (r *runner) searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query is required")
	}

	a, _, err := r.openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []search.Option
	if k := c.Int("k"); k > 0 {
		opts = append(opts, search.WithTopK(k))
	}
	searcher, err := a.NewSearcher(opts...)
	if err != nil {
		return err
	}

	monitor := &search.LogMonitor{Logger: slog.Default().With("component", "search")}
	results, err := searcher.RetrieveWithMonitor(c.Context, query, monitor)
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(out, "%d: %s #%d [%0.3f]\n", i, hit.Chunk.SourceURL, hit.Chunk.Index, hit.Score)
		fmt.Fprintf(out, "   %s\n", preview(hit.Chunk.Text, 160))
	}
	return nil
}

func (r *runner) reembedCommand(c *cli.Context) error {
	a, cfg, err := r.openAssistant(c)
	if err != nil {
		return err
	}
	defer a.Close()

	lister, ok := a.Index().(storage.Lister)
	if !ok {
		return fmt.Errorf("index backend %q cannot list its chunks", cfg.Index.Backend)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxAttempts:    c.Int("max-attempts"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	reembedder, err := reembed.NewReembedder(lister, a.Index(), reembedConfig, c.App.Writer)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Index: %s\n", cfg.Index.Badger.Path)
	fmt.Fprintf(c.App.Writer, "Embedding model: %s\n\n", cfg.AI.EmbeddingModel)

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("re-embedding failed: %w", err)
	}
	return nil
}

func configInitCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = c.String("config")
	}
	if path == "" {
		return errors.New("config path is required")
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func (r *runner) writeMetrics(c *cli.Context) error {
	path := c.String("metrics-file")
	if path == "" {
		return nil
	}
	if err := r.metrics.WriteToTextfile(path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len([]rune(text)) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
