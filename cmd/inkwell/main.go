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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/inkwell"
	"github.com/poiesic/inkwell/ai"
	"github.com/poiesic/inkwell/ai/openai"
	"github.com/poiesic/inkwell/core"
	"github.com/poiesic/inkwell/indexer"
	"github.com/poiesic/inkwell/pipeline"
	"github.com/poiesic/inkwell/retrieval"
	"github.com/poiesic/inkwell/storage/badger"
)

func main() {
	aiFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Completion model name",
			Value: "qwen2.5:7b",
		},
		&cli.StringFlag{
			Name:  "vision-model",
			Usage: "Vision model name for text recognition",
			Value: "llama3.2-vision",
		},
	}
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}

	app := &cli.App{
		Name:  "inkwell",
		Usage: "Turn photographed notes into cross-referenced study documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "process",
				Usage:     "Process a photographed note into a study document",
				ArgsUsage: "<image-file>",
				Action:    processCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "course",
						Usage: "Course identifier to scope cross-referencing (empty disables retrieval)",
					},
					&cli.StringFlag{
						Name:  "course-name",
						Usage: "Human-readable course name",
					},
					&cli.StringFlag{
						Name:  "hint",
						Usage: "Free-text context about the note",
					},
					&cli.BoolFlag{
						Name:  "assess",
						Usage: "Generate review questions and flashcards",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title for the stored document (defaults to the image file name)",
					},
					&cli.BoolFlag{
						Name:  "no-save",
						Usage: "Print the document without storing it",
					},
				}, aiFlags...),
			},
			{
				Name:   "index",
				Usage:  "Backfill embeddings for documents that have none",
				Action: indexCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to embed per batch",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers (0 = automatic)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embeddings",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, aiFlags...),
			},
			{
				Name:      "related",
				Usage:     "List documents similar to a stored document",
				ArgsUsage: "<document-id>",
				Action:    relatedCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of results",
						Value: 3,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithVisionModel(c.String("vision-model")),
	)
}

func processCommand(c *cli.Context) error {
	ctx := context.Background()

	imagePath := c.Args().First()
	if imagePath == "" {
		return fmt.Errorf("an image file argument is required")
	}
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ws, err := inkwell.NewWorkspace(c.String("db"),
		inkwell.WithAIConfig(aiConfigFromFlags(c)))
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	defer ws.Close()

	state := ws.Process(ctx, pipeline.Input{
		Image:              image,
		CourseId:           c.String("course"),
		CourseName:         c.String("course-name"),
		Hint:               c.String("hint"),
		GenerateAssessment: c.Bool("assess"),
	})

	if meta := state.Metadata; meta != nil {
		fmt.Fprintf(os.Stderr, "Run %s: %s in %s\n", state.RunId, state.Status, meta.TotalElapsed.Round(time.Millisecond))
		fmt.Fprintf(os.Stderr, "Type: %s | Confidence: %.2f | Related: %d | Concepts: %d\n",
			meta.DocumentType, meta.Confidence, meta.RelatedCount, meta.ConceptCount)
		for _, msg := range meta.Errors {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		}
	}
	if state.Status != pipeline.StatusCompleted {
		for _, msg := range state.Errors {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
		return fmt.Errorf("processing failed")
	}

	if c.Bool("no-save") {
		fmt.Println(state.FinalDocument)
		return nil
	}

	title := c.String("title")
	if title == "" {
		base := filepath.Base(imagePath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	saved, err := ws.SaveResult(ctx, state, title)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved document %d (%q)\n", saved.Id, saved.Title)
	return nil
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	aiConfig := aiConfigFromFlags(c)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	indexConfig := &indexer.Config{
		BatchSize:  c.Int("batch-size"),
		MaxRetries: c.Int("max-retries"),
		RetryDelay: c.Duration("retry-delay"),
	}
	if indexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if indexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	opts := []indexer.Option{indexer.WithConfig(indexConfig)}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, indexer.WithPoolSize(size))
	}
	ix, err := indexer.NewIndexer(repo, embedder, opts...)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer ix.Release()

	indexed, err := ix.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Indexed %d documents\n", indexed)
	return nil
}

func relatedCommand(c *cli.Context) error {
	ctx := context.Background()

	idArg := c.Args().First()
	if idArg == "" {
		return fmt.Errorf("a document id argument is required")
	}
	var id uint64
	if _, err := fmt.Sscanf(idArg, "%d", &id); err != nil {
		return fmt.Errorf("invalid document id %q", idArg)
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	search, err := retrieval.NewSearch(repo)
	if err != nil {
		return fmt.Errorf("failed to create search: %w", err)
	}

	results, err := search.Related(ctx, core.ID(id), c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d related documents\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: %q (%d)[%0.3f]\n", i, hit.Title, hit.Id, hit.Similarity)
	}
	return nil
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

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
