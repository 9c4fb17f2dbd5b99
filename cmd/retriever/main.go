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
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/retriever"
	"github.com/poiesic/retriever/ai"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is fine; flags and the environment still apply.
	// Loaded before flag parsing so EnvVars-backed flags see the values.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "retriever",
		Usage: "Hybrid document retrieval over vector and keyword indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data directory (registry and batch artifacts)",
				Value:   "data",
				EnvVars: []string{"RETRIEVER_DATA"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   "https://api.openai.com/v1",
				EnvVars: []string{"RETRIEVER_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "text-embedding-3-small",
				EnvVars: []string{"RETRIEVER_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Embedding service credential",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build index artifacts for a new batch from a documents directory",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "batch",
						Aliases:  []string{"b"},
						Usage:    "Batch id to create",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "docs",
						Usage:    "Directory with .txt/.md documents to index",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Batch description",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid query against a batch",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "batch",
						Aliases: []string{"b"},
						Usage:   "Batch id to query (default batch if omitted)",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   10,
					},
					&cli.StringSliceFlag{
						Name:  "sources",
						Usage: "Required sources for balanced retrieval (e.g. --sources alpha --sources beta)",
					},
				},
			},
			{
				Name:   "batches",
				Usage:  "List registered batches",
				Action: batchesCommand,
			},
			{
				Name:   "set-default",
				Usage:  "Set the default batch",
				Action: setDefaultCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "batch",
						Aliases:  []string{"b"},
						Usage:    "Batch id",
						Required: true,
					},
				},
			},
			{
				Name:   "remove",
				Usage:  "Remove a batch from the registry (artifacts stay on disk)",
				Action: removeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "batch",
						Aliases:  []string{"b"},
						Usage:    "Batch id",
						Required: true,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show corpus statistics for a batch",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "batch",
						Aliases: []string{"b"},
						Usage:   "Batch id (default batch if omitted)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newService builds the retrieval service from the global flags.
func newService(c *cli.Context) (*retriever.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return retriever.NewService(c.String("data"), retriever.WithAIConfig(aiConfig))
}

func buildCommand(c *cli.Context) error {
	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	info, err := service.BuildBatch(context.Background(), c.String("batch"), c.String("docs"), c.String("description"))
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Printf("Batch %q built: %d documents, %d chunks\n", info.Id, info.DocCount, info.ChunkCount)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	info, err := service.LoadBatch(c.String("batch"))
	if err != nil {
		return fmt.Errorf("loading batch: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Batch: %s (%d chunks)\n\n", info.Id, info.ChunkCount)

	results := service.Search(context.Background(), query, c.Int("top-k"), c.StringSlice("sources"))
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%2d. [%.4f] %s (%s)\n", i+1, result.CombinedScore,
			result.Metadata["filename"], result.Origin)
		fmt.Printf("    %s\n", result.Content)
	}
	return nil
}

func batchesCommand(c *cli.Context) error {
	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	batches, err := service.Batches()
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Println("No batches registered.")
		return nil
	}

	defaultId := ""
	if def, err := service.DefaultBatch(); err == nil {
		defaultId = def.Id
	}

	for _, batch := range batches {
		marker := " "
		if batch.Id == defaultId {
			marker = "*"
		}
		fmt.Printf("%s %-20s %4d docs %6d chunks  %s  %s\n", marker, batch.Id,
			batch.DocCount, batch.ChunkCount,
			batch.CreatedAt.Format("2006-01-02"), batch.Description)
	}
	return nil
}

func setDefaultCommand(c *cli.Context) error {
	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	if err := service.SetDefaultBatch(c.String("batch")); err != nil {
		return err
	}
	fmt.Printf("Default batch set to %q\n", c.String("batch"))
	return nil
}

func removeCommand(c *cli.Context) error {
	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	if err := service.RemoveBatch(c.String("batch")); err != nil {
		return err
	}
	fmt.Printf("Batch %q removed\n", c.String("batch"))
	return nil
}

func statsCommand(c *cli.Context) error {
	service, err := newService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	info, err := service.LoadBatch(c.String("batch"))
	if err != nil {
		return fmt.Errorf("loading batch: %w", err)
	}

	stats := service.Stats()
	fmt.Printf("Batch:          %s\n", info.Id)
	fmt.Printf("Documents:      %d\n", info.DocCount)
	fmt.Printf("Chunks:         %d\n", stats.ChunkCount)
	fmt.Printf("Indexes loaded: %t\n", stats.IndexesLoaded)
	fmt.Printf("Created:        %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// setup configures the default logger from the log-level flag.
func setup(c *cli.Context) error {
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
