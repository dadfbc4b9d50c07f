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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/cookbook"
	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/fetch"
	"github.com/poiesic/cookbook/metrics"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "cookbook",
		Usage: "Collect recipes from web pages and search them by meaning",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"COOKBOOK_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./cookbook_db",
				EnvVars: []string{"COOKBOOK_DB"},
			},
			&cli.StringFlag{
				Name:    "llm-host",
				Usage:   "OpenAI-compatible host for both embeddings and chat",
				EnvVars: []string{"COOKBOOK_LLM_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL (overrides llm-host)",
				EnvVars: []string{"COOKBOOK_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "chat-host",
				Usage:   "Chat service host URL (overrides llm-host)",
				EnvVars: []string{"COOKBOOK_CHAT_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"COOKBOOK_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "chat-model",
				Usage:   "Chat model name used for extraction and re-ranking",
				EnvVars: []string{"COOKBOOK_CHAT_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "API token for the model services",
				EnvVars: []string{"COOKBOOK_API_TOKEN"},
			},
			&cli.DurationFlag{
				Name:    "fetch-timeout",
				Usage:   "Timeout for a single page fetch attempt",
				Value:   30 * time.Second,
				EnvVars: []string{"COOKBOOK_FETCH_TIMEOUT"},
			},
			&cli.Float64Flag{
				Name:    "fetch-rate",
				Usage:   "Maximum requests per second to a single site (0 disables)",
				EnvVars: []string{"COOKBOOK_FETCH_RATE"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			ingestCommand(),
			searchCommand(),
			listCommand(),
			showCommand(),
			reindexCommand(),
			serveCommand(),
		},
	}
}

// aiConfig builds the model configuration from the global flags. Unset flags
// keep the ai.DefaultConfig values.
func aiConfig(c *cli.Context) (*ai.Config, error) {
	var opts []ai.ConfigOption
	if host := c.String("llm-host"); host != "" {
		opts = append(opts, ai.WithHost(host))
	}
	if host := c.String("embedding-host"); host != "" {
		opts = append(opts, ai.WithEmbeddingHost(host))
	}
	if host := c.String("chat-host"); host != "" {
		opts = append(opts, ai.WithChatHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("chat-model"); model != "" {
		opts = append(opts, ai.WithChatModel(model))
	}
	if token := c.String("api-token"); token != "" {
		opts = append(opts, ai.WithAPIToken(token))
	}

	cfg := ai.NewConfig(opts...)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

func fetchConfig(c *cli.Context) *fetch.Config {
	cfg := fetch.DefaultConfig()
	cfg.Timeout = c.Duration("fetch-timeout")
	if r := c.Float64("fetch-rate"); r > 0 {
		cfg.HostRate = rate.Limit(r)
	}
	return cfg
}

// openCookbook opens the database named by --db with the configured models.
func openCookbook(c *cli.Context, m *metrics.Metrics) (*cookbook.Cookbook, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	cfg, err := aiConfig(c)
	if err != nil {
		return nil, err
	}
	cb, err := cookbook.Open(dbPath,
		cookbook.WithAIConfig(cfg),
		cookbook.WithFetchConfig(fetchConfig(c)),
		cookbook.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	slog.Debug("opened database", "path", dbPath, "chat_model", cfg.ChatModel, "embedding_model", cfg.EmbeddingModel)
	return cb, nil
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
