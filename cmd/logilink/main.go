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

	"github.com/joho/godotenv"
	"github.com/poiesic/logilink/reembed"
	"github.com/poiesic/logilink/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "logilink",
		Usage: "Hybrid reasoning over live shipment data and contract documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "logilink.yaml",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Chunk, embed and store contract documents",
				ArgsUsage: "[FILES...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "contract",
						Usage:    "Contract ID that owns the documents",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Document name (single file only; defaults to the file path)",
					},
					&cli.StringFlag{
						Name:  "glob",
						Usage: "Doublestar pattern selecting files, e.g. 'contracts/**/*.md'",
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Ingest documents as they appear in a directory",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "contract",
						Usage:    "Contract ID that owns the documents",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dir",
						Usage:    "Directory to watch",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Doublestar pattern matched against paths relative to --dir",
						Value: defaultWatchPattern,
					},
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "How long a file must stay unchanged before it is ingested",
						Value: defaultWatchDebounce,
					},
				},
			},
			{
				Name:   "ask",
				Usage:  "Answer a question from live shipment data and contract clauses",
				Action: askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Question to answer",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:  "shipment",
						Usage: "Shipment ID to ground the answer in",
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "Answer language (en, hi, zh, es)",
					},
				},
			},
			{
				Name:   "voice",
				Usage:  "Transcribe an audio file and answer it",
				Action: voiceCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Audio file to transcribe",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "base64",
						Usage: "Treat the file content as base64 text",
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "Spoken language hint (en, hi, zh, es)",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Show the contract clauses most similar to a query",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search text",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of clauses",
						Value: search.DefaultMatchCount,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity in [0, 1]",
						Value: search.DefaultThreshold,
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load contracts, shipments and tracking events from YAML",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Seed file (defaults to the built-in demo data)",
					},
				},
			},
			{
				Name:   "contracts",
				Usage:  "Manage contracts",
				Action: listContractsCommand,
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List contracts",
						Action: listContractsCommand,
					},
					{
						Name:   "add",
						Usage:  "Create a contract",
						Action: addContractCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Document name",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "org",
								Usage: "Organization ID",
							},
							&cli.StringFlag{
								Name:  "version",
								Usage: "Contract version label",
							},
						},
					},
					{
						Name:      "activate",
						Usage:     "Make a contract searchable",
						ArgsUsage: "ID",
						Action:    setContractActiveCommand(true),
					},
					{
						Name:      "deactivate",
						Usage:     "Hide a contract from search",
						ArgsUsage: "ID",
						Action:    setContractActiveCommand(false),
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Embed every chunk with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Delete embeddings of other models after migration",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
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
				Name:   "mcp",
				Usage:  "Serve reasoning, ingestion and search as MCP tools over stdio",
				Action: mcpCommand,
			},
		},
	}
}

// before loads .env, if present, and installs the logger.
func before(c *cli.Context) error {
	_ = godotenv.Load()
	return setupLogger(c)
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
