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
	"os"

	"github.com/poiesic/logilink/reembed"
	"github.com/urfave/cli/v2"
)

// reembedConfigFromFlags validates the numeric flags before any database work.
func reembedConfigFromFlags(c *cli.Context) (*reembed.Config, error) {
	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Prune:          c.Bool("prune"),
	}

	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	return config, nil
}

func reembedCommand(c *cli.Context) error {
	config, err := reembedConfigFromFlags(c)
	if err != nil {
		return err
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Target model comes from configuration
	reembedder, err := rt.db.NewReembedder(config, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", rt.cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", rt.cfg.AIConfig().EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", rt.db.Provider().EmbeddingModel())
	fmt.Fprintln(os.Stderr)

	summary, err := reembedder.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	rt.logger.Info("reembedding complete",
		"model", summary.Model,
		"total", summary.Total,
		"embedded", summary.Embedded,
		"skipped", summary.Skipped,
		"pruned", summary.Pruned,
		"elapsed", summary.Elapsed,
	)
	return nil
}
