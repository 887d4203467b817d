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

package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/logilink/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	model       string
	temperature float64
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrConfiguration, err)
	}

	return &Generator{
		client:      client,
		model:       config.GenerationModel,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate sends the messages in order with JSON mode enabled and decodes the
// first choice. Backend failures return an error wrapping ai.ErrGeneration;
// undecodable replies come back as a Decoded violation.
func (g *Generator) Generate(ctx context.Context, messages []ai.Message) (ai.Decoded, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatRole(m.Role), m.Content))
	}

	response, err := g.client.GenerateContent(ctx, content,
		llms.WithTemperature(g.temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		g.logger.Error("failed to generate content", "model", g.model, "err", err)
		return ai.Decoded{}, fmt.Errorf("%w: %w", ai.ErrGeneration, err)
	}
	if len(response.Choices) < 1 {
		g.logger.Error("no choices returned from model", "model", g.model)
		return ai.Decoded{}, fmt.Errorf("%w: no choices returned", ai.ErrGeneration)
	}

	decoded := ai.DecodeReply(response.Choices[0].Content)
	if !decoded.OK() {
		g.logger.Warn("model reply violates schema",
			"model", g.model,
			"response", decoded.Violation.Raw,
			"err", decoded.Violation.Err)
	}
	return decoded, nil
}

func chatRole(r ai.Role) llms.ChatMessageType {
	if r == ai.RoleSystem {
		return llms.ChatMessageTypeSystem
	}
	return llms.ChatMessageTypeHuman
}
