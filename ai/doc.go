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

// Package ai provides abstractions for the external model services used by
// the reasoning pipeline.
//
// The package defines one interface per backend:
//
//   - Embedder: turns a single text into a vector
//   - Generator: turns system and user messages into a decoded Reply
//   - Transcriber: turns audio into text with a language tag
//   - AIProvider: aggregates the three for lifecycle management
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types. Mock constructors return concrete types so tests can
// inject behavior and read call counts.
//
// # Reply Decoding
//
// Generation results are a tagged value rather than an error: a transport
// failure is an error, while a reply that does not match the output schema is
// a Decoded with Violation set. Callers can retry on violations without
// confusing them with backend outages.
//
//	decoded, err := provider.Generator().Generate(ctx, messages)
//	if err != nil {
//	    return err // backend unreachable
//	}
//	if !decoded.OK() {
//	    log.Println("schema violation", decoded.Violation.Raw)
//	}
package ai
