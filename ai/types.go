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

package ai

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/segmentio/encoding/json"
)

// Role tags a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single role-tagged chat message.
type Message struct {
	Role    Role
	Content string
}

// Reply is the structured object a model must emit.
type Reply struct {
	Answer     string          `json:"answer"`
	Confidence *float64        `json:"confidence,omitempty"`
	Citations  []ReplyCitation `json:"citations,omitempty"`
	Trace      []string        `json:"trace,omitempty"`
	Language   string          `json:"language,omitempty"`
}

// ReplyCitation is a document the model claims to have used.
type ReplyCitation struct {
	DocumentID CitationRef `json:"document_id"`
	Snippet    string      `json:"snippet,omitempty"`
	Similarity *float64    `json:"similarity,omitempty"`
}

// CitationRef is a document reference that models emit as either a number or a string.
type CitationRef string

// UnmarshalJSON accepts JSON strings and numbers.
func (c *CitationRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = CitationRef(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("document_id must be a string or number: %w", err)
	}
	*c = CitationRef(data)
	return nil
}

// SchemaViolation carries a model reply that could not be decoded.
type SchemaViolation struct {
	Raw string
	Err error
}

// Error implements error.
func (v *SchemaViolation) Error() string {
	return ErrSchemaViolation.Error() + ": " + v.Err.Error()
}

// Unwrap exposes both ErrSchemaViolation and the decode cause to errors.Is.
func (v *SchemaViolation) Unwrap() []error {
	return []error{ErrSchemaViolation, v.Err}
}

// Decoded is the tagged result of decoding a model reply.
// Exactly one of Reply and Violation is set.
type Decoded struct {
	Reply     *Reply
	Violation *SchemaViolation
}

// OK reports whether the reply decoded successfully.
func (d Decoded) OK() bool {
	return d.Reply != nil && d.Violation == nil
}
