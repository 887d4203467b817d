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
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/segmentio/encoding/json"
)

var (
	errEmptyReply     = errors.New("reply is empty")
	errNoObject       = errors.New("reply contains no JSON object")
	errMissingAnswer  = errors.New("answer is required")
	errConfidenceBand = errors.New("confidence must be between 0 and 1")
)

// DecodeReply strictly decodes raw model output into a Reply.
// Markdown code fences and prose around the JSON object are stripped and
// unquoted keys are repaired; every other deviation from the schema yields a
// SchemaViolation carrying the raw text.
func DecodeReply(raw string) Decoded {
	text := strings.TrimSpace(raw)
	if text == "" {
		return violation(raw, errEmptyReply)
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return violation(raw, errNoObject)
	}
	text = repairJSON(text[start : end+1])

	var reply Reply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return violation(raw, err)
	}

	reply.Answer = strings.TrimSpace(reply.Answer)
	if reply.Answer == "" {
		return violation(raw, errMissingAnswer)
	}
	if c := reply.Confidence; c != nil && (math.IsNaN(*c) || *c < 0 || *c > 1) {
		return violation(raw, fmt.Errorf("%w: got %v", errConfidenceBand, *c))
	}
	reply.Language = strings.TrimSpace(reply.Language)

	return Decoded{Reply: &reply}
}

func violation(raw string, err error) Decoded {
	return Decoded{Violation: &SchemaViolation{Raw: raw, Err: err}}
}
