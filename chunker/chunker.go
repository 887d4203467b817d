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

// Package chunker splits document text into overlapping fixed-size windows.
//
// Sizes are measured in runes, so multi-byte scripts (Hindi, Chinese) are
// never split mid-character.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultSize is the default window size in characters.
	DefaultSize = 800
	// DefaultOverlap is the default number of characters shared by adjacent windows.
	DefaultOverlap = 80
)

// ErrInvalidWindow is returned when size and overlap cannot make progress.
var ErrInvalidWindow = errors.New("invalid chunk window")

// Normalize collapses every whitespace run to a single space and trims the result.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Validate checks that a window configuration terminates.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidWindow, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap %d must not be negative", ErrInvalidWindow, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidWindow, overlap, size)
	}
	return nil
}

// Split normalizes text and slides a window of size runes across it,
// advancing by size-overlap each step. The final window ends exactly at the
// end of the text and may be shorter than size. Empty text yields no chunks.
func Split(text string, size, overlap int) ([]string, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(Normalize(text))
	n := len(runes)
	if n == 0 {
		return []string{}, nil
	}

	step := size - overlap
	chunks := make([]string, 0, Count(n, size, overlap))
	for start := 0; ; start += step {
		end := min(start+size, n)
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return chunks, nil
}

// Count returns the number of chunks Split produces for a normalized text of
// length runes. The configuration is assumed valid.
func Count(length, size, overlap int) int {
	if length <= 0 {
		return 0
	}
	if length <= size {
		return 1
	}
	step := size - overlap
	return (length - overlap + step - 1) / step
}
