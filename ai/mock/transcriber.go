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

package mock

import (
	"context"
	"sync"

	"github.com/poiesic/logilink/ai"
	"github.com/poiesic/logilink/core"
)

// MockTranscriber is a test double for ai.Transcriber.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	// If nil, echoes the audio bytes as text in the hinted language.
	TranscribeFunc func(ctx context.Context, audio []byte, lang core.Locale) (*core.Transcription, error)

	mu        sync.Mutex
	callCount int
}

var _ ai.Transcriber = (*MockTranscriber)(nil)

// NewMockTranscriber creates a mock transcriber with default behavior.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe returns the configured transcription.
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, lang core.Locale) (*core.Transcription, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.TranscribeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio, lang)
	}
	return &core.Transcription{Text: string(audio), Language: lang.Resolve(), Confidence: 1}, nil
}

// CallCount returns the number of times Transcribe was called.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockTranscriber) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.TranscribeFunc = nil
}
