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
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns a fixed valid reply.
	GenerateFunc func(ctx context.Context, messages []ai.Message) (ai.Decoded, error)

	mu        sync.Mutex
	callCount int
	calls     [][]ai.Message
}

var _ ai.Generator = (*MockGenerator)(nil)

// DefaultAnswer is the answer text returned by the default mock behavior.
const DefaultAnswer = "mock answer"

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// WithReply makes every call decode raw as if the model had returned it.
func (m *MockGenerator) WithReply(raw string) *MockGenerator {
	m.GenerateFunc = func(context.Context, []ai.Message) (ai.Decoded, error) {
		return ai.DecodeReply(raw), nil
	}
	return m
}

// Generate records the conversation and returns the configured reply.
func (m *MockGenerator) Generate(ctx context.Context, messages []ai.Message) (ai.Decoded, error) {
	m.mu.Lock()
	m.callCount++
	m.calls = append(m.calls, append([]ai.Message(nil), messages...))
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return ai.Decoded{Reply: &ai.Reply{Answer: DefaultAnswer}}, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastMessages returns the conversation sent by the most recent call.
func (m *MockGenerator) LastMessages() []ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// Reset clears recorded calls and custom functions.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.calls = nil
	m.GenerateFunc = nil
}
