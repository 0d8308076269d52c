package mock

import (
	"context"
	"sync"

	"github.com/poiesic/docqa/ai"
)

// MockGenerator is a test double for ai.Generator.
// It records every conversation it is asked to answer.
type MockGenerator struct {
	mu sync.Mutex

	// GenerateFunc is called by Generate if set.
	// If nil, the last history turn is echoed back.
	GenerateFunc func(ctx context.Context, conv ai.Conversation, cfg ai.GenerationConfig) (ai.Reply, error)

	callCount     int
	conversations []ai.Conversation
	configs       []ai.GenerationConfig
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator with echo behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// WithGenerateFunc sets the Generate behavior and returns the mock for chaining.
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, conv ai.Conversation, cfg ai.GenerationConfig) (ai.Reply, error)) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateFunc = fn
	return m
}

// Generate records the request and answers it.
func (m *MockGenerator) Generate(ctx context.Context, conv ai.Conversation, cfg ai.GenerationConfig) (ai.Reply, error) {
	m.mu.Lock()
	m.callCount++
	recorded := ai.Conversation{
		Context: conv.Context,
		History: append([]ai.Turn(nil), conv.History...),
	}
	m.conversations = append(m.conversations, recorded)
	m.configs = append(m.configs, cfg)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, conv, cfg)
	}

	_, msg, err := conv.Split()
	if err != nil {
		return ai.Reply{}, err
	}
	return ai.TextReply("echo: " + msg), nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastConversation returns the most recent conversation passed to Generate.
// Returns a zero value if Generate was never called.
func (m *MockGenerator) LastConversation() ai.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.conversations) == 0 {
		return ai.Conversation{}
	}
	return m.conversations[len(m.conversations)-1]
}

// LastConfig returns the most recent generation config passed to Generate.
func (m *MockGenerator) LastConfig() ai.GenerationConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.configs) == 0 {
		return ai.GenerationConfig{}
	}
	return m.configs[len(m.configs)-1]
}

// Reset clears the call count, recorded requests and custom function.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.conversations = nil
	m.configs = nil
	m.GenerateFunc = nil
}
