package services

import (
	"context"
	"sync"

	"github.com/mynfini/narrative-engine/pkg/chat"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	InitModelFunc         func(ctx context.Context, modelName string) error
	GenerateNarrationFunc func(ctx context.Context, messages []chat.Message) (string, error)

	// Track calls for testing
	InitModelCalls         []string
	GenerateNarrationCalls []GenerateNarrationCall

	mu sync.Mutex // protects all fields above
}

// Ensure MockLLM implements LLMService interface
var _ LLMService = (*MockLLM)(nil)

type GenerateNarrationCall struct {
	Messages []chat.Message
}

// NewMockLLM creates a new mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{
		InitModelCalls:         make([]string, 0),
		GenerateNarrationCalls: make([]GenerateNarrationCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLM) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// GenerateNarration mocks narration generation
func (m *MockLLM) GenerateNarration(ctx context.Context, messages []chat.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateNarrationCalls = append(m.GenerateNarrationCalls, GenerateNarrationCall{
		Messages: messages,
	})

	if m.GenerateNarrationFunc != nil {
		return m.GenerateNarrationFunc(ctx, messages)
	}
	return "The scene unfolds around you.", nil
}

// SetNarrationError configures the mock to fail narration with the given error
func (m *MockLLM) SetNarrationError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateNarrationFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return "", err
	}
}

// CallCount returns the number of narration calls made
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateNarrationCalls)
}
