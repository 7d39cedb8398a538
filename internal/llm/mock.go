package llm

import (
	"context"
	"sync"
)

// MockClient is a test implementation of Client that records every prompt.
type MockClient struct {
	// Respond computes the reply for a prompt. When nil, Response and Err are returned.
	Respond  func(prompt string) (string, error)
	Err      error
	Response string
	prompts  []string
	mu       sync.Mutex
}

// NewMockClient creates a mock that always replies with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{Response: response}
}

// Complete records the prompt and returns the configured reply.
func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	respond := m.Respond
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if respond != nil {
		return respond(prompt)
	}
	return m.Response, m.Err
}

// CallCount returns the number of Complete calls.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
