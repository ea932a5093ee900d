package llm

import (
	"context"
	"errors"
	"sync"
)

// MockClient replays scripted responses in order. Once the script is
// exhausted the last response repeats.
type MockClient struct {
	mu        sync.Mutex
	responses []Response
	requests  []Request
}

// NewMockClient returns a mock that answers with responses.
func NewMockClient(responses ...Response) *MockClient {
	return &MockClient{responses: responses}
}

// DemoMockClient answers like a small model asked an arithmetic question.
func DemoMockClient() *MockClient {
	return NewMockClient(
		Response{Content: "I will calculate that.\n```json\n{\"tool\": \"calculate\", \"parameters\": {\"expression\": \"2 + 3 * 4\"}}\n```"},
		Response{Content: "The answer is 14."},
	)
}

func (m *MockClient) Create(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return Response{}, errors.New("mock client has no scripted responses")
	}
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

// Requests returns the requests seen so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}
