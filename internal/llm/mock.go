package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockClient is a test double for Client. Set JSONResult to the raw
// JSON served to CompleteJSON and TextResult for Complete; the Err
// fields inject failures.
type MockClient struct {
	mu          sync.Mutex
	TextResult  string
	JSONResult  string
	CompleteErr error
	JSONErr     error
	Requests    []Request
	Schemas     []string
}

func (m *MockClient) Complete(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.CompleteErr != nil {
		return "", m.CompleteErr
	}
	if m.TextResult == "" {
		return "", ErrEmptyResponse
	}
	return m.TextResult, nil
}

func (m *MockClient) CompleteJSON(_ context.Context, req Request, schema Schema, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	m.Schemas = append(m.Schemas, schema.Name)
	if m.JSONErr != nil {
		return m.JSONErr
	}
	if m.JSONResult == "" {
		return ErrEmptyResponse
	}
	return json.Unmarshal([]byte(m.JSONResult), out)
}

// Verify MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)
