// Package mocks provides test doubles for the llm.Provider interface.
//
// MockProvider supports fixed responses, prompt-matching rules, scripted
// response queues, and error injection.
package mocks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/careerflow/careerflow/llm"
)

// MockProvider is a scriptable llm.Provider implementation.
type MockProvider struct {
	mu sync.RWMutex

	response string
	queue    []string
	rules    []rule
	err      error

	promptTokens     int
	completionTokens int

	calls          []MockProviderCall
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	failAfter int
	callCount int
}

type rule struct {
	substr   string
	response string
}

// MockProviderCall records one Completion invocation.
type MockProviderCall struct {
	Request  *llm.ChatRequest
	Response *llm.ChatResponse
	Error    error
}

// NewMockProvider creates a MockProvider with a generic default response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		response:         "Mock response",
		promptTokens:     10,
		completionTokens: 20,
	}
}

// WithResponse sets the fixed response content.
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithQueue scripts a sequence of responses consumed one per call. When the
// queue is exhausted, rules and the fixed response apply.
func (m *MockProvider) WithQueue(responses ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
	return m
}

// WithRule returns response for any request whose concatenated message
// content contains substr. Rules are checked in registration order and take
// precedence over the fixed response.
func (m *MockProvider) WithRule(substr, response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{substr: substr, response: response})
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithTokenUsage sets the reported token usage.
func (m *MockProvider) WithTokenUsage(prompt, completion int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promptTokens = prompt
	m.completionTokens = completion
	return m
}

// WithFailAfter makes calls fail after the first n succeed.
func (m *MockProvider) WithFailAfter(n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithCompletionFunc installs a custom Completion implementation.
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionFunc = fn
	return m
}

// Name implements llm.Provider.
func (m *MockProvider) Name() string {
	return "mock"
}

// HealthCheck implements llm.Provider.
func (m *MockProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{
		Healthy: true,
		Latency: 10 * time.Millisecond,
	}, nil
}

// Completion implements llm.Provider.
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++

	if m.failAfter > 0 && m.callCount > m.failAfter {
		err := errors.New("mock provider: configured to fail after N calls")
		m.calls = append(m.calls, MockProviderCall{Request: req, Error: err})
		return nil, err
	}

	if m.err != nil {
		m.calls = append(m.calls, MockProviderCall{Request: req, Error: m.err})
		return nil, m.err
	}

	if m.completionFunc != nil {
		resp, err := m.completionFunc(ctx, req)
		m.calls = append(m.calls, MockProviderCall{Request: req, Response: resp, Error: err})
		return resp, err
	}

	content := m.pickResponse(req)
	resp := &llm.ChatResponse{
		ID:       "mock-response-id",
		Provider: "mock",
		Model:    req.Model,
		Choices: []llm.ChatChoice{
			{
				Index:        0,
				FinishReason: "stop",
				Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
			},
		},
		Usage: llm.ChatUsage{
			PromptTokens:     m.promptTokens,
			CompletionTokens: m.completionTokens,
			TotalTokens:      m.promptTokens + m.completionTokens,
		},
		CreatedAt: time.Now(),
	}

	m.calls = append(m.calls, MockProviderCall{Request: req, Response: resp})
	return resp, nil
}

// pickResponse resolves queue, then rules, then the fixed response. Caller
// holds the lock.
func (m *MockProvider) pickResponse(req *llm.ChatRequest) string {
	if len(m.queue) > 0 {
		content := m.queue[0]
		m.queue = m.queue[1:]
		return content
	}

	var prompt strings.Builder
	for _, msg := range req.Messages {
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}
	for _, r := range m.rules {
		if strings.Contains(prompt.String(), r.substr) {
			return r.response
		}
	}
	return m.response
}

// GetCalls returns a copy of all recorded calls.
func (m *MockProvider) GetCalls() []MockProviderCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockProviderCall{}, m.calls...)
}

// GetCallCount returns how many times Completion was invoked.
func (m *MockProvider) GetCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCount
}

// GetLastCall returns the most recent call, or nil.
func (m *MockProvider) GetLastCall() *MockProviderCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears recorded calls, the queue, and the injected error.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.queue = nil
	m.callCount = 0
	m.err = nil
}

// NewSuccessProvider creates a provider that always returns response.
func NewSuccessProvider(response string) *MockProvider {
	return NewMockProvider().WithResponse(response)
}

// NewErrorProvider creates a provider that always fails with err.
func NewErrorProvider(err error) *MockProvider {
	return NewMockProvider().WithError(err)
}

// NewFlakeyProvider creates a provider that fails after the first n calls.
func NewFlakeyProvider(failAfter int, response string) *MockProvider {
	return NewMockProvider().
		WithResponse(response).
		WithFailAfter(failAfter)
}
