package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Message is one normalized chat message sent to a provider.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request captures the normalized model input produced by agents, the router
// and the consolidation step. Instructions becomes the provider's system
// prompt.
type Request struct {
	Instructions string    `json:"instructions"`
	Messages     []Message `json:"messages"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the complete text answer produced for a Request.
type Response struct {
	Text  string      `json:"text"`
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the interface required to drive generation. Generate blocks until
// the provider returns a full completion or the context is cancelled.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// UserMessage is a convenience constructor for a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage is a convenience constructor for an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are matched by exact prompt first, then by substring of the last
// user message. It is safe for concurrent use.
type MockModel struct {
	info      Info
	mu        sync.Mutex
	responses map[string]string
	order     []string
	err       error
	calls     []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input. The
// key is matched against the full last user message, then as a substring in
// registration order, so the earliest matching key wins.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.responses[prompt]; !ok {
		m.order = append(m.order, prompt)
	}
	m.responses[prompt] = response
}

// SetError forces every subsequent Generate call to fail with err. Pass nil
// to clear.
func (m *MockModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of all requests seen so far.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if m.err != nil {
		return nil, m.err
	}

	var input string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			input = req.Messages[i].Content
			break
		}
	}

	if full, ok := m.responses[input]; ok {
		return &Response{Text: full}, nil
	}
	for _, key := range m.order {
		if key != "" && strings.Contains(input, key) {
			return &Response{Text: m.responses[key]}, nil
		}
	}
	return &Response{Text: fmt.Sprintf("Mock response to: %s", input)}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
