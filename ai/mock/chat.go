package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// MockChatModel is a test double for ai.ChatModel.
// Every call is recorded so tests can inspect the prompts that were sent.
type MockChatModel struct {
	// GenerateContentFunc is called by GenerateContent if set.
	// If nil, the model echoes the text of the last message.
	GenerateContentFunc func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)

	mu    sync.Mutex
	calls [][]llms.MessageContent
}

// NewMockChatModel creates a new mock chat model with default behavior.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// NewMockChatModelWithReplies returns a model that answers with replies in
// order, repeating the last reply once they run out.
func NewMockChatModelWithReplies(replies ...string) *MockChatModel {
	m := &MockChatModel{}
	m.GenerateContentFunc = func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
		n := m.CallCount() - 1
		if n >= len(replies) {
			n = len(replies) - 1
		}
		return Response(replies[n]), nil
	}
	return m
}

// GenerateContent records the messages and returns a response.
func (m *MockChatModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messages)
	m.mu.Unlock()

	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, messages, options...)
	}

	if len(messages) == 0 {
		return Response(""), nil
	}
	return Response(MessageText(messages[len(messages)-1])), nil
}

// CallCount returns the number of times GenerateContent was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the messages sent on each call, in call order.
func (m *MockChatModel) Calls() [][]llms.MessageContent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]llms.MessageContent, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls and custom functions.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.GenerateContentFunc = nil
}

// Response wraps text in a single-choice response.
func Response(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}
}

// MessageText concatenates the text parts of a message.
func MessageText(msg llms.MessageContent) string {
	var b strings.Builder
	for _, part := range msg.Parts {
		if tp, ok := part.(llms.TextContent); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}
