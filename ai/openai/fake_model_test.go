package openai

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an llms.Model that replays a canned response.
type fakeModel struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.messages = messages
	m.options = llms.CallOptions{}
	for _, opt := range options {
		opt(&m.options)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

// humanText returns the text of the last human message sent to the model.
func (m *fakeModel) humanText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role != llms.ChatMessageTypeHuman {
			continue
		}
		for _, part := range m.messages[i].Parts {
			if text, ok := part.(llms.TextContent); ok {
				return text.Text
			}
		}
	}
	return ""
}
