package services

import (
	"context"
	"sync"

	"github.com/solorpg/chronicle/pkg/chat"
)

// MockOracle is an Oracle for testing. Inject NarrateFunc/CompleteFunc to
// script behavior; calls are recorded for assertions.
type MockOracle struct {
	NarrateFunc  func(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error)
	CompleteFunc func(ctx context.Context, system string, messages []chat.ChatMessage) (string, error)

	NarrateCalls  []OracleCall
	CompleteCalls []OracleCall

	mu sync.Mutex
}

type OracleCall struct {
	System   string
	Messages []chat.ChatMessage
}

func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

func (m *MockOracle) Narrate(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error) {
	m.mu.Lock()
	m.NarrateCalls = append(m.NarrateCalls, OracleCall{System: system, Messages: messages})
	m.mu.Unlock()

	if m.NarrateFunc != nil {
		return m.NarrateFunc(ctx, system, messages, onChunk)
	}
	const text = "The story continues."
	if onChunk != nil {
		onChunk(text)
	}
	return text, nil
}

func (m *MockOracle) Complete(ctx context.Context, system string, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, OracleCall{System: system, Messages: messages})
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, messages)
	}
	return "{}", nil
}
