package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/solorpg/chronicle/pkg/chat"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAnthropicService(t *testing.T) {
	service := NewAnthropicService("test-key", "claude-3-sonnet", testLog())
	if service.apiKey != "test-key" || service.modelName != "claude-3-sonnet" {
		t.Errorf("constructor fields not set: %+v", service)
	}
	if service.httpClient == nil {
		t.Error("expected HTTP client to be initialized")
	}

	defaulted := NewAnthropicService("k", "", testLog())
	if defaulted.modelName != DefaultAnthropicModel {
		t.Errorf("empty model should default, got %q", defaulted.modelName)
	}
}

func TestGemini_ToContents(t *testing.T) {
	messages := []chat.ChatMessage{
		{Role: "user", Content: "I search the study."},
		{Role: "assistant", Content: "Dust motes drift in the lamplight."},
	}

	contents := toContents(messages)
	if len(contents) != 2 {
		t.Fatalf("contents = %d, want 2", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("role 0 = %q, want user", contents[0].Role)
	}
	if contents[1].Role != "model" {
		t.Errorf("role 1 = %q, want model (assistant maps to model)", contents[1].Role)
	}
	if contents[1].Parts[0].Text != "Dust motes drift in the lamplight." {
		t.Errorf("content not carried over: %+v", contents[1])
	}
}

func TestMockOracle_Defaults(t *testing.T) {
	m := NewMockOracle()

	var chunks []string
	text, err := m.Narrate(context.Background(), "sys", nil, func(s string) {
		chunks = append(chunks, s)
	})
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if text == "" || len(chunks) != 1 || chunks[0] != text {
		t.Errorf("default Narrate should deliver full text as one chunk, got %q %v", text, chunks)
	}
	if len(m.NarrateCalls) != 1 || m.NarrateCalls[0].System != "sys" {
		t.Errorf("call not recorded: %+v", m.NarrateCalls)
	}
}

func TestMockOracle_Scripted(t *testing.T) {
	m := NewMockOracle()
	m.CompleteFunc = func(ctx context.Context, system string, messages []chat.ChatMessage) (string, error) {
		return `{"correct": true, "narrative": "done"}`, nil
	}

	got, err := m.Complete(context.Background(), "judge", nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `{"correct": true, "narrative": "done"}` {
		t.Errorf("Complete = %q", got)
	}
}
