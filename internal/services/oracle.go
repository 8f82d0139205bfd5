package services

import (
	"context"

	"github.com/solorpg/chronicle/pkg/chat"
)

// Oracle is the stateless generative narrator. Every call carries the full
// context; the oracle retains nothing between calls.
type Oracle interface {
	// Narrate generates the next narrative response, invoking onChunk with
	// text fragments as they arrive. onChunk may be nil. The returned
	// string is always the complete response.
	Narrate(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error)

	// Complete generates a full response without streaming. Used for the
	// out-of-band calls: memory extraction and arrest judging.
	Complete(ctx context.Context, system string, messages []chat.ChatMessage) (string, error)
}
