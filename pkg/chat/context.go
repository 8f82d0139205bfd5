package chat

import "strings"

// ContextWindow is the number of most recent turns sent to the oracle.
// Continuity beyond the window is carried by consolidated memory
// (recap, entities, facts), not by raw history.
const ContextWindow = 20

const (
	// openingMessage seeds an otherwise empty conversation.
	openingMessage = "Begin the story."
	// fillerMessage is prepended when the windowed history would
	// otherwise open with an oracle message.
	fillerMessage = "[Conversation started]"
)

// Oracle wire roles. The oracle API only understands user/assistant.
const (
	wireUser      = "user"
	wireAssistant = "assistant"
)

// AssembleContext converts a campaign transcript into the bounded,
// strictly alternating message list the oracle accepts:
//
//   - at most the last ContextWindow turns are considered
//   - system turns are dropped (player-visible notices only)
//   - adjacent same-role turns are merged with a blank-line separator
//   - the sequence always starts with a user message, synthesizing one
//     when needed
//
// The function is pure and never returns an empty slice.
func AssembleContext(turns []Turn) []ChatMessage {
	recent := turns
	if len(recent) > ContextWindow {
		recent = recent[len(recent)-ContextWindow:]
	}

	messages := make([]ChatMessage, 0, len(recent))
	for _, t := range recent {
		if t.Role == RoleSystem {
			continue
		}
		role := wireAssistant
		if t.Role == RolePlayer {
			role = wireUser
		}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content += "\n\n" + t.Content
			continue
		}
		messages = append(messages, ChatMessage{Role: role, Content: t.Content})
	}

	if len(messages) == 0 {
		return []ChatMessage{{Role: wireUser, Content: openingMessage}}
	}

	if messages[0].Role != wireUser {
		messages = append([]ChatMessage{{Role: wireUser, Content: fillerMessage}}, messages...)
	}

	return messages
}

// Alternates reports whether msgs starts with a user message and
// strictly alternates between user and assistant.
func Alternates(msgs []ChatMessage) bool {
	if len(msgs) == 0 {
		return false
	}
	if msgs[0].Role != wireUser {
		return false
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Role == msgs[i-1].Role {
			return false
		}
	}
	return true
}

// FormatTranscript renders turns as a flat provenance-keyed transcript
// for memory consolidation. System turns are omitted. Each line is
// "[turnID] Speaker: content"; the bracketed ID is the key facts must
// reference.
func FormatTranscript(turns []Turn) string {
	var sb strings.Builder
	first := true
	for _, t := range turns {
		if t.Role == RoleSystem {
			continue
		}
		speaker := "Narrator"
		if t.Role == RolePlayer {
			speaker = "Player"
		}
		if !first {
			sb.WriteString("\n\n")
		}
		first = false
		sb.WriteString("[" + t.ID.String() + "] " + speaker + ": " + t.Content)
	}
	return sb.String()
}
