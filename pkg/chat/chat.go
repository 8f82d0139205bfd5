package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RolePlayer = "player" // the human detective / head of state
	RoleOracle = "oracle" // the generative narrator
	RoleSystem = "system" // player-visible notices, never sent to the oracle
)

// Turn is one persisted entry in a campaign's transcript.
// Turns are immutable once written; the only deletion path is a resend,
// which discards every turn at or after the resent turn's timestamp.
type Turn struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Role       string    `json:"role"` // "player", "oracle" or "system"
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewTurn creates a turn with a fresh ID and timestamp.
func NewTurn(campaignID uuid.UUID, role, content string) Turn {
	return Turn{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Role:       role,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}

// ChatMessage is a single conversation entry in the format the oracle
// API expects. The oracle requires a strictly alternating sequence that
// starts with a player message.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant" on the wire
	Content string `json:"content"`
}

// TurnRequest is a player turn submitted to the API.
type TurnRequest struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Message    string    `json:"message"`
}

func (tr *TurnRequest) Validate() error {
	if tr.CampaignID == uuid.Nil {
		return fmt.Errorf("campaign_id is required")
	}
	if tr.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
