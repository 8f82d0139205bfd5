package campaign

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Variant selects which rule set a campaign runs under.
const (
	VariantDetective = "detective" // investigative mystery, arrest mechanic
	VariantLeader    = "leader"    // nation leadership, axes and elections
)

// Campaign status. A detective campaign closes when the case is solved
// or the arrest attempts are exhausted; leader campaigns stay active.
const (
	StatusActive = "active"
	StatusSolved = "solved"
	StatusFailed = "failed"
)

// Difficulty caps the number of wrong arrests in the detective variant.
const (
	DifficultyEasy   = "easy"
	DifficultyNormal = "normal"
	DifficultyHard   = "hard"
)

// SolvedAnswer is the revealed solution recorded on a solved campaign.
type SolvedAnswer struct {
	Criminal string `json:"criminal"`
	Weapon   string `json:"weapon"`
	Motive   string `json:"motive"`
}

// Campaign is one solo playthrough.
type Campaign struct {
	ID           uuid.UUID     `json:"id"`
	Title        string        `json:"title"`
	Variant      string        `json:"variant"`
	Theme        string        `json:"theme,omitempty"`
	Tone         string        `json:"tone,omitempty"`
	Nation       string        `json:"nation,omitempty"` // leader variant only
	Difficulty   string        `json:"difficulty,omitempty"`
	Language     string        `json:"language,omitempty"` // BCP 47 tag, e.g. "pt"
	Status       string        `json:"status"`
	SolvedAnswer *SolvedAnswer `json:"solved_answer,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// New creates an active campaign with a fresh ID.
func New(title, variant string) *Campaign {
	now := time.Now().UTC()
	return &Campaign{
		ID:        uuid.New(),
		Title:     title,
		Variant:   variant,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Campaign) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("title is required")
	}
	switch c.Variant {
	case VariantDetective, VariantLeader:
	default:
		return fmt.Errorf("unknown variant: %q", c.Variant)
	}
	switch c.Difficulty {
	case "", DifficultyEasy, DifficultyNormal, DifficultyHard:
	default:
		return fmt.Errorf("unknown difficulty: %q", c.Difficulty)
	}
	return nil
}

// Closed reports whether the campaign no longer accepts turns.
func (c *Campaign) Closed() bool {
	return c.Status == StatusSolved || c.Status == StatusFailed
}

// MaxArrestAttempts returns the wrong-arrest cap for the campaign's
// difficulty. Unset difficulty plays as normal.
func (c *Campaign) MaxArrestAttempts() int {
	switch c.Difficulty {
	case DifficultyEasy:
		return 5
	case DifficultyHard:
		return 2
	default:
		return 3
	}
}
