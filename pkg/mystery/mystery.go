// Package mystery holds the detective variant's hidden solution and
// the arrest state machine that gates accusations against it.
package mystery

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Answer is the secret solution generated at campaign start. It is
// never shown to the player; only the arrest flow reads it.
type Answer struct {
	CampaignID   uuid.UUID `json:"campaign_id"`
	Criminal     string    `json:"criminal"`
	Weapon       string    `json:"weapon"`
	Motive       string    `json:"motive"`
	AttemptsUsed int       `json:"attempts_used"` // wrong arrests, monotonic
	CreatedAt    time.Time `json:"created_at"`
}

// NewAnswer records a freshly generated solution.
func NewAnswer(campaignID uuid.UUID, criminal, weapon, motive string) *Answer {
	return &Answer{
		CampaignID: campaignID,
		Criminal:   criminal,
		Weapon:     weapon,
		Motive:     motive,
		CreatedAt:  time.Now().UTC(),
	}
}

// Guess is the player's accusation.
type Guess struct {
	Criminal string `json:"criminal"`
	Weapon   string `json:"weapon"`
	Motive   string `json:"motive"`
}

// Arrest case states.
const (
	CaseOpen   = "open"
	CaseSolved = "solved"
	CaseFailed = "failed"
)

// Outcome is the result of resolving one accusation.
type Outcome struct {
	State             string `json:"state"` // open, solved or failed
	Correct           bool   `json:"correct"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

// Resolve advances the arrest state machine by one verified
// accusation. attemptsUsed increments only on an incorrect accusation;
// solved and failed are terminal and must be enforced by the caller
// via the campaign status before invoking Resolve.
func (a *Answer) Resolve(correct bool, maxAttempts int) Outcome {
	if correct {
		return Outcome{
			State:             CaseSolved,
			Correct:           true,
			AttemptsRemaining: maxAttempts - a.AttemptsUsed,
		}
	}

	a.AttemptsUsed++
	remaining := maxAttempts - a.AttemptsUsed
	if remaining <= 0 {
		return Outcome{State: CaseFailed, AttemptsRemaining: 0}
	}
	return Outcome{State: CaseOpen, AttemptsRemaining: remaining}
}

// Matches is the local lenient verifier, used when the oracle judge is
// unreachable. Each component matches when either normalized string
// contains the other, so "the butler" matches "James, the butler".
func (a *Answer) Matches(g Guess) bool {
	return lenientMatch(g.Criminal, a.Criminal) &&
		lenientMatch(g.Weapon, a.Weapon) &&
		lenientMatch(g.Motive, a.Motive)
}

func lenientMatch(guess, secret string) bool {
	g := normalize(guess)
	s := normalize(secret)
	if g == "" || s == "" {
		return false
	}
	return strings.Contains(g, s) || strings.Contains(s, g)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
