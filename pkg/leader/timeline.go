package leader

import (
	"time"

	"github.com/google/uuid"
)

// Timeline event types. The timeline is an append-only audit log;
// election cadence is derived from it rather than stored as a counter,
// which keeps the count self-correcting and auditable.
const (
	EventDecision          = "decision"
	EventElectionHeld      = "election_held"
	EventElectionPostponed = "election_postponed"
	EventMilestone         = "milestone"
	EventCrisis            = "crisis"
)

// One decision turn advances the clock by one quarter; a mandate runs
// four years between elections.
const (
	QuartersPerYear     = 4
	ElectionDueQuarters = 16
)

// TimelineEvent is one entry in a campaign's mandate timeline.
type TimelineEvent struct {
	ID            uuid.UUID `json:"id"`
	CampaignID    uuid.UUID `json:"campaign_id"`
	Type          string    `json:"type"`
	Label         string    `json:"label"`
	Summary       string    `json:"summary,omitempty"`
	ImpactSummary string    `json:"impact_summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewTimelineEvent creates an event with a fresh ID and timestamp.
func NewTimelineEvent(campaignID uuid.UUID, eventType, label string) TimelineEvent {
	return TimelineEvent{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Type:       eventType,
		Label:      label,
		CreatedAt:  time.Now().UTC(),
	}
}

// IsElection reports whether the event resets the cadence count.
func (e TimelineEvent) IsElection() bool {
	return e.Type == EventElectionHeld || e.Type == EventElectionPostponed
}

// QuartersSinceLastElection counts decision events recorded after the
// most recent election event. Events must be in chronological order,
// as returned by storage. Milestones and crises do not advance the
// clock.
func QuartersSinceLastElection(events []TimelineEvent) int {
	quarters := 0
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].IsElection() {
			break
		}
		if events[i].Type == EventDecision {
			quarters++
		}
	}
	return quarters
}

// ElectionDue reports whether the mandate has run its full four years
// since the last election event. Compliance is advisory: the oracle is
// prompted to hold an election, never forced.
func ElectionDue(events []TimelineEvent) bool {
	return QuartersSinceLastElection(events) >= ElectionDueQuarters
}
