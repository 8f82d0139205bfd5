package leader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/pkg/directive"
)

// ProfileStore is the slice of persistence the mutator needs.
type ProfileStore interface {
	GetLeader(ctx context.Context, campaignID uuid.UUID) (*Profile, error)
	SaveLeader(ctx context.Context, profile *Profile) error
}

// TimelineStore appends to and reads a campaign's timeline.
type TimelineStore interface {
	ListTimelineEvents(ctx context.Context, campaignID uuid.UUID) ([]TimelineEvent, error)
	AppendTimelineEvent(ctx context.Context, event TimelineEvent) error
}

// Mutator turns decoded impact directives into persisted, bounded
// state updates plus timeline entries. It is the only writer of leader
// state.
type Mutator struct {
	leaders  ProfileStore
	timeline TimelineStore
	logger   *slog.Logger
}

// NewMutator creates a mutator over the given stores.
func NewMutator(leaders ProfileStore, timeline TimelineStore, logger *slog.Logger) *Mutator {
	return &Mutator{
		leaders:  leaders,
		timeline: timeline,
		logger:   logger,
	}
}

// Apply folds one turn's decoded directives into the campaign's leader
// state. The profile is created lazily on first use. One decision
// event is appended per applied impact (one quarter of mandate time),
// and an election directive appends the corresponding election event,
// implicitly resetting the derived cadence count.
func (m *Mutator) Apply(ctx context.Context, campaignID uuid.UUID, leaderName string, res *directive.Result) (*Profile, error) {
	profile, err := m.leaders.GetLeader(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leader: %w", err)
	}
	if profile == nil {
		profile = NewProfile(campaignID, leaderName)
		m.logger.Info("Created leader profile", "campaign_id", campaignID, "leader", leaderName)
	}

	hasImpact := res.Impact != nil || res.NationImpact != nil
	if hasImpact {
		profile.ApplyImpact(toAxesDelta(res.Impact), toNationDelta(res.NationImpact), res.ImpactSummary)
	}

	if err := m.leaders.SaveLeader(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save leader: %w", err)
	}

	if hasImpact {
		event := NewTimelineEvent(campaignID, EventDecision, decisionLabel(res.ImpactSummary))
		event.ImpactSummary = res.ImpactSummary
		if err := m.timeline.AppendTimelineEvent(ctx, event); err != nil {
			// The numeric state is already saved; a lost audit entry is
			// logged, not fatal.
			m.logger.Error("Failed to append decision event", "error", err, "campaign_id", campaignID)
		}
	}

	if res.Election != "" {
		eventType := EventElectionHeld
		label := "Elections held"
		if res.Election == directive.ElectionPostponed {
			eventType = EventElectionPostponed
			label = "Elections postponed"
		}
		if err := m.timeline.AppendTimelineEvent(ctx, NewTimelineEvent(campaignID, eventType, label)); err != nil {
			m.logger.Error("Failed to append election event", "error", err, "campaign_id", campaignID)
		}
	}

	return profile, nil
}

// Quarters returns the derived count of decision quarters since the
// last election event, for the next prompt's cadence guidance.
func (m *Mutator) Quarters(ctx context.Context, campaignID uuid.UUID) (int, error) {
	events, err := m.timeline.ListTimelineEvents(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to list timeline events: %w", err)
	}
	return QuartersSinceLastElection(events), nil
}

func decisionLabel(summary string) string {
	if summary != "" {
		return summary
	}
	return "Decision taken"
}

func toAxesDelta(i *directive.Impact) *AxesDelta {
	if i == nil {
		return nil
	}
	return &AxesDelta{
		Economic:   i.Economic,
		Social:     i.Social,
		Governance: i.Governance,
		Military:   i.Military,
		Diplomatic: i.Diplomatic,
	}
}

func toNationDelta(n *directive.NationImpact) *NationDelta {
	if n == nil {
		return nil
	}
	return &NationDelta{
		Stability:             n.Stability,
		Economy:               n.Economy,
		Wellbeing:             n.Wellbeing,
		Inequality:            n.Inequality,
		InternationalStanding: n.InternationalStanding,
	}
}
