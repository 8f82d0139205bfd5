// Package leader holds the nation-leadership state: the leader's
// political axes, the simulated nation's condition, and the timeline
// of decisions and elections the cadence rules are derived from.
package leader

import (
	"time"

	"github.com/google/uuid"
)

// Political axes are signed; nation-state fields are unsigned health
// bars. Prompt guidance nudges the oracle toward small per-decision
// deltas, but storage tolerates and clamps anything.
const (
	AxisMin = -100
	AxisMax = 100

	NationMin = 0
	NationMax = 100

	// DefaultNationValue is the starting value of every nation-state
	// field for a fresh mandate.
	DefaultNationValue = 50
)

// PoliticalAxes is the leader's ideological position on five axes.
type PoliticalAxes struct {
	Economic   int `json:"economic"`
	Social     int `json:"social"`
	Governance int `json:"governance"`
	Military   int `json:"military"`
	Diplomatic int `json:"diplomatic"`
}

// NationState is the simulated country's condition. Inequality is
// inverted semantically (lower is better) but shares bounds and
// clamping with the other fields.
type NationState struct {
	Stability             int `json:"stability"`
	Economy               int `json:"economy"`
	Wellbeing             int `json:"wellbeing"`
	Inequality            int `json:"inequality"`
	InternationalStanding int `json:"international_standing"`
}

// DefaultNationState returns a nation at the midpoint of every scale.
func DefaultNationState() NationState {
	return NationState{
		Stability:             DefaultNationValue,
		Economy:               DefaultNationValue,
		Wellbeing:             DefaultNationValue,
		Inequality:            DefaultNationValue,
		InternationalStanding: DefaultNationValue,
	}
}

// Profile is the persisted leader record. Exactly one per campaign,
// created lazily on the first turn. LastImpact, LastNationImpact and
// LastDecisionSummary mirror the most recent applied deltas for UI
// display only; they feed no further computation.
type Profile struct {
	ID                  uuid.UUID     `json:"id"`
	CampaignID          uuid.UUID     `json:"campaign_id"`
	Name                string        `json:"name"`
	Title               string        `json:"title,omitempty"`
	Axes                PoliticalAxes `json:"axes"`
	Nation              NationState   `json:"nation"`
	LastImpact          *AxesDelta    `json:"last_impact,omitempty"`
	LastNationImpact    *NationDelta  `json:"last_nation_impact,omitempty"`
	LastDecisionSummary string        `json:"last_decision_summary,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// NewProfile creates a leader at the ideological origin with a nation
// at the midpoint of every scale.
func NewProfile(campaignID uuid.UUID, name string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Name:       name,
		Nation:     DefaultNationState(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AxesDelta is a partial political-axes change; nil fields are not
// applied.
type AxesDelta struct {
	Economic   *int `json:"economic,omitempty"`
	Social     *int `json:"social,omitempty"`
	Governance *int `json:"governance,omitempty"`
	Military   *int `json:"military,omitempty"`
	Diplomatic *int `json:"diplomatic,omitempty"`
}

// NationDelta is a partial nation-state change; nil fields are not
// applied.
type NationDelta struct {
	Stability             *int `json:"stability,omitempty"`
	Economy               *int `json:"economy,omitempty"`
	Wellbeing             *int `json:"wellbeing,omitempty"`
	Inequality            *int `json:"inequality,omitempty"`
	InternationalStanding *int `json:"international_standing,omitempty"`
}

func clampAxis(v int) int {
	if v < AxisMin {
		return AxisMin
	}
	if v > AxisMax {
		return AxisMax
	}
	return v
}

func clampNation(v int) int {
	if v < NationMin {
		return NationMin
	}
	if v > NationMax {
		return NationMax
	}
	return v
}

// ApplyImpact folds the deltas into the profile under clamping. Absent
// keys leave their fields untouched. The exact deltas just applied are
// recorded as the profile's last impact for UI display.
func (p *Profile) ApplyImpact(axes *AxesDelta, nation *NationDelta, summary string) {
	if axes != nil {
		if axes.Economic != nil {
			p.Axes.Economic = clampAxis(p.Axes.Economic + *axes.Economic)
		}
		if axes.Social != nil {
			p.Axes.Social = clampAxis(p.Axes.Social + *axes.Social)
		}
		if axes.Governance != nil {
			p.Axes.Governance = clampAxis(p.Axes.Governance + *axes.Governance)
		}
		if axes.Military != nil {
			p.Axes.Military = clampAxis(p.Axes.Military + *axes.Military)
		}
		if axes.Diplomatic != nil {
			p.Axes.Diplomatic = clampAxis(p.Axes.Diplomatic + *axes.Diplomatic)
		}
	}
	if nation != nil {
		if nation.Stability != nil {
			p.Nation.Stability = clampNation(p.Nation.Stability + *nation.Stability)
		}
		if nation.Economy != nil {
			p.Nation.Economy = clampNation(p.Nation.Economy + *nation.Economy)
		}
		if nation.Wellbeing != nil {
			p.Nation.Wellbeing = clampNation(p.Nation.Wellbeing + *nation.Wellbeing)
		}
		if nation.Inequality != nil {
			p.Nation.Inequality = clampNation(p.Nation.Inequality + *nation.Inequality)
		}
		if nation.InternationalStanding != nil {
			p.Nation.InternationalStanding = clampNation(p.Nation.InternationalStanding + *nation.InternationalStanding)
		}
	}

	p.LastImpact = axes
	p.LastNationImpact = nation
	p.LastDecisionSummary = summary
	p.UpdatedAt = time.Now().UTC()
}
