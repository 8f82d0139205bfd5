// Package directive decodes the control tags the oracle embeds in its
// narrative output. The tag vocabulary is the wire contract between the
// engine and the oracle: suggested actions, state-impact deltas,
// election declarations, damage/heal effects, item grants and XP.
//
// Parsing is tolerant. The oracle cannot be trusted to emit
// well-formed tags, so malformed input never produces an error; the
// narrative text is always returned with every recognized tag removed.
package directive

import (
	"regexp"
	"strings"
)

// SuggestedAction is one entry from an <actions> block, offered to the
// player as a quick choice.
type SuggestedAction struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Impact is the decoded political-axes delta from an <impact> tag.
// Only present attributes are set; nil fields are left untouched when
// the delta is applied.
type Impact struct {
	Economic   *int `json:"economic,omitempty"`
	Social     *int `json:"social,omitempty"`
	Governance *int `json:"governance,omitempty"`
	Military   *int `json:"military,omitempty"`
	Diplomatic *int `json:"diplomatic,omitempty"`
}

// Empty reports whether no axis delta is present.
func (i *Impact) Empty() bool {
	return i == nil || (i.Economic == nil && i.Social == nil && i.Governance == nil &&
		i.Military == nil && i.Diplomatic == nil)
}

// NationImpact is the decoded nation-state delta from an <impact> tag.
type NationImpact struct {
	Stability             *int `json:"stability,omitempty"`
	Economy               *int `json:"economy,omitempty"`
	Wellbeing             *int `json:"wellbeing,omitempty"`
	Inequality            *int `json:"inequality,omitempty"`
	InternationalStanding *int `json:"international_standing,omitempty"`
}

// Empty reports whether no nation-state delta is present.
func (n *NationImpact) Empty() bool {
	return n == nil || (n.Stability == nil && n.Economy == nil && n.Wellbeing == nil &&
		n.Inequality == nil && n.InternationalStanding == nil)
}

// ElectionAction is the two-state enum from <election_action>.
type ElectionAction string

const (
	ElectionHeld      ElectionAction = "held"
	ElectionPostponed ElectionAction = "postponed"
)

// Effect kinds for character-affecting tags.
const (
	EffectDamage     = "damage"
	EffectDamageRoll = "damage_roll"
	EffectHeal       = "heal"
)

// CharacterEffect is one decoded <damage>, <damage_roll> or <heal> tag,
// in document order.
type CharacterEffect struct {
	Kind   string `json:"kind"`
	Amount int    `json:"amount,omitempty"`
	Roll   string `json:"roll,omitempty"` // dice notation, damage_roll only
}

// ItemDrop is one decoded <item_drop> grant.
type ItemDrop struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Result is the full decode of one oracle response.
type Result struct {
	CleanText        string            `json:"clean_text"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
	Impact           *Impact           `json:"impact,omitempty"`
	NationImpact     *NationImpact     `json:"nation_impact,omitempty"`
	ImpactSummary    string            `json:"impact_summary,omitempty"`
	Election         ElectionAction    `json:"election,omitempty"`
	Effects          []CharacterEffect `json:"effects,omitempty"`
	ItemDrops        []ItemDrop        `json:"item_drops,omitempty"`
	XPDelta          *int              `json:"xp_delta,omitempty"`
}

// rollNotation validates NdM[+K] dice notation for <damage_roll>.
var rollNotation = regexp.MustCompile(`(?i)^\d*d\d+([+-]\d+)?$`)

// ValidRollNotation reports whether s is well-formed dice notation.
func ValidRollNotation(s string) bool {
	return rollNotation.MatchString(strings.TrimSpace(s))
}

// Parse extracts every directive from raw oracle output. Extraction
// order matters: each pass operates on the text left by the previous
// pass and removes its own tags before the next runs. Parse never
// fails; garbled tags are dropped and the narrative survives.
func Parse(raw string) *Result {
	res := &Result{}

	text := extractActions(raw, res)
	text = extractImpact(text, res)
	text = extractElection(text, res)
	text = extractEffects(text, res)
	text = extractItemDrops(text, res)
	text = extractXP(text, res)

	res.CleanText = strings.TrimSpace(text)
	return res
}
