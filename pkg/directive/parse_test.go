package directive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ActionsBlock(t *testing.T) {
	raw := `The study is quiet.

<actions>
<action id="1" label="Question the maid">Ask the maid about the missing key</action>
<action id="2" label="Examine the desk">Search the desk drawers for letters</action>
</actions>

What do you do?`

	res := Parse(raw)

	require.Len(t, res.SuggestedActions, 2)
	assert.Equal(t, "1", res.SuggestedActions[0].ID)
	assert.Equal(t, "Question the maid", res.SuggestedActions[0].Label)
	assert.Equal(t, "Ask the maid about the missing key", res.SuggestedActions[0].Action)
	assert.Equal(t, "2", res.SuggestedActions[1].ID)

	assert.NotContains(t, res.CleanText, "<actions>")
	assert.NotContains(t, res.CleanText, "<action")
	assert.Contains(t, res.CleanText, "The study is quiet.")
	assert.Contains(t, res.CleanText, "What do you do?")
}

func TestParse_StrayActionTagsRemoved(t *testing.T) {
	raw := `You may <action id="9" label="Run">Run for the door</action> if you wish.`

	res := Parse(raw)

	assert.Empty(t, res.SuggestedActions)
	assert.Equal(t, "You may  if you wish.", res.CleanText)
}

func TestParse_ImpactRoundTrip(t *testing.T) {
	raw := `Your decree divides the cabinet. <impact economic="5" stability="-2" summary="x"/> The press takes note.`

	res := Parse(raw)

	require.NotNil(t, res.Impact)
	require.NotNil(t, res.Impact.Economic)
	assert.Equal(t, 5, *res.Impact.Economic)
	assert.Nil(t, res.Impact.Social)

	require.NotNil(t, res.NationImpact)
	require.NotNil(t, res.NationImpact.Stability)
	assert.Equal(t, -2, *res.NationImpact.Stability)
	assert.Nil(t, res.NationImpact.Economy)

	assert.Equal(t, "x", res.ImpactSummary)
	assert.NotContains(t, res.CleanText, "<impact")
	assert.Equal(t, "Your decree divides the cabinet.  The press takes note.", res.CleanText)
}

func TestParse_ImpactVariants(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantImpact bool
		wantNation bool
	}{
		{
			name:       "no impact tag",
			raw:        "Nothing changes today.",
			wantImpact: false,
			wantNation: false,
		},
		{
			name:       "axes only",
			raw:        `<impact military="3" diplomatic="-1"/>`,
			wantImpact: true,
			wantNation: false,
		},
		{
			name:       "nation only, camel-cased attribute",
			raw:        `<impact internationalStanding="4" inequality="-2"/>`,
			wantImpact: false,
			wantNation: true,
		},
		{
			name:       "unparseable numbers are absent",
			raw:        `<impact economic="lots" stability="-2"/>`,
			wantImpact: false,
			wantNation: true,
		},
		{
			name:       "first impact tag wins",
			raw:        `<impact economic="1"/> and later <impact economic="9"/>`,
			wantImpact: true,
			wantNation: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.raw)
			assert.Equal(t, tt.wantImpact, res.Impact != nil, "impact presence")
			assert.Equal(t, tt.wantNation, res.NationImpact != nil, "nation impact presence")
			assert.NotContains(t, strings.ToLower(res.CleanText), "<impact")
		})
	}
}

func TestParse_FirstImpactWins(t *testing.T) {
	res := Parse(`<impact economic="1"/> then <impact economic="9"/>`)

	require.NotNil(t, res.Impact)
	assert.Equal(t, 1, *res.Impact.Economic)
	assert.Equal(t, "then", res.CleanText)
}

func TestParse_SummaryRequiresDelta(t *testing.T) {
	res := Parse(`<impact economic="lots" summary="meaningless"/>`)

	assert.Nil(t, res.Impact)
	assert.Nil(t, res.NationImpact)
	assert.Empty(t, res.ImpactSummary, "a summary with no applied delta is dropped")

	res = Parse(`<impact stability="-2" summary="kept"/>`)
	require.NotNil(t, res.NationImpact)
	assert.Equal(t, "kept", res.ImpactSummary)
}

func TestParse_ElectionAction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ElectionAction
	}{
		{"held", "<election_action>held</election_action>", ElectionHeld},
		{"postponed", "<election_action>postponed</election_action>", ElectionPostponed},
		{"uppercase tag", "<ELECTION_ACTION>HELD</ELECTION_ACTION>", ElectionHeld},
		{"garbage payload dropped", "<election_action>maybe</election_action>", ""},
		{"absent", "a quiet quarter", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.raw)
			assert.Equal(t, tt.want, res.Election)
			assert.NotContains(t, strings.ToLower(res.CleanText), "election_action")
		})
	}
}

func TestParse_CharacterEffectsDocumentOrder(t *testing.T) {
	raw := `The cultist lashes out. <damage>4</damage> You gulp a potion. <heal>6</heal> A blade bites again. <damage_roll>2d6+1</damage_roll>`

	res := Parse(raw)

	require.Len(t, res.Effects, 3)
	assert.Equal(t, CharacterEffect{Kind: EffectDamage, Amount: 4}, res.Effects[0])
	assert.Equal(t, CharacterEffect{Kind: EffectHeal, Amount: 6}, res.Effects[1])
	assert.Equal(t, CharacterEffect{Kind: EffectDamageRoll, Roll: "2d6+1"}, res.Effects[2])
	assert.NotContains(t, res.CleanText, "<")
}

func TestParse_InvalidRollNotationDropped(t *testing.T) {
	res := Parse(`<damage_roll>banana</damage_roll><damage_roll>d20</damage_roll>`)

	require.Len(t, res.Effects, 1)
	assert.Equal(t, "d20", res.Effects[0].Roll)
	assert.Empty(t, res.CleanText)
}

func TestParse_ItemDrops(t *testing.T) {
	raw := `Under the floorboard you find supplies. <item_drop id="healing_potion" qty="2"/> <item_drop id="rope">1</item_drop> <item_drop qty="5"/>`

	res := Parse(raw)

	require.Len(t, res.ItemDrops, 2)
	assert.Equal(t, ItemDrop{ItemID: "healing_potion", Quantity: 2}, res.ItemDrops[0])
	assert.Equal(t, ItemDrop{ItemID: "rope", Quantity: 1}, res.ItemDrops[1])
	assert.Equal(t, "Under the floorboard you find supplies.", res.CleanText)
}

func TestParse_XP(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
	}{
		{"gain", "<xp>25</xp>", intPtr(25)},
		{"explicit plus", "<xp>+10</xp>", intPtr(10)},
		{"loss", "<xp>-5</xp>", intPtr(-5)},
		{"garbage", "<xp>lots</xp>", nil},
		{"absent", "no xp here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.raw)
			if tt.want == nil {
				assert.Nil(t, res.XPDelta)
			} else {
				require.NotNil(t, res.XPDelta)
				assert.Equal(t, *tt.want, *res.XPDelta)
			}
			assert.NotContains(t, res.CleanText, "<xp>")
		})
	}
}

func TestParse_MalformedTagsNeverPanic(t *testing.T) {
	inputs := []string{
		"",
		"<",
		"<impact",
		"<impact economic=5/>",
		`<impact economic="5`,
		"<actions><action id=\"1\">broken",
		"<damage>4",
		"</damage>",
		"<item_drop id=\"x\" qty=\"two\"/>",
		"<xp>++5</xp>",
		"text with < stray > brackets and 3 < 5 comparisons",
		strings.Repeat("<actions>", 50),
	}

	for _, in := range inputs {
		res := Parse(in)
		require.NotNil(t, res)
		// Narrative text always survives in some form.
		assert.NotNil(t, res.CleanText)
	}
}

func TestParse_UnterminatedTagStaysInText(t *testing.T) {
	res := Parse("the answer is <impact economic=5 and nothing else")
	assert.Contains(t, res.CleanText, "<impact economic=5")
	assert.Nil(t, res.Impact)
}

func TestParse_IdempotentStrip(t *testing.T) {
	raw := `Story text. <actions><action id="1" label="A">do a</action></actions>
<impact economic="2" stability="1" summary="s"/>
<election_action>held</election_action>
<damage>3</damage><heal>2</heal><damage_roll>1d8+2</damage_roll>
<item_drop id="torch" qty="1"/><xp>5</xp> More story.`

	first := Parse(raw)
	second := Parse(first.CleanText)

	assert.Empty(t, second.SuggestedActions)
	assert.Nil(t, second.Impact)
	assert.Nil(t, second.NationImpact)
	assert.Empty(t, second.ImpactSummary)
	assert.Empty(t, second.Election)
	assert.Empty(t, second.Effects)
	assert.Empty(t, second.ItemDrops)
	assert.Nil(t, second.XPDelta)
	assert.Equal(t, first.CleanText, second.CleanText)
}

func TestValidRollNotation(t *testing.T) {
	valid := []string{"d20", "1d20", "2d6", "2d6+1", "1d8-2", "10d10+20"}
	invalid := []string{"", "banana", "d", "2d", "2x6", "2d6+", "2d6+1+2"}

	for _, s := range valid {
		assert.True(t, ValidRollNotation(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidRollNotation(s), s)
	}
}

func intPtr(n int) *int { return &n }
