package directive

import (
	"strconv"
	"strings"
)

func named(want string) func(string) bool {
	return func(name string) bool { return name == want }
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractActions decodes the first <actions> block into suggested
// actions, then strips every <actions> block and any stray <action>
// element left in the narration.
func extractActions(text string, res *Result) string {
	var spans [][2]int

	first := true
	for pos := 0; ; {
		block, ok := nextElement(text, pos, named("actions"))
		if !ok {
			break
		}
		if first {
			res.SuggestedActions = decodeActionList(block.inner)
			first = false
		}
		spans = append(spans, [2]int{block.start, block.end})
		pos = block.end
	}
	text = removeSpans(text, spans)

	// Stray <action> tags outside a block carry no directive value.
	spans = spans[:0]
	for pos := 0; ; {
		stray, ok := nextElement(text, pos, named("action"))
		if !ok {
			break
		}
		spans = append(spans, [2]int{stray.start, stray.end})
		pos = stray.end
	}
	return removeSpans(text, spans)
}

func decodeActionList(inner string) []SuggestedAction {
	var actions []SuggestedAction
	for pos := 0; ; {
		el, ok := nextElement(inner, pos, named("action"))
		if !ok {
			break
		}
		pos = el.end

		id := el.attrs["id"]
		label := strings.TrimSpace(el.attrs["label"])
		if id == "" || label == "" {
			continue
		}
		actions = append(actions, SuggestedAction{
			ID:     id,
			Label:  label,
			Action: strings.TrimSpace(el.inner),
		})
	}
	return actions
}

// Political-axis attributes vs nation-state attributes of <impact>.
var (
	axisAttrs   = []string{"economic", "social", "governance", "military", "diplomatic"}
	nationAttrs = []string{"stability", "economy", "wellbeing", "inequality", "internationalstanding"}
)

// extractImpact decodes the first <impact> tag; every occurrence is
// stripped. Attributes that fail to parse as integers are absent, not
// zero.
func extractImpact(text string, res *Result) string {
	var spans [][2]int

	first := true
	for pos := 0; ; {
		t, ok := nextTag(text, pos, named("impact"))
		if !ok {
			break
		}
		pos = t.end
		if t.closing {
			continue
		}
		spans = append(spans, [2]int{t.start, t.end})
		if !first {
			continue
		}
		first = false

		impact := &Impact{}
		nation := &NationImpact{}
		for _, key := range axisAttrs {
			if v, ok := t.attrs[key]; ok {
				if n, ok := atoi(v); ok {
					setAxis(impact, key, n)
				}
			}
		}
		for _, key := range nationAttrs {
			if v, ok := t.attrs[key]; ok {
				if n, ok := atoi(v); ok {
					setNation(nation, key, n)
				}
			}
		}
		if !impact.Empty() {
			res.Impact = impact
		}
		if !nation.Empty() {
			res.NationImpact = nation
		}
		// A summary with no applied delta carries nothing to record.
		if res.Impact != nil || res.NationImpact != nil {
			res.ImpactSummary = strings.TrimSpace(t.attrs["summary"])
		}
	}
	return removeSpans(text, spans)
}

func setAxis(i *Impact, key string, n int) {
	switch key {
	case "economic":
		i.Economic = &n
	case "social":
		i.Social = &n
	case "governance":
		i.Governance = &n
	case "military":
		i.Military = &n
	case "diplomatic":
		i.Diplomatic = &n
	}
}

func setNation(ni *NationImpact, key string, n int) {
	switch key {
	case "stability":
		ni.Stability = &n
	case "economy":
		ni.Economy = &n
	case "wellbeing":
		ni.Wellbeing = &n
	case "inequality":
		ni.Inequality = &n
	case "internationalstanding":
		ni.InternationalStanding = &n
	}
}

// extractElection decodes the first valid <election_action> element;
// all occurrences are stripped.
func extractElection(text string, res *Result) string {
	var spans [][2]int
	for pos := 0; ; {
		el, ok := nextElement(text, pos, named("election_action"))
		if !ok {
			break
		}
		pos = el.end
		spans = append(spans, [2]int{el.start, el.end})

		if res.Election != "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(el.inner)) {
		case string(ElectionHeld):
			res.Election = ElectionHeld
		case string(ElectionPostponed):
			res.Election = ElectionPostponed
		}
	}
	return removeSpans(text, spans)
}

// extractEffects collects <damage>, <damage_roll> and <heal> elements
// in document order.
func extractEffects(text string, res *Result) string {
	match := func(name string) bool {
		return name == EffectDamage || name == EffectDamageRoll || name == EffectHeal
	}

	var spans [][2]int
	for pos := 0; ; {
		el, ok := nextElement(text, pos, match)
		if !ok {
			break
		}
		pos = el.end
		spans = append(spans, [2]int{el.start, el.end})

		switch el.name {
		case EffectDamage, EffectHeal:
			if n, ok := atoi(el.inner); ok && n >= 0 {
				res.Effects = append(res.Effects, CharacterEffect{Kind: el.name, Amount: n})
			}
		case EffectDamageRoll:
			notation := strings.TrimSpace(el.inner)
			if ValidRollNotation(notation) {
				res.Effects = append(res.Effects, CharacterEffect{Kind: EffectDamageRoll, Roll: notation})
			}
		}
	}
	return removeSpans(text, spans)
}

// extractItemDrops decodes <item_drop id qty/> and the block form
// <item_drop id="x">n</item_drop>.
func extractItemDrops(text string, res *Result) string {
	var spans [][2]int
	for pos := 0; ; {
		el, ok := nextElement(text, pos, named("item_drop"))
		if !ok {
			break
		}
		pos = el.end
		spans = append(spans, [2]int{el.start, el.end})

		id := el.attrs["id"]
		if id == "" {
			continue
		}
		qtyText, hasAttr := el.attrs["qty"]
		if !hasAttr {
			qtyText = el.inner
		}
		qty, ok := atoi(qtyText)
		if !ok || qty <= 0 {
			continue
		}
		res.ItemDrops = append(res.ItemDrops, ItemDrop{ItemID: id, Quantity: qty})
	}
	return removeSpans(text, spans)
}

// extractXP decodes the first valid <xp> element; all occurrences are
// stripped.
func extractXP(text string, res *Result) string {
	var spans [][2]int
	for pos := 0; ; {
		el, ok := nextElement(text, pos, named("xp"))
		if !ok {
			break
		}
		pos = el.end
		spans = append(spans, [2]int{el.start, el.end})

		if res.XPDelta != nil {
			continue
		}
		if n, ok := atoi(el.inner); ok {
			res.XPDelta = &n
		}
	}
	return removeSpans(text, spans)
}
