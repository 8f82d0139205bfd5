// Package prompts builds every piece of text the engine sends to the oracle:
// the per-variant narration contracts, the memory extraction prompt, and the
// arrest judge prompt. The oracle is stateless, so these carry all context.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/memory"
	"github.com/solorpg/chronicle/pkg/mystery"
)

// DetectiveContract is the narration contract for the detective variant.
// Verbs: theme, tone.
const DetectiveContract = `You are the narrator of a solo investigative mystery. Theme: %s. Tone: %s. You describe scenes, characters, and consequences in second person. You never speak for the player.

### Writing rules
- Respond in 1 to 3 paragraphs of prose. No headings, no lists in the narration.
- Never mention dice, rolls, stats, or game mechanics in the prose.
- Do not break the fourth wall or acknowledge being a program.
- Move the investigation forward gradually. Let the player discover clues by choosing where to look.

### Machine directives
After the prose, you may emit directives the engine consumes. They are stripped before the player sees the text.
- Suggested next moves, at most four:
<actions>
<action id="inspect_study" label="Inspect the study" />
</actions>
- Damage to the player: <damage>3</damage> or <damage_roll>1d6</damage_roll>
- Healing: <heal>4</heal>
- Item found: <item_drop id="torn_letter" qty="1" />
- Experience for clever deduction: <xp>10</xp>
Emit a directive only when the narrative justifies it. Never reference directives in the prose.`

// LeaderContract is the narration contract for the leader variant.
// Verbs: nation, theme, tone.
const LeaderContract = `You are the narrator of a nation-leadership simulation. The player leads %s. Theme: %s. Tone: %s. Each turn presents the consequences of the leader's last decision and the next situation demanding one.

### Writing rules
- Respond in 1 to 3 paragraphs of prose in second person. No headings or lists in the narration.
- Ground consequences in the nation state provided below. A struggling economy stays struggling until policy changes it.
- Do not break the fourth wall.

### Machine directives
After the prose, you may emit directives the engine consumes. They are stripped before the player sees the text.
- Suggested decisions, at most four:
<actions>
<action id="raise_tariffs" label="Raise import tariffs" />
</actions>
- The political impact of the decision just taken, each axis in [-10, 10], only axes that moved:
<impact economic="3" social="-2" summary="Tariff hike protects industry but raises prices" />
Nation attributes use the same tag: stability, economy, wellbeing, inequality, internationalStanding.
- When an election takes place or is postponed: <election_action>held</election_action> or <election_action>postponed</election_action>
Emit an impact tag on every turn where a decision lands. Never reference directives in the prose.`

// electionDueGuidance is appended to the leader contract when the cadence
// query says an election is due. Verb: quarters since last election.
const electionDueGuidance = `

### Election
%d quarters have passed since the last election. The constitutional term is 16 quarters. An election is due: weave campaign pressure into the narration and, when the player holds or postpones it, emit the election_action directive.`

// MemoryExtractionPrompt asks the oracle to consolidate a transcript.
// Verb: transcript.
const MemoryExtractionPrompt = `You are a story archivist. Read the transcript below and produce ONLY a JSON object, no prose, no code fences:

{"recap": "...", "entities": [{"name": "...", "type": "person|place|thing|faction", "relation": "ally|internal_enemy|external_enemy|neutral", "blurb": "..."}], "facts": [{"subject": "...", "predicate": "...", "object": "...", "source_message_id": "..."}]}

Rules:
- recap: the story so far in at most 600 characters, present tense.
- entities: at most 10, the people, places, and things the story keeps returning to. Omit "relation" when it does not apply.
- facts: at most 20, durable subject-predicate-object statements. Each fact's "subject" must exactly match a name in entities.
- Each transcript line starts with its id in brackets. A fact's "source_message_id" must be the exact id of the turn that establishes it.

Transcript:
%s`

// ArrestJudgePrompt asks the oracle to verify an accusation against the
// hidden solution and narrate the outcome.
// Verbs: secret criminal, weapon, motive, then accused criminal, weapon, motive.
const ArrestJudgePrompt = `You are the judge of a mystery game. The hidden solution is:
- Criminal: %s
- Weapon: %s
- Motive: %s

The player accuses:
- Criminal: %s
- Weapon: %s
- Motive: %s

Decide whether the accusation identifies the same criminal, weapon, and motive. Accept paraphrases and partial names that clearly refer to the same thing. Respond ONLY with a JSON object, no prose, no code fences:

{"correct": true, "narrative": "..."}

The narrative is 1 to 2 paragraphs: the dramatic confrontation if correct, or the accusation falling apart if not. Never reveal the hidden solution when the accusation is wrong.`

// OpeningInstruction is sent as the first player message when a campaign
// starts, in place of real player input.
const OpeningInstruction = `Open the story. Establish the setting and the immediate situation, then leave the first real choice to the player.`

// MysteryGenPrompt asks the oracle to invent the hidden solution for a new
// detective campaign. Verb: theme.
const MysteryGenPrompt = `Invent the hidden solution for a mystery with theme: %s. Respond ONLY with a JSON object, no prose, no code fences:

{"criminal": "...", "weapon": "...", "motive": "..."}

Keep each value under ten words. The criminal is a named character, the weapon a concrete object, the motive a single sentence fragment.`

// BuildMysteryGenPrompt fills the mystery generation prompt.
func BuildMysteryGenPrompt(theme string) string {
	if theme == "" {
		theme = "a classic whodunit"
	}
	return fmt.Sprintf(MysteryGenPrompt, theme)
}

// memorySection renders the consolidated memory block of a system prompt.
func memorySection(snap *memory.Snapshot) string {
	if snap == nil || (snap.Recap == "" && len(snap.Entities) == 0 && len(snap.Facts) == 0) {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("### Story so far\n")
	if snap.Recap != "" {
		sb.WriteString(snap.Recap + "\n")
	}
	names := make(map[uuid.UUID]string, len(snap.Entities))
	if len(snap.Entities) > 0 {
		sb.WriteString("\nKnown entities:\n")
		for _, e := range snap.Entities {
			names[e.ID] = e.Name
			line := "- " + e.Name
			if e.Type != "" {
				line += " (" + e.Type + ")"
			}
			if e.Relation != "" {
				line += " [" + e.Relation + "]"
			}
			if e.Blurb != "" {
				line += ": " + e.Blurb
			}
			sb.WriteString(line + "\n")
		}
	}
	if len(snap.Facts) > 0 {
		sb.WriteString("\nEstablished facts:\n")
		for _, f := range snap.Facts {
			sb.WriteString("- " + names[f.SubjectEntityID] + " " + f.Predicate + " " + f.Object + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// leaderSection renders the nation state snapshot for the leader contract.
func leaderSection(p *leader.Profile) (string, error) {
	if p == nil {
		return "", nil
	}
	state := struct {
		Leader string               `json:"leader"`
		Axes   leader.PoliticalAxes `json:"political_axes"`
		Nation leader.NationState   `json:"nation_state"`
	}{Leader: p.Name, Axes: p.Axes, Nation: p.Nation}

	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal nation state: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("### Current nation state\n```json\n")
	sb.Write(data)
	sb.WriteString("\n```")
	if p.LastDecisionSummary != "" {
		sb.WriteString("\nLast decision: " + p.LastDecisionSummary)
	}
	return sb.String(), nil
}

// BuildMemoryExtractionPrompt fills the extraction prompt with a transcript.
func BuildMemoryExtractionPrompt(transcript string) string {
	return fmt.Sprintf(MemoryExtractionPrompt, transcript)
}

// BuildArrestJudgePrompt fills the judge prompt with the hidden solution and
// the player's accusation.
func BuildArrestJudgePrompt(secret mystery.Answer, guess mystery.Guess) string {
	return fmt.Sprintf(ArrestJudgePrompt,
		secret.Criminal, secret.Weapon, secret.Motive,
		guess.Criminal, guess.Weapon, guess.Motive)
}
