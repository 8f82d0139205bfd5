package prompts

import (
	"fmt"

	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/memory"
)

// Builder assembles the system prompt for one oracle call using a fluent
// interface. The campaign is required; everything else is optional and
// contributes a section only when set.
type Builder struct {
	c        *campaign.Campaign
	profile  *leader.Profile
	snap     *memory.Snapshot
	quarters int
	sheet    string
}

// New creates an empty prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithCampaign sets the campaign. Required.
func (b *Builder) WithCampaign(c *campaign.Campaign) *Builder {
	b.c = c
	return b
}

// WithLeader sets the leader profile and its nation state snapshot.
// Leader variant only.
func (b *Builder) WithLeader(p *leader.Profile) *Builder {
	b.profile = p
	return b
}

// WithQuarters sets the decision count since the last election, used for
// the election guidance section. Leader variant only.
func (b *Builder) WithQuarters(q int) *Builder {
	b.quarters = q
	return b
}

// WithMemory sets the consolidated memory snapshot.
func (b *Builder) WithMemory(snap *memory.Snapshot) *Builder {
	b.snap = snap
	return b
}

// WithCharacterSheet sets the rendered character sheet section.
// Detective variant only.
func (b *Builder) WithCharacterSheet(sheet string) *Builder {
	b.sheet = sheet
	return b
}

// Build renders the full system prompt.
func (b *Builder) Build() (string, error) {
	if b.c == nil {
		return "", fmt.Errorf("campaign is required")
	}

	var out string
	switch b.c.Variant {
	case campaign.VariantLeader:
		out = fmt.Sprintf(LeaderContract, b.c.Nation, b.c.Theme, b.c.Tone)
		if b.quarters >= leader.ElectionDueQuarters {
			out += fmt.Sprintf(electionDueGuidance, b.quarters)
		}
		section, err := leaderSection(b.profile)
		if err != nil {
			return "", err
		}
		if section != "" {
			out += "\n\n" + section
		}
	case campaign.VariantDetective:
		out = fmt.Sprintf(DetectiveContract, b.c.Theme, b.c.Tone)
		if b.sheet != "" {
			out += "\n\n### Player character\n" + b.sheet
		}
	default:
		return "", fmt.Errorf("unknown campaign variant %q", b.c.Variant)
	}

	if section := memorySection(b.snap); section != "" {
		out += "\n\n" + section
	}

	if b.c.Language != "" && b.c.Language != "en" {
		out += "\n\nRespond in the language with BCP 47 tag: " + b.c.Language
	}

	return out, nil
}
