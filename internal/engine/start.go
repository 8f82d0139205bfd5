package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solorpg/chronicle/pkg/actor"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/directive"
	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/mystery"
	"github.com/solorpg/chronicle/pkg/prompts"
)

// fallbackSolution seeds a playable mystery when the generation call
// fails. Deliberately generic so any theme can absorb it.
var fallbackSolution = mystery.Guess{
	Criminal: "the groundskeeper",
	Weapon:   "a pair of garden shears",
	Motive:   "a buried inheritance dispute",
}

// StartCampaign persists a new campaign, seeds its variant state, and
// produces the opening narration. The opening streams through onChunk
// like any turn. Oracle failures never fail the start: the campaign is
// created with a localized fallback opening plus a system notice.
func (o *Orchestrator) StartCampaign(ctx context.Context, c *campaign.Campaign, onChunk func(string)) (*TurnResult, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid campaign: %w", err)
	}
	if err := o.store.SaveCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	switch c.Variant {
	case campaign.VariantLeader:
		if err := o.store.SaveLeader(ctx, leader.NewProfile(c.ID, c.Title)); err != nil {
			return nil, fmt.Errorf("failed to save leader profile: %w", err)
		}
	case campaign.VariantDetective:
		if err := o.seedMystery(ctx, c); err != nil {
			return nil, err
		}
	}

	return o.opening(ctx, c, onChunk)
}

// seedMystery generates and persists the hidden solution and the
// starting character sheet.
func (o *Orchestrator) seedMystery(ctx context.Context, c *campaign.Campaign) error {
	sol := o.generateSolution(ctx, c.Theme)
	answer := mystery.NewAnswer(c.ID, sol.Criminal, sol.Weapon, sol.Motive)
	if err := o.store.SaveMysteryAnswer(ctx, answer); err != nil {
		return fmt.Errorf("failed to save mystery answer: %w", err)
	}

	ch, err := actor.NewCharacter(c.ID, c.Title)
	if err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	if err := o.store.SaveCharacter(ctx, ch.Snapshot()); err != nil {
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

// generateSolution asks the oracle to invent the hidden solution and
// falls back to the canned one when the call or the parse fails.
func (o *Orchestrator) generateSolution(ctx context.Context, theme string) mystery.Guess {
	raw, err := o.oracle.Complete(ctx, prompts.BuildMysteryGenPrompt(theme), []chat.ChatMessage{
		{Role: "user", Content: "Generate the solution now."},
	})
	if err != nil {
		o.logger.Error("mystery generation failed, using fallback solution", "error", err)
		return fallbackSolution
	}
	sol, err := parseSolution(raw)
	if err != nil {
		o.logger.Error("mystery generation returned garbage, using fallback solution", "error", err)
		return fallbackSolution
	}
	return sol
}

// parseSolution decodes the generated {criminal, weapon, motive} object,
// tolerating surrounding prose and code fences.
func parseSolution(raw string) (mystery.Guess, error) {
	var sol mystery.Guess
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return sol, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &sol); err != nil {
		return sol, fmt.Errorf("failed to parse solution: %w", err)
	}
	if sol.Criminal == "" || sol.Weapon == "" || sol.Motive == "" {
		return sol, fmt.Errorf("incomplete solution")
	}
	return sol, nil
}

// opening produces the campaign's first oracle turn. No player turn is
// persisted; the opening instruction is a transient prompt.
func (o *Orchestrator) opening(ctx context.Context, c *campaign.Campaign, onChunk func(string)) (*TurnResult, error) {
	system, err := o.systemPrompt(ctx, c)
	if err != nil {
		return nil, err
	}
	if onChunk == nil {
		onChunk = func(string) {}
	}

	raw, err := o.oracle.Narrate(ctx, system, []chat.ChatMessage{
		{Role: "user", Content: prompts.OpeningInstruction},
	}, onChunk)
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			o.logger.Error("opening narration failed", "error", err, "campaign_id", c.ID)
		} else {
			o.logger.Error("oracle returned an empty opening", "campaign_id", c.ID)
		}
		notice := chat.NewTurn(c.ID, chat.RoleSystem, prompts.FallbackOpeningNotice(c.Language))
		if err := o.store.AppendTurn(ctx, &notice); err != nil {
			return nil, fmt.Errorf("failed to save opening notice: %w", err)
		}
		return o.persistFallback(ctx, c.ID, prompts.FallbackOpening(c.Language))
	}

	res := directive.Parse(raw)
	oracleTurn := chat.NewTurn(c.ID, chat.RoleOracle, res.CleanText)
	if err := o.store.AppendTurn(ctx, &oracleTurn); err != nil {
		return nil, fmt.Errorf("failed to save opening turn: %w", err)
	}

	return &TurnResult{
		Turn:             oracleTurn,
		CleanText:        res.CleanText,
		SuggestedActions: res.SuggestedActions,
	}, nil
}
