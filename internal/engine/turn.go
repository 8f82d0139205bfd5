package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/directive"
	"github.com/solorpg/chronicle/pkg/prompts"
)

// TurnResult is what a completed turn surfaces to the caller: the clean
// narrative plus the rendering metadata the directives carried.
type TurnResult struct {
	Turn             chat.Turn                   `json:"turn"`
	CleanText        string                      `json:"clean_text"`
	SuggestedActions []directive.SuggestedAction `json:"suggested_actions,omitempty"`
	Impact           *directive.Impact           `json:"impact,omitempty"`
	NationImpact     *directive.NationImpact     `json:"nation_impact,omitempty"`
	ImpactSummary    string                      `json:"impact_summary,omitempty"`
	Election         directive.ElectionAction    `json:"election,omitempty"`
	UsedFallback     bool                        `json:"used_fallback"`
}

// SendTurn runs one full player turn. The player's message is persisted
// before the oracle is invoked, so it survives an oracle failure. Chunks
// stream to onChunk as they arrive, but state mutates only once, after
// the complete response is in hand. An unreachable or empty oracle
// never fails the turn: a localized fallback narrative is persisted and
// returned with UsedFallback set.
func (o *Orchestrator) SendTurn(ctx context.Context, campaignID uuid.UUID, message string, onChunk func(string)) (*TurnResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}
	c, err := o.loadOpenCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	playerTurn := chat.NewTurn(campaignID, chat.RolePlayer, message)
	if err := o.store.AppendTurn(ctx, &playerTurn); err != nil {
		return nil, fmt.Errorf("failed to save player turn: %w", err)
	}

	turns, err := o.store.ListTurns(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	system, err := o.systemPrompt(ctx, c)
	if err != nil {
		return nil, err
	}

	if onChunk == nil {
		onChunk = func(string) {}
	}
	raw, err := o.oracle.Narrate(ctx, system, chat.AssembleContext(turns), onChunk)
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			o.logger.Error("oracle narration failed", "error", err, "campaign_id", campaignID)
		} else {
			o.logger.Error("oracle returned an empty narration", "campaign_id", campaignID)
		}
		return o.persistFallback(ctx, campaignID, prompts.FallbackNarration(c.Language))
	}

	res := directive.Parse(raw)
	o.applyDirectives(ctx, c, res)

	oracleTurn := chat.NewTurn(campaignID, chat.RoleOracle, res.CleanText)
	if err := o.store.AppendTurn(ctx, &oracleTurn); err != nil {
		return nil, fmt.Errorf("failed to save oracle turn: %w", err)
	}

	o.maybeEnqueueConsolidation(ctx, campaignID)

	return &TurnResult{
		Turn:             oracleTurn,
		CleanText:        res.CleanText,
		SuggestedActions: res.SuggestedActions,
		Impact:           res.Impact,
		NationImpact:     res.NationImpact,
		ImpactSummary:    res.ImpactSummary,
		Election:         res.Election,
	}, nil
}

// persistFallback writes a fallback oracle turn and returns the matching
// result. Fallback turns carry no suggested actions and no directives.
func (o *Orchestrator) persistFallback(ctx context.Context, campaignID uuid.UUID, text string) (*TurnResult, error) {
	turn := chat.NewTurn(campaignID, chat.RoleOracle, text)
	if err := o.store.AppendTurn(ctx, &turn); err != nil {
		return nil, fmt.Errorf("failed to save fallback turn: %w", err)
	}
	return &TurnResult{
		Turn:         turn,
		CleanText:    text,
		UsedFallback: true,
	}, nil
}

// Resend finds the most recent player turn whose content matches,
// discards every turn at or after its timestamp, and re-runs the turn.
// A resend with no matching turn is a logged no-op.
func (o *Orchestrator) Resend(ctx context.Context, campaignID uuid.UUID, content string, onChunk func(string)) (*TurnResult, error) {
	if _, err := o.loadOpenCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	turns, err := o.store.ListTurns(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	var match *chat.Turn
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == chat.RolePlayer && turns[i].Content == content {
			match = &turns[i]
			break
		}
	}
	if match == nil {
		o.logger.Warn("resend found no matching player turn", "campaign_id", campaignID)
		return nil, nil
	}

	removed, err := o.store.DeleteTurnsFrom(ctx, campaignID, match.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to delete turns for resend: %w", err)
	}
	o.logger.Info("resend discarded turns", "campaign_id", campaignID, "removed", removed)

	return o.SendTurn(ctx, campaignID, content, onChunk)
}

// ContinueNarration runs the turn pipeline with the fixed continuation
// sentinel as the player message.
func (o *Orchestrator) ContinueNarration(ctx context.Context, campaignID uuid.UUID, onChunk func(string)) (*TurnResult, error) {
	return o.SendTurn(ctx, campaignID, ContinueSentinel, onChunk)
}
