package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/mystery"
	"github.com/solorpg/chronicle/pkg/prompts"
)

// ArrestResult is the outcome of one accusation.
type ArrestResult struct {
	Correct           bool   `json:"correct"`
	Narrative         string `json:"narrative"`
	State             string `json:"state"` // open, solved or failed
	AttemptsRemaining int    `json:"attempts_remaining"`
	UsedFallback      bool   `json:"used_fallback"`
}

// judgeVerdict is the JSON object the judge prompt asks for.
type judgeVerdict struct {
	Correct   bool   `json:"correct"`
	Narrative string `json:"narrative"`
}

// Arrest resolves a player accusation against the hidden solution.
// The verdict comes from the oracle judge; when that call fails or
// returns garbage, the local lenient verifier decides and a localized
// fallback narrative is used. A correct arrest closes the campaign as
// solved; exhausting the difficulty's attempt budget closes it as
// failed. Both reveal the solution.
func (o *Orchestrator) Arrest(ctx context.Context, campaignID uuid.UUID, guess mystery.Guess) (*ArrestResult, error) {
	c, err := o.loadOpenCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Variant != campaign.VariantDetective {
		return nil, ErrWrongVariant
	}

	answer, err := o.store.GetMysteryAnswer(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mystery answer: %w", err)
	}
	if answer == nil {
		return nil, fmt.Errorf("campaign has no mystery answer")
	}

	correct, narrative, usedFallback := o.judge(ctx, c, answer, guess)
	outcome := answer.Resolve(correct, c.MaxArrestAttempts())

	if err := o.store.SaveMysteryAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to save mystery answer: %w", err)
	}

	if outcome.State != mystery.CaseOpen {
		switch outcome.State {
		case mystery.CaseSolved:
			c.Status = campaign.StatusSolved
		case mystery.CaseFailed:
			c.Status = campaign.StatusFailed
		}
		c.SolvedAnswer = &campaign.SolvedAnswer{
			Criminal: answer.Criminal,
			Weapon:   answer.Weapon,
			Motive:   answer.Motive,
		}
		if err := o.store.SaveCampaign(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to close campaign: %w", err)
		}
	}

	accusation := chat.NewTurn(campaignID, chat.RolePlayer, formatAccusation(guess))
	if err := o.store.AppendTurn(ctx, &accusation); err != nil {
		return nil, fmt.Errorf("failed to save accusation turn: %w", err)
	}
	verdictTurn := chat.NewTurn(campaignID, chat.RoleOracle, narrative)
	if err := o.store.AppendTurn(ctx, &verdictTurn); err != nil {
		return nil, fmt.Errorf("failed to save verdict turn: %w", err)
	}

	return &ArrestResult{
		Correct:           outcome.Correct,
		Narrative:         narrative,
		State:             outcome.State,
		AttemptsRemaining: outcome.AttemptsRemaining,
		UsedFallback:      usedFallback,
	}, nil
}

// judge runs the oracle verdict with the local verifier as fallback.
func (o *Orchestrator) judge(ctx context.Context, c *campaign.Campaign, answer *mystery.Answer, guess mystery.Guess) (correct bool, narrative string, usedFallback bool) {
	raw, err := o.oracle.Complete(ctx, prompts.BuildArrestJudgePrompt(*answer, guess), []chat.ChatMessage{
		{Role: "user", Content: "Judge the accusation now."},
	})
	if err != nil {
		o.logger.Error("arrest judge failed, using local verifier", "error", err, "campaign_id", c.ID)
	} else {
		var v judgeVerdict
		perr := parseVerdict(raw, &v)
		if perr == nil {
			return v.Correct, v.Narrative, false
		}
		o.logger.Error("arrest judge returned garbage, using local verifier", "error", perr, "campaign_id", c.ID)
	}

	correct = answer.Matches(guess)
	return correct, prompts.FallbackArrestNarrative(c.Language, correct), true
}

func parseVerdict(raw string, v *judgeVerdict) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to parse verdict: %w", err)
	}
	if v.Narrative == "" {
		return fmt.Errorf("verdict has no narrative")
	}
	return nil
}

func formatAccusation(g mystery.Guess) string {
	return fmt.Sprintf("I make my arrest: %s, with %s, because of %s.", g.Criminal, g.Weapon, g.Motive)
}
