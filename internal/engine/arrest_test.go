package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/mystery"
	"github.com/solorpg/chronicle/pkg/prompts"
)

func TestArrestCorrectSolvesCampaign(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)
	oracle.CompleteFunc = func(ctx context.Context, system string, messages []chat.ChatMessage) (string, error) {
		return `{"correct": true, "narrative": "The butler confesses on the spot."}`, nil
	}

	res, err := o.Arrest(context.Background(), c.ID, mystery.Guess{
		Criminal: "the butler", Weapon: "a candlestick", Motive: "revenge",
	})
	if err != nil {
		t.Fatalf("Arrest failed: %v", err)
	}
	if !res.Correct || res.State != mystery.CaseSolved {
		t.Errorf("result = %+v, want correct and solved", res)
	}
	if res.UsedFallback {
		t.Error("judge verdict should not be a fallback")
	}

	saved := store.Campaigns[c.ID]
	if saved.Status != campaign.StatusSolved {
		t.Errorf("campaign status = %s, want solved", saved.Status)
	}
	if saved.SolvedAnswer == nil || saved.SolvedAnswer.Criminal != "the butler" {
		t.Errorf("solved answer = %+v", saved.SolvedAnswer)
	}

	turns := store.Turns[c.ID]
	if len(turns) != 2 {
		t.Fatalf("expected accusation and verdict turns, got %d", len(turns))
	}
	if turns[0].Role != chat.RolePlayer || turns[1].Content != "The butler confesses on the spot." {
		t.Errorf("unexpected turns: %+v", turns)
	}
}

func TestArrestExhaustsAttemptsOnHard(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)
	c.Difficulty = campaign.DifficultyHard // two wrong arrests allowed
	oracle.CompleteFunc = func(ctx context.Context, system string, messages []chat.ChatMessage) (string, error) {
		return `{"correct": false, "narrative": "The suspect has an alibi."}`, nil
	}
	wrong := mystery.Guess{Criminal: "the maid", Weapon: "poison", Motive: "greed"}

	res, err := o.Arrest(context.Background(), c.ID, wrong)
	if err != nil {
		t.Fatalf("first arrest failed: %v", err)
	}
	if res.State != mystery.CaseOpen || res.AttemptsRemaining != 1 {
		t.Errorf("first arrest = %+v, want open with 1 remaining", res)
	}

	res, err = o.Arrest(context.Background(), c.ID, wrong)
	if err != nil {
		t.Fatalf("second arrest failed: %v", err)
	}
	if res.State != mystery.CaseFailed || res.AttemptsRemaining != 0 {
		t.Errorf("second arrest = %+v, want failed with 0 remaining", res)
	}
	if store.Campaigns[c.ID].Status != campaign.StatusFailed {
		t.Errorf("campaign status = %s, want failed", store.Campaigns[c.ID].Status)
	}
	if store.Campaigns[c.ID].SolvedAnswer == nil {
		t.Error("a failed case must still reveal the solution")
	}

	// Terminal: no further accusations.
	if _, err := o.Arrest(context.Background(), c.ID, wrong); !errors.Is(err, ErrCampaignClosed) {
		t.Errorf("third arrest error = %v, want ErrCampaignClosed", err)
	}
}

func TestArrestJudgeFailureUsesLocalVerifier(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)
	c.Language = "pt"
	oracle.CompleteFunc = func(ctx context.Context, system string, messages []chat.ChatMessage) (string, error) {
		return "", errors.New("overloaded")
	}

	// Lenient match: "James, the butler" contains "the butler".
	res, err := o.Arrest(context.Background(), c.ID, mystery.Guess{
		Criminal: "James, the butler", Weapon: "the candlestick from the hall, a candlestick", Motive: "pure revenge",
	})
	if err != nil {
		t.Fatalf("Arrest failed: %v", err)
	}
	if !res.UsedFallback {
		t.Fatal("expected the local verifier fallback")
	}
	if !res.Correct {
		t.Error("lenient verifier should accept the matching guess")
	}
	if want := prompts.FallbackArrestNarrative("pt", true); res.Narrative != want {
		t.Errorf("narrative = %q, want %q", res.Narrative, want)
	}
}

func TestArrestGarbledVerdictUsesLocalVerifier(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)
	oracle.CompleteFunc = func(ctx context.Context, system string, messages []chat.ChatMessage) (string, error) {
		return "definitely guilty, trust me", nil
	}

	res, err := o.Arrest(context.Background(), c.ID, mystery.Guess{
		Criminal: "the maid", Weapon: "poison", Motive: "greed",
	})
	if err != nil {
		t.Fatalf("Arrest failed: %v", err)
	}
	if !res.UsedFallback {
		t.Error("expected fallback on an unparseable verdict")
	}
	if res.Correct {
		t.Error("local verifier should reject the wrong guess")
	}
}

func TestArrestRejectsLeaderVariant(t *testing.T) {
	o, store, _, _ := newTestOrchestrator(t)
	c := seedLeader(t, store)

	_, err := o.Arrest(context.Background(), c.ID, mystery.Guess{Criminal: "anyone"})
	if !errors.Is(err, ErrWrongVariant) {
		t.Errorf("error = %v, want ErrWrongVariant", err)
	}
}
