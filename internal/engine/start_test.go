package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/prompts"
)

func TestStartCampaignLeader(t *testing.T) {
	o, store, _, _ := newTestOrchestrator(t)

	c := campaign.New("Chancellor Ardent", campaign.VariantLeader)
	c.Nation = "Meridia"
	res, err := o.StartCampaign(context.Background(), c, nil)
	if err != nil {
		t.Fatalf("StartCampaign failed: %v", err)
	}
	if res.UsedFallback {
		t.Error("expected a live opening")
	}

	if store.Campaigns[c.ID] == nil {
		t.Fatal("campaign not persisted")
	}
	profile := store.Leaders[c.ID]
	if profile == nil {
		t.Fatal("leader profile not seeded")
	}
	if profile.Name != "Chancellor Ardent" {
		t.Errorf("leader name = %q", profile.Name)
	}
	if len(store.Timeline[c.ID]) != 0 {
		t.Errorf("a fresh campaign must have no timeline events, got %d", len(store.Timeline[c.ID]))
	}

	turns := store.Turns[c.ID]
	if len(turns) != 1 || turns[0].Role != chat.RoleOracle {
		t.Fatalf("expected exactly one oracle opening turn, got %+v", turns)
	}
}

func TestStartCampaignDetectiveSeedsMysteryAndCharacter(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	oracle.CompleteFunc = func(ctx context.Context, system string, messages []chat.ChatMessage) (string, error) {
		return `{"criminal": "the gardener", "weapon": "a trowel", "motive": "blackmail"}`, nil
	}

	c := campaign.New("Marlowe", campaign.VariantDetective)
	c.Theme = "noir"
	if _, err := o.StartCampaign(context.Background(), c, nil); err != nil {
		t.Fatalf("StartCampaign failed: %v", err)
	}

	answer := store.Mysteries[c.ID]
	if answer == nil {
		t.Fatal("mystery answer not seeded")
	}
	if answer.Criminal != "the gardener" || answer.Weapon != "a trowel" || answer.Motive != "blackmail" {
		t.Errorf("unexpected solution: %+v", answer)
	}

	spec := store.Characters[c.ID]
	if spec == nil {
		t.Fatal("character not seeded")
	}
	if spec.HP != spec.MaxHP || spec.Level != 1 {
		t.Errorf("unexpected starting sheet: HP %d/%d level %d", spec.HP, spec.MaxHP, spec.Level)
	}
}

func TestStartCampaignMysteryGenerationFallsBack(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	oracle.CompleteFunc = func(ctx context.Context, system string, messages []chat.ChatMessage) (string, error) {
		return "", errors.New("overloaded")
	}

	c := campaign.New("Marlowe", campaign.VariantDetective)
	if _, err := o.StartCampaign(context.Background(), c, nil); err != nil {
		t.Fatalf("StartCampaign failed: %v", err)
	}

	answer := store.Mysteries[c.ID]
	if answer == nil {
		t.Fatal("mystery answer not seeded")
	}
	if answer.Criminal != fallbackSolution.Criminal {
		t.Errorf("criminal = %q, want the canned fallback", answer.Criminal)
	}
}

func TestStartCampaignOpeningFallback(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	oracle.NarrateFunc = func(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error) {
		return "", errors.New("connection refused")
	}

	c := campaign.New("Marlowe", campaign.VariantDetective)
	c.Language = "es"
	res, err := o.StartCampaign(context.Background(), c, nil)
	if err != nil {
		t.Fatalf("StartCampaign failed: %v", err)
	}
	if !res.UsedFallback {
		t.Fatal("expected fallback opening")
	}
	if want := prompts.FallbackOpening("es"); res.CleanText != want {
		t.Errorf("opening = %q, want %q", res.CleanText, want)
	}

	turns := store.Turns[c.ID]
	if len(turns) != 2 {
		t.Fatalf("expected notice plus fallback opening, got %d turns", len(turns))
	}
	if turns[0].Role != chat.RoleSystem {
		t.Errorf("first turn role = %s, want system", turns[0].Role)
	}
	if turns[1].Role != chat.RoleOracle {
		t.Errorf("second turn role = %s, want oracle", turns[1].Role)
	}
}

func TestStartCampaignRejectsInvalid(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t)

	c := campaign.New("", campaign.VariantDetective)
	if _, err := o.StartCampaign(context.Background(), c, nil); err == nil {
		t.Error("expected validation error for empty title")
	}

	c = campaign.New("Marlowe", "chess")
	if _, err := o.StartCampaign(context.Background(), c, nil); err == nil {
		t.Error("expected validation error for unknown variant")
	}
}

func TestParseSolution(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"clean", `{"criminal": "x", "weapon": "y", "motive": "z"}`, false},
		{"prose wrapped", "Here you go:\n```json\n{\"criminal\": \"x\", \"weapon\": \"y\", \"motive\": \"z\"}\n```", false},
		{"no JSON", "I cannot help with that.", true},
		{"missing field", `{"criminal": "x", "weapon": "y"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSolution(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSolution(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}
