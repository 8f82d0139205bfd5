package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/internal/services"
	"github.com/solorpg/chronicle/internal/storage"
	"github.com/solorpg/chronicle/pkg/actor"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/mystery"
	"github.com/solorpg/chronicle/pkg/prompts"
)

type fakeQueue struct {
	jobs []uuid.UUID
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, campaignID uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, campaignID)
	return nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *storage.MockStorage, *services.MockOracle, *fakeQueue) {
	t.Helper()
	store := storage.NewMockStorage()
	oracle := services.NewMockOracle()
	queue := &fakeQueue{}
	o := New(store, oracle, queue, slog.New(slog.NewTextHandler(io.Discard, nil)), 5)
	return o, store, oracle, queue
}

func seedDetective(t *testing.T, store *storage.MockStorage) *campaign.Campaign {
	t.Helper()
	c := campaign.New("Marlowe", campaign.VariantDetective)
	c.Theme = "noir"
	store.Campaigns[c.ID] = c

	ch, err := actor.NewCharacter(c.ID, c.Title)
	if err != nil {
		t.Fatalf("failed to create character: %v", err)
	}
	store.Characters[c.ID] = ch.Snapshot()
	store.Mysteries[c.ID] = mystery.NewAnswer(c.ID, "the butler", "a candlestick", "revenge")
	return c
}

func seedLeader(t *testing.T, store *storage.MockStorage) *campaign.Campaign {
	t.Helper()
	c := campaign.New("President Vale", campaign.VariantLeader)
	c.Nation = "Meridia"
	store.Campaigns[c.ID] = c
	store.Leaders[c.ID] = leader.NewProfile(c.ID, c.Title)
	return c
}

func TestSendTurnPersistsOracleReply(t *testing.T) {
	o, store, _, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)

	res, err := o.SendTurn(context.Background(), c.ID, "I search the study.", nil)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}
	if res.UsedFallback {
		t.Error("expected a live oracle turn, got fallback")
	}
	if res.CleanText != "The story continues." {
		t.Errorf("unexpected clean text: %q", res.CleanText)
	}

	turns := store.Turns[c.ID]
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != chat.RolePlayer || turns[0].Content != "I search the study." {
		t.Errorf("unexpected player turn: %+v", turns[0])
	}
	if turns[1].Role != chat.RoleOracle {
		t.Errorf("unexpected oracle turn role: %s", turns[1].Role)
	}
}

func TestSendTurnFallbackOnOracleFailure(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)
	c.Language = "pt-BR"
	oracle.NarrateFunc = func(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error) {
		return "", errors.New("connection refused")
	}

	res, err := o.SendTurn(context.Background(), c.ID, "I open the door.", nil)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}
	if !res.UsedFallback {
		t.Fatal("expected fallback result")
	}
	if len(res.SuggestedActions) != 0 {
		t.Errorf("fallback must carry no suggested actions, got %d", len(res.SuggestedActions))
	}
	if want := prompts.FallbackNarration("pt-BR"); res.CleanText != want {
		t.Errorf("fallback narrative = %q, want %q", res.CleanText, want)
	}

	// The player turn survives the failure.
	turns := store.Turns[c.ID]
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != chat.RolePlayer {
		t.Errorf("first turn role = %s, want player", turns[0].Role)
	}
	if turns[1].Content != res.CleanText {
		t.Errorf("persisted fallback = %q, want %q", turns[1].Content, res.CleanText)
	}
}

func TestSendTurnEmptyResponseFallsBack(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)
	oracle.NarrateFunc = func(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error) {
		return "   ", nil
	}

	res, err := o.SendTurn(context.Background(), c.ID, "I wait.", nil)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}
	if !res.UsedFallback {
		t.Error("expected fallback on empty narration")
	}
}

func TestSendTurnStreamsChunks(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)
	oracle.NarrateFunc = func(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error) {
		onChunk("The rain ")
		onChunk("keeps falling.")
		return "The rain keeps falling.", nil
	}

	var chunks []string
	res, err := o.SendTurn(context.Background(), c.ID, "I look outside.", func(s string) {
		chunks = append(chunks, s)
	})
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if strings.Join(chunks, "") != res.CleanText {
		t.Errorf("chunks %q do not assemble into %q", strings.Join(chunks, ""), res.CleanText)
	}
}

func TestSendTurnAppliesCharacterDirectives(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)
	oracle.NarrateFunc = func(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error) {
		return `The thug's blow lands hard. <damage>5</damage> You pocket the bandages. <item_drop id="bandages" qty="2"/> <xp>50</xp>`, nil
	}

	res, err := o.SendTurn(context.Background(), c.ID, "I fight back.", nil)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}
	if strings.Contains(res.CleanText, "<damage>") {
		t.Errorf("clean text still contains tags: %q", res.CleanText)
	}

	spec := store.Characters[c.ID]
	if spec.HP != 15 {
		t.Errorf("HP = %d, want 15", spec.HP)
	}
	if spec.XP != 50 {
		t.Errorf("XP = %d, want 50", spec.XP)
	}
	bandages := 0
	for _, id := range spec.Inventory {
		if id == "bandages" {
			bandages++
		}
	}
	if bandages != 2 {
		t.Errorf("bandages in inventory = %d, want 2", bandages)
	}
}

func TestSendTurnAppliesLeaderImpact(t *testing.T) {
	o, store, oracle, _ := newTestOrchestrator(t)
	c := seedLeader(t, store)
	oracle.NarrateFunc = func(ctx context.Context, system string, messages []chat.ChatMessage, onChunk func(string)) (string, error) {
		return `The reform passes after a bitter debate. <impact economic="5" stability="-2" summary="Tax reform"/>`, nil
	}

	res, err := o.SendTurn(context.Background(), c.ID, "I sign the tax reform.", nil)
	if err != nil {
		t.Fatalf("SendTurn failed: %v", err)
	}
	if res.Impact == nil || res.Impact.Economic == nil || *res.Impact.Economic != 5 {
		t.Errorf("result impact = %+v, want economic 5", res.Impact)
	}
	if res.ImpactSummary != "Tax reform" {
		t.Errorf("impact summary = %q", res.ImpactSummary)
	}

	profile := store.Leaders[c.ID]
	if profile.Axes.Economic != 5 {
		t.Errorf("economic axis = %d, want 5", profile.Axes.Economic)
	}
	if profile.Nation.Stability != leader.DefaultNationValue-2 {
		t.Errorf("stability = %d, want %d", profile.Nation.Stability, leader.DefaultNationValue-2)
	}

	events := store.Timeline[c.ID]
	if len(events) != 1 {
		t.Fatalf("expected 1 timeline event, got %d", len(events))
	}
	if events[0].Type != leader.EventDecision {
		t.Errorf("event type = %s, want decision", events[0].Type)
	}
}

func TestSendTurnEnqueuesConsolidationOnCadence(t *testing.T) {
	o, store, _, queue := newTestOrchestrator(t)
	c := seedDetective(t, store)

	// Turns 1 through 4 stay quiet; the 5th player turn triggers a job.
	for i := 0; i < 5; i++ {
		if _, err := o.SendTurn(context.Background(), c.ID, "I keep investigating.", nil); err != nil {
			t.Fatalf("SendTurn %d failed: %v", i+1, err)
		}
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 consolidation job, got %d", len(queue.jobs))
	}
	if queue.jobs[0] != c.ID {
		t.Errorf("job campaign = %s, want %s", queue.jobs[0], c.ID)
	}
}

func TestSendTurnRejectsMissingAndClosed(t *testing.T) {
	o, store, _, _ := newTestOrchestrator(t)

	if _, err := o.SendTurn(context.Background(), uuid.New(), "hello", nil); !errors.Is(err, ErrCampaignNotFound) {
		t.Errorf("missing campaign error = %v, want ErrCampaignNotFound", err)
	}

	c := seedDetective(t, store)
	c.Status = campaign.StatusSolved
	if _, err := o.SendTurn(context.Background(), c.ID, "hello", nil); !errors.Is(err, ErrCampaignClosed) {
		t.Errorf("closed campaign error = %v, want ErrCampaignClosed", err)
	}

	c.Status = campaign.StatusActive
	if _, err := o.SendTurn(context.Background(), c.ID, "   ", nil); err == nil {
		t.Error("expected error for blank message")
	}
}

func TestResendDiscardsAndReruns(t *testing.T) {
	o, store, _, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)

	base := time.Now().UTC().Add(-time.Minute)
	seedTurn := func(role, content string, offset time.Duration) {
		turn := chat.NewTurn(c.ID, role, content)
		turn.CreatedAt = base.Add(offset)
		store.Turns[c.ID] = append(store.Turns[c.ID], turn)
	}
	seedTurn(chat.RolePlayer, "I search the study.", 0)
	seedTurn(chat.RoleOracle, "Dust everywhere.", time.Second)
	seedTurn(chat.RolePlayer, "I check the desk.", 2*time.Second)
	seedTurn(chat.RoleOracle, "A locked drawer.", 3*time.Second)

	res, err := o.Resend(context.Background(), c.ID, "I check the desk.", nil)
	if err != nil {
		t.Fatalf("Resend failed: %v", err)
	}
	if res == nil || res.UsedFallback {
		t.Fatalf("unexpected resend result: %+v", res)
	}

	turns := store.Turns[c.ID]
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns after resend, got %d", len(turns))
	}
	if turns[0].Content != "I search the study." || turns[1].Content != "Dust everywhere." {
		t.Error("turns before the resent one must survive")
	}
	if turns[2].Content != "I check the desk." || turns[2].Role != chat.RolePlayer {
		t.Errorf("unexpected re-sent player turn: %+v", turns[2])
	}
	if turns[3].Role != chat.RoleOracle {
		t.Errorf("expected a fresh oracle turn, got %+v", turns[3])
	}
}

func TestResendNoMatchIsNoOp(t *testing.T) {
	o, store, _, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)

	turn := chat.NewTurn(c.ID, chat.RolePlayer, "I search the study.")
	store.Turns[c.ID] = append(store.Turns[c.ID], turn)

	res, err := o.Resend(context.Background(), c.ID, "something never sent", nil)
	if err != nil {
		t.Fatalf("Resend failed: %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
	if len(store.Turns[c.ID]) != 1 {
		t.Errorf("transcript changed on a no-op resend")
	}
}

func TestContinueNarrationSendsSentinel(t *testing.T) {
	o, store, _, _ := newTestOrchestrator(t)
	c := seedDetective(t, store)

	if _, err := o.ContinueNarration(context.Background(), c.ID, nil); err != nil {
		t.Fatalf("ContinueNarration failed: %v", err)
	}

	turns := store.Turns[c.ID]
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != ContinueSentinel {
		t.Errorf("player turn = %q, want the continue sentinel", turns[0].Content)
	}
}
