package leader

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/pkg/directive"
)

type fakeStore struct {
	profiles map[uuid.UUID]*Profile
	events   map[uuid.UUID][]TimelineEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[uuid.UUID]*Profile),
		events:   make(map[uuid.UUID][]TimelineEvent),
	}
}

func (f *fakeStore) GetLeader(_ context.Context, campaignID uuid.UUID) (*Profile, error) {
	return f.profiles[campaignID], nil
}

func (f *fakeStore) SaveLeader(_ context.Context, p *Profile) error {
	f.profiles[p.CampaignID] = p
	return nil
}

func (f *fakeStore) ListTimelineEvents(_ context.Context, campaignID uuid.UUID) ([]TimelineEvent, error) {
	return f.events[campaignID], nil
}

func (f *fakeStore) AppendTimelineEvent(_ context.Context, e TimelineEvent) error {
	f.events[e.CampaignID] = append(f.events[e.CampaignID], e)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMutator_LazyProfileCreation(t *testing.T) {
	store := newFakeStore()
	m := NewMutator(store, store, testLogger())
	campaignID := uuid.New()

	res := &directive.Result{
		Impact:        &directive.Impact{Economic: intPtr(5)},
		ImpactSummary: "First decree",
	}

	profile, err := m.Apply(context.Background(), campaignID, "Chancellor Reyes", res)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if profile.Name != "Chancellor Reyes" {
		t.Errorf("name = %q", profile.Name)
	}
	if profile.Axes.Economic != 5 {
		t.Errorf("economic = %d, want 5", profile.Axes.Economic)
	}
	if profile.Nation.Stability != DefaultNationValue {
		t.Errorf("fresh nation stability = %d, want %d", profile.Nation.Stability, DefaultNationValue)
	}
	if store.profiles[campaignID] == nil {
		t.Error("profile not persisted")
	}

	events := store.events[campaignID]
	if len(events) != 1 || events[0].Type != EventDecision {
		t.Fatalf("expected one decision event, got %+v", events)
	}
	if events[0].Label != "First decree" {
		t.Errorf("event label = %q", events[0].Label)
	}
}

func TestMutator_ElectionEventsResetCadence(t *testing.T) {
	store := newFakeStore()
	m := NewMutator(store, store, testLogger())
	campaignID := uuid.New()
	ctx := context.Background()

	impact := func() *directive.Result {
		return &directive.Result{Impact: &directive.Impact{Social: intPtr(1)}}
	}

	for i := 0; i < 16; i++ {
		if _, err := m.Apply(ctx, campaignID, "Leader", impact()); err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
	}

	q, err := m.Quarters(ctx, campaignID)
	if err != nil {
		t.Fatalf("Quarters() error: %v", err)
	}
	if q != 16 {
		t.Errorf("quarters = %d, want 16", q)
	}

	held := impact()
	held.Election = directive.ElectionHeld
	if _, err := m.Apply(ctx, campaignID, "Leader", held); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	q, err = m.Quarters(ctx, campaignID)
	if err != nil {
		t.Fatalf("Quarters() error: %v", err)
	}
	if q != 0 {
		t.Errorf("quarters after election = %d, want 0", q)
	}
}

func TestMutator_NoImpactNoDecisionEvent(t *testing.T) {
	store := newFakeStore()
	m := NewMutator(store, store, testLogger())
	campaignID := uuid.New()

	if _, err := m.Apply(context.Background(), campaignID, "Leader", &directive.Result{}); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if len(store.events[campaignID]) != 0 {
		t.Errorf("expected no timeline events, got %+v", store.events[campaignID])
	}
}
