package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/pkg/actor"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/memory"
	"github.com/solorpg/chronicle/pkg/mystery"
)

// MockStorage is an in-memory Storage for tests. Set an entry in Errs to
// force an operation to fail by name (e.g. "SaveCampaign").
type MockStorage struct {
	mu sync.Mutex

	Campaigns  map[uuid.UUID]*campaign.Campaign
	Turns      map[uuid.UUID][]chat.Turn
	Leaders    map[uuid.UUID]*leader.Profile
	Timeline   map[uuid.UUID][]leader.TimelineEvent
	Mysteries  map[uuid.UUID]*mystery.Answer
	Characters map[uuid.UUID]*actor.CharacterSpec
	Memories   map[uuid.UUID]*memory.Snapshot

	Errs map[string]error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		Campaigns:  make(map[uuid.UUID]*campaign.Campaign),
		Turns:      make(map[uuid.UUID][]chat.Turn),
		Leaders:    make(map[uuid.UUID]*leader.Profile),
		Timeline:   make(map[uuid.UUID][]leader.TimelineEvent),
		Mysteries:  make(map[uuid.UUID]*mystery.Answer),
		Characters: make(map[uuid.UUID]*actor.CharacterSpec),
		Memories:   make(map[uuid.UUID]*memory.Snapshot),
		Errs:       make(map[string]error),
	}
}

func (m *MockStorage) err(op string) error {
	return m.Errs[op]
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.err("Ping") }
func (m *MockStorage) Close() error                   { return nil }

func (m *MockStorage) SaveCampaign(ctx context.Context, c *campaign.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("SaveCampaign"); err != nil {
		return err
	}
	m.Campaigns[c.ID] = c
	return nil
}

func (m *MockStorage) GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetCampaign"); err != nil {
		return nil, err
	}
	return m.Campaigns[id], nil
}

func (m *MockStorage) ListCampaigns(ctx context.Context) ([]*campaign.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("ListCampaigns"); err != nil {
		return nil, err
	}
	out := make([]*campaign.Campaign, 0, len(m.Campaigns))
	for _, c := range m.Campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (m *MockStorage) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("DeleteCampaign"); err != nil {
		return err
	}
	delete(m.Campaigns, id)
	delete(m.Turns, id)
	delete(m.Leaders, id)
	delete(m.Timeline, id)
	delete(m.Mysteries, id)
	delete(m.Characters, id)
	delete(m.Memories, id)
	return nil
}

func (m *MockStorage) AppendTurn(ctx context.Context, t *chat.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("AppendTurn"); err != nil {
		return err
	}
	m.Turns[t.CampaignID] = append(m.Turns[t.CampaignID], *t)
	return nil
}

func (m *MockStorage) ListTurns(ctx context.Context, campaignID uuid.UUID) ([]chat.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("ListTurns"); err != nil {
		return nil, err
	}
	turns := make([]chat.Turn, len(m.Turns[campaignID]))
	copy(turns, m.Turns[campaignID])
	return turns, nil
}

func (m *MockStorage) DeleteTurnsFrom(ctx context.Context, campaignID uuid.UUID, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("DeleteTurnsFrom"); err != nil {
		return 0, err
	}
	kept := m.Turns[campaignID][:0:0]
	removed := 0
	for _, t := range m.Turns[campaignID] {
		if t.CreatedAt.Before(cutoff) {
			kept = append(kept, t)
		} else {
			removed++
		}
	}
	m.Turns[campaignID] = kept
	return removed, nil
}

func (m *MockStorage) CountPlayerTurns(ctx context.Context, campaignID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("CountPlayerTurns"); err != nil {
		return 0, err
	}
	count := 0
	for _, t := range m.Turns[campaignID] {
		if t.Role == chat.RolePlayer {
			count++
		}
	}
	return count, nil
}

func (m *MockStorage) GetLeader(ctx context.Context, campaignID uuid.UUID) (*leader.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetLeader"); err != nil {
		return nil, err
	}
	return m.Leaders[campaignID], nil
}

func (m *MockStorage) SaveLeader(ctx context.Context, profile *leader.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("SaveLeader"); err != nil {
		return err
	}
	m.Leaders[profile.CampaignID] = profile
	return nil
}

func (m *MockStorage) ListTimelineEvents(ctx context.Context, campaignID uuid.UUID) ([]leader.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("ListTimelineEvents"); err != nil {
		return nil, err
	}
	events := make([]leader.TimelineEvent, len(m.Timeline[campaignID]))
	copy(events, m.Timeline[campaignID])
	return events, nil
}

func (m *MockStorage) AppendTimelineEvent(ctx context.Context, event leader.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("AppendTimelineEvent"); err != nil {
		return err
	}
	m.Timeline[event.CampaignID] = append(m.Timeline[event.CampaignID], event)
	return nil
}

func (m *MockStorage) GetMysteryAnswer(ctx context.Context, campaignID uuid.UUID) (*mystery.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetMysteryAnswer"); err != nil {
		return nil, err
	}
	return m.Mysteries[campaignID], nil
}

func (m *MockStorage) SaveMysteryAnswer(ctx context.Context, a *mystery.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("SaveMysteryAnswer"); err != nil {
		return err
	}
	m.Mysteries[a.CampaignID] = a
	return nil
}

func (m *MockStorage) GetCharacter(ctx context.Context, campaignID uuid.UUID) (*actor.CharacterSpec, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetCharacter"); err != nil {
		return nil, err
	}
	return m.Characters[campaignID], nil
}

func (m *MockStorage) SaveCharacter(ctx context.Context, spec *actor.CharacterSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("SaveCharacter"); err != nil {
		return err
	}
	m.Characters[spec.CampaignID] = spec
	return nil
}

func (m *MockStorage) GetMemory(ctx context.Context, campaignID uuid.UUID) (*memory.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("GetMemory"); err != nil {
		return nil, err
	}
	return m.Memories[campaignID], nil
}

func (m *MockStorage) SaveMemory(ctx context.Context, snap *memory.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err("SaveMemory"); err != nil {
		return err
	}
	m.Memories[snap.CampaignID] = snap
	return nil
}
