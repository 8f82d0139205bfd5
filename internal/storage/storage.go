// Package storage persists every campaign artifact: the campaign itself,
// its turn log, leader state and timeline, the mystery solution, the
// character sheet, and consolidated memory. Two backends implement the
// interface (Redis and SQLite) plus an in-memory mock for tests.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/pkg/actor"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/memory"
	"github.com/solorpg/chronicle/pkg/mystery"
)

// Storage is the unified persistence interface. Get operations return
// (nil, nil) when the record does not exist.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Campaign operations
	SaveCampaign(ctx context.Context, c *campaign.Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error)
	ListCampaigns(ctx context.Context) ([]*campaign.Campaign, error)
	DeleteCampaign(ctx context.Context, id uuid.UUID) error

	// Turn log operations
	AppendTurn(ctx context.Context, t *chat.Turn) error
	ListTurns(ctx context.Context, campaignID uuid.UUID) ([]chat.Turn, error)
	// DeleteTurnsFrom removes every turn created at or after cutoff,
	// returning the number removed. Used by the resend flow.
	DeleteTurnsFrom(ctx context.Context, campaignID uuid.UUID, cutoff time.Time) (int, error)
	CountPlayerTurns(ctx context.Context, campaignID uuid.UUID) (int, error)

	// Leader operations
	GetLeader(ctx context.Context, campaignID uuid.UUID) (*leader.Profile, error)
	SaveLeader(ctx context.Context, profile *leader.Profile) error
	ListTimelineEvents(ctx context.Context, campaignID uuid.UUID) ([]leader.TimelineEvent, error)
	AppendTimelineEvent(ctx context.Context, event leader.TimelineEvent) error

	// Mystery operations
	GetMysteryAnswer(ctx context.Context, campaignID uuid.UUID) (*mystery.Answer, error)
	SaveMysteryAnswer(ctx context.Context, a *mystery.Answer) error

	// Character operations (detective variant)
	GetCharacter(ctx context.Context, campaignID uuid.UUID) (*actor.CharacterSpec, error)
	SaveCharacter(ctx context.Context, spec *actor.CharacterSpec) error

	// Consolidated memory operations
	GetMemory(ctx context.Context, campaignID uuid.UUID) (*memory.Snapshot, error)
	SaveMemory(ctx context.Context, snap *memory.Snapshot) error
}
