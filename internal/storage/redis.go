package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/solorpg/chronicle/pkg/actor"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/memory"
	"github.com/solorpg/chronicle/pkg/mystery"
)

// Redis key layout. Single-value records are JSON strings; turn and
// timeline logs are lists of JSON entries in append order.
const (
	campaignSetKey    = "campaigns"
	campaignKeyPrefix = "campaign:"
	turnsKeyPrefix    = "turns:"
	leaderKeyPrefix   = "leader:"
	timelineKeyPrefix = "timeline:"
	mysteryKeyPrefix  = "mystery:"
	charKeyPrefix     = "character:"
	memoryKeyPrefix   = "memory:"
)

// RedisStorage implements Storage on Redis.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a Redis-backed storage instance.
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{
		client: redis.NewClient(&redis.Options{Addr: redisURL}),
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}

// setJSON marshals v and stores it under key with no expiration.
func (r *RedisStorage) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed for %s: %w", key, err)
	}
	return nil
}

// getJSON loads key into v. Returns (false, nil) when the key is absent.
func (r *RedisStorage) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed for %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStorage) SaveCampaign(ctx context.Context, c *campaign.Campaign) error {
	if err := r.setJSON(ctx, campaignKeyPrefix+c.ID.String(), c); err != nil {
		return err
	}
	if err := r.client.SAdd(ctx, campaignSetKey, c.ID.String()).Err(); err != nil {
		return fmt.Errorf("redis sadd failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	var c campaign.Campaign
	ok, err := r.getJSON(ctx, campaignKeyPrefix+id.String(), &c)
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

func (r *RedisStorage) ListCampaigns(ctx context.Context) ([]*campaign.Campaign, error) {
	ids, err := r.client.SMembers(ctx, campaignSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}

	campaigns := make([]*campaign.Campaign, 0, len(ids))
	for _, id := range ids {
		var c campaign.Campaign
		ok, err := r.getJSON(ctx, campaignKeyPrefix+id, &c)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Stale set member; skip it.
			r.logger.Warn("campaign id in set without record", "campaign_id", id)
			continue
		}
		campaigns = append(campaigns, &c)
	}
	return campaigns, nil
}

func (r *RedisStorage) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	s := id.String()
	keys := []string{
		campaignKeyPrefix + s,
		turnsKeyPrefix + s,
		leaderKeyPrefix + s,
		timelineKeyPrefix + s,
		mysteryKeyPrefix + s,
		charKeyPrefix + s,
		memoryKeyPrefix + s,
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	if err := r.client.SRem(ctx, campaignSetKey, s).Err(); err != nil {
		return fmt.Errorf("redis srem failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) AppendTurn(ctx context.Context, t *chat.Turn) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}
	if err := r.client.RPush(ctx, turnsKeyPrefix+t.CampaignID.String(), data).Err(); err != nil {
		return fmt.Errorf("redis rpush failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListTurns(ctx context.Context, campaignID uuid.UUID) ([]chat.Turn, error) {
	entries, err := r.client.LRange(ctx, turnsKeyPrefix+campaignID.String(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	turns := make([]chat.Turn, 0, len(entries))
	for _, entry := range entries {
		var t chat.Turn
		if err := json.Unmarshal([]byte(entry), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RedisStorage) DeleteTurnsFrom(ctx context.Context, campaignID uuid.UUID, cutoff time.Time) (int, error) {
	turns, err := r.ListTurns(ctx, campaignID)
	if err != nil {
		return 0, err
	}

	kept := make([]any, 0, len(turns))
	removed := 0
	for _, t := range turns {
		if !t.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		data, err := json.Marshal(t)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal turn: %w", err)
		}
		kept = append(kept, data)
	}
	if removed == 0 {
		return 0, nil
	}

	// Rewrite the list atomically.
	key := turnsKeyPrefix + campaignID.String()
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(kept) > 0 {
		pipe.RPush(ctx, key, kept...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis pipeline failed: %w", err)
	}
	return removed, nil
}

func (r *RedisStorage) CountPlayerTurns(ctx context.Context, campaignID uuid.UUID) (int, error) {
	turns, err := r.ListTurns(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, t := range turns {
		if t.Role == chat.RolePlayer {
			count++
		}
	}
	return count, nil
}

func (r *RedisStorage) GetLeader(ctx context.Context, campaignID uuid.UUID) (*leader.Profile, error) {
	var p leader.Profile
	ok, err := r.getJSON(ctx, leaderKeyPrefix+campaignID.String(), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (r *RedisStorage) SaveLeader(ctx context.Context, profile *leader.Profile) error {
	return r.setJSON(ctx, leaderKeyPrefix+profile.CampaignID.String(), profile)
}

func (r *RedisStorage) ListTimelineEvents(ctx context.Context, campaignID uuid.UUID) ([]leader.TimelineEvent, error) {
	entries, err := r.client.LRange(ctx, timelineKeyPrefix+campaignID.String(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	events := make([]leader.TimelineEvent, 0, len(entries))
	for _, entry := range entries {
		var e leader.TimelineEvent
		if err := json.Unmarshal([]byte(entry), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timeline event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *RedisStorage) AppendTimelineEvent(ctx context.Context, event leader.TimelineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline event: %w", err)
	}
	if err := r.client.RPush(ctx, timelineKeyPrefix+event.CampaignID.String(), data).Err(); err != nil {
		return fmt.Errorf("redis rpush failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetMysteryAnswer(ctx context.Context, campaignID uuid.UUID) (*mystery.Answer, error) {
	var a mystery.Answer
	ok, err := r.getJSON(ctx, mysteryKeyPrefix+campaignID.String(), &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

func (r *RedisStorage) SaveMysteryAnswer(ctx context.Context, a *mystery.Answer) error {
	return r.setJSON(ctx, mysteryKeyPrefix+a.CampaignID.String(), a)
}

func (r *RedisStorage) GetCharacter(ctx context.Context, campaignID uuid.UUID) (*actor.CharacterSpec, error) {
	var spec actor.CharacterSpec
	ok, err := r.getJSON(ctx, charKeyPrefix+campaignID.String(), &spec)
	if err != nil || !ok {
		return nil, err
	}
	return &spec, nil
}

func (r *RedisStorage) SaveCharacter(ctx context.Context, spec *actor.CharacterSpec) error {
	return r.setJSON(ctx, charKeyPrefix+spec.CampaignID.String(), spec)
}

func (r *RedisStorage) GetMemory(ctx context.Context, campaignID uuid.UUID) (*memory.Snapshot, error) {
	var snap memory.Snapshot
	ok, err := r.getJSON(ctx, memoryKeyPrefix+campaignID.String(), &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (r *RedisStorage) SaveMemory(ctx context.Context, snap *memory.Snapshot) error {
	return r.setJSON(ctx, memoryKeyPrefix+snap.CampaignID.String(), snap)
}
