package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/solorpg/chronicle/pkg/actor"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/chat"
	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/memory"
	"github.com/solorpg/chronicle/pkg/mystery"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	campaign_id TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at_ns INTEGER NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_campaign ON turns(campaign_id);
CREATE TABLE IF NOT EXISTS leaders (
	campaign_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS timeline_events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	campaign_id TEXT NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timeline_campaign ON timeline_events(campaign_id);
CREATE TABLE IF NOT EXISTS mysteries (
	campaign_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS characters (
	campaign_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS memories (
	campaign_id TEXT PRIMARY KEY,
	data TEXT NOT NULL
);`

// SQLiteStorage implements Storage on a local SQLite database. Records are
// stored as JSON documents with the columns needed for filtering.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// upsertDoc writes a JSON document keyed by campaign id into a one-row
// table.
func (s *SQLiteStorage) upsertDoc(ctx context.Context, table string, campaignID uuid.UUID, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", table, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (campaign_id, data) VALUES (?, ?)
		ON CONFLICT(campaign_id) DO UPDATE SET data = excluded.data`, table)
	if _, err := s.db.ExecContext(ctx, query, campaignID.String(), string(data)); err != nil {
		return fmt.Errorf("failed to upsert %s record: %w", table, err)
	}
	return nil
}

// getDoc loads a JSON document by campaign id. Returns (false, nil) when
// absent.
func (s *SQLiteStorage) getDoc(ctx context.Context, table string, campaignID uuid.UUID, v any) (bool, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE campaign_id = ?`, table)
	var data string
	err := s.db.QueryRowContext(ctx, query, campaignID.String()).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s record: %w", table, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s record: %w", table, err)
	}
	return true, nil
}

func (s *SQLiteStorage) SaveCampaign(ctx context.Context, c *campaign.Campaign) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO campaigns (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, c.ID.String(), string(data))
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM campaigns WHERE id = ?`, id.String()).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign: %w", err)
	}
	var c campaign.Campaign
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaign: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStorage) ListCampaigns(ctx context.Context) ([]*campaign.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM campaigns`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var campaigns []*campaign.Campaign
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		var c campaign.Campaign
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal campaign: %w", err)
		}
		campaigns = append(campaigns, &c)
	}
	return campaigns, rows.Err()
}

func (s *SQLiteStorage) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	cid := id.String()
	statements := []string{
		`DELETE FROM campaigns WHERE id = ?`,
		`DELETE FROM turns WHERE campaign_id = ?`,
		`DELETE FROM leaders WHERE campaign_id = ?`,
		`DELETE FROM timeline_events WHERE campaign_id = ?`,
		`DELETE FROM mysteries WHERE campaign_id = ?`,
		`DELETE FROM characters WHERE campaign_id = ?`,
		`DELETE FROM memories WHERE campaign_id = ?`,
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, cid); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete campaign records: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) AppendTurn(ctx context.Context, t *chat.Turn) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO turns (campaign_id, role, created_at_ns, data) VALUES (?, ?, ?, ?)`,
		t.CampaignID.String(), t.Role, t.CreatedAt.UnixNano(), string(data))
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListTurns(ctx context.Context, campaignID uuid.UUID) ([]chat.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM turns WHERE campaign_id = ? ORDER BY seq`, campaignID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	turns := make([]chat.Turn, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		var t chat.Turn
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLiteStorage) DeleteTurnsFrom(ctx context.Context, campaignID uuid.UUID, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM turns WHERE campaign_id = ? AND created_at_ns >= ?`,
		campaignID.String(), cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete turns: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted turns: %w", err)
	}
	return int(removed), nil
}

func (s *SQLiteStorage) CountPlayerTurns(ctx context.Context, campaignID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM turns WHERE campaign_id = ? AND role = ?`,
		campaignID.String(), chat.RolePlayer).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count player turns: %w", err)
	}
	return count, nil
}

func (s *SQLiteStorage) GetLeader(ctx context.Context, campaignID uuid.UUID) (*leader.Profile, error) {
	var p leader.Profile
	ok, err := s.getDoc(ctx, "leaders", campaignID, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStorage) SaveLeader(ctx context.Context, profile *leader.Profile) error {
	return s.upsertDoc(ctx, "leaders", profile.CampaignID, profile)
}

func (s *SQLiteStorage) ListTimelineEvents(ctx context.Context, campaignID uuid.UUID) ([]leader.TimelineEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM timeline_events WHERE campaign_id = ? ORDER BY seq`, campaignID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]leader.TimelineEvent, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan timeline event: %w", err)
		}
		var e leader.TimelineEvent
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timeline event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLiteStorage) AppendTimelineEvent(ctx context.Context, event leader.TimelineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline event: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO timeline_events (campaign_id, data) VALUES (?, ?)`,
		event.CampaignID.String(), string(data))
	if err != nil {
		return fmt.Errorf("failed to append timeline event: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetMysteryAnswer(ctx context.Context, campaignID uuid.UUID) (*mystery.Answer, error) {
	var a mystery.Answer
	ok, err := s.getDoc(ctx, "mysteries", campaignID, &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStorage) SaveMysteryAnswer(ctx context.Context, a *mystery.Answer) error {
	return s.upsertDoc(ctx, "mysteries", a.CampaignID, a)
}

func (s *SQLiteStorage) GetCharacter(ctx context.Context, campaignID uuid.UUID) (*actor.CharacterSpec, error) {
	var spec actor.CharacterSpec
	ok, err := s.getDoc(ctx, "characters", campaignID, &spec)
	if err != nil || !ok {
		return nil, err
	}
	return &spec, nil
}

func (s *SQLiteStorage) SaveCharacter(ctx context.Context, spec *actor.CharacterSpec) error {
	return s.upsertDoc(ctx, "characters", spec.CampaignID, spec)
}

func (s *SQLiteStorage) GetMemory(ctx context.Context, campaignID uuid.UUID) (*memory.Snapshot, error) {
	var snap memory.Snapshot
	ok, err := s.getDoc(ctx, "memories", campaignID, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStorage) SaveMemory(ctx context.Context, snap *memory.Snapshot) error {
	return s.upsertDoc(ctx, "memories", snap.CampaignID, snap)
}
