// Package memory runs out-of-band memory consolidation: it condenses a
// campaign's transcript into the recap/entities/facts snapshot the prompt
// builder injects into later turns.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/internal/services"
	"github.com/solorpg/chronicle/pkg/chat"
	memmodel "github.com/solorpg/chronicle/pkg/memory"
	"github.com/solorpg/chronicle/pkg/prompts"
)

// TranscriptWindow caps how many trailing turns feed one consolidation.
const TranscriptWindow = 100

// Store is the slice of persistence the consolidator needs.
type Store interface {
	ListTurns(ctx context.Context, campaignID uuid.UUID) ([]chat.Turn, error)
	GetMemory(ctx context.Context, campaignID uuid.UUID) (*memmodel.Snapshot, error)
	SaveMemory(ctx context.Context, snap *memmodel.Snapshot) error
}

// Consolidator condenses transcripts via one oracle call per run. The
// oracle's output is untrusted; malformed responses degrade to a naive
// recap instead of failing the run.
type Consolidator struct {
	store  Store
	oracle services.Oracle
	logger *slog.Logger
}

func NewConsolidator(store Store, oracle services.Oracle, logger *slog.Logger) *Consolidator {
	return &Consolidator{store: store, oracle: oracle, logger: logger}
}

// extraction mirrors the JSON shape the extraction prompt requests. The
// oracle speaks in names; ids and provenance are attached at write time.
type extraction struct {
	Recap    string            `json:"recap"`
	Entities []extractedEntity `json:"entities"`
	Facts    []extractedFact   `json:"facts"`
}

type extractedEntity struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Relation string `json:"relation"`
	Blurb    string `json:"blurb"`
}

type extractedFact struct {
	Subject         string `json:"subject"`
	Predicate       string `json:"predicate"`
	Object          string `json:"object"`
	SourceMessageID string `json:"source_message_id"`
}

// Consolidate runs one consolidation pass for a campaign and persists the
// merged snapshot. It never fails on oracle malformation, only on storage
// errors or an unreachable oracle with no transcript to fall back on.
func (c *Consolidator) Consolidate(ctx context.Context, campaignID uuid.UUID) (*memmodel.Snapshot, error) {
	turns, err := c.store.ListTurns(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	if len(turns) > TranscriptWindow {
		turns = turns[len(turns)-TranscriptWindow:]
	}
	transcript := chat.FormatTranscript(turns)
	if transcript == "" {
		return nil, fmt.Errorf("campaign %s has no transcript to consolidate", campaignID)
	}

	existing, err := c.store.GetMemory(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory: %w", err)
	}
	if existing == nil {
		existing = &memmodel.Snapshot{CampaignID: campaignID}
	}

	snap := c.extract(ctx, campaignID, turns, transcript, existing)
	snap.CampaignID = campaignID
	snap.UpdatedAt = time.Now().UTC()
	snap.Normalize()

	if err := c.store.SaveMemory(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save memory: %w", err)
	}
	return snap, nil
}

// extract asks the oracle for a consolidation and merges it over the
// existing snapshot. Any failure degrades to the naive recap.
func (c *Consolidator) extract(ctx context.Context, campaignID uuid.UUID, turns []chat.Turn, transcript string, existing *memmodel.Snapshot) *memmodel.Snapshot {
	prompt := prompts.BuildMemoryExtractionPrompt(transcript)
	raw, err := c.oracle.Complete(ctx, "", []chat.ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		c.logger.Warn("consolidation oracle call failed, using naive recap", "error", err)
		return naiveSnapshot(turns, existing)
	}

	parsed, err := parseExtraction(raw)
	if err != nil {
		c.logger.Warn("consolidation response unparseable, using naive recap", "error", err)
		return naiveSnapshot(turns, existing)
	}

	incoming := make([]memmodel.Entity, 0, len(parsed.Entities))
	for _, e := range parsed.Entities {
		incoming = append(incoming, memmodel.Entity{
			Name:     e.Name,
			Type:     e.Type,
			Relation: e.Relation,
			Blurb:    e.Blurb,
		})
	}

	snap := &memmodel.Snapshot{
		Recap:    parsed.Recap,
		Entities: memmodel.UpsertEntities(campaignID, existing.Entities, incoming, time.Now().UTC()),
	}

	// The transcript's [id] prefixes are the provenance keys the oracle
	// cites back. An uncited or unknown id degrades to the newest turn.
	analyzed := make(map[uuid.UUID]bool, len(turns))
	var lastID uuid.UUID
	for _, t := range turns {
		if t.Role == chat.RoleSystem {
			continue
		}
		analyzed[t.ID] = true
		lastID = t.ID
	}

	for _, f := range parsed.Facts {
		subject := snap.EntityByName(f.Subject)
		if subject == nil {
			c.logger.Debug("dropped fact with unknown subject", "subject", f.Subject)
			continue
		}
		sourceID := lastID
		if id, err := uuid.Parse(strings.TrimSpace(f.SourceMessageID)); err == nil && analyzed[id] {
			sourceID = id
		}
		snap.Facts = append(snap.Facts, memmodel.Fact{
			ID:              uuid.New(),
			CampaignID:      campaignID,
			SubjectEntityID: subject.ID,
			Predicate:       f.Predicate,
			Object:          f.Object,
			SourceMessageID: sourceID,
		})
	}
	return snap
}

// naiveSnapshot keeps the existing entities and facts and replaces the
// recap with the turns' raw content, whitespace collapsed and clamped.
// The transcript's id/speaker prefixes never reach the player.
func naiveSnapshot(turns []chat.Turn, existing *memmodel.Snapshot) *memmodel.Snapshot {
	var parts []string
	for _, t := range turns {
		if t.Role == chat.RoleSystem {
			continue
		}
		parts = append(parts, strings.Fields(t.Content)...)
	}
	return &memmodel.Snapshot{
		Recap:    memmodel.ClampRecap(strings.Join(parts, " ")),
		Entities: existing.Entities,
		Facts:    existing.Facts,
	}
}

// parseExtraction decodes the oracle's loosely formed JSON: code fences are
// stripped, the first balanced object is isolated, and two targeted
// repairs handle responses truncated mid-string or mid-array.
func parseExtraction(raw string) (*extraction, error) {
	s := stripFences(raw)
	start := strings.Index(s, "{")
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}
	s = s[start:]

	candidates := []string{s}
	if obj := firstBalancedObject(s); obj != "" {
		candidates = []string{obj}
	} else {
		// Truncated output. Try closing an unterminated string, then
		// closing an unterminated array of objects.
		candidates = append(candidates, s+`"}`, closeTruncatedArray(s))
	}

	var lastErr error
	for _, candidate := range candidates {
		var out extraction
		if err := json.Unmarshal([]byte(candidate), &out); err != nil {
			lastErr = err
			continue
		}
		if out.Recap == "" && len(out.Entities) == 0 && len(out.Facts) == 0 {
			lastErr = fmt.Errorf("extraction object is empty")
			continue
		}
		return &out, nil
	}
	return nil, fmt.Errorf("failed to parse extraction: %w", lastErr)
}

// stripFences removes markdown code fences around the payload.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// firstBalancedObject returns the first complete top-level JSON object in
// s, or "" when braces never balance. Braces inside strings are ignored.
func firstBalancedObject(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1]
				}
			}
		}
	}
	return ""
}

// closeTruncatedArray trims a truncated payload back to its last complete
// object and closes the surrounding array and object.
func closeTruncatedArray(s string) string {
	i := strings.LastIndex(s, "}")
	if i < 0 {
		return s
	}
	return s[:i+1] + "]}"
}
