// Package memory holds the consolidated long-term memory model for a
// campaign: a rolling recap plus tracked entities and facts about them.
package memory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Caps on consolidated memory. The oracle is asked to respect these but the
// engine enforces them regardless.
const (
	MaxRecapLen = 600
	MaxEntities = 10
	MaxFacts    = 20
)

// Relation classifies how an entity stands toward the player.
const (
	RelationAlly          = "ally"
	RelationInternalEnemy = "internal_enemy"
	RelationExternalEnemy = "external_enemy"
	RelationNeutral       = "neutral"
)

// Entity is a tracked person, place, or thing the story keeps returning to.
// Names are the linkage key between consolidation runs: the oracle cannot
// return stable ids, so upserts match on exact name.
type Entity struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type,omitempty"`
	Relation   string    `json:"relation,omitempty"`
	Blurb      string    `json:"blurb,omitempty"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Fact is a durable subject-predicate-object statement about a tracked
// entity, linked to the turn whose consolidation produced it.
type Fact struct {
	ID              uuid.UUID `json:"id"`
	CampaignID      uuid.UUID `json:"campaign_id"`
	SubjectEntityID uuid.UUID `json:"subject_entity_id"`
	Predicate       string    `json:"predicate"`
	Object          string    `json:"object"`
	SourceMessageID uuid.UUID `json:"source_message_id"`
}

// Snapshot is the full consolidated memory for one campaign.
type Snapshot struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Recap      string    `json:"recap"`
	Entities   []Entity  `json:"entities,omitempty"`
	Facts      []Fact    `json:"facts,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ClampRecap truncates a recap to MaxRecapLen runes, appending an ellipsis
// when anything was cut.
func ClampRecap(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= MaxRecapLen {
		return string(r)
	}
	return string(r[:MaxRecapLen-1]) + "…"
}

// EntityByName returns the tracked entity with the exact given name, or nil.
func (s *Snapshot) EntityByName(name string) *Entity {
	for i := range s.Entities {
		if s.Entities[i].Name == name {
			return &s.Entities[i]
		}
	}
	return nil
}

// Normalize applies all caps and consistency rules to a snapshot in place:
// recap clamped, entity list capped, facts capped, and facts whose subject is
// not a tracked entity dropped.
func (s *Snapshot) Normalize() {
	s.Recap = ClampRecap(s.Recap)

	if len(s.Entities) > MaxEntities {
		s.Entities = s.Entities[:MaxEntities]
	}

	known := make(map[uuid.UUID]bool, len(s.Entities))
	for _, e := range s.Entities {
		known[e.ID] = true
	}

	kept := s.Facts[:0]
	for _, f := range s.Facts {
		if !known[f.SubjectEntityID] {
			continue
		}
		kept = append(kept, f)
		if len(kept) == MaxFacts {
			break
		}
	}
	s.Facts = kept
}

// UpsertEntities folds incoming entities into existing by exact name match.
// A matching name keeps its stored id and first-seen campaign linkage but
// takes the incoming description; new names get fresh ids. Every touched
// entity has LastSeenAt set to now. The result is capped at MaxEntities,
// favoring already-tracked entities.
func UpsertEntities(campaignID uuid.UUID, existing, incoming []Entity, now time.Time) []Entity {
	out := make([]Entity, len(existing))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, e := range out {
		index[e.Name] = i
	}

	for _, e := range incoming {
		if i, ok := index[e.Name]; ok {
			out[i].Type = e.Type
			out[i].Relation = e.Relation
			out[i].Blurb = e.Blurb
			out[i].LastSeenAt = now
			continue
		}
		if len(out) < MaxEntities {
			e.ID = uuid.New()
			e.CampaignID = campaignID
			e.LastSeenAt = now
			index[e.Name] = len(out)
			out = append(out, e)
		}
	}
	return out
}
