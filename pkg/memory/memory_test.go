package memory

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClampRecap(t *testing.T) {
	long := strings.Repeat("a", 700)
	got := ClampRecap(long)
	if r := []rune(got); len(r) != MaxRecapLen {
		t.Errorf("clamped length = %d, want %d", len(r), MaxRecapLen)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("clamped recap should end in ellipsis, got %q", got[len(got)-8:])
	}

	short := "The case began on a rainy Tuesday."
	if ClampRecap(short) != short {
		t.Errorf("short recap should pass through unchanged")
	}
}

func TestSnapshotNormalize(t *testing.T) {
	fenwick := Entity{ID: uuid.New(), Name: "Lord Fenwick", Type: "person"}
	owl := Entity{ID: uuid.New(), Name: "The Gilded Owl", Type: "place"}
	s := &Snapshot{
		CampaignID: uuid.New(),
		Recap:      strings.Repeat("x", 800),
		Entities:   []Entity{fenwick, owl},
		Facts: []Fact{
			{ID: uuid.New(), SubjectEntityID: fenwick.ID, Predicate: "owes", Object: "gambling debts"},
			{ID: uuid.New(), SubjectEntityID: uuid.New(), Predicate: "seen at", Object: "the docks"},
			{ID: uuid.New(), SubjectEntityID: owl.ID, Predicate: "closes", Object: "after midnight"},
		},
	}

	s.Normalize()

	if len([]rune(s.Recap)) != MaxRecapLen {
		t.Errorf("recap length = %d, want %d", len([]rune(s.Recap)), MaxRecapLen)
	}
	if len(s.Facts) != 2 {
		t.Fatalf("facts = %d, want 2 (unknown-subject fact dropped)", len(s.Facts))
	}
	for _, f := range s.Facts {
		if f.SubjectEntityID != fenwick.ID && f.SubjectEntityID != owl.ID {
			t.Errorf("fact with unknown subject survived normalization")
		}
	}
}

func TestSnapshotNormalize_Caps(t *testing.T) {
	s := &Snapshot{Recap: "r"}
	for i := 0; i < 15; i++ {
		name := string(rune('a' + i))
		s.Entities = append(s.Entities, Entity{ID: uuid.New(), Name: name})
	}
	for i := 0; i < 30; i++ {
		s.Facts = append(s.Facts, Fact{ID: uuid.New(), SubjectEntityID: s.Entities[0].ID, Predicate: "is", Object: "a fact"})
	}

	s.Normalize()

	if len(s.Entities) != MaxEntities {
		t.Errorf("entities = %d, want %d", len(s.Entities), MaxEntities)
	}
	if len(s.Facts) != MaxFacts {
		t.Errorf("facts = %d, want %d", len(s.Facts), MaxFacts)
	}
}

func TestUpsertEntities(t *testing.T) {
	campaignID := uuid.New()
	now := time.Now().UTC()
	existing := []Entity{
		{ID: uuid.New(), CampaignID: campaignID, Name: "Lord Fenwick", Blurb: "suspect"},
		{ID: uuid.New(), CampaignID: campaignID, Name: "The Gilded Owl", Type: "place"},
	}
	incoming := []Entity{
		{Name: "Lord Fenwick", Blurb: "cleared of suspicion", Relation: RelationNeutral},
		{Name: "Miss Hale", Type: "person"},
	}

	out := UpsertEntities(campaignID, existing, incoming, now)

	if len(out) != 3 {
		t.Fatalf("entities = %d, want 3", len(out))
	}
	if out[0].Blurb != "cleared of suspicion" || out[0].Relation != RelationNeutral {
		t.Errorf("matching name should take the incoming description, got %+v", out[0])
	}
	if out[0].ID != existing[0].ID {
		t.Errorf("matching name should keep its stored id")
	}
	if !out[0].LastSeenAt.Equal(now) {
		t.Errorf("touched entity should refresh LastSeenAt")
	}
	if out[2].Name != "Miss Hale" {
		t.Errorf("new entity should append, got %q", out[2].Name)
	}
	if out[2].ID == uuid.Nil || out[2].CampaignID != campaignID {
		t.Errorf("new entity should get a fresh id and campaign linkage")
	}
}

func TestUpsertEntities_FavorsTracked(t *testing.T) {
	campaignID := uuid.New()
	var existing []Entity
	for i := 0; i < MaxEntities; i++ {
		existing = append(existing, Entity{ID: uuid.New(), Name: string(rune('a' + i))})
	}

	out := UpsertEntities(campaignID, existing, []Entity{{Name: "newcomer"}}, time.Now().UTC())
	if len(out) != MaxEntities {
		t.Fatalf("entities = %d, want %d", len(out), MaxEntities)
	}
	for _, e := range out {
		if e.Name == "newcomer" {
			t.Errorf("newcomer should not displace tracked entities")
		}
	}
}

func TestEntityByName(t *testing.T) {
	s := &Snapshot{Entities: []Entity{
		{ID: uuid.New(), Name: "Miss Hale"},
	}}
	if got := s.EntityByName("Miss Hale"); got == nil || got.ID != s.Entities[0].ID {
		t.Errorf("EntityByName should find tracked entities by exact name")
	}
	if s.EntityByName("miss hale") != nil {
		t.Errorf("EntityByName matches exact names only")
	}
}
