// Package actor holds the detective-variant character sheet. The serializable
// CharacterSpec is what storage persists; the runtime Character wraps a
// d20.Actor rebuilt from the spec on load.
package actor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"

	"github.com/solorpg/chronicle/pkg/directive"
	"github.com/solorpg/chronicle/pkg/item"
)

// XPPerLevel is the cumulative experience required per level. Level N is
// reached at (N-1)*XPPerLevel total experience.
const XPPerLevel = 100

// Default sheet for a freshly started detective campaign.
const (
	defaultMaxHP = 20
	defaultAC    = 12
)

// CharacterSpec is the serializable character sheet.
type CharacterSpec struct {
	ID         uuid.UUID      `json:"id"`
	CampaignID uuid.UUID      `json:"campaign_id"`
	Name       string         `json:"name"`
	HP         int            `json:"hp"`
	MaxHP      int            `json:"max_hp"`
	AC         int            `json:"ac"`
	XP         int            `json:"xp"`
	Level      int            `json:"level"`
	Attributes map[string]int `json:"attributes,omitempty"`
	Inventory  []string       `json:"inventory,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Character is the runtime character. Actor carries the live HP state;
// the spec is refreshed from it before persisting.
type Character struct {
	Spec  *CharacterSpec
	Actor *d20.Actor
}

var defaultAttributes = map[string]int{
	"observation": 14,
	"reasoning":   14,
	"composure":   12,
	"vigor":       10,
}

// NewCharacter creates a level 1 detective with the default sheet.
func NewCharacter(campaignID uuid.UUID, name string) (*Character, error) {
	spec := &CharacterSpec{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Name:       name,
		HP:         defaultMaxHP,
		MaxHP:      defaultMaxHP,
		AC:         defaultAC,
		Level:      1,
		Attributes: make(map[string]int, len(defaultAttributes)),
		Inventory:  []string{"magnifier"},
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	for k, v := range defaultAttributes {
		spec.Attributes[k] = v
	}
	return FromSpec(spec)
}

// FromSpec rebuilds the runtime character from a persisted spec.
func FromSpec(spec *CharacterSpec) (*Character, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}

	a, err := d20.NewActor(spec.ID.String()).
		WithHP(spec.MaxHP).
		WithAC(spec.AC).
		WithAttributes(spec.Attributes).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}
	if spec.HP != spec.MaxHP && spec.HP >= 0 {
		if err := a.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return &Character{Spec: spec, Actor: a}, nil
}

// HP reports current hit points.
func (c *Character) HP() int {
	return c.Actor.HP()
}

// Dead reports whether the character is at zero hit points.
func (c *Character) Dead() bool {
	return c.Actor.HP() <= 0
}

// ApplyDamage reduces HP by amount minus the flat armor reduction from the
// inventory. A hit that lands always costs at least one hit point.
func (c *Character) ApplyDamage(amount int) error {
	if amount <= 0 {
		return nil
	}
	reduced := amount - item.ArmorReduction(c.Spec.Inventory)
	if reduced < 1 {
		reduced = 1
	}
	hp := c.Actor.HP() - reduced
	if hp < 0 {
		hp = 0
	}
	if err := c.Actor.SetHP(hp); err != nil {
		return fmt.Errorf("failed to apply damage: %w", err)
	}
	c.touch()
	return nil
}

// Heal restores HP, capped at max.
func (c *Character) Heal(amount int) error {
	if amount <= 0 {
		return nil
	}
	hp := c.Actor.HP() + amount
	if hp > c.Actor.MaxHP() {
		hp = c.Actor.MaxHP()
	}
	if err := c.Actor.SetHP(hp); err != nil {
		return fmt.Errorf("failed to heal: %w", err)
	}
	c.touch()
	return nil
}

// AddXP grants experience and returns the number of levels gained. Negative
// grants reduce XP but never below zero and never remove a level.
func (c *Character) AddXP(amount int) int {
	c.Spec.XP += amount
	if c.Spec.XP < 0 {
		c.Spec.XP = 0
	}
	gained := 0
	for c.Spec.XP >= c.Spec.Level*XPPerLevel {
		c.Spec.Level++
		gained++
	}
	c.touch()
	return gained
}

// AddItem appends qty copies of an item id to the inventory.
func (c *Character) AddItem(id string, qty int) {
	for i := 0; i < qty; i++ {
		c.Spec.Inventory = append(c.Spec.Inventory, id)
	}
	c.touch()
}

// ApplyEffect applies one parsed character effect. Rolled damage uses the
// provided roll function so tests can fix the dice.
func (c *Character) ApplyEffect(e directive.CharacterEffect, roll func(notation string) (int, error)) error {
	switch e.Kind {
	case directive.EffectDamage:
		return c.ApplyDamage(e.Amount)
	case directive.EffectHeal:
		return c.Heal(e.Amount)
	case directive.EffectDamageRoll:
		n, err := roll(e.Roll)
		if err != nil {
			return fmt.Errorf("failed to roll %q: %w", e.Roll, err)
		}
		return c.ApplyDamage(n)
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
}

// Snapshot refreshes the spec from the live actor state for persistence.
func (c *Character) Snapshot() *CharacterSpec {
	c.Spec.HP = c.Actor.HP()
	c.Spec.MaxHP = c.Actor.MaxHP()
	c.Spec.AC = c.Actor.AC()
	return c.Spec
}

// MarshalJSON serializes the current runtime state.
func (c *Character) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	if c.Actor == nil {
		return json.Marshal(c.Spec)
	}
	return json.Marshal(c.Snapshot())
}

// UnmarshalJSON reconstructs the character and rebuilds its actor.
func (c *Character) UnmarshalJSON(data []byte) error {
	var spec CharacterSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal character spec: %w", err)
	}
	rebuilt, err := FromSpec(&spec)
	if err != nil {
		return err
	}
	*c = *rebuilt
	return nil
}

func (c *Character) touch() {
	c.Spec.UpdatedAt = time.Now().UTC()
}
