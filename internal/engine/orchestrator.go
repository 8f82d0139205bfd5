// Package engine owns the turn loop: it assembles context, calls the
// oracle, applies parsed directives to persisted state, and decides when
// memory consolidation runs. Nothing else writes campaign state during a
// turn.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/solorpg/chronicle/internal/services"
	"github.com/solorpg/chronicle/internal/storage"
	"github.com/solorpg/chronicle/pkg/actor"
	"github.com/solorpg/chronicle/pkg/campaign"
	"github.com/solorpg/chronicle/pkg/directive"
	"github.com/solorpg/chronicle/pkg/item"
	"github.com/solorpg/chronicle/pkg/leader"
	"github.com/solorpg/chronicle/pkg/prompts"
)

// Sentinel errors callers branch on.
var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignClosed   = errors.New("campaign is closed")
	ErrWrongVariant     = errors.New("operation not valid for this campaign variant")
)

// ContinueSentinel is the player message sent by the continue operation.
const ContinueSentinel = "[Continue the narration]"

// Enqueuer schedules out-of-band consolidation jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, campaignID uuid.UUID) error
}

// Orchestrator runs player turns end to end.
type Orchestrator struct {
	store            storage.Storage
	oracle           services.Oracle
	queue            Enqueuer
	mutator          *leader.Mutator
	logger           *slog.Logger
	consolidateEvery int
}

// New creates an orchestrator. queue may be nil, which disables the
// consolidation trigger (manual consolidation still works).
func New(store storage.Storage, oracle services.Oracle, queue Enqueuer, logger *slog.Logger, consolidateEvery int) *Orchestrator {
	if consolidateEvery <= 0 {
		consolidateEvery = 5
	}
	return &Orchestrator{
		store:            store,
		oracle:           oracle,
		queue:            queue,
		mutator:          leader.NewMutator(store, store, logger),
		logger:           logger,
		consolidateEvery: consolidateEvery,
	}
}

// loadOpenCampaign fetches a campaign and rejects closed or missing ones.
func (o *Orchestrator) loadOpenCampaign(ctx context.Context, campaignID uuid.UUID) (*campaign.Campaign, error) {
	c, err := o.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if c == nil {
		return nil, ErrCampaignNotFound
	}
	if c.Closed() {
		return nil, ErrCampaignClosed
	}
	return c, nil
}

// systemPrompt builds the full system prompt for one narration call.
func (o *Orchestrator) systemPrompt(ctx context.Context, c *campaign.Campaign) (string, error) {
	b := prompts.New().WithCampaign(c)

	snap, err := o.store.GetMemory(ctx, c.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load memory: %w", err)
	}
	b.WithMemory(snap)

	switch c.Variant {
	case campaign.VariantLeader:
		profile, err := o.store.GetLeader(ctx, c.ID)
		if err != nil {
			return "", fmt.Errorf("failed to load leader: %w", err)
		}
		quarters, err := o.mutator.Quarters(ctx, c.ID)
		if err != nil {
			return "", err
		}
		b.WithLeader(profile).WithQuarters(quarters)
	case campaign.VariantDetective:
		spec, err := o.store.GetCharacter(ctx, c.ID)
		if err != nil {
			return "", fmt.Errorf("failed to load character: %w", err)
		}
		b.WithCharacterSheet(renderSheet(spec))
	}

	return b.Build()
}

// renderSheet formats a character spec for the system prompt.
func renderSheet(spec *actor.CharacterSpec) string {
	if spec == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, level %d. HP %d/%d, AC %d.", spec.Name, spec.Level, spec.HP, spec.MaxHP, spec.AC)
	if len(spec.Inventory) > 0 {
		fmt.Fprintf(&sb, " Carrying: %s.", strings.Join(spec.Inventory, ", "))
	}
	return sb.String()
}

// applyDirectives routes a parsed result to the variant's state. Directive
// application failures are logged, never fatal to the turn.
func (o *Orchestrator) applyDirectives(ctx context.Context, c *campaign.Campaign, res *directive.Result) {
	switch c.Variant {
	case campaign.VariantLeader:
		if _, err := o.mutator.Apply(ctx, c.ID, c.Title, res); err != nil {
			o.logger.Error("failed to apply leader directives", "error", err, "campaign_id", c.ID)
		}
	case campaign.VariantDetective:
		o.applyCharacterDirectives(ctx, c, res)
	}
}

func (o *Orchestrator) applyCharacterDirectives(ctx context.Context, c *campaign.Campaign, res *directive.Result) {
	if len(res.Effects) == 0 && len(res.ItemDrops) == 0 && res.XPDelta == nil {
		return
	}

	spec, err := o.store.GetCharacter(ctx, c.ID)
	if err != nil {
		o.logger.Error("failed to load character for directives", "error", err, "campaign_id", c.ID)
		return
	}
	if spec == nil {
		o.logger.Warn("directives target a campaign with no character", "campaign_id", c.ID)
		return
	}
	ch, err := actor.FromSpec(spec)
	if err != nil {
		o.logger.Error("failed to rebuild character", "error", err, "campaign_id", c.ID)
		return
	}

	for _, effect := range res.Effects {
		if err := ch.ApplyEffect(effect, actor.Roll); err != nil {
			o.logger.Warn("dropped character effect", "error", err, "kind", effect.Kind)
		}
	}

	grants, unknown := item.Resolve(res.ItemDrops)
	for _, id := range unknown {
		o.logger.Warn("dropped item grant for unknown item", "item_id", id, "campaign_id", c.ID)
	}
	for _, g := range grants {
		ch.AddItem(g.Item.ID, g.Quantity)
	}

	if res.XPDelta != nil {
		if gained := ch.AddXP(*res.XPDelta); gained > 0 {
			o.logger.Info("character leveled up", "campaign_id", c.ID, "level", ch.Spec.Level)
		}
	}

	if err := o.store.SaveCharacter(ctx, ch.Snapshot()); err != nil {
		o.logger.Error("failed to save character", "error", err, "campaign_id", c.ID)
	}
}

// maybeEnqueueConsolidation schedules a consolidation job when the player
// turn count crosses the cadence. Queue failures are logged only.
func (o *Orchestrator) maybeEnqueueConsolidation(ctx context.Context, campaignID uuid.UUID) {
	if o.queue == nil {
		return
	}
	count, err := o.store.CountPlayerTurns(ctx, campaignID)
	if err != nil {
		o.logger.Error("failed to count player turns", "error", err, "campaign_id", campaignID)
		return
	}
	if count > 0 && count%o.consolidateEvery == 0 {
		if err := o.queue.Enqueue(ctx, campaignID); err != nil {
			o.logger.Error("failed to enqueue consolidation", "error", err, "campaign_id", campaignID)
		}
	}
}
