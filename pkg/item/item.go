// Package item defines the built-in item catalog and resolves item grants
// emitted by the narrator against it.
package item

import "github.com/solorpg/chronicle/pkg/directive"

// Kind classifies catalog items.
type Kind string

const (
	KindWeapon     Kind = "weapon"
	KindArmor      Kind = "armor"
	KindConsumable Kind = "consumable"
	KindClue       Kind = "clue"
	KindTrinket    Kind = "trinket"
)

// Def is a catalog item definition. Effect is kind-dependent: flat damage
// reduction for armor, HP restored for consumables, zero otherwise.
type Def struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	Effect     int    `json:"effect,omitempty"`
	DefaultQty int    `json:"default_qty,omitempty"`
}

// catalog holds the built-in item definitions, keyed by id.
var catalog = map[string]Def{
	"revolver":       {ID: "revolver", Name: "Service Revolver", Kind: KindWeapon, Effect: 6, DefaultQty: 1},
	"cane_sword":     {ID: "cane_sword", Name: "Cane Sword", Kind: KindWeapon, Effect: 4, DefaultQty: 1},
	"knuckleduster":  {ID: "knuckleduster", Name: "Knuckleduster", Kind: KindWeapon, Effect: 2, DefaultQty: 1},
	"leather_coat":   {ID: "leather_coat", Name: "Reinforced Leather Coat", Kind: KindArmor, Effect: 1, DefaultQty: 1},
	"trench_armor":   {ID: "trench_armor", Name: "Concealed Trench Plating", Kind: KindArmor, Effect: 2, DefaultQty: 1},
	"bandages":       {ID: "bandages", Name: "Field Bandages", Kind: KindConsumable, Effect: 4, DefaultQty: 2},
	"laudanum":       {ID: "laudanum", Name: "Laudanum Vial", Kind: KindConsumable, Effect: 8, DefaultQty: 1},
	"magnifier":      {ID: "magnifier", Name: "Brass Magnifier", Kind: KindTrinket, DefaultQty: 1},
	"lockpicks":      {ID: "lockpicks", Name: "Lockpick Set", Kind: KindTrinket, DefaultQty: 1},
	"torn_letter":    {ID: "torn_letter", Name: "Torn Letter", Kind: KindClue, DefaultQty: 1},
	"bloody_glove":   {ID: "bloody_glove", Name: "Bloodstained Glove", Kind: KindClue, DefaultQty: 1},
	"pawn_ticket":    {ID: "pawn_ticket", Name: "Pawn Shop Ticket", Kind: KindClue, DefaultQty: 1},
	"cipher_page":    {ID: "cipher_page", Name: "Cipher Page", Kind: KindClue, DefaultQty: 1},
	"pocket_watch":   {ID: "pocket_watch", Name: "Engraved Pocket Watch", Kind: KindClue, DefaultQty: 1},
	"train_schedule": {ID: "train_schedule", Name: "Annotated Train Schedule", Kind: KindClue, DefaultQty: 1},
}

// Lookup returns the catalog definition for an item id.
func Lookup(id string) (Def, bool) {
	d, ok := catalog[id]
	return d, ok
}

// Grant is a resolved item drop ready to be added to an inventory.
type Grant struct {
	Item     Def
	Quantity int
}

// Resolve maps parsed item drops to catalog grants. Unknown ids are returned
// separately so the caller can log them; they never produce a grant. A drop
// without an explicit quantity falls back to the catalog default (minimum 1).
func Resolve(drops []directive.ItemDrop) (grants []Grant, unknown []string) {
	for _, d := range drops {
		def, ok := catalog[d.ItemID]
		if !ok {
			unknown = append(unknown, d.ItemID)
			continue
		}
		qty := d.Quantity
		if qty <= 0 {
			qty = def.DefaultQty
		}
		if qty <= 0 {
			qty = 1
		}
		grants = append(grants, Grant{Item: def, Quantity: qty})
	}
	return grants, unknown
}

// ArmorReduction sums flat damage reduction across the armor items in an
// inventory of item ids. Unknown and non-armor ids contribute nothing.
func ArmorReduction(inventory []string) int {
	total := 0
	for _, id := range inventory {
		if def, ok := catalog[id]; ok && def.Kind == KindArmor {
			total += def.Effect
		}
	}
	return total
}
