package models

import (
	"sort"
	"time"
)

// DateLayout is how expiration dates are shown to users.
const DateLayout = "January 02, 2006"

// AllItems as a soon-days window treats every inventory item as expiring.
const AllItems = -1

type InventoryItem struct {
	IngredientID   int64     `db:"ingredient_id" json:"ingredient_id"`
	Description    string    `db:"description" json:"description"`
	Calories       int       `db:"calories" json:"calories"`
	Quantity       int       `db:"quantity" json:"quantity"`
	ExpirationDate time.Time `db:"expiration_date" json:"expiration_date"`
}

func (i InventoryItem) Expires() string {
	return FormatDate(i.ExpirationDate)
}

// ExpiringIngredient is one entry of the urgency-ordered expiring list.
type ExpiringIngredient struct {
	IngredientID int64
	ExpiresOn    time.Time
}

func (e ExpiringIngredient) Expires() string {
	return FormatDate(e.ExpiresOn)
}

// Pantry is a user's inventory split by urgency.
type Pantry struct {
	Items        []InventoryItem
	ExpiringSoon []InventoryItem
	// Expiring holds the ExpiringSoon ids sorted by expiration date, closest first.
	Expiring []ExpiringIngredient
}

// NewPantry partitions items into those expiring strictly before
// today+soonDays and the rest. soonDays == AllItems marks every item.
func NewPantry(items []InventoryItem, today time.Time, soonDays int) Pantry {
	p := Pantry{Items: items}
	cutoff := truncateDay(today).AddDate(0, 0, soonDays)

	for _, it := range items {
		if soonDays != AllItems && !truncateDay(it.ExpirationDate).Before(cutoff) {
			continue
		}
		p.ExpiringSoon = append(p.ExpiringSoon, it)
		p.Expiring = append(p.Expiring, ExpiringIngredient{
			IngredientID: it.IngredientID,
			ExpiresOn:    it.ExpirationDate,
		})
	}

	sort.SliceStable(p.Expiring, func(a, b int) bool {
		return p.Expiring[a].ExpiresOn.Before(p.Expiring[b].ExpiresOn)
	})
	return p
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
