package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewPantryPartitionsOnStrictCutoff(t *testing.T) {
	today := day("2024-01-01")
	items := []InventoryItem{
		{IngredientID: 1, Description: "milk", ExpirationDate: day("2024-01-07")},
		{IngredientID: 2, Description: "rice", ExpirationDate: day("2024-01-08")},
		{IngredientID: 3, Description: "eggs", ExpirationDate: day("2024-01-02")},
	}

	p := NewPantry(items, today, 7)

	assert.Len(t, p.Items, 3)
	require.Len(t, p.ExpiringSoon, 2)
	assert.Equal(t, "milk", p.ExpiringSoon[0].Description)
	assert.Equal(t, "eggs", p.ExpiringSoon[1].Description)

	require.Len(t, p.Expiring, 2)
	assert.Equal(t, int64(3), p.Expiring[0].IngredientID)
	assert.Equal(t, int64(1), p.Expiring[1].IngredientID)
}

func TestNewPantryAllItems(t *testing.T) {
	items := []InventoryItem{
		{IngredientID: 1, ExpirationDate: day("2030-01-01")},
		{IngredientID: 2, ExpirationDate: day("2024-01-10")},
	}

	p := NewPantry(items, day("2024-01-01"), AllItems)

	assert.Len(t, p.ExpiringSoon, 2)
	assert.Equal(t, []int64{2, 1}, []int64{p.Expiring[0].IngredientID, p.Expiring[1].IngredientID})
}

func TestNewPantrySortsByDateNotByLabel(t *testing.T) {
	// "December" sorts before "February" as text; the real dates do not.
	items := []InventoryItem{
		{IngredientID: 1, ExpirationDate: day("2024-12-01")},
		{IngredientID: 2, ExpirationDate: day("2024-02-01")},
	}

	p := NewPantry(items, day("2024-01-01"), AllItems)

	assert.Equal(t, int64(2), p.Expiring[0].IngredientID)
}

func TestNewPantryKeepsTieOrder(t *testing.T) {
	items := []InventoryItem{
		{IngredientID: 5, ExpirationDate: day("2024-01-03")},
		{IngredientID: 4, ExpirationDate: day("2024-01-03")},
	}

	p := NewPantry(items, day("2024-01-01"), AllItems)

	assert.Equal(t, int64(5), p.Expiring[0].IngredientID)
	assert.Equal(t, int64(4), p.Expiring[1].IngredientID)
}

func TestBuildPriorityOrdersByExpiry(t *testing.T) {
	expiring := []ExpiringIngredient{
		{IngredientID: 10, ExpiresOn: day("2024-01-01")},
		{IngredientID: 20, ExpiresOn: day("2024-01-10")},
	}
	rows := []AvailableIngredient{
		{RecipeName: "cake", IngredientID: 20, Description: "sugar"},
		{RecipeName: "cake", IngredientID: 10, Description: "flour"},
		{RecipeName: "bread", IngredientID: 10, Description: "flour"},
		{RecipeName: "bread", IngredientID: 30, Description: "yeast"},
	}

	buckets := BuildPriority(rows, expiring)

	require.Len(t, buckets, 2)
	assert.Equal(t, "flour", buckets[0].Ingredient)
	assert.Equal(t, []string{"cake", "bread"}, buckets[0].Recipes)
	assert.Equal(t, "flour: January 01, 2024", buckets[0].Label())
	assert.Equal(t, "sugar", buckets[1].Ingredient)
	assert.Equal(t, []string{"cake"}, buckets[1].Recipes)
}

func TestBuildPriorityNothingExpiring(t *testing.T) {
	rows := []AvailableIngredient{{RecipeName: "cake", IngredientID: 1, Description: "flour"}}

	assert.Empty(t, BuildPriority(rows, nil))
}

func TestSplitInstructions(t *testing.T) {
	tests := []struct {
		name string
		raw  sql.NullString
		want []string
	}{
		{"escaped newline", sql.NullString{String: `mix\nbake`, Valid: true}, []string{"mix", "bake"}},
		{"real newline", sql.NullString{String: "mix\nbake\ncool", Valid: true}, []string{"mix", "bake", "cool"}},
		{"single step", sql.NullString{String: "eat", Valid: true}, []string{"eat"}},
		{"null", sql.NullString{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitInstructions(tt.raw))
		})
	}
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, NoRating, FormatRating(sql.NullFloat64{}))
	assert.Equal(t, "4.3", FormatRating(sql.NullFloat64{Float64: 4.333, Valid: true}))
	assert.Equal(t, "5", FormatRating(sql.NullFloat64{Float64: 5, Valid: true}))
}

func TestDiffAllergies(t *testing.T) {
	catalog := []string{"shellfish", "nuts", "gluten", "dairy"}
	current := []string{"nuts", "dairy"}
	toggled := []string{"dairy", "gluten", "not-in-catalog"}

	changes := DiffAllergies(catalog, current, toggled)

	assert.Equal(t, []string{"gluten"}, changes.Add)
	assert.Equal(t, []string{"nuts"}, changes.Remove)
}

func TestDiffAllergiesRoundTrip(t *testing.T) {
	catalog := []string{"nuts", "gluten"}
	original := []string{"nuts"}

	on := DiffAllergies(catalog, original, []string{"nuts", "gluten"})
	assert.Equal(t, []string{"gluten"}, on.Add)

	off := DiffAllergies(catalog, []string{"nuts", "gluten"}, original)
	assert.Equal(t, []string{"gluten"}, off.Remove)
	assert.Empty(t, off.Add)

	assert.True(t, DiffAllergies(catalog, original, original).Empty())
}

func TestValidStars(t *testing.T) {
	assert.False(t, ValidStars(0))
	assert.True(t, ValidStars(1))
	assert.True(t, ValidStars(5))
	assert.False(t, ValidStars(6))
}
