package models

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"
)

// NoRating is shown when a recipe has not been reviewed.
const NoRating = "N/A"

// RecipeIngredient is one line of a recipe joined against a user's
// inventory. ExpirationDate is null when the user does not hold it.
type RecipeIngredient struct {
	IngredientID   int64
	Description    string
	ExpirationDate sql.NullTime
}

func (ri RecipeIngredient) Have() bool {
	return ri.ExpirationDate.Valid
}

func (ri RecipeIngredient) Expires() string {
	if !ri.ExpirationDate.Valid {
		return ""
	}
	return FormatDate(ri.ExpirationDate.Time)
}

type RecipeDetail struct {
	Name         string
	Ingredients  []RecipeIngredient
	Instructions []string
	Rating       string
	Reviews      []Review
}

// AvailableIngredient is one (recipe, ingredient) row of an available recipe.
type AvailableIngredient struct {
	RecipeName   string
	IngredientID int64
	Description  string
}

// PriorityBucket lists the available recipes that would use up one
// soon-to-expire ingredient.
type PriorityBucket struct {
	Ingredient string
	ExpiresOn  time.Time
	Recipes    []string
}

func (b PriorityBucket) Label() string {
	return b.Ingredient + ": " + FormatDate(b.ExpiresOn)
}

type Availability struct {
	Recipes  []string
	Priority []PriorityBucket
}

// BuildPriority groups rows whose ingredient is in expiring by
// (description, expiration date). Buckets follow the order of expiring,
// which callers keep sorted by date.
func BuildPriority(rows []AvailableIngredient, expiring []ExpiringIngredient) []PriorityBucket {
	rank := make(map[int64]int, len(expiring))
	for i, e := range expiring {
		if _, seen := rank[e.IngredientID]; !seen {
			rank[e.IngredientID] = i
		}
	}

	byRank := make(map[int][]AvailableIngredient)
	for _, row := range rows {
		if i, ok := rank[row.IngredientID]; ok {
			byRank[i] = append(byRank[i], row)
		}
	}

	var buckets []PriorityBucket
	index := make(map[string]int)
	for i, e := range expiring {
		for _, row := range byRank[i] {
			key := row.Description + "\x00" + FormatDate(e.ExpiresOn)
			at, ok := index[key]
			if !ok {
				at = len(buckets)
				index[key] = at
				buckets = append(buckets, PriorityBucket{Ingredient: row.Description, ExpiresOn: e.ExpiresOn})
			}
			buckets[at].Recipes = append(buckets[at].Recipes, row.RecipeName)
		}
	}
	return buckets
}

// SplitInstructions splits stored instructions into steps. Rows were stored
// with either a literal backslash-n or a real newline as separator.
func SplitInstructions(raw sql.NullString) []string {
	if !raw.Valid {
		return []string{}
	}
	steps := strings.Split(raw.String, `\n`)
	if len(steps) == 1 {
		steps = strings.Split(steps[0], "\n")
	}
	return steps
}

// FormatRating rounds an average star rating to one decimal.
func FormatRating(avg sql.NullFloat64) string {
	if !avg.Valid {
		return NoRating
	}
	return strconv.FormatFloat(math.Round(avg.Float64*10)/10, 'f', -1, 64)
}
