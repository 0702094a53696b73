package meal

import (
	"math"

	"github.com/platewise/platewise/nutrition"
)

// Recompute derives fresh weight and nutrition for every ingredient against
// totalWeight, preserving percentages. Used when the user edits the meal's
// total weight. The input slice is not modified.
func Recompute(table nutrition.Table, ingredients []Ingredient, totalWeight float64) []Ingredient {
	out := make([]Ingredient, len(ingredients))
	for i, ing := range ingredients {
		out[i] = rederive(table, ing, totalWeight)
	}
	return out
}

// SetPercentage overwrites the targeted ingredient's percentage and
// rederives its weight and nutrition. No other ingredient is touched: the
// sum-to-100 invariant is intentionally allowed to break here, with the
// caller gating forward progress on ValidatePercentages, so the user keeps
// control of exact values instead of having them silently rebalanced.
func SetPercentage(table nutrition.Table, ingredients []Ingredient, id string, percentage, totalWeight float64) []Ingredient {
	out := make([]Ingredient, len(ingredients))
	for i, ing := range ingredients {
		if ing.ID == id {
			ing.Percentage = percentage
		}
		out[i] = rederive(table, ing, totalWeight)
	}
	return out
}

// Remove drops the targeted ingredient and redistributes the remainder into
// equal shares. This is the one operation that auto-redistributes: removal
// leaves no user action that could restore the sum, so leaving the remainder
// untouched would silently wedge the meal.
func Remove(table nutrition.Table, ingredients []Ingredient, id string, totalWeight float64) []Ingredient {
	remaining := make([]Ingredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.ID != id {
			remaining = append(remaining, ing)
		}
	}
	if len(remaining) == 0 {
		return remaining
	}

	share := 100 / float64(len(remaining))
	out := make([]Ingredient, len(remaining))
	for i, ing := range remaining {
		ing.Percentage = share
		out[i] = rederive(table, ing, totalWeight)
	}
	return out
}

func rederive(table nutrition.Table, ing Ingredient, totalWeight float64) Ingredient {
	weight := int(math.Round(totalWeight * ing.Percentage / 100))
	if weight < 0 {
		weight = 0
	}
	ing.Weight = weight
	ing.Nutrition = nutrition.ForFood(table, ing.Name, float64(weight))
	return ing
}
