// Package meal holds the meal-composition core: the Meal/Ingredient/Settings
// records, the composer that turns classifier output into an ingredient set,
// the normalizer applied during editing, and the structural validators that
// gate persistence.
package meal

import (
	"github.com/platewise/platewise/nutrition"
)

// Ingredient is one recognized food within a meal. Weight and Nutrition are
// always derived from Percentage and the meal's total weight — they are never
// authored independently.
type Ingredient struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"` // canonical food key
	Percentage float64        `json:"percentage"`
	Weight     int            `json:"weight"` // grams, derived
	Nutrition  nutrition.Data `json:"nutrition"`
}

// Meal is one logged meal. Nutrition is the aggregate of its ingredients.
type Meal struct {
	ID          string         `json:"id"`
	Timestamp   int64          `json:"timestamp"` // unix milliseconds
	Photo       string         `json:"photo,omitempty"`
	TotalWeight float64        `json:"totalWeight"` // grams
	Ingredients []Ingredient   `json:"ingredients"`
	Nutrition   nutrition.Data `json:"nutrition"`
	Notes       string         `json:"notes,omitempty"`
}

// Units values recognized in Settings.
const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
)

// Settings is the singleton user settings record.
type Settings struct {
	DailyCalories float64 `json:"dailyCalories"`
	DailyProtein  float64 `json:"dailyProtein"`
	DailyCarbs    float64 `json:"dailyCarbs"`
	DailyFat      float64 `json:"dailyFat"`
	Units         string  `json:"units"`
	DarkMode      bool    `json:"darkMode"`
}

// DefaultSettings are installed at first run and used to repair individually
// invalid fields read back from storage.
func DefaultSettings() Settings {
	return Settings{
		DailyCalories: 2000,
		DailyProtein:  150,
		DailyCarbs:    250,
		DailyFat:      70,
		Units:         UnitsMetric,
		DarkMode:      false,
	}
}

// Aggregate sums per-ingredient nutrition into a meal total. The zero value
// of a missing nutrition field contributes nothing, so partially corrupt
// ingredients degrade instead of failing.
func Aggregate(ingredients []Ingredient) nutrition.Data {
	items := make([]nutrition.Data, len(ingredients))
	for i, ing := range ingredients {
		items[i] = ing.Nutrition
	}
	return nutrition.Sum(items)
}
