package meal

import "math"

// PercentageEpsilon is the tolerance when checking that ingredient
// percentages sum to 100, absorbing one-decimal rounding error.
const PercentageEpsilon = 0.1

// ValidateMeal reports whether m has the minimal structure required to cross
// into or out of persistence: a non-empty id, a positive timestamp, and an
// ingredient list. It is deliberately shallow — weight and nutrition
// derivation are not re-verified here. Its job is to keep corrupt rows and
// partial writes out of the pipeline, cheaply.
func ValidateMeal(m *Meal) bool {
	if m == nil || m.ID == "" || m.Timestamp <= 0 {
		return false
	}
	return m.Ingredients != nil
}

// ValidatePercentages reports whether the ingredient percentages sum to 100
// within PercentageEpsilon. Empty input is invalid — there is nothing to
// persist.
func ValidatePercentages(ingredients []Ingredient) bool {
	if len(ingredients) == 0 {
		return false
	}
	var sum float64
	for _, ing := range ingredients {
		sum += ing.Percentage
	}
	// Inclusive comparison with a float guard: three equal shares of 33.3
	// sum to 99.9, which sits exactly epsilon away from 100 and lands a
	// hair past it in binary floating point.
	return math.Abs(sum-100) <= PercentageEpsilon+1e-9
}

// ValidateSettings reports whether s is structurally sound: finite daily
// targets and a recognized units value. Range policing (e.g. calories within
// [800,5000]) is an edit-boundary concern, not re-enforced here.
func ValidateSettings(s *Settings) bool {
	if s == nil {
		return false
	}
	for _, v := range []float64{s.DailyCalories, s.DailyProtein, s.DailyCarbs, s.DailyFat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return s.Units == UnitsMetric || s.Units == UnitsImperial
}
