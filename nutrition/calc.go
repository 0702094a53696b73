package nutrition

import "math"

// genericFood stands in for a food name that is missing from the table at
// recompute time. Stored meals must survive reference-table changes, so an
// unknown ingredient degrades to this profile instead of failing.
var genericFood = Data{Calories: 100, Protein: 5, Carbs: 10, Fat: 3}

// ForWeight scales per-100g macro values to an absolute weight in grams.
// Calories round to the nearest integer, the other macros to one decimal.
func ForWeight(base Data, grams float64) Data {
	if grams <= 0 {
		return Data{}
	}
	f := grams / 100
	return Data{
		Calories: math.Round(base.Calories * f),
		Protein:  round1(base.Protein * f),
		Carbs:    round1(base.Carbs * f),
		Fat:      round1(base.Fat * f),
	}
}

// ForFood computes absolute nutrition for a named food at the given weight,
// falling back to the generic profile when name is not in the table.
func ForFood(t Table, name string, grams float64) Data {
	base, ok := t.Lookup(name)
	if !ok {
		base = genericFood
	}
	return ForWeight(base, grams)
}

// Sum folds a sequence of absolute nutrition values into a total. Calories
// accumulate as integer sums; protein, carbs and fat are rounded to one
// decimal after each addition, matching the per-step rounding used when the
// values were derived, so totals do not drift from what the user saw.
func Sum(items []Data) Data {
	var total Data
	for _, d := range items {
		total.Calories += d.Calories
		total.Protein = round1(total.Protein + d.Protein)
		total.Carbs = round1(total.Carbs + d.Carbs)
		total.Fat = round1(total.Fat + d.Fat)
	}
	return total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
