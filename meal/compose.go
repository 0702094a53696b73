package meal

import (
	"math"
	"strconv"

	"github.com/platewise/platewise/foodmatch"
	"github.com/platewise/platewise/nutrition"
)

// Compose builds the initial ingredient set from resolved classifier output.
//
// Names absent from the reference table are filtered out first — the
// classifier adapter should already guarantee membership, but the composer
// re-checks rather than trusting it. If nothing survives, the result is
// empty and the caller surfaces "no recognized food". Survivors each get an
// equal percentage share of totalWeight, with weight rounded to whole grams
// and nutrition scaled from the rounded weight. Output order follows input
// order, which the classifier already sorted by confidence.
func Compose(table nutrition.Table, matches []foodmatch.Match, totalWeight float64) []Ingredient {
	if totalWeight <= 0 || len(matches) == 0 {
		return nil
	}

	valid := make([]foodmatch.Match, 0, len(matches))
	for _, m := range matches {
		if table.Contains(m.Name) {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	share := round1(100 / float64(len(valid)))
	ingredients := make([]Ingredient, len(valid))
	for i, m := range valid {
		weight := int(math.Round(totalWeight * share / 100))
		ingredients[i] = Ingredient{
			ID:         strconv.Itoa(i + 1),
			Name:       m.Name,
			Percentage: share,
			Weight:     weight,
			Nutrition:  nutrition.ForFood(table, m.Name, float64(weight)),
		}
	}
	return ingredients
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
