// Package foodmatch resolves raw image-classifier labels to the canonical
// food names used by the nutrition reference table.
//
// Resolution runs through an ordered list of matcher strategies: exact match
// against the curated label table, substring match in either direction, then
// keyword-guided extraction of a generic food word. Labels that survive none
// of them are rejected as not food. Everything here is static data and pure
// functions — nothing is learned at runtime.
package foodmatch

import "strings"

// Prediction is one ranked classifier output.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Match is a prediction resolved to a canonical food name.
type Match struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

const (
	// confidenceFloor drops classifier noise; predictions at or below it
	// are ignored.
	confidenceFloor = 0.1

	// maxPredictions caps how many labels one image contributes.
	maxPredictions = 5
)

// matcher resolves a lower-cased, trimmed label to a canonical food name.
type matcher func(label string) (string, bool)

// matchers are evaluated in priority order; the first hit wins.
var matchers = []matcher{matchExact, matchSubstring, matchKeyword}

// Map resolves a single raw classifier label. The second return value is
// false when the label does not look like food.
func Map(rawLabel string) (string, bool) {
	label := strings.ToLower(strings.TrimSpace(rawLabel))
	if label == "" {
		return "", false
	}
	for _, m := range matchers {
		if name, ok := m(label); ok {
			return name, true
		}
	}
	return "", false
}

// Classify filters ranked classifier output and resolves each label.
// Predictions at or below the confidence floor are dropped, at most the top
// five remain, and labels that do not resolve to food are discarded. Input
// order (confidence-descending, as produced by the classifier) is preserved.
func Classify(predictions []Prediction) []Match {
	matches := make([]Match, 0, maxPredictions)
	kept := 0
	for _, p := range predictions {
		if p.Confidence <= confidenceFloor || p.Label == "" {
			continue
		}
		if kept++; kept > maxPredictions {
			break
		}
		if name, ok := Map(p.Label); ok {
			matches = append(matches, Match{Name: name, Confidence: p.Confidence})
		}
	}
	return matches
}

func matchExact(label string) (string, bool) {
	name, ok := labelIndex[label]
	return name, ok
}

// matchSubstring tries each curated entry in table order, matching when the
// label contains the key or the key contains the label. The table is a slice
// rather than a map so resolution is deterministic.
func matchSubstring(label string) (string, bool) {
	for _, e := range labelTable {
		if strings.Contains(label, e.label) || strings.Contains(e.label, label) {
			return e.name, true
		}
	}
	return "", false
}

// matchKeyword handles food-looking labels with no curated entry ("chicken
// curry plate"): if the label contains a food-indicating keyword, try to pull
// out one of a small set of generic food words.
func matchKeyword(label string) (string, bool) {
	foodish := false
	for _, kw := range foodKeywords {
		if strings.Contains(label, kw) {
			foodish = true
			break
		}
	}
	if !foodish {
		return "", false
	}
	for _, g := range genericFoods {
		if strings.Contains(label, g.word) {
			return g.name, true
		}
	}
	// Food-adjacent but unmappable; rejecting beats forcing a wrong food.
	return "", false
}
