package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/platewise/platewise/foodmatch"
	"github.com/platewise/platewise/meal"
)

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// WHAT: the compose endpoint turns posted predictions into an ingredient set
// with aggregate nutrition and a percentage-validity flag.
func TestAPICompose(t *testing.T) {
	s := newTestService(t, Config{})
	h := s.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/compose", map[string]any{
		"predictions": []map[string]any{
			{"label": "apple", "confidence": 0.9},
			{"label": "rice", "confidence": 0.7},
		},
		"total_weight": 200,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	set := decodeJSON[ingredientSet](t, rec)
	if len(set.Ingredients) != 2 {
		t.Fatalf("got %d ingredients, want 2", len(set.Ingredients))
	}
	if !set.ValidPercentages {
		t.Fatal("fresh equal split should validate")
	}
	if set.Nutrition.Calories != 182 {
		t.Fatalf("calories = %v, want 182", set.Nutrition.Calories)
	}
}

// WHAT: the percentage edit endpoint reports valid_percentages=false when
// the edit breaks the sum, so the UI can disable progression.
func TestAPIPercentageEditFlagsInvalidSum(t *testing.T) {
	s := newTestService(t, Config{})
	h := s.Routes()

	ingredients, err := s.Compose(context.Background(), predictionsFor("apple", "rice"), 200)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/ingredients/percentage", map[string]any{
		"ingredients":  ingredients,
		"id":           ingredients[0].ID,
		"percentage":   80,
		"total_weight": 200,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	set := decodeJSON[ingredientSet](t, rec)
	if set.ValidPercentages {
		t.Fatal("80+50 should not validate")
	}
	if set.Ingredients[1].Percentage != 50 {
		t.Fatalf("untouched percentage = %v, want 50", set.Ingredients[1].Percentage)
	}
}

// WHAT: meals round-trip through the HTTP surface; saving with broken
// percentages is a 400 and an unknown update id is a 404.
func TestAPIMealLifecycle(t *testing.T) {
	s := newTestService(t, Config{}, WithIDGenerator(func() string { return "m1" }))
	h := s.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/meals", appleMeal(1000))
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body)
	}
	saved := decodeJSON[meal.Meal](t, rec)
	if saved.ID != "m1" {
		t.Fatalf("ID = %q, want m1", saved.ID)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/meals", nil)
	meals := decodeJSON[[]meal.Meal](t, rec)
	if len(meals) != 1 {
		t.Fatalf("got %d meals, want 1", len(meals))
	}

	bad := appleMeal(1000)
	bad.Ingredients[0].Percentage = 70
	rec = doJSON(t, h, http.MethodPost, "/api/meals", bad)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid save status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/meals/ghost", appleMeal(1000))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("ghost update status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/meals/m1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/meals", nil)
	if meals := decodeJSON[[]meal.Meal](t, rec); len(meals) != 0 {
		t.Fatalf("got %d meals after delete, want 0", len(meals))
	}
}

// WHAT: settings GET serves defaults before any save, PUT validates, and
// clear resets everything.
func TestAPISettingsAndClear(t *testing.T) {
	s := newTestService(t, Config{})
	h := s.Routes()

	rec := doJSON(t, h, http.MethodGet, "/api/settings", nil)
	settings := decodeJSON[meal.Settings](t, rec)
	if settings != meal.DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", settings)
	}

	settings.DailyCalories = 2200
	rec = doJSON(t, h, http.MethodPut, "/api/settings", settings)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body)
	}

	settings.Units = "stone"
	rec = doJSON(t, h, http.MethodPut, "/api/settings", settings)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid put status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/settings", nil)
	if got := decodeJSON[meal.Settings](t, rec); got != meal.DefaultSettings() {
		t.Fatalf("settings after clear = %+v, want defaults", got)
	}
}

func predictionsFor(labels ...string) []foodmatch.Prediction {
	preds := make([]foodmatch.Prediction, len(labels))
	for i, l := range labels {
		preds[i] = foodmatch.Prediction{Label: l, Confidence: 0.9}
	}
	return preds
}
