package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/platewise/platewise/foodmatch"
	"github.com/platewise/platewise/meal"
	"github.com/platewise/platewise/mealstore"
	"github.com/platewise/platewise/nutrition"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, cfg Config, opts ...ServiceOption) *Service {
	t.Helper()
	store := mealstore.OpenMemory(t)
	opts = append([]ServiceOption{WithLogger(quietLogger())}, opts...)
	return New(cfg, store, opts...)
}

// fakeClassifier records the context it was called with so tests can check
// the cancellation semantics of the analyze race.
type fakeClassifier struct {
	preds []foodmatch.Prediction
	err   error
	delay time.Duration

	mu  sync.Mutex
	ctx context.Context
}

func (f *fakeClassifier) Classify(ctx context.Context, _ []byte) ([]foodmatch.Prediction, error) {
	f.mu.Lock()
	f.ctx = ctx
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.preds, f.err
}

func (f *fakeClassifier) calledCtx() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctx
}

// WHAT: Compose with no reference URL configured resolves against the
// embedded fallback table and drops unmapped labels.
// WHY: offline-first is the default mode; a fresh install with no network
// must still produce a usable meal draft.
func TestComposeOfflineFallback(t *testing.T) {
	s := newTestService(t, Config{})

	preds := []foodmatch.Prediction{
		{Label: "apple", Confidence: 0.9},
		{Label: "laptop", Confidence: 0.8},
	}
	ingredients, err := s.Compose(context.Background(), preds, 200)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(ingredients) != 1 {
		t.Fatalf("got %d ingredients, want 1", len(ingredients))
	}
	ing := ingredients[0]
	if ing.Name != "apple" || ing.Percentage != 100 || ing.Weight != 200 {
		t.Fatalf("unexpected ingredient: %+v", ing)
	}
	if ing.Nutrition.Calories != 104 {
		t.Fatalf("calories = %v, want 104", ing.Nutrition.Calories)
	}
}

// WHAT: a configured reference URL feeds Compose, overriding the fallback
// values, and keys are matched case-insensitively.
// WHY: remote data must actually reach the pipeline when available, not just
// be fetched and ignored.
func TestComposeUsesRemoteReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"Apple":{"calories":40,"protein":1,"carbs":10,"fat":0.5}}`)
	}))
	defer srv.Close()

	s := newTestService(t, Config{ReferenceURL: srv.URL})

	ingredients, err := s.Compose(context.Background(),
		[]foodmatch.Prediction{{Label: "apple", Confidence: 0.9}}, 200)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(ingredients) != 1 {
		t.Fatalf("got %d ingredients, want 1", len(ingredients))
	}
	got := ingredients[0].Nutrition
	want := nutrition.Data{Calories: 80, Protein: 2, Carbs: 20, Fat: 1}
	if got != want {
		t.Fatalf("nutrition = %+v, want %+v", got, want)
	}
}

// WHAT: AnalyzeImage without a classifier collaborator fails fast.
// WHY: the server deployment runs classification client-side; calling the
// image path there is a wiring mistake that should be loud.
func TestAnalyzeImageNoClassifier(t *testing.T) {
	s := newTestService(t, Config{})

	_, err := s.AnalyzeImage(context.Background(), []byte{1}, 200)
	if !errors.Is(err, ErrNoClassifier) {
		t.Fatalf("err = %v, want ErrNoClassifier", err)
	}
}

// WHAT: a classifier answer arriving within the window flows through label
// matching and composition.
func TestAnalyzeImageSuccess(t *testing.T) {
	fc := &fakeClassifier{preds: []foodmatch.Prediction{
		{Label: "banana", Confidence: 0.95},
		{Label: "rice", Confidence: 0.6},
	}}
	s := newTestService(t, Config{}, WithClassifier(fc))

	ingredients, err := s.AnalyzeImage(context.Background(), []byte{1}, 300)
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if len(ingredients) != 2 {
		t.Fatalf("got %d ingredients, want 2", len(ingredients))
	}
	if ingredients[0].Name != "banana" || ingredients[1].Name != "rice" {
		t.Fatalf("unexpected names: %s, %s", ingredients[0].Name, ingredients[1].Name)
	}
	if ingredients[0].Percentage != 50 || ingredients[0].Weight != 150 {
		t.Fatalf("unexpected split: %+v", ingredients[0])
	}
}

// WHAT: a classifier slower than the configured window yields
// ErrClassificationTimeout, and the in-flight call keeps an uncancelled
// context.
// WHY: expiry means the result is discarded, not that the attempt is
// aborted; a retry must not race a forcibly killed predecessor.
func TestAnalyzeImageTimeout(t *testing.T) {
	fc := &fakeClassifier{
		preds: []foodmatch.Prediction{{Label: "apple", Confidence: 0.9}},
		delay: 300 * time.Millisecond,
	}
	s := newTestService(t, Config{ClassifyTimeout: 20 * time.Millisecond}, WithClassifier(fc))

	_, err := s.AnalyzeImage(context.Background(), []byte{1}, 200)
	if !errors.Is(err, ErrClassificationTimeout) {
		t.Fatalf("err = %v, want ErrClassificationTimeout", err)
	}
	if ctx := fc.calledCtx(); ctx == nil || ctx.Err() != nil {
		t.Fatalf("classifier context should stay live after the deadline, got %v", ctx)
	}
}

// WHAT: classifier failures surface as ErrClassificationFailed with the
// cause attached.
func TestAnalyzeImageClassifierError(t *testing.T) {
	fc := &fakeClassifier{err: errors.New("model not loaded")}
	s := newTestService(t, Config{}, WithClassifier(fc))

	_, err := s.AnalyzeImage(context.Background(), []byte{1}, 200)
	if !errors.Is(err, ErrClassificationFailed) {
		t.Fatalf("err = %v, want ErrClassificationFailed", err)
	}
}

// WHAT: Startup returns the stored meals and settings when storage answers
// in time.
func TestStartupLoadsStoredData(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	s := newTestService(t, Config{},
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { return "m1" }))

	if err := s.SaveMeal(context.Background(), appleMeal(0)); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}
	custom := meal.DefaultSettings()
	custom.DailyCalories = 1800
	if err := s.SaveSettings(context.Background(), custom); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	meals, settings := s.Startup(context.Background())
	if len(meals) != 1 {
		t.Fatalf("got %d meals, want 1", len(meals))
	}
	if settings.DailyCalories != 1800 {
		t.Fatalf("DailyCalories = %v, want 1800", settings.DailyCalories)
	}
}

// appleMeal builds a valid single-ingredient meal. Timestamp 0 lets the
// service stamp it.
func appleMeal(ts int64) *meal.Meal {
	return &meal.Meal{
		Timestamp:   ts,
		TotalWeight: 100,
		Ingredients: []meal.Ingredient{{
			ID:         "1",
			Name:       "apple",
			Percentage: 100,
			Weight:     100,
			Nutrition:  nutrition.Data{Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2},
		}},
	}
}

// WHAT: SaveMeal stamps id and timestamp when absent and re-derives the meal
// total from its ingredients.
// WHY: callers hand over drafts; identity and the aggregate are the
// engine's responsibility, not theirs.
func TestSaveMealStampsAndAggregates(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	s := newTestService(t, Config{},
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string { return "fixed-id" }))

	m := appleMeal(0)
	m.Nutrition = nutrition.Data{Calories: 9999} // stale, must be replaced
	if err := s.SaveMeal(context.Background(), m); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}
	if m.ID != "fixed-id" {
		t.Fatalf("ID = %q, want fixed-id", m.ID)
	}
	if m.Timestamp != now.UnixMilli() {
		t.Fatalf("Timestamp = %d, want %d", m.Timestamp, now.UnixMilli())
	}
	if m.Nutrition.Calories != 52 {
		t.Fatalf("Calories = %v, want re-derived 52", m.Nutrition.Calories)
	}

	meals, err := s.Meals(context.Background())
	if err != nil {
		t.Fatalf("Meals: %v", err)
	}
	if len(meals) != 1 || meals[0].ID != "fixed-id" {
		t.Fatalf("stored meals = %+v", meals)
	}
}

// WHAT: SaveMeal refuses ingredient sets whose percentages do not sum to
// 100 within tolerance, and nothing is stored.
func TestSaveMealRejectsBadPercentages(t *testing.T) {
	s := newTestService(t, Config{})

	m := appleMeal(0)
	m.Ingredients[0].Percentage = 80
	err := s.SaveMeal(context.Background(), m)
	if !errors.Is(err, meal.ErrInvalidPercentages) {
		t.Fatalf("err = %v, want ErrInvalidPercentages", err)
	}

	meals, err := s.Meals(context.Background())
	if err != nil {
		t.Fatalf("Meals: %v", err)
	}
	if len(meals) != 0 {
		t.Fatalf("store should be empty, got %d meals", len(meals))
	}
}

// WHAT: UpdateMeal overwrites an existing record and refuses ids that were
// never saved.
func TestUpdateMeal(t *testing.T) {
	s := newTestService(t, Config{}, WithIDGenerator(func() string { return "m1" }))

	if err := s.SaveMeal(context.Background(), appleMeal(1000)); err != nil {
		t.Fatalf("SaveMeal: %v", err)
	}

	updated := appleMeal(1000)
	updated.ID = "m1"
	updated.Notes = "second helping"
	if err := s.UpdateMeal(context.Background(), updated); err != nil {
		t.Fatalf("UpdateMeal: %v", err)
	}

	meals, err := s.Meals(context.Background())
	if err != nil {
		t.Fatalf("Meals: %v", err)
	}
	if len(meals) != 1 || meals[0].Notes != "second helping" {
		t.Fatalf("stored meals = %+v", meals)
	}

	ghost := appleMeal(1000)
	ghost.ID = "never-saved"
	if err := s.UpdateMeal(context.Background(), ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	blank := appleMeal(1000)
	if err := s.UpdateMeal(context.Background(), blank); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err for empty id = %v, want ErrNotFound", err)
	}
}

// WHAT: TodayNutrition sums only meals whose timestamp falls on the current
// local day.
// WHY: the dashboard number resets at local midnight, not on a rolling 24h
// window.
func TestTodayNutrition(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	ids := []string{"a", "b", "c"}
	s := newTestService(t, Config{},
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}))

	ctx := context.Background()
	for _, ts := range []int64{
		now.Add(-2 * time.Hour).UnixMilli(),
		now.Add(-1 * time.Hour).UnixMilli(),
		now.Add(-24 * time.Hour).UnixMilli(), // yesterday, excluded
	} {
		if err := s.SaveMeal(ctx, appleMeal(ts)); err != nil {
			t.Fatalf("SaveMeal: %v", err)
		}
	}

	total, err := s.TodayNutrition(ctx)
	if err != nil {
		t.Fatalf("TodayNutrition: %v", err)
	}
	want := nutrition.Data{Calories: 104, Protein: 0.6, Carbs: 28, Fat: 0.4}
	if total != want {
		t.Fatalf("total = %+v, want %+v", total, want)
	}
}

// WHAT: editing one percentage through the service leaves the others alone,
// so the set can become invalid, and removal restores an equal split.
func TestEditAndRemoveThroughService(t *testing.T) {
	s := newTestService(t, Config{})
	ctx := context.Background()

	ingredients, err := s.Compose(ctx, []foodmatch.Prediction{
		{Label: "apple", Confidence: 0.9},
		{Label: "rice", Confidence: 0.8},
	}, 200)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	edited, err := s.EditPercentage(ctx, ingredients, ingredients[0].ID, 80, 200)
	if err != nil {
		t.Fatalf("EditPercentage: %v", err)
	}
	if edited[0].Percentage != 80 || edited[1].Percentage != 50 {
		t.Fatalf("percentages = %v, %v; want 80, 50", edited[0].Percentage, edited[1].Percentage)
	}
	if meal.ValidatePercentages(edited) {
		t.Fatal("130 percent total should not validate")
	}

	remaining, err := s.RemoveIngredient(ctx, edited, edited[0].ID, 200)
	if err != nil {
		t.Fatalf("RemoveIngredient: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Percentage != 100 {
		t.Fatalf("remaining = %+v", remaining)
	}
	if !meal.ValidatePercentages(remaining) {
		t.Fatal("single remaining ingredient should validate")
	}
}
