// Package tracker wires the meal-composition pipeline together: classifier
// output flows through the food matcher into the composer, editing passes
// through the normalizer, and validated records land in the meal store. The
// Service owns the lazily-initialized reference table and the open store
// handle, so tests get isolation by constructing fresh services.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/platewise/platewise/foodmatch"
	"github.com/platewise/platewise/meal"
	"github.com/platewise/platewise/mealstore"
	"github.com/platewise/platewise/nutrition"
)

// Classifier is the opaque image-classification collaborator: image bytes in,
// ranked label/confidence pairs out. The core never inspects model internals.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]foodmatch.Prediction, error)
}

// Service is the nutrition-tracking engine.
type Service struct {
	cfg    Config
	store  *mealstore.Store
	ref    *nutrition.Store
	class  Classifier
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// ServiceOption customises New.
type ServiceOption func(*Service)

// WithClassifier attaches the image-classification collaborator.
func WithClassifier(c Classifier) ServiceOption { return func(s *Service) { s.class = c } }

// WithLogger sets the service logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ServiceOption { return func(s *Service) { s.logger = l } }

// WithIDGenerator overrides meal id generation (tests pin deterministic ids).
func WithIDGenerator(gen func() string) ServiceOption { return func(s *Service) { s.newID = gen } }

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }

// New builds a Service on an open store. Nothing is fetched until first use.
func New(cfg Config, store *mealstore.Store, opts ...ServiceOption) *Service {
	cfg.defaults()
	s := &Service{
		cfg:    cfg,
		store:  store,
		logger: slog.Default(),
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.ref = nutrition.NewStore(nutrition.StoreConfig{
		URL:     cfg.ReferenceURL,
		Timeout: cfg.ReferenceTimeout,
	}, s.logger)
	return s
}

// Reference returns the cached nutrition reference table, loading it on
// first use (with fallback on failure — see nutrition.Store).
func (s *Service) Reference(ctx context.Context) (nutrition.Table, error) {
	return s.ref.Load(ctx)
}

// Startup loads stored meals and settings, bounded by the configured startup
// timeout: if storage has not answered by then, it proceeds with empty meals
// and default settings rather than hanging. The underlying load is
// disregarded, not cancelled — a late result does not re-trigger anything.
func (s *Service) Startup(ctx context.Context) ([]*meal.Meal, meal.Settings) {
	type loaded struct {
		meals    []*meal.Meal
		settings meal.Settings
	}
	ch := make(chan loaded, 1)
	go func() {
		bg := context.WithoutCancel(ctx)
		meals, err := s.store.Meals(bg)
		if err != nil {
			s.logger.Warn("startup meal load failed, starting empty", "error", err)
			meals = nil
		}
		settings, err := s.store.Settings(bg)
		if err != nil {
			s.logger.Warn("startup settings load failed, using defaults", "error", err)
			settings = meal.DefaultSettings()
		}
		ch <- loaded{meals, settings}
	}()

	timer := time.NewTimer(s.cfg.StartupTimeout)
	defer timer.Stop()
	select {
	case d := <-ch:
		return d.meals, d.settings
	case <-timer.C:
		s.logger.Warn("startup data load timed out, using defaults",
			"timeout", s.cfg.StartupTimeout)
		return nil, meal.DefaultSettings()
	case <-ctx.Done():
		return nil, meal.DefaultSettings()
	}
}

// AnalyzeImage classifies an image and composes the initial ingredient set.
// The classification attempt is bounded by the configured timeout; on expiry
// the in-flight call is not forcibly aborted — its eventual result is simply
// discarded. An empty result means no food was recognized, which is an
// outcome for the caller to branch on, not an error.
func (s *Service) AnalyzeImage(ctx context.Context, image []byte, totalWeight float64) ([]meal.Ingredient, error) {
	if s.class == nil {
		return nil, ErrNoClassifier
	}

	type result struct {
		preds []foodmatch.Prediction
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		preds, err := s.class.Classify(context.WithoutCancel(ctx), image)
		ch <- result{preds, err}
	}()

	timer := time.NewTimer(s.cfg.ClassifyTimeout)
	defer timer.Stop()
	var preds []foodmatch.Prediction
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, r.err)
		}
		preds = r.preds
	case <-timer.C:
		return nil, ErrClassificationTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return s.Compose(ctx, preds, totalWeight)
}

// Compose resolves raw predictions to canonical foods and builds the equally
// distributed ingredient set. Exposed separately for callers that run the
// classifier themselves (the UI runs the model in-browser and posts labels).
func (s *Service) Compose(ctx context.Context, preds []foodmatch.Prediction, totalWeight float64) ([]meal.Ingredient, error) {
	table, err := s.ref.Load(ctx)
	if err != nil {
		return nil, err
	}
	return meal.Compose(table, foodmatch.Classify(preds), totalWeight), nil
}

// SetTotalWeight rescales every ingredient against the new total weight,
// preserving percentages.
func (s *Service) SetTotalWeight(ctx context.Context, ingredients []meal.Ingredient, totalWeight float64) ([]meal.Ingredient, error) {
	table, err := s.ref.Load(ctx)
	if err != nil {
		return nil, err
	}
	return meal.Recompute(table, ingredients, totalWeight), nil
}

// EditPercentage overwrites one ingredient's percentage. The rest are left
// alone; callers gate progress on meal.ValidatePercentages.
func (s *Service) EditPercentage(ctx context.Context, ingredients []meal.Ingredient, id string, percentage, totalWeight float64) ([]meal.Ingredient, error) {
	table, err := s.ref.Load(ctx)
	if err != nil {
		return nil, err
	}
	return meal.SetPercentage(table, ingredients, id, percentage, totalWeight), nil
}

// RemoveIngredient drops one ingredient and redistributes equal shares.
func (s *Service) RemoveIngredient(ctx context.Context, ingredients []meal.Ingredient, id string, totalWeight float64) ([]meal.Ingredient, error) {
	table, err := s.ref.Load(ctx)
	if err != nil {
		return nil, err
	}
	return meal.Remove(table, ingredients, id, totalWeight), nil
}

// SaveMeal persists a new meal. Missing id and timestamp are filled in, the
// meal total is re-derived from its ingredients, and the percentage-sum
// invariant is enforced before the record crosses into the store.
func (s *Service) SaveMeal(ctx context.Context, m *meal.Meal) error {
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.Timestamp == 0 {
		m.Timestamp = s.now().UnixMilli()
	}
	if !meal.ValidatePercentages(m.Ingredients) {
		return fmt.Errorf("%w: sum must be 100 within %.1f", meal.ErrInvalidPercentages, meal.PercentageEpsilon)
	}
	m.Nutrition = meal.Aggregate(m.Ingredients)
	return s.store.SaveMeal(ctx, m)
}

// UpdateMeal overwrites a previously saved meal through the same validation
// gate as SaveMeal. The id must already exist.
func (s *Service) UpdateMeal(ctx context.Context, m *meal.Meal) error {
	if m.ID == "" {
		return ErrNotFound
	}
	exists, err := s.store.HasMeal(ctx, m.ID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, m.ID)
	}
	if !meal.ValidatePercentages(m.Ingredients) {
		return fmt.Errorf("%w: sum must be 100 within %.1f", meal.ErrInvalidPercentages, meal.PercentageEpsilon)
	}
	m.Nutrition = meal.Aggregate(m.Ingredients)
	return s.store.SaveMeal(ctx, m)
}

// Meals returns stored meals, most recent first.
func (s *Service) Meals(ctx context.Context) ([]*meal.Meal, error) {
	return s.store.Meals(ctx)
}

// DeleteMeal removes a meal by id. Deletion is best-effort from the UI's
// point of view: failures are logged, not propagated.
func (s *Service) DeleteMeal(ctx context.Context, id string) {
	if err := s.store.DeleteMeal(ctx, id); err != nil {
		s.logger.Error("delete meal failed", "meal_id", id, "error", err)
	}
}

// Settings returns the stored settings, repaired field by field.
func (s *Service) Settings(ctx context.Context) (meal.Settings, error) {
	return s.store.Settings(ctx)
}

// SaveSettings overwrites the singleton settings record.
func (s *Service) SaveSettings(ctx context.Context, settings meal.Settings) error {
	return s.store.SaveSettings(ctx, settings)
}

// ClearAll wipes all stored meals and settings.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

// TodayNutrition sums the totals of meals logged on the current local day.
func (s *Service) TodayNutrition(ctx context.Context) (nutrition.Data, error) {
	meals, err := s.store.Meals(ctx)
	if err != nil {
		return nutrition.Data{}, err
	}
	y, m, d := s.now().Date()
	var todays []nutrition.Data
	for _, rec := range meals {
		ts := time.UnixMilli(rec.Timestamp)
		ry, rm, rd := ts.Date()
		if ry == y && rm == m && rd == d {
			todays = append(todays, rec.Nutrition)
		}
	}
	return nutrition.Sum(todays), nil
}
