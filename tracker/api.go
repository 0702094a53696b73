package tracker

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/platewise/platewise/foodmatch"
	"github.com/platewise/platewise/meal"
	"github.com/platewise/platewise/mealstore"
	"github.com/platewise/platewise/nutrition"
)

// Routes returns the HTTP API consumed by the UI layer. The UI runs image
// classification on its side and posts ranked labels; everything from label
// resolution onward happens here.
func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/compose", s.handleCompose)
	r.Post("/api/ingredients/weight", s.handleWeightChange)
	r.Post("/api/ingredients/percentage", s.handlePercentageEdit)
	r.Post("/api/ingredients/remove", s.handleRemove)

	r.Get("/api/meals", s.handleListMeals)
	r.Post("/api/meals", s.handleSaveMeal)
	r.Put("/api/meals/{id}", s.handleUpdateMeal)
	r.Delete("/api/meals/{id}", s.handleDeleteMeal)

	r.Get("/api/settings", s.handleGetSettings)
	r.Put("/api/settings", s.handleSaveSettings)

	r.Get("/api/nutrition/today", s.handleToday)
	r.Post("/api/clear", s.handleClear)

	return r
}

// ingredientSet is the editing-session payload shared by the compose and
// normalize endpoints. ValidPercentages tells the UI whether "proceed" may
// be enabled.
type ingredientSet struct {
	Ingredients      []meal.Ingredient `json:"ingredients"`
	Nutrition        nutrition.Data    `json:"nutrition"`
	ValidPercentages bool              `json:"valid_percentages"`
}

func newIngredientSet(ingredients []meal.Ingredient) ingredientSet {
	if ingredients == nil {
		ingredients = []meal.Ingredient{}
	}
	return ingredientSet{
		Ingredients:      ingredients,
		Nutrition:        meal.Aggregate(ingredients),
		ValidPercentages: meal.ValidatePercentages(ingredients),
	}
}

func (s *Service) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Predictions []foodmatch.Prediction `json:"predictions"`
		TotalWeight float64                `json:"total_weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ingredients, err := s.Compose(r.Context(), req.Predictions, req.TotalWeight)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	// An empty set is a legitimate outcome: no food recognized.
	writeJSON(w, http.StatusOK, newIngredientSet(ingredients))
}

func (s *Service) handleWeightChange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []meal.Ingredient `json:"ingredients"`
		TotalWeight float64           `json:"total_weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ingredients, err := s.SetTotalWeight(r.Context(), req.Ingredients, req.TotalWeight)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newIngredientSet(ingredients))
}

func (s *Service) handlePercentageEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []meal.Ingredient `json:"ingredients"`
		ID          string            `json:"id"`
		Percentage  float64           `json:"percentage"`
		TotalWeight float64           `json:"total_weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ingredients, err := s.EditPercentage(r.Context(), req.Ingredients, req.ID, req.Percentage, req.TotalWeight)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newIngredientSet(ingredients))
}

func (s *Service) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []meal.Ingredient `json:"ingredients"`
		ID          string            `json:"id"`
		TotalWeight float64           `json:"total_weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ingredients, err := s.RemoveIngredient(r.Context(), req.Ingredients, req.ID, req.TotalWeight)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, newIngredientSet(ingredients))
}

func (s *Service) handleListMeals(w http.ResponseWriter, r *http.Request) {
	meals, err := s.Meals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if meals == nil {
		meals = []*meal.Meal{}
	}
	writeJSON(w, http.StatusOK, meals)
}

func (s *Service) handleSaveMeal(w http.ResponseWriter, r *http.Request) {
	var m meal.Meal
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.SaveMeal(r.Context(), &m); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Service) handleUpdateMeal(w http.ResponseWriter, r *http.Request) {
	var m meal.Meal
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m.ID = chi.URLParam(r, "id")
	if err := s.UpdateMeal(r.Context(), &m); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Service) handleDeleteMeal(w http.ResponseWriter, r *http.Request) {
	s.DeleteMeal(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Service) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.Settings(r.Context())
	if err != nil {
		// Settings degrade rather than fail; err here means the store
		// itself broke, but the repaired defaults are still usable.
		s.logger.Error("settings load failed, serving defaults", "error", err)
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Service) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings meal.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.SaveSettings(r.Context(), settings); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Service) handleToday(w http.ResponseWriter, r *http.Request) {
	total, err := s.TodayNutrition(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

func (s *Service) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var serr *mealstore.StoreError
	switch {
	case errors.Is(err, meal.ErrInvalidMeal),
		errors.Is(err, meal.ErrInvalidSettings),
		errors.Is(err, meal.ErrInvalidPercentages):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &serr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
