package mealstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platewise/platewise/meal"
)

// SaveMeal upserts a meal by id (full overwrite, last-write-wins). The meal
// is validated first; structurally invalid records are rejected with
// meal.ErrInvalidMeal and never reach the database.
func (s *Store) SaveMeal(ctx context.Context, m *meal.Meal) error {
	if !meal.ValidateMeal(m) {
		return fmt.Errorf("%w: refusing to persist", meal.ErrInvalidMeal)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Code: CodeSaveFailed, Op: "save_meal", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meals (id, timestamp, photo, total_weight, calories, protein, carbs, fat, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp=excluded.timestamp, photo=excluded.photo,
			total_weight=excluded.total_weight, calories=excluded.calories,
			protein=excluded.protein, carbs=excluded.carbs, fat=excluded.fat,
			notes=excluded.notes`,
		m.ID, m.Timestamp, m.Photo, m.TotalWeight,
		m.Nutrition.Calories, m.Nutrition.Protein, m.Nutrition.Carbs, m.Nutrition.Fat,
		m.Notes)
	if err != nil {
		return &StoreError{Code: CodeSaveFailed, Op: "save_meal", Err: err}
	}

	// Full overwrite: the stored ingredient set is replaced wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE meal_id = ?`, m.ID); err != nil {
		return &StoreError{Code: CodeSaveFailed, Op: "save_meal", Err: err}
	}
	for i, ing := range m.Ingredients {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ingredients (meal_id, position, ingredient_id, name, percentage, weight, calories, protein, carbs, fat)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, i, ing.ID, ing.Name, ing.Percentage, ing.Weight,
			ing.Nutrition.Calories, ing.Nutrition.Protein, ing.Nutrition.Carbs, ing.Nutrition.Fat)
		if err != nil {
			return &StoreError{Code: CodeSaveFailed, Op: "save_meal", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Code: CodeSaveFailed, Op: "save_meal", Err: err}
	}
	return nil
}

// Meals returns all stored meals, most recent first (ties broken by id for
// stable output). Rows that fail structural validation are filtered out and
// logged rather than surfaced — a corrupt record must not break history.
func (s *Store) Meals(ctx context.Context) ([]*meal.Meal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, photo, total_weight, calories, protein, carbs, fat, notes
		FROM meals ORDER BY timestamp DESC, id`)
	if err != nil {
		return nil, &StoreError{Code: CodeLoadFailed, Op: "load_meals", Err: err}
	}
	defer rows.Close()

	var meals []*meal.Meal
	for rows.Next() {
		m := &meal.Meal{}
		if err := rows.Scan(&m.ID, &m.Timestamp, &m.Photo, &m.TotalWeight,
			&m.Nutrition.Calories, &m.Nutrition.Protein, &m.Nutrition.Carbs, &m.Nutrition.Fat,
			&m.Notes); err != nil {
			return nil, &StoreError{Code: CodeLoadFailed, Op: "load_meals", Err: err}
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Code: CodeLoadFailed, Op: "load_meals", Err: err}
	}

	valid := meals[:0]
	for _, m := range meals {
		if err := s.loadIngredients(ctx, m); err != nil {
			return nil, err
		}
		if !meal.ValidateMeal(m) {
			s.logger.Warn("dropping invalid meal record", "meal_id", m.ID, "timestamp", m.Timestamp)
			continue
		}
		valid = append(valid, m)
	}
	return valid, nil
}

func (s *Store) loadIngredients(ctx context.Context, m *meal.Meal) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ingredient_id, name, percentage, weight, calories, protein, carbs, fat
		FROM ingredients WHERE meal_id = ? ORDER BY position`, m.ID)
	if err != nil {
		return &StoreError{Code: CodeLoadFailed, Op: "load_meals", Err: err}
	}
	defer rows.Close()

	ingredients := []meal.Ingredient{}
	for rows.Next() {
		var ing meal.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Percentage, &ing.Weight,
			&ing.Nutrition.Calories, &ing.Nutrition.Protein, &ing.Nutrition.Carbs, &ing.Nutrition.Fat); err != nil {
			return &StoreError{Code: CodeLoadFailed, Op: "load_meals", Err: err}
		}
		ingredients = append(ingredients, ing)
	}
	m.Ingredients = ingredients
	return rows.Err()
}

// HasMeal reports whether a meal with the given id is stored.
func (s *Store) HasMeal(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM meals WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &StoreError{Code: CodeLoadFailed, Op: "has_meal", Err: err}
	}
	return true, nil
}

// DeleteMeal removes a meal by id. Deleting a nonexistent id is a no-op.
func (s *Store) DeleteMeal(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meals WHERE id = ?`, id); err != nil {
		return &StoreError{Code: CodeDeleteFailed, Op: "delete_meal", Err: err}
	}
	return nil
}

// ClearAll empties both collections unconditionally.
func (s *Store) ClearAll(ctx context.Context) error {
	for _, q := range []string{
		`DELETE FROM ingredients`,
		`DELETE FROM meals`,
		`DELETE FROM settings`,
	} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return &StoreError{Code: CodeClearFailed, Op: "clear_all", Err: err}
		}
	}
	return nil
}
