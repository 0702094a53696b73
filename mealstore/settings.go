package mealstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/platewise/platewise/meal"
)

// settingsKey is the fixed key of the singleton settings record.
const settingsKey = "user_settings"

// SaveSettings validates and overwrites the singleton settings record in
// full. Invalid settings are rejected with meal.ErrInvalidSettings.
func (s *Store) SaveSettings(ctx context.Context, settings meal.Settings) error {
	if !meal.ValidateSettings(&settings) {
		return fmt.Errorf("%w: refusing to persist", meal.ErrInvalidSettings)
	}

	value, err := json.Marshal(settings)
	if err != nil {
		return &StoreError{Code: CodeSaveFailed, Op: "save_settings", Err: err}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		settingsKey, string(value))
	if err != nil {
		return &StoreError{Code: CodeSaveFailed, Op: "save_settings", Err: err}
	}
	return nil
}

// Settings returns the stored settings, repairing the record field by field:
// any individually-missing or mistyped field takes its default instead of
// invalidating the whole record. No stored record yields all defaults. An
// incidental "key" field in old records is ignored by construction.
func (s *Store) Settings(ctx context.Context) (meal.Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return meal.DefaultSettings(), nil
	}
	if err != nil {
		return meal.DefaultSettings(), &StoreError{Code: CodeLoadFailed, Op: "load_settings", Err: err}
	}
	return s.repairSettings(raw), nil
}

func (s *Store) repairSettings(raw string) meal.Settings {
	def := meal.DefaultSettings()

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		s.logger.Warn("settings record unreadable, using defaults", "error", err)
		return def
	}

	out := def
	if v, ok := fields["dailyCalories"].(float64); ok {
		out.DailyCalories = v
	}
	if v, ok := fields["dailyProtein"].(float64); ok {
		out.DailyProtein = v
	}
	if v, ok := fields["dailyCarbs"].(float64); ok {
		out.DailyCarbs = v
	}
	if v, ok := fields["dailyFat"].(float64); ok {
		out.DailyFat = v
	}
	if v, ok := fields["units"].(string); ok && (v == meal.UnitsMetric || v == meal.UnitsImperial) {
		out.Units = v
	}
	if v, ok := fields["darkMode"].(bool); ok {
		out.DarkMode = v
	}
	return out
}
