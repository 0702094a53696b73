package meal

import "errors"

// ErrInvalidMeal is returned when a meal record fails structural validation.
var ErrInvalidMeal = errors.New("meal: invalid meal record")

// ErrInvalidSettings is returned when a settings record fails validation.
var ErrInvalidSettings = errors.New("meal: invalid settings record")

// ErrInvalidPercentages is returned when ingredient percentages do not sum
// to 100 within tolerance.
var ErrInvalidPercentages = errors.New("meal: ingredient percentages do not sum to 100")
