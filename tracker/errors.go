package tracker

import "errors"

// ErrClassificationTimeout is returned when the classifier does not answer
// within the configured window. The attempt is not retried automatically;
// the user must re-trigger.
var ErrClassificationTimeout = errors.New("tracker: image classification timed out")

// ErrClassificationFailed is returned when the classifier reports an error.
var ErrClassificationFailed = errors.New("tracker: image classification failed")

// ErrNoClassifier is returned from AnalyzeImage when the service was built
// without a classifier collaborator.
var ErrNoClassifier = errors.New("tracker: no classifier configured")

// ErrNotFound is returned by UpdateMeal for an id that was never saved.
var ErrNotFound = errors.New("tracker: meal not found")
