package mealstore

import "fmt"

// Stable error codes carried by StoreError. Callers branch on these rather
// than on message text.
const (
	CodeOpenFailed   = "store_open_failed"
	CodeSchemaFailed = "store_schema_failed"
	CodeSaveFailed   = "store_save_failed"
	CodeLoadFailed   = "store_load_failed"
	CodeDeleteFailed = "store_delete_failed"
	CodeClearFailed  = "store_clear_failed"
)

// StoreError is a typed persistence failure: a stable machine-readable code,
// the operation that produced it, and the underlying cause. Explicit save
// calls propagate these to the caller — the user asked for durability, so a
// failure must not be swallowed.
type StoreError struct {
	Code string
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("mealstore: %s (%s): %v", e.Op, e.Code, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
