package mealstore

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current PRAGMA user_version. Bump it together with an
// appended migration; migrate upgrades older databases in order on open.
const SchemaVersion = 2

// migrations[n] upgrades a database from user_version n to n+1.
var migrations = []string{
	// v0 -> v1: initial schema.
	`
CREATE TABLE IF NOT EXISTS meals (
    id           TEXT PRIMARY KEY,
    timestamp    INTEGER NOT NULL,
    photo        TEXT NOT NULL DEFAULT '',
    total_weight REAL NOT NULL DEFAULT 0,
    calories     REAL NOT NULL DEFAULT 0,
    protein      REAL NOT NULL DEFAULT 0,
    carbs        REAL NOT NULL DEFAULT 0,
    fat          REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_meals_timestamp ON meals(timestamp DESC);

CREATE TABLE IF NOT EXISTS ingredients (
    meal_id       TEXT NOT NULL REFERENCES meals(id) ON DELETE CASCADE,
    position      INTEGER NOT NULL,
    ingredient_id TEXT NOT NULL,
    name          TEXT NOT NULL,
    percentage    REAL NOT NULL DEFAULT 0,
    weight        INTEGER NOT NULL DEFAULT 0,
    calories      REAL NOT NULL DEFAULT 0,
    protein       REAL NOT NULL DEFAULT 0,
    carbs         REAL NOT NULL DEFAULT 0,
    fat           REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (meal_id, position)
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`,
	// v1 -> v2: free-form notes on meals.
	`ALTER TABLE meals ADD COLUMN notes TEXT NOT NULL DEFAULT '';`,
}

// migrate brings the database up to SchemaVersion. Already-current databases
// pass straight through; databases written by a newer build are refused
// rather than guessed at.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return &StoreError{Code: CodeSchemaFailed, Op: "migrate", Err: err}
	}
	if version > SchemaVersion {
		return &StoreError{Code: CodeSchemaFailed, Op: "migrate",
			Err: fmt.Errorf("database version %d is newer than supported %d", version, SchemaVersion)}
	}

	for ; version < SchemaVersion; version++ {
		if _, err := db.Exec(migrations[version]); err != nil {
			return &StoreError{Code: CodeSchemaFailed, Op: "migrate",
				Err: fmt.Errorf("upgrade to v%d: %w", version+1, err)}
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version+1)); err != nil {
			return &StoreError{Code: CodeSchemaFailed, Op: "migrate",
				Err: fmt.Errorf("set user_version %d: %w", version+1, err)}
		}
	}
	return nil
}
