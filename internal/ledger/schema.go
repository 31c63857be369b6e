package ledger

import (
	"database/sql"
	"errors"
	"fmt"
)

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("nil db")
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=3000;`); err != nil {
		return fmt.Errorf("pragma busy_timeout: %w", err)
	}
	return migrateSchema(db)
}

func migrateSchema(db *sql.DB) error {
	// Schema versions:
	// - v1: batches and runs
	const targetVersion = 1

	var v int
	if err := db.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return fmt.Errorf("pragma user_version: %w", err)
	}
	if v >= targetVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS batches (
  batch_id TEXT PRIMARY KEY,
  seed INTEGER NOT NULL,
  input_dir TEXT NOT NULL DEFAULT '',
  output_dir TEXT NOT NULL DEFAULT '',
  planned_runs INTEGER NOT NULL DEFAULT 0,
  started_unix_ms INTEGER NOT NULL,
  finished_unix_ms INTEGER NOT NULL DEFAULT 0,
  passed INTEGER NOT NULL DEFAULT 0,
  failed INTEGER NOT NULL DEFAULT 0,
  canceled INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		return fmt.Errorf("create batches: %w", err)
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  batch_id TEXT NOT NULL REFERENCES batches(batch_id),
  run_index INTEGER NOT NULL,
  kind TEXT NOT NULL,
  assets TEXT NOT NULL,
  shapes TEXT NOT NULL,
  composite_id INTEGER NOT NULL,
  seed INTEGER NOT NULL,
  steps INTEGER NOT NULL,
  output_path TEXT NOT NULL,
  status TEXT NOT NULL,
  error_kind TEXT NOT NULL DEFAULT '',
  error TEXT NOT NULL DEFAULT '',
  fail_step INTEGER NOT NULL DEFAULT -1,
  opt_shapes TEXT NOT NULL DEFAULT '',
  opt_alpha INTEGER NOT NULL DEFAULT 0,
  opt_candidates INTEGER NOT NULL DEFAULT 0,
  opt_mutations INTEGER NOT NULL DEFAULT 0,
  opt_seed INTEGER NOT NULL DEFAULT 0,
  opt_workers INTEGER NOT NULL DEFAULT 0,
  results INTEGER NOT NULL DEFAULT 0,
  min_score REAL NOT NULL DEFAULT 0,
  max_score REAL NOT NULL DEFAULT 0,
  bytes INTEGER NOT NULL DEFAULT 0,
  started_unix_ms INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL,
  PRIMARY KEY (batch_id, run_index)
);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(batch_id, status);
`); err != nil {
		return fmt.Errorf("create runs: %w", err)
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version=%d;`, targetVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}
