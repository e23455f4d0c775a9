package seqstore

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// migrate creates the store schema in-place. The name index on sequences is
// deliberately absent here: it is created by BuildNameIndex after ingest so
// bulk inserts run unindexed.
func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seqstore: begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			schema_version INTEGER NOT NULL
		);`,
		`INSERT INTO schema_meta (id, schema_version)
			VALUES (1, ` + fmt.Sprint(schemaVersion) + `)
			ON CONFLICT(id) DO NOTHING;`,

		`CREATE TABLE IF NOT EXISTS sequences (
			seq_name TEXT NOT NULL,
			seq_end  TEXT NOT NULL,
			seq      TEXT NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS shard_assignments (
			seq_name    TEXT PRIMARY KEY,
			shard_index INTEGER NOT NULL
		) WITHOUT ROWID;`,
		`CREATE INDEX IF NOT EXISTS shard_assignments_shard_idx
			ON shard_assignments (shard_index);`,

		`CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seqstore: exec schema statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seqstore: commit schema tx: %w", err)
	}
	return nil
}
