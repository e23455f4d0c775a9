// Package seqstore implements the durable sequence store backing a bank:
// a SQLite table keyed by normalized (name, end marker), built once by
// sequential batched ingest and read-only afterward.
package seqstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/targetasm/readbank/internal/seqio"
)

const driverName = "sqlite"

// ErrReadOnly is returned for sequence writes after the name index is built.
var ErrReadOnly = errors.New("seqstore: store is read-only once the name index is built")

// ErrNotFound is returned when a lookup matches no stored rows.
var ErrNotFound = errors.New("seqstore: name not found")

// KeyRange is a half-open span of names: Lower inclusive, Upper exclusive.
// An empty Upper means the span is unbounded above.
type KeyRange struct {
	Lower string
	Upper string
}

// Store is a SQLite-backed sequence table. A Store is safe for concurrent
// readers once BuildNameIndex has returned; the insert path is single-writer.
type Store struct {
	db       *sql.DB
	path     string
	readOnly atomic.Bool
}

// Create creates a fresh store at path, replacing any previous store file.
func Create(ctx context.Context, path string) (*Store, error) {
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("seqstore: removing stale %s: %w", path+suffix, err)
		}
	}

	s, err := open(ctx, path)
	if err != nil {
		return nil, err
	}

	// Bulk-load settings. Durability is re-established by the manifest at
	// the end of a successful build; a crashed build is restarted whole.
	var mode string
	if err := s.db.QueryRowContext(ctx, `PRAGMA journal_mode=OFF`).Scan(&mode); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("seqstore: disabling journal: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `PRAGMA synchronous=OFF`); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("seqstore: relaxing synchronous mode: %w", err)
	}

	if err := migrate(ctx, s.db); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

// Open opens an existing store for reading. Sequence writes are rejected.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("seqstore: opening %s: %w", path, err)
	}
	s, err := open(ctx, path)
	if err != nil {
		return nil, err
	}
	s.readOnly.Store(true)
	s.db.SetMaxOpenConns(0)
	return s, nil
}

func open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(driverName, "file:"+filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("seqstore: opening %s: %w", path, err)
	}

	// Single connection during the write phase; the pool is widened for
	// concurrent readers once the name index is built.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("seqstore: pinging %s: %w", path, err)
	}

	var busyTimeout int
	if err := db.QueryRowContext(ctx, `PRAGMA busy_timeout=5000`).Scan(&busyTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("seqstore: setting busy timeout: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertBatch appends records inside one transaction. Callers bound the
// batch size to cap peak memory; the store imposes no limit of its own.
// Duplicate (name, end) pairs are tolerated here and resolved by
// BuildNameIndex, last insert winning.
func (s *Store) InsertBatch(ctx context.Context, recs []seqio.Record) error {
	if s.readOnly.Load() {
		return ErrReadOnly
	}
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seqstore: begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sequences (seq_name, seq_end, seq) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("seqstore: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.Name, string(rec.End), rec.Seq); err != nil {
			return fmt.Errorf("seqstore: insert %q: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seqstore: commit insert tx: %w", err)
	}
	return nil
}

// BuildNameIndex finalizes ingest: duplicate (name, end) pairs are collapsed
// keeping the latest insert, and the unique name index is created. The store
// becomes read-only for sequence rows and safe for concurrent readers.
// Calling it again on a finalized store is a no-op.
func (s *Store) BuildNameIndex(ctx context.Context) error {
	if s.readOnly.Load() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seqstore: begin index tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sequences WHERE rowid NOT IN (
			SELECT MAX(rowid) FROM sequences GROUP BY seq_name, seq_end
		)`); err != nil {
		return fmt.Errorf("seqstore: deduplicating sequences: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS sequences_name_idx
			ON sequences (seq_name, seq_end)`); err != nil {
		return fmt.Errorf("seqstore: creating name index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seqstore: commit index tx: %w", err)
	}

	s.readOnly.Store(true)
	s.db.SetMaxOpenConns(0)
	return nil
}

// Count returns the number of stored sequence records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sequences`).Scan(&n); err != nil {
		return 0, fmt.Errorf("seqstore: counting sequences: %w", err)
	}
	return n, nil
}

// KeyAtRank returns the name at the given 0-based rank in sorted name order.
// Duplicate names occupy adjacent ranks, one per stored record.
func (s *Store) KeyAtRank(ctx context.Context, rank int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT seq_name FROM sequences ORDER BY seq_name LIMIT 1 OFFSET ?`, rank).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("seqstore: no name at rank %d: %w", rank, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("seqstore: name at rank %d: %w", rank, err)
	}
	return name, nil
}

// ScanRange streams the records whose names fall in kr, ordered by
// (name, end marker) so repeated scans yield identical output.
func (s *Store) ScanRange(ctx context.Context, kr KeyRange, fn func(seqio.Record) error) error {
	query := `SELECT seq_name, seq_end, seq FROM sequences WHERE seq_name >= ?`
	args := []any{kr.Lower}
	if kr.Upper != "" {
		query += ` AND seq_name < ?`
		args = append(args, kr.Upper)
	}
	query += ` ORDER BY seq_name, seq_end`
	return s.scan(ctx, query, args, fn)
}

// ScanShard streams the records assigned to the given shard index, ordered
// by (name, end marker). Assignments must have been persisted first.
func (s *Store) ScanShard(ctx context.Context, shardIndex int, fn func(seqio.Record) error) error {
	query := `SELECT s.seq_name, s.seq_end, s.seq
		FROM sequences s
		JOIN shard_assignments a ON s.seq_name = a.seq_name
		WHERE a.shard_index = ?
		ORDER BY s.seq_name, s.seq_end`
	return s.scan(ctx, query, []any{shardIndex}, fn)
}

func (s *Store) scan(ctx context.Context, query string, args []any, fn func(seqio.Record) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("seqstore: querying sequences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec seqio.Record
			end string
		)
		if err := rows.Scan(&rec.Name, &end, &rec.Seq); err != nil {
			return fmt.Errorf("seqstore: scanning sequence row: %w", err)
		}
		rec.End = seqio.End(end)
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("seqstore: iterating sequences: %w", err)
	}
	return nil
}

// assignBatchSize bounds how many names are read and written per round
// while persisting shard assignments.
const assignBatchSize = 10000

// AssignShards streams every distinct name through assign, in sorted order,
// and persists the resulting name-to-shard mapping. A previous assignment is
// replaced. Shard assignments are partition metadata: they may be written
// after BuildNameIndex, which freezes sequence rows only.
func (s *Store) AssignShards(ctx context.Context, assign func(name string) int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shard_assignments`); err != nil {
		return fmt.Errorf("seqstore: clearing shard assignments: %w", err)
	}

	after := ""
	first := true
	for {
		names, err := s.distinctNames(ctx, after, first)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}

		if err := s.writeAssignments(ctx, names, assign); err != nil {
			return err
		}

		after = names[len(names)-1]
		first = false
		if len(names) < assignBatchSize {
			return nil
		}
	}
}

func (s *Store) distinctNames(ctx context.Context, after string, first bool) ([]string, error) {
	query := `SELECT DISTINCT seq_name FROM sequences`
	args := []any{}
	if !first {
		query += ` WHERE seq_name > ?`
		args = append(args, after)
	}
	query += ` ORDER BY seq_name LIMIT ?`
	args = append(args, assignBatchSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("seqstore: querying distinct names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, assignBatchSize)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("seqstore: scanning name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("seqstore: iterating names: %w", err)
	}
	return names, nil
}

func (s *Store) writeAssignments(ctx context.Context, names []string, assign func(string) int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seqstore: begin assignment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO shard_assignments (seq_name, shard_index) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("seqstore: prepare assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.ExecContext(ctx, name, assign(name)); err != nil {
			return fmt.Errorf("seqstore: assigning %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seqstore: commit assignment tx: %w", err)
	}
	return nil
}

// LookupName returns every record stored under name, ordered by end marker.
// Returns ErrNotFound when the name is absent.
func (s *Store) LookupName(ctx context.Context, name string) ([]seqio.Record, error) {
	var recs []seqio.Record
	err := s.scan(ctx,
		`SELECT seq_name, seq_end, seq FROM sequences WHERE seq_name = ? ORDER BY seq_end`,
		[]any{name},
		func(rec seqio.Record) error {
			recs = append(recs, rec)
			return nil
		})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("seqstore: %q: %w", name, ErrNotFound)
	}
	return recs, nil
}

// PutMeta records a provenance key/value pair. Metadata is not frozen by
// BuildNameIndex; the build finalizes it after the sequence phase.
func (s *Store) PutMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("seqstore: writing metadata %q: %w", key, err)
	}
	return nil
}

// GetMeta returns the value recorded for key, or ErrNotFound.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("seqstore: metadata %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("seqstore: reading metadata %q: %w", key, err)
	}
	return value, nil
}
