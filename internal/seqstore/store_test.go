package seqstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/targetasm/readbank/internal/seqio"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Create(context.Background(), filepath.Join(t.TempDir(), "bank.sqlite.db"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ingest(t *testing.T, s *Store, recs ...seqio.Record) {
	t.Helper()
	if err := s.InsertBatch(context.Background(), recs); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	if err := s.BuildNameIndex(context.Background()); err != nil {
		t.Fatalf("BuildNameIndex() error = %v", err)
	}
}

func TestStore_CountAndRank(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// Two batches, out of name order.
	if err := s.InsertBatch(ctx, []seqio.Record{
		{Name: "seq3", Seq: "TTTT"},
		{Name: "seq1", Seq: "ACGT"},
	}); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	if err := s.InsertBatch(ctx, []seqio.Record{{Name: "seq2", Seq: "GGGG"}}); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	if err := s.BuildNameIndex(ctx); err != nil {
		t.Fatalf("BuildNameIndex() error = %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}

	for rank, want := range []string{"seq1", "seq2", "seq3"} {
		got, err := s.KeyAtRank(ctx, int64(rank))
		if err != nil {
			t.Fatalf("KeyAtRank(%d) error = %v", rank, err)
		}
		if got != want {
			t.Errorf("KeyAtRank(%d) = %q, want %q", rank, got, want)
		}
	}

	if _, err := s.KeyAtRank(ctx, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("KeyAtRank(3) error = %v, want ErrNotFound", err)
	}
}

func TestStore_DuplicateLastWriteWins(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ingest(t, s,
		seqio.Record{Name: "readA", End: seqio.End1, Seq: "OLD"},
		seqio.Record{Name: "readA", End: seqio.End2, Seq: "KEEP"},
		seqio.Record{Name: "readA", End: seqio.End1, Seq: "NEW"},
	)

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() after dedupe = %d, want 2", n)
	}

	recs, err := s.LookupName(ctx, "readA")
	if err != nil {
		t.Fatalf("LookupName() error = %v", err)
	}
	if len(recs) != 2 || recs[0].Seq != "NEW" || recs[1].Seq != "KEEP" {
		t.Errorf("LookupName() = %+v, want end 1 NEW then end 2 KEEP", recs)
	}
}

func TestStore_ReadOnlyAfterIndex(t *testing.T) {
	s := newStore(t)
	ingest(t, s, seqio.Record{Name: "seq1", Seq: "ACGT"})

	err := s.InsertBatch(context.Background(), []seqio.Record{{Name: "late", Seq: "ACGT"}})
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("InsertBatch() after index error = %v, want ErrReadOnly", err)
	}

	// A second index build is a no-op, not an error.
	if err := s.BuildNameIndex(context.Background()); err != nil {
		t.Errorf("BuildNameIndex() second call error = %v", err)
	}
}

func TestStore_ScanRange(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	ingest(t, s,
		seqio.Record{Name: "a", Seq: "AA"},
		seqio.Record{Name: "b", End: seqio.End2, Seq: "B2"},
		seqio.Record{Name: "b", End: seqio.End1, Seq: "B1"},
		seqio.Record{Name: "c", Seq: "CC"},
	)

	names := func(kr KeyRange) []string {
		var got []string
		if err := s.ScanRange(ctx, kr, func(rec seqio.Record) error {
			got = append(got, rec.Title())
			return nil
		}); err != nil {
			t.Fatalf("ScanRange(%+v) error = %v", kr, err)
		}
		return got
	}

	// Lower bound is inclusive, upper exclusive.
	got := names(KeyRange{Lower: "a", Upper: "c"})
	want := []string{"a", "b/1", "b/2"}
	if len(got) != len(want) {
		t.Fatalf("ScanRange() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ScanRange()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Empty upper bound scans to the end.
	if got := names(KeyRange{Lower: "c"}); len(got) != 1 || got[0] != "c" {
		t.Errorf("ScanRange(unbounded) = %v, want [c]", got)
	}

	// Range borders are exact names, not prefixes.
	if got := names(KeyRange{Lower: "b", Upper: "b"}); len(got) != 0 {
		t.Errorf("ScanRange(empty range) = %v, want none", got)
	}
}

func TestStore_AssignAndScanShard(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	ingest(t, s,
		seqio.Record{Name: "readA", End: seqio.End1, Seq: "A1"},
		seqio.Record{Name: "readA", End: seqio.End2, Seq: "A2"},
		seqio.Record{Name: "readB", Seq: "BB"},
	)

	assigned := map[string]int{"readA": 2, "readB": 1}
	if err := s.AssignShards(ctx, func(name string) int { return assigned[name] }); err != nil {
		t.Fatalf("AssignShards() error = %v", err)
	}

	var shard2 []string
	if err := s.ScanShard(ctx, 2, func(rec seqio.Record) error {
		shard2 = append(shard2, rec.Title())
		return nil
	}); err != nil {
		t.Fatalf("ScanShard() error = %v", err)
	}
	if len(shard2) != 2 || shard2[0] != "readA/1" || shard2[1] != "readA/2" {
		t.Errorf("ScanShard(2) = %v, want both ends of readA", shard2)
	}

	// Re-assignment replaces, never accumulates.
	if err := s.AssignShards(ctx, func(string) int { return 1 }); err != nil {
		t.Fatalf("AssignShards() error = %v", err)
	}
	var shard1 int
	if err := s.ScanShard(ctx, 1, func(seqio.Record) error {
		shard1++
		return nil
	}); err != nil {
		t.Fatalf("ScanShard() error = %v", err)
	}
	if shard1 != 3 {
		t.Errorf("ScanShard(1) after reassignment saw %d records, want 3", shard1)
	}
}

func TestStore_LookupName_NotFound(t *testing.T) {
	s := newStore(t)
	ingest(t, s, seqio.Record{Name: "present", Seq: "ACGT"})

	if _, err := s.LookupName(context.Background(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LookupName(absent) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Metadata(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.PutMeta(ctx, "base", "poa"); err != nil {
		t.Fatalf("PutMeta() error = %v", err)
	}
	if err := s.PutMeta(ctx, "base", "poa2"); err != nil {
		t.Fatalf("PutMeta() overwrite error = %v", err)
	}
	got, err := s.GetMeta(ctx, "base")
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if got != "poa2" {
		t.Errorf("GetMeta() = %q, want %q", got, "poa2")
	}
	if _, err := s.GetMeta(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMeta(missing) error = %v, want ErrNotFound", err)
	}
}

func TestOpen_Existing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.sqlite.db")
	ctx := context.Background()

	s, err := Create(ctx, path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.InsertBatch(ctx, []seqio.Record{{Name: "seq1", Seq: "ACGT"}}); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	if err := s.BuildNameIndex(ctx); err != nil {
		t.Fatalf("BuildNameIndex() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	if err := reopened.InsertBatch(ctx, []seqio.Record{{Name: "x", Seq: "A"}}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("InsertBatch() on reopened store error = %v, want ErrReadOnly", err)
	}
	recs, err := reopened.LookupName(ctx, "seq1")
	if err != nil {
		t.Fatalf("LookupName() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Seq != "ACGT" {
		t.Errorf("LookupName() = %+v, want seq1 ACGT", recs)
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Error("Open() expected error for missing store, got nil")
	}
}

func TestStore_CreateReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.sqlite.db")
	ctx := context.Background()

	s, err := Create(ctx, path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	ingest(t, s, seqio.Record{Name: "old", Seq: "ACGT"})
	s.Close()

	fresh, err := Create(ctx, path)
	if err != nil {
		t.Fatalf("Create() second error = %v", err)
	}
	defer fresh.Close()

	n, err := fresh.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() on recreated store = %d, want 0", n)
	}
}
