package preprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/targetasm/readbank/internal/partition"
	"github.com/targetasm/readbank/internal/seqio"
	"github.com/targetasm/readbank/internal/seqstore"
)

// materializeShard streams one shard's records into a FASTA file under the
// temp directory and hands it to the index builder. It only reads the store.
func (p *Preprocessor) materializeShard(ctx context.Context, store *seqstore.Store, sh partition.Shard) (int64, error) {
	fastaPath := filepath.Join(p.tempDir, ShardFileName(p.base, sh.Index))
	records, err := p.writeShardFASTA(ctx, store, sh, fastaPath)
	if err != nil {
		return 0, err
	}

	artifact := filepath.Join(p.bankDir, ArtifactName(p.base, sh.Index))
	buildCtx := ctx
	if p.indexTimeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, p.indexTimeout)
		defer cancel()
	}
	if err := p.builder.Build(buildCtx, fastaPath, artifact); err != nil {
		return records, fmt.Errorf("building index: %w", err)
	}
	return records, nil
}

// writeShardFASTA materializes the shard's records at path, syncing before
// close so the index builder sees complete bytes. Records arrive in store
// order, so repeated calls produce identical files.
func (p *Preprocessor) writeShardFASTA(ctx context.Context, store *seqstore.Store, sh partition.Shard, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating shard file: %w", err)
	}

	w := seqio.NewWriter(f)
	var records int64
	emit := func(rec seqio.Record) error {
		records++
		return w.Write(rec)
	}

	if sh.Range != nil {
		err = store.ScanRange(ctx, *sh.Range, emit)
	} else {
		err = store.ScanShard(ctx, sh.Index, emit)
	}
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("writing shard file: %w", err)
	}
	return records, nil
}
