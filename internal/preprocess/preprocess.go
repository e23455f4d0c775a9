// Package preprocess implements the read-preprocessing pipeline: ingest raw
// reads into a sequence store, partition them into shards, and build one
// search-index artifact per shard under a bounded worker pool.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/targetasm/readbank/internal/indexer"
	"github.com/targetasm/readbank/internal/indexer/blastdb"
	"github.com/targetasm/readbank/internal/partition"
	"github.com/targetasm/readbank/internal/partition/rangeplan"
	"github.com/targetasm/readbank/internal/seqio"
	"github.com/targetasm/readbank/internal/seqstore"
	"github.com/targetasm/readbank/internal/stats"
)

const (
	// DefaultWorkers is the default materialization pool width.
	DefaultWorkers = 4

	// DefaultShardBytes is the input volume one shard covers when the shard
	// count is derived from input size.
	DefaultShardBytes = 250 << 20

	// ingestBatchSize is the number of records inserted per transaction.
	ingestBatchSize = 5000
)

// ErrShardFailures reports that at least one shard did not build. The report
// returned alongside it still carries every per-shard outcome.
var ErrShardFailures = errors.New("preprocess: one or more shards failed")

// ErrNoInputs reports a run configured without read sources.
var ErrNoInputs = errors.New("preprocess: no input files")

// Input is one read source to ingest.
type Input struct {
	// Path is a local file, "-" for standard input, or an http(s) URL.
	Path string
	// Role fixes the pairing role of every record in the file.
	Role seqio.Role
	// Format overrides path-based format detection when set.
	Format seqio.Format
}

// Status is a shard's position in its build lifecycle.
type Status string

// Shard lifecycle states.
const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

// ShardOutcome is the terminal state of one shard's materialization.
type ShardOutcome struct {
	Ordinal  int
	Records  int64
	Artifact string
	Status   Status
	Err      error
	Elapsed  time.Duration
}

// Report aggregates the outcome of a whole run.
type Report struct {
	RunID          string
	RecordsRead    int64
	RecordsSkipped int64
	RecordsStored  int64
	TotalShards    int
	Outcomes       []ShardOutcome
	Balance        Balance
	Elapsed        time.Duration
}

// Failed reports how many shards ended FAILED.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Preprocessor runs the pipeline for one bank.
type Preprocessor struct {
	bankDir      string
	base         string
	inputs       []Input
	totalShards  int
	workers      int
	planner      partition.Planner
	builder      indexer.Builder
	policy       seqio.Policy
	progress     ProgressFunc
	logger       *zap.Logger
	collector    stats.Collector
	tempDir      string
	indexTimeout time.Duration
}

// Option configures the Preprocessor.
type Option func(*Preprocessor)

// WithShards sets the shard count. Zero derives the count from total input
// size at DefaultShardBytes per shard.
func WithShards(n int) Option {
	return func(p *Preprocessor) { p.totalShards = n }
}

// WithWorkers sets the materialization pool width.
func WithWorkers(n int) Option {
	return func(p *Preprocessor) { p.workers = n }
}

// WithPlanner sets the shard partition planner.
func WithPlanner(pl partition.Planner) Option {
	return func(p *Preprocessor) { p.planner = pl }
}

// WithBuilder sets the index builder collaborator.
func WithBuilder(b indexer.Builder) Option {
	return func(p *Preprocessor) { p.builder = b }
}

// WithPolicy sets the malformed-record policy for the whole run.
func WithPolicy(pol seqio.Policy) Option {
	return func(p *Preprocessor) { p.policy = pol }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Preprocessor) { p.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Preprocessor) { p.logger = logger }
}

// WithCollector sets the metrics collector.
func WithCollector(c stats.Collector) Option {
	return func(p *Preprocessor) { p.collector = c }
}

// WithTempDir sets the directory for intermediate shard files.
func WithTempDir(dir string) Option {
	return func(p *Preprocessor) { p.tempDir = dir }
}

// WithIndexTimeout bounds each shard's index-builder call. Zero means no
// timeout. The timeout covers only the builder, not the shard file write.
func WithIndexTimeout(d time.Duration) Option {
	return func(p *Preprocessor) { p.indexTimeout = d }
}

// New creates a Preprocessor that builds the bank for base under bankDir.
func New(bankDir, base string, inputs []Input, opts ...Option) *Preprocessor {
	p := &Preprocessor{
		bankDir:   bankDir,
		base:      base,
		inputs:    inputs,
		workers:   DefaultWorkers,
		planner:   rangeplan.New(),
		builder:   blastdb.New(),
		progress:  DefaultProgressFunc,
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline: fetch remote sources, ingest, build the name
// index, plan shards, materialize them in parallel, and write the manifest.
// The returned report is non-nil whenever shards ran, including runs that
// return ErrShardFailures.
func (p *Preprocessor) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	if len(p.inputs) == 0 {
		return nil, ErrNoInputs
	}
	if p.base == "" {
		return nil, errors.New("preprocess: empty bank base name")
	}
	if p.workers < 1 {
		return nil, fmt.Errorf("preprocess: invalid worker count %d", p.workers)
	}

	if err := os.MkdirAll(p.bankDir, 0755); err != nil {
		return nil, fmt.Errorf("creating bank directory: %w", err)
	}
	lock, err := acquireLock(p.bankDir)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	if p.tempDir == "" {
		p.tempDir = filepath.Join(p.bankDir, ".tmp")
	}
	if err := os.MkdirAll(p.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(p.tempDir)

	inputs, err := p.fetchRemote(ctx, p.inputs, start)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString()}

	storePath := filepath.Join(p.bankDir, StoreName(p.base))
	store, err := seqstore.Create(ctx, storePath)
	if err != nil {
		return nil, fmt.Errorf("creating sequence store: %w", err)
	}
	defer store.Close()

	p.reportProgress(Progress{Phase: "ingest", StartTime: start})
	if err := p.ingest(ctx, store, inputs, report); err != nil {
		return nil, err
	}

	p.reportProgress(Progress{Phase: "index", RecordsRead: report.RecordsRead, StartTime: start})
	if err := store.BuildNameIndex(ctx); err != nil {
		return nil, fmt.Errorf("building name index: %w", err)
	}
	stored, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	report.RecordsStored = stored

	total := p.totalShards
	if total == 0 {
		total = autoShardCount(inputs)
	}
	report.TotalShards = total

	p.reportProgress(Progress{Phase: "plan", ShardsTotal: total, StartTime: start})
	shards, err := p.planner.Plan(ctx, store, total)
	if err != nil {
		return nil, fmt.Errorf("planning shards: %w", err)
	}
	if err := p.writeProvenance(ctx, store, report.RunID); err != nil {
		return nil, err
	}
	if err := p.cleanArtifacts(); err != nil {
		return nil, err
	}

	report.Outcomes = p.materializeAll(ctx, store, shards, start)
	report.Balance = balanceOf(report.Outcomes)
	report.Elapsed = time.Since(start)
	p.logBalance(report)

	if err := WriteManifest(p.bankDir, p.manifest(report, start)); err != nil {
		return report, fmt.Errorf("writing manifest: %w", err)
	}

	failed := report.Failed()
	p.reportProgress(Progress{
		Phase:        "done",
		ShardsDone:   total - failed,
		ShardsFailed: failed,
		ShardsTotal:  total,
		StartTime:    start,
	})

	if failed > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrShardFailures, failed, total)
	}
	return report, nil
}

// fetchRemote downloads any http(s) inputs into the temp directory and
// returns the input list with local paths substituted.
func (p *Preprocessor) fetchRemote(ctx context.Context, inputs []Input, start time.Time) ([]Input, error) {
	fetched := make([]Input, len(inputs))
	copy(fetched, inputs)

	var dl *Downloader
	for i, in := range fetched {
		if !isRemote(in.Path) {
			continue
		}
		if dl == nil {
			dl = NewDownloader()
		}

		u, err := url.Parse(in.Path)
		if err != nil {
			return nil, fmt.Errorf("parsing source URL %s: %w", in.Path, err)
		}
		name := filepath.Base(u.Path)
		if name == "." || name == "/" {
			name = fmt.Sprintf("source_%d", i)
		}
		dest := filepath.Join(p.tempDir, name)

		p.reportProgress(Progress{Phase: "download", StartTime: start})
		p.logger.Info("fetching remote source", zap.String("url", in.Path))
		if err := dl.DownloadToFile(ctx, in.Path, dest, p.progress); err != nil {
			return nil, fmt.Errorf("downloading %s: %w", in.Path, err)
		}
		fetched[i].Path = dest
	}
	return fetched, nil
}

// ingest streams every input into the store in insert batches.
func (p *Preprocessor) ingest(ctx context.Context, store *seqstore.Store, inputs []Input, report *Report) error {
	batch := make([]seqio.Record, 0, ingestBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.InsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("storing records: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for _, in := range inputs {
		rc, err := seqio.Open(in.Path)
		if err != nil {
			return err
		}

		format := in.Format
		if format == seqio.FormatUnknown {
			format = seqio.DetectFormat(in.Path)
		}

		cfg := seqio.ScanConfig{
			File:   in.Path,
			Role:   in.Role,
			Policy: p.policy,
			Logger: p.logger,
		}
		var fileRead int64
		sum, err := seqio.Scan(ctx, rc, format, cfg, func(rec seqio.Record) error {
			batch = append(batch, rec)
			fileRead++
			if (report.RecordsRead+fileRead)%100000 == 0 {
				p.reportProgress(Progress{
					Phase:          "ingest",
					RecordsRead:    report.RecordsRead + fileRead,
					RecordsSkipped: report.RecordsSkipped,
				})
			}
			if len(batch) < ingestBatchSize {
				return nil
			}
			return flush()
		})
		if cerr := rc.Close(); err == nil {
			err = cerr
		}

		report.RecordsRead += sum.Records
		report.RecordsSkipped += sum.Skipped
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", in.Path, err)
		}
	}
	if err := flush(); err != nil {
		return err
	}

	p.collector.IncCounter(stats.MetricRecordsIngested, report.RecordsRead)
	p.collector.IncCounter(stats.MetricRecordsSkipped, report.RecordsSkipped)
	return nil
}

// autoShardCount derives a shard count from total input size, one shard per
// DefaultShardBytes, so each index artifact stays tractable for the external
// builder. Unstatable inputs such as stdin contribute nothing.
func autoShardCount(inputs []Input) int {
	var total int64
	for _, in := range inputs {
		if info, err := os.Stat(in.Path); err == nil {
			total += info.Size()
		}
	}
	return shardCountFor(total)
}

// shardCountFor returns ceil(bytes/DefaultShardBytes), minimum one shard.
func shardCountFor(bytes int64) int {
	n := int((bytes + DefaultShardBytes - 1) / DefaultShardBytes)
	if n < 1 {
		n = 1
	}
	return n
}

// cleanArtifacts removes index artifacts left by a previous build so a
// smaller shard count cannot leave stale ordinals behind.
func (p *Preprocessor) cleanArtifacts() error {
	matches, err := filepath.Glob(filepath.Join(p.bankDir, p.base+".*.blast*"))
	if err != nil {
		return fmt.Errorf("globbing artifacts: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("removing stale artifact: %w", err)
		}
	}
	return nil
}

// materializeAll builds every shard under a bounded worker pool. Each worker
// writes only its own outcome slot; a failed shard never stops siblings.
func (p *Preprocessor) materializeAll(ctx context.Context, store *seqstore.Store, shards []partition.Shard, start time.Time) []ShardOutcome {
	outcomes := make([]ShardOutcome, len(shards))
	for i, sh := range shards {
		outcomes[i] = ShardOutcome{
			Ordinal:  sh.Index,
			Artifact: ArtifactName(p.base, sh.Index),
			Status:   StatusPending,
		}
	}

	p.reportProgress(Progress{Phase: "shard", ShardsTotal: len(shards), StartTime: start})

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var done, failed int

	for i := range shards {
		wg.Add(1)
		go func(i int, sh partition.Shard) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			out := &outcomes[i]
			out.Status = StatusRunning
			shardStart := time.Now()

			records, err := p.materializeShard(ctx, store, sh)
			out.Records = records
			out.Elapsed = time.Since(shardStart)

			mu.Lock()
			if err != nil {
				out.Status = StatusFailed
				out.Err = fmt.Errorf("shard %d: %w", sh.Index, err)
				failed++
				p.logger.Warn("shard failed",
					zap.Int("shard", sh.Index),
					zap.Error(err))
				p.collector.IncCounter(stats.MetricShardsFailed, 1)
			} else {
				out.Status = StatusDone
				done++
				p.collector.IncCounter(stats.MetricShardsBuilt, 1)
				p.collector.ObserveHistogram(stats.MetricShardRecords, float64(records))
				p.collector.ObserveHistogram(stats.MetricShardBuildSeconds, out.Elapsed.Seconds())
			}
			p.reportProgress(Progress{
				Phase:        "shard",
				ShardsDone:   done,
				ShardsFailed: failed,
				ShardsTotal:  len(shards),
				StartTime:    start,
			})
			mu.Unlock()
		}(i, shards[i])
	}

	wg.Wait()
	return outcomes
}

// writeProvenance mirrors run identity into the store's metadata table so a
// bare store file can be traced back to its build.
func (p *Preprocessor) writeProvenance(ctx context.Context, store *seqstore.Store, runID string) error {
	meta := [][2]string{
		{"version", strconv.Itoa(ManifestVersion)},
		{"run_id", runID},
		{"base", p.base},
		{"planner", p.planner.Name()},
		{"builder", p.builder.Name()},
	}
	for _, kv := range meta {
		if err := store.PutMeta(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("writing store metadata: %w", err)
		}
	}
	return nil
}

// manifest assembles the durable run record written beside the store. Sources
// name the original inputs, not downloaded copies.
func (p *Preprocessor) manifest(report *Report, start time.Time) *Manifest {
	m := &Manifest{
		Version:        ManifestVersion,
		RunID:          report.RunID,
		Base:           p.base,
		Planner:        p.planner.Name(),
		Builder:        p.builder.Name(),
		TotalShards:    report.TotalShards,
		Workers:        p.workers,
		RecordsRead:    report.RecordsRead,
		RecordsSkipped: report.RecordsSkipped,
		RecordsStored:  report.RecordsStored,
		Balance:        report.Balance,
		StartedAt:      start.UTC(),
		FinishedAt:     time.Now().UTC(),
	}
	for _, in := range p.inputs {
		format := in.Format
		if format == seqio.FormatUnknown {
			format = seqio.DetectFormat(in.Path)
		}
		m.Sources = append(m.Sources, Source{
			Path:   in.Path,
			Role:   in.Role.String(),
			Format: format.String(),
		})
	}
	for _, o := range report.Outcomes {
		entry := ShardEntry{
			Ordinal:  o.Ordinal,
			Records:  o.Records,
			Artifact: o.Artifact,
			Status:   string(o.Status),
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		m.Shards = append(m.Shards, entry)
	}
	return m
}

func (p *Preprocessor) reportProgress(pr Progress) {
	if p.progress != nil {
		p.progress(pr)
	}
}
