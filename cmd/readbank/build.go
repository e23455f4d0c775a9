package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/targetasm/readbank/internal/archive"
	"github.com/targetasm/readbank/internal/archive/gcssink"
	"github.com/targetasm/readbank/internal/archive/s3sink"
	"github.com/targetasm/readbank/internal/indexer/blastdb"
	"github.com/targetasm/readbank/internal/partition"
	"github.com/targetasm/readbank/internal/partition/hashplan"
	"github.com/targetasm/readbank/internal/partition/rangeplan"
	"github.com/targetasm/readbank/internal/preprocess"
	"github.com/targetasm/readbank/internal/seqio"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a read bank from FASTA/FASTQ input",
	Long: `Ingest sequencing reads and build a sharded, indexed bank.

This command will:
1. Ingest reads into a SQLite sequence store (remote sources are downloaded)
2. Normalize read names and build the name index
3. Partition the reads into shards using the configured planner
4. Build one search-index artifact per shard in parallel

Input files may be plain, gzip, or zstd compressed. Paired files are
declared per end so the end markers survive normalization.

Examples:
  # Paired reads, automatic shard count
  readbank build --end-1 r1.fastq.gz --end-2 r2.fastq.gz -o ./bank

  # Mixed single and paired input, explicit shards and planner
  readbank build --single reads.fasta --end-1 r1.fq --end-2 r2.fq \
      -o ./bank --shards 8 --planner hash

  # Build and archive to object storage
  readbank build --single reads.fasta -o ./bank --archive gs://my-bucket/banks/moth`,
	RunE: runBuild,
}

var (
	end1Files   []string
	end2Files   []string
	singleFiles []string
	mixedFiles  []string
	longFiles   []string

	baseName       string
	outputDir      string
	archiveDest    string
	totalShards    int
	plannerName    string
	buildWorkers   int
	formatName     string
	skipMalformed  bool
	makeblastdbExe string
	indexTimeout   time.Duration
	buildTempDir   string
)

func init() {
	buildCmd.Flags().StringArrayVar(&end1Files, "end-1", nil, "first-end read files of paired input (repeatable)")
	buildCmd.Flags().StringArrayVar(&end2Files, "end-2", nil, "second-end read files of paired input (repeatable)")
	buildCmd.Flags().StringArrayVar(&singleFiles, "single", nil, "unpaired read files (repeatable)")
	buildCmd.Flags().StringArrayVar(&mixedFiles, "mixed", nil, "interleaved read files with end markers in headers (repeatable)")
	buildCmd.Flags().StringArrayVar(&longFiles, "long", nil, "long-read files (repeatable)")
	buildCmd.Flags().StringVar(&baseName, "base", "reads", "base name for the store, shard files, and artifacts")
	buildCmd.Flags().StringVarP(&outputDir, "output", "o", "./bank", "output bank directory")
	buildCmd.Flags().StringVar(&archiveDest, "archive", "", "archive destination after a successful build (gs://bucket/prefix or s3://bucket/prefix)")
	buildCmd.Flags().IntVar(&totalShards, "shards", 0, "number of shards to create (0 = derive from input size)")
	buildCmd.Flags().StringVar(&plannerName, "planner", "range", "shard planner: range, hash")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", preprocess.DefaultWorkers, "number of parallel shard workers")
	buildCmd.Flags().StringVar(&formatName, "format", "", "force input format (fasta, fastq) instead of detecting from file names")
	buildCmd.Flags().BoolVar(&skipMalformed, "skip-malformed", false, "skip malformed records instead of aborting")
	buildCmd.Flags().StringVar(&makeblastdbExe, "makeblastdb", "makeblastdb", "path to the makeblastdb executable")
	buildCmd.Flags().DurationVar(&indexTimeout, "index-timeout", 0, "per-shard index build timeout (0 = none)")
	buildCmd.Flags().StringVar(&buildTempDir, "temp-dir", "", "working directory for shard files and downloads (default: inside the bank)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	// Select planner.
	var planner partition.Planner
	switch plannerName {
	case "range":
		planner = rangeplan.New()
	case "hash":
		planner = hashplan.New()
	default:
		return fmt.Errorf("unknown planner: %s", plannerName)
	}

	inputs, err := collectInputs()
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files; provide --end-1/--end-2, --single, --mixed, or --long")
	}

	policy := seqio.PolicyAbort
	if skipMalformed {
		policy = seqio.PolicySkip
	}

	// Setup context with cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cleaning up...")
		cancel()
	}()

	logger := newLogger()
	defer logger.Sync()

	builder := blastdb.New(
		blastdb.WithExe(makeblastdbExe),
		blastdb.WithLogger(logger),
	)

	fmt.Printf("Building read bank\n")
	for _, in := range inputs {
		fmt.Printf("  Input:   %s (%s)\n", in.Path, in.Role)
	}
	fmt.Printf("  Output:  %s\n", outputDir)
	if totalShards == 0 {
		fmt.Printf("  Shards:  auto\n")
	} else {
		fmt.Printf("  Shards:  %d\n", totalShards)
	}
	fmt.Printf("  Planner: %s\n", planner.Name())
	fmt.Printf("  Builder: %s\n", builder.Name())
	fmt.Printf("  Workers: %d\n", buildWorkers)
	fmt.Println()

	opts := []preprocess.Option{
		preprocess.WithShards(totalShards),
		preprocess.WithWorkers(buildWorkers),
		preprocess.WithPlanner(planner),
		preprocess.WithBuilder(builder),
		preprocess.WithPolicy(policy),
		preprocess.WithProgress(preprocess.DefaultProgressFunc),
		preprocess.WithLogger(logger),
	}
	if indexTimeout > 0 {
		opts = append(opts, preprocess.WithIndexTimeout(indexTimeout))
	}
	if buildTempDir != "" {
		opts = append(opts, preprocess.WithTempDir(buildTempDir))
	}

	p := preprocess.New(outputDir, baseName, inputs, opts...)

	report, err := p.Run(ctx)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		return err
	}

	// Upload to object storage if specified.
	if archiveDest != "" {
		fmt.Println()
		fmt.Printf("[Archive] Uploading to %s...\n", archiveDest)

		sink, err := newSink(ctx, archiveDest, logger)
		if err != nil {
			return fmt.Errorf("creating archive sink: %w", err)
		}
		defer sink.Close()

		if err := sink.Upload(ctx, outputDir); err != nil {
			return fmt.Errorf("uploading bank: %w", err)
		}

		fmt.Println("[Archive] Done")
	}

	return nil
}

// collectInputs assembles the per-role input list from the flags.
func collectInputs() ([]preprocess.Input, error) {
	format := seqio.FormatUnknown
	if formatName != "" {
		f, err := seqio.ParseFormat(formatName)
		if err != nil {
			return nil, err
		}
		format = f
	}

	var inputs []preprocess.Input
	add := func(paths []string, role seqio.Role) {
		for _, p := range paths {
			inputs = append(inputs, preprocess.Input{Path: p, Role: role, Format: format})
		}
	}
	add(end1Files, seqio.RolePair1)
	add(end2Files, seqio.RolePair2)
	add(singleFiles, seqio.RoleSingle)
	add(mixedFiles, seqio.RoleMixed)
	add(longFiles, seqio.RoleLong)
	return inputs, nil
}

// printReport summarizes a run, including per-shard failures.
func printReport(r *preprocess.Report) {
	fmt.Println()
	fmt.Printf("Records: %d stored (%d read, %d skipped)\n",
		r.RecordsStored, r.RecordsRead, r.RecordsSkipped)
	fmt.Printf("Shards:  %d built, %d failed\n", r.TotalShards-r.Failed(), r.Failed())
	if r.Balance.Mean > 0 {
		fmt.Printf("Balance: mean %.1f records/shard, cv %.3f\n", r.Balance.Mean, r.Balance.CV)
	}
	fmt.Printf("Elapsed: %s\n", preprocess.FormatDuration(r.Elapsed))

	for _, o := range r.Outcomes {
		if o.Status == preprocess.StatusFailed {
			fmt.Printf("  FAILED shard %d: %v\n", o.Ordinal, o.Err)
		}
	}
}

// newSink picks the archive backend from the destination scheme.
func newSink(ctx context.Context, dest string, logger *zap.Logger) (archive.Sink, error) {
	switch {
	case strings.HasPrefix(dest, "gs://"):
		return gcssink.New(ctx, dest, gcssink.WithLogger(logger))
	case strings.HasPrefix(dest, "s3://"):
		return s3sink.New(ctx, dest, s3sink.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported archive destination %q (want gs:// or s3://)", dest)
	}
}
