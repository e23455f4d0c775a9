// Package main provides the readbank-bench CLI tool for comparing partition
// policies on real or synthetic read-name corpora.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/targetasm/readbank/benchmark/analysis"
	"github.com/targetasm/readbank/benchmark/namegen"
	"github.com/targetasm/readbank/benchmark/reporting"
	"github.com/targetasm/readbank/benchmark/simulation"
)

var (
	readsFile    string
	synthetic    int
	nameStyle    string
	policyNames  []string
	totalShards  int
	batchSize    int
	locality     float64
	seed         int64
	outputFormat string
	outputFile   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "readbank-bench",
	Short: "Benchmark partition policies for readbank",
	Long: `readbank-bench compares partition policies on read-name corpora.

It replays homology-hit batches against each policy and measures shard
fan-out, switching, and per-shard balance, so you can pick a planner
before building a bank.

Examples:
  # Compare the default policies on a real read file
  readbank-bench run --reads reads_1.fastq.gz

  # Use a synthetic Illumina-style corpus
  readbank-bench run --synthetic 100000 --style illumina

  # Output as markdown report
  readbank-bench run --reads reads.fasta --format markdown --output report.md`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark simulation",
	RunE:  runBenchmark,
}

func init() {
	runCmd.Flags().StringVarP(&readsFile, "reads", "r", "", "FASTA/FASTQ file to draw names from (supports .gz/.zst)")
	runCmd.Flags().IntVar(&synthetic, "synthetic", 0, "generate this many synthetic names instead of reading a file")
	runCmd.Flags().StringVar(&nameStyle, "style", "illumina", "synthetic name style: illumina, sra")
	runCmd.Flags().StringSliceVarP(&policyNames, "policies", "p", []string{"range", "hash"}, "policies to compare")
	runCmd.Flags().IntVar(&totalShards, "shards", 64, "total number of shards")
	runCmd.Flags().IntVar(&batchSize, "batch-size", 100, "names per simulated hit batch")
	runCmd.Flags().Float64Var(&locality, "locality", 0.8, "contiguous fraction of each batch, 0..1")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "seed for synthetic names and batch sampling")
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format: text, markdown")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	names, err := loadNames()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no read names to benchmark")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Corpus: %d names\n", len(names))
	}

	batches := namegen.Batches(names, batchSize, locality, seed)
	if verbose {
		fmt.Fprintf(os.Stderr, "Replaying %d batches of %d names\n", len(batches), batchSize)
	}

	policies := make([]simulation.Policy, 0, len(policyNames))
	for _, name := range policyNames {
		p, err := createPolicy(name, names)
		if err != nil {
			return err
		}
		policies = append(policies, p)
	}

	sim := simulation.NewSimulator(policies...)
	results := sim.SimulateBatches(batches)
	dists := sim.Distribute(names)

	var comparison *analysis.PolicyComparison
	if len(policies) >= 2 {
		comparison = analysis.ComparePolicies(
			results[policies[0].Name()],
			results[policies[1].Name()],
			10000, // Bootstrap iterations.
			0.95,  // 95% confidence.
		)
	}

	var output io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	switch outputFormat {
	case "markdown":
		return writeMarkdownReport(output, len(names), len(batches), results, dists, comparison)
	default:
		return writeTextReport(output, len(names), len(batches), results, dists, comparison)
	}
}

func loadNames() ([]string, error) {
	if readsFile != "" {
		if verbose {
			fmt.Fprintf(os.Stderr, "Extracting names from %s...\n", readsFile)
		}
		names, err := namegen.FromFile(readsFile)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no reads found in %s", readsFile)
		}
		return names, nil
	}

	if synthetic <= 0 {
		return nil, fmt.Errorf("either --reads or --synthetic is required")
	}
	switch strings.ToLower(nameStyle) {
	case "illumina":
		return namegen.Illumina(synthetic, seed), nil
	case "sra":
		return namegen.SRA(synthetic, seed), nil
	default:
		return nil, fmt.Errorf("unknown name style: %s", nameStyle)
	}
}

func createPolicy(name string, corpus []string) (simulation.Policy, error) {
	switch strings.ToLower(name) {
	case "range":
		return simulation.NewRangePolicy(corpus, totalShards), nil
	case "hash":
		return simulation.NewHashPolicy(totalShards), nil
	default:
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
}

func writeTextReport(
	w io.Writer,
	names, batches int,
	results map[string]*simulation.AggregateResult,
	dists map[string]*simulation.Distribution,
	comp *analysis.PolicyComparison,
) error {
	fmt.Fprintf(w, "Readbank Partition Policy Benchmark\n")
	fmt.Fprintf(w, "===================================\n\n")
	fmt.Fprintf(w, "Names:   %d\n", names)
	fmt.Fprintf(w, "Batches: %d\n", batches)
	fmt.Fprintf(w, "Shards:  %d\n\n", totalShards)

	fmt.Fprintf(w, "Results:\n")
	fmt.Fprintf(w, "--------\n\n")

	for _, name := range policyNames {
		res, ok := results[name]
		if !ok {
			continue
		}
		metrics := simulation.ComputeMetrics(res)
		fmt.Fprintf(w, "%s:\n", name)
		fmt.Fprintf(w, "  Avg switches/batch: %.2f\n", metrics.AvgSwitchesPerBatch)
		fmt.Fprintf(w, "  Avg fan-out/batch:  %.2f\n", metrics.AvgFanoutPerBatch)
		fmt.Fprintf(w, "  P90 switches:       %.0f\n", metrics.P90SwitchesPerBatch)
		fmt.Fprintf(w, "  Unique shards:      %d\n", metrics.UniqueShards)
		fmt.Fprintf(w, "  Est. cache hit:     %.1f%%\n", res.CacheHitRate(16))
		if d, ok := dists[name]; ok {
			fmt.Fprintf(w, "  Balance:            mean=%.1f stddev=%.1f cv=%.3f min=%d max=%d\n",
				d.Mean, d.StdDev, d.CV, d.Min, d.Max)
		}
		fmt.Fprintln(w)
	}

	if comp != nil {
		fmt.Fprintf(w, "Statistical Analysis:\n")
		fmt.Fprintf(w, "---------------------\n\n")
		fmt.Fprintln(w, comp.Summary())
	}

	return nil
}

func writeMarkdownReport(
	w io.Writer,
	names, batches int,
	results map[string]*simulation.AggregateResult,
	dists map[string]*simulation.Distribution,
	comp *analysis.PolicyComparison,
) error {
	report := reporting.NewMarkdownReport(w)
	report.WriteHeader("Readbank Partition Policy Benchmark")
	report.WriteMethodology(names, batches, totalShards)
	report.WriteSummaryTable(results)
	report.WriteBalanceTable(dists)

	if comp != nil {
		report.WriteComparison(comp)
	}

	report.WriteFooter()
	return nil
}
