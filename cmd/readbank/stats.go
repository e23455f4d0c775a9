package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/targetasm/readbank/internal/archive"
	"github.com/targetasm/readbank/internal/preprocess"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about a read bank",
	Long: `Display statistics about a read bank including:
- Record counts and sources from the build manifest
- Shard count and balance
- Total size on disk`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	m, err := preprocess.ReadManifest(bankDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("bank %q does not exist; run 'readbank build' first", bankDir)
		}
		return err
	}

	fmt.Printf("Bank:     %s\n", bankDir)
	fmt.Printf("Base:     %s\n", m.Base)
	fmt.Printf("Run:      %s (built %s, took %s)\n",
		m.RunID,
		m.FinishedAt.Local().Format("2006-01-02 15:04:05"),
		preprocess.FormatDuration(m.FinishedAt.Sub(m.StartedAt)))
	fmt.Printf("Planner:  %s\n", m.Planner)
	fmt.Printf("Builder:  %s\n", m.Builder)
	fmt.Printf("Records:  %d stored (%d read, %d skipped)\n",
		m.RecordsStored, m.RecordsRead, m.RecordsSkipped)
	fmt.Printf("Shards:   %d (%d done, %d failed)\n",
		m.TotalShards, m.TotalShards-m.Failed(), m.Failed())
	fmt.Printf("Balance:  mean %.1f, stddev %.1f, cv %.3f, min %d, max %d\n",
		m.Balance.Mean, m.Balance.StdDev, m.Balance.CV, m.Balance.Min, m.Balance.Max)

	fmt.Println("Sources:")
	for _, src := range m.Sources {
		fmt.Printf("  %s (%s, %s)\n", src.Path, src.Role, src.Format)
	}

	if size, err := bankSize(bankDir); err == nil {
		fmt.Printf("Size:     %s on disk\n", preprocess.FormatBytes(size))
	}

	if verbose {
		fmt.Println("Shard details:")
		for _, sh := range m.Shards {
			fmt.Printf("  %3d  %8d records  %-8s %s\n", sh.Ordinal, sh.Records, sh.Status, sh.Artifact)
		}
	}

	return nil
}

// bankSize sums the size of the bank's files.
func bankSize(dir string) (int64, error) {
	names, err := archive.BankFiles(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}
