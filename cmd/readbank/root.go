package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags.
	bankDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "readbank",
	Short: "Shard sequencing reads into indexed banks for targeted assembly",
	Long: `Readbank prepares raw sequencing reads for iterative targeted assembly.

It ingests FASTA or FASTQ files into a SQLite sequence store, partitions
the reads into balanced shards, and builds one search-index artifact per
shard so an assembler can match and fetch reads by name.

Examples:
  # Build a bank from paired reads
  readbank build --end-1 r1.fastq.gz --end-2 r2.fastq.gz -o ./bank

  # Fetch both ends of a read
  readbank lookup "SRR1234.567/1"

  # Show bank statistics
  readbank stats`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&bankDir, "bank", "d", "./bank", "bank directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// newLogger builds the CLI logger. Quiet runs log nothing; verbose runs get
// the zap development logger on stderr.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
