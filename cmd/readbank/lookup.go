package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/targetasm/readbank"
	"github.com/targetasm/readbank/internal/codec"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup NAME...",
	Short: "Fetch reads from the bank by name",
	Long: `Fetch every stored end of the named reads and print them as FASTA.

Names may carry an end suffix ("read/1"); the suffix is stripped so the
mate is returned as well. This is the fetch an assembly loop performs for
each batch of index hits.

Examples:
  # Both ends of one read
  readbank lookup "SRR1234.567/1"

  # Write several reads to a compressed FASTA file
  readbank lookup read_1 read_2 read_3 --output hits.fasta.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

var (
	lookupOutput string
	showTiming   bool
	cacheSize    int
)

func init() {
	lookupCmd.Flags().StringVarP(&lookupOutput, "output", "o", "", "write FASTA to this file instead of stdout (.gz/.zst compresses)")
	lookupCmd.Flags().BoolVar(&showTiming, "timing", false, "show lookup timing")
	lookupCmd.Flags().IntVar(&cacheSize, "cache", readbank.DefaultCacheSize, "lookup cache capacity in names (0 disables)")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	opt, err := readbank.WithBank(bankDir)
	if err != nil {
		return fmt.Errorf("opening bank %q: %w (run 'readbank build' first)", bankDir, err)
	}

	client, err := readbank.New(opt,
		readbank.WithCacheSize(cacheSize),
		readbank.WithLogger(newLogger()),
	)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	defer client.Close()

	out, closeOut, err := openOutput(lookupOutput)
	if err != nil {
		return err
	}

	ctx := context.Background()
	start := time.Now()

	var found, missing int
	for _, name := range args {
		reads, err := client.Lookup(ctx, name)
		if err != nil {
			if errors.Is(err, readbank.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "not found: %s\n", name)
				missing++
				continue
			}
			closeOut()
			return fmt.Errorf("lookup failed: %w", err)
		}
		for _, r := range reads {
			if _, err := io.WriteString(out, r.FASTA()); err != nil {
				closeOut()
				return fmt.Errorf("writing output: %w", err)
			}
			found++
		}
	}

	if err := closeOut(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	if showTiming {
		fmt.Fprintf(os.Stderr, "fetched %d reads in %s\n", found, time.Since(start))
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d names not found", missing, len(args))
	}
	return nil
}

// openOutput returns the FASTA destination, compressing by extension when
// writing to a file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}

	c := codec.ByExtension(path)
	if c.Extension() == "" {
		return file, file.Close, nil
	}

	w, err := c.Writer(file)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("creating compressor: %w", err)
	}

	return w, func() error {
		if err := w.Close(); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}, nil
}
