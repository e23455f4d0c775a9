//go:build e2e

package readbank_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/targetasm/readbank"
)

func TestE2E_BuildAndLookup(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "readbank-e2e-*")
	if err != nil {
		t.Fatalf("Error creating temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	bankDir := filepath.Join(tmpDir, "bank")

	// Step 1: Generate paired FASTQ input
	t.Log("📦 Generating 10,000 read pairs...")
	start := time.Now()
	r1 := filepath.Join(tmpDir, "r1.fastq.gz")
	r2 := filepath.Join(tmpDir, "r2.fastq.gz")
	names, err := writePairs(r1, r2, 10000)
	if err != nil {
		t.Fatalf("Error generating reads: %v", err)
	}
	t.Logf("   Generated %d pairs in %v", len(names), time.Since(start))

	// The builder is a stand-in for makeblastdb so the test does not
	// depend on a BLAST installation.
	fakeExe := filepath.Join(tmpDir, "makeblastdb")
	script := "#!/bin/sh\nwhile [ $# -gt 1 ]; do\n  if [ \"$1\" = \"-out\" ]; then touch \"$2.nin\" \"$2.nhr\" \"$2.nsq\"; fi\n  shift\ndone\n"
	if err := os.WriteFile(fakeExe, []byte(script), 0o755); err != nil {
		t.Fatalf("Error writing fake builder: %v", err)
	}

	// Step 2: Build the bank via the CLI
	t.Log("🔨 Building bank...")
	start = time.Now()
	cmd := exec.Command("go", "run", "./cmd/readbank", "build",
		"--end-1", r1,
		"--end-2", r2,
		"--output", bankDir,
		"--base", "e2e",
		"--shards", "8",
		"--workers", "4",
		"--makeblastdb", fakeExe,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Error building: %v", err)
	}
	t.Logf("   Built bank in %v", time.Since(start))

	// Step 3: Verify via the CLI
	t.Log("🔎 Verifying bank...")
	cmd = exec.Command("go", "run", "./cmd/readbank", "verify", "--bank", bankDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Error verifying: %v", err)
	}

	// Step 4: Test lookups
	t.Log("🔍 Testing lookups...")

	opt, err := readbank.WithBank(bankDir)
	if err != nil {
		t.Fatalf("Error opening bank: %v", err)
	}
	client, err := readbank.New(opt)
	if err != nil {
		t.Fatalf("Error creating client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	found := 0
	var totalTime time.Duration

	testCount := min(100, len(names))
	for i := 0; i < testCount; i++ {
		name := names[i]
		start := time.Now()
		reads, err := client.Lookup(ctx, name+"/1")
		elapsed := time.Since(start)
		totalTime += elapsed

		if err == nil && len(reads) == 2 {
			found++
			if i < 3 {
				t.Logf("   ✓ %s -> %s, %s", name, reads[0].ID(), reads[1].ID())
			}
		}
	}

	t.Logf("📊 Results:")
	t.Logf("   Tested:   %d names", testCount)
	t.Logf("   Found:    %d (%.1f%%)", found, float64(found)/float64(testCount)*100)
	t.Logf("   Avg time: %v", totalTime/time.Duration(testCount))

	if found != testCount {
		t.Errorf("Expected both ends for all %d names, got %d", testCount, found)
	}

	count, err := client.Count(ctx)
	if err != nil {
		t.Fatalf("Error counting: %v", err)
	}
	if want := int64(2 * len(names)); count != want {
		t.Errorf("Count() = %d, want %d", count, want)
	}
}

// writePairs writes n read pairs as gzipped FASTQ and returns the names.
func writePairs(path1, path2 string, n int) ([]string, error) {
	names := make([]string, 0, n)

	write := func(path string, end string) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		zw := gzip.NewWriter(f)

		state := uint32(12345)
		if end == "2" {
			state = 54321
		}
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("SRR9999.%d", i+1)
			if end == "1" {
				names = append(names, name)
			}
			seq := syntheticSeq(&state, 60)
			record := "@" + name + "/" + end + "\n" + seq + "\n+\n" + strings.Repeat("I", len(seq)) + "\n"
			if _, err := zw.Write([]byte(record)); err != nil {
				f.Close()
				return err
			}
		}
		if err := zw.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	if err := write(path1, "1"); err != nil {
		return nil, err
	}
	if err := write(path2, "2"); err != nil {
		return nil, err
	}
	return names, nil
}

// syntheticSeq generates a deterministic nucleotide sequence.
func syntheticSeq(state *uint32, length int) string {
	const bases = "ACGT"
	b := make([]byte, length)
	for i := range b {
		*state = *state*1664525 + 1013904223
		b[i] = bases[(*state>>16)%4]
	}
	return string(b)
}
