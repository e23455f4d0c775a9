// Package namegen supplies read-name corpora for partition benchmarks,
// either extracted from real FASTA/FASTQ files or generated synthetically.
package namegen

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/targetasm/readbank/internal/seqio"
)

// FromFile extracts the unique read names from a FASTA or FASTQ file in
// first-seen order. Compressed inputs are decompressed transparently and
// end suffixes are stripped, so a paired file contributes one name per pair.
func FromFile(path string) ([]string, error) {
	r, err := seqio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("namegen: %w", err)
	}
	defer r.Close()
	return FromReader(r, seqio.DetectFormat(path), path)
}

// FromReader extracts unique read names from a single stream.
func FromReader(r io.Reader, format seqio.Format, label string) ([]string, error) {
	var names []string
	seen := make(map[string]struct{})

	cfg := seqio.ScanConfig{File: label, Role: seqio.RoleMixed, Policy: seqio.PolicySkip}
	_, err := seqio.Scan(context.Background(), r, format, cfg, func(rec seqio.Record) error {
		if _, ok := seen[rec.Name]; !ok {
			seen[rec.Name] = struct{}{}
			names = append(names, rec.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("namegen: scanning %s: %w", label, err)
	}
	return names, nil
}

// Stats describes a corpus extracted from read files.
type Stats struct {
	TotalRecords  int
	UniqueNames   int
	PairedRecords int
	AvgSeqLen     float64
}

// FromReaderWithStats extracts unique names and corpus statistics in one pass.
func FromReaderWithStats(r io.Reader, format seqio.Format, label string) ([]string, Stats, error) {
	var names []string
	seen := make(map[string]struct{})
	var stats Stats
	var totalLen int

	cfg := seqio.ScanConfig{File: label, Role: seqio.RoleMixed, Policy: seqio.PolicySkip}
	_, err := seqio.Scan(context.Background(), r, format, cfg, func(rec seqio.Record) error {
		stats.TotalRecords++
		totalLen += len(rec.Seq)
		if rec.End != seqio.EndNone {
			stats.PairedRecords++
		}
		if _, ok := seen[rec.Name]; !ok {
			seen[rec.Name] = struct{}{}
			names = append(names, rec.Name)
		}
		return nil
	})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("namegen: scanning %s: %w", label, err)
	}

	stats.UniqueNames = len(names)
	if stats.TotalRecords > 0 {
		stats.AvgSeqLen = float64(totalLen) / float64(stats.TotalRecords)
	}
	return names, stats, nil
}

// Illumina generates n synthetic Illumina-style read names. Tile and
// coordinate fields advance the way a real flowcell does, so lexicographic
// order resembles genuine instrument output.
func Illumina(n int, seed int64) []string {
	rng := rand.New(rand.NewSource(seed))
	names := make([]string, 0, n)

	tile := 1101
	for i := 0; i < n; i++ {
		x := rng.Intn(25000) + 1000
		y := rng.Intn(25000) + 1000
		names = append(names, fmt.Sprintf("M00321:18:000000000-A4CHD:1:%d:%d:%d", tile, x, y))
		if (i+1)%512 == 0 {
			tile++
		}
	}
	return names
}

// SRA generates n synthetic archive-style read names, SRR accession plus a
// running spot index.
func SRA(n int, seed int64) []string {
	rng := rand.New(rand.NewSource(seed))
	accession := fmt.Sprintf("SRR%07d", rng.Intn(9000000)+1000000)

	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		names = append(names, fmt.Sprintf("%s.%d", accession, i+1))
	}
	return names
}

// Batches groups names into hit batches the way a homology search does: most
// of a batch comes from one contiguous run of the corpus (reads covering the
// same locus tend to be near neighbors in name order), and the rest is drawn
// uniformly. locality is the contiguous fraction in [0, 1].
func Batches(names []string, batchSize int, locality float64, seed int64) [][]string {
	if len(names) == 0 || batchSize <= 0 {
		return nil
	}
	if batchSize > len(names) {
		batchSize = len(names)
	}
	if locality < 0 {
		locality = 0
	}
	if locality > 1 {
		locality = 1
	}

	rng := rand.New(rand.NewSource(seed))
	numBatches := len(names) / batchSize
	if numBatches == 0 {
		numBatches = 1
	}

	batches := make([][]string, 0, numBatches)
	for b := 0; b < numBatches; b++ {
		batch := make([]string, 0, batchSize)

		runLen := int(float64(batchSize) * locality)
		if runLen > 0 {
			start := rng.Intn(len(names) - runLen + 1)
			batch = append(batch, names[start:start+runLen]...)
		}
		for len(batch) < batchSize {
			batch = append(batch, names[rng.Intn(len(names))])
		}
		batches = append(batches, batch)
	}
	return batches
}
