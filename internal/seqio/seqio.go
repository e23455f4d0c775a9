// Package seqio provides streaming readers and writers for sequencing reads
// in FASTA and FASTQ form.
package seqio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// End identifies which member of a read pair a record belongs to.
type End string

// End marker values. Single, mixed, and long reads carry EndNone.
const (
	EndNone End = ""
	End1    End = "1"
	End2    End = "2"
)

// Role describes how the reads in a source file relate to pairing.
type Role int

// Read roles. Long reads are normalized the same way as single-end reads.
const (
	RoleSingle Role = iota
	RolePair1
	RolePair2
	RoleMixed
	RoleLong
)

// String returns the role's flag spelling.
func (r Role) String() string {
	switch r {
	case RoleSingle:
		return "single"
	case RolePair1:
		return "pair1"
	case RolePair2:
		return "pair2"
	case RoleMixed:
		return "mixed"
	case RoleLong:
		return "long"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole maps a role's flag spelling back to its Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "single":
		return RoleSingle, nil
	case "pair1":
		return RolePair1, nil
	case "pair2":
		return RolePair2, nil
	case "mixed":
		return RoleMixed, nil
	case "long":
		return RoleLong, nil
	}
	return 0, fmt.Errorf("seqio: unknown read role %q", s)
}

// Clamp returns the end marker the role forces onto every record, or EndNone
// when the header decides.
func (r Role) Clamp() End {
	switch r {
	case RolePair1:
		return End1
	case RolePair2:
		return End2
	}
	return EndNone
}

// Record is a single sequencing read with a normalized name.
type Record struct {
	Name string
	End  End
	Seq  string
}

// Title returns the record's header title: the bare name, or name/end for
// paired records.
func (r Record) Title() string {
	if r.End == EndNone {
		return r.Name
	}
	return r.Name + "/" + string(r.End)
}

// Format identifies a supported read-file format.
type Format int

// Supported formats. FormatUnknown asks call sites to detect the format from
// the file path instead.
const (
	FormatUnknown Format = iota
	FormatFASTA
	FormatFASTQ
)

// String returns the format's flag spelling.
func (f Format) String() string {
	switch f {
	case FormatFASTA:
		return "fasta"
	case FormatFASTQ:
		return "fastq"
	}
	return "unknown"
}

// ParseFormat maps a format's flag spelling back to its Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "fasta":
		return FormatFASTA, nil
	case "fastq":
		return FormatFASTQ, nil
	}
	return 0, fmt.Errorf("seqio: unknown format %q", s)
}

// Policy fixes how scanners respond to a malformed record for a whole run.
type Policy int

const (
	// PolicyAbort stops the scan at the first malformed record.
	PolicyAbort Policy = iota
	// PolicySkip drops malformed records, counts them, and continues.
	PolicySkip
)

// ParseError describes a malformed record in a read file.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("seqio: %s:%d: %s", e.File, e.Line, e.Reason)
}

// ScanConfig carries the per-run scanning policy shared by both formats.
type ScanConfig struct {
	// File names the input in parse errors and skip diagnostics.
	File string
	// Role supplies the end-marker clamp applied during normalization.
	Role Role
	// Policy selects skip-and-log or abort for malformed records.
	Policy Policy
	// Logger receives one warning per skipped record. Defaults to a no-op.
	Logger *zap.Logger
}

// Summary reports what a scan emitted and what it dropped.
type Summary struct {
	Records int64
	Skipped int64
}

// Scan streams records of the given format from r, normalizing each header
// under the configured role and calling emit once per well-formed record.
// Input is never materialized in memory; an error from emit stops the scan.
func Scan(ctx context.Context, r io.Reader, format Format, cfg ScanConfig, emit func(Record) error) (Summary, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	switch format {
	case FormatFASTA:
		return scanFASTA(ctx, r, cfg, emit)
	case FormatFASTQ:
		return scanFASTQ(ctx, r, cfg, emit)
	}
	return Summary{}, fmt.Errorf("seqio: unknown format %d", int(format))
}

// skipOrFail applies the run policy to one malformed record.
func skipOrFail(cfg ScanConfig, sum *Summary, line int, reason string) error {
	if cfg.Policy == PolicySkip {
		sum.Skipped++
		cfg.Logger.Warn("skipping malformed record",
			zap.String("file", cfg.File),
			zap.Int("line", line),
			zap.String("reason", reason))
		return nil
	}
	return &ParseError{File: cfg.File, Line: line, Reason: reason}
}
