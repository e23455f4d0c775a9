package seqio

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func collect(t *testing.T, input string, format Format, cfg ScanConfig) ([]Record, Summary) {
	t.Helper()
	var got []Record
	sum, err := Scan(context.Background(), strings.NewReader(input), format, cfg, func(r Record) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return got, sum
}

func TestScan_FASTA(t *testing.T) {
	input := ">seq1\nACGT\nTTAA\n\n>seq2/1\nGGCC\n"
	got, sum := collect(t, input, FormatFASTA, ScanConfig{File: "test.fasta", Role: RoleSingle})

	want := []Record{
		{Name: "seq1", End: EndNone, Seq: "ACGTTTAA"},
		{Name: "seq2", End: End1, Seq: "GGCC"},
	}
	if len(got) != len(want) {
		t.Fatalf("Scan() emitted %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if sum.Records != 2 || sum.Skipped != 0 {
		t.Errorf("Summary = %+v, want {Records:2 Skipped:0}", sum)
	}
}

func TestScan_FASTA_CRLF(t *testing.T) {
	input := ">seq1\r\nACGT\r\nACGT\r\n"
	got, _ := collect(t, input, FormatFASTA, ScanConfig{File: "test.fasta"})
	if len(got) != 1 || got[0].Seq != "ACGTACGT" {
		t.Errorf("Scan() = %+v, want one record with seq ACGTACGT", got)
	}
}

func TestScan_FASTA_JunkBeforeHeader(t *testing.T) {
	input := "garbage line\nmore garbage\n>seq1\nACGT\n"

	// Abort policy fails on the first junk line.
	_, err := Scan(context.Background(), strings.NewReader(input), FormatFASTA,
		ScanConfig{File: "test.fasta"}, func(Record) error { return nil })
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Scan() error = %v, want *ParseError", err)
	}
	if perr.Line != 1 {
		t.Errorf("ParseError.Line = %d, want 1", perr.Line)
	}

	// Skip policy counts the junk run once and keeps the real record.
	got, sum := collect(t, input, FormatFASTA, ScanConfig{File: "test.fasta", Policy: PolicySkip})
	if len(got) != 1 || got[0].Name != "seq1" {
		t.Errorf("Scan() = %+v, want just seq1", got)
	}
	if sum.Skipped != 1 {
		t.Errorf("Summary.Skipped = %d, want 1", sum.Skipped)
	}
}

func TestScan_FASTA_EmptyRecord(t *testing.T) {
	input := ">empty\n>seq1\nACGT\n"

	_, err := Scan(context.Background(), strings.NewReader(input), FormatFASTA,
		ScanConfig{File: "test.fasta"}, func(Record) error { return nil })
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Scan() error = %v, want *ParseError", err)
	}

	got, sum := collect(t, input, FormatFASTA, ScanConfig{File: "test.fasta", Policy: PolicySkip})
	if len(got) != 1 || got[0].Name != "seq1" {
		t.Errorf("Scan() = %+v, want just seq1", got)
	}
	if sum.Records != 1 || sum.Skipped != 1 {
		t.Errorf("Summary = %+v, want {Records:1 Skipped:1}", sum)
	}
}

func TestScan_FASTA_EmitError(t *testing.T) {
	sentinel := errors.New("stop")
	_, err := Scan(context.Background(), strings.NewReader(">a\nACGT\n>b\nACGT\n"), FormatFASTA,
		ScanConfig{File: "test.fasta"}, func(Record) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("Scan() error = %v, want %v", err, sentinel)
	}
}

func TestScan_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, strings.NewReader(">a\nACGT\n"), FormatFASTA,
		ScanConfig{File: "test.fasta"}, func(Record) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}
