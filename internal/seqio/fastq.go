package seqio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// scanFASTQ streams fixed 4-line records: '@'-header, sequence, '+'
// separator, and a quality line whose length must equal the sequence's.
// Quality values are discarded. On a malformed header line the scanner
// resynchronizes one line at a time.
func scanFASTQ(ctx context.Context, r io.Reader, cfg ScanConfig, emit func(Record) error) (Summary, error) {
	var sum Summary
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, scanBufSize), maxLineBytes)

	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return strings.TrimSpace(sc.Text()), true
	}

	for {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		head, ok := next()
		if !ok {
			break
		}
		if head == "" {
			continue
		}
		recLine := line
		if head[0] != '@' {
			if err := skipOrFail(cfg, &sum, recLine, "record header does not start with '@'"); err != nil {
				return sum, err
			}
			continue
		}

		seq, ok1 := next()
		sep, ok2 := next()
		qual, ok3 := next()
		if !ok1 || !ok2 || !ok3 {
			if err := skipOrFail(cfg, &sum, recLine, "truncated record at end of file"); err != nil {
				return sum, err
			}
			break
		}
		if sep == "" || sep[0] != '+' {
			if err := skipOrFail(cfg, &sum, recLine, "separator line does not start with '+'"); err != nil {
				return sum, err
			}
			continue
		}
		if seq == "" {
			if err := skipOrFail(cfg, &sum, recLine, "record has no sequence data"); err != nil {
				return sum, err
			}
			continue
		}
		if len(qual) != len(seq) {
			reason := fmt.Sprintf("quality length %d does not match sequence length %d", len(qual), len(seq))
			if err := skipOrFail(cfg, &sum, recLine, reason); err != nil {
				return sum, err
			}
			continue
		}

		name, end := Normalize(head[1:], cfg.Role)
		sum.Records++
		if err := emit(Record{Name: name, End: end, Seq: seq}); err != nil {
			return sum, err
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("seqio: reading %s: %w", cfg.File, err)
	}
	return sum, nil
}
