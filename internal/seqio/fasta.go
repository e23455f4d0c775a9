package seqio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Scanner buffer sizing. Long-read sequence lines can run to megabytes.
const (
	scanBufSize  = 64 * 1024
	maxLineBytes = 64 * 1024 * 1024
)

// scanFASTA streams header-plus-body records. Sequences may span multiple
// lines; blank lines are ignored.
func scanFASTA(ctx context.Context, r io.Reader, cfg ScanConfig, emit func(Record) error) (Summary, error) {
	var sum Summary
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, scanBufSize), maxLineBytes)

	var (
		header     string
		headerLine int
		seq        strings.Builder
		open       bool
		junked     bool
		line       int
	)

	// flush finalizes the record opened by the last header, if any.
	flush := func() error {
		if !open {
			return nil
		}
		open = false
		name, end := Normalize(header, cfg.Role)
		s := seq.String()
		seq.Reset()
		if s == "" {
			return skipOrFail(cfg, &sum, headerLine, "record has no sequence data")
		}
		sum.Records++
		return emit(Record{Name: name, End: end, Seq: s})
	}

	for sc.Scan() {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if text[0] == '>' {
			if err := flush(); err != nil {
				return sum, err
			}
			header = text[1:]
			headerLine = line
			open = true
			junked = false
			continue
		}
		if !open {
			// Report a run of leading junk once, then scan for a header.
			if !junked {
				junked = true
				if err := skipOrFail(cfg, &sum, line, "sequence data before first header"); err != nil {
					return sum, err
				}
			}
			continue
		}
		seq.WriteString(text)
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("seqio: reading %s: %w", cfg.File, err)
	}
	if err := flush(); err != nil {
		return sum, err
	}
	return sum, nil
}
