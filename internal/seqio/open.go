package seqio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/targetasm/readbank/internal/codec"
)

// multiReadCloser closes a stack of readers in order.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open opens a read file, transparently decompressing gzip or zstd content
// by sniffing the leading bytes. The path "-" selects standard input.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		dec, err := codec.Detect(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("seqio: reading stdin: %w", err)
		}
		return dec, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seqio: opening %s: %w", path, err)
	}
	dec, err := codec.Detect(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("seqio: opening %s: %w", path, err)
	}
	return &multiReadCloser{Reader: dec, closers: []io.Closer{dec, f}}, nil
}

// DetectFormat infers the read format from a file name, looking through a
// trailing compression extension. Files ending .fq or .fastq are FASTQ;
// everything else is treated as FASTA. Standard input defaults to FASTA.
func DetectFormat(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range []string{".gz", ".zst", ".zstd"} {
		name = strings.TrimSuffix(name, ext)
	}
	if strings.HasSuffix(name, ".fq") || strings.HasSuffix(name, ".fastq") {
		return FormatFASTQ
	}
	return FormatFASTA
}
