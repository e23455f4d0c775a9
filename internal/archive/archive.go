// Package archive defines the sink interface for publishing finished banks
// to remote object storage.
package archive

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Sink publishes a bank directory to a remote destination.
type Sink interface {
	// Upload copies the bank's store, index artifacts, and manifest to the
	// destination, then removes remote files from earlier builds that the
	// new bank no longer contains.
	Upload(ctx context.Context, bankDir string) error

	// Close releases resources.
	Close() error
}

// BankFiles lists the uploadable files of a bank directory: regular files
// only. Dotfiles are skipped, which excludes the build lock and the temp
// workspace.
func BankFiles(bankDir string) ([]string, error) {
	entries, err := os.ReadDir(bankDir)
	if err != nil {
		return nil, fmt.Errorf("archive: reading bank directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
