package preprocess

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestVersion is the current manifest schema version.
const ManifestVersion = 1

const manifestFilename = "manifest.json"

// Manifest records the provenance and outcome of one preprocessing run. It is
// written beside the store even when shards fail, so a partial bank can be
// inspected and rebuilt.
type Manifest struct {
	Version        int          `json:"version"`
	RunID          string       `json:"run_id"`
	Base           string       `json:"base"`
	Planner        string       `json:"planner"`
	Builder        string       `json:"builder"`
	TotalShards    int          `json:"total_shards"`
	Workers        int          `json:"workers"`
	RecordsRead    int64        `json:"records_read"`
	RecordsSkipped int64        `json:"records_skipped"`
	RecordsStored  int64        `json:"records_stored"`
	Sources        []Source     `json:"sources"`
	Shards         []ShardEntry `json:"shards"`
	Balance        Balance      `json:"balance"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
}

// Source names one ingested input and the role it was read under.
type Source struct {
	Path   string `json:"path"`
	Role   string `json:"role"`
	Format string `json:"format"`
}

// ShardEntry is the durable record of one shard's outcome.
type ShardEntry struct {
	Ordinal  int    `json:"ordinal"`
	Records  int64  `json:"records"`
	Artifact string `json:"artifact"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Failed reports how many shards did not reach DONE.
func (m *Manifest) Failed() int {
	n := 0
	for _, s := range m.Shards {
		if s.Status != string(StatusDone) {
			n++
		}
	}
	return n
}

// WriteManifest writes the manifest into the bank directory.
func WriteManifest(dir string, m *Manifest) error {
	path := filepath.Join(dir, manifestFilename)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from a bank directory.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
