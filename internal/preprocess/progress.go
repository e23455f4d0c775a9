package preprocess

import (
	"fmt"
	"time"
)

// Progress tracks pipeline progress.
type Progress struct {
	Phase           string
	BytesDownloaded int64
	BytesTotal      int64
	RecordsRead     int64
	RecordsSkipped  int64
	ShardsDone      int
	ShardsFailed    int
	ShardsTotal     int
	StartTime       time.Time
	Error           error
}

// ProgressFunc is called periodically with progress updates.
type ProgressFunc func(Progress)

// FormatBytes formats bytes as human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// DefaultProgressFunc prints progress to stdout.
func DefaultProgressFunc(p Progress) {
	switch p.Phase {
	case "download":
		pct := float64(0)
		if p.BytesTotal > 0 {
			pct = float64(p.BytesDownloaded) / float64(p.BytesTotal) * 100
		}
		fmt.Printf("\r[Download] %s / %s (%.1f%%)",
			FormatBytes(p.BytesDownloaded), FormatBytes(p.BytesTotal), pct)
	case "ingest":
		fmt.Printf("\r[Ingest] %d records read, %d skipped", p.RecordsRead, p.RecordsSkipped)
	case "index":
		fmt.Printf("\n[Index] indexing %d records", p.RecordsRead)
	case "plan":
		fmt.Printf("\n[Plan] cutting %d shards", p.ShardsTotal)
	case "shard":
		fmt.Printf("\r[Shard] %d / %d built, %d failed",
			p.ShardsDone, p.ShardsTotal, p.ShardsFailed)
	case "done":
		elapsed := time.Since(p.StartTime)
		fmt.Printf("\n[Done] %d shards in %s\n", p.ShardsTotal, FormatDuration(elapsed))
	case "error":
		fmt.Printf("\n[Error] %v\n", p.Error)
	}
}
