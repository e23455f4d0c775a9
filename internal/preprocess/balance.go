package preprocess

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Balance summarizes how evenly records spread across shards. CV is the
// coefficient of variation (stddev over mean); near zero means balanced.
type Balance struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	CV     float64 `json:"cv"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
}

// balanceOf computes spread statistics over per-shard record counts.
func balanceOf(outcomes []ShardOutcome) Balance {
	if len(outcomes) == 0 {
		return Balance{}
	}

	counts := make([]float64, len(outcomes))
	b := Balance{Min: outcomes[0].Records, Max: outcomes[0].Records}
	for i, o := range outcomes {
		counts[i] = float64(o.Records)
		if o.Records < b.Min {
			b.Min = o.Records
		}
		if o.Records > b.Max {
			b.Max = o.Records
		}
	}

	b.Mean = stat.Mean(counts, nil)
	if len(counts) > 1 {
		b.StdDev = stat.StdDev(counts, nil)
	}
	if b.Mean > 0 {
		b.CV = b.StdDev / b.Mean
	}
	return b
}

// logBalance reports the shard spread after materialization.
func (p *Preprocessor) logBalance(report *Report) {
	p.logger.Info("shard balance",
		zap.Int("shards", report.TotalShards),
		zap.Float64("mean", report.Balance.Mean),
		zap.Float64("stddev", report.Balance.StdDev),
		zap.Float64("cv", report.Balance.CV),
		zap.Int64("min", report.Balance.Min),
		zap.Int64("max", report.Balance.Max))
}
