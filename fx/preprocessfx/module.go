// Package preprocessfx provides an fx module for the preprocessing pipeline,
// configured from the environment. Useful for bank-building jobs.
package preprocessfx

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/targetasm/readbank/internal/indexer/blastdb"
	"github.com/targetasm/readbank/internal/partition"
	"github.com/targetasm/readbank/internal/partition/hashplan"
	"github.com/targetasm/readbank/internal/partition/rangeplan"
	"github.com/targetasm/readbank/internal/preprocess"
	"github.com/targetasm/readbank/internal/seqio"
	"github.com/targetasm/readbank/internal/stats"
	promstats "github.com/targetasm/readbank/internal/stats/prometheus"
)

// Config holds configuration for a preprocessing run. List values are
// comma-separated in the environment.
type Config struct {
	// BankDir is the output bank directory.
	BankDir string `envconfig:"READBANK_BANK_DIR" default:"./bank"`

	// Base names the store, shard files, and artifacts.
	Base string `envconfig:"READBANK_BASE" default:"reads"`

	End1   []string `envconfig:"READBANK_END1"`
	End2   []string `envconfig:"READBANK_END2"`
	Single []string `envconfig:"READBANK_SINGLE"`
	Mixed  []string `envconfig:"READBANK_MIXED"`
	Long   []string `envconfig:"READBANK_LONG"`

	// Shards is the shard count; zero derives it from input size.
	Shards int `envconfig:"READBANK_SHARDS"`

	// Workers bounds the parallel shard builds.
	Workers int `envconfig:"READBANK_WORKERS" default:"4"`

	// Planner is the partitioning policy: "range" or "hash".
	Planner string `envconfig:"READBANK_PLANNER" default:"range"`

	// SkipMalformed skips malformed records instead of aborting.
	SkipMalformed bool `envconfig:"READBANK_SKIP_MALFORMED"`

	// MakeblastdbExe is the index builder executable.
	MakeblastdbExe string `envconfig:"READBANK_MAKEBLASTDB" default:"makeblastdb"`
}

// ConfigFromEnv loads Config from READBANK_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config from env: %w", err)
	}
	return cfg, nil
}

// Module provides a configured preprocessing pipeline and a Prometheus
// registry carrying its metrics.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("preprocess",
	fx.Provide(
		newRegistry,
		newStatsCollector,
		newPreprocessor,
	),
)

func newRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func newStatsCollector(registry *prometheus.Registry) stats.Collector {
	return promstats.New(registry)
}

// Params holds dependencies for creating the pipeline.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
}

// Result holds the provided pipeline.
type Result struct {
	fx.Out

	Preprocessor *preprocess.Preprocessor
}

func newPreprocessor(p Params) (Result, error) {
	var planner partition.Planner
	switch p.Config.Planner {
	case "range":
		planner = rangeplan.New()
	case "hash":
		planner = hashplan.New()
	default:
		return Result{}, fmt.Errorf("unknown planner: %s", p.Config.Planner)
	}

	var inputs []preprocess.Input
	add := func(paths []string, role seqio.Role) {
		for _, path := range paths {
			inputs = append(inputs, preprocess.Input{Path: path, Role: role})
		}
	}
	add(p.Config.End1, seqio.RolePair1)
	add(p.Config.End2, seqio.RolePair2)
	add(p.Config.Single, seqio.RoleSingle)
	add(p.Config.Mixed, seqio.RoleMixed)
	add(p.Config.Long, seqio.RoleLong)
	if len(inputs) == 0 {
		return Result{}, fmt.Errorf("no input files configured")
	}

	policy := seqio.PolicyAbort
	if p.Config.SkipMalformed {
		policy = seqio.PolicySkip
	}

	logger := p.Logger.Named("preprocess")
	pre := preprocess.New(p.Config.BankDir, p.Config.Base, inputs,
		preprocess.WithShards(p.Config.Shards),
		preprocess.WithWorkers(p.Config.Workers),
		preprocess.WithPlanner(planner),
		preprocess.WithBuilder(blastdb.New(
			blastdb.WithExe(p.Config.MakeblastdbExe),
			blastdb.WithLogger(logger),
		)),
		preprocess.WithPolicy(policy),
		preprocess.WithLogger(logger),
		preprocess.WithCollector(p.Collector),
	)

	return Result{Preprocessor: pre}, nil
}
