package consensus

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config controls consensus construction, clustering and realignment.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// ClusterCutoff is the consensus distance above which a dendrogram
	// branch is split off into its own cluster. +Inf keeps everything in
	// one cluster. Must be >= 0. Default: 0.5.
	ClusterCutoff float64 `json:"cluster_cutoff" yaml:"cluster_cutoff"`

	// AlignWithinClusters realigns every member of a multi-member cluster
	// onto the cluster's consensus, overwriting its coordinates.
	// Default: true.
	AlignWithinClusters bool `json:"align_within_clusters" yaml:"align_within_clusters"`

	// Ideal searches all candidate leaf orderings for every
	// superimposition, including the initial pairwise setup and
	// realignment, not only the superimposition of a new consensus. Cost
	// grows factorially with the number of leaves.
	// Default: false.
	Ideal bool `json:"ideal" yaml:"ideal"`

	// Workers controls the number of goroutines for the pairwise setup,
	// the refresh after each merge, the ideal permutation search and
	// realignment. 0 means use runtime.NumCPU().
	Workers int `json:"workers" yaml:"workers"`

	// Atoms, when non-empty and AtomFilter is nil, restricts
	// superimposition to points with these names.
	Atoms []string `json:"atoms,omitempty" yaml:"atoms,omitempty"`

	// Representative, when set and Scheme is nil, reduces every leaf to the
	// point with this name.
	Representative string `json:"representative,omitempty" yaml:"representative,omitempty"`

	// AtomFilter restricts which points take part in superimposition.
	// Nil accepts all.
	AtomFilter AtomFilter `json:"-" yaml:"-"`

	// Scheme reduces each leaf to a single representative point.
	Scheme RepresentationScheme `json:"-" yaml:"-"`

	// Logger receives progress records. Nil discards them.
	Logger *slog.Logger `json:"-" yaml:"-"`

	// Metrics records pipeline activity. Nil disables metrics.
	Metrics *Metrics `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		ClusterCutoff:       0.5,
		AlignWithinClusters: true,
	}
}

// ParseConfig decodes a YAML document over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("consensus: parsing config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("consensus: reading config: %w", err)
	}
	return ParseConfig(data)
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if math.IsNaN(cfg.ClusterCutoff) || cfg.ClusterCutoff < 0 {
		return fmtInvalid("ClusterCutoff must be >= 0, got %f", cfg.ClusterCutoff)
	}
	if cfg.Workers < 0 {
		return fmtInvalid("Workers must be >= 0 (0 means runtime.NumCPU()), got %d", cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.AtomFilter == nil && len(cfg.Atoms) > 0 {
		cfg.AtomFilter = AtomNames(cfg.Atoms...)
	}
	if cfg.Scheme == nil && cfg.Representative != "" {
		cfg.Scheme = RepresentativeAtom(cfg.Representative)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// superimposer returns the Superimposer described by cfg.
func (cfg *Config) superimposer() Superimposer {
	return Superimposer{
		Resolver: Resolver{Filter: cfg.AtomFilter, Scheme: cfg.Scheme},
		Ideal:    cfg.Ideal,
		Workers:  cfg.Workers,
	}
}
