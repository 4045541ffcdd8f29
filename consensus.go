package consensus

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Result contains the output of a consensus run.
type Result struct {
	// RunID identifies the run in log records.
	RunID uuid.UUID

	// Dendrogram holds every tree created while merging. Its Root is the
	// global consensus.
	Dendrogram *Dendrogram

	// Trace is the RMSD of each merge, in merge order.
	Trace []float64

	// Score is the sum of Trace.
	Score float64

	// Clusters partition the input observations.
	Clusters []Cluster

	// Realigned maps each realigned input observation's node ID to its
	// RMSD against its cluster consensus. It is empty when
	// Config.AlignWithinClusters is false.
	Realigned map[int]float64
}

// Consensus returns the global consensus observation.
func (r *Result) Consensus() *Observation {
	return r.Dendrogram.Node(r.Dendrogram.Root()).Observation
}

// Run builds the consensus dendrogram for observations, splits it into
// clusters at cfg.ClusterCutoff and, if cfg.AlignWithinClusters is set,
// realigns cluster members onto their cluster consensus in place.
//
// Any pair that cannot be superimposed aborts the run; no partial result
// is returned.
func Run(ctx context.Context, observations []*Observation, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	runID := uuid.New()
	cfg.Logger = cfg.Logger.With(slog.String("run_id", runID.String()))

	b, err := Build(ctx, observations, cfg)
	if err != nil {
		return nil, err
	}

	d := b.Dendrogram()
	clusters := Split(d, d.Root(), cfg.ClusterCutoff)
	cfg.Metrics.observeClusters(len(clusters))
	cfg.Logger.Info("consensus: split dendrogram",
		slog.Float64("cutoff", cfg.ClusterCutoff),
		slog.Int("clusters", len(clusters)),
	)

	result := &Result{
		RunID:      runID,
		Dendrogram: d,
		Trace:      b.Trace(),
		Score:      b.Score(),
		Clusters:   clusters,
		Realigned:  map[int]float64{},
	}

	if cfg.AlignWithinClusters {
		result.Realigned, err = Realign(ctx, d, clusters, cfg)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
