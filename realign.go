package consensus

import (
	"context"
	"fmt"
	"log/slog"
)

// Realign superimposes every member of each multi-member cluster onto the
// cluster's consensus and moves all of the member's points by the
// resulting transform. Singleton clusters are left untouched. Member
// observations are modified in place.
//
// It returns the RMSD of each realigned member against its consensus,
// keyed by node ID.
func Realign(ctx context.Context, d *Dendrogram, clusters []Cluster, cfg Config) (map[int]float64, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	var jobs []superimposeJob
	for _, c := range clusters {
		if c.Size() <= 1 {
			continue
		}
		ref := d.Node(c.Root).Observation
		for _, m := range c.Members {
			n := d.Node(m)
			if !n.IsLeaf() {
				return nil, fmt.Errorf("%w: cluster %d member %d is not a leaf", ErrInconsistentDendrogram, c.Root, m)
			}
			jobs = append(jobs, superimposeJob{refID: c.Root, candID: m, reference: ref, candidate: n.Observation})
		}
	}

	sups, err := superimposeAll(ctx, cfg.superimposer(), jobs, cfg.Workers)
	if err != nil {
		return nil, err
	}

	rmsd := make(map[int]float64, len(sups))
	for k, s := range sups {
		s.Transform.ApplyObservation(jobs[k].candidate)
		rmsd[jobs[k].candID] = s.RMSD
	}
	cfg.Metrics.observeSuperimpositions(len(sups))
	cfg.Metrics.observeRealigned(len(sups))
	cfg.Logger.Info("consensus: realigned clusters", slog.Int("observations", len(sups)))
	return rmsd, nil
}
