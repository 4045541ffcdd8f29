package consensus

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// State is the phase of a Builder.
type State int

const (
	StateInitializing State = iota
	StateMerging
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateMerging:
		return "merging"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Builder constructs the consensus dendrogram by repeatedly merging the
// closest pair of active observations.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	sup     Superimposer
	workers int
	logger  *slog.Logger
	metrics *Metrics

	state      State
	dendrogram *Dendrogram
	reg        *registry
	// active holds the IDs of unmerged observations in creation order.
	active []int

	trace []float64
	score float64
}

// NewBuilder returns a Builder for observations. All observations must have
// the same number of leaves.
func NewBuilder(observations []*Observation, cfg Config) (*Builder, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if err := checkObservations(observations); err != nil {
		return nil, err
	}

	n := len(observations)
	active := make([]int, n)
	for i := range active {
		active[i] = i
	}
	return &Builder{
		sup:        cfg.superimposer(),
		workers:    cfg.Workers,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		dendrogram: newDendrogram(observations),
		reg:        newRegistry(n * (n - 1) / 2),
		active:     active,
	}, nil
}

// State returns the builder's current phase.
func (b *Builder) State() State { return b.state }

// Dendrogram returns the dendrogram built so far.
func (b *Builder) Dendrogram() *Dendrogram { return b.dendrogram }

// Trace returns the RMSD of every merge so far, in merge order.
func (b *Builder) Trace() []float64 { return slices.Clone(b.trace) }

// Score returns the sum of all merge RMSDs so far.
func (b *Builder) Score() float64 { return b.score }

// Active returns the IDs of observations not yet merged.
func (b *Builder) Active() []int { return slices.Clone(b.active) }

// Pending returns the number of pairs awaiting a merge.
func (b *Builder) Pending() int { return b.reg.Len() }

// Run initializes the builder if needed and merges until one observation
// remains.
func (b *Builder) Run(ctx context.Context) error {
	if b.state == StateInitializing {
		if err := b.Initialize(ctx); err != nil {
			return err
		}
	}
	for b.state != StateDone {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Initialize superimposes every pair of input observations and moves the
// builder to the merging phase. Any pair that cannot be superimposed
// aborts initialization.
func (b *Builder) Initialize(ctx context.Context) error {
	if b.state != StateInitializing {
		return fmt.Errorf("consensus: Initialize called in state %s", b.state)
	}

	n := len(b.active)
	jobs := make([]superimposeJob, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			jobs = append(jobs, b.job(i, j))
		}
	}

	sups, err := superimposeAll(ctx, b.sup, jobs, b.workers)
	if err != nil {
		return err
	}
	for k, s := range sups {
		b.reg.Insert(jobs[k].refID, jobs[k].candID, s)
	}
	b.metrics.observeSuperimpositions(len(sups))

	b.logger.Info("consensus: initialized",
		slog.Int("observations", n),
		slog.Int("pairs", b.reg.Len()),
	)

	b.state = StateMerging
	if n <= 1 {
		b.state = StateDone
	}
	return nil
}

func (b *Builder) job(ref, cand int) superimposeJob {
	return superimposeJob{
		refID:     ref,
		candID:    cand,
		reference: b.dendrogram.nodes[ref].Observation,
		candidate: b.dendrogram.nodes[cand].Observation,
	}
}

// Step merges the closest pair of active observations into a consensus.
func (b *Builder) Step(ctx context.Context) error {
	if b.state != StateMerging {
		return fmt.Errorf("consensus: Step called in state %s", b.state)
	}

	p, ok := b.reg.Min()
	if !ok {
		return fmt.Errorf("%w: no pending pair with %d active observations", ErrInconsistentDendrogram, len(b.active))
	}
	left, right, err := b.lookup(p)
	if err != nil {
		return err
	}

	rmsd := p.sup.RMSD
	consensus := p.sup.Consensus()
	id := b.dendrogram.merge(consensus, left.ID, right.ID, rmsd)
	left, right = b.dendrogram.Node(left.ID), b.dendrogram.Node(right.ID)
	left.Distance += rmsd / 2
	right.Distance += rmsd / 2

	b.reg.RemoveTouching(p.a)
	b.reg.RemoveTouching(p.b)
	b.active = slices.DeleteFunc(b.active, func(x int) bool { return x == p.a || x == p.b })

	jobs := make([]superimposeJob, len(b.active))
	for k, other := range b.active {
		jobs[k] = b.job(id, other)
	}
	sups, err := superimposeAll(ctx, b.sup, jobs, b.workers)
	if err != nil {
		return err
	}
	for k, s := range sups {
		b.reg.Insert(id, jobs[k].candID, s)
	}
	b.active = append(b.active, id)
	b.metrics.observeSuperimpositions(len(sups))

	if k := len(b.active); b.reg.Len() != k*(k-1)/2 {
		return fmt.Errorf("%w: %d pending pairs for %d active observations", ErrInconsistentDendrogram, b.reg.Len(), k)
	}

	b.trace = append(b.trace, rmsd)
	b.score += rmsd
	b.metrics.observeMerge(rmsd)

	b.logger.Debug("consensus: merged",
		slog.Int("left", left.ID),
		slog.Int("right", right.ID),
		slog.Int("consensus", id),
		slog.Float64("rmsd", rmsd),
		slog.Int("active", len(b.active)),
	)

	if len(b.active) == 1 {
		b.state = StateDone
		b.logger.Info("consensus: dendrogram complete",
			slog.Int("merges", len(b.trace)),
			slog.Float64("score", b.score),
		)
	}
	return nil
}

// lookup returns the dendrogram nodes of the pair's two observations.
func (b *Builder) lookup(p *pair) (left, right *Node, err error) {
	for _, id := range []int{p.a, p.b} {
		if id < 0 || id >= b.dendrogram.Len() || !slices.Contains(b.active, id) {
			return nil, nil, fmt.Errorf("%w: pair %d references inactive observation %d", ErrInconsistentDendrogram, p.id, id)
		}
	}
	left, right = b.dendrogram.Node(p.a), b.dendrogram.Node(p.b)
	if left.Observation != p.sup.Reference || right.Observation != p.sup.Candidate {
		return nil, nil, fmt.Errorf("%w: pair %d does not match nodes %d and %d", ErrInconsistentDendrogram, p.id, p.a, p.b)
	}
	return left, right, nil
}

// Build runs a Builder over observations to completion.
func Build(ctx context.Context, observations []*Observation, cfg Config) (*Builder, error) {
	b, err := NewBuilder(observations, cfg)
	if err != nil {
		return nil, err
	}
	if err := b.Run(ctx); err != nil {
		return nil, err
	}
	return b, nil
}
