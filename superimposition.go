package consensus

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/combin"
)

// maxPermutedLeaves is the largest leaf count whose permutation count fits
// in an int.
const maxPermutedLeaves = 20

// Superimposition is the immutable result of superimposing a candidate
// observation onto a reference observation.
type Superimposition struct {
	RMSD      float64
	Transform Transform

	Reference *Observation
	Candidate *Observation

	// Permutation is the candidate leaf order used in ideal mode: leaf i of
	// the aligned candidate is leaf Permutation[i] of Candidate. It is nil
	// in default mode.
	Permutation []int

	// Pairs holds the corresponding points, with candidate points in their
	// original frame.
	Pairs Correspondence

	// Mapped holds the candidate points of Pairs after Transform.
	Mapped []Point
}

// MappedCandidate returns the aligned candidate points grouped into leaf
// groups, one per reference leaf. Leaf positions that contributed no pair
// are empty.
func (s *Superimposition) MappedCandidate() []LeafGroup {
	leaves := make([]LeafGroup, s.Reference.Len())
	for i, p := range s.Pairs {
		leaves[p.Leaf].Points = append(leaves[p.Leaf].Points, NamedPoint{Name: p.Name, Position: s.Mapped[i]})
	}
	return leaves
}

// Consensus returns a new observation whose points are the midpoints of
// each reference point and its aligned candidate point.
func (s *Superimposition) Consensus() *Observation {
	c := &Observation{Leaves: make([]LeafGroup, s.Reference.Len())}
	for i, p := range s.Pairs {
		mid := r3.Scale(0.5, r3.Add(p.Reference, s.Mapped[i]))
		c.Leaves[p.Leaf].Points = append(c.Leaves[p.Leaf].Points, NamedPoint{Name: p.Name, Position: mid})
	}
	return c
}

// Superimposer superimposes observations.
type Superimposer struct {
	Resolver

	// Ideal enables the permutation search over candidate leaf orders.
	Ideal bool

	// Workers bounds the goroutines used by the permutation search. Values
	// <= 1 search sequentially.
	Workers int
}

// Superimpose superimposes candidate onto reference, in ideal mode if
// s.Ideal is set.
func (s Superimposer) Superimpose(ctx context.Context, reference, candidate *Observation) (*Superimposition, error) {
	if s.Ideal {
		return s.SuperimposeIdeal(ctx, reference, candidate)
	}
	return s.SuperimposeObservations(reference, candidate)
}

// SuperimposeObservations resolves point correspondence between reference
// and candidate and computes their optimal superimposition.
func (s Superimposer) SuperimposeObservations(reference, candidate *Observation) (*Superimposition, error) {
	pairs, err := s.Resolve(reference, candidate)
	if err != nil {
		return nil, err
	}
	ref, cand := pairs.Points()
	fit, err := Superimpose(ref, cand)
	if err != nil {
		return nil, err
	}
	return &Superimposition{
		RMSD:      fit.RMSD,
		Transform: fit.Transform,
		Reference: reference,
		Candidate: candidate,
		Pairs:     pairs,
		Mapped:    fit.Mapped,
	}, nil
}

// SuperimposeIdeal tries every ordering of the candidate's leaves and
// returns the superimposition with the lowest RMSD. Orderings are
// enumerated lexicographically and ties go to the first ordering in that
// order, so the result does not depend on Workers.
//
// Orderings without any corresponding points are skipped. If none can be
// superimposed, the error wraps ErrSuperimposition.
func (s Superimposer) SuperimposeIdeal(ctx context.Context, reference, candidate *Observation) (*Superimposition, error) {
	n := candidate.Len()
	if reference.Len() != n {
		return nil, fmtInvalid("observations have %d and %d leaves", reference.Len(), n)
	}
	if n > maxPermutedLeaves {
		return nil, fmtInvalid("ideal superimposition of %d leaves exceeds the limit of %d", n, maxPermutedLeaves)
	}

	total := combin.NumPermutations(n, n)
	workers := max(1, min(s.Workers, total))
	chunk := (total + workers - 1) / workers

	// Each worker keeps the best result of its own contiguous range of
	// permutation indices; ranges are reduced in index order afterwards.
	best := make([]*Superimposition, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, total)
		if start >= end {
			break
		}
		g.Go(func() error {
			perm := make([]int, n)
			for k := start; k < end; k++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				combin.IndexToPermutation(perm, k, n, n)
				sup, err := s.SuperimposeObservations(reference, candidate.permuted(perm))
				switch {
				case err == nil:
					if best[w] == nil || sup.RMSD < best[w].RMSD {
						sup.Candidate = candidate
						sup.Permutation = slices.Clone(perm)
						best[w] = sup
					}
				case errors.Is(err, ErrNoCommonAtoms), errors.Is(err, ErrDegenerateInput):
				default:
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result *Superimposition
	for _, b := range best {
		if b != nil && (result == nil || b.RMSD < result.RMSD) {
			result = b
		}
	}
	if result == nil {
		return nil, fmt.Errorf("%w: none of %d leaf orderings share an accepted atom", ErrSuperimposition, total)
	}
	return result, nil
}
