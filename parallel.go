package consensus

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelFor calls fn(ctx, i) for every i in [0, n) using up to
// numWorkers goroutines. Each worker handles a contiguous range of
// indices, so fn may write to slot i of a shared slice without
// synchronization. The first error cancels ctx for the remaining calls and
// is returned.
//
// With numWorkers <= 1 the calls run sequentially in index order.
func parallelFor(ctx context.Context, n, numWorkers int, fn func(ctx context.Context, i int) error) error {
	if numWorkers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	perWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * perWorker
		end := min(start+perWorker, n)
		if start >= n {
			break
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(gctx, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// superimposeAll computes the superimposition of every job's candidate onto
// its reference. Results are returned in job order.
// The numWorkers budget is shared with the ideal permutation search of each
// job.
func superimposeAll(ctx context.Context, s Superimposer, jobs []superimposeJob, numWorkers int) ([]*Superimposition, error) {
	outer, inner := splitWorkers(numWorkers, len(jobs))
	if outer > 1 {
		s.Workers = inner
	}
	out := make([]*Superimposition, len(jobs))
	err := parallelFor(ctx, len(jobs), outer, func(ctx context.Context, i int) error {
		j := jobs[i]
		sup, err := s.Superimpose(ctx, j.reference, j.candidate)
		if err != nil {
			return &PairError{Reference: j.refID, Candidate: j.candID, Err: err}
		}
		out[i] = sup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// splitWorkers divides numWorkers between n jobs running concurrently and
// the goroutines each job may start.
func splitWorkers(numWorkers, n int) (outer, inner int) {
	outer = max(1, min(numWorkers, n))
	return outer, max(1, numWorkers/outer)
}

type superimposeJob struct {
	refID, candID        int
	reference, candidate *Observation
}
