package consensus

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync/atomic"
	"testing"
)

func TestParallelFor_VisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 2, 4, 16} {
		n := 10
		counts := make([]int32, n)
		err := parallelFor(context.Background(), n, workers, func(_ context.Context, i int) error {
			atomic.AddInt32(&counts[i], 1)
			return nil
		})
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		for i, c := range counts {
			if c != 1 {
				t.Errorf("workers=%d: index %d visited %d times, want 1", workers, i, c)
			}
		}
	}
}

func TestParallelFor_Empty(t *testing.T) {
	called := false
	err := parallelFor(context.Background(), 0, 4, func(context.Context, int) error {
		called = true
		return nil
	})
	if err != nil || called {
		t.Errorf("n=0: err=%v called=%v, want nil, false", err, called)
	}
}

func TestParallelFor_ReturnsError(t *testing.T) {
	boom := errors.New("boom")
	for _, workers := range []int{1, 3} {
		err := parallelFor(context.Background(), 9, workers, func(_ context.Context, i int) error {
			if i == 4 {
				return boom
			}
			return nil
		})
		if !errors.Is(err, boom) {
			t.Errorf("workers=%d: got %v, want boom", workers, err)
		}
	}
}

func TestParallelFor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 3} {
		err := parallelFor(ctx, 5, workers, func(context.Context, int) error { return nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: got %v, want context.Canceled", workers, err)
		}
	}
}

func TestSuperimposeAll_MatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	var observations []*Observation
	for i := 0; i < 6; i++ {
		observations = append(observations, randomObservation(rng, "", 3))
	}
	var jobs []superimposeJob
	for i := range observations {
		for j := i + 1; j < len(observations); j++ {
			jobs = append(jobs, superimposeJob{refID: i, candID: j, reference: observations[i], candidate: observations[j]})
		}
	}

	sequential, err := superimposeAll(context.Background(), Superimposer{}, jobs, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parallel, err := superimposeAll(context.Background(), Superimposer{}, jobs, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range jobs {
		if sequential[i].RMSD != parallel[i].RMSD {
			t.Errorf("job %d: parallel RMSD %v, sequential %v (bitwise)", i, parallel[i].RMSD, sequential[i].RMSD)
		}
		if parallel[i].Reference != jobs[i].reference || parallel[i].Candidate != jobs[i].candidate {
			t.Errorf("job %d: result out of order", i)
		}
	}
}

func TestSplitWorkers(t *testing.T) {
	tests := []struct {
		workers, jobs int
		outer, inner  int
	}{
		{8, 28, 8, 1},
		{8, 2, 2, 4},
		{8, 1, 1, 8},
		{8, 0, 1, 8},
		{3, 2, 2, 1},
		{1, 10, 1, 1},
		{0, 10, 1, 1},
	}
	for _, tt := range tests {
		outer, inner := splitWorkers(tt.workers, tt.jobs)
		if outer != tt.outer || inner != tt.inner {
			t.Errorf("splitWorkers(%d, %d) = %d, %d, want %d, %d",
				tt.workers, tt.jobs, outer, inner, tt.outer, tt.inner)
		}
		if outer*inner > max(tt.workers, 1) {
			t.Errorf("splitWorkers(%d, %d): %d goroutines exceed the budget", tt.workers, tt.jobs, outer*inner)
		}
	}
}

func TestSuperimposeAll_IdealSharesWorkerBudget(t *testing.T) {
	leafA := NewLeafGroup(np("X", 0, 0, 0), np("Y", 1, 0, 0))
	leafB := NewLeafGroup(np("X", 0, 2, 0), np("Y", 0, 3, 1))
	ref := obs("ref", leafA, leafB)
	jobs := []superimposeJob{
		{refID: 0, candID: 1, reference: ref, candidate: obs("c1", leafB.clone(), leafA.clone())},
		{refID: 0, candID: 2, reference: ref, candidate: obs("c2", leafA.clone(), leafB.clone())},
	}

	sups, err := superimposeAll(context.Background(), Superimposer{Ideal: true, Workers: 6}, jobs, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range [][]int{{1, 0}, {0, 1}} {
		if !slices.Equal(sups[i].Permutation, want) {
			t.Errorf("job %d: Permutation = %v, want %v", i, sups[i].Permutation, want)
		}
		if !almostEqual(sups[i].RMSD, 0, rmsdTol) {
			t.Errorf("job %d: RMSD = %g, want 0", i, sups[i].RMSD)
		}
	}
}
