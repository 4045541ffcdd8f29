package consensus

import "testing"

func fakeSup(rmsd float64) *Superimposition { return &Superimposition{RMSD: rmsd} }

func TestRegistry_MinOrdersByRMSDThenInsertion(t *testing.T) {
	r := newRegistry(4)
	r.Insert(0, 1, fakeSup(2.0))
	r.Insert(0, 2, fakeSup(0.5))
	r.Insert(1, 2, fakeSup(0.5))
	r.Insert(2, 3, fakeSup(1.0))

	want := [][2]int{{0, 2}, {1, 2}, {2, 3}, {0, 1}}
	for i, w := range want {
		p, ok := r.Min()
		if !ok {
			t.Fatalf("Min %d: registry empty", i)
		}
		if p.a != w[0] || p.b != w[1] {
			t.Errorf("Min %d = (%d,%d), want (%d,%d)", i, p.a, p.b, w[0], w[1])
		}
	}
	if _, ok := r.Min(); ok {
		t.Error("Min on empty registry returned a pair")
	}
}

func TestRegistry_RemoveTouching(t *testing.T) {
	r := newRegistry(6)
	// All pairs of 4 observations.
	for a := 0; a < 4; a++ {
		for b := a + 1; b < 4; b++ {
			r.Insert(a, b, fakeSup(float64(a*4+b)))
		}
	}
	if r.Len() != 6 {
		t.Fatalf("Len = %d, want 6", r.Len())
	}
	if got := r.Touching(2); got != 3 {
		t.Errorf("Touching(2) = %d, want 3", got)
	}

	if removed := r.RemoveTouching(2); removed != 3 {
		t.Errorf("RemoveTouching(2) removed %d, want 3", removed)
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	if got := r.Touching(0); got != 2 {
		t.Errorf("Touching(0) after removal = %d, want 2", got)
	}

	// The popped minimum stays indexed but is no longer pending.
	p, _ := r.Min()
	if p.a != 0 || p.b != 1 {
		t.Fatalf("Min = (%d,%d), want (0,1)", p.a, p.b)
	}
	if removed := r.RemoveTouching(0); removed != 1 {
		t.Errorf("RemoveTouching(0) removed %d, want 1", removed)
	}
	if removed := r.RemoveTouching(1); removed != 1 {
		t.Errorf("RemoveTouching(1) removed %d, want 1", removed)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	for obs, m := range r.byObs {
		for id, p := range m {
			if p.index >= 0 {
				t.Errorf("observation %d still indexes pending pair %d", obs, id)
			}
		}
	}
}

func TestRegistry_HeapIndexStaysConsistent(t *testing.T) {
	r := newRegistry(16)
	for i := 0; i < 16; i++ {
		r.Insert(i, i+1, fakeSup(float64((i*7)%5)))
	}
	r.RemoveTouching(5)
	r.RemoveTouching(11)
	for i, p := range r.heap {
		if p.index != i {
			t.Errorf("heap[%d].index = %d", i, p.index)
		}
	}
	prev := -1.0
	for r.Len() > 0 {
		p, _ := r.Min()
		if p.sup.RMSD < prev {
			t.Errorf("Min returned %g after %g", p.sup.RMSD, prev)
		}
		prev = p.sup.RMSD
	}
}
