package consensus

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestRealign_MovesMembersOntoConsensus(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	base := randomObservation(rng, "base", 4)
	var observations []*Observation
	for i := 0; i < 5; i++ {
		observations = append(observations, jitter(rng, base, randomTransform(rng), 0.05, ""))
	}

	b, err := Build(context.Background(), observations, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := b.Dendrogram()
	clusters := Split(d, d.Root(), math.Inf(1))
	ref := d.Node(d.Root()).Observation

	rmsd, err := Realign(context.Background(), d, clusters, DefaultConfig())
	if err != nil {
		t.Fatalf("Realign: %v", err)
	}
	if len(rmsd) != 5 {
		t.Fatalf("realigned %d observations, want 5", len(rmsd))
	}

	// After realignment each member already sits on the consensus: the
	// optimal transform is the identity and the RMSD is unchanged.
	for _, o := range observations {
		sup, err := Superimposer{}.SuperimposeObservations(ref, o)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range sup.Pairs {
			if !pointsAlmostEqual(sup.Mapped[i], sup.Pairs[i].Candidate, 1e-6) {
				t.Fatalf("point %d moved by %v after realignment", i, r3.Sub(sup.Mapped[i], sup.Pairs[i].Candidate))
			}
		}
	}

	again, err := Realign(context.Background(), d, clusters, DefaultConfig())
	if err != nil {
		t.Fatalf("second Realign: %v", err)
	}
	for id, r := range rmsd {
		if !almostEqual(again[id], r, 1e-6) {
			t.Errorf("observation %d: second realignment RMSD %g, first %g", id, again[id], r)
		}
	}
}

func TestRealign_SingletonsUntouched(t *testing.T) {
	observations := scenarioObservations()
	before := make([]*Observation, len(observations))
	for i, o := range observations {
		before[i] = o.Clone()
	}

	b, err := Build(context.Background(), observations, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := b.Dendrogram()
	clusters := Split(d, d.Root(), b.Trace()[1]/4)

	rmsd, err := Realign(context.Background(), d, clusters, DefaultConfig())
	if err != nil {
		t.Fatalf("Realign: %v", err)
	}
	if _, ok := rmsd[2]; ok {
		t.Error("singleton observation 2 was realigned")
	}
	if !observations[2].Equal(before[2]) {
		t.Error("singleton observation 2 changed")
	}

	// O1 and O2 are exact copies, so both land on the same coordinates.
	for i := range observations[0].Leaves[0].Points {
		p := observations[0].Leaves[0].Points[i]
		q, ok := observations[1].Leaves[0].Get(p.Name)
		if !ok || !pointsAlmostEqual(p.Position, q.Position, 1e-6) {
			t.Errorf("atom %s: O1 at %v, O2 at %v", p.Name, p.Position, q.Position)
		}
	}
}

func TestRealign_MovesNonCorrespondingPoints(t *testing.T) {
	o1 := obs("o1", NewLeafGroup(np("A", 0, 0, 0), np("B", 1, 0, 0), np("C", 0, 1, 0)))
	o2 := o1.Clone()
	tr := Transform{Rotation: axisRotation(pt(1, 1, 0), 1.0), Translation: pt(3, -2, 7)}
	tr.ApplyObservation(o2)
	// H is only present in o2 and is carried along rigidly.
	o2.Leaves[0].Set(NamedPoint{Name: "H", Position: tr.Apply(pt(0, 0, 1))})

	cfg := DefaultConfig()
	cfg.ClusterCutoff = math.Inf(1)
	if _, err := Run(context.Background(), []*Observation{o1, o2}, cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	h, _ := o2.Leaves[0].Get("H")
	a1, _ := o1.Leaves[0].Get("A")
	a2, _ := o2.Leaves[0].Get("A")
	if !pointsAlmostEqual(a1.Position, a2.Position, 1e-6) {
		t.Fatalf("A: o1 at %v, o2 at %v", a1.Position, a2.Position)
	}
	if !pointsAlmostEqual(r3.Sub(h.Position, a2.Position), pt(0, 0, 1), 1e-6) {
		t.Errorf("H relative to A = %v, want (0,0,1)", r3.Sub(h.Position, a2.Position))
	}
}
