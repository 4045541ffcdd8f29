package consensus

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a 3D coordinate.
type Point = r3.Vec

// NamedPoint is a named atom. Names, not positions, define correspondence
// across observations.
type NamedPoint struct {
	Name     string `json:"name" yaml:"name"`
	Position Point  `json:"position" yaml:"position"`
}

// LeafGroup is one aligned position of an observation, for example the
// atoms of one residue. Names are unique within a group.
type LeafGroup struct {
	Points []NamedPoint `json:"points" yaml:"points"`
}

// NewLeafGroup builds a leaf group from named points. A later point with a
// duplicate name replaces the earlier one.
func NewLeafGroup(points ...NamedPoint) LeafGroup {
	g := LeafGroup{Points: make([]NamedPoint, 0, len(points))}
	for _, p := range points {
		g.Set(p)
	}
	return g
}

// Set inserts p, replacing any point with the same name.
func (g *LeafGroup) Set(p NamedPoint) {
	for i := range g.Points {
		if g.Points[i].Name == p.Name {
			g.Points[i] = p
			return
		}
	}
	g.Points = append(g.Points, p)
}

// Get returns the point named name.
func (g LeafGroup) Get(name string) (NamedPoint, bool) {
	for _, p := range g.Points {
		if p.Name == name {
			return p, true
		}
	}
	return NamedPoint{}, false
}

// Names returns the point names of g in sorted order.
func (g LeafGroup) Names() []string {
	names := make([]string, len(g.Points))
	for i, p := range g.Points {
		names[i] = p.Name
	}
	slices.Sort(names)
	return names
}

// Len returns the number of points in g.
func (g LeafGroup) Len() int { return len(g.Points) }

// Equal reports whether g and o hold the same named points. Point order
// within the group does not matter.
func (g LeafGroup) Equal(o LeafGroup) bool {
	if len(g.Points) != len(o.Points) {
		return false
	}
	a, b := slices.Clone(g.Points), slices.Clone(o.Points)
	slices.SortFunc(a, compareNamedPoints)
	slices.SortFunc(b, compareNamedPoints)
	return slices.Equal(a, b)
}

func compareNamedPoints(a, b NamedPoint) int {
	return cmp.Or(
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Position.X, b.Position.X),
		cmp.Compare(a.Position.Y, b.Position.Y),
		cmp.Compare(a.Position.Z, b.Position.Z),
	)
}

// duplicateName returns a name held by more than one point of g.
func (g LeafGroup) duplicateName() (string, bool) {
	seen := make(map[string]struct{}, len(g.Points))
	for _, p := range g.Points {
		if _, ok := seen[p.Name]; ok {
			return p.Name, true
		}
		seen[p.Name] = struct{}{}
	}
	return "", false
}

// clone returns a deep copy of g.
func (g LeafGroup) clone() LeafGroup {
	return LeafGroup{Points: slices.Clone(g.Points)}
}

// Observation is one structural instance: an ordered, fixed-length
// sequence of leaf groups.
//
// Name is a label for reports and is not part of equality.
type Observation struct {
	Name   string      `json:"name,omitempty" yaml:"name,omitempty"`
	Leaves []LeafGroup `json:"leaves" yaml:"leaves"`
}

// Len returns the number of leaf groups.
func (o *Observation) Len() int { return len(o.Leaves) }

// Equal reports whether o and other have structurally equal leaf
// sequences.
func (o *Observation) Equal(other *Observation) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil || len(o.Leaves) != len(other.Leaves) {
		return false
	}
	for i := range o.Leaves {
		if !o.Leaves[i].Equal(other.Leaves[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of o.
func (o *Observation) Clone() *Observation {
	c := &Observation{Name: o.Name, Leaves: make([]LeafGroup, len(o.Leaves))}
	for i, l := range o.Leaves {
		c.Leaves[i] = l.clone()
	}
	return c
}

// permuted returns a shallow view of o whose leaves are reordered so that
// leaf i of the view is leaf perm[i] of o.
func (o *Observation) permuted(perm []int) *Observation {
	v := &Observation{Name: o.Name, Leaves: make([]LeafGroup, len(perm))}
	for i, j := range perm {
		v.Leaves[i] = o.Leaves[j]
	}
	return v
}

// checkObservations verifies that the observations are distinct non-nil
// objects of equal length. Point names must be unique within each leaf.
func checkObservations(observations []*Observation) error {
	if len(observations) == 0 {
		return fmtInvalid("no observations")
	}
	seen := make(map[*Observation]int, len(observations))
	for i, o := range observations {
		if o == nil {
			return fmtInvalid("observation %d is nil", i)
		}
		if j, ok := seen[o]; ok {
			return fmtInvalid("observations %d and %d are the same object", j, i)
		}
		seen[o] = i
	}
	want := observations[0].Len()
	for i, o := range observations {
		if o.Len() != want {
			return fmtInvalid("observation %d has %d leaves, observation 0 has %d", i, o.Len(), want)
		}
		for l, g := range o.Leaves {
			if name, dup := g.duplicateName(); dup {
				return fmtInvalid("observation %d leaf %d has point %q more than once", i, l, name)
			}
		}
	}
	return nil
}
