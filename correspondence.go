package consensus

import (
	"cmp"
	"fmt"
	"slices"
)

// AtomFilter reports whether a named point takes part in superimposition.
// A nil AtomFilter accepts every point.
type AtomFilter func(NamedPoint) bool

// AcceptAll is the AtomFilter used when none is configured.
func AcceptAll(NamedPoint) bool { return true }

// AtomNames returns an AtomFilter accepting only the given names.
func AtomNames(names ...string) AtomFilter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(p NamedPoint) bool {
		_, ok := set[p.Name]
		return ok
	}
}

// RepresentationScheme reduces a leaf group to a single representative
// point. It returns false when the group has no representative; that
// position is then left out of the superimposition.
type RepresentationScheme func(LeafGroup) (NamedPoint, bool)

// RepresentativeAtom returns a RepresentationScheme selecting the point
// named name.
func RepresentativeAtom(name string) RepresentationScheme {
	return func(g LeafGroup) (NamedPoint, bool) {
		return g.Get(name)
	}
}

// Centroid is a RepresentationScheme reducing a leaf group to the centroid
// of its points, named after the group's first point.
func Centroid(g LeafGroup) (NamedPoint, bool) {
	if g.Len() == 0 {
		return NamedPoint{}, false
	}
	pts := make([]Point, g.Len())
	for i, p := range g.Points {
		pts[i] = p.Position
	}
	return NamedPoint{Name: g.Points[0].Name, Position: centroid(pts)}, true
}

// AtomPair is one corresponding pair of points.
type AtomPair struct {
	// Leaf is the position of the pair in the leaf sequence.
	Leaf int
	// Name is the reference point's name.
	Name      string
	Reference Point
	Candidate Point
}

// Correspondence is the ordered list of point pairs shared by two
// observations.
type Correspondence []AtomPair

// Points splits c into parallel reference and candidate point lists.
func (c Correspondence) Points() (reference, candidate []Point) {
	reference = make([]Point, len(c))
	candidate = make([]Point, len(c))
	for i, p := range c {
		reference[i] = p.Reference
		candidate[i] = p.Candidate
	}
	return reference, candidate
}

// Resolver determines which points of two observations correspond.
type Resolver struct {
	// Filter restricts which points take part. Nil accepts all.
	Filter AtomFilter
	// Scheme, when set, reduces every leaf to one representative point. It
	// replaces both the name intersection and Filter.
	Scheme RepresentationScheme
}

// Resolve pairs the points of reference and candidate position by
// position. Without a scheme, the points of leaf i whose names are
// accepted on both sides are paired in name order. With a scheme, each
// leaf contributes at most its representative.
func (r Resolver) Resolve(reference, candidate *Observation) (Correspondence, error) {
	if reference.Len() != candidate.Len() {
		return nil, fmtInvalid("observations have %d and %d leaves", reference.Len(), candidate.Len())
	}

	for i := range reference.Leaves {
		for _, g := range []LeafGroup{reference.Leaves[i], candidate.Leaves[i]} {
			if name, dup := g.duplicateName(); dup {
				return nil, fmtInvalid("leaf %d has point %q more than once", i, name)
			}
		}
	}

	var c Correspondence
	for i := range reference.Leaves {
		if r.Scheme != nil {
			c = r.appendRepresentative(c, i, reference.Leaves[i], candidate.Leaves[i])
		} else {
			c = r.appendCommon(c, i, reference.Leaves[i], candidate.Leaves[i])
		}
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: none of %d leaf positions share an accepted atom", ErrNoCommonAtoms, reference.Len())
	}
	return c, nil
}

func (r Resolver) accept(p NamedPoint) bool {
	return r.Filter == nil || r.Filter(p)
}

func (r Resolver) appendCommon(c Correspondence, leaf int, ref, cand LeafGroup) Correspondence {
	candidates := make(map[string]Point, cand.Len())
	for _, p := range cand.Points {
		if r.accept(p) {
			candidates[p.Name] = p.Position
		}
	}

	start := len(c)
	for _, p := range ref.Points {
		if !r.accept(p) {
			continue
		}
		if q, ok := candidates[p.Name]; ok {
			c = append(c, AtomPair{Leaf: leaf, Name: p.Name, Reference: p.Position, Candidate: q})
		}
	}
	slices.SortFunc(c[start:], func(a, b AtomPair) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return c
}

func (r Resolver) appendRepresentative(c Correspondence, leaf int, ref, cand LeafGroup) Correspondence {
	p, ok := r.Scheme(ref)
	if !ok {
		return c
	}
	q, ok := r.Scheme(cand)
	if !ok {
		return c
	}
	return append(c, AtomPair{Leaf: leaf, Name: p.Name, Reference: p.Position, Candidate: q.Position})
}
