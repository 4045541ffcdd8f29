package consensus

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

const floatTol = 1e-10

// rmsdTol is the tolerance for RMSDs that should vanish after an SVD.
const rmsdTol = 1e-6

func almostEqual(a, b, tol float64) bool {
	if math.IsInf(a, 0) && math.IsInf(b, 0) {
		return math.Signbit(a) == math.Signbit(b)
	}
	return math.Abs(a-b) <= tol
}

func pointsAlmostEqual(a, b Point, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func pt(x, y, z float64) Point { return Point{X: x, Y: y, Z: z} }

func np(name string, x, y, z float64) NamedPoint {
	return NamedPoint{Name: name, Position: pt(x, y, z)}
}

// obs builds an observation with one leaf per argument.
func obs(name string, leaves ...LeafGroup) *Observation {
	return &Observation{Name: name, Leaves: leaves}
}

// axisRotation returns the rotation by angle radians about axis
// (Rodrigues' formula).
func axisRotation(axis Point, angle float64) Rotation {
	k := r3.Unit(axis)
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return Rotation{
		t*k.X*k.X + c, t*k.X*k.Y - s*k.Z, t*k.X*k.Z + s*k.Y,
		t*k.X*k.Y + s*k.Z, t*k.Y*k.Y + c, t*k.Y*k.Z - s*k.X,
		t*k.X*k.Z - s*k.Y, t*k.Y*k.Z + s*k.X, t*k.Z*k.Z + c,
	}
}

func randomTransform(rng *rand.Rand) Transform {
	axis := pt(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64())
	return Transform{
		Rotation:    axisRotation(axis, rng.Float64()*2*math.Pi),
		Translation: pt(rng.Float64()*20-10, rng.Float64()*20-10, rng.Float64()*20-10),
	}
}

func randomPoints(rng *rand.Rand, n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = pt(rng.Float64()*10, rng.Float64()*10, rng.Float64()*10)
	}
	return pts
}

func transformPoints(t Transform, pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}

// randomObservation returns an observation of numLeaves leaves holding
// the atoms N, CA and C at random positions.
func randomObservation(rng *rand.Rand, name string, numLeaves int) *Observation {
	o := &Observation{Name: name}
	for i := 0; i < numLeaves; i++ {
		var g LeafGroup
		for _, atom := range []string{"N", "CA", "C"} {
			g.Set(NamedPoint{Name: atom, Position: pt(rng.Float64()*10, rng.Float64()*10, rng.Float64()*10)})
		}
		o.Leaves = append(o.Leaves, g)
	}
	return o
}

// jitter returns a copy of o moved by t with every point perturbed by up
// to amount along each axis.
func jitter(rng *rand.Rand, o *Observation, t Transform, amount float64, name string) *Observation {
	c := o.Clone()
	c.Name = name
	t.ApplyObservation(c)
	for i := range c.Leaves {
		for j := range c.Leaves[i].Points {
			p := &c.Leaves[i].Points[j].Position
			p.X += (rng.Float64()*2 - 1) * amount
			p.Y += (rng.Float64()*2 - 1) * amount
			p.Z += (rng.Float64()*2 - 1) * amount
		}
	}
	return c
}

// scenarioObservations returns three single-leaf triangles: O2 is O1
// rotated by 180 degrees about z and translated by (5,5,5); O3 has a
// different shape.
func scenarioObservations() []*Observation {
	o1 := obs("O1", NewLeafGroup(np("A", 0, 0, 0), np("B", 1, 0, 0), np("C", 0, 1, 0)))
	o2 := o1.Clone()
	o2.Name = "O2"
	Transform{Rotation: axisRotation(pt(0, 0, 1), math.Pi), Translation: pt(5, 5, 5)}.ApplyObservation(o2)
	o3 := obs("O3", NewLeafGroup(np("A", 0, 0, 0), np("B", 1, 0, 0), np("C", 0, 2, 0)))
	return []*Observation{o1, o2, o3}
}
