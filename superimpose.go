package consensus

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is a 3x3 matrix in row-major order.
//
//	| 0 1 2 |
//	| 3 4 5 |
//	| 6 7 8 |
type Rotation [9]float64

// Identity is the identity rotation.
var Identity = Rotation{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Apply returns r·p.
func (r Rotation) Apply(p Point) Point {
	return Point{
		X: r[0]*p.X + r[1]*p.Y + r[2]*p.Z,
		Y: r[3]*p.X + r[4]*p.Y + r[5]*p.Z,
		Z: r[6]*p.X + r[7]*p.Y + r[8]*p.Z,
	}
}

// Det returns the determinant of r.
func (r Rotation) Det() float64 {
	return r[0]*(r[4]*r[8]-r[5]*r[7]) -
		r[1]*(r[3]*r[8]-r[5]*r[6]) +
		r[2]*(r[3]*r[7]-r[4]*r[6])
}

// Transform is a rigid-body motion p -> Rotation·p + Translation.
type Transform struct {
	Rotation    Rotation
	Translation Point
}

// Apply maps p through t.
func (t Transform) Apply(p Point) Point {
	return r3.Add(t.Rotation.Apply(p), t.Translation)
}

// ApplyObservation moves every point of o through t in place.
func (t Transform) ApplyObservation(o *Observation) {
	for i := range o.Leaves {
		pts := o.Leaves[i].Points
		for j := range pts {
			pts[j].Position = t.Apply(pts[j].Position)
		}
	}
}

// Fit is the outcome of superimposing one point list onto another.
type Fit struct {
	RMSD      float64
	Transform Transform
	// Mapped holds the candidate points after applying Transform.
	Mapped []Point
}

// Superimpose computes the rotation and translation that minimize the RMSD
// between reference and candidate, paired by index, using the Kabsch
// algorithm. The rotation is always proper (determinant +1).
func Superimpose(reference, candidate []Point) (Fit, error) {
	n := len(reference)
	if n == 0 {
		return Fit{}, fmt.Errorf("%w: empty point list", ErrDegenerateInput)
	}
	if len(candidate) != n {
		return Fit{}, fmt.Errorf("%w: %d reference points, %d candidate points", ErrDegenerateInput, n, len(candidate))
	}

	cp := centroid(reference)
	cq := centroid(candidate)

	// Centered coordinates, n rows of 3 columns.
	p := mat.NewDense(n, 3, nil)
	q := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		dp := r3.Sub(reference[i], cp)
		dq := r3.Sub(candidate[i], cq)
		p.SetRow(i, []float64{dp.X, dp.Y, dp.Z})
		q.SetRow(i, []float64{dq.X, dq.Y, dq.Z})
	}

	// H = Qᵗ·P
	var h mat.Dense
	h.Mul(q.T(), p)

	var svd mat.SVD
	if !svd.Factorize(&h, mat.SVDFull) {
		return Fit{}, fmt.Errorf("%w: SVD of cross-covariance did not converge", ErrDegenerateInput)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var vut mat.Dense
	vut.Mul(&v, u.T())
	d := 1.0
	if mat.Det(&vut) < 0 {
		d = -1.0
	}

	// R = V·diag(1,1,d)·Uᵗ
	var vd, rot mat.Dense
	vd.Mul(&v, mat.NewDiagDense(3, []float64{1, 1, d}))
	rot.Mul(&vd, u.T())

	var r Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i*3+j] = rot.At(i, j)
		}
	}

	t := Transform{
		Rotation:    r,
		Translation: r3.Sub(cp, r.Apply(cq)),
	}

	mapped := make([]Point, n)
	sq := make([]float64, n)
	for i := range candidate {
		mapped[i] = t.Apply(candidate[i])
		sq[i] = r3.Norm2(r3.Sub(reference[i], mapped[i]))
	}

	return Fit{
		RMSD:      math.Sqrt(floats.Sum(sq) / float64(n)),
		Transform: t,
		Mapped:    mapped,
	}, nil
}

func centroid(points []Point) Point {
	var c Point
	for _, p := range points {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(points)), c)
}
