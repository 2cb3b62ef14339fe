package fit

import (
	"math"

	"github.com/banshee-data/touchprobe/internal/geom"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// SphereFit fits a sphere with the package defaults. See Fitter.SphereFit.
func SphereFit(pts []geom.Point) (Sphere, error) { return defaultFitter.SphereFit(pts) }

// SphereFit returns the algebraic least-squares sphere through pts.
//
// Each point contributes one row of
//
//	2·cx·x + 2·cy·y + 2·cz·z + d = x² + y² + z²
//
// and the overdetermined system is solved by QR. The radius is
// sqrt(cx² + cy² + cz² + d). Points are centred on their centroid before
// solving to keep the system well conditioned; the center is shifted back
// afterwards.
func (f *Fitter) SphereFit(pts []geom.Point) (Sphere, error) {
	const op = "sphere"
	if len(pts) < 4 {
		return Sphere{}, tooFew(op, 4, len(pts))
	}
	axes, err := geom.PrincipalAxes(pts)
	if err != nil {
		return Sphere{}, degenerate(op, 4, len(pts), err.Error())
	}
	if axes.Values[0] <= f.opts.DegenerateTolerance {
		return Sphere{}, degenerate(op, 4, len(pts), "points are coincident")
	}
	if axes.Values[2] <= f.opts.DegenerateTolerance*axes.Values[0] {
		return Sphere{}, degenerate(op, 4, len(pts), "points are coplanar")
	}

	n := len(pts)
	a := mat.NewDense(n, 4, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range pts {
		q := r3.Sub(p, axes.Centroid)
		a.Set(i, 0, 2*q.X)
		a.Set(i, 1, 2*q.Y)
		a.Set(i, 2, 2*q.Z)
		a.Set(i, 3, 1)
		b.SetVec(i, r3.Dot(q, q))
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return Sphere{}, degenerate(op, 4, len(pts), "least-squares solve failed: "+err.Error())
	}
	c := geom.NewPoint(x.AtVec(0), x.AtVec(1), x.AtVec(2))
	r2 := r3.Dot(c, c) + x.AtVec(3)
	if r2 <= 0 || math.IsNaN(r2) {
		return Sphere{}, degenerate(op, 4, len(pts), "no real sphere through points")
	}
	return Sphere{Center: r3.Add(c, axes.Centroid), Radius: math.Sqrt(r2)}, nil
}
