package fit

import (
	"errors"
	"math"

	"github.com/banshee-data/touchprobe/internal/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// CircleFit2D fits a circle with the package defaults. See Fitter.CircleFit2D.
func CircleFit2D(pts []r2.Vec) (Circle2D, error) { return defaultFitter.CircleFit2D(pts) }

// BestFitCircle3D fits a circle with the package defaults. See
// Fitter.BestFitCircle3D.
func BestFitCircle3D(pts []geom.Point) (Circle, error) { return defaultFitter.BestFitCircle3D(pts) }

// CircleFit2D returns the circle whose center minimises the variance of
// the point distances to it.
//
// The center is refined with Levenberg-Marquardt starting from the
// centroid, using the residual R_i - mean(R) and its analytic Jacobian.
// The radius is mean(R) at the solution.
func (f *Fitter) CircleFit2D(pts []r2.Vec) (Circle2D, error) {
	const op = "circle2d"
	if len(pts) < 3 {
		return Circle2D{}, tooFew(op, 3, len(pts))
	}
	flat := make([]geom.Point, len(pts))
	for i, p := range pts {
		flat[i] = geom.NewPoint(p.X, p.Y, 0)
	}
	axes, err := geom.PrincipalAxes(flat)
	if err != nil {
		return Circle2D{}, degenerate(op, 3, len(pts), err.Error())
	}
	if axes.Values[0] <= f.opts.DegenerateTolerance {
		return Circle2D{}, degenerate(op, 3, len(pts), "points are coincident")
	}
	if axes.Values[1] <= f.opts.DegenerateTolerance*axes.Values[0] {
		return Circle2D{}, degenerate(op, 3, len(pts), "points are collinear")
	}

	c := r2.Vec{X: axes.Centroid.X, Y: axes.Centroid.Y}
	// Scale the convergence test by the spread of the data.
	scale := axes.Values[0] / math.Sqrt(float64(len(pts)))

	s := newCircleState(pts)
	cost := s.evaluate(c)
	lambda := 1e-3

	for iter := 0; iter < f.opts.CircleMaxIterations && cost > 0; iter++ {
		step, ok := s.step(lambda)
		if !ok {
			break
		}
		next := r2.Add(c, step)
		nextCost := s.evaluateCost(next)
		if nextCost < cost {
			c = next
			cost = s.evaluate(c)
			lambda = math.Max(lambda/10, 1e-12)
			if r2.Norm(step) <= f.opts.CircleTolerance*(scale+r2.Norm(c)) {
				break
			}
			continue
		}
		lambda *= 10
		if lambda > 1e12 {
			break
		}
	}

	radii := s.radii(c)
	r := stat.Mean(radii, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Circle2D{}, degenerate(op, 3, len(pts), "circle fit did not converge")
	}
	return Circle2D{Center: c, Radius: r}, nil
}

// circleState holds the residuals and Jacobian at the current center.
type circleState struct {
	pts []r2.Vec
	r   []float64
	f   []float64
	jx  []float64
	jy  []float64
}

func newCircleState(pts []r2.Vec) *circleState {
	n := len(pts)
	return &circleState{
		pts: pts,
		r:   make([]float64, n),
		f:   make([]float64, n),
		jx:  make([]float64, n),
		jy:  make([]float64, n),
	}
}

func (s *circleState) radii(c r2.Vec) []float64 {
	out := make([]float64, len(s.pts))
	for i, p := range s.pts {
		out[i] = r2.Norm(r2.Sub(p, c))
	}
	return out
}

// evaluate fills residuals and Jacobian at c and returns the cost.
func (s *circleState) evaluate(c r2.Vec) float64 {
	for i, p := range s.pts {
		d := r2.Sub(c, p)
		ri := r2.Norm(d)
		s.r[i] = ri
		if ri == 0 {
			s.jx[i], s.jy[i] = 0, 0
			continue
		}
		s.jx[i] = d.X / ri
		s.jy[i] = d.Y / ri
	}
	mean := stat.Mean(s.r, nil)
	mx := stat.Mean(s.jx, nil)
	my := stat.Mean(s.jy, nil)
	for i := range s.r {
		s.f[i] = s.r[i] - mean
		s.jx[i] -= mx
		s.jy[i] -= my
	}
	return floats.Dot(s.f, s.f)
}

func (s *circleState) evaluateCost(c r2.Vec) float64 {
	radii := s.radii(c)
	mean := stat.Mean(radii, nil)
	var cost float64
	for _, ri := range radii {
		d := ri - mean
		cost += d * d
	}
	return cost
}

// step solves the damped normal equations (JᵀJ + λ·diag(JᵀJ))·δ = -Jᵀf.
func (s *circleState) step(lambda float64) (r2.Vec, bool) {
	a00 := floats.Dot(s.jx, s.jx)
	a01 := floats.Dot(s.jx, s.jy)
	a11 := floats.Dot(s.jy, s.jy)
	g0 := floats.Dot(s.jx, s.f)
	g1 := floats.Dot(s.jy, s.f)

	a := mat.NewSymDense(2, []float64{
		a00 * (1 + lambda), a01,
		a01, a11 * (1 + lambda),
	})
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return r2.Vec{}, false
	}
	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, mat.NewVecDense(2, []float64{-g0, -g1})); err != nil {
		return r2.Vec{}, false
	}
	return r2.Vec{X: delta.AtVec(0), Y: delta.AtVec(1)}, true
}

// BestFitCircle3D fits a circle to points in space.
//
// The points are projected onto their best-fit plane, expressed in an
// orthonormal in-plane basis, fitted with CircleFit2D and mapped back.
// The basis x axis is normal × (1,0,0), or normal × (0,1,0) when the normal
// is within ParallelTolerance of the X axis.
func (f *Fitter) BestFitCircle3D(pts []geom.Point) (Circle, error) {
	const op = "circle"
	if len(pts) < 3 {
		return Circle{}, tooFew(op, 3, len(pts))
	}
	pl, err := f.BestFitPlane(pts)
	if err != nil {
		var de *DegenerateInputError
		if errors.As(err, &de) {
			de.Op = op
		}
		return Circle{}, err
	}

	xAxis, yAxis := f.planeBasis(pl.Normal)
	flat := make([]r2.Vec, len(pts))
	for i, p := range pts {
		q := r3.Sub(ProjectPointToPlane(p, pl), pl.Point)
		flat[i] = r2.Vec{X: r3.Dot(q, xAxis), Y: r3.Dot(q, yAxis)}
	}

	c2, err := f.CircleFit2D(flat)
	if err != nil {
		var de *DegenerateInputError
		if errors.As(err, &de) {
			de.Op = op
		}
		return Circle{}, err
	}

	center := r3.Add(pl.Point, r3.Add(r3.Scale(c2.Center.X, xAxis), r3.Scale(c2.Center.Y, yAxis)))
	return Circle{Center: center, Radius: c2.Radius, Normal: pl.Normal}, nil
}

func (f *Fitter) planeBasis(normal geom.Point) (geom.Point, geom.Point) {
	ref := geom.AxisX
	if math.Abs(r3.Dot(normal, ref)) > 1-f.opts.ParallelTolerance {
		ref = geom.AxisY
	}
	x, _ := geom.Normalize(r3.Cross(normal, ref))
	y := r3.Cross(normal, x)
	return x, y
}
