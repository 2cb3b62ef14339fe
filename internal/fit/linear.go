package fit

import (
	"math"

	"github.com/banshee-data/touchprobe/internal/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// BestFitLine fits a line with the package defaults. See Fitter.BestFitLine.
func BestFitLine(pts []geom.Point) (Line, error) { return defaultFitter.BestFitLine(pts) }

// BestFitPlane fits a plane with the package defaults. See Fitter.BestFitPlane.
func BestFitPlane(pts []geom.Point) (Plane, error) { return defaultFitter.BestFitPlane(pts) }

// BestFitPlaneToward fits a plane with the package defaults. See
// Fitter.BestFitPlaneToward.
func BestFitPlaneToward(pts []geom.Point, ref geom.Point) (Plane, error) {
	return defaultFitter.BestFitPlaneToward(pts, ref)
}

// BestFitLine returns the least-squares line through pts.
//
// The line passes through the centroid along the direction of maximum
// variance. The direction is oriented to agree with point order, so that
// its dot product with (last - first) is non-negative; reversing pts
// negates the direction exactly.
func (f *Fitter) BestFitLine(pts []geom.Point) (Line, error) {
	const op = "line"
	if len(pts) < 2 {
		return Line{}, tooFew(op, 2, len(pts))
	}
	axes, err := geom.PrincipalAxes(pts)
	if err != nil {
		return Line{}, degenerate(op, 2, len(pts), err.Error())
	}
	if axes.Values[0] <= f.opts.DegenerateTolerance {
		return Line{}, degenerate(op, 2, len(pts), "points are coincident")
	}

	dir, _ := geom.Normalize(axes.Major())
	if r3.Dot(dir, r3.Sub(pts[len(pts)-1], pts[0])) < 0 {
		dir = r3.Scale(-1, dir)
	}
	return Line{Point: axes.Centroid, Direction: dir}, nil
}

// BestFitPlane returns the least-squares plane through pts.
//
// The normal is the direction of minimum variance. Its sign is fixed so
// that it points toward +Z; planes perpendicular to XY within
// ParallelTolerance fall back to +Y, then +X.
func (f *Fitter) BestFitPlane(pts []geom.Point) (Plane, error) {
	pl, err := f.fitPlane(pts)
	if err != nil {
		return Plane{}, err
	}
	for _, ref := range []geom.Point{geom.AxisZ, geom.AxisY, geom.AxisX} {
		d := r3.Dot(pl.Normal, ref)
		if math.Abs(d) > f.opts.ParallelTolerance {
			if d < 0 {
				pl.Normal = r3.Scale(-1, pl.Normal)
			}
			break
		}
	}
	return pl, nil
}

// BestFitPlaneToward is BestFitPlane with the normal oriented so that its
// dot product with ref is non-negative.
func (f *Fitter) BestFitPlaneToward(pts []geom.Point, ref geom.Point) (Plane, error) {
	pl, err := f.fitPlane(pts)
	if err != nil {
		return Plane{}, err
	}
	if r3.Dot(pl.Normal, ref) < 0 {
		pl.Normal = r3.Scale(-1, pl.Normal)
	}
	return pl, nil
}

func (f *Fitter) fitPlane(pts []geom.Point) (Plane, error) {
	const op = "plane"
	if len(pts) < 3 {
		return Plane{}, tooFew(op, 3, len(pts))
	}
	axes, err := geom.PrincipalAxes(pts)
	if err != nil {
		return Plane{}, degenerate(op, 3, len(pts), err.Error())
	}
	if axes.Values[0] <= f.opts.DegenerateTolerance {
		return Plane{}, degenerate(op, 3, len(pts), "points are coincident")
	}
	if axes.Values[1] <= f.opts.DegenerateTolerance*axes.Values[0] {
		return Plane{}, degenerate(op, 3, len(pts), "points are collinear")
	}
	n, _ := geom.Normalize(axes.Minor())
	return Plane{Point: axes.Centroid, Normal: n}, nil
}

// ProjectPointToPlane returns the orthogonal projection of p onto pl.
// pl.Normal must be unit length.
func ProjectPointToPlane(p geom.Point, pl Plane) geom.Point {
	return r3.Sub(p, r3.Scale(r3.Dot(r3.Sub(p, pl.Point), pl.Normal), pl.Normal))
}

// IntersectLines returns the closest points of l1 and l2, one on each
// line. For intersecting lines both points coincide.
//
// Parallel lines have no unique closest pair; the result is then l1.Point
// and its projection onto l2.
func IntersectLines(l1, l2 Line) (geom.Point, geom.Point) {
	return defaultFitter.IntersectLines(l1, l2)
}

// IntersectLines is the Fitter form of IntersectLines; ParallelTolerance
// decides when the lines are treated as parallel.
func (f *Fitter) IntersectLines(l1, l2 Line) (geom.Point, geom.Point) {
	d1, d2 := l1.Direction, l2.Direction
	w0 := r3.Sub(l1.Point, l2.Point)
	a := r3.Dot(d1, d1)
	b := r3.Dot(d1, d2)
	c := r3.Dot(d2, d2)
	d := r3.Dot(d1, w0)
	e := r3.Dot(d2, w0)
	denom := a*c - b*b

	if c == 0 {
		return l1.Point, l2.Point
	}
	if a == 0 || denom <= f.opts.ParallelTolerance*a*c {
		t := r3.Dot(r3.Sub(l1.Point, l2.Point), d2) / c
		return l1.Point, r3.Add(l2.Point, r3.Scale(t, d2))
	}

	s := (b*e - c*d) / denom
	t := (a*e - b*d) / denom
	return r3.Add(l1.Point, r3.Scale(s, d1)), r3.Add(l2.Point, r3.Scale(t, d2))
}
