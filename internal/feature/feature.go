// Package feature holds probed point clouds and the geometry derived from
// them.
//
// A Feature accumulates points in insertion order, optionally rotates them
// by a rigid transform, and memoises every fitted primitive until the next
// mutation. Features live in a Set, and Sets are stacked in a ContextStack
// so nested probing routines cannot clobber each other's working data.
//
// Nothing in this package is safe for concurrent use.
package feature

import (
	"github.com/banshee-data/touchprobe/internal/fit"
	"github.com/banshee-data/touchprobe/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// slot memoises one derived quantity together with the error of the fit
// that produced it, so a degenerate feature fails the same way on every
// call until it is mutated.
type slot[T any] struct {
	valid bool
	value T
	err   error
}

func (s *slot[T]) get(compute func() (T, error)) (T, error) {
	if !s.valid {
		s.value, s.err = compute()
		s.valid = true
	}
	return s.value, s.err
}

// derived is the full set of memoised values. It is reset as a whole, never
// slot by slot.
type derived struct {
	points   []geom.Point
	average  slot[geom.Point]
	line     slot[fit.Line]
	plane    slot[fit.Plane]
	circle   slot[fit.Circle]
	circle2D slot[fit.Circle2D]
	sphere   slot[fit.Sphere]
}

// Feature is an ordered point cloud with cached fitted geometry.
type Feature struct {
	raw       []geom.Point
	transform *geom.Transform
	fitter    *fit.Fitter
	cache     derived
}

// New returns an empty Feature fitted with f, or the package defaults when
// f is nil.
func New(f *fit.Fitter) *Feature {
	if f == nil {
		f = fit.Default()
	}
	return &Feature{fitter: f}
}

func (f *Feature) invalidate() {
	f.cache = derived{}
}

// AddPoint appends a raw point.
func (f *Feature) AddPoint(x, y, z float64) {
	f.raw = append(f.raw, geom.NewPoint(x, y, z))
	f.invalidate()
}

// ClearPoints removes every point. The transform is kept.
func (f *Feature) ClearPoints() {
	f.raw = nil
	f.invalidate()
}

// SetRigidTransform replaces the rotation applied to every point before
// fitting: angle radians about axis.
func (f *Feature) SetRigidTransform(axis geom.Point, angle float64) {
	t := geom.Rotation(axis, angle)
	f.transform = &t
	f.invalidate()
}

// ClearTransform removes the rigid transform.
func (f *Feature) ClearTransform() {
	f.transform = nil
	f.invalidate()
}

// Transform returns the current rigid transform, or the identity.
func (f *Feature) Transform() geom.Transform {
	if f.transform == nil {
		return geom.Identity()
	}
	return *f.transform
}

// Len returns the number of points.
func (f *Feature) Len() int { return len(f.raw) }

// Points returns a copy of the transformed points in insertion order.
func (f *Feature) Points() []geom.Point {
	pts := f.transformed()
	out := make([]geom.Point, len(pts))
	copy(out, pts)
	return out
}

func (f *Feature) transformed() []geom.Point {
	if f.cache.points == nil && len(f.raw) > 0 {
		pts := make([]geom.Point, len(f.raw))
		for i, p := range f.raw {
			if f.transform != nil {
				p = f.transform.Apply(p)
			}
			pts[i] = p
		}
		f.cache.points = pts
	}
	return f.cache.points
}

// Average returns the centroid of the transformed points.
func (f *Feature) Average() (geom.Point, error) {
	return f.cache.average.get(func() (geom.Point, error) {
		pts := f.transformed()
		if len(pts) == 0 {
			return geom.Point{}, &fit.DegenerateInputError{Op: "average", Required: 1}
		}
		return geom.Centroid(pts), nil
	})
}

// Line returns the best-fit line.
func (f *Feature) Line() (fit.Line, error) {
	return f.cache.line.get(func() (fit.Line, error) {
		return f.fitter.BestFitLine(f.transformed())
	})
}

// Plane returns the best-fit plane.
func (f *Feature) Plane() (fit.Plane, error) {
	return f.cache.plane.get(func() (fit.Plane, error) {
		return f.fitter.BestFitPlane(f.transformed())
	})
}

// Circle returns the best-fit circle in the points' best-fit plane.
func (f *Feature) Circle() (fit.Circle, error) {
	return f.cache.circle.get(func() (fit.Circle, error) {
		return f.fitter.BestFitCircle3D(f.transformed())
	})
}

// Circle2D fits a circle to the (x, y) coordinates only, ignoring z.
func (f *Feature) Circle2D() (fit.Circle2D, error) {
	return f.cache.circle2D.get(func() (fit.Circle2D, error) {
		pts := f.transformed()
		flat := make([]r2.Vec, len(pts))
		for i, p := range pts {
			flat[i] = r2.Vec{X: p.X, Y: p.Y}
		}
		return f.fitter.CircleFit2D(flat)
	})
}

// Sphere returns the best-fit sphere.
func (f *Feature) Sphere() (fit.Sphere, error) {
	return f.cache.sphere.get(func() (fit.Sphere, error) {
		return f.fitter.SphereFit(f.transformed())
	})
}
