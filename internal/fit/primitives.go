package fit

import (
	"math"

	"github.com/banshee-data/touchprobe/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Line is an infinite line through Point along the unit vector Direction.
type Line struct {
	Point     geom.Point
	Direction geom.Point
}

// Distance returns the perpendicular distance from p to the line.
func (l Line) Distance(p geom.Point) float64 {
	return r3.Norm(r3.Cross(r3.Sub(p, l.Point), l.Direction))
}

// Angle returns the angle between the two line directions in degrees,
// in [0, 180].
func (l Line) Angle(other Line) float64 {
	return angleBetween(l.Direction, other.Direction)
}

// Plane is the plane through Point with unit Normal.
type Plane struct {
	Point  geom.Point
	Normal geom.Point
}

// Distance returns the signed distance from p to the plane, positive on
// the side the normal points to.
func (pl Plane) Distance(p geom.Point) float64 {
	return r3.Dot(r3.Sub(p, pl.Point), pl.Normal)
}

// Angle returns the angle between the plane normals in degrees, in
// [0, 180].
func (pl Plane) Angle(other Plane) float64 {
	return angleBetween(pl.Normal, other.Normal)
}

// Circle is a circle in 3D space lying in the plane with the given Normal.
type Circle struct {
	Center geom.Point
	Radius float64
	Normal geom.Point
}

// Circle2D is a circle in the XY plane.
type Circle2D struct {
	Center r2.Vec
	Radius float64
}

// RMS returns the root-mean-square radial residual of pts against c.
func (c Circle2D) RMS(pts []r2.Vec) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		d := r2.Norm(r2.Sub(p, c.Center)) - c.Radius
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pts)))
}

// Sphere is a sphere with the given Center and Radius.
type Sphere struct {
	Center geom.Point
	Radius float64
}

// RMS returns the root-mean-square radial residual of pts against s.
func (s Sphere) RMS(pts []geom.Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		d := r3.Norm(r3.Sub(p, s.Center)) - s.Radius
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pts)))
}

func angleBetween(a, b geom.Point) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	c := r3.Dot(a, b) / (na * nb)
	c = math.Max(-1, math.Min(1, c))
	return geom.Degrees(math.Acos(c))
}
