package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Point is a position or direction in machine coordinates. Units are
// whatever the caller supplies; nothing in this module converts them.
type Point = r3.Vec

// NewPoint builds a Point from its components.
func NewPoint(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// Unit axes.
var (
	AxisX = Point{X: 1}
	AxisY = Point{Y: 1}
	AxisZ = Point{Z: 1}
)

// Centroid returns the arithmetic mean of pts. An empty slice yields the
// origin; callers that care must check the length first.
//
// Each coordinate is summed in ascending order so the result does not
// depend on the order of pts.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	zs := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	sort.Float64s(xs)
	sort.Float64s(ys)
	sort.Float64s(zs)
	return Point{
		X: stat.Mean(xs, nil),
		Y: stat.Mean(ys, nil),
		Z: stat.Mean(zs, nil),
	}
}

// Center returns pts translated so that their centroid is the origin,
// together with the centroid that was removed.
func Center(pts []Point) ([]Point, Point) {
	c := Centroid(pts)
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = r3.Sub(p, c)
	}
	return out, c
}

// Normalize returns the unit vector along p and its original length.
// A zero vector is returned unchanged with length 0.
func Normalize(p Point) (Point, float64) {
	n := r3.Norm(p)
	if n == 0 {
		return p, 0
	}
	return r3.Scale(1/n, p), n
}

// NearlyEqual reports whether a and b differ by at most tol in every
// component.
func NearlyEqual(a, b Point, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180.0 }
