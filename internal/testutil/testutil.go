// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/touchprobe/internal/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// AssertPointNear fails the test if any component of got differs from want
// by more than tol.
func AssertPointNear(t *testing.T, got, want geom.Point, tol float64) {
	t.Helper()
	if !geom.NearlyEqual(got, want, tol) {
		t.Errorf("point = (%.12g, %.12g, %.12g), want (%.12g, %.12g, %.12g) within %g",
			got.X, got.Y, got.Z, want.X, want.Y, want.Z, tol)
	}
}

// NewRand returns a deterministic source for reproducible fixtures.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// RandomUnitVectors returns n directions drawn uniformly from the sphere.
func RandomUnitVectors(rng *rand.Rand, n int) []geom.Point {
	out := make([]geom.Point, 0, n)
	for len(out) < n {
		v := geom.NewPoint(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64())
		u, l := geom.Normalize(v)
		if l < 1e-6 {
			continue
		}
		out = append(out, u)
	}
	return out
}

// ContactPoints simulates probe triggers on a sphere: for each outward
// direction d the contact is center + (radius - deviation(d))·d. A nil
// deviation yields an ideal probe.
func ContactPoints(center geom.Point, radius float64, dirs []geom.Point, deviation func(geom.Point) float64) []geom.Point {
	out := make([]geom.Point, len(dirs))
	for i, d := range dirs {
		r := radius
		if deviation != nil {
			r -= deviation(d)
		}
		out[i] = r3.Add(center, r3.Scale(r, d))
	}
	return out
}

// LobedDeviation is a smooth direction-dependent probe error: a constant
// offset plus an amplitude that grows toward the equator and varies with
// azimuth over lobes periods.
func LobedDeviation(offset, amplitude float64, lobes int) func(geom.Point) float64 {
	return func(d geom.Point) float64 {
		side := math.Sqrt(d.X*d.X + d.Y*d.Y)
		return offset + amplitude*side*math.Cos(float64(lobes)*math.Atan2(d.Y, d.X))
	}
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
