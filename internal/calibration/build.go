package calibration

import (
	"fmt"
	"math"

	"github.com/banshee-data/touchprobe/internal/fit"
	"github.com/banshee-data/touchprobe/internal/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// SampleCount is the number of samples a grid of rings by perRing needs:
// one pole sample followed by every ring in order.
func SampleCount(rings, perRing int) int {
	return 1 + rings*perRing
}

// RingLatitude is the nominal colatitude of ring i, in degrees.
func RingLatitude(i, rings int) float64 {
	return 90.0 / float64(rings) * float64(i)
}

// NodeLongitude is the nominal longitude of sample j in a ring, in degrees.
func NodeLongitude(j, perRing int) float64 {
	return 360.0 / float64(perRing) * float64(j)
}

// SampleDirections returns the outward unit surface normals of the
// calibration grid in sampling order, starting with the pole at +Z. A probe
// samples each node by travelling against its normal.
func SampleDirections(rings, perRing int) []geom.Point {
	if rings < 1 || perRing < 1 {
		return nil
	}
	dirs := make([]geom.Point, 0, SampleCount(rings, perRing))
	dirs = append(dirs, geom.AxisZ)
	for i := 1; i <= rings; i++ {
		theta := geom.Radians(RingLatitude(i, rings))
		for j := 0; j < perRing; j++ {
			phi := geom.Radians(NodeLongitude(j, perRing))
			dirs = append(dirs, geom.NewPoint(
				math.Sin(theta)*math.Cos(phi),
				math.Sin(theta)*math.Sin(phi),
				math.Cos(theta),
			))
		}
	}
	return dirs
}

// Build fits a sphere to samples and tabulates each sample's radial error
// against the nominal contact radius (nominal+tip)/2. A positive magnitude
// means the probe triggered inside the nominal radius. samples must hold
// exactly one pole sample followed by rings rings of perRing samples.
func Build(nominal, tip float64, samples []geom.Point, rings, perRing int) (*Table, error) {
	return build(fit.Default(), nominal, tip, samples, rings, perRing)
}

func build(f *fit.Fitter, nominal, tip float64, samples []geom.Point, rings, perRing int) (*Table, error) {
	if rings < 1 || perRing < 1 {
		return nil, fmt.Errorf("%w: grid of %d rings by %d samples", ErrSampleCount, rings, perRing)
	}
	want := SampleCount(rings, perRing)
	if len(samples) != want {
		return nil, fmt.Errorf("%w: got %d samples, need %d for %d rings of %d",
			ErrSampleCount, len(samples), want, rings, perRing)
	}

	sphere, err := f.SphereFit(samples)
	if err != nil {
		return nil, fmt.Errorf("fit calibration sphere: %w", err)
	}
	target := (nominal + tip) / 2
	mag := func(p geom.Point) float64 {
		return target - r3.Norm(r3.Sub(p, sphere.Center))
	}

	pole := mag(samples[0])
	t := &Table{Rings: make([]Ring, 0, rings+1)}
	t.Rings = append(t.Rings, Ring{
		Latitude: 0,
		Nodes:    []Node{{Longitude: 0, Magnitude: pole}, {Longitude: 360, Magnitude: pole}},
	})
	k := 1
	for i := 1; i <= rings; i++ {
		r := Ring{Latitude: RingLatitude(i, rings), Nodes: make([]Node, 0, perRing+1)}
		for j := 0; j < perRing; j++ {
			r.Nodes = append(r.Nodes, Node{Longitude: NodeLongitude(j, perRing), Magnitude: mag(samples[k])})
			k++
		}
		first := r.Nodes[0]
		r.Nodes = append(r.Nodes, Node{Longitude: first.Longitude + 360, Magnitude: first.Magnitude})
		t.Rings = append(t.Rings, r)
	}
	return t, nil
}
