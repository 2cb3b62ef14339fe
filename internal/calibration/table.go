// Package calibration builds and queries the probe tip compensation map.
//
// A Table is a colatitude/longitude grid of radial error magnitudes measured
// on a calibration sphere. Ring 0 is the pole. Every ring's node list is
// closed by repeating its first node at +360 degrees so longitude lookups
// never need to wrap.
package calibration

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrSampleCount is returned by Build when the sample count does not
	// match the requested grid.
	ErrSampleCount = errors.New("calibration sample count mismatch")
	// ErrMalformedTable is returned when a table violates the grid layout.
	ErrMalformedTable = errors.New("malformed calibration table")
)

// Node is one sampled longitude of a ring, in degrees.
type Node struct {
	Longitude float64
	Magnitude float64
}

// Ring is a set of nodes at one colatitude, in degrees from the pole.
type Ring struct {
	Latitude float64
	Nodes    []Node
}

// Table is an immutable calibration grid.
type Table struct {
	Rings []Ring
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedTable, fmt.Sprintf(format, args...))
}

// Validate checks the grid layout: a pole ring at latitude 0 with exactly
// the two nodes 0 and 360, strictly increasing latitudes and longitudes,
// and every ring closed at its first longitude plus 360.
func (t *Table) Validate() error {
	if t == nil || len(t.Rings) == 0 {
		return malformed("no rings")
	}
	pole := t.Rings[0]
	if pole.Latitude != 0 {
		return malformed("pole ring at latitude %g", pole.Latitude)
	}
	if len(pole.Nodes) != 2 || pole.Nodes[0].Longitude != 0 || pole.Nodes[1].Longitude != 360 {
		return malformed("pole ring must hold exactly the longitudes 0 and 360")
	}
	for i, r := range t.Rings {
		if math.IsNaN(r.Latitude) || math.IsInf(r.Latitude, 0) {
			return malformed("ring %d latitude %g", i, r.Latitude)
		}
		if i > 0 && r.Latitude <= t.Rings[i-1].Latitude {
			return malformed("ring %d latitude %g not above %g", i, r.Latitude, t.Rings[i-1].Latitude)
		}
		if len(r.Nodes) < 2 {
			return malformed("ring %d has %d nodes", i, len(r.Nodes))
		}
		for j, n := range r.Nodes {
			if math.IsNaN(n.Longitude) || math.IsNaN(n.Magnitude) || math.IsInf(n.Magnitude, 0) {
				return malformed("ring %d node %d is not finite", i, j)
			}
			if j > 0 && n.Longitude <= r.Nodes[j-1].Longitude {
				return malformed("ring %d node %d longitude %g not above %g", i, j, n.Longitude, r.Nodes[j-1].Longitude)
			}
		}
		first, last := r.Nodes[0], r.Nodes[len(r.Nodes)-1]
		if last.Longitude != first.Longitude+360 || last.Magnitude != first.Magnitude {
			return malformed("ring %d is not closed at %g", i, first.Longitude+360)
		}
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{Rings: make([]Ring, len(t.Rings))}
	for i, r := range t.Rings {
		out.Rings[i] = Ring{Latitude: r.Latitude, Nodes: append([]Node(nil), r.Nodes...)}
	}
	return out
}

// Magnitudes returns every distinct sampled magnitude in build order: the
// pole, then each ring without its closing node.
func (t *Table) Magnitudes() []float64 {
	var out []float64
	for i, r := range t.Rings {
		if i == 0 {
			out = append(out, r.Nodes[0].Magnitude)
			continue
		}
		for _, n := range r.Nodes[:len(r.Nodes)-1] {
			out = append(out, n.Magnitude)
		}
	}
	return out
}

// Range returns the smallest and largest sampled magnitude.
func (t *Table) Range() (lo, hi float64) {
	m := t.Magnitudes()
	if len(m) == 0 {
		return 0, 0
	}
	return floats.Min(m), floats.Max(m)
}

// Magnitude interpolates the table at colat and lon degrees. Colatitudes
// past the last ring clamp to it. The table must be valid.
func (t *Table) Magnitude(colat, lon float64) float64 {
	rings := t.Rings
	if len(rings) == 1 {
		return rings[0].Nodes[0].Magnitude
	}
	hi := searchRings(rings, colat)
	if hi < 1 {
		hi = 1
	}
	if hi > len(rings)-1 {
		hi = len(rings) - 1
	}
	lo := hi - 1
	f := fraction(colat, rings[lo].Latitude, rings[hi].Latitude)
	m0 := rings[lo].magnitude(lon)
	m1 := rings[hi].magnitude(lon)
	return lerp(m0, m1, f)
}

// magnitude interpolates the ring along longitude. lon is first wrapped
// into [first, first+360) so rings that start off zero still close over
// the seam.
func (r Ring) magnitude(lon float64) float64 {
	nodes := r.Nodes
	first := nodes[0].Longitude
	lon = first + math.Mod(lon-first, 360)
	if lon < first {
		lon += 360
	}
	hi := searchNodes(nodes, lon)
	if hi < 1 {
		hi = 1
	}
	if hi > len(nodes)-1 {
		hi = len(nodes) - 1
	}
	lo := hi - 1
	f := fraction(lon, nodes[lo].Longitude, nodes[hi].Longitude)
	return lerp(nodes[lo].Magnitude, nodes[hi].Magnitude, f)
}

// searchRings returns the index of the first ring at or above colat.
func searchRings(rings []Ring, colat float64) int {
	return sort.Search(len(rings), func(i int) bool { return rings[i].Latitude >= colat })
}

// searchNodes returns the index of the first node at or above lon.
func searchNodes(nodes []Node, lon float64) int {
	return sort.Search(len(nodes), func(i int) bool { return nodes[i].Longitude >= lon })
}

// fraction is the position of v between a and b, clamped to [0, 1].
func fraction(v, a, b float64) float64 {
	if b <= a {
		return 0
	}
	f := (v - a) / (b - a)
	return math.Max(0, math.Min(1, f))
}

// lerp returns a at f == 0 and b at f == 1 exactly.
func lerp(a, b, f float64) float64 {
	return (1-f)*a + f*b
}
