package calibration_test

import (
	"math"
	"testing"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"github.com/banshee-data/touchprobe/internal/fit"
	"github.com/banshee-data/touchprobe/internal/geom"
	"github.com/banshee-data/touchprobe/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	nominalDiameter = 25.0
	tipDiameter     = 2.0
)

var sphereCenter = geom.NewPoint(112.5, -40.25, 7.75)

// simpleTable has a pole at 0.5 and one equator ring.
func simpleTable() *calibration.Table {
	return &calibration.Table{Rings: []calibration.Ring{
		{Latitude: 0, Nodes: []calibration.Node{{Longitude: 0, Magnitude: 0.5}, {Longitude: 360, Magnitude: 0.5}}},
		{Latitude: 90, Nodes: []calibration.Node{{Longitude: 0, Magnitude: 1}, {Longitude: 180, Magnitude: 3}, {Longitude: 360, Magnitude: 1}}},
	}}
}

func buildSamples(rings, perRing int, deviation func(geom.Point) float64) []geom.Point {
	dirs := calibration.SampleDirections(rings, perRing)
	return testutil.ContactPoints(sphereCenter, (nominalDiameter+tipDiameter)/2, dirs, deviation)
}

func builtMap(t *testing.T, rings, perRing int) *calibration.Map {
	t.Helper()
	m := calibration.NewMap(nil)
	samples := buildSamples(rings, perRing, testutil.LobedDeviation(0.004, 0.002, 3))
	require.NoError(t, m.Build(nominalDiameter, tipDiameter, samples, rings, perRing))
	return m
}

// travel returns the travel direction that approaches the surface whose
// outward normal is at colat, lon degrees.
func travel(colat, lon float64) geom.Point {
	th, ph := geom.Radians(colat), geom.Radians(lon)
	return geom.NewPoint(-math.Sin(th)*math.Cos(ph), -math.Sin(th)*math.Sin(ph), -math.Cos(th))
}

func compensationMagnitude(m *calibration.Map, dir geom.Point) float64 {
	v := m.ComputeCompensation(dir.X, dir.Y, dir.Z)
	u, _ := geom.Normalize(dir)
	return r3.Dot(v, u)
}

func TestSampleDirections(t *testing.T) {
	t.Parallel()

	dirs := calibration.SampleDirections(3, 8)
	require.Len(t, dirs, calibration.SampleCount(3, 8))
	assert.Equal(t, geom.AxisZ, dirs[0])
	for i, d := range dirs {
		assert.InDelta(t, 1.0, r3.Norm(d), 1e-12, "direction %d", i)
	}
	// Last ring sits on the equator.
	assert.InDelta(t, 0.0, dirs[len(dirs)-1].Z, 1e-12)
	assert.Nil(t, calibration.SampleDirections(0, 8))
}

func TestBuildSampleCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		samples int
		rings   int
		perRing int
	}{
		{"too few", 24, 3, 8},
		{"too many", 26, 3, 8},
		{"no rings", 1, 0, 8},
		{"no samples per ring", 1, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pts := testutil.ContactPoints(sphereCenter, 5, testutil.RandomUnitVectors(testutil.NewRand(1), tt.samples), nil)
			_, err := calibration.Build(nominalDiameter, tipDiameter, pts, tt.rings, tt.perRing)
			assert.ErrorIs(t, err, calibration.ErrSampleCount)
		})
	}
}

func TestBuildDegenerateSamples(t *testing.T) {
	t.Parallel()

	pts := make([]geom.Point, calibration.SampleCount(1, 4))
	_, err := calibration.Build(nominalDiameter, tipDiameter, pts, 1, 4)
	assert.ErrorIs(t, err, fit.ErrDegenerate)
}

func TestBuildLayout(t *testing.T) {
	t.Parallel()

	pts := buildSamples(3, 8, func(geom.Point) float64 { return 0.01 })
	tbl, err := calibration.Build(nominalDiameter, tipDiameter, pts, 3, 8)
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())

	require.Len(t, tbl.Rings, 4)
	wantLat := []float64{0, 30, 60, 90}
	for i, r := range tbl.Rings {
		assert.InDelta(t, wantLat[i], r.Latitude, 1e-12)
	}
	assert.Len(t, tbl.Rings[0].Nodes, 2)
	for _, r := range tbl.Rings[1:] {
		require.Len(t, r.Nodes, 9)
		assert.Equal(t, 0.0, r.Nodes[0].Longitude)
		assert.Equal(t, 45.0, r.Nodes[1].Longitude)
		assert.Equal(t, r.Nodes[0].Magnitude, r.Nodes[8].Magnitude)
	}
	// A uniform shortfall fits a smaller concentric sphere: every
	// magnitude is the shortfall.
	for _, mag := range tbl.Magnitudes() {
		assert.InDelta(t, 0.01, mag, 1e-9)
	}
	lo, hi := tbl.Range()
	assert.InDelta(t, 0.01, lo, 1e-9)
	assert.InDelta(t, 0.01, hi, 1e-9)
}

func TestCompensationAtNodes(t *testing.T) {
	t.Parallel()

	const rings, perRing = 3, 8
	m := builtMap(t, rings, perRing)
	tbl := m.Table()
	dirs := calibration.SampleDirections(rings, perRing)

	pole := r3.Scale(-1, dirs[0])
	assert.InDelta(t, tbl.Rings[0].Nodes[0].Magnitude, compensationMagnitude(m, pole), 1e-12)

	k := 1
	for i := 1; i <= rings; i++ {
		for j := 0; j < perRing; j++ {
			dir := r3.Scale(-1, dirs[k])
			want := tbl.Rings[i].Nodes[j].Magnitude
			assert.InDelta(t, want, compensationMagnitude(m, dir), 1e-9, "ring %d node %d", i, j)
			k++
		}
	}
}

func TestCompensationVector(t *testing.T) {
	t.Parallel()

	m := calibration.NewMap(nil)
	require.NoError(t, m.SetTable(simpleTable()))

	// Travelling straight down approaches the pole; length is irrelevant.
	v := m.ComputeCompensation(0, 0, -10)
	testutil.AssertPointNear(t, v, geom.NewPoint(0, 0, -0.5), 1e-12)

	// Travelling +X approaches the equator at longitude 180.
	v = m.ComputeCompensation(2, 0, 0)
	testutil.AssertPointNear(t, v, geom.NewPoint(3, 0, 0), 1e-12)
}

func TestTableMagnitude(t *testing.T) {
	t.Parallel()

	tbl := simpleTable()
	tests := []struct {
		name       string
		colat, lon float64
		want       float64
	}{
		{"pole", 0, 123, 0.5},
		{"equator node", 90, 180, 3},
		{"equator between nodes", 90, 90, 2},
		{"midway to equator", 45, 90, 1.25},
		{"near pole", 9, 0, 0.55},
		{"past equator clamps", 120, 90, 2},
		{"just below seam", 90, 359.999, 1 + 2*(0.001/180)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tbl.Magnitude(tt.colat, tt.lon), 1e-12)
		})
	}
}

func TestTableMagnitudeOffsetRing(t *testing.T) {
	t.Parallel()

	// Ring nodes start at -10 and close at 350.
	tbl, err := calibration.Unmarshal([]byte(`[[0,[[0,1],[360,1]]],[90,[[-10,2],[170,4],[350,2]]]]`))
	require.NoError(t, err)

	tests := []struct {
		name string
		lon  float64
		want float64
	}{
		{"first node", 350, 2},
		{"past closing node", 355, 2 + 2*(5.0/180)},
		{"just below seam", 359, 2 + 2*(9.0/180)},
		{"zero", 0, 2 + 2*(10.0/180)},
		{"interior node", 170, 4},
		{"falling side", 260, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tbl.Magnitude(90, tt.lon), 1e-12)
		})
	}

	assert.InDelta(t, tbl.Magnitude(90, 359.999), tbl.Magnitude(90, 0.001), 1e-4)
	assert.InDelta(t, tbl.Magnitude(45, 359.999), tbl.Magnitude(45, 0.001), 1e-4)
}

func TestCompensationWrapContinuity(t *testing.T) {
	t.Parallel()

	m := builtMap(t, 3, 8)
	for _, colat := range []float64{15, 30, 45, 75, 90} {
		before := compensationMagnitude(m, travel(colat, 359.999))
		after := compensationMagnitude(m, travel(colat, 0.001))
		assert.InDelta(t, before, after, 1e-6, "colatitude %g", colat)
	}
}

func TestCompensationPastEquator(t *testing.T) {
	t.Parallel()

	m := builtMap(t, 3, 8)
	for _, lon := range []float64{0, 22.5, 100, 300} {
		equator := compensationMagnitude(m, travel(90, lon))
		below := compensationMagnitude(m, travel(130, lon))
		assert.InDelta(t, equator, below, 1e-9, "longitude %g", lon)
	}
}

func TestCompensationZero(t *testing.T) {
	t.Parallel()

	t.Run("unbuilt", func(t *testing.T) {
		t.Parallel()
		m := calibration.NewMap(nil)
		assert.True(t, m.Enabled())
		assert.False(t, m.Built())
		assert.Equal(t, geom.Point{}, m.ComputeCompensation(0, 0, -1))
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		m := builtMap(t, 2, 6)
		require.NotEqual(t, geom.Point{}, m.ComputeCompensation(0, 0, -1))

		m.Disable()
		assert.False(t, m.Enabled())
		assert.Equal(t, geom.Point{}, m.ComputeCompensation(0, 0, -1))

		m.Enable()
		assert.NotEqual(t, geom.Point{}, m.ComputeCompensation(0, 0, -1))
	})

	t.Run("zero direction", func(t *testing.T) {
		t.Parallel()
		m := builtMap(t, 2, 6)
		assert.Equal(t, geom.Point{}, m.ComputeCompensation(0, 0, 0))
		assert.Equal(t, geom.Point{}, m.ComputeCompensation(math.NaN(), 0, 1))
	})
}

func TestFailedBuildKeepsTable(t *testing.T) {
	t.Parallel()

	m := builtMap(t, 2, 6)
	before := m.Table()
	err := m.Build(nominalDiameter, tipDiameter, buildSamples(2, 5, nil), 2, 6)
	require.ErrorIs(t, err, calibration.ErrSampleCount)
	if diff := cmp.Diff(before, m.Table()); diff != "" {
		t.Errorf("table changed after failed build (-before +after):\n%s", diff)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("wire form", func(t *testing.T) {
		t.Parallel()
		b, err := simpleTable().Marshal()
		require.NoError(t, err)
		assert.Equal(t, `[[0,[[0,0.5],[360,0.5]]],[90,[[0,1],[180,3],[360,1]]]]`, string(b))
	})

	t.Run("built table", func(t *testing.T) {
		t.Parallel()
		m := builtMap(t, 3, 8)
		b, err := m.Table().Marshal()
		require.NoError(t, err)

		restored, err := calibration.Unmarshal(b)
		require.NoError(t, err)
		if diff := cmp.Diff(m.Table(), restored); diff != "" {
			t.Errorf("restored table mismatch (-want +got):\n%s", diff)
		}
		again, err := restored.Marshal()
		require.NoError(t, err)
		assert.Equal(t, string(b), string(again))

		other := calibration.NewMap(nil)
		require.NoError(t, other.Restore(calibration.FromSerialized(b)))
		for _, d := range testutil.RandomUnitVectors(testutil.NewRand(3), 25) {
			assert.Equal(t, m.ComputeCompensation(d.X, d.Y, d.Z), other.ComputeCompensation(d.X, d.Y, d.Z))
		}
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		t.Parallel()
		_, err := calibration.Unmarshal([]byte(" [[0, [[0, 1], [360, 1]]]]\n"))
		assert.NoError(t, err)
	})
}

func TestUnmarshalRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{`},
		{"object", `{"rings":[]}`},
		{"empty", `[]`},
		{"node arity", `[[0,[[0,1,2],[360,1]]]]`},
		{"ring arity", `[[0]]`},
		{"pole latitude", `[[5,[[0,1],[360,1]]]]`},
		{"pole nodes", `[[0,[[0,1],[180,1],[360,1]]]]`},
		{"latitude order", `[[0,[[0,1],[360,1]]],[60,[[0,1],[360,1]]],[30,[[0,1],[360,1]]]]`},
		{"longitude order", `[[0,[[0,1],[360,1]]],[90,[[0,1],[200,2],[100,2],[360,1]]]]`},
		{"open ring", `[[0,[[0,1],[360,1]]],[90,[[0,1],[180,2]]]]`},
		{"closure magnitude", `[[0,[[0,1],[360,1]]],[90,[[0,1],[180,2],[360,1.5]]]]`},
		{"trailing data", `[[0,[[0,1],[360,1]]]] [1]`},
		{"trailing bracket", `[[0,[[0,1],[360,1]]]]]`},
		{"trailing brace", `[[0,[[0,1],[360,1]]]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := calibration.Unmarshal([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	var nilTable *calibration.Table
	assert.ErrorIs(t, nilTable.Validate(), calibration.ErrMalformedTable)

	bad := simpleTable()
	bad.Rings[1].Nodes[2].Magnitude = math.NaN()
	assert.ErrorIs(t, bad.Validate(), calibration.ErrMalformedTable)

	_, err := bad.Marshal()
	assert.ErrorIs(t, err, calibration.ErrMalformedTable)
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("from table copies", func(t *testing.T) {
		t.Parallel()
		src := simpleTable()
		m := calibration.NewMap(nil)
		require.NoError(t, m.Restore(calibration.FromTable(src)))

		src.Rings[1].Nodes[1].Magnitude = 99
		assert.Equal(t, 3.0, m.Table().Rings[1].Nodes[1].Magnitude)

		// Mutating the returned copy does not reach the map either.
		m.Table().Rings[0].Nodes[0].Magnitude = 42
		assert.Equal(t, 0.5, m.Table().Rings[0].Nodes[0].Magnitude)
	})

	t.Run("rejects and keeps previous", func(t *testing.T) {
		t.Parallel()
		m := calibration.NewMap(nil)
		require.NoError(t, m.SetTable(simpleTable()))

		assert.ErrorIs(t, m.Restore(calibration.Source{}), calibration.ErrEmptySource)
		assert.ErrorIs(t, m.Restore(calibration.FromTable(&calibration.Table{})), calibration.ErrMalformedTable)
		assert.Error(t, m.Restore(calibration.FromSerialized([]byte("nope"))))
		assert.Equal(t, simpleTable(), m.Table())
	})
}
