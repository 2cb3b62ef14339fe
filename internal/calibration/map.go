package calibration

import (
	"errors"
	"math"

	"github.com/banshee-data/touchprobe/internal/fit"
	"github.com/banshee-data/touchprobe/internal/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Map holds the current calibration table and the compensation switch.
// The zero value is not usable; call NewMap.
type Map struct {
	fitter  *fit.Fitter
	table   *Table
	enabled bool
}

// NewMap returns an unbuilt, enabled map. A nil fitter selects the package
// defaults.
func NewMap(f *fit.Fitter) *Map {
	if f == nil {
		f = fit.Default()
	}
	return &Map{fitter: f, enabled: true}
}

// Build replaces the table with one built from samples. On error the
// previous table is kept.
func (m *Map) Build(nominal, tip float64, samples []geom.Point, rings, perRing int) error {
	t, err := build(m.fitter, nominal, tip, samples, rings, perRing)
	if err != nil {
		return err
	}
	m.table = t
	return nil
}

// Enable turns compensation on.
func (m *Map) Enable() { m.enabled = true }

// Disable turns compensation off. The table is kept.
func (m *Map) Disable() { m.enabled = false }

// Enabled reports whether compensation is on.
func (m *Map) Enabled() bool { return m.enabled }

// Built reports whether a table is loaded.
func (m *Map) Built() bool { return m.table != nil }

// Table returns a copy of the current table, or nil.
func (m *Map) Table() *Table { return m.table.Clone() }

// SetTable validates t and installs a copy of it.
func (m *Map) SetTable(t *Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.table = t.Clone()
	return nil
}

// Restore installs the table held by src without rebuilding.
func (m *Map) Restore(src Source) error {
	t, err := src.Resolve()
	if err != nil {
		return err
	}
	m.table = t
	return nil
}

// ComputeCompensation returns the compensation vector for a probe travelling
// along (dx, dy, dz). The table is indexed by the surface normal being
// approached, which is the negated travel direction; the result is the
// interpolated magnitude along the unit travel direction. It returns the
// zero vector when compensation is disabled, no table is loaded, or the
// direction has no length.
func (m *Map) ComputeCompensation(dx, dy, dz float64) geom.Point {
	if !m.enabled || m.table == nil {
		return geom.Point{}
	}
	u, n := geom.Normalize(geom.NewPoint(dx, dy, dz))
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return geom.Point{}
	}
	colat, lon := sphericalAngles(r3.Scale(-1, u))
	return r3.Scale(m.table.Magnitude(colat, lon), u)
}

// sphericalAngles returns the colatitude from +Z and the longitude in
// [0, 360) of the unit vector u, in degrees.
func sphericalAngles(u geom.Point) (colat, lon float64) {
	colat = geom.Degrees(math.Acos(math.Max(-1, math.Min(1, u.Z))))
	lon = geom.Degrees(math.Atan2(u.Y, u.X))
	if lon < 0 {
		lon += 360
	}
	if lon >= 360 {
		lon -= 360
	}
	return colat, lon
}

// Source is a calibration table handed in from outside: either a table
// value or its serialized wire form. It is resolved once by Map.Restore.
type Source struct {
	kind  sourceKind
	table *Table
	data  []byte
}

type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceTable
	sourceSerialized
)

// ErrEmptySource is returned when a zero Source is restored.
var ErrEmptySource = errors.New("empty calibration source")

// FromTable wraps an in-memory table.
func FromTable(t *Table) Source { return Source{kind: sourceTable, table: t} }

// FromSerialized wraps a table in wire form.
func FromSerialized(b []byte) Source { return Source{kind: sourceSerialized, data: b} }

// Resolve returns a validated table owned by the caller.
func (s Source) Resolve() (*Table, error) {
	switch s.kind {
	case sourceTable:
		if err := s.table.Validate(); err != nil {
			return nil, err
		}
		return s.table.Clone(), nil
	case sourceSerialized:
		return Unmarshal(s.data)
	default:
		return nil, ErrEmptySource
	}
}
