// Package probe is the surface the machine scripting layer drives: point
// ingestion into the active feature, nested feature contexts, primitive
// queries and the calibration lifecycle.
package probe

import (
	"errors"
	"fmt"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"github.com/banshee-data/touchprobe/internal/config"
	"github.com/banshee-data/touchprobe/internal/feature"
	"github.com/banshee-data/touchprobe/internal/fit"
	"github.com/banshee-data/touchprobe/internal/geom"
	"github.com/banshee-data/touchprobe/internal/monitoring"
)

// ErrNoCalibration is returned when exporting before a table exists.
var ErrNoCalibration = errors.New("no calibration table")

var logger = monitoring.Component("ProbeSession")

// Session is one logical probing session. It is not safe for concurrent
// use; callers that share one across goroutines must serialize access.
type Session struct {
	fitter     *fit.Fitter
	kinematics fit.Kinematics
	stack      *feature.ContextStack
	cal        *calibration.Map

	approach     geom.Point
	compensation geom.Point
}

// NewSession creates a session from cfg. A nil cfg selects the defaults.
func NewSession(cfg *config.ProbeConfig) *Session {
	if cfg == nil {
		cfg = config.EmptyProbeConfig()
	}
	f := fit.NewFitter(cfg.FitOptions())
	s := &Session{
		fitter:     f,
		kinematics: cfg.GetKinematics(),
		stack:      feature.NewContextStack(f),
		cal:        calibration.NewMap(f),
	}
	if !cfg.GetCompensationEnabled() {
		s.cal.Disable()
	}
	return s
}

// Fitter returns the fitter shared by every feature of the session.
func (s *Session) Fitter() *fit.Fitter { return s.fitter }

// AddPoint appends a point to the active feature.
func (s *Session) AddPoint(x, y, z float64) { s.stack.ActiveFeature().AddPoint(x, y, z) }

// ClearPoints empties the active feature.
func (s *Session) ClearPoints() { s.stack.ActiveFeature().ClearPoints() }

// PushFeatureContext opens a fresh feature namespace.
func (s *Session) PushFeatureContext() { s.stack.Push() }

// PopFeatureContext discards the innermost feature namespace.
func (s *Session) PopFeatureContext() error { return s.stack.Pop() }

// WithFeatureContext runs fn in a fresh feature namespace that is discarded
// on every exit path.
func (s *Session) WithFeatureContext(fn func() error) error { return s.stack.WithContext(fn) }

// ContextDepth returns the number of open feature namespaces.
func (s *Session) ContextDepth() int { return s.stack.Depth() }

// SetActiveFeature selects the feature AddPoint and ClearPoints act on.
func (s *Session) SetActiveFeature(id int) { s.stack.SetActiveFeatureID(id) }

// ActiveFeature returns the selected feature ID.
func (s *Session) ActiveFeature() int { return s.stack.ActiveFeatureID() }

// Feature returns feature id of the innermost namespace.
func (s *Session) Feature(id int) *feature.Feature { return s.stack.Feature(id) }

// Average returns the centroid of feature id in the innermost namespace.
func (s *Session) Average(id int) (geom.Point, error) { return s.Feature(id).Average() }

// Line returns the best-fit line of feature id.
func (s *Session) Line(id int) (fit.Line, error) { return s.Feature(id).Line() }

// Plane returns the best-fit plane of feature id.
func (s *Session) Plane(id int) (fit.Plane, error) { return s.Feature(id).Plane() }

// Circle returns the best-fit 3D circle of feature id.
func (s *Session) Circle(id int) (fit.Circle, error) { return s.Feature(id).Circle() }

// Circle2D returns the circle fitted to the (x, y) coordinates of feature id.
func (s *Session) Circle2D(id int) (fit.Circle2D, error) { return s.Feature(id).Circle2D() }

// Sphere returns the best-fit sphere of feature id.
func (s *Session) Sphere(id int) (fit.Sphere, error) { return s.Feature(id).Sphere() }

// BuildCalibration builds the compensation table from the points of
// feature featureID. On failure the previous table stays in place.
func (s *Session) BuildCalibration(nominal, tip float64, featureID, rings, perRing int) error {
	samples := s.Feature(featureID).Points()
	if err := s.cal.Build(nominal, tip, samples, rings, perRing); err != nil {
		return fmt.Errorf("build calibration from feature %d: %w", featureID, err)
	}
	lo, hi := s.cal.Table().Range()
	logger.Logf("calibration built: rings=%d per_ring=%d samples=%d magnitude=[%.6g, %.6g]",
		rings, perRing, len(samples), lo, hi)
	s.refresh()
	return nil
}

// EnableCompensation turns compensation on.
func (s *Session) EnableCompensation() {
	s.cal.Enable()
	s.refresh()
}

// DisableCompensation turns compensation off; Compensation reports zero
// until it is enabled again.
func (s *Session) DisableCompensation() {
	s.cal.Disable()
	s.refresh()
}

// CompensationEnabled reports whether compensation is on.
func (s *Session) CompensationEnabled() bool { return s.cal.Enabled() }

// SetApproachDirection records the machine-frame travel direction of the
// next probe move and caches its compensation vector.
func (s *Session) SetApproachDirection(dx, dy, dz float64) {
	s.approach = geom.NewPoint(dx, dy, dz)
	s.refresh()
}

// SetToolApproachDirection is SetApproachDirection for a direction given
// in the tool frame at machine position pos. Sessions without configured
// kinematics use the direction as is.
func (s *Session) SetToolApproachDirection(pos fit.Position, dx, dy, dz float64) {
	d := fit.TransformDirectionLocalToGlobal(s.kinematics, pos, geom.NewPoint(dx, dy, dz))
	s.SetApproachDirection(d.X, d.Y, d.Z)
}

// Compensation returns the cached compensation vector.
func (s *Session) Compensation() (x, y, z float64) {
	return s.compensation.X, s.compensation.Y, s.compensation.Z
}

func (s *Session) refresh() {
	s.compensation = s.cal.ComputeCompensation(s.approach.X, s.approach.Y, s.approach.Z)
}

// Calibration returns a copy of the current table, or nil.
func (s *Session) Calibration() *calibration.Table { return s.cal.Table() }

// ExportCalibration returns the current table in wire form.
func (s *Session) ExportCalibration() ([]byte, error) {
	t := s.cal.Table()
	if t == nil {
		return nil, ErrNoCalibration
	}
	return t.Marshal()
}

// RestoreCalibration installs a previously built table without rebuilding.
func (s *Session) RestoreCalibration(src calibration.Source) error {
	if err := s.cal.Restore(src); err != nil {
		return fmt.Errorf("restore calibration: %w", err)
	}
	t := s.cal.Table()
	logger.Logf("calibration restored: rings=%d", len(t.Rings)-1)
	s.refresh()
	return nil
}
