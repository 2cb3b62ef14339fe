package probe

import (
	"fmt"
	"strings"
	"testing"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"github.com/banshee-data/touchprobe/internal/config"
	"github.com/banshee-data/touchprobe/internal/feature"
	"github.com/banshee-data/touchprobe/internal/fit"
	"github.com/banshee-data/touchprobe/internal/geom"
	"github.com/banshee-data/touchprobe/internal/monitoring"
	"github.com/banshee-data/touchprobe/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rings   = 2
	perRing = 6
)

func probeCalibrationSphere(s *Session, id int) {
	dirs := calibration.SampleDirections(rings, perRing)
	pts := testutil.ContactPoints(geom.NewPoint(200, 150, -50), 13.5, dirs, testutil.LobedDeviation(0.003, 0.002, 2))
	prev := s.ActiveFeature()
	s.SetActiveFeature(id)
	for _, p := range pts {
		s.AddPoint(p.X, p.Y, p.Z)
	}
	s.SetActiveFeature(prev)
}

func compensation(s *Session) geom.Point {
	x, y, z := s.Compensation()
	return geom.NewPoint(x, y, z)
}

func calibratedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(nil)
	probeCalibrationSphere(s, 9)
	require.NoError(t, s.BuildCalibration(25, 2, 9, rings, perRing))
	return s
}

func TestSessionPrimitives(t *testing.T) {
	t.Parallel()
	s := NewSession(config.DefaultProbeConfig())

	for _, p := range []geom.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}} {
		s.AddPoint(p.X, p.Y, p.Z)
	}
	sph, err := s.Sphere(0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sph.Radius, 1e-12)
	testutil.AssertPointNear(t, sph.Center, geom.Point{}, 1e-12)

	avg, err := s.Average(0)
	require.NoError(t, err)
	testutil.AssertPointNear(t, avg, geom.Point{}, 1e-15)

	s.SetActiveFeature(1)
	s.AddPoint(0, 0, 0)
	s.AddPoint(1, 1, 1)
	line, err := s.Line(1)
	require.NoError(t, err)
	testutil.AssertPointNear(t, line.Point, geom.NewPoint(0.5, 0.5, 0.5), 1e-12)

	_, err = s.Plane(1)
	assert.ErrorIs(t, err, fit.ErrDegenerate)
	_, err = s.Circle(1)
	assert.ErrorIs(t, err, fit.ErrDegenerate)
	_, err = s.Circle2D(1)
	assert.ErrorIs(t, err, fit.ErrDegenerate)

	s.ClearPoints()
	assert.Equal(t, 0, s.Feature(1).Len())
	assert.Equal(t, 6, s.Feature(0).Len())

	// A bore touched at four points on z = 2.
	s.SetActiveFeature(2)
	for _, p := range []geom.Point{{X: 4, Y: 1, Z: 2}, {X: 1, Y: 4, Z: 2}, {X: -2, Y: 1, Z: 2}, {X: 1, Y: -2, Z: 2}} {
		s.AddPoint(p.X, p.Y, p.Z)
	}
	pl, err := s.Plane(2)
	require.NoError(t, err)
	testutil.AssertPointNear(t, pl.Normal, geom.AxisZ, 1e-12)
	c, err := s.Circle(2)
	require.NoError(t, err)
	testutil.AssertPointNear(t, c.Center, geom.NewPoint(1, 1, 2), 1e-6)
	assert.InDelta(t, 3.0, c.Radius, 1e-6)
	c2, err := s.Circle2D(2)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, c2.Radius, 1e-6)
}

func TestSessionFeatureContexts(t *testing.T) {
	t.Parallel()
	s := NewSession(nil)
	s.AddPoint(1, 2, 3)

	s.PushFeatureContext()
	assert.Equal(t, 2, s.ContextDepth())
	assert.Equal(t, 0, s.Feature(0).Len())
	s.AddPoint(9, 9, 9)
	require.NoError(t, s.PopFeatureContext())

	assert.Equal(t, []geom.Point{{X: 1, Y: 2, Z: 3}}, s.Feature(0).Points())
	assert.ErrorIs(t, s.PopFeatureContext(), feature.ErrContextUnderflow)

	// A routine that fails still leaves the caller's namespace intact.
	err := s.WithFeatureContext(func() error {
		s.AddPoint(4, 4, 4)
		return fmt.Errorf("probe missed")
	})
	assert.EqualError(t, err, "probe missed")
	assert.Equal(t, 1, s.ContextDepth())
	assert.Equal(t, 1, s.Feature(0).Len())
}

func TestSessionCalibrationLifecycle(t *testing.T) {
	t.Parallel()
	s := calibratedSession(t)
	pole := s.Calibration().Rings[0].Nodes[0].Magnitude

	// Before a direction is set the cached vector is zero.
	assert.Equal(t, geom.Point{}, compensation(s))

	s.SetApproachDirection(0, 0, -1)
	testutil.AssertPointNear(t, compensation(s), geom.NewPoint(0, 0, -pole), 1e-12)

	s.DisableCompensation()
	assert.False(t, s.CompensationEnabled())
	assert.Equal(t, geom.Point{}, compensation(s))

	s.EnableCompensation()
	testutil.AssertPointNear(t, compensation(s), geom.NewPoint(0, 0, -pole), 1e-12)
}

func TestSessionBuildFailureKeepsTable(t *testing.T) {
	t.Parallel()
	s := calibratedSession(t)
	before := s.Calibration()

	s.AddPoint(1, 1, 1)
	err := s.BuildCalibration(25, 2, 0, rings, perRing)
	require.ErrorIs(t, err, calibration.ErrSampleCount)
	assert.Contains(t, err.Error(), "feature 0")
	assert.Equal(t, before, s.Calibration())
}

func TestSessionExportRestore(t *testing.T) {
	t.Parallel()
	s := calibratedSession(t)

	_, err := NewSession(nil).ExportCalibration()
	assert.ErrorIs(t, err, ErrNoCalibration)

	data, err := s.ExportCalibration()
	require.NoError(t, err)

	restored := NewSession(nil)
	require.NoError(t, restored.RestoreCalibration(calibration.FromSerialized(data)))
	again, err := restored.ExportCalibration()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))

	for _, d := range testutil.RandomUnitVectors(testutil.NewRand(11), 20) {
		s.SetApproachDirection(d.X, d.Y, d.Z)
		restored.SetApproachDirection(d.X, d.Y, d.Z)
		assert.Equal(t, compensation(s), compensation(restored))
	}

	err = restored.RestoreCalibration(calibration.FromSerialized([]byte("[]")))
	assert.ErrorIs(t, err, calibration.ErrMalformedTable)
	assert.NotNil(t, restored.Calibration())
}

func TestSessionConfig(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadProbeConfig(testutil.WriteFile(t, t.TempDir(), "probe.json",
		`{"compensation_enabled": false, "kinematics": "xyzbc-trt-kins", "circle_max_iterations": 7}`))
	require.NoError(t, err)

	s := NewSession(cfg)
	assert.False(t, s.CompensationEnabled())
	assert.Equal(t, 7, s.Fitter().Options().CircleMaxIterations)
	assert.Equal(t, 1e-6, s.Fitter().Options().ParallelTolerance)
}

func TestSessionToolApproachDirection(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultProbeConfig()
	kin := string(fit.KinematicsTrunnionBC)
	cfg.Kinematics = &kin

	s := NewSession(cfg)
	probeCalibrationSphere(s, 3)
	require.NoError(t, s.BuildCalibration(25, 2, 3, rings, perRing))

	s.SetApproachDirection(-1, 0, 0)
	want := compensation(s)

	pos := fit.Position{B: 45, C: -30}
	s.SetToolApproachDirection(pos, -0.6123720407, -0.3535532057, -0.7071071863)
	testutil.AssertPointNear(t, compensation(s), want, 1e-6)
}

func TestSessionLogsCalibrationSummary(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()

	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	s := calibratedSession(t)
	data, err := s.ExportCalibration()
	require.NoError(t, err)
	require.NoError(t, NewSession(nil).RestoreCalibration(calibration.FromSerialized(data)))

	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[ProbeSession] calibration built: rings=2 per_ring=6 samples=13"), lines[0])
	assert.Equal(t, "[ProbeSession] calibration restored: rings=2", lines[1])
}
