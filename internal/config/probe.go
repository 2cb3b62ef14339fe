package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/touchprobe/internal/fit"
)

// DefaultConfigPath is the path to the canonical probe defaults file.
// This is the single source of truth for all default probe settings.
const DefaultConfigPath = "config/probe.defaults.json"

// Calibration defaults, kept in step with DefaultConfigPath.
const (
	DefaultCalibrationRings          = 3
	DefaultCalibrationSamplesPerRing = 8
	DefaultNominalSphereDiameter     = 25.0
	DefaultProbeTipDiameter          = 2.0
)

// ProbeConfig holds the fitting tolerances and calibration defaults of a
// probe session. Every field is optional; the Get* methods supply the
// default for anything left unset.
type ProbeConfig struct {
	// Fitting tolerances
	ParallelTolerance   *float64 `json:"parallel_tolerance,omitempty"`
	DegenerateTolerance *float64 `json:"degenerate_tolerance,omitempty"`
	CircleMaxIterations *int     `json:"circle_max_iterations,omitempty"`
	CircleTolerance     *float64 `json:"circle_tolerance,omitempty"`

	// Calibration grid and artefact
	CalibrationRings          *int     `json:"calibration_rings,omitempty"`
	CalibrationSamplesPerRing *int     `json:"calibration_samples_per_ring,omitempty"`
	NominalSphereDiameter     *float64 `json:"nominal_sphere_diameter,omitempty"`
	ProbeTipDiameter          *float64 `json:"probe_tip_diameter,omitempty"`
	CompensationEnabled       *bool    `json:"compensation_enabled,omitempty"`

	// Machine kinematics module name, e.g. "xyzbc-trt-kins"
	Kinematics *string `json:"kinematics,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyProbeConfig returns a ProbeConfig with all fields set to nil.
// Use LoadProbeConfig to load actual values from the defaults file.
func EmptyProbeConfig() *ProbeConfig {
	return &ProbeConfig{}
}

// DefaultProbeConfig returns a ProbeConfig with every field set to its
// default.
func DefaultProbeConfig() *ProbeConfig {
	def := fit.DefaultOptions()
	return &ProbeConfig{
		ParallelTolerance:         ptrFloat64(def.ParallelTolerance),
		DegenerateTolerance:       ptrFloat64(def.DegenerateTolerance),
		CircleMaxIterations:       ptrInt(def.CircleMaxIterations),
		CircleTolerance:           ptrFloat64(def.CircleTolerance),
		CalibrationRings:          ptrInt(DefaultCalibrationRings),
		CalibrationSamplesPerRing: ptrInt(DefaultCalibrationSamplesPerRing),
		NominalSphereDiameter:     ptrFloat64(DefaultNominalSphereDiameter),
		ProbeTipDiameter:          ptrFloat64(DefaultProbeTipDiameter),
		CompensationEnabled:       ptrBool(true),
		Kinematics:                ptrString(""),
	}
}

// LoadProbeConfig loads a ProbeConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadProbeConfig(path string) (*ProbeConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyProbeConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical probe defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ProbeConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/storage/sqlite/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadProbeConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ProbeConfig) Validate() error {
	tolerances := []struct {
		name string
		v    *float64
	}{
		{"parallel_tolerance", c.ParallelTolerance},
		{"degenerate_tolerance", c.DegenerateTolerance},
		{"circle_tolerance", c.CircleTolerance},
	}
	for _, tol := range tolerances {
		if tol.v != nil && (*tol.v <= 0 || *tol.v >= 1) {
			return fmt.Errorf("%s must be in (0, 1), got %g", tol.name, *tol.v)
		}
	}

	if c.CircleMaxIterations != nil && *c.CircleMaxIterations < 1 {
		return fmt.Errorf("circle_max_iterations must be positive, got %d", *c.CircleMaxIterations)
	}
	if c.CalibrationRings != nil && *c.CalibrationRings < 1 {
		return fmt.Errorf("calibration_rings must be positive, got %d", *c.CalibrationRings)
	}
	if c.CalibrationSamplesPerRing != nil && *c.CalibrationSamplesPerRing < 1 {
		return fmt.Errorf("calibration_samples_per_ring must be positive, got %d", *c.CalibrationSamplesPerRing)
	}
	if c.NominalSphereDiameter != nil && *c.NominalSphereDiameter < 0 {
		return fmt.Errorf("nominal_sphere_diameter must be non-negative, got %g", *c.NominalSphereDiameter)
	}
	if c.ProbeTipDiameter != nil && *c.ProbeTipDiameter < 0 {
		return fmt.Errorf("probe_tip_diameter must be non-negative, got %g", *c.ProbeTipDiameter)
	}

	if c.Kinematics != nil && *c.Kinematics != "" && !fit.Kinematics(*c.Kinematics).Known() {
		return fmt.Errorf("unknown kinematics %q", *c.Kinematics)
	}

	return nil
}

// FitOptions returns the fitting tolerances as fit.Options.
func (c *ProbeConfig) FitOptions() fit.Options {
	return fit.Options{
		ParallelTolerance:   c.GetParallelTolerance(),
		DegenerateTolerance: c.GetDegenerateTolerance(),
		CircleMaxIterations: c.GetCircleMaxIterations(),
		CircleTolerance:     c.GetCircleTolerance(),
	}
}

// GetParallelTolerance returns the parallel_tolerance value or the default.
func (c *ProbeConfig) GetParallelTolerance() float64 {
	if c.ParallelTolerance == nil {
		return fit.DefaultOptions().ParallelTolerance
	}
	return *c.ParallelTolerance
}

// GetDegenerateTolerance returns the degenerate_tolerance value or the default.
func (c *ProbeConfig) GetDegenerateTolerance() float64 {
	if c.DegenerateTolerance == nil {
		return fit.DefaultOptions().DegenerateTolerance
	}
	return *c.DegenerateTolerance
}

// GetCircleMaxIterations returns the circle_max_iterations value or the default.
func (c *ProbeConfig) GetCircleMaxIterations() int {
	if c.CircleMaxIterations == nil {
		return fit.DefaultOptions().CircleMaxIterations
	}
	return *c.CircleMaxIterations
}

// GetCircleTolerance returns the circle_tolerance value or the default.
func (c *ProbeConfig) GetCircleTolerance() float64 {
	if c.CircleTolerance == nil {
		return fit.DefaultOptions().CircleTolerance
	}
	return *c.CircleTolerance
}

// GetCalibrationRings returns the calibration_rings value or the default.
func (c *ProbeConfig) GetCalibrationRings() int {
	if c.CalibrationRings == nil {
		return DefaultCalibrationRings
	}
	return *c.CalibrationRings
}

// GetCalibrationSamplesPerRing returns the calibration_samples_per_ring value or the default.
func (c *ProbeConfig) GetCalibrationSamplesPerRing() int {
	if c.CalibrationSamplesPerRing == nil {
		return DefaultCalibrationSamplesPerRing
	}
	return *c.CalibrationSamplesPerRing
}

// GetNominalSphereDiameter returns the nominal_sphere_diameter value or the default.
func (c *ProbeConfig) GetNominalSphereDiameter() float64 {
	if c.NominalSphereDiameter == nil {
		return DefaultNominalSphereDiameter
	}
	return *c.NominalSphereDiameter
}

// GetProbeTipDiameter returns the probe_tip_diameter value or the default.
func (c *ProbeConfig) GetProbeTipDiameter() float64 {
	if c.ProbeTipDiameter == nil {
		return DefaultProbeTipDiameter
	}
	return *c.ProbeTipDiameter
}

// GetCompensationEnabled returns the compensation_enabled value or the default.
func (c *ProbeConfig) GetCompensationEnabled() bool {
	if c.CompensationEnabled == nil {
		return true // default
	}
	return *c.CompensationEnabled
}

// GetKinematics returns the configured kinematics, or "" for none.
func (c *ProbeConfig) GetKinematics() fit.Kinematics {
	if c.Kinematics == nil {
		return ""
	}
	return fit.Kinematics(*c.Kinematics)
}
