package fit

// Options holds the numeric knobs of the fitting library.
type Options struct {
	// ParallelTolerance bounds how close |cos θ| may get to 1 before two
	// directions are treated as parallel.
	ParallelTolerance float64
	// DegenerateTolerance is the ratio of singular values below which a
	// point set is considered to have lost a dimension.
	DegenerateTolerance float64
	// CircleMaxIterations caps the Levenberg-Marquardt circle refinement.
	CircleMaxIterations int
	// CircleTolerance is the relative step size at which circle refinement
	// is considered converged.
	CircleTolerance float64
}

// DefaultOptions returns the tolerances used by the package-level
// functions.
func DefaultOptions() Options {
	return Options{
		ParallelTolerance:   1e-6,
		DegenerateTolerance: 1e-9,
		CircleMaxIterations: 100,
		CircleTolerance:     1e-12,
	}
}

// Fitter runs the fits with a fixed set of Options. The zero value is not
// usable; construct with NewFitter.
type Fitter struct {
	opts Options
}

// NewFitter creates a Fitter. Non-positive fields in opts fall back to
// DefaultOptions.
func NewFitter(opts Options) *Fitter {
	def := DefaultOptions()
	if opts.ParallelTolerance <= 0 {
		opts.ParallelTolerance = def.ParallelTolerance
	}
	if opts.DegenerateTolerance <= 0 {
		opts.DegenerateTolerance = def.DegenerateTolerance
	}
	if opts.CircleMaxIterations <= 0 {
		opts.CircleMaxIterations = def.CircleMaxIterations
	}
	if opts.CircleTolerance <= 0 {
		opts.CircleTolerance = def.CircleTolerance
	}
	return &Fitter{opts: opts}
}

// Options returns the effective options.
func (f *Fitter) Options() Options { return f.opts }

var defaultFitter = NewFitter(DefaultOptions())

// Default returns the Fitter used by the package-level functions.
func Default() *Fitter { return defaultFitter }
