package geom

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrFactorization is returned when the SVD of a point matrix does not
// converge. In practice this only happens for non-finite input.
var ErrFactorization = errors.New("svd factorization failed")

// Axes holds the principal axes of a point set: the right-singular vectors
// of the mean-centred N×3 point matrix, ordered by decreasing singular
// value. When fewer than three points are supplied the trailing singular
// values are zero and the corresponding vectors complete an orthonormal
// basis.
type Axes struct {
	Centroid Point
	Vectors  [3]Point
	Values   [3]float64
}

// Major returns the direction of maximum variance.
func (a Axes) Major() Point { return a.Vectors[0] }

// Minor returns the direction of minimum variance.
func (a Axes) Minor() Point { return a.Vectors[2] }

// PrincipalAxes runs a singular value decomposition on the mean-centred
// points.
//
// Rows are fed to the factorization in lexicographic order, so any
// permutation of the same points produces bit-identical axes. Line fitting
// relies on this to make reversed input yield an exactly negated direction.
func PrincipalAxes(pts []Point) (Axes, error) {
	if len(pts) == 0 {
		return Axes{}, errors.New("principal axes of empty point set")
	}
	centred, c := Center(pts)
	sort.Slice(centred, func(i, j int) bool { return lessLex(centred[i], centred[j]) })

	data := make([]float64, 0, 3*len(centred))
	for _, p := range centred {
		data = append(data, p.X, p.Y, p.Z)
	}
	a := mat.NewDense(len(centred), 3, data)

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFullV); !ok {
		return Axes{}, ErrFactorization
	}
	var v mat.Dense
	svd.VTo(&v)
	values := svd.Values(nil)

	axes := Axes{Centroid: c}
	for i := 0; i < 3; i++ {
		axes.Vectors[i] = Point{X: v.At(0, i), Y: v.At(1, i), Z: v.At(2, i)}
		if i < len(values) {
			axes.Values[i] = values[i]
		}
	}
	return axes, nil
}

func lessLex(a, b r3.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
