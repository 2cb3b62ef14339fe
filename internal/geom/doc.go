// Package geom holds the linear-algebra primitives shared by the fitting
// library: points, centroids, principal axes via SVD, and axis+angle
// rotations in 3×3 and 4×4 row-major form.
//
// Dependency rule: geom depends only on gonum. It must not import fit,
// feature or calibration.
package geom
