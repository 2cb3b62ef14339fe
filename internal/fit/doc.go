// Package fit implements the best-fit primitives used by touch-probe
// routines: line, plane, 2D and 3D circle, sphere, plus line-line closest
// approach, point-plane projection and rotary-axis direction transforms.
//
// Every function is pure. Inputs with too few points, or with points that
// cannot define the requested primitive, fail with *DegenerateInputError
// rather than returning a meaningless result.
package fit
