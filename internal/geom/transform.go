package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a 3×3 rotation matrix in row-major order.
type Transform [9]float64

// Identity returns the identity rotation.
func Identity() Transform {
	return Transform{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Rotation builds the rotation of angle radians about axis (Rodrigues
// form, right-handed). The axis need not be unit length. A zero axis or a
// zero angle yields the identity.
func Rotation(axis Point, angle float64) Transform {
	if angle == 0 || r3.Norm(axis) == 0 {
		return Identity()
	}
	rot := r3.NewRotation(angle, axis)
	cx := rot.Rotate(AxisX)
	cy := rot.Rotate(AxisY)
	cz := rot.Rotate(AxisZ)
	return Transform{
		cx.X, cy.X, cz.X,
		cx.Y, cy.Y, cz.Y,
		cx.Z, cy.Z, cz.Z,
	}
}

// RotationX returns a rotation of angle radians about the X axis.
func RotationX(angle float64) Transform {
	s, c := math.Sincos(angle)
	return Transform{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotationY returns a rotation of angle radians about the Y axis.
func RotationY(angle float64) Transform {
	s, c := math.Sincos(angle)
	return Transform{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotationZ returns a rotation of angle radians about the Z axis.
func RotationZ(angle float64) Transform {
	s, c := math.Sincos(angle)
	return Transform{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// Apply rotates p.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t[0]*p.X + t[1]*p.Y + t[2]*p.Z,
		Y: t[3]*p.X + t[4]*p.Y + t[5]*p.Z,
		Z: t[6]*p.X + t[7]*p.Y + t[8]*p.Z,
	}
}

// Mul returns t·u, the rotation that applies u first and then t.
func (t Transform) Mul(u Transform) Transform {
	var out Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = t[i*3]*u[j] + t[i*3+1]*u[3+j] + t[i*3+2]*u[6+j]
		}
	}
	return out
}

// Inverse returns the inverse rotation, which for an orthonormal matrix is
// its transpose.
func (t Transform) Inverse() Transform {
	return Transform{
		t[0], t[3], t[6],
		t[1], t[4], t[7],
		t[2], t[5], t[8],
	}
}

// Matrix4 expands t into a 4×4 row-major homogeneous matrix with zero
// translation, the layout ApplyPose expects.
func (t Transform) Matrix4() [16]float64 {
	return [16]float64{
		t[0], t[1], t[2], 0,
		t[3], t[4], t[5], 0,
		t[6], t[7], t[8], 0,
		0, 0, 0, 1,
	}
}

// ApplyPose applies a 4x4 row-major transform T to p.
func ApplyPose(p Point, T [16]float64) Point {
	return Point{
		X: T[0]*p.X + T[1]*p.Y + T[2]*p.Z + T[3],
		Y: T[4]*p.X + T[5]*p.Y + T[6]*p.Z + T[7],
		Z: T[8]*p.X + T[9]*p.Y + T[10]*p.Z + T[11],
	}
}

// IsRotation reports whether t is orthonormal with determinant +1 within tol.
func (t Transform) IsRotation(tol float64) bool {
	p := t.Mul(t.Inverse())
	id := Identity()
	for i := range p {
		if math.Abs(p[i]-id[i]) > tol {
			return false
		}
	}
	det := t[0]*(t[4]*t[8]-t[5]*t[7]) -
		t[1]*(t[3]*t[8]-t[5]*t[6]) +
		t[2]*(t[3]*t[7]-t[4]*t[6])
	return math.Abs(det-1) <= tol
}
