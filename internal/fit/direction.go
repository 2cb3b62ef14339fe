package fit

import (
	"github.com/banshee-data/touchprobe/internal/geom"
)

// Kinematics names the machine kinematics module. Only the rotary table
// configurations that change the tool-to-machine orientation are modelled.
type Kinematics string

const (
	// KinematicsTrunnionBC is a table-rotary machine with a B tilt about Y
	// carrying a C rotary about Z.
	KinematicsTrunnionBC Kinematics = "xyzbc-trt-kins"
	// KinematicsTrunnionAC is a table-rotary machine with an A tilt about X
	// carrying a C rotary about Z.
	KinematicsTrunnionAC Kinematics = "xyzac-trt-kins"
)

// Position is a machine position. Linear axes are in caller units, rotary
// axes in degrees.
type Position struct {
	X, Y, Z float64
	A, B, C float64
}

// rotation returns the tool-local to machine-global rotation for pos.
// Unknown kinematics map to the identity.
func (k Kinematics) rotation(pos Position) geom.Transform {
	switch k {
	case KinematicsTrunnionBC:
		return geom.RotationY(geom.Radians(pos.B)).Mul(geom.RotationZ(geom.Radians(pos.C)))
	case KinematicsTrunnionAC:
		return geom.RotationX(geom.Radians(pos.A)).Mul(geom.RotationZ(geom.Radians(pos.C)))
	default:
		return geom.Identity()
	}
}

// Known reports whether k is one of the modelled kinematics.
func (k Kinematics) Known() bool {
	return k == KinematicsTrunnionBC || k == KinematicsTrunnionAC
}

// TransformDirectionLocalToGlobal rotates dir from the tool-local frame into
// the machine frame at pos.
func TransformDirectionLocalToGlobal(k Kinematics, pos Position, dir geom.Point) geom.Point {
	return k.rotation(pos).Apply(dir)
}

// TransformDirectionGlobalToLocal is the inverse of
// TransformDirectionLocalToGlobal for the same position.
func TransformDirectionGlobalToLocal(k Kinematics, pos Position, dir geom.Point) geom.Point {
	return k.rotation(pos).Inverse().Apply(dir)
}
