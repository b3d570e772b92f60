package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3i is an integer 3-vector used to address grid cells and to express
// footprints in cells.
type Vec3i [3]int

// One is the unit footprint.
var One = Vec3i{1, 1, 1}

func NewVec3i(x, y, z int) Vec3i {
	return Vec3i{x, y, z}
}

func (v Vec3i) X() int {
	return v[0]
}

func (v Vec3i) Y() int {
	return v[1]
}

func (v Vec3i) Z() int {
	return v[2]
}

func (v1 Vec3i) Add(v2 Vec3i) Vec3i {
	return Vec3i{v1[0] + v2[0], v1[1] + v2[1], v1[2] + v2[2]}
}

func (v1 Vec3i) Sub(v2 Vec3i) Vec3i {
	return Vec3i{v1[0] - v2[0], v1[1] - v2[1], v1[2] - v2[2]}
}

// Volume returns the number of cells covered by a footprint.
func (v Vec3i) Volume() int {
	return v[0] * v[1] * v[2]
}

// Inside reports whether v is a valid coordinate of a grid with the given
// extent.
func (v Vec3i) Inside(extent Vec3i) bool {
	for i := range v {
		if v[i] < 0 || v[i] >= extent[i] {
			return false
		}
	}
	return true
}

func (v Vec3i) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func MaxVec3i(a, b Vec3i) Vec3i {
	return Vec3i{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

func MinVec3i(a, b Vec3i) Vec3i {
	return Vec3i{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func Floor(v mgl64.Vec3) Vec3i {
	return Vec3i{int(math.Floor(v[0])), int(math.Floor(v[1])), int(math.Floor(v[2]))}
}

func Ceil(v mgl64.Vec3) Vec3i {
	return Vec3i{int(math.Ceil(v[0])), int(math.Ceil(v[1])), int(math.Ceil(v[2]))}
}

// RoundAround rounds each component up when its fractional part is strictly
// greater than breakpoint, and down otherwise.
func RoundAround(v mgl64.Vec3, breakpoint float64) Vec3i {
	var r Vec3i
	for i, f := range v {
		if math.Mod(f, 1) > breakpoint {
			r[i] = int(math.Ceil(f))
		} else {
			r[i] = int(math.Floor(f))
		}
	}
	return r
}

// MulElem returns the component-wise product of a and b.
func MulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// DivElem returns the component-wise quotient of a and b.
func DivElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] / b[0], a[1] / b[1], a[2] / b[2]}
}

func Abs(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

// Euler returns the rotation described by angles in degrees, applied around
// z first, then x, then y.
func Euler(degrees mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(degrees[0]), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(mgl64.DegToRad(degrees[1]), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(degrees[2]), mgl64.Vec3{0, 0, 1})
	return qy.Mul(qx).Mul(qz)
}

// NormalizedQuat returns q normalized, or the identity when q is the zero
// value.
func NormalizedQuat(q mgl64.Quat) mgl64.Quat {
	if q.W == 0 && q.V == (mgl64.Vec3{}) {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}
