package rowan

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// composeTransform2D builds a 2D affine matrix applying, in order, scale,
// rotation, translation.
func composeTransform2D(pos mgl32.Vec2, rot float32, scale mgl32.Vec2) mgl32.Mat3 {
	sin, cos := math.Sincos(float64(rot))
	s, c := float32(sin), float32(cos)
	return mgl32.Mat3{
		c * scale[0], s * scale[0], 0,
		-s * scale[1], c * scale[1], 0,
		pos[0], pos[1], 1,
	}
}

// composeTransform3D builds a TRS matrix from position, rotation, scale.
func composeTransform3D(pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(pos[0], pos[1], pos[2])
	r := rot.Mat4()
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(r).Mul4(s)
}

// transformPoint2D applies a 2D affine matrix to a point.
func transformPoint2D(m mgl32.Mat3, p mgl32.Vec2) mgl32.Vec2 {
	v := m.Mul3x1(mgl32.Vec3{p[0], p[1], 1})
	return mgl32.Vec2{v[0], v[1]}
}

// finiteVec2 reports whether every component is a finite number.
func finiteVec2(v mgl32.Vec2) bool {
	return finite32(v[0]) && finite32(v[1])
}

// finiteVec3 reports whether every component is a finite number.
func finiteVec3(v mgl32.Vec3) bool {
	return finite32(v[0]) && finite32(v[1]) && finite32(v[2])
}

func finite32(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}

// eulerToQuat converts XYZ euler angles in radians to a quaternion.
func eulerToQuat(e mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(e[0], mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(e[1], mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(e[2], mgl32.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx)
}

// quatToEuler converts a quaternion back to XYZ euler angles in radians.
// Pitch clamps at the poles.
func quatToEuler(q mgl32.Quat) mgl32.Vec3 {
	w, x, y, z := float64(q.W), float64(q.X()), float64(q.Y()), float64(q.Z())

	sinX := 2 * (w*x + y*z)
	cosX := 1 - 2*(x*x+y*y)
	ex := math.Atan2(sinX, cosX)

	sinY := 2 * (w*y - z*x)
	var ey float64
	if math.Abs(sinY) >= 1 {
		ey = math.Copysign(math.Pi/2, sinY)
	} else {
		ey = math.Asin(sinY)
	}

	sinZ := 2 * (w*z + x*y)
	cosZ := 1 - 2*(y*y+z*z)
	ez := math.Atan2(sinZ, cosZ)

	return mgl32.Vec3{float32(ex), float32(ey), float32(ez)}
}
