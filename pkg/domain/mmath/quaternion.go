// 指示: miu200521358
package mmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quaternion は回転を表すクォータニオンである。
type Quaternion struct {
	mgl64.Quat
}

// NewQuaternion は単位クォータニオンを生成する。
func NewQuaternion() Quaternion {
	return Quaternion{Quat: mgl64.QuatIdent()}
}

// NewQuaternionFromDegrees はXYZ回転順(度)からクォータニオンを生成する。
// 列ベクトル規約で R = Rz * Ry * Rx に一致する。
func NewQuaternionFromDegrees(degreeX, degreeY, degreeZ float64) Quaternion {
	qx := mgl64.QuatRotate(DegToRad(degreeX), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(DegToRad(degreeY), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(DegToRad(degreeZ), mgl64.Vec3{0, 0, 1})
	return Quaternion{Quat: qz.Mul(qy).Mul(qx).Normalize()}
}

// NewQuaternionFromAxisAngle は回転軸と角度(ラジアン)からクォータニオンを生成する。
func NewQuaternionFromAxisAngle(axis Vec3, rad float64) Quaternion {
	unit := axis.Normalized()
	return Quaternion{Quat: mgl64.QuatRotate(rad, mgl64.Vec3{unit.X, unit.Y, unit.Z})}
}

// Muled は回転合成 q * other を返す。
func (q Quaternion) Muled(other Quaternion) Quaternion {
	return Quaternion{Quat: q.Quat.Mul(other.Quat).Normalize()}
}

// Inverted は逆回転を返す。
func (q Quaternion) Inverted() Quaternion {
	return Quaternion{Quat: q.Quat.Conjugate()}
}

// MulVec3 はベクトルを回転する。
func (q Quaternion) MulVec3(v Vec3) Vec3 {
	rotated := q.Quat.Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
	return NewVec3(rotated.X(), rotated.Y(), rotated.Z())
}

// Dot はクォータニオン内積を返す。
func (q Quaternion) Dot(other Quaternion) float64 {
	return q.Quat.Dot(other.Quat)
}

// Slerped は最短弧の球面線形補間結果を返す。
func (q Quaternion) Slerped(other Quaternion, t float64) Quaternion {
	target := other.Quat
	if q.Quat.Dot(target) < 0 {
		target = target.Scale(-1)
	}
	return Quaternion{Quat: mgl64.QuatSlerp(q.Quat.Normalize(), target.Normalize(), t)}
}

// ToDegrees はXYZ回転順のオイラー角(度)を返す。
func (q Quaternion) ToDegrees() Vec3 {
	m := q.Quat.Normalize().Mat4()
	// R = Rz*Ry*Rx の分解。ジンバル近傍は Z に回転を寄せる。
	sinY := Clamped(-m.At(2, 0), -1.0, 1.0)
	y := math.Asin(sinY)
	var x, z float64
	if math.Abs(sinY) < 1.0-1e-9 {
		x = math.Atan2(m.At(2, 1), m.At(2, 2))
		z = math.Atan2(m.At(1, 0), m.At(0, 0))
	} else {
		x = 0
		z = math.Atan2(-m.At(0, 1), m.At(1, 1))
	}
	return NewVec3(RadToDeg(x), RadToDeg(y), RadToDeg(z))
}

// NearEquals は同一回転かを許容誤差内で判定する。
func (q Quaternion) NearEquals(other Quaternion, epsilon float64) bool {
	return math.Abs(math.Abs(q.Dot(other))-1.0) <= epsilon
}
