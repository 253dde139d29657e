// 指示: miu200521358
package mmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mat4 は列ベクトル規約の4x4アフィン変換行列である。
// world = parent.Muled(local) で親子合成する。
type Mat4 struct {
	mgl64.Mat4
}

// NewMat4 は単位行列を生成する。
func NewMat4() Mat4 {
	return Mat4{Mat4: mgl64.Ident4()}
}

// NewMat4FromBasisTranslation は回転基底(列: u, v, w)と平行移動から行列を生成する。
func NewMat4FromBasisTranslation(u, v, w, translation Vec3) Mat4 {
	m := mgl64.Ident4()
	m.Set(0, 0, u.X)
	m.Set(1, 0, u.Y)
	m.Set(2, 0, u.Z)
	m.Set(0, 1, v.X)
	m.Set(1, 1, v.Y)
	m.Set(2, 1, v.Z)
	m.Set(0, 2, w.X)
	m.Set(1, 2, w.Y)
	m.Set(2, 2, w.Z)
	m.Set(0, 3, translation.X)
	m.Set(1, 3, translation.Y)
	m.Set(2, 3, translation.Z)
	return Mat4{Mat4: m}
}

// NewMat4FromTRS は平行移動・回転・スケールから行列 T*R*S を生成する。
func NewMat4FromTRS(translation Vec3, rotation Quaternion, scale Vec3) Mat4 {
	t := mgl64.Translate3D(translation.X, translation.Y, translation.Z)
	r := rotation.Quat.Normalize().Mat4()
	s := mgl64.Scale3D(scale.X, scale.Y, scale.Z)
	return Mat4{Mat4: t.Mul4(r).Mul4(s)}
}

// Muled は行列積 m * other を返す。
func (m Mat4) Muled(other Mat4) Mat4 {
	return Mat4{Mat4: m.Mat4.Mul4(other.Mat4)}
}

// Inverted は逆行列を返す。
func (m Mat4) Inverted() Mat4 {
	return Mat4{Mat4: m.Mat4.Inv()}
}

// MulVec3 は点を変換する(平行移動を含む)。
func (m Mat4) MulVec3(v Vec3) Vec3 {
	result := m.Mat4.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	return NewVec3(result.X(), result.Y(), result.Z())
}

// RotateVec3 は方向ベクトルを変換する(平行移動を含まない)。
func (m Mat4) RotateVec3(v Vec3) Vec3 {
	result := m.Mat4.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 0})
	return NewVec3(result.X(), result.Y(), result.Z())
}

// Translation は平行移動成分を返す。
func (m Mat4) Translation() Vec3 {
	return NewVec3(m.At(0, 3), m.At(1, 3), m.At(2, 3))
}

// AxisX は回転基底のX列を返す。
func (m Mat4) AxisX() Vec3 {
	return NewVec3(m.At(0, 0), m.At(1, 0), m.At(2, 0))
}

// AxisY は回転基底のY列を返す。
func (m Mat4) AxisY() Vec3 {
	return NewVec3(m.At(0, 1), m.At(1, 1), m.At(2, 1))
}

// AxisZ は回転基底のZ列を返す。
func (m Mat4) AxisZ() Vec3 {
	return NewVec3(m.At(0, 2), m.At(1, 2), m.At(2, 2))
}

// Quaternion はスケールを除いた回転成分をクォータニオンで返す。
func (m Mat4) Quaternion() Quaternion {
	u := m.AxisX().Normalized()
	v := m.AxisY().Normalized()
	w := m.AxisZ().Normalized()
	rot := mgl64.Ident4()
	rot.Set(0, 0, u.X)
	rot.Set(1, 0, u.Y)
	rot.Set(2, 0, u.Z)
	rot.Set(0, 1, v.X)
	rot.Set(1, 1, v.Y)
	rot.Set(2, 1, v.Z)
	rot.Set(0, 2, w.X)
	rot.Set(1, 2, w.Y)
	rot.Set(2, 2, w.Z)
	return Quaternion{Quat: mgl64.Mat4ToQuat(rot).Normalize()}
}

// ScaleVec はスケール成分(各基底列の長さ)を返す。
func (m Mat4) ScaleVec() Vec3 {
	return NewVec3(m.AxisX().Length(), m.AxisY().Length(), m.AxisZ().Length())
}

// NearEquals は全成分の許容誤差内一致を判定する。
func (m Mat4) NearEquals(other Mat4, epsilon float64) bool {
	for index := 0; index < 16; index++ {
		if math.Abs(m.Mat4[index]-other.Mat4[index]) > epsilon {
			return false
		}
	}
	return true
}

// NewAimQuaternion は前方ベクトルと上方参照から、ローカル軸定義を
// ワールド方向へ写す回転を生成する。前方と上方が平行な退化入力では
// 任意の直交軸を上方として採用する。
func NewAimQuaternion(forward, worldUp, aimAxis, upAxis Vec3) Quaternion {
	u := forward.Normalized()
	w := u.Cross(worldUp).Normalized()
	if w.Length() == 0 {
		w = u.Perpendicular()
	}
	v := w.Cross(u)

	worldBasis := NewMat4FromBasisTranslation(u, v, w, ZERO_VEC3)
	localAxis := NewMat4FromBasisTranslation(aimAxis, upAxis, aimAxis.Cross(upAxis), ZERO_VEC3)
	return worldBasis.Muled(localAxis.Inverted()).Quaternion()
}
