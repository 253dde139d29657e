// 指示: miu200521358
// Package mmath はリグ計算に使う3次元ベクトル・クォータニオン・行列を提供する。
package mmath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 は3次元ベクトルを表す。
type Vec3 struct {
	r3.Vec
}

// 軸・ゼロベクトル定数。
var (
	ZERO_VEC3       = Vec3{}
	UNIT_X_VEC3     = Vec3{Vec: r3.Vec{X: 1}}
	UNIT_Y_VEC3     = Vec3{Vec: r3.Vec{Y: 1}}
	UNIT_Z_VEC3     = Vec3{Vec: r3.Vec{Z: 1}}
	UNIT_X_NEG_VEC3 = Vec3{Vec: r3.Vec{X: -1}}
	UNIT_Y_NEG_VEC3 = Vec3{Vec: r3.Vec{Y: -1}}
	UNIT_Z_NEG_VEC3 = Vec3{Vec: r3.Vec{Z: -1}}
)

// NewVec3 は成分指定でベクトルを生成する。
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{Vec: r3.Vec{X: x, Y: y, Z: z}}
}

// Added は加算結果を返す。
func (v Vec3) Added(other Vec3) Vec3 {
	return Vec3{Vec: r3.Add(v.Vec, other.Vec)}
}

// Subed は減算結果を返す。
func (v Vec3) Subed(other Vec3) Vec3 {
	return Vec3{Vec: r3.Sub(v.Vec, other.Vec)}
}

// MuledScalar はスカラー倍を返す。
func (v Vec3) MuledScalar(scalar float64) Vec3 {
	return Vec3{Vec: r3.Scale(scalar, v.Vec)}
}

// DivedScalar はスカラー除算結果を返す。
func (v Vec3) DivedScalar(scalar float64) Vec3 {
	return Vec3{Vec: r3.Scale(1.0/scalar, v.Vec)}
}

// Negated は符号反転結果を返す。
func (v Vec3) Negated() Vec3 {
	return Vec3{Vec: r3.Scale(-1, v.Vec)}
}

// Cross は外積を返す。
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{Vec: r3.Cross(v.Vec, other.Vec)}
}

// Dot は内積を返す。
func (v Vec3) Dot(other Vec3) float64 {
	return r3.Dot(v.Vec, other.Vec)
}

// Length はベクトル長を返す。
func (v Vec3) Length() float64 {
	return r3.Norm(v.Vec)
}

// Distance は2点間距離を返す。
func (v Vec3) Distance(other Vec3) float64 {
	return r3.Norm(r3.Sub(v.Vec, other.Vec))
}

// Normalized は正規化結果を返す。ゼロベクトルはゼロのまま返す。
func (v Vec3) Normalized() Vec3 {
	length := r3.Norm(v.Vec)
	if length == 0 {
		return ZERO_VEC3
	}
	return Vec3{Vec: r3.Scale(1.0/length, v.Vec)}
}

// Lerped は線形補間結果を返す。
func (v Vec3) Lerped(other Vec3, t float64) Vec3 {
	return v.Added(other.Subed(v).MuledScalar(t))
}

// Angle は他ベクトルとの成す角(ラジアン)を返す。
func (v Vec3) Angle(other Vec3) float64 {
	lengths := v.Length() * other.Length()
	if lengths == 0 {
		return 0
	}
	cos := Clamped(v.Dot(other)/lengths, -1.0, 1.0)
	return math.Acos(cos)
}

// NearEquals は許容誤差内の成分一致を判定する。
func (v Vec3) NearEquals(other Vec3, epsilon float64) bool {
	return math.Abs(v.X-other.X) <= epsilon &&
		math.Abs(v.Y-other.Y) <= epsilon &&
		math.Abs(v.Z-other.Z) <= epsilon
}

// Perpendicular はこのベクトルに直交する任意の単位ベクトルを返す。
// 最小成分軸との外積で退化を避ける。
func (v Vec3) Perpendicular() Vec3 {
	axis := UNIT_X_VEC3
	absX, absY, absZ := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	if absY <= absX && absY <= absZ {
		axis = UNIT_Y_VEC3
	} else if absZ <= absX && absZ <= absY {
		axis = UNIT_Z_VEC3
	}
	return v.Cross(axis).Normalized()
}

// RadToDeg はラジアンを度へ変換する。
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// DegToRad は度をラジアンへ変換する。
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Clamped はmin-maxで値をクランプする。
func Clamped(value float64, min float64, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Remapped は入力範囲を出力範囲へ線形変換する。入力域外はクランプする。
func Remapped(value, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	t := Clamped((value-inMin)/(inMax-inMin), 0.0, 1.0)
	return outMin + (outMax-outMin)*t
}
