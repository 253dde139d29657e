// 指示: miu200521358
package mmath

import (
	"math"
	"testing"
)

func TestVec3BasicOperations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	if !a.Added(b).NearEquals(NewVec3(5, -3, 9), 1e-12) {
		t.Fatalf("unexpected add result: %v", a.Added(b))
	}
	if !b.Subed(a).NearEquals(NewVec3(3, -7, 3), 1e-12) {
		t.Fatalf("unexpected sub result: %v", b.Subed(a))
	}
	if !a.MuledScalar(2).NearEquals(NewVec3(2, 4, 6), 1e-12) {
		t.Fatalf("unexpected scalar mul result: %v", a.MuledScalar(2))
	}
	if got := a.Dot(b); math.Abs(got-12.0) > 1e-12 {
		t.Fatalf("unexpected dot result: %f", got)
	}
	if got := NewVec3(3, 4, 0).Length(); math.Abs(got-5.0) > 1e-12 {
		t.Fatalf("unexpected length: %f", got)
	}
}

func TestVec3CrossFollowsRightHandRule(t *testing.T) {
	got := UNIT_X_VEC3.Cross(UNIT_Y_VEC3)
	if !got.NearEquals(UNIT_Z_VEC3, 1e-12) {
		t.Fatalf("x cross y should be z: %v", got)
	}
	got = UNIT_Y_VEC3.Cross(UNIT_X_VEC3)
	if !got.NearEquals(UNIT_Z_NEG_VEC3, 1e-12) {
		t.Fatalf("y cross x should be -z: %v", got)
	}
}

func TestVec3NormalizedKeepsZeroVector(t *testing.T) {
	if got := ZERO_VEC3.Normalized(); !got.NearEquals(ZERO_VEC3, 1e-12) {
		t.Fatalf("zero vector should stay zero: %v", got)
	}
	unit := NewVec3(0, 3, 4).Normalized()
	if math.Abs(unit.Length()-1.0) > 1e-12 {
		t.Fatalf("normalized length should be 1: %f", unit.Length())
	}
}

func TestVec3AngleBetweenAxes(t *testing.T) {
	if got := UNIT_X_VEC3.Angle(UNIT_Y_VEC3); math.Abs(got-math.Pi/2.0) > 1e-12 {
		t.Fatalf("angle between x and y should be pi/2: %f", got)
	}
	if got := UNIT_X_VEC3.Angle(UNIT_X_NEG_VEC3); math.Abs(got-math.Pi) > 1e-12 {
		t.Fatalf("angle between x and -x should be pi: %f", got)
	}
}

func TestVec3PerpendicularIsOrthogonalUnit(t *testing.T) {
	for _, v := range []Vec3{UNIT_X_VEC3, UNIT_Y_VEC3, UNIT_Z_VEC3, NewVec3(1, 2, 3), NewVec3(-4, 0.5, 9)} {
		perp := v.Perpendicular()
		if math.Abs(perp.Length()-1.0) > 1e-9 {
			t.Fatalf("perpendicular should be unit length for %v: %f", v, perp.Length())
		}
		if math.Abs(perp.Dot(v)) > 1e-9 {
			t.Fatalf("perpendicular should be orthogonal for %v: dot=%f", v, perp.Dot(v))
		}
	}
}

func TestRemappedClampsOutsideInputDomain(t *testing.T) {
	if got := Remapped(-120, -90, 0, -5, 0); math.Abs(got-(-5.0)) > 1e-12 {
		t.Fatalf("below input min should clamp to output min: %f", got)
	}
	if got := Remapped(30, -90, 0, -5, 0); math.Abs(got-0.0) > 1e-12 {
		t.Fatalf("above input max should clamp to output max: %f", got)
	}
	if got := Remapped(-45, -90, 0, -5, 0); math.Abs(got-(-2.5)) > 1e-12 {
		t.Fatalf("midpoint should map linearly: %f", got)
	}
}
