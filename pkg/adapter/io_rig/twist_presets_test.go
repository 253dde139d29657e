// 指示: miu200521358
package io_rig

import (
	"testing"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/usecase/minteractor"
)

func TestParseTwistPresetsMergesOverDefaults(t *testing.T) {
	data := []byte(`
forearms:
  Right:
    twistAxis: [0, 1, 0]
    upAxis: [0, 0, -1]
legs:
  Left:
    twistAxis: [0, -1, 0]
    upAxis: [0, 0, 1]
`)
	presets, err := ParseTwistPresets(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	overridden, err := presets.Preset(minteractor.TwistRegionForearms, "Right")
	if err != nil {
		t.Fatalf("preset lookup failed: %v", err)
	}
	if !overridden.UpAxis.NearEquals(mmath.UNIT_Z_NEG_VEC3, 1e-9) {
		t.Fatalf("yaml should override the default: got=%v", overridden.UpAxis)
	}

	// 上書きしなかった既定プリセットは残る。
	kept, err := presets.Preset(minteractor.TwistRegionUpperArms, "Right")
	if err != nil {
		t.Fatalf("preset lookup failed: %v", err)
	}
	if !kept.UpAxis.NearEquals(mmath.UNIT_X_NEG_VEC3, 1e-9) {
		t.Fatalf("default preset should survive the merge: got=%v", kept.UpAxis)
	}

	added, err := presets.Preset("legs", "Left")
	if err != nil {
		t.Fatalf("preset lookup failed: %v", err)
	}
	if !added.TwistAxis.NearEquals(mmath.UNIT_Y_NEG_VEC3, 1e-9) {
		t.Fatalf("new region should be added: got=%v", added.TwistAxis)
	}
}

func TestParseTwistPresetsRejectsInvalidSide(t *testing.T) {
	data := []byte(`
forearms:
  Center:
    twistAxis: [0, 1, 0]
    upAxis: [0, 0, 1]
`)
	if _, err := ParseTwistPresets(data); err == nil {
		t.Fatalf("invalid side should fail")
	}
}

func TestLoadTwistPresetsEmptyPathReturnsDefaults(t *testing.T) {
	files := newMemoryFiles()
	presets, err := LoadTwistPresets(files, "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	preset, err := presets.Preset(minteractor.TwistRegionForearms, "Left")
	if err != nil {
		t.Fatalf("preset lookup failed: %v", err)
	}
	if !preset.UpAxis.NearEquals(mmath.UNIT_Z_VEC3, 1e-9) {
		t.Fatalf("default preset expected: got=%v", preset.UpAxis)
	}

	if _, err := LoadTwistPresets(files, "missing.yaml"); err == nil {
		t.Fatalf("missing preset file should fail")
	}
}
