// 指示: miu200521358
package minteractor

import (
	"testing"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
)

func mustCreateLocator(t *testing.T, scene *model.Scene, name string, translation mmath.Vec3) *model.Node {
	t.Helper()
	locator, err := scene.CreateNode(model.KindLocator, name)
	if err != nil {
		t.Fatalf("create locator failed: %s: %v", name, err)
	}
	locator.Translation = translation
	return locator
}

func buildScapulaFixture(t *testing.T, scene *model.Scene) (acromion, root, tip *model.Node) {
	t.Helper()
	mustCreateJoint(t, scene, "JONeck1", -1, mmath.NewVec3(0.0, 20.0, 0.0))
	mustCreateJoint(t, scene, "JOBack3", -1, mmath.NewVec3(0.0, 15.0, 0.0))
	mustCreateJoint(t, scene, "JOLeftClavicle1", -1, mmath.NewVec3(1.0, 18.0, 0.0))
	acromion = mustCreateLocator(t, scene, "acromion_loc", mmath.NewVec3(3.0, 17.0, 0.0))
	root = mustCreateLocator(t, scene, "scapula_loc", mmath.NewVec3(3.0, 16.0, -1.0))
	tip = mustCreateLocator(t, scene, "scapulaTip_loc", mmath.NewVec3(3.0, 13.0, -1.0))
	return acromion, root, tip
}

func TestAddScapulaJointsBuildsAimedChain(t *testing.T) {
	scene := model.NewScene()
	acromionLoc, rootLoc, tipLoc := buildScapulaFixture(t, scene)

	joints, err := AddScapulaJoints(scene, acromionLoc.Index(), rootLoc.Index(), tipLoc.Index(), "Left")
	if err != nil {
		t.Fatalf("scapula setup failed: %v", err)
	}

	driver, err := scene.Node(joints.DriverIndex)
	if err != nil {
		t.Fatalf("driver lookup failed: %v", err)
	}
	if driver.Name() != "LeftAcromion1" {
		t.Fatalf("driver name mismatch: got=%s", driver.Name())
	}
	clavicle := mustResolve(t, scene, "JOLeftClavicle1")
	if driver.ParentIndex != clavicle.Index() {
		t.Fatalf("driver should be parented under the clavicle")
	}
	root, err := scene.Node(joints.RootIndex)
	if err != nil {
		t.Fatalf("root lookup failed: %v", err)
	}
	if root.Name() != "LeftScapulaRoot1" || root.ParentIndex != joints.DriverIndex {
		t.Fatalf("root joint layout mismatch: name=%s parent=%d", root.Name(), root.ParentIndex)
	}
	tip, err := scene.Node(joints.TipIndex)
	if err != nil {
		t.Fatalf("tip lookup failed: %v", err)
	}
	if tip.Name() != "LeftInferiorAngle1" || tip.ParentIndex != joints.RootIndex {
		t.Fatalf("tip joint layout mismatch: name=%s parent=%d", tip.Name(), tip.ParentIndex)
	}

	// 各ジョイントはロケーター位置のまま。
	driverPos := mustWorldTranslation(t, scene, joints.DriverIndex)
	if !driverPos.NearEquals(mmath.NewVec3(3.0, 17.0, 0.0), 1e-6) {
		t.Fatalf("driver should stay on the acromion locator: got=%v", driverPos)
	}
	rootPos := mustWorldTranslation(t, scene, joints.RootIndex)
	if !rootPos.NearEquals(mmath.NewVec3(3.0, 16.0, -1.0), 1e-6) {
		t.Fatalf("root should stay on the scapula locator: got=%v", rootPos)
	}
	tipPos := mustWorldTranslation(t, scene, joints.TipIndex)
	if !tipPos.NearEquals(mmath.NewVec3(3.0, 13.0, -1.0), 1e-6) {
		t.Fatalf("tip should stay on the inferior angle locator: got=%v", tipPos)
	}

	// ジョイント方向は+Yが子を向く。
	rootRotation := mustWorldRotation(t, scene, joints.RootIndex)
	aimAxis := rootRotation.MulVec3(mmath.UNIT_Y_VEC3)
	toChild := tipPos.Subed(rootPos).Normalized()
	if !aimAxis.NearEquals(toChild, 1e-6) {
		t.Fatalf("root +Y should point at the tip: axis=%v toChild=%v", aimAxis, toChild)
	}
}

func TestAddScapulaJointsRequiresNamedJoints(t *testing.T) {
	scene := model.NewScene()
	acromionLoc := mustCreateLocator(t, scene, "acromion_loc", mmath.NewVec3(3.0, 17.0, 0.0))
	rootLoc := mustCreateLocator(t, scene, "scapula_loc", mmath.NewVec3(3.0, 16.0, -1.0))
	tipLoc := mustCreateLocator(t, scene, "scapulaTip_loc", mmath.NewVec3(3.0, 13.0, -1.0))

	if _, err := AddScapulaJoints(scene, acromionLoc.Index(), rootLoc.Index(), tipLoc.Index(), "Left"); err == nil {
		t.Fatalf("missing biped joints should fail")
	}
}

func TestAddScapulaJointsRejectsInvalidSide(t *testing.T) {
	scene := model.NewScene()
	acromionLoc, rootLoc, tipLoc := buildScapulaFixture(t, scene)
	if _, err := AddScapulaJoints(scene, acromionLoc.Index(), rootLoc.Index(), tipLoc.Index(), "Center"); err == nil {
		t.Fatalf("invalid side should fail")
	}
}
