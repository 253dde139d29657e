// 指示: miu200521358
package model

import (
	"testing"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
)

func mustCreateNode(t *testing.T, scene *Scene, kind NodeKind, name string) *Node {
	t.Helper()
	node, err := scene.CreateNode(kind, name)
	if err != nil {
		t.Fatalf("create node failed: %s: %v", name, err)
	}
	return node
}

func mustWorldTranslation(t *testing.T, scene *Scene, index int) mmath.Vec3 {
	t.Helper()
	position, err := scene.WorldTranslation(index)
	if err != nil {
		t.Fatalf("world translation failed: index=%d: %v", index, err)
	}
	return position
}

func TestCreateNodeRejectsDuplicateName(t *testing.T) {
	scene := NewScene()
	mustCreateNode(t, scene, KindJoint, "JOLeftArm1")
	if _, err := scene.CreateNode(KindJoint, "JOLeftArm1"); err == nil {
		t.Fatalf("duplicate node name should fail")
	}
}

func TestParentPreservesWorldTransform(t *testing.T) {
	scene := NewScene()
	parent := mustCreateNode(t, scene, KindJoint, "parent")
	parent.Translation = mmath.NewVec3(1.0, 2.0, 3.0)
	parent.Rotation = mmath.NewVec3(0.0, 90.0, 0.0)
	child := mustCreateNode(t, scene, KindJoint, "child")
	child.Translation = mmath.NewVec3(5.0, 0.0, 0.0)

	before := mustWorldTranslation(t, scene, child.Index())
	if err := scene.Parent(child.Index(), parent.Index()); err != nil {
		t.Fatalf("parenting failed: %v", err)
	}
	after := mustWorldTranslation(t, scene, child.Index())
	if !after.NearEquals(before, 1e-9) {
		t.Fatalf("parenting should keep world position: before=%v after=%v", before, after)
	}
	if child.ParentIndex != parent.Index() {
		t.Fatalf("parent index should be updated")
	}

	if err := scene.Parent(child.Index(), -1); err != nil {
		t.Fatalf("unparenting failed: %v", err)
	}
	unparented := mustWorldTranslation(t, scene, child.Index())
	if !unparented.NearEquals(before, 1e-9) {
		t.Fatalf("unparenting should keep world position: before=%v after=%v", before, unparented)
	}
}

func TestParentRejectsOwnDescendant(t *testing.T) {
	scene := NewScene()
	root := mustCreateNode(t, scene, KindJoint, "root")
	child := mustCreateNode(t, scene, KindJoint, "child")
	if err := scene.Parent(child.Index(), root.Index()); err != nil {
		t.Fatalf("parenting failed: %v", err)
	}
	if err := scene.Parent(root.Index(), child.Index()); err == nil {
		t.Fatalf("parenting to own descendant should fail")
	}
}

func TestResolvePrefersExactNameThenShortName(t *testing.T) {
	scene := NewScene()
	mustCreateNode(t, scene, KindJoint, "rig:JOLeftArm1")
	exact := mustCreateNode(t, scene, KindJoint, "JOLeftArm1")

	node, err := scene.Resolve("JOLeftArm1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if node.Index() != exact.Index() {
		t.Fatalf("exact name should win over short name match")
	}

	namespaced, err := scene.Resolve("rig:JOLeftArm1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if namespaced.Name() != "rig:JOLeftArm1" {
		t.Fatalf("namespaced exact match expected: got=%s", namespaced.Name())
	}

	if _, err := scene.Resolve("JORightArm1"); err == nil {
		t.Fatalf("unknown name should fail")
	}
}

func TestResolveShortNameAmbiguityReturnsFirstMatch(t *testing.T) {
	scene := NewScene()
	first := mustCreateNode(t, scene, KindJoint, "a:JOLeftArm1")
	mustCreateNode(t, scene, KindJoint, "b:JOLeftArm1")

	node, err := scene.Resolve("JOLeftArm1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if node.Index() != first.Index() {
		t.Fatalf("ambiguous short name should return first match: got=%s", node.Name())
	}
}

func TestDeleteCascadesToDescendantsAndConstraints(t *testing.T) {
	scene := NewScene()
	root := mustCreateNode(t, scene, KindJoint, "root")
	child := mustCreateNode(t, scene, KindJoint, "child")
	if err := scene.Parent(child.Index(), root.Index()); err != nil {
		t.Fatalf("parenting failed: %v", err)
	}
	outside := mustCreateNode(t, scene, KindJoint, "outside")
	if _, err := scene.CreatePointConstraint([]int{child.Index()}, outside.Index(), false); err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}

	if err := scene.Delete(root.Index()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := scene.Node(child.Index()); err == nil {
		t.Fatalf("descendant should be deleted with its root")
	}
	if constraints := scene.Constraints(outside.Index()); len(constraints) != 0 {
		t.Fatalf("constraints to deleted targets should be removed: %d left", len(constraints))
	}
	if scene.Exists("root") {
		t.Fatalf("deleted node should not resolve")
	}
}

func TestPointConstraintFollowsTarget(t *testing.T) {
	scene := NewScene()
	target := mustCreateNode(t, scene, KindLocator, "target")
	target.Translation = mmath.NewVec3(1.0, 2.0, 3.0)
	constrained := mustCreateNode(t, scene, KindJoint, "constrained")
	constrained.Translation = mmath.NewVec3(9.0, 9.0, 9.0)

	if _, err := scene.CreatePointConstraint([]int{target.Index()}, constrained.Index(), false); err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	position := mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(1.0, 2.0, 3.0), 1e-9) {
		t.Fatalf("constrained node should snap to target: got=%v", position)
	}
	// 作成時評価で保存値にも反映される。
	if !constrained.Translation.NearEquals(mmath.NewVec3(1.0, 2.0, 3.0), 1e-9) {
		t.Fatalf("resolved translation should be written back: got=%v", constrained.Translation)
	}

	target.Translation = mmath.NewVec3(4.0, 5.0, 6.0)
	position = mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(4.0, 5.0, 6.0), 1e-9) {
		t.Fatalf("constrained node should follow target: got=%v", position)
	}
}

func TestPointConstraintMaintainOffsetKeepsPosition(t *testing.T) {
	scene := NewScene()
	target := mustCreateNode(t, scene, KindLocator, "target")
	target.Translation = mmath.NewVec3(1.0, 0.0, 0.0)
	constrained := mustCreateNode(t, scene, KindJoint, "constrained")
	constrained.Translation = mmath.NewVec3(5.0, 0.0, 0.0)

	if _, err := scene.CreatePointConstraint([]int{target.Index()}, constrained.Index(), true); err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	position := mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(5.0, 0.0, 0.0), 1e-9) {
		t.Fatalf("maintain offset should keep current position: got=%v", position)
	}

	target.Translation = mmath.NewVec3(2.0, 0.0, 0.0)
	position = mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(6.0, 0.0, 0.0), 1e-9) {
		t.Fatalf("offset should move with target: got=%v", position)
	}
}

func TestPointConstraintWeightsBlendTargets(t *testing.T) {
	scene := NewScene()
	targetA := mustCreateNode(t, scene, KindLocator, "targetA")
	targetA.Translation = mmath.NewVec3(0.0, 0.0, 0.0)
	targetB := mustCreateNode(t, scene, KindLocator, "targetB")
	targetB.Translation = mmath.NewVec3(10.0, 0.0, 0.0)
	constrained := mustCreateNode(t, scene, KindJoint, "constrained")

	c, err := scene.CreatePointConstraint([]int{targetA.Index(), targetB.Index()}, constrained.Index(), false)
	if err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	position := mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(5.0, 0.0, 0.0), 1e-9) {
		t.Fatalf("equal weights should average targets: got=%v", position)
	}

	c.SetTargetWeight(targetA.Index(), 0.9)
	c.SetTargetWeight(targetB.Index(), 0.1)
	position = mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(1.0, 0.0, 0.0), 1e-9) {
		t.Fatalf("weighted blend mismatch: got=%v", position)
	}
}

func TestOrientConstraintBlendsTargetsShortest(t *testing.T) {
	scene := NewScene()
	targetA := mustCreateNode(t, scene, KindJoint, "targetA")
	targetB := mustCreateNode(t, scene, KindJoint, "targetB")
	targetB.Rotation = mmath.NewVec3(0.0, 90.0, 0.0)
	constrained := mustCreateNode(t, scene, KindJoint, "constrained")

	if _, err := scene.CreateOrientConstraint([]int{targetA.Index(), targetB.Index()}, constrained.Index(), false); err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	rotation, err := scene.WorldRotation(constrained.Index())
	if err != nil {
		t.Fatalf("world rotation failed: %v", err)
	}
	want := mmath.NewQuaternionFromDegrees(0.0, 45.0, 0.0)
	if !rotation.NearEquals(want, 1e-9) {
		t.Fatalf("equal weights should blend to midpoint: got=%v", rotation.ToDegrees())
	}
}

func TestAimConstraintPointsAimAxisAtTarget(t *testing.T) {
	scene := NewScene()
	target := mustCreateNode(t, scene, KindLocator, "target")
	target.Translation = mmath.NewVec3(0.0, 0.0, 5.0)
	constrained := mustCreateNode(t, scene, KindJoint, "constrained")

	_, err := scene.CreateAimConstraint(target.Index(), constrained.Index(), AimOptions{
		AimVector: mmath.UNIT_X_VEC3,
		UpVector:  mmath.UNIT_Y_VEC3,
	})
	if err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	rotation, err := scene.WorldRotation(constrained.Index())
	if err != nil {
		t.Fatalf("world rotation failed: %v", err)
	}
	aimed := rotation.MulVec3(mmath.UNIT_X_VEC3)
	if !aimed.NearEquals(mmath.UNIT_Z_VEC3, 1e-9) {
		t.Fatalf("aim axis should point at target: got=%v", aimed)
	}
	up := rotation.MulVec3(mmath.UNIT_Y_VEC3)
	if !up.NearEquals(mmath.UNIT_Y_VEC3, 1e-9) {
		t.Fatalf("up axis should stay world up: got=%v", up)
	}
}

func TestAimConstraintWorldUpObjectRotation(t *testing.T) {
	scene := NewScene()
	target := mustCreateNode(t, scene, KindLocator, "target")
	target.Translation = mmath.NewVec3(5.0, 0.0, 0.0)
	upObject := mustCreateNode(t, scene, KindLocator, "upObject")
	upObject.Rotation = mmath.NewVec3(90.0, 0.0, 0.0)
	constrained := mustCreateNode(t, scene, KindJoint, "constrained")

	_, err := scene.CreateAimConstraint(target.Index(), constrained.Index(), AimOptions{
		AimVector:     mmath.UNIT_X_VEC3,
		UpVector:      mmath.UNIT_Y_VEC3,
		WorldUpKind:   WorldUpObjectRotation,
		WorldUpObject: upObject.Index(),
		WorldUpVector: mmath.UNIT_Y_VEC3,
	})
	if err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	rotation, err := scene.WorldRotation(constrained.Index())
	if err != nil {
		t.Fatalf("world rotation failed: %v", err)
	}
	// アップ参照はX軸90度回転なので、ローカルYアップはワールド+Zを向く。
	up := rotation.MulVec3(mmath.UNIT_Y_VEC3)
	if !up.NearEquals(mmath.UNIT_Z_VEC3, 1e-9) {
		t.Fatalf("up axis should follow up object rotation: got=%v", up)
	}
}

func TestMutualAimConstraintsEvaluateWithoutCycle(t *testing.T) {
	scene := NewScene()
	locatorA := mustCreateNode(t, scene, KindLocator, "locatorA")
	locatorB := mustCreateNode(t, scene, KindLocator, "locatorB")
	locatorB.Translation = mmath.NewVec3(4.0, 0.0, 0.0)

	options := AimOptions{AimVector: mmath.UNIT_X_VEC3, UpVector: mmath.UNIT_Y_VEC3}
	if _, err := scene.CreateAimConstraint(locatorB.Index(), locatorA.Index(), options); err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	if _, err := scene.CreateAimConstraint(locatorA.Index(), locatorB.Index(), options); err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}

	rotationA, err := scene.WorldRotation(locatorA.Index())
	if err != nil {
		t.Fatalf("mutual aim should not cycle: %v", err)
	}
	rotationB, err := scene.WorldRotation(locatorB.Index())
	if err != nil {
		t.Fatalf("mutual aim should not cycle: %v", err)
	}
	if !rotationA.MulVec3(mmath.UNIT_X_VEC3).NearEquals(mmath.UNIT_X_VEC3, 1e-9) {
		t.Fatalf("locator A should aim +X")
	}
	if !rotationB.MulVec3(mmath.UNIT_X_VEC3).NearEquals(mmath.UNIT_X_NEG_VEC3, 1e-9) {
		t.Fatalf("locator B should aim -X")
	}
}

func TestLastConstraintOfSameKindWins(t *testing.T) {
	scene := NewScene()
	targetA := mustCreateNode(t, scene, KindLocator, "targetA")
	targetA.Translation = mmath.NewVec3(1.0, 0.0, 0.0)
	targetB := mustCreateNode(t, scene, KindLocator, "targetB")
	targetB.Translation = mmath.NewVec3(2.0, 0.0, 0.0)
	constrained := mustCreateNode(t, scene, KindJoint, "constrained")

	first, err := scene.CreatePointConstraint([]int{targetA.Index()}, constrained.Index(), false)
	if err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	if _, err := scene.CreatePointConstraint([]int{targetB.Index()}, constrained.Index(), false); err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	position := mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(2.0, 0.0, 0.0), 1e-9) {
		t.Fatalf("last created constraint should win: got=%v", position)
	}

	if err := scene.DeleteConstraint(first); err != nil {
		t.Fatalf("constraint deletion failed: %v", err)
	}
	position = mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(2.0, 0.0, 0.0), 1e-9) {
		t.Fatalf("remaining constraint should still apply: got=%v", position)
	}
}

func TestDeleteConstraintKeepsLastResolvedValues(t *testing.T) {
	scene := NewScene()
	target := mustCreateNode(t, scene, KindLocator, "target")
	target.Translation = mmath.NewVec3(3.0, 1.0, 2.0)
	constrained := mustCreateNode(t, scene, KindJoint, "constrained")

	c, err := scene.CreatePointConstraint([]int{target.Index()}, constrained.Index(), false)
	if err != nil {
		t.Fatalf("constraint creation failed: %v", err)
	}
	if err := scene.DeleteConstraint(c); err != nil {
		t.Fatalf("constraint deletion failed: %v", err)
	}
	position := mustWorldTranslation(t, scene, constrained.Index())
	if !position.NearEquals(mmath.NewVec3(3.0, 1.0, 2.0), 1e-9) {
		t.Fatalf("node should keep last resolved position: got=%v", position)
	}
}

func TestLockedChannelRejectsWriteAndScopedUnlockRestores(t *testing.T) {
	scene := NewScene()
	node := mustCreateNode(t, scene, KindJoint, "node")
	node.LockChannel(ChannelTranslateX)

	if err := scene.SetChannelValue(node.Index(), ChannelTranslateX, 1.0); err == nil {
		t.Fatalf("write to locked channel should fail")
	}

	err := node.WithUnlockedChannels([]Channel{ChannelTranslateX}, func() error {
		return scene.SetChannelValue(node.Index(), ChannelTranslateX, 2.5)
	})
	if err != nil {
		t.Fatalf("scoped unlock write failed: %v", err)
	}
	if node.Translation.X != 2.5 {
		t.Fatalf("value should be written while unlocked: got=%v", node.Translation.X)
	}
	if !node.IsChannelLocked(ChannelTranslateX) {
		t.Fatalf("channel should be relocked after scope")
	}
}

func TestConnectedChannelDrivesValue(t *testing.T) {
	scene := NewScene()
	driver := mustCreateNode(t, scene, KindJoint, "driver")
	driver.Translation = mmath.NewVec3(0.0, 2.0, 0.0)
	driven := mustCreateNode(t, scene, KindJoint, "driven")

	multiply := NewMultiplyNode("halfY_MDL",
		ChannelPlug{NodeIndex: driver.Index(), Channel: ChannelTranslateY}, 0.5)
	if err := scene.ConnectChannel(multiply, driven.Index(), ChannelScaleX); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	value, err := scene.ChannelValue(driven.Index(), ChannelScaleX)
	if err != nil {
		t.Fatalf("channel evaluation failed: %v", err)
	}
	if value != 1.0 {
		t.Fatalf("connected channel value mismatch: got=%v want=1.0", value)
	}

	driver.Translation.Y = 6.0
	value, err = scene.ChannelValue(driven.Index(), ChannelScaleX)
	if err != nil {
		t.Fatalf("channel evaluation failed: %v", err)
	}
	if value != 3.0 {
		t.Fatalf("connected channel should track driver: got=%v want=3.0", value)
	}
	if driven.Scale.X != 3.0 {
		t.Fatalf("resolved value should be written back to stored: got=%v", driven.Scale.X)
	}
}

func TestDrivenKeyframeInterpolatesAndClamps(t *testing.T) {
	scene := NewScene()
	driver := mustCreateNode(t, scene, KindJoint, "driver")
	driven := mustCreateNode(t, scene, KindJoint, "driven")
	driverPlug := ChannelPlug{NodeIndex: driver.Index(), Channel: ChannelTranslateY}

	driver.Translation.Y = 0.0
	driven.Scale.X = 1.0
	if err := scene.SetDrivenKeyframe(driven.Index(), ChannelScaleX, driverPlug); err != nil {
		t.Fatalf("driven keyframe failed: %v", err)
	}
	driver.Translation.Y = 10.0
	driven.Scale.X = 2.0
	if err := scene.SetDrivenKeyframe(driven.Index(), ChannelScaleX, driverPlug); err != nil {
		t.Fatalf("driven keyframe failed: %v", err)
	}

	driver.Translation.Y = 5.0
	value, err := scene.ChannelValue(driven.Index(), ChannelScaleX)
	if err != nil {
		t.Fatalf("channel evaluation failed: %v", err)
	}
	if value != 1.5 {
		t.Fatalf("linear interpolation mismatch: got=%v want=1.5", value)
	}

	driver.Translation.Y = 20.0
	value, err = scene.ChannelValue(driven.Index(), ChannelScaleX)
	if err != nil {
		t.Fatalf("channel evaluation failed: %v", err)
	}
	if value != 2.0 {
		t.Fatalf("out of range driver should clamp to end key: got=%v want=2.0", value)
	}

	scene.DeleteDrivenCurvesFor(driven.Index())
	driven.Scale.X = 7.0
	value, err = scene.ChannelValue(driven.Index(), ChannelScaleX)
	if err != nil {
		t.Fatalf("channel evaluation failed: %v", err)
	}
	if value != 7.0 {
		t.Fatalf("deleted curve should fall back to stored value: got=%v", value)
	}
}

func TestSavePoseAndRestorePose(t *testing.T) {
	scene := NewScene()
	root := mustCreateNode(t, scene, KindJoint, "root")
	child := mustCreateNode(t, scene, KindJoint, "child")
	if err := scene.Parent(child.Index(), root.Index()); err != nil {
		t.Fatalf("parenting failed: %v", err)
	}
	root.Rotation = mmath.NewVec3(10.0, 20.0, 30.0)
	child.Translation = mmath.NewVec3(0.0, 3.0, 0.0)

	if err := scene.SavePose("restPose", root.Index()); err != nil {
		t.Fatalf("save pose failed: %v", err)
	}
	root.Rotation = mmath.NewVec3(0.0, 0.0, 90.0)
	child.Translation = mmath.NewVec3(1.0, 1.0, 1.0)

	if err := scene.RestorePose("restPose"); err != nil {
		t.Fatalf("restore pose failed: %v", err)
	}
	if !root.Rotation.NearEquals(mmath.NewVec3(10.0, 20.0, 30.0), 1e-9) {
		t.Fatalf("rotation should be restored: got=%v", root.Rotation)
	}
	if !child.Translation.NearEquals(mmath.NewVec3(0.0, 3.0, 0.0), 1e-9) {
		t.Fatalf("translation should be restored: got=%v", child.Translation)
	}

	if err := scene.DeletePose("restPose"); err != nil {
		t.Fatalf("delete pose failed: %v", err)
	}
	if err := scene.RestorePose("restPose"); err == nil {
		t.Fatalf("restoring deleted pose should fail")
	}
}

func TestSetWorldRotationRoundTripsThroughJointOrient(t *testing.T) {
	scene := NewScene()
	parent := mustCreateNode(t, scene, KindJoint, "parent")
	parent.Rotation = mmath.NewVec3(0.0, 30.0, 0.0)
	child := mustCreateNode(t, scene, KindJoint, "child")
	child.JointOrient = mmath.NewVec3(0.0, 0.0, 45.0)
	if err := scene.Parent(child.Index(), parent.Index()); err != nil {
		t.Fatalf("parenting failed: %v", err)
	}

	want := mmath.NewQuaternionFromDegrees(15.0, 25.0, 35.0)
	if err := scene.SetWorldRotation(child.Index(), want); err != nil {
		t.Fatalf("set world rotation failed: %v", err)
	}
	got, err := scene.WorldRotation(child.Index())
	if err != nil {
		t.Fatalf("world rotation failed: %v", err)
	}
	if !got.NearEquals(want, 1e-9) {
		t.Fatalf("world rotation mismatch: got=%v want=%v", got.ToDegrees(), want.ToDegrees())
	}
	if child.JointOrient.Z != 45.0 {
		t.Fatalf("joint orient should not change: got=%v", child.JointOrient)
	}
}

func TestMatchTransformCopiesWorldPositionAndRotation(t *testing.T) {
	scene := NewScene()
	source := mustCreateNode(t, scene, KindJoint, "source")
	source.Translation = mmath.NewVec3(2.0, 4.0, 6.0)
	source.Rotation = mmath.NewVec3(0.0, 90.0, 0.0)
	parent := mustCreateNode(t, scene, KindJoint, "parent")
	parent.Translation = mmath.NewVec3(1.0, 1.0, 1.0)
	destination := mustCreateNode(t, scene, KindJoint, "destination")
	if err := scene.Parent(destination.Index(), parent.Index()); err != nil {
		t.Fatalf("parenting failed: %v", err)
	}

	if err := scene.MatchTransform(destination.Index(), source.Index(), true, true); err != nil {
		t.Fatalf("match transform failed: %v", err)
	}
	position := mustWorldTranslation(t, scene, destination.Index())
	if !position.NearEquals(mmath.NewVec3(2.0, 4.0, 6.0), 1e-9) {
		t.Fatalf("world position should match source: got=%v", position)
	}
	rotation, err := scene.WorldRotation(destination.Index())
	if err != nil {
		t.Fatalf("world rotation failed: %v", err)
	}
	if !rotation.NearEquals(mmath.NewQuaternionFromDegrees(0.0, 90.0, 0.0), 1e-9) {
		t.Fatalf("world rotation should match source: got=%v", rotation.ToDegrees())
	}
}
