// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
)

// ScapulaJoints は肩甲骨チェーンの作成結果。
type ScapulaJoints struct {
	DriverIndex int
	RootIndex   int
	TipIndex    int
}

// requireJoint は規約名のジョイントを解決する。
func requireJoint(scene *model.Scene, name, role string) (*model.Node, error) {
	node, err := scene.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%sジョイントが見つかりません: %s: %w", role, name, err)
	}
	return node, nil
}

// orientJointTowardChild は子方向を+Yへ、+Zをワールド+Y側へ揃える向きを
// ジョイント方向へ焼き込み、回転をゼロへ戻す。子の位置は保持する。
func orientJointTowardChild(scene *model.Scene, jointIndex, childIndex int) error {
	jointPos, err := scene.WorldTranslation(jointIndex)
	if err != nil {
		return err
	}
	childPos, err := scene.WorldTranslation(childIndex)
	if err != nil {
		return err
	}
	childWorlds := make(map[int]mmath.Vec3)
	for _, index := range scene.ChildIndexes(jointIndex) {
		position, err := scene.WorldTranslation(index)
		if err != nil {
			return err
		}
		childWorlds[index] = position
	}

	worldRotation := mmath.NewAimQuaternion(
		childPos.Subed(jointPos), mmath.UNIT_Y_VEC3, mmath.UNIT_Y_VEC3, mmath.UNIT_Z_VEC3)

	joint, err := scene.Node(jointIndex)
	if err != nil {
		return err
	}
	parentRotation := mmath.NewQuaternion()
	if joint.ParentIndex >= 0 {
		if parentRotation, err = scene.WorldRotation(joint.ParentIndex); err != nil {
			return err
		}
	}
	joint.JointOrient = parentRotation.Inverted().Muled(worldRotation).ToDegrees()
	joint.Rotation = mmath.ZERO_VEC3

	for index, position := range childWorlds {
		if err := scene.SetWorldTranslation(index, position); err != nil {
			return err
		}
	}
	return nil
}

// AddScapulaJoints は肩甲骨チェーン(肩峰・肩甲棘・下角)をロケーター位置に
// 作成し、鎖骨下へ入れて首ジョイントへのエイム拘束で駆動する。
// JONeck1・JOBack3・JO<side>Clavicle1 がシーンに必要である。
func AddScapulaJoints(scene *model.Scene, acromionLocIndex, scapulaLocIndex, scapulaTipLocIndex int, side string) (*ScapulaJoints, error) {
	if err := model.ValidateSide(side); err != nil {
		return nil, err
	}
	neck, err := requireJoint(scene, "JONeck1", "首")
	if err != nil {
		return nil, err
	}
	back3, err := requireJoint(scene, "JOBack3", "背骨")
	if err != nil {
		return nil, err
	}
	clavicle, err := requireJoint(scene, fmt.Sprintf("JO%sClavicle1", side), "鎖骨")
	if err != nil {
		return nil, err
	}

	driver, err := scene.CreateNode(model.KindJoint, fmt.Sprintf("%sAcromion1", side))
	if err != nil {
		return nil, fmt.Errorf("肩甲骨チェーンの作成に失敗しました: %w", err)
	}
	if err := scene.MatchTransform(driver.Index(), acromionLocIndex, true, false); err != nil {
		return nil, err
	}
	root, err := scene.CreateNode(model.KindJoint, fmt.Sprintf("%sScapulaRoot1", side))
	if err != nil {
		return nil, fmt.Errorf("肩甲骨チェーンの作成に失敗しました: %w", err)
	}
	if err := scene.MatchTransform(root.Index(), scapulaLocIndex, true, false); err != nil {
		return nil, err
	}
	tip, err := scene.CreateNode(model.KindJoint, fmt.Sprintf("%sInferiorAngle1", side))
	if err != nil {
		return nil, fmt.Errorf("肩甲骨チェーンの作成に失敗しました: %w", err)
	}
	if err := scene.MatchTransform(tip.Index(), scapulaTipLocIndex, true, false); err != nil {
		return nil, err
	}

	if err := scene.Parent(tip.Index(), root.Index()); err != nil {
		return nil, err
	}
	if err := scene.Parent(root.Index(), driver.Index()); err != nil {
		return nil, err
	}

	// +Yを子へ向け+Zをワールド上方へ寄せる方向付けを根元から順に焼き込む。
	if err := orientJointTowardChild(scene, driver.Index(), root.Index()); err != nil {
		return nil, err
	}
	if err := orientJointTowardChild(scene, root.Index(), tip.Index()); err != nil {
		return nil, err
	}

	if err := scene.Parent(driver.Index(), clavicle.Index()); err != nil {
		return nil, err
	}

	if _, err := scene.CreateAimConstraint(neck.Index(), driver.Index(), model.AimOptions{
		AimVector:      mmath.UNIT_Y_VEC3,
		UpVector:       mmath.UNIT_X_VEC3,
		WorldUpKind:    model.WorldUpObjectRotation,
		WorldUpObject:  back3.Index(),
		WorldUpVector:  mmath.UNIT_Y_VEC3,
		MaintainOffset: true,
	}); err != nil {
		return nil, fmt.Errorf("肩甲骨ドライバの拘束に失敗しました: %w", err)
	}

	return &ScapulaJoints{
		DriverIndex: driver.Index(),
		RootIndex:   root.Index(),
		TipIndex:    tip.Index(),
	}, nil
}
