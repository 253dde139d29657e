// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
)

// スキンウェイト転送用にチェーン端へ残す余白の比率。
const twistChainOffsetRatio = 0.02

// resolveTwistEndJoint はendIndexが負のとき最初の子ジョイントを既定とする。
func resolveTwistEndJoint(scene *model.Scene, startIndex, endIndex int) (int, error) {
	if endIndex < 0 {
		for _, childIndex := range scene.ChildIndexes(startIndex) {
			child, err := scene.Node(childIndex)
			if err != nil {
				continue
			}
			if child.Kind == model.KindJoint {
				endIndex = childIndex
				break
			}
		}
	}
	if _, err := scene.Node(endIndex); err != nil {
		start, startErr := scene.Node(startIndex)
		if startErr != nil {
			return -1, fmt.Errorf("ツイストチェーンの構築に失敗しました: %w", startErr)
		}
		return -1, fmt.Errorf("有効なジョイントチェーンが見つかりません: %s", start.Name())
	}
	return endIndex, nil
}

// createChildJoint は指定親の直下へローカル原点のジョイントを作る。
func createChildJoint(scene *model.Scene, name string, parentIndex int) (*model.Node, error) {
	joint, err := scene.CreateNode(model.KindJoint, name)
	if err != nil {
		return nil, err
	}
	joint.ParentIndex = parentIndex
	return joint, nil
}

// chainLengthBetween はstart-end間のワールド距離を返す。
func chainLengthBetween(scene *model.Scene, startIndex, endIndex int) (float64, error) {
	startPos, err := scene.WorldTranslation(startIndex)
	if err != nil {
		return 0, err
	}
	endPos, err := scene.WorldTranslation(endIndex)
	if err != nil {
		return 0, err
	}
	return endPos.Distance(startPos), nil
}

// SetupTwistJointChain はendJoint駆動のツイストチェーンを組む。
// 捻り回転を複数の補助ジョイントへ分配し、リニアスキニングの
// キャンディラッパー現象を抑える。余白2%はチェーン遠端側に取る。
// endIndexに負値を渡すとstartJointの最初の子ジョイントを使う。
// 戻り値はツイストジョイントのindex一覧と基準ジョイントのindexである。
func SetupTwistJointChain(scene *model.Scene, startIndex, endIndex, twistJointCount int, twistAxis, upAxis mmath.Vec3) ([]int, int, error) {
	endIndex, err := resolveTwistEndJoint(scene, startIndex, endIndex)
	if err != nil {
		return nil, -1, err
	}
	start, err := scene.Node(startIndex)
	if err != nil {
		return nil, -1, fmt.Errorf("ツイストチェーンの構築に失敗しました: %w", err)
	}
	baseName := model.StripJointPrefix(start.ShortName())

	twistJoints := make([]int, 0, twistJointCount)
	for index := 0; index < twistJointCount; index++ {
		joint, err := createChildJoint(scene, fmt.Sprintf("%sTwist%d", baseName, index), startIndex)
		if err != nil {
			return nil, -1, fmt.Errorf("ツイストジョイントの作成に失敗しました: %w", err)
		}
		twistJoints = append(twistJoints, joint.Index())
	}

	chainLength, err := chainLengthBetween(scene, startIndex, endIndex)
	if err != nil {
		return nil, -1, fmt.Errorf("ツイストチェーンの構築に失敗しました: %w", err)
	}
	chainLength *= 1 - twistChainOffsetRatio
	distribution := chainLength / float64(twistJointCount)
	for index, twistIndex := range twistJoints {
		translation := twistAxis.MuledScalar(distribution * float64(index+1))
		if err := scene.SetLocalTranslation(twistIndex, translation); err != nil {
			return nil, -1, err
		}
		if err := scene.SetChannelValue(twistIndex, model.ChannelRadius, 1.0); err != nil {
			return nil, -1, err
		}
	}

	basis, err := scene.CreateNode(model.KindJoint, baseName+"TwistBasis1")
	if err != nil {
		return nil, -1, fmt.Errorf("ツイスト基準ジョイントの作成に失敗しました: %w", err)
	}
	if err := scene.MatchTransform(basis.Index(), startIndex, true, true); err != nil {
		return nil, -1, err
	}
	if err := scene.Parent(basis.Index(), startIndex); err != nil {
		return nil, -1, err
	}
	basis.Radius = 0.5

	value, err := createChildJoint(scene, baseName+"TwistValue1", basis.Index())
	if err != nil {
		return nil, -1, fmt.Errorf("ツイスト値ジョイントの作成に失敗しました: %w", err)
	}
	if _, err := scene.CreateAimConstraint(endIndex, value.Index(), model.AimOptions{
		AimVector:     twistAxis,
		UpVector:      upAxis,
		WorldUpKind:   model.WorldUpObjectRotation,
		WorldUpObject: endIndex,
		WorldUpVector: upAxis,
	}); err != nil {
		return nil, -1, fmt.Errorf("ツイスト値ジョイントの拘束に失敗しました: %w", err)
	}

	offsetJoint, err := createChildJoint(scene, baseName+"BasisOffset1", basis.Index())
	if err != nil {
		return nil, -1, fmt.Errorf("ツイストオフセットジョイントの作成に失敗しました: %w", err)
	}

	// 末端は値ジョイントの回転をそのまま受け、途中は線形に按分する。
	if _, err := scene.CreateOrientConstraint([]int{value.Index()}, twistJoints[len(twistJoints)-1], false); err != nil {
		return nil, -1, fmt.Errorf("ツイスト分配拘束に失敗しました: %w", err)
	}
	weightUnit := 1.0 / float64(twistJointCount)
	for index := 0; index < twistJointCount-1; index++ {
		c, err := scene.CreateOrientConstraint(
			[]int{offsetJoint.Index(), value.Index()}, twistJoints[index], false)
		if err != nil {
			return nil, -1, fmt.Errorf("ツイスト分配拘束に失敗しました: %w", err)
		}
		c.SetTargetWeight(offsetJoint.Index(), 1-weightUnit*float64(index+1))
		c.SetTargetWeight(value.Index(), weightUnit*float64(index+1))
	}
	return twistJoints, basis.Index(), nil
}

// SetupCounterTwistJointChain はstartJoint駆動のカウンターツイストチェーンを組む。
// 余白2%はチェーン近端側に取り、反転抑止用のアップジョイントを
// startJointの親の下へ置く。親ジョイントが無ければエラーを返す。
// 戻り値はツイストジョイントのindex一覧、アップジョイント、基準ジョイントのindexである。
func SetupCounterTwistJointChain(scene *model.Scene, startIndex, endIndex, twistJointCount int, twistAxis, upAxis mmath.Vec3) ([]int, int, int, error) {
	endIndex, err := resolveTwistEndJoint(scene, startIndex, endIndex)
	if err != nil {
		return nil, -1, -1, err
	}
	start, err := scene.Node(startIndex)
	if err != nil {
		return nil, -1, -1, fmt.Errorf("カウンターツイストの構築に失敗しました: %w", err)
	}
	baseName := model.StripJointPrefix(start.ShortName())

	twistJoints := make([]int, 0, twistJointCount)
	for index := 0; index < twistJointCount; index++ {
		joint, err := createChildJoint(scene, fmt.Sprintf("%sTwist%d", baseName, index), startIndex)
		if err != nil {
			return nil, -1, -1, fmt.Errorf("ツイストジョイントの作成に失敗しました: %w", err)
		}
		twistJoints = append(twistJoints, joint.Index())
	}

	chainLength, err := chainLengthBetween(scene, startIndex, endIndex)
	if err != nil {
		return nil, -1, -1, fmt.Errorf("カウンターツイストの構築に失敗しました: %w", err)
	}
	offset := chainLength * twistChainOffsetRatio
	distribution := (chainLength - offset) / float64(twistJointCount)
	for index, twistIndex := range twistJoints {
		translation := twistAxis.MuledScalar(distribution*float64(index) + offset)
		if err := scene.SetLocalTranslation(twistIndex, translation); err != nil {
			return nil, -1, -1, err
		}
		if err := scene.SetChannelValue(twistIndex, model.ChannelRadius, 1.0); err != nil {
			return nil, -1, -1, err
		}
	}

	basis, err := scene.CreateNode(model.KindJoint, baseName+"TwistBasis1")
	if err != nil {
		return nil, -1, -1, fmt.Errorf("ツイスト基準ジョイントの作成に失敗しました: %w", err)
	}
	basis.Radius = 0.5
	if err := scene.Parent(basis.Index(), startIndex); err != nil {
		return nil, -1, -1, err
	}
	if err := scene.MatchTransform(basis.Index(), startIndex, true, true); err != nil {
		return nil, -1, -1, err
	}

	// 最初のツイストジョイントの回転を抑えるアップオブジェクト。
	upJoint, err := scene.CreateNode(model.KindJoint, baseName+"TwistUp1")
	if err != nil {
		return nil, -1, -1, fmt.Errorf("ツイストアップジョイントの作成に失敗しました: %w", err)
	}
	upJoint.Radius = 1.0
	if err := scene.MatchTransform(upJoint.Index(), startIndex, true, true); err != nil {
		return nil, -1, -1, err
	}
	if err := scene.Parent(upJoint.Index(), startIndex); err != nil {
		return nil, -1, -1, err
	}
	if err := scene.SetLocalTranslation(upJoint.Index(), upAxis.MuledScalar(1.0)); err != nil {
		return nil, -1, -1, err
	}
	if start.ParentIndex < 0 {
		return nil, -1, -1, fmt.Errorf("startJointの親ジョイントが見つかりません: %s", start.Name())
	}
	if err := scene.Parent(upJoint.Index(), start.ParentIndex); err != nil {
		return nil, -1, -1, err
	}

	if _, err := scene.CreateAimConstraint(endIndex, basis.Index(), model.AimOptions{
		AimVector:     twistAxis,
		UpVector:      upAxis,
		WorldUpKind:   model.WorldUpObject,
		WorldUpObject: upJoint.Index(),
	}); err != nil {
		return nil, -1, -1, fmt.Errorf("ツイスト基準ジョイントの拘束に失敗しました: %w", err)
	}

	value, err := createChildJoint(scene, baseName+"TwistValue1", basis.Index())
	if err != nil {
		return nil, -1, -1, fmt.Errorf("ツイスト値ジョイントの作成に失敗しました: %w", err)
	}
	if _, err := scene.CreateAimConstraint(endIndex, value.Index(), model.AimOptions{
		AimVector:     twistAxis,
		UpVector:      upAxis,
		WorldUpKind:   model.WorldUpObjectRotation,
		WorldUpObject: startIndex,
		WorldUpVector: upAxis,
	}); err != nil {
		return nil, -1, -1, fmt.Errorf("ツイスト値ジョイントの拘束に失敗しました: %w", err)
	}

	offsetJoint, err := createChildJoint(scene, baseName+"BasisOffset1", basis.Index())
	if err != nil {
		return nil, -1, -1, fmt.Errorf("ツイストオフセットジョイントの作成に失敗しました: %w", err)
	}

	// 先頭は0.9/0.1の固定配分、以降は線形に按分する。
	c, err := scene.CreateOrientConstraint([]int{offsetJoint.Index(), value.Index()}, twistJoints[0], false)
	if err != nil {
		return nil, -1, -1, fmt.Errorf("ツイスト分配拘束に失敗しました: %w", err)
	}
	c.SetTargetWeight(offsetJoint.Index(), 0.9)
	c.SetTargetWeight(value.Index(), 0.1)

	weightUnit := 1.0 / float64(twistJointCount)
	for index := 1; index < twistJointCount; index++ {
		c, err := scene.CreateOrientConstraint(
			[]int{offsetJoint.Index(), value.Index()}, twistJoints[index], false)
		if err != nil {
			return nil, -1, -1, fmt.Errorf("ツイスト分配拘束に失敗しました: %w", err)
		}
		c.SetTargetWeight(offsetJoint.Index(), 1-weightUnit*float64(index))
		c.SetTargetWeight(value.Index(), weightUnit*float64(index))
	}
	return twistJoints, upJoint.Index(), basis.Index(), nil
}
