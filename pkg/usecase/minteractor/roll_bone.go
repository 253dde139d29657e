// 指示: miu200521358
package minteractor

import (
	"fmt"
	"math"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
	"github.com/miu200521358/mu_musclerig/pkg/shared/base/logging"
)

const nonFlipTempPoseName = "tempDagPose1"

// ProjectJointChainToPlane はstartJointをワールド空間で1回転させ、
// チェーンのエイムベクトルを指定法線の平面へ射影した方向へ向ける。
// planeNormalが零ベクトルのときはエイムベクトル自身を法線として使う。
// negative指定時は鈍角側(反対方向)へ射影する。
func ProjectJointChainToPlane(scene *model.Scene, startIndex, endIndex int, upAxis, planeNormal mmath.Vec3, negative bool) error {
	startWorld, err := scene.WorldMatrix(startIndex)
	if err != nil {
		return fmt.Errorf("平面射影の評価に失敗しました: %w", err)
	}
	endWorld, err := scene.WorldMatrix(endIndex)
	if err != nil {
		return fmt.Errorf("平面射影の評価に失敗しました: %w", err)
	}
	startWs := startWorld.Translation()
	endWs := endWorld.Translation()
	startUpVec := startWorld.RotateVec3(upAxis)
	aimVec := endWs.Subed(startWs)
	if planeNormal.Length() == 0 {
		planeNormal = aimVec
	}

	var rotation mmath.Quaternion
	if startUpVec.Dot(planeNormal) == 0 {
		// チェーンのアップが平面と平行なときは±90度の分岐で回す。
		axis := aimVec.Cross(startUpVec).Normalized()
		angle := math.Pi / 2.0
		if negative {
			angle = -math.Pi / 2.0
		}
		rotation = mmath.NewQuaternionFromAxisAngle(axis, angle)
	} else {
		// (endWs - d*up - startWs) . n = 0 を満たすdで平面上の射影点を求める。
		d := aimVec.Dot(planeNormal) / startUpVec.Dot(planeNormal)
		projected := endWs.Subed(startUpVec.MuledScalar(d))
		targetVec := projected.Subed(startWs)
		if negative {
			targetVec = targetVec.Negated()
		}
		axis := aimVec.Cross(targetVec)
		if axis.Length() == 0 {
			// 反平行で回転軸が潰れた場合は適当な垂直軸で回す。
			axis = aimVec.Perpendicular()
		}
		rotation = mmath.NewQuaternionFromAxisAngle(axis.Normalized(), targetVec.Angle(aimVec))
	}
	return scene.RotateWorldBy(startIndex, rotation)
}

// UpJointOffsetMatrix はstartJointローカルでのupJointのオフセット行列を返す。
func UpJointOffsetMatrix(scene *model.Scene, startIndex, upIndex int) (mmath.Mat4, error) {
	startWorld, err := scene.WorldMatrix(startIndex)
	if err != nil {
		return mmath.NewMat4(), fmt.Errorf("オフセット行列の評価に失敗しました: %w", err)
	}
	upWorld, err := scene.WorldMatrix(upIndex)
	if err != nil {
		return mmath.NewMat4(), fmt.Errorf("オフセット行列の評価に失敗しました: %w", err)
	}
	return startWorld.Inverted().Muled(upWorld), nil
}

// CalculateUpVectorPosition はオフセット行列を現在のstartJointへ再適用し、
// upJointのローカル平行移動を求めて書き込む。
func CalculateUpVectorPosition(scene *model.Scene, startIndex, upIndex int, offsetMatrix mmath.Mat4) error {
	startWorld, err := scene.WorldMatrix(startIndex)
	if err != nil {
		return fmt.Errorf("アップ位置の評価に失敗しました: %w", err)
	}
	upNode, err := scene.Node(upIndex)
	if err != nil {
		return fmt.Errorf("アップ位置の評価に失敗しました: %w", err)
	}
	newWorld := startWorld.Muled(offsetMatrix)
	parentWorld := mmath.NewMat4()
	if upNode.ParentIndex >= 0 {
		parentWorld, err = scene.WorldMatrix(upNode.ParentIndex)
		if err != nil {
			return fmt.Errorf("アップ位置の評価に失敗しました: %w", err)
		}
	}
	local := parentWorld.Inverted().Muled(newWorld)
	return scene.SetLocalTranslation(upIndex, local.Translation())
}

// SetupNonFlipTwistChain はツイストチェーンの反転防止を組む。
// startJoint直下にマーカージョイントを置いて親へ付け替え、
// マーカーの相対位置とendJointローカル平行移動の正規化内積を
// ドライバにしてupJointの位置をドリブンキーで切り替える。
// キーは安静・平面射影・逆側射影の3姿勢でサンプルし、姿勢は一時ポーズで戻す。
func SetupNonFlipTwistChain(scene *model.Scene, startIndex, endIndex, upIndex int, upAxis mmath.Vec3) (int, *model.DotProductNode, error) {
	start, err := scene.Node(startIndex)
	if err != nil {
		return -1, nil, fmt.Errorf("反転防止の構築に失敗しました: %w", err)
	}
	if start.ParentIndex < 0 {
		logging.DefaultLogger().Error("角度マーカーの親が見つかりません: %s", start.Name())
		return -1, nil, fmt.Errorf("角度マーカーの親が見つかりません: %s", start.Name())
	}
	parent, err := scene.Node(start.ParentIndex)
	if err != nil {
		return -1, nil, fmt.Errorf("反転防止の構築に失敗しました: %w", err)
	}

	markerName := fmt.Sprintf("%sTwist_%s",
		model.StripJointPrefix(start.ShortName()), model.StripJointPrefix(parent.ShortName()))
	marker, err := scene.CreateNode(model.KindJoint, markerName)
	if err != nil {
		return -1, nil, fmt.Errorf("反転防止の構築に失敗しました: %w", err)
	}
	if err := scene.MatchTransform(marker.Index(), startIndex, true, true); err != nil {
		return -1, nil, err
	}
	if err := scene.Parent(marker.Index(), startIndex); err != nil {
		return -1, nil, err
	}
	if err := scene.SetLocalTranslation(marker.Index(), mmath.ZERO_VEC3); err != nil {
		return -1, nil, err
	}
	// マーカー自身の軸に沿って-upAxisへ1単位ずらす。
	markerRotation := mmath.NewQuaternionFromDegrees(
		marker.JointOrient.X, marker.JointOrient.Y, marker.JointOrient.Z).Muled(
		mmath.NewQuaternionFromDegrees(marker.Rotation.X, marker.Rotation.Y, marker.Rotation.Z))
	offset := markerRotation.MulVec3(upAxis.Negated())
	if err := scene.SetLocalTranslation(marker.Index(), marker.Translation.Added(offset)); err != nil {
		return -1, nil, err
	}
	if err := scene.Parent(marker.Index(), start.ParentIndex); err != nil {
		return -1, nil, err
	}

	dotNode := model.NewDotProductNode(
		model.StripJointPrefix(start.ShortName())+"_DPN",
		marker.Index(), startIndex, endIndex, true)

	offsetMatrix, err := UpJointOffsetMatrix(scene, startIndex, upIndex)
	if err != nil {
		return -1, nil, err
	}

	setDrivenKeys := func() error {
		for _, channel := range model.TranslateChannels {
			if err := scene.SetDrivenKeyframe(upIndex, channel, dotNode); err != nil {
				return err
			}
		}
		return nil
	}

	if err := scene.SavePose(nonFlipTempPoseName, startIndex); err != nil {
		return -1, nil, fmt.Errorf("反転防止の構築に失敗しました: %w", err)
	}
	if err := setDrivenKeys(); err != nil {
		return -1, nil, err
	}

	if err := ProjectJointChainToPlane(scene, startIndex, endIndex, upAxis, mmath.ZERO_VEC3, false); err != nil {
		return -1, nil, err
	}
	if err := CalculateUpVectorPosition(scene, startIndex, upIndex, offsetMatrix); err != nil {
		return -1, nil, err
	}
	if err := setDrivenKeys(); err != nil {
		return -1, nil, err
	}
	if err := scene.RestorePose(nonFlipTempPoseName); err != nil {
		return -1, nil, err
	}

	if err := ProjectJointChainToPlane(scene, startIndex, endIndex, upAxis, mmath.ZERO_VEC3, true); err != nil {
		return -1, nil, err
	}
	if err := CalculateUpVectorPosition(scene, startIndex, upIndex, offsetMatrix); err != nil {
		return -1, nil, err
	}
	if err := setDrivenKeys(); err != nil {
		return -1, nil, err
	}
	if err := scene.RestorePose(nonFlipTempPoseName); err != nil {
		return -1, nil, err
	}
	if err := scene.DeletePose(nonFlipTempPoseName); err != nil {
		return -1, nil, err
	}
	return marker.Index(), dotNode, nil
}
