// 指示: miu200521358
package minteractor

import (
	"fmt"
	"math"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
	"github.com/miu200521358/mu_musclerig/pkg/shared/base/logging"
)

// MuscleState は筋肉グループの状態を表す。
type MuscleState int

const (
	// MuscleStateEdit はロケーター操作で付着位置を調整できる編集状態。
	MuscleStateEdit MuscleState = iota
	// MuscleStateFinalized はロケーターを除去し拘束だけで駆動する確定状態。
	MuscleStateFinalized
)

// MuscleJointGroup は筋繊維1本分のジョイント一式を表す。
// origin-insertion間の伸縮をtipのY平行移動として取り出し、
// ドリブンキーで筋ジョイントのスケールと位置に変換して体積感を保つ。
type MuscleJointGroup struct {
	scene *model.Scene

	MuscleName        string
	MuscleLength      float64
	CompressionFactor float64
	StretchFactor     float64
	StretchOffset     mmath.Vec3
	CompressionOffset mmath.Vec3

	MuscleOrigin    int
	MuscleInsertion int
	MuscleBase      int
	MuscleTip       int
	MuscleDriver    int
	MuscleOffset    int
	MuscleJoint     int

	OriginAttachIndex    int
	InsertionAttachIndex int

	mainPointConstraint *model.Constraint
	mainAimConstraint   *model.Constraint

	// 編集状態の一時要素。
	editPointConstraints []*model.Constraint
	OriginLoc            int
	InsertionLoc         int
	CenterLoc            int
	centerGrp            int

	state MuscleState
}

// NewMuscleJointGroup は筋肉グループを構築して編集状態で返す。
func NewMuscleJointGroup(scene *model.Scene, muscleName string, muscleLength,
	compressionFactor, stretchFactor float64,
	stretchOffset, compressionOffset mmath.Vec3) (*MuscleJointGroup, error) {
	group := &MuscleJointGroup{
		scene:                scene,
		MuscleName:           muscleName,
		MuscleLength:         muscleLength,
		CompressionFactor:    compressionFactor,
		StretchFactor:        stretchFactor,
		StretchOffset:        stretchOffset,
		CompressionOffset:    compressionOffset,
		OriginAttachIndex:    -1,
		InsertionAttachIndex: -1,
		OriginLoc:            -1,
		InsertionLoc:         -1,
		CenterLoc:            -1,
		centerGrp:            -1,
	}
	if err := group.create(); err != nil {
		return nil, err
	}
	if err := group.enterEditMode(); err != nil {
		return nil, err
	}
	return group, nil
}

// State は現在の状態を返す。
func (g *MuscleJointGroup) State() MuscleState {
	return g.state
}

// createMuscleJoint は筋肉グループ用ジョイントを作る。
// 親を指定したときはローカル変換をゼロに寄せる。
func (g *MuscleJointGroup) createMuscleJoint(name string, parentIndex int, radius float64) (int, error) {
	joint, err := g.scene.CreateNode(model.KindJoint, name)
	if err != nil {
		return -1, fmt.Errorf("筋肉ジョイントの作成に失敗しました: %w", err)
	}
	joint.Radius = radius
	if parentIndex >= 0 {
		if err := g.scene.Parent(joint.Index(), parentIndex); err != nil {
			return -1, err
		}
		joint.Translation = mmath.ZERO_VEC3
		joint.Rotation = mmath.ZERO_VEC3
		joint.JointOrient = mmath.ZERO_VEC3
	}
	return joint.Index(), nil
}

// orientTowardInsertion はoriginをinsertion方向へ向ける(一時エイム相当)。
func (g *MuscleJointGroup) orientTowardInsertion() error {
	c, err := g.scene.CreateAimConstraint(g.MuscleInsertion, g.MuscleOrigin, model.AimOptions{
		AimVector:   mmath.UNIT_Y_VEC3,
		UpVector:    mmath.UNIT_X_VEC3,
		WorldUpKind: model.WorldUpScene,
	})
	if err != nil {
		return fmt.Errorf("起始ジョイントの向き付けに失敗しました: %w", err)
	}
	return g.scene.DeleteConstraint(c)
}

// create は筋肉ジョイント一式と常設の拘束・ドリブンキーを組む。
func (g *MuscleJointGroup) create() error {
	var err error
	if g.MuscleOrigin, err = g.createMuscleJoint(g.MuscleName+"_muscleOrigin", -1, 1.0); err != nil {
		return err
	}
	if g.MuscleInsertion, err = g.createMuscleJoint(g.MuscleName+"_muscleInsertion", -1, 1.0); err != nil {
		return err
	}
	if err := g.scene.SetChannelValue(g.MuscleInsertion, model.ChannelTranslateX, g.MuscleLength); err != nil {
		return err
	}
	if err := g.orientTowardInsertion(); err != nil {
		return err
	}

	if g.MuscleBase, err = g.createMuscleJoint(g.MuscleName+"_muscleBase", -1, 0.5); err != nil {
		return err
	}
	if _, err := g.scene.CreatePointConstraint([]int{g.MuscleOrigin}, g.MuscleBase, false); err != nil {
		return err
	}
	// Y軸をエイム、X軸をアップにしてoriginの回転を参照する。
	if g.mainAimConstraint, err = g.scene.CreateAimConstraint(g.MuscleInsertion, g.MuscleBase, model.AimOptions{
		AimVector:     mmath.UNIT_Y_VEC3,
		UpVector:      mmath.UNIT_X_VEC3,
		WorldUpKind:   model.WorldUpObjectRotation,
		WorldUpObject: g.MuscleOrigin,
		WorldUpVector: mmath.UNIT_X_VEC3,
	}); err != nil {
		return err
	}

	if g.MuscleTip, err = g.createMuscleJoint(g.MuscleName+"_muscleTip", g.MuscleBase, 0.5); err != nil {
		return err
	}
	if _, err := g.scene.CreatePointConstraint([]int{g.MuscleInsertion}, g.MuscleTip, false); err != nil {
		return err
	}

	if g.MuscleDriver, err = g.createMuscleJoint(g.MuscleName+"_muscleDriver", g.MuscleBase, 0.5); err != nil {
		return err
	}
	if g.mainPointConstraint, err = g.scene.CreatePointConstraint(
		[]int{g.MuscleBase, g.MuscleTip}, g.MuscleDriver, false); err != nil {
		return err
	}

	if err := g.scene.Parent(g.MuscleBase, g.MuscleOrigin); err != nil {
		return err
	}
	if g.MuscleOffset, err = g.createMuscleJoint(g.MuscleName+"_muscleOffset", g.MuscleDriver, 0.75); err != nil {
		return err
	}
	if g.MuscleJoint, err = g.createMuscleJoint(g.MuscleName+"_JOmuscle", g.MuscleOffset, 1.0); err != nil {
		return err
	}
	return g.addSDK()
}

// createSpaceLocator は編集用ロケーターを作る。
func (g *MuscleJointGroup) createSpaceLocator(name string, scaleValue float64) (int, error) {
	locator, err := g.scene.CreateNode(model.KindLocator, name)
	if err != nil {
		return -1, fmt.Errorf("ロケーターの作成に失敗しました: %w", err)
	}
	locator.LocalScale = scaleValue
	return locator.Index(), nil
}

func (g *MuscleJointGroup) setOverrideDisplay(index int, enabled bool) error {
	node, err := g.scene.Node(index)
	if err != nil {
		return err
	}
	node.OverrideEnabled = enabled
	if enabled {
		node.OverrideDisplayType = 1
	} else {
		node.OverrideDisplayType = 0
	}
	return nil
}

// enterEditMode は編集状態へ入る。起始・停止はロケーター拘束で動かし、
// 本体ジョイントは表示参照化する。
func (g *MuscleJointGroup) enterEditMode() error {
	if err := g.setOverrideDisplay(g.MuscleOrigin, true); err != nil {
		return err
	}
	if err := g.setOverrideDisplay(g.MuscleInsertion, true); err != nil {
		return err
	}

	var err error
	if g.OriginLoc, err = g.createSpaceLocator(g.MuscleName+"_muscleOrigin_loc", 0.1); err != nil {
		return err
	}
	if err := g.scene.MatchTransform(g.OriginLoc, g.MuscleOrigin, true, false); err != nil {
		return err
	}
	c, err := g.scene.CreatePointConstraint([]int{g.OriginLoc}, g.MuscleOrigin, false)
	if err != nil {
		return err
	}
	g.editPointConstraints = append(g.editPointConstraints, c)

	if g.InsertionLoc, err = g.createSpaceLocator(g.MuscleName+"_muscleInsertion_loc", 0.1); err != nil {
		return err
	}
	if err := g.scene.MatchTransform(g.InsertionLoc, g.MuscleInsertion, true, false); err != nil {
		return err
	}
	if c, err = g.scene.CreatePointConstraint([]int{g.InsertionLoc}, g.MuscleInsertion, false); err != nil {
		return err
	}
	g.editPointConstraints = append(g.editPointConstraints, c)

	// Y軸で互いを向き合わせる。
	if _, err := g.scene.CreateAimConstraint(g.InsertionLoc, g.OriginLoc, model.AimOptions{
		AimVector:   mmath.UNIT_Y_VEC3,
		UpVector:    mmath.UNIT_X_VEC3,
		WorldUpKind: model.WorldUpScene,
	}); err != nil {
		return err
	}
	if _, err := g.scene.CreateAimConstraint(g.OriginLoc, g.InsertionLoc, model.AimOptions{
		AimVector:   mmath.UNIT_Y_NEG_VEC3,
		UpVector:    mmath.UNIT_X_VEC3,
		WorldUpKind: model.WorldUpScene,
	}); err != nil {
		return err
	}

	centerGrp, err := g.scene.CreateNode(model.KindGroup, g.MuscleName+"_muscleCenter_grp")
	if err != nil {
		return fmt.Errorf("センターグループの作成に失敗しました: %w", err)
	}
	g.centerGrp = centerGrp.Index()
	if g.CenterLoc, err = g.createSpaceLocator(g.MuscleName+"_muscleCenter_loc", 0.1); err != nil {
		return err
	}
	if err := g.scene.Parent(g.CenterLoc, g.centerGrp); err != nil {
		return err
	}
	if err := g.scene.MatchTransform(g.centerGrp, g.MuscleDriver, true, true); err != nil {
		return err
	}
	if err := g.scene.Parent(g.centerGrp, g.OriginLoc); err != nil {
		return err
	}
	if _, err := g.scene.CreatePointConstraint([]int{g.OriginLoc, g.InsertionLoc}, g.centerGrp, true); err != nil {
		return err
	}

	if err := g.scene.DeleteConstraint(g.mainPointConstraint); err != nil {
		return err
	}
	g.mainPointConstraint = nil
	if c, err = g.scene.CreatePointConstraint([]int{g.CenterLoc}, g.MuscleDriver, false); err != nil {
		return err
	}
	g.editPointConstraints = append(g.editPointConstraints, c)

	g.state = MuscleStateEdit
	return nil
}

// Update は編集内容を確定し、編集用要素を除去して確定状態へ移る。
func (g *MuscleJointGroup) Update() error {
	if g.state != MuscleStateEdit {
		return fmt.Errorf("編集状態ではありません: %s", g.MuscleName)
	}
	// 拘束を外す前に一度評価して、解決値を保存チャンネルへ残す。
	for _, index := range []int{g.MuscleOrigin, g.MuscleInsertion, g.MuscleDriver} {
		if _, err := g.scene.WorldMatrix(index); err != nil {
			return fmt.Errorf("編集位置の評価に失敗しました: %s: %w", g.MuscleName, err)
		}
	}
	for _, c := range g.editPointConstraints {
		if err := g.scene.DeleteConstraint(c); err != nil {
			// 既に消えている拘束は読み飛ばす。
			logging.DefaultLogger().Debug("編集用拘束は既に削除されています: %v", err)
		}
	}
	g.editPointConstraints = nil

	for _, locIndex := range []int{g.OriginLoc, g.InsertionLoc, g.CenterLoc} {
		if _, err := g.scene.Node(locIndex); err != nil {
			continue
		}
		if err := g.scene.Delete(locIndex); err != nil {
			return err
		}
	}
	g.OriginLoc, g.InsertionLoc, g.CenterLoc, g.centerGrp = -1, -1, -1, -1

	if err := g.setOverrideDisplay(g.MuscleOrigin, false); err != nil {
		return err
	}
	if err := g.setOverrideDisplay(g.MuscleInsertion, false); err != nil {
		return err
	}

	if g.mainAimConstraint != nil {
		if err := g.scene.DeleteConstraint(g.mainAimConstraint); err != nil {
			return err
		}
	}

	var err error
	if g.mainPointConstraint, err = g.scene.CreatePointConstraint(
		[]int{g.MuscleBase, g.MuscleTip}, g.MuscleDriver, true); err != nil {
		return err
	}
	if err := g.orientTowardInsertion(); err != nil {
		return err
	}
	if g.mainAimConstraint, err = g.scene.CreateAimConstraint(g.MuscleInsertion, g.MuscleBase, model.AimOptions{
		AimVector:     mmath.UNIT_Y_VEC3,
		UpVector:      mmath.UNIT_X_VEC3,
		WorldUpKind:   model.WorldUpObjectRotation,
		WorldUpObject: g.MuscleOrigin,
		WorldUpVector: mmath.UNIT_X_VEC3,
	}); err != nil {
		return err
	}

	// 既存のドリブンキーを張り替える。
	g.scene.DeleteDrivenCurvesFor(g.MuscleJoint)
	if err := g.addSDK(); err != nil {
		return err
	}
	g.state = MuscleStateFinalized
	return nil
}

// Edit は確定状態から編集状態へ戻る。
func (g *MuscleJointGroup) Edit() error {
	if g.state != MuscleStateFinalized {
		return fmt.Errorf("確定状態ではありません: %s", g.MuscleName)
	}
	return g.enterEditMode()
}

// Delete は筋肉グループ一式を削除する。確定処理の失敗は警告に留める。
func (g *MuscleJointGroup) Delete() error {
	if g.state == MuscleStateEdit {
		if err := g.Update(); err != nil {
			logging.DefaultLogger().Warn("削除前の確定に失敗しました: %s: %v", g.MuscleName, err)
		}
	}
	for _, rootIndex := range []int{g.MuscleOrigin, g.MuscleInsertion} {
		if _, err := g.scene.Node(rootIndex); err != nil {
			continue
		}
		if err := g.scene.Delete(rootIndex); err != nil {
			return fmt.Errorf("筋肉グループの削除に失敗しました: %s: %w", g.MuscleName, err)
		}
	}
	return nil
}

// addSDK はtipのY平行移動をドライバに、筋ジョイントの
// スケールと平行移動へ体積保存のドリブンキーを張る。
// 直交軸のスケールはsqrt(1/係数)で厚みを補償する。
func (g *MuscleJointGroup) addSDK() error {
	xzSquashScale := math.Sqrt(1.0 / g.CompressionFactor)
	xzStretchScale := math.Sqrt(1.0 / g.StretchFactor)
	stretchOffset := [3]float64{g.StretchOffset.X, g.StretchOffset.Y, g.StretchOffset.Z}
	compressionOffset := [3]float64{g.CompressionOffset.X, g.CompressionOffset.Y, g.CompressionOffset.Z}

	restLength, err := g.scene.ChannelValue(g.MuscleTip, model.ChannelTranslateY)
	if err != nil {
		return fmt.Errorf("安静長の取得に失敗しました: %s: %w", g.MuscleName, err)
	}
	driver := model.ChannelPlug{NodeIndex: g.MuscleTip, Channel: model.ChannelTranslateY}

	setKeyPair := func(scaleChannel, translateChannel model.Channel) error {
		if err := g.scene.SetDrivenKeyframe(g.MuscleJoint, scaleChannel, driver); err != nil {
			return err
		}
		return g.scene.SetDrivenKeyframe(g.MuscleJoint, translateChannel, driver)
	}

	for index := 0; index < 3; index++ {
		scaleChannel := model.ScaleChannels[index]
		translateChannel := model.TranslateChannels[index]
		isAimAxis := index == 1

		// 安静長
		if err := g.scene.SetChannelValue(g.MuscleJoint, scaleChannel, 1.0); err != nil {
			return err
		}
		if err := g.scene.SetChannelValue(g.MuscleJoint, translateChannel, 0.0); err != nil {
			return err
		}
		if err := setKeyPair(scaleChannel, translateChannel); err != nil {
			return err
		}

		// 伸長
		if err := g.scene.SetChannelValue(g.MuscleTip, model.ChannelTranslateY, restLength*g.StretchFactor); err != nil {
			return err
		}
		if isAimAxis {
			if err := g.scene.SetChannelValue(g.MuscleJoint, scaleChannel, g.StretchFactor); err != nil {
				return err
			}
		} else {
			if err := g.scene.SetChannelValue(g.MuscleJoint, scaleChannel, xzStretchScale); err != nil {
				return err
			}
			if err := g.scene.SetChannelValue(g.MuscleJoint, translateChannel, stretchOffset[index]); err != nil {
				return err
			}
		}
		if err := setKeyPair(scaleChannel, translateChannel); err != nil {
			return err
		}

		// 収縮
		if err := g.scene.SetChannelValue(g.MuscleTip, model.ChannelTranslateY, restLength*g.CompressionFactor); err != nil {
			return err
		}
		if isAimAxis {
			if err := g.scene.SetChannelValue(g.MuscleJoint, scaleChannel, g.CompressionFactor); err != nil {
				return err
			}
		} else {
			if err := g.scene.SetChannelValue(g.MuscleJoint, scaleChannel, xzSquashScale); err != nil {
				return err
			}
			if err := g.scene.SetChannelValue(g.MuscleJoint, translateChannel, compressionOffset[index]); err != nil {
				return err
			}
		}
		if err := setKeyPair(scaleChannel, translateChannel); err != nil {
			return err
		}

		if err := g.scene.SetChannelValue(g.MuscleTip, model.ChannelTranslateY, restLength); err != nil {
			return err
		}
	}
	return nil
}

// CreateMuscleFromAttachObjs は付着先2ノードの距離を安静長として
// 筋肉グループを作り、ロケーターとジョイントを付着先の下へ入れる。
func CreateMuscleFromAttachObjs(scene *model.Scene, muscleName string,
	originAttachIndex, insertionAttachIndex int,
	compressionFactor, stretchFactor float64,
	stretchOffset, compressionOffset mmath.Vec3) (*MuscleJointGroup, error) {
	originPos, err := scene.WorldTranslation(originAttachIndex)
	if err != nil {
		return nil, fmt.Errorf("起始付着先の解決に失敗しました: %w", err)
	}
	insertionPos, err := scene.WorldTranslation(insertionAttachIndex)
	if err != nil {
		return nil, fmt.Errorf("停止付着先の解決に失敗しました: %w", err)
	}
	muscleLength := insertionPos.Distance(originPos)

	group, err := NewMuscleJointGroup(scene, muscleName, muscleLength,
		compressionFactor, stretchFactor, stretchOffset, compressionOffset)
	if err != nil {
		return nil, err
	}

	if err := scene.MatchTransform(group.OriginLoc, originAttachIndex, true, true); err != nil {
		return nil, err
	}
	if err := scene.MatchTransform(group.InsertionLoc, insertionAttachIndex, true, true); err != nil {
		return nil, err
	}
	group.OriginAttachIndex = originAttachIndex
	group.InsertionAttachIndex = insertionAttachIndex

	if err := group.parentToAttachObjs(originAttachIndex, insertionAttachIndex); err != nil {
		return nil, err
	}
	return group, nil
}

// parentToAttachObjs はジョイントとロケーターを付着先の下へ入れる。
func (g *MuscleJointGroup) parentToAttachObjs(originAttachIndex, insertionAttachIndex int) error {
	if err := g.scene.Parent(g.MuscleOrigin, originAttachIndex); err != nil {
		return err
	}
	if err := g.scene.Parent(g.MuscleInsertion, insertionAttachIndex); err != nil {
		return err
	}
	if g.OriginLoc >= 0 {
		if err := g.scene.Parent(g.OriginLoc, originAttachIndex); err != nil {
			return err
		}
	}
	if g.InsertionLoc >= 0 {
		if err := g.scene.Parent(g.InsertionLoc, insertionAttachIndex); err != nil {
			return err
		}
	}
	return nil
}

// CreateMuscleFromBlueprint はブループリントジョイントの位置から
// 筋肉グループを作る。筋肉名はbpOriginの名前から導出する。
func CreateMuscleFromBlueprint(scene *model.Scene, bpOriginName, bpInsertionName, bpCenterName string,
	originAttachIndex, insertionAttachIndex int,
	compressionFactor, stretchFactor float64,
	stretchOffset, compressionOffset mmath.Vec3) (*MuscleJointGroup, error) {
	bpOrigin, err := scene.Resolve(bpOriginName)
	if err != nil {
		return nil, fmt.Errorf("ブループリント起始が見つかりません: %s: %w", bpOriginName, err)
	}
	bpInsertion, err := scene.Resolve(bpInsertionName)
	if err != nil {
		return nil, fmt.Errorf("ブループリント停止が見つかりません: %s: %w", bpInsertionName, err)
	}

	originPos, err := scene.WorldTranslation(bpOrigin.Index())
	if err != nil {
		return nil, err
	}
	insertionPos, err := scene.WorldTranslation(bpInsertion.Index())
	if err != nil {
		return nil, err
	}
	muscleLength := insertionPos.Distance(originPos)
	muscleName := model.BlueprintMuscleName(bpOriginName)

	group, err := NewMuscleJointGroup(scene, muscleName, muscleLength,
		compressionFactor, stretchFactor, stretchOffset, compressionOffset)
	if err != nil {
		return nil, err
	}

	if err := scene.MatchTransform(group.OriginLoc, bpOrigin.Index(), true, false); err != nil {
		return nil, err
	}
	if err := scene.MatchTransform(group.InsertionLoc, bpInsertion.Index(), true, false); err != nil {
		return nil, err
	}
	if bpCenter, err := scene.Resolve(bpCenterName); err == nil {
		if err := scene.MatchTransform(group.CenterLoc, bpCenter.Index(), true, false); err != nil {
			return nil, err
		}
	}

	group.OriginAttachIndex = originAttachIndex
	group.InsertionAttachIndex = insertionAttachIndex
	if originAttachIndex >= 0 && insertionAttachIndex >= 0 {
		if err := group.parentToAttachObjs(originAttachIndex, insertionAttachIndex); err != nil {
			return nil, err
		}
	}
	return group, nil
}

// Mirror はYZ平面でワールドX反転した新しい筋肉グループを作る。
// 新グループは常に編集状態で返る。
func (g *MuscleJointGroup) Mirror(newMuscleName string, originAttachIndex, insertionAttachIndex int) (*MuscleJointGroup, error) {
	originPos, err := g.scene.WorldTranslation(g.MuscleOrigin)
	if err != nil {
		return nil, fmt.Errorf("ミラー元の評価に失敗しました: %w", err)
	}
	insertionPos, err := g.scene.WorldTranslation(g.MuscleInsertion)
	if err != nil {
		return nil, fmt.Errorf("ミラー元の評価に失敗しました: %w", err)
	}
	centerPos, err := g.scene.WorldTranslation(g.MuscleDriver)
	if err != nil {
		return nil, fmt.Errorf("ミラー元の評価に失敗しました: %w", err)
	}

	mirrorOrigin := mmath.NewVec3(-originPos.X, originPos.Y, originPos.Z)
	mirrorInsertion := mmath.NewVec3(-insertionPos.X, insertionPos.Y, insertionPos.Z)
	mirrorCenter := mmath.NewVec3(-centerPos.X, centerPos.Y, centerPos.Z)
	muscleLength := insertionPos.Distance(originPos)

	mirrored, err := NewMuscleJointGroup(g.scene, newMuscleName, muscleLength,
		g.CompressionFactor, g.StretchFactor, g.StretchOffset, g.CompressionOffset)
	if err != nil {
		return nil, err
	}

	if err := g.scene.SetWorldTranslation(mirrored.OriginLoc, mirrorOrigin); err != nil {
		return nil, err
	}
	if err := g.scene.SetWorldTranslation(mirrored.InsertionLoc, mirrorInsertion); err != nil {
		return nil, err
	}
	if err := g.scene.SetWorldTranslation(mirrored.CenterLoc, mirrorCenter); err != nil {
		return nil, err
	}

	mirrored.OriginAttachIndex = originAttachIndex
	mirrored.InsertionAttachIndex = insertionAttachIndex
	if originAttachIndex >= 0 && insertionAttachIndex >= 0 {
		if err := mirrored.parentToAttachObjs(originAttachIndex, insertionAttachIndex); err != nil {
			return nil, err
		}
	}
	return mirrored, nil
}
