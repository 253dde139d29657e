// 指示: miu200521358
package io_rig

import (
	"fmt"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
	"github.com/miu200521358/mu_musclerig/pkg/shared/base/logging"
	"github.com/miu200521358/mu_musclerig/pkg/usecase/minteractor"
)

// ブループリントドライバの表示規約。13は赤。
const (
	blueprintDriverRadius = 2.0
	blueprintDriverColor  = 13
)

// blueprintSuffixes は1筋肉分のブループリントノードの接尾辞である。
var blueprintSuffixes = []string{"_muscleOrigin", "_muscleInsertion", "_muscleDriver"}

// ensureGroup は同名グループがあればそれを、無ければ新規に作る。
func ensureGroup(scene *model.Scene, name string, parentIndex int) (*model.Node, error) {
	if scene.Exists(name) {
		return scene.Resolve(name)
	}
	group, err := scene.CreateNode(model.KindGroup, name)
	if err != nil {
		return nil, err
	}
	if parentIndex >= 0 {
		if err := scene.Parent(group.Index(), parentIndex); err != nil {
			return nil, err
		}
	}
	return group, nil
}

// GenerateBlueprintJoints はレイアウトの各筋肉についてbp接頭辞の
// ブループリントジョイントを置く。ドライバは半径2.0の赤表示にする。
// レイアウトに無い筋肉は読み飛ばす。
func GenerateBlueprintJoints(scene *model.Scene, layout MuscleLayout) error {
	log := logging.DefaultLogger()
	for _, category := range muscleCatalog {
		sideLayouts, ok := layout[category.name]
		if !ok {
			continue
		}
		categoryGroup, err := ensureGroup(scene, category.name, -1)
		if err != nil {
			return fmt.Errorf("カテゴリグループの作成に失敗しました: %s: %w", category.name, err)
		}
		for _, side := range muscleSides {
			positions, ok := sideLayouts[side]
			if !ok {
				continue
			}
			sideGroup, err := ensureGroup(scene, category.name+"_"+side, categoryGroup.Index())
			if err != nil {
				return fmt.Errorf("サイドグループの作成に失敗しました: %s: %w", category.name+"_"+side, err)
			}
			for _, muscleName := range category.muscleNames(side) {
				if _, ok := positions[muscleName+"_muscleOrigin"]; !ok {
					log.Debug("レイアウトに筋肉がありません: %s", muscleName)
					continue
				}
				for _, suffix := range blueprintSuffixes {
					position, ok := positions[muscleName+suffix]
					if !ok {
						log.Warn("レイアウトの筋肉位置が欠けています: %s%s", muscleName, suffix)
						scene.AddWarning(model.RigWarningLayoutPositionMissing)
						continue
					}
					bpName := model.BlueprintNamePrefix + muscleName + suffix
					joint, err := scene.CreateNode(model.KindJoint, bpName)
					if err != nil {
						return fmt.Errorf("ブループリントジョイントの作成に失敗しました: %s: %w", bpName, err)
					}
					if suffix == "_muscleDriver" {
						joint.Radius = blueprintDriverRadius
						joint.OverrideEnabled = true
						joint.OverrideColor = blueprintDriverColor
					}
					if err := scene.Parent(joint.Index(), sideGroup.Index()); err != nil {
						return err
					}
					if err := scene.SetWorldTranslation(joint.Index(),
						mmath.NewVec3(position[0], position[1], position[2])); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// BuildOptions はブループリントからの筋肉構築パラメータである。
type BuildOptions struct {
	CompressionFactor float64
	StretchFactor     float64
	StretchOffset     mmath.Vec3
	CompressionOffset mmath.Vec3
}

// DefaultBuildOptions は既定の収縮・伸長係数を返す。
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{CompressionFactor: 0.5, StretchFactor: 1.5}
}

// BuildMusclesFromBlueprint はシーン上のブループリントジョイントから
// 筋肉グループを構築して確定する。筋肉単位で失敗しても続行し、
// 最後に成否件数を報告する。
func BuildMusclesFromBlueprint(scene *model.Scene, layout MuscleLayout, options BuildOptions) ([]*minteractor.MuscleJointGroup, error) {
	log := logging.DefaultLogger()
	groups := make([]*minteractor.MuscleJointGroup, 0)
	successCount, failCount := 0, 0
	for _, category := range muscleCatalog {
		sideLayouts, ok := layout[category.name]
		if !ok {
			continue
		}
		for _, side := range muscleSides {
			positions, ok := sideLayouts[side]
			if !ok {
				continue
			}
			for _, muscleName := range category.muscleNames(side) {
				if _, ok := positions[muscleName+"_muscleOrigin"]; !ok {
					continue
				}
				bpOrigin := model.BlueprintNamePrefix + muscleName + "_muscleOrigin"
				bpInsertion := model.BlueprintNamePrefix + muscleName + "_muscleInsertion"
				bpDriver := model.BlueprintNamePrefix + muscleName + "_muscleDriver"
				group, err := minteractor.CreateMuscleFromBlueprint(scene,
					bpOrigin, bpInsertion, bpDriver, -1, -1,
					options.CompressionFactor, options.StretchFactor,
					options.StretchOffset, options.CompressionOffset)
				if err != nil {
					log.Warn("筋肉グループの構築に失敗しました: %s: %v", muscleName, err)
					scene.AddWarning(model.RigWarningMuscleBuildFailed)
					failCount++
					continue
				}
				if err := group.Update(); err != nil {
					log.Warn("筋肉グループの確定に失敗しました: %s: %v", muscleName, err)
					scene.AddWarning(model.RigWarningMuscleBuildFailed)
					failCount++
					continue
				}
				groups = append(groups, group)
				successCount++
			}
		}
	}
	log.Info("筋肉グループの構築が完了しました: 成功 %d 件, 失敗 %d 件", successCount, failCount)
	return groups, nil
}

// ImportMuscleLayout はレイアウトからブループリントを置き、
// blueprintOnlyが偽のときは筋肉グループの構築と確定まで行う。
func ImportMuscleLayout(scene *model.Scene, layout MuscleLayout, blueprintOnly bool, options BuildOptions) ([]*minteractor.MuscleJointGroup, error) {
	if err := GenerateBlueprintJoints(scene, layout); err != nil {
		return nil, err
	}
	if blueprintOnly {
		return nil, nil
	}
	return BuildMusclesFromBlueprint(scene, layout, options)
}
