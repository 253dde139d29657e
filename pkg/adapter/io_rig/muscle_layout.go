// 指示: miu200521358
// Package io_rig は筋肉レイアウトとツイストプリセットの入出力を提供する。
package io_rig

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
	"github.com/miu200521358/mu_musclerig/pkg/shared/base/logging"
	"github.com/miu200521358/mu_musclerig/pkg/usecase/port/moutput"
)

// レイアウトJSONはキーをソートしインデント4で整形する。
var layoutJSON = jsoniter.Config{
	SortMapKeys:            true,
	IndentionStep:          4,
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
}.Froze()

// MusclePositions はノード名→ワールド位置のマップである。
type MusclePositions map[string][3]float64

// MuscleLayout はカテゴリ→サイド→ノード位置の筋肉配置データである。
type MuscleLayout map[string]map[string]MusclePositions

// muscleCategory はレイアウトの1カテゴリ分の筋肉カタログである。
// regionsが空のカテゴリは部位記号を持たない。
type muscleCategory struct {
	name    string
	groups  []string
	regions []string
}

var muscleCatalog = []muscleCategory{
	{name: "Trapezius", groups: []string{"Trapezius"}, regions: []string{"A", "B", "C"}},
	{name: "LatissimusDorsi", groups: []string{"LatissimusDorsi"}, regions: []string{"A", "B"}},
	{name: "TerasMajor", groups: []string{"TerasMajor"}},
	{name: "PectoralisMajor", groups: []string{"PectoralisMajor"}, regions: []string{"A", "B"}},
	{name: "Deltoid", groups: []string{"Deltoid"}, regions: []string{"A", "B", "C"}},
	{name: "Arms", groups: []string{"Bicep", "Tricep"}},
}

// muscleSides はレイアウトが扱うサイドの並びである。
var muscleSides = []string{"Left", "Right"}

// muscleNames はカテゴリに含まれる筋肉名(サイド付き)を列挙する。
func (c muscleCategory) muscleNames(side string) []string {
	regions := c.regions
	if len(regions) == 0 {
		regions = []string{""}
	}
	names := make([]string, 0, len(c.groups)*len(regions))
	for _, group := range c.groups {
		for _, region := range regions {
			names = append(names, side+group+region)
		}
	}
	return names
}

// recordMusclePosition はノードのワールド位置をレイアウトへ書き込む。
func recordMusclePosition(scene *model.Scene, positions MusclePositions, nodeName string) error {
	node, err := scene.Resolve(nodeName)
	if err != nil {
		return err
	}
	position, err := scene.WorldTranslation(node.Index())
	if err != nil {
		return err
	}
	positions[nodeName] = [3]float64{position.X, position.Y, position.Z}
	return nil
}

// ExportMuscleLayout はシーン上の筋肉セットアップのワールド位置を
// カタログ順に収集する。見つからないセットアップは警告して読み飛ばす。
func ExportMuscleLayout(scene *model.Scene) MuscleLayout {
	log := logging.DefaultLogger()
	layout := make(MuscleLayout, len(muscleCatalog))
	for _, category := range muscleCatalog {
		layout[category.name] = make(map[string]MusclePositions, len(muscleSides))
		for _, side := range muscleSides {
			positions := make(MusclePositions)
			layout[category.name][side] = positions
			for _, muscleName := range category.muscleNames(side) {
				originName := muscleName + "_muscleOrigin"
				insertionName := muscleName + "_muscleInsertion"
				if !scene.Exists(originName) || !scene.Exists(insertionName) {
					log.Warn("筋肉セットアップが見つかりません: %s", muscleName)
					scene.AddWarning(model.RigWarningMuscleSetupMissing)
					continue
				}
				for _, nodeName := range []string{originName, insertionName, muscleName + "_muscleDriver"} {
					if err := recordMusclePosition(scene, positions, nodeName); err != nil {
						log.Warn("筋肉位置の取得に失敗しました: %s: %v", nodeName, err)
						scene.AddWarning(model.RigWarningMusclePositionUnresolved)
					}
				}
			}
		}
	}
	return layout
}

// SaveMuscleLayout はレイアウトをJSONで書き出す。
func SaveMuscleLayout(writer moutput.IFileWriter, path string, layout MuscleLayout) error {
	data, err := layoutJSON.Marshal(layout)
	if err != nil {
		return fmt.Errorf("筋肉レイアウトの変換に失敗しました: %w", err)
	}
	if err := writer.WriteFile(path, data); err != nil {
		return fmt.Errorf("筋肉レイアウトの保存に失敗しました: %s: %w", path, err)
	}
	return nil
}

// LoadMuscleLayout はJSONから筋肉レイアウトを読み込む。
func LoadMuscleLayout(reader moutput.IFileReader, path string) (MuscleLayout, error) {
	data, err := reader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("筋肉レイアウトの読み込みに失敗しました: %s: %w", path, err)
	}
	var layout MuscleLayout
	if err := layoutJSON.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("筋肉レイアウトの解析に失敗しました: %s: %w", path, err)
	}
	return layout, nil
}
