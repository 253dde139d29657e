// 指示: miu200521358
package io_rig

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/usecase/minteractor"
	"github.com/miu200521358/mu_musclerig/pkg/usecase/port/moutput"
)

// twistPresetEntry はYAML上の1プリセット分の軸設定である。
type twistPresetEntry struct {
	TwistAxis [3]float64 `yaml:"twistAxis"`
	UpAxis    [3]float64 `yaml:"upAxis"`
}

// ParseTwistPresets はYAMLからツイストプリセットを解析し、
// 既定プリセットへ上書きマージする。
func ParseTwistPresets(data []byte) (minteractor.TwistPresets, error) {
	var raw map[string]map[string]twistPresetEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ツイストプリセットの解析に失敗しました: %w", err)
	}

	presets := minteractor.DefaultTwistPresets()
	for region, sides := range raw {
		if _, ok := presets[region]; !ok {
			presets[region] = make(map[string]minteractor.TwistAxisPreset, len(sides))
		}
		for side, entry := range sides {
			if side != "Left" && side != "Right" {
				return nil, fmt.Errorf("ツイストプリセットのサイドが不正です: %s/%s", region, side)
			}
			presets[region][side] = minteractor.TwistAxisPreset{
				TwistAxis: mmath.NewVec3(entry.TwistAxis[0], entry.TwistAxis[1], entry.TwistAxis[2]),
				UpAxis:    mmath.NewVec3(entry.UpAxis[0], entry.UpAxis[1], entry.UpAxis[2]),
			}
		}
	}
	return presets, nil
}

// LoadTwistPresets はYAMLファイルからツイストプリセットを読み込む。
// パスが空のときは既定プリセットを返す。
func LoadTwistPresets(reader moutput.IFileReader, path string) (minteractor.TwistPresets, error) {
	if path == "" {
		return minteractor.DefaultTwistPresets(), nil
	}
	data, err := reader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ツイストプリセットの読み込みに失敗しました: %s: %w", path, err)
	}
	return ParseTwistPresets(data)
}
