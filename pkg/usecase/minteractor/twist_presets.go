// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
)

// TwistAxisPreset は部位ごとのツイスト軸・アップ軸の組。
type TwistAxisPreset struct {
	TwistAxis mmath.Vec3
	UpAxis    mmath.Vec3
}

// TwistPresets は部位名→サイド→軸設定のプリセット表。
type TwistPresets map[string]map[string]TwistAxisPreset

// プリセット表の部位名。
const (
	TwistRegionUpperArms = "upperarms"
	TwistRegionForearms  = "forearms"
)

// DefaultTwistPresets は二足キャラクター向けの既定プリセットを返す。
// 上腕は左右でアップ軸の向きが反転し、前腕は左右共通である。
func DefaultTwistPresets() TwistPresets {
	return TwistPresets{
		TwistRegionUpperArms: {
			"Left":  {TwistAxis: mmath.UNIT_Y_VEC3, UpAxis: mmath.UNIT_X_VEC3},
			"Right": {TwistAxis: mmath.UNIT_Y_VEC3, UpAxis: mmath.UNIT_X_NEG_VEC3},
		},
		TwistRegionForearms: {
			"Left":  {TwistAxis: mmath.UNIT_Y_VEC3, UpAxis: mmath.UNIT_Z_VEC3},
			"Right": {TwistAxis: mmath.UNIT_Y_VEC3, UpAxis: mmath.UNIT_Z_VEC3},
		},
	}
}

// Preset は部位とサイドのプリセットを返す。
func (p TwistPresets) Preset(region, side string) (TwistAxisPreset, error) {
	if err := model.ValidateSide(side); err != nil {
		return TwistAxisPreset{}, err
	}
	sides, ok := p[region]
	if !ok {
		return TwistAxisPreset{}, fmt.Errorf("ツイストプリセットの部位が見つかりません: %s", region)
	}
	preset, ok := sides[side]
	if !ok {
		return TwistAxisPreset{}, fmt.Errorf("ツイストプリセットのサイドが見つかりません: %s/%s", region, side)
	}
	return preset, nil
}
