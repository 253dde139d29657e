// 指示: miu200521358
// Package messages はリグ警告IDの表示用メッセージを提供する。
package messages

import (
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
)

// 警告サマリの見出し。
const (
	WarningSummaryTitle = "リグ構築警告"
	WarningUnknown      = "未定義の警告"
)

// warningDescriptions は警告ID→表示文言のカタログである。
var warningDescriptions = map[string]string{
	model.RigWarningMuscleSetupMissing:       "筋肉セットアップが見つかりませんでした",
	model.RigWarningMusclePositionUnresolved: "筋肉位置を評価できませんでした",
	model.RigWarningLayoutPositionMissing:    "レイアウトの筋肉位置が欠けていました",
	model.RigWarningMuscleBuildFailed:        "筋肉グループの構築に失敗しました",
	model.RigWarningJointMissing:             "対象ジョイントが見つかりませんでした",
	model.RigWarningCorrectiveBuildFailed:    "補助ジョイントの構築に失敗しました",
}

// Describe は警告IDの表示文言を返す。未定義IDは既定文言にIDを添える。
func Describe(id string) string {
	if description, ok := warningDescriptions[id]; ok {
		return description
	}
	return WarningUnknown + ": " + id
}
