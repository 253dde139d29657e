// 指示: miu200521358
package model

const (
	// RigWarningMuscleSetupMissing は筋肉セットアップ未検出警告。
	RigWarningMuscleSetupMissing = "RigWarningMuscleSetupMissing"
	// RigWarningMusclePositionUnresolved は筋肉位置の評価失敗警告。
	RigWarningMusclePositionUnresolved = "RigWarningMusclePositionUnresolved"
	// RigWarningLayoutPositionMissing はレイアウトの位置欠落警告。
	RigWarningLayoutPositionMissing = "RigWarningLayoutPositionMissing"
	// RigWarningMuscleBuildFailed は筋肉グループ構築失敗警告。
	RigWarningMuscleBuildFailed = "RigWarningMuscleBuildFailed"
	// RigWarningJointMissing は対象ジョイント未検出警告。
	RigWarningJointMissing = "RigWarningJointMissing"
	// RigWarningCorrectiveBuildFailed は補助ジョイント構築失敗警告。
	RigWarningCorrectiveBuildFailed = "RigWarningCorrectiveBuildFailed"
)

// RigWarningIDs は定義済み警告IDの一覧である。
var RigWarningIDs = []string{
	RigWarningMuscleSetupMissing,
	RigWarningMusclePositionUnresolved,
	RigWarningLayoutPositionMissing,
	RigWarningMuscleBuildFailed,
	RigWarningJointMissing,
	RigWarningCorrectiveBuildFailed,
}
