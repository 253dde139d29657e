// 指示: miu200521358
package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ジョイント名・ブループリント名の接頭辞規約。
const (
	JointNamePrefix     = "JO"
	BlueprintNamePrefix = "bp"
)

var trailingDigitsPattern = regexp.MustCompile(`\d+$`)

// ShortName は名前空間を除いた短縮名を返す。
func ShortName(name string) string {
	if index := strings.LastIndex(name, ":"); index >= 0 {
		return name[index+1:]
	}
	return name
}

// StripJointPrefix はJO接頭辞を除去する。
func StripJointPrefix(name string) string {
	return strings.TrimPrefix(name, JointNamePrefix)
}

// StripTrailingDigits は末尾の連続数字を除去する。
func StripTrailingDigits(name string) string {
	return trailingDigitsPattern.ReplaceAllString(name, "")
}

// AvgPushBaseName はJO接頭辞と末尾数字を除いた基底名を返す。
// 例: JOLeftElbow1 -> LeftElbow
func AvgPushBaseName(jointName string) string {
	return StripTrailingDigits(StripJointPrefix(ShortName(jointName)))
}

// BlueprintMuscleName はブループリントノード名から筋肉名を導出する。
// 最初のアンダースコアで分割した先頭からbp接頭辞を除く。
// 例: bpLeftTrapeziusA_muscleOrigin -> LeftTrapeziusA
func BlueprintMuscleName(bpName string) string {
	head := strings.SplitN(ShortName(bpName), "_", 2)[0]
	return strings.TrimPrefix(head, BlueprintNamePrefix)
}

// IsRightSide は右側ノードかを判定する。
// 命名規約互換のため部分一致・接頭辞一致の判定規則を変更しないこと。
func IsRightSide(nodeName string) bool {
	short := ShortName(nodeName)
	return strings.Contains(short, "Right") || strings.HasPrefix(short, "JORight")
}

// OtherSide は反対側のサイド名を返す。
func OtherSide(side string) (string, error) {
	switch side {
	case "Left":
		return "Right", nil
	case "Right":
		return "Left", nil
	default:
		return "", fmt.Errorf("サイド指定が不正です: %s (Left または Right を指定してください)", side)
	}
}

// ValidateSide はサイド名を検証する。
func ValidateSide(side string) error {
	if side != "Left" && side != "Right" {
		return fmt.Errorf("サイド指定が不正です: %s (Left または Right を指定してください)", side)
	}
	return nil
}
