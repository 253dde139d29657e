// 指示: miu200521358
package model

import (
	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
)

// ConstraintKind は拘束種別を表す。
type ConstraintKind int

const (
	PointConstraintKind ConstraintKind = iota
	OrientConstraintKind
	AimConstraintKind
)

// WorldUpKind はエイム拘束のワールドアップ参照方式を表す。
type WorldUpKind int

const (
	// WorldUpScene はシーンのYアップを参照する。
	WorldUpScene WorldUpKind = iota
	// WorldUpObject は参照オブジェクト位置への方向をアップとする。
	WorldUpObject
	// WorldUpObjectRotation は参照オブジェクトの回転で変換したベクトルをアップとする。
	WorldUpObjectRotation
)

// ConstraintTarget は拘束ターゲットと重みを表す。
type ConstraintTarget struct {
	Index  int
	Weight float64
}

// Constraint はノード間のライブ拘束を表す。
// 1ノードに同種拘束は最後に作成されたものだけが有効になる。
type Constraint struct {
	index int
	name  string

	Kind             ConstraintKind
	ConstrainedIndex int
	Targets          []ConstraintTarget

	MaintainOffset    bool
	offsetTranslation mmath.Vec3
	offsetRotation    mmath.Quaternion

	// エイム拘束用。
	AimVector     mmath.Vec3
	UpVector      mmath.Vec3
	WorldUpKind   WorldUpKind
	WorldUpObject int
	WorldUpVector mmath.Vec3

	// オリエント拘束の補間方式。shortest固定で作成する。
	InterpShortest bool
}

// Index は拘束indexを返す。
func (c *Constraint) Index() int {
	return c.index
}

// Name は拘束名を返す。
func (c *Constraint) Name() string {
	return c.name
}

// weightSum はターゲット重みの合計を返す。
func (c *Constraint) weightSum() float64 {
	sum := 0.0
	for _, target := range c.Targets {
		sum += target.Weight
	}
	return sum
}

// SetTargetWeight は指定ターゲットの重みを設定する。
func (c *Constraint) SetTargetWeight(targetIndex int, weight float64) {
	for i := range c.Targets {
		if c.Targets[i].Index == targetIndex {
			c.Targets[i].Weight = weight
		}
	}
}
