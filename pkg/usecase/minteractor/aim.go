// 指示: miu200521358
// Package minteractor は筋肉リグ・ツイストチェーン・補助ジョイントの構築処理を提供する。
package minteractor

import (
	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
)

// NewAimTransformation はターゲット点を向くワールド変換行列を返す。
// ローカルのaimVectorがターゲット方向、upVectorがアップ点方向へ揃うよう
// 正規直交基底を組み、平行移動はaimPointとする。
func NewAimTransformation(aimPoint, targetPoint, upPoint, aimVector, upVector mmath.Vec3) mmath.Mat4 {
	forward := targetPoint.Subed(aimPoint)
	worldUp := upPoint.Subed(aimPoint)
	rotation := mmath.NewAimQuaternion(forward, worldUp, aimVector, upVector)
	return mmath.NewMat4FromTRS(aimPoint, rotation, mmath.NewVec3(1, 1, 1))
}
