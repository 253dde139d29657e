// 指示: miu200521358
package model

import (
	"fmt"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/tiendc/go-deepcopy"
)

// poseChannels はポーズ保存対象のローカルチャンネル値一式である。
type poseChannels struct {
	Translation mmath.Vec3
	Rotation    mmath.Vec3
	Scale       mmath.Vec3
	JointOrient mmath.Vec3
}

// SavePose は指定ノード以下のローカル変換を名前付きで退避する。
// 同名ポーズは上書きされる。
func (s *Scene) SavePose(name string, rootIndex int) error {
	if name == "" {
		return fmt.Errorf("ポーズ名が空です")
	}
	if _, err := s.nodes.Get(rootIndex); err != nil {
		return fmt.Errorf("ポーズの保存に失敗しました: %w", err)
	}
	entries := map[int]poseChannels{}
	for _, index := range s.SubtreeIndexes(rootIndex) {
		node, err := s.nodes.Get(index)
		if err != nil {
			return fmt.Errorf("ポーズの保存に失敗しました: %w", err)
		}
		entries[index] = poseChannels{
			Translation: node.Translation,
			Rotation:    node.Rotation,
			Scale:       node.Scale,
			JointOrient: node.JointOrient,
		}
	}
	var copied map[int]poseChannels
	if err := deepcopy.Copy(&copied, entries); err != nil {
		return fmt.Errorf("ポーズの複製に失敗しました: %s: %w", name, err)
	}
	s.poses[name] = copied
	return nil
}

// RestorePose は退避したローカル変換を書き戻す。
// 退避後に削除されたノードは読み飛ばす。ロックは検査しない。
func (s *Scene) RestorePose(name string) error {
	entries, found := s.poses[name]
	if !found {
		return fmt.Errorf("ポーズが見つかりません: %s", name)
	}
	for index, entry := range entries {
		node, err := s.nodes.Get(index)
		if err != nil {
			continue
		}
		node.Translation = entry.Translation
		node.Rotation = entry.Rotation
		node.Scale = entry.Scale
		node.JointOrient = entry.JointOrient
	}
	return nil
}

// DeletePose は退避済みポーズを破棄する。
func (s *Scene) DeletePose(name string) error {
	if _, found := s.poses[name]; !found {
		return fmt.Errorf("ポーズが見つかりません: %s", name)
	}
	delete(s.poses, name)
	return nil
}
