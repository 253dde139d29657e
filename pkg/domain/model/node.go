// 指示: miu200521358
// Package model はリグ構築対象のシーングラフ(ノード・拘束・ドリブンキー)を提供する。
package model

import (
	"fmt"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
)

// NodeKind はノード種別を表す。
type NodeKind int

const (
	KindJoint NodeKind = iota
	KindLocator
	KindGroup
)

// Channel はノードの数値チャンネル名を表す。
type Channel string

const (
	ChannelTranslateX   Channel = "translateX"
	ChannelTranslateY   Channel = "translateY"
	ChannelTranslateZ   Channel = "translateZ"
	ChannelRotateX      Channel = "rotateX"
	ChannelRotateY      Channel = "rotateY"
	ChannelRotateZ      Channel = "rotateZ"
	ChannelScaleX       Channel = "scaleX"
	ChannelScaleY       Channel = "scaleY"
	ChannelScaleZ       Channel = "scaleZ"
	ChannelJointOrientX Channel = "jointOrientX"
	ChannelJointOrientY Channel = "jointOrientY"
	ChannelJointOrientZ Channel = "jointOrientZ"
	ChannelRadius       Channel = "radius"
)

// 軸順(X, Y, Z)のチャンネル一覧。
var (
	TranslateChannels   = [3]Channel{ChannelTranslateX, ChannelTranslateY, ChannelTranslateZ}
	RotateChannels      = [3]Channel{ChannelRotateX, ChannelRotateY, ChannelRotateZ}
	ScaleChannels       = [3]Channel{ChannelScaleX, ChannelScaleY, ChannelScaleZ}
	JointOrientChannels = [3]Channel{ChannelJointOrientX, ChannelJointOrientY, ChannelJointOrientZ}
)

// Node はシーングラフ上の1ノード(ジョイント・ロケーター・グループ)を表す。
// Rotation / JointOrient はXYZ回転順のオイラー角(度)で保持する。
type Node struct {
	index int
	name  string
	Kind  NodeKind

	ParentIndex int

	Translation mmath.Vec3
	Rotation    mmath.Vec3
	Scale       mmath.Vec3
	JointOrient mmath.Vec3

	// Radius / LocalScale / Override系は表示専用で評価へ影響しない。
	Radius              float64
	LocalScale          float64
	OverrideEnabled     bool
	OverrideDisplayType int
	OverrideColor       int

	lockedChannels map[Channel]struct{}
}

// Index はノードindexを返す。
func (n *Node) Index() int {
	return n.index
}

// Name はノード名を返す。
func (n *Node) Name() string {
	return n.name
}

// ShortName は名前空間を除いた短縮名を返す。
func (n *Node) ShortName() string {
	return ShortName(n.name)
}

// IsChannelLocked はチャンネルのロック状態を返す。
func (n *Node) IsChannelLocked(channel Channel) bool {
	_, locked := n.lockedChannels[channel]
	return locked
}

// LockChannel はチャンネルをロックする。
func (n *Node) LockChannel(channel Channel) {
	if n.lockedChannels == nil {
		n.lockedChannels = map[Channel]struct{}{}
	}
	n.lockedChannels[channel] = struct{}{}
}

// UnlockChannel はチャンネルのロックを解除する。
func (n *Node) UnlockChannel(channel Channel) {
	delete(n.lockedChannels, channel)
}

// WithUnlockedChannels はチャンネルを一時解除してfnを実行し、
// 成否に関わらず元のロック状態へ戻す。
func (n *Node) WithUnlockedChannels(channels []Channel, fn func() error) error {
	relock := make([]Channel, 0, len(channels))
	for _, channel := range channels {
		if n.IsChannelLocked(channel) {
			n.UnlockChannel(channel)
			relock = append(relock, channel)
		}
	}
	defer func() {
		for _, channel := range relock {
			n.LockChannel(channel)
		}
	}()
	return fn()
}

// storedChannelValue は保存値を返す(拘束・接続の解決はしない)。
func (n *Node) storedChannelValue(channel Channel) (float64, error) {
	switch channel {
	case ChannelTranslateX:
		return n.Translation.X, nil
	case ChannelTranslateY:
		return n.Translation.Y, nil
	case ChannelTranslateZ:
		return n.Translation.Z, nil
	case ChannelRotateX:
		return n.Rotation.X, nil
	case ChannelRotateY:
		return n.Rotation.Y, nil
	case ChannelRotateZ:
		return n.Rotation.Z, nil
	case ChannelScaleX:
		return n.Scale.X, nil
	case ChannelScaleY:
		return n.Scale.Y, nil
	case ChannelScaleZ:
		return n.Scale.Z, nil
	case ChannelJointOrientX:
		return n.JointOrient.X, nil
	case ChannelJointOrientY:
		return n.JointOrient.Y, nil
	case ChannelJointOrientZ:
		return n.JointOrient.Z, nil
	case ChannelRadius:
		return n.Radius, nil
	default:
		return 0, fmt.Errorf("未知のチャンネルです: %s", channel)
	}
}

// setStoredChannelValue は保存値を書き込む。ロックは検査しない。
func (n *Node) setStoredChannelValue(channel Channel, value float64) error {
	switch channel {
	case ChannelTranslateX:
		n.Translation.X = value
	case ChannelTranslateY:
		n.Translation.Y = value
	case ChannelTranslateZ:
		n.Translation.Z = value
	case ChannelRotateX:
		n.Rotation.X = value
	case ChannelRotateY:
		n.Rotation.Y = value
	case ChannelRotateZ:
		n.Rotation.Z = value
	case ChannelScaleX:
		n.Scale.X = value
	case ChannelScaleY:
		n.Scale.Y = value
	case ChannelScaleZ:
		n.Scale.Z = value
	case ChannelJointOrientX:
		n.JointOrient.X = value
	case ChannelJointOrientY:
		n.JointOrient.Y = value
	case ChannelJointOrientZ:
		n.JointOrient.Z = value
	case ChannelRadius:
		n.Radius = value
	default:
		return fmt.Errorf("未知のチャンネルです: %s", channel)
	}
	return nil
}

// localRotation はジョイントオリエントを含むローカル回転を返す。
func (n *Node) localRotation() mmath.Quaternion {
	orient := mmath.NewQuaternionFromDegrees(n.JointOrient.X, n.JointOrient.Y, n.JointOrient.Z)
	rotate := mmath.NewQuaternionFromDegrees(n.Rotation.X, n.Rotation.Y, n.Rotation.Z)
	return orient.Muled(rotate)
}

// NodeCollection はノード一覧をindex安定で保持する。
type NodeCollection struct {
	nodes []*Node
}

// NewNodeCollection は空のコレクションを生成する。
func NewNodeCollection() *NodeCollection {
	return &NodeCollection{}
}

// Get は指定indexのノードを返す。削除済み・範囲外はエラーを返す。
func (c *NodeCollection) Get(index int) (*Node, error) {
	if index < 0 || index >= len(c.nodes) || c.nodes[index] == nil {
		return nil, fmt.Errorf("ノードが見つかりません: index=%d", index)
	}
	return c.nodes[index], nil
}

// GetByName は完全一致名のノードを返す。
func (c *NodeCollection) GetByName(name string) (*Node, error) {
	for _, node := range c.nodes {
		if node != nil && node.name == name {
			return node, nil
		}
	}
	return nil, fmt.Errorf("ノードが見つかりません: %s", name)
}

// Values は削除済みを除くノード一覧をindex順で返す。
func (c *NodeCollection) Values() []*Node {
	values := make([]*Node, 0, len(c.nodes))
	for _, node := range c.nodes {
		if node != nil {
			values = append(values, node)
		}
	}
	return values
}

// Len は削除済みを除くノード数を返す。
func (c *NodeCollection) Len() int {
	count := 0
	for _, node := range c.nodes {
		if node != nil {
			count++
		}
	}
	return count
}

// append はノードを追加してindexを確定する。
func (c *NodeCollection) append(node *Node) int {
	node.index = len(c.nodes)
	c.nodes = append(c.nodes, node)
	return node.index
}

// remove は指定indexのノードを削除する。indexは再利用しない。
func (c *NodeCollection) remove(index int) {
	if index >= 0 && index < len(c.nodes) {
		c.nodes[index] = nil
	}
}
