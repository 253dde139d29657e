// 指示: miu200521358
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
	"github.com/miu200521358/mu_musclerig/pkg/shared/base/logging"
)

// Scene はノード階層・拘束・チャンネル接続・ドリブンキーを保持し、
// ワールド行列をプル型で評価するシーングラフである。
// 評価結果はキャッシュせず、毎回現在の保存値から引き直す。
type Scene struct {
	nodes       *NodeCollection
	constraints []*Constraint
	connections map[ChannelPlug]ScalarSource
	curves      []*DrivenCurve
	poses       map[string]map[int]poseChannels
	warnings    map[string]int

	constraintSerial int
}

// NewScene は空のシーンを生成する。
func NewScene() *Scene {
	return &Scene{
		nodes:       NewNodeCollection(),
		connections: map[ChannelPlug]ScalarSource{},
		poses:       map[string]map[int]poseChannels{},
		warnings:    map[string]int{},
	}
}

// AddWarning はリグ構築時の警告IDを記録する。
func (s *Scene) AddWarning(id string) {
	if id == "" {
		return
	}
	s.warnings[id]++
}

// WarningCounts は警告ID→発生回数のコピーを返す。
func (s *Scene) WarningCounts() map[string]int {
	counts := make(map[string]int, len(s.warnings))
	for id, count := range s.warnings {
		counts[id] = count
	}
	return counts
}

// evalKey は評価中ノードの循環検出キーである。
// 平行移動・回転・行列を別アスペクトで追跡し、
// 位置のみ参照する拘束が偽の循環にならないようにする。
type evalKey struct {
	index  int
	aspect string
}

type evalContext struct {
	scene    *Scene
	visiting map[evalKey]struct{}
}

func (s *Scene) newEvalContext() *evalContext {
	return &evalContext{scene: s, visiting: map[evalKey]struct{}{}}
}

func (ctx *evalContext) enter(index int, aspect string) error {
	key := evalKey{index: index, aspect: aspect}
	if _, visiting := ctx.visiting[key]; visiting {
		return fmt.Errorf("評価が循環しています: index=%d aspect=%s", index, aspect)
	}
	ctx.visiting[key] = struct{}{}
	return nil
}

func (ctx *evalContext) leave(index int, aspect string) {
	delete(ctx.visiting, evalKey{index: index, aspect: aspect})
}

// ---------------------------------------------------------------------------
// ノード操作

// Node は指定indexのノードを返す。
func (s *Scene) Node(index int) (*Node, error) {
	return s.nodes.Get(index)
}

// Nodes は削除済みを除く全ノードをindex順で返す。
func (s *Scene) Nodes() []*Node {
	return s.nodes.Values()
}

// CreateNode はノードを新規作成する。同名ノードが既にあればエラーを返す。
func (s *Scene) CreateNode(kind NodeKind, name string) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("ノード名が空です")
	}
	if _, err := s.nodes.GetByName(name); err == nil {
		return nil, fmt.Errorf("同名ノードが既に存在します: %s", name)
	}
	node := &Node{
		name:        name,
		Kind:        kind,
		ParentIndex: -1,
		Scale:       mmath.NewVec3(1, 1, 1),
		Radius:      1.0,
		LocalScale:  1.0,
	}
	s.nodes.append(node)
	return node, nil
}

// Exists は完全一致名または短縮名一致のノードが存在するかを返す。
func (s *Scene) Exists(name string) bool {
	if _, err := s.nodes.GetByName(name); err == nil {
		return true
	}
	for _, node := range s.nodes.Values() {
		if node.ShortName() == ShortName(name) {
			return true
		}
	}
	return false
}

// Resolve は名前からノードを解決する。完全一致を優先し、
// なければ名前空間を除いた短縮名で照合する。
// 短縮名が複数ノードに一致した場合は警告して最小indexのものを返す。
func (s *Scene) Resolve(name string) (*Node, error) {
	if node, err := s.nodes.GetByName(name); err == nil {
		return node, nil
	}
	short := ShortName(name)
	var matched []*Node
	for _, node := range s.nodes.Values() {
		if node.ShortName() == short {
			matched = append(matched, node)
		}
	}
	switch len(matched) {
	case 0:
		return nil, fmt.Errorf("ノードが見つかりません: %s", name)
	case 1:
		return matched[0], nil
	default:
		logging.DefaultLogger().Warn("ノード名が一意ではありません: %s (%d件、最初の一致を使用します)", name, len(matched))
		return matched[0], nil
	}
}

// ChildIndexes は直接の子ノードindex一覧を昇順で返す。
func (s *Scene) ChildIndexes(parentIndex int) []int {
	var children []int
	for _, node := range s.nodes.Values() {
		if node.ParentIndex == parentIndex {
			children = append(children, node.Index())
		}
	}
	sort.Ints(children)
	return children
}

// SubtreeIndexes は指定ノードとその子孫のindex一覧を返す(先頭は指定ノード)。
func (s *Scene) SubtreeIndexes(rootIndex int) []int {
	result := []int{rootIndex}
	queue := []int{rootIndex}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range s.ChildIndexes(current) {
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// Delete はノードと子孫をまとめて削除し、
// 削除ノードへ触れる拘束・接続・ドリブンカーブも取り除く。
func (s *Scene) Delete(index int) error {
	if _, err := s.nodes.Get(index); err != nil {
		return err
	}
	deleted := map[int]struct{}{}
	for _, subtreeIndex := range s.SubtreeIndexes(index) {
		deleted[subtreeIndex] = struct{}{}
	}

	kept := s.constraints[:0]
	for _, c := range s.constraints {
		if s.constraintTouches(c, deleted) {
			continue
		}
		kept = append(kept, c)
	}
	s.constraints = kept

	for plug, source := range s.connections {
		if _, hit := deleted[plug.NodeIndex]; hit {
			delete(s.connections, plug)
			continue
		}
		if sourceTouches(source, deleted) {
			delete(s.connections, plug)
		}
	}

	keptCurves := s.curves[:0]
	for _, curve := range s.curves {
		if _, hit := deleted[curve.Driven.NodeIndex]; hit {
			continue
		}
		if sourceTouches(curve.Driver, deleted) {
			continue
		}
		keptCurves = append(keptCurves, curve)
	}
	s.curves = keptCurves

	for subtreeIndex := range deleted {
		s.nodes.remove(subtreeIndex)
	}
	return nil
}

func (s *Scene) constraintTouches(c *Constraint, indexes map[int]struct{}) bool {
	if _, hit := indexes[c.ConstrainedIndex]; hit {
		return true
	}
	for _, target := range c.Targets {
		if _, hit := indexes[target.Index]; hit {
			return true
		}
	}
	if c.Kind == AimConstraintKind && c.WorldUpKind != WorldUpScene {
		if _, hit := indexes[c.WorldUpObject]; hit {
			return true
		}
	}
	return false
}

// sourceTouches はスカラー供給元が指定ノード群を参照するかを返す。
func sourceTouches(source ScalarSource, indexes map[int]struct{}) bool {
	switch src := source.(type) {
	case ChannelPlug:
		_, hit := indexes[src.NodeIndex]
		return hit
	case *MultiplyNode:
		return sourceTouches(src.Input1, indexes)
	case *RemapNode:
		return sourceTouches(src.Input, indexes)
	case *DotProductNode:
		for _, index := range []int{src.MarkerIndex, src.ReferenceIndex, src.EndIndex} {
			if _, hit := indexes[index]; hit {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Parent はノードを指定親の子へ付け替える。ワールド変換は保存する。
// parentIndex に -1 を渡すとワールド直下へ付け替える。
func (s *Scene) Parent(childIndex, parentIndex int) error {
	child, err := s.nodes.Get(childIndex)
	if err != nil {
		return fmt.Errorf("親子付けに失敗しました: %w", err)
	}
	if parentIndex >= 0 {
		if _, err := s.nodes.Get(parentIndex); err != nil {
			return fmt.Errorf("親子付けに失敗しました: %w", err)
		}
		for _, subtreeIndex := range s.SubtreeIndexes(childIndex) {
			if subtreeIndex == parentIndex {
				return fmt.Errorf("自身の子孫へは親子付けできません: %s", child.Name())
			}
		}
	}
	childWorld, err := s.WorldMatrix(childIndex)
	if err != nil {
		return err
	}
	parentWorld := mmath.NewMat4()
	if parentIndex >= 0 {
		parentWorld, err = s.WorldMatrix(parentIndex)
		if err != nil {
			return err
		}
	}
	local := parentWorld.Inverted().Muled(childWorld)
	child.ParentIndex = parentIndex
	child.Translation = local.Translation()
	orientInv := mmath.NewQuaternionFromDegrees(
		child.JointOrient.X, child.JointOrient.Y, child.JointOrient.Z).Inverted()
	child.Rotation = orientInv.Muled(local.Quaternion()).ToDegrees()
	return nil
}

// ---------------------------------------------------------------------------
// チャンネル

// ChannelValue は拘束・接続・ドリブンキーを解決した現在値を返す。
func (s *Scene) ChannelValue(index int, channel Channel) (float64, error) {
	return s.resolveChannelValue(s.newEvalContext(), index, channel)
}

// SetChannelValue はチャンネルへ値を書き込む。ロック中はエラーを返す。
func (s *Scene) SetChannelValue(index int, channel Channel, value float64) error {
	node, err := s.nodes.Get(index)
	if err != nil {
		return err
	}
	if node.IsChannelLocked(channel) {
		return fmt.Errorf("ロックされたチャンネルへは書き込めません: %s.%s", node.Name(), channel)
	}
	return node.setStoredChannelValue(channel, value)
}

// SetLocalTranslation はローカル平行移動を書き込む。
func (s *Scene) SetLocalTranslation(index int, translation mmath.Vec3) error {
	values := [3]float64{translation.X, translation.Y, translation.Z}
	for i, channel := range TranslateChannels {
		if err := s.SetChannelValue(index, channel, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// SetLocalRotation はローカル回転(XYZオイラー角、度)を書き込む。
func (s *Scene) SetLocalRotation(index int, rotation mmath.Vec3) error {
	values := [3]float64{rotation.X, rotation.Y, rotation.Z}
	for i, channel := range RotateChannels {
		if err := s.SetChannelValue(index, channel, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// ConnectChannel はスカラー供給元をチャンネルへ接続する。
// 接続済みチャンネルは新しい接続で上書きされる。
func (s *Scene) ConnectChannel(source ScalarSource, index int, channel Channel) error {
	node, err := s.nodes.Get(index)
	if err != nil {
		return err
	}
	if node.IsChannelLocked(channel) {
		return fmt.Errorf("ロックされたチャンネルへは接続できません: %s.%s", node.Name(), channel)
	}
	s.connections[ChannelPlug{NodeIndex: index, Channel: channel}] = source
	return nil
}

// DisconnectChannel はチャンネルの接続を外す。
func (s *Scene) DisconnectChannel(index int, channel Channel) {
	delete(s.connections, ChannelPlug{NodeIndex: index, Channel: channel})
}

// ---------------------------------------------------------------------------
// ワールド変換

// WorldMatrix はワールド行列を返す。
func (s *Scene) WorldMatrix(index int) (mmath.Mat4, error) {
	return s.worldMatrixCtx(s.newEvalContext(), index)
}

// WorldTranslation はワールド位置を返す。
func (s *Scene) WorldTranslation(index int) (mmath.Vec3, error) {
	world, err := s.worldMatrixCtx(s.newEvalContext(), index)
	if err != nil {
		return mmath.Vec3{}, err
	}
	return world.Translation(), nil
}

// WorldRotation はワールド回転を返す。
func (s *Scene) WorldRotation(index int) (mmath.Quaternion, error) {
	world, err := s.worldMatrixCtx(s.newEvalContext(), index)
	if err != nil {
		return mmath.NewQuaternion(), err
	}
	return world.Quaternion(), nil
}

// SetWorldTranslation はワールド位置が指定値になるようローカル平行移動を書き込む。
func (s *Scene) SetWorldTranslation(index int, position mmath.Vec3) error {
	node, err := s.nodes.Get(index)
	if err != nil {
		return err
	}
	parentWorld := mmath.NewMat4()
	if node.ParentIndex >= 0 {
		parentWorld, err = s.WorldMatrix(node.ParentIndex)
		if err != nil {
			return err
		}
	}
	return s.SetLocalTranslation(index, parentWorld.Inverted().MulVec3(position))
}

// SetWorldRotation はワールド回転が指定値になるよう回転チャンネルを書き込む。
// ジョイントオリエントは変更せず、差分を回転チャンネルへ入れる。
func (s *Scene) SetWorldRotation(index int, rotation mmath.Quaternion) error {
	node, err := s.nodes.Get(index)
	if err != nil {
		return err
	}
	parentRotation := mmath.NewQuaternion()
	if node.ParentIndex >= 0 {
		parentWorld, err := s.WorldMatrix(node.ParentIndex)
		if err != nil {
			return err
		}
		parentRotation = parentWorld.Quaternion()
	}
	orient := mmath.NewQuaternionFromDegrees(node.JointOrient.X, node.JointOrient.Y, node.JointOrient.Z)
	channelRotation := orient.Inverted().Muled(parentRotation.Inverted()).Muled(rotation)
	return s.SetLocalRotation(index, channelRotation.ToDegrees())
}

// RotateWorldBy はワールド空間の回転を現在姿勢へ合成する。
func (s *Scene) RotateWorldBy(index int, rotation mmath.Quaternion) error {
	current, err := s.WorldRotation(index)
	if err != nil {
		return err
	}
	return s.SetWorldRotation(index, rotation.Muled(current))
}

// MatchTransform はsrcのワールド位置・回転をdstへ合わせる。
func (s *Scene) MatchTransform(dstIndex, srcIndex int, position, rotation bool) error {
	srcWorld, err := s.WorldMatrix(srcIndex)
	if err != nil {
		return err
	}
	if position {
		if err := s.SetWorldTranslation(dstIndex, srcWorld.Translation()); err != nil {
			return err
		}
	}
	if rotation {
		if err := s.SetWorldRotation(dstIndex, srcWorld.Quaternion()); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// 拘束

// Constraints は指定ノードを拘束する拘束一覧を作成順で返す。
func (s *Scene) Constraints(index int) []*Constraint {
	var result []*Constraint
	for _, c := range s.constraints {
		if c.ConstrainedIndex == index {
			result = append(result, c)
		}
	}
	return result
}

// activeConstraint は指定ノードに有効な拘束を返す。
// 同種拘束が複数あるときは最後に作成されたものが勝つ。
func (s *Scene) activeConstraint(index int, kinds ...ConstraintKind) *Constraint {
	for i := len(s.constraints) - 1; i >= 0; i-- {
		c := s.constraints[i]
		if c.ConstrainedIndex != index {
			continue
		}
		for _, kind := range kinds {
			if c.Kind == kind {
				return c
			}
		}
	}
	return nil
}

func (s *Scene) nextConstraintName(constrained *Node, suffix string) string {
	s.constraintSerial++
	return fmt.Sprintf("%s_%s%d", constrained.ShortName(), suffix, s.constraintSerial)
}

func (s *Scene) validateConstraintNodes(targetIndexes []int, constrainedIndex int) (*Node, error) {
	if len(targetIndexes) == 0 {
		return nil, fmt.Errorf("拘束ターゲットが空です")
	}
	for _, targetIndex := range targetIndexes {
		if _, err := s.nodes.Get(targetIndex); err != nil {
			return nil, fmt.Errorf("拘束ターゲットの解決に失敗しました: %w", err)
		}
	}
	constrained, err := s.nodes.Get(constrainedIndex)
	if err != nil {
		return nil, fmt.Errorf("拘束対象の解決に失敗しました: %w", err)
	}
	return constrained, nil
}

// CreatePointConstraint はポイント拘束を作成し、即時評価結果を保存値へ反映する。
func (s *Scene) CreatePointConstraint(targetIndexes []int, constrainedIndex int, maintainOffset bool) (*Constraint, error) {
	constrained, err := s.validateConstraintNodes(targetIndexes, constrainedIndex)
	if err != nil {
		return nil, err
	}
	c := &Constraint{
		name:             s.nextConstraintName(constrained, "pointConstraint"),
		Kind:             PointConstraintKind,
		ConstrainedIndex: constrainedIndex,
		MaintainOffset:   maintainOffset,
	}
	for _, targetIndex := range targetIndexes {
		c.Targets = append(c.Targets, ConstraintTarget{Index: targetIndex, Weight: 1.0})
	}
	if maintainOffset {
		ctx := s.newEvalContext()
		blended, err := s.blendedTargetPosition(ctx, c)
		if err != nil {
			return nil, err
		}
		parentWorld := mmath.NewMat4()
		if constrained.ParentIndex >= 0 {
			parentWorld, err = s.worldMatrixCtx(ctx, constrained.ParentIndex)
			if err != nil {
				return nil, err
			}
		}
		c.offsetTranslation = constrained.Translation.Subed(parentWorld.Inverted().MulVec3(blended))
	}
	s.appendConstraint(c)
	return c, nil
}

// CreateOrientConstraint はオリエント拘束を作成し、即時評価結果を保存値へ反映する。
// 補間方式はshortest固定である。
func (s *Scene) CreateOrientConstraint(targetIndexes []int, constrainedIndex int, maintainOffset bool) (*Constraint, error) {
	constrained, err := s.validateConstraintNodes(targetIndexes, constrainedIndex)
	if err != nil {
		return nil, err
	}
	c := &Constraint{
		name:             s.nextConstraintName(constrained, "orientConstraint"),
		Kind:             OrientConstraintKind,
		ConstrainedIndex: constrainedIndex,
		MaintainOffset:   maintainOffset,
		InterpShortest:   true,
	}
	for _, targetIndex := range targetIndexes {
		c.Targets = append(c.Targets, ConstraintTarget{Index: targetIndex, Weight: 1.0})
	}
	if maintainOffset {
		ctx := s.newEvalContext()
		blended, err := s.blendedTargetRotation(ctx, c)
		if err != nil {
			return nil, err
		}
		currentWorld, err := s.worldMatrixCtx(ctx, constrainedIndex)
		if err != nil {
			return nil, err
		}
		c.offsetRotation = blended.Inverted().Muled(currentWorld.Quaternion())
	}
	s.appendConstraint(c)
	return c, nil
}

// AimOptions はエイム拘束の作成パラメータである。
type AimOptions struct {
	AimVector      mmath.Vec3
	UpVector       mmath.Vec3
	WorldUpKind    WorldUpKind
	WorldUpObject  int
	WorldUpVector  mmath.Vec3
	MaintainOffset bool
}

// CreateAimConstraint はエイム拘束を作成し、即時評価結果を保存値へ反映する。
func (s *Scene) CreateAimConstraint(targetIndex, constrainedIndex int, options AimOptions) (*Constraint, error) {
	constrained, err := s.validateConstraintNodes([]int{targetIndex}, constrainedIndex)
	if err != nil {
		return nil, err
	}
	if options.WorldUpKind != WorldUpScene {
		if _, err := s.nodes.Get(options.WorldUpObject); err != nil {
			return nil, fmt.Errorf("ワールドアップオブジェクトの解決に失敗しました: %w", err)
		}
	}
	worldUpVector := options.WorldUpVector
	if worldUpVector.Length() == 0 {
		worldUpVector = mmath.UNIT_Y_VEC3
	}
	c := &Constraint{
		name:             s.nextConstraintName(constrained, "aimConstraint"),
		Kind:             AimConstraintKind,
		ConstrainedIndex: constrainedIndex,
		Targets:          []ConstraintTarget{{Index: targetIndex, Weight: 1.0}},
		MaintainOffset:   options.MaintainOffset,
		AimVector:        options.AimVector,
		UpVector:         options.UpVector,
		WorldUpKind:      options.WorldUpKind,
		WorldUpObject:    options.WorldUpObject,
		WorldUpVector:    worldUpVector,
	}
	if options.MaintainOffset {
		ctx := s.newEvalContext()
		aimRotation, err := s.aimWorldRotation(ctx, c)
		if err != nil {
			return nil, err
		}
		currentWorld, err := s.worldMatrixCtx(ctx, constrainedIndex)
		if err != nil {
			return nil, err
		}
		c.offsetRotation = aimRotation.Inverted().Muled(currentWorld.Quaternion())
	}
	s.appendConstraint(c)
	return c, nil
}

// appendConstraint は拘束を登録し、拘束対象のワールド行列を一度評価して
// 解決値を保存チャンネルへ書き戻す。
func (s *Scene) appendConstraint(c *Constraint) {
	s.constraints = append(s.constraints, c)
	if _, err := s.WorldMatrix(c.ConstrainedIndex); err != nil {
		logging.DefaultLogger().Warn("拘束の初回評価に失敗しました: %s: %v", c.Name(), err)
	}
}

// DeleteConstraint は拘束を削除する。拘束対象の保存値は最後の解決値のまま残る。
func (s *Scene) DeleteConstraint(target *Constraint) error {
	for i, c := range s.constraints {
		if c == target {
			s.constraints = append(s.constraints[:i], s.constraints[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("拘束が見つかりません: %s", target.Name())
}

// ---------------------------------------------------------------------------
// ドリブンキー

// drivenCurveFor は被駆動チャンネルへ接続されたカーブを返す。
func (s *Scene) drivenCurveFor(plug ChannelPlug) *DrivenCurve {
	for _, curve := range s.curves {
		if curve.Driven == plug {
			return curve
		}
	}
	return nil
}

// DrivenCurvesFor は指定ノードを被駆動側とするカーブ一覧を返す。
func (s *Scene) DrivenCurvesFor(index int) []*DrivenCurve {
	var result []*DrivenCurve
	for _, curve := range s.curves {
		if curve.Driven.NodeIndex == index {
			result = append(result, curve)
		}
	}
	return result
}

// SetDrivenKeyframe はドライバと被駆動チャンネルの現在値でキーを打つ。
// 同じペアのカーブが既にあればキーを追加し、なければカーブを作成する。
// 被駆動値は保存値をそのまま採る。値を書いてからキーを打つ運用を想定しており、
// 既存カーブの解決値で上書きサンプルしない。
func (s *Scene) SetDrivenKeyframe(drivenIndex int, drivenChannel Channel, driver ScalarSource) error {
	driven, err := s.nodes.Get(drivenIndex)
	if err != nil {
		return fmt.Errorf("ドリブンキーの設定に失敗しました: %w", err)
	}
	var driverValue float64
	if plug, isPlug := driver.(ChannelPlug); isPlug {
		driverNode, err := s.nodes.Get(plug.NodeIndex)
		if err != nil {
			return fmt.Errorf("ドリブンキーのドライバ評価に失敗しました: %s.%s: %w", driven.Name(), drivenChannel, err)
		}
		driverValue, err = driverNode.storedChannelValue(plug.Channel)
		if err != nil {
			return fmt.Errorf("ドリブンキーのドライバ評価に失敗しました: %s.%s: %w", driven.Name(), drivenChannel, err)
		}
	} else {
		driverValue, err = driver.Value(s.newEvalContext())
		if err != nil {
			return fmt.Errorf("ドリブンキーのドライバ評価に失敗しました: %s.%s: %w", driven.Name(), drivenChannel, err)
		}
	}
	drivenValue, err := driven.storedChannelValue(drivenChannel)
	if err != nil {
		return fmt.Errorf("ドリブンキーの被駆動評価に失敗しました: %s.%s: %w", driven.Name(), drivenChannel, err)
	}

	drivenPlug := ChannelPlug{NodeIndex: drivenIndex, Channel: drivenChannel}
	curve := s.drivenCurveFor(drivenPlug)
	if curve != nil && curve.Driver != driver {
		// 別ドライバで打ち直した場合は旧カーブを置き換える。
		s.removeDrivenCurve(curve)
		curve = nil
	}
	if curve == nil {
		curve = &DrivenCurve{
			name:   fmt.Sprintf("%s_%s", driven.ShortName(), drivenChannel),
			Driver: driver,
			Driven: drivenPlug,
		}
		s.curves = append(s.curves, curve)
	}
	curve.setKey(driverValue, drivenValue)
	return nil
}

// DeleteDrivenCurvesFor は指定ノードを被駆動側とするカーブを全て削除する。
func (s *Scene) DeleteDrivenCurvesFor(index int) {
	kept := s.curves[:0]
	for _, curve := range s.curves {
		if curve.Driven.NodeIndex == index {
			continue
		}
		kept = append(kept, curve)
	}
	s.curves = kept
}

func (s *Scene) removeDrivenCurve(target *DrivenCurve) {
	for i, curve := range s.curves {
		if curve == target {
			s.curves = append(s.curves[:i], s.curves[i+1:]...)
			return
		}
	}
}

// ---------------------------------------------------------------------------
// 評価

// worldMatrixCtx はワールド行列を評価し、解決した平行移動・回転を
// 保存チャンネルへ書き戻す。
func (s *Scene) worldMatrixCtx(ctx *evalContext, index int) (mmath.Mat4, error) {
	if index < 0 {
		return mmath.NewMat4(), nil
	}
	node, err := s.nodes.Get(index)
	if err != nil {
		return mmath.NewMat4(), err
	}
	if err := ctx.enter(index, "matrix"); err != nil {
		return mmath.NewMat4(), fmt.Errorf("ワールド行列の評価に失敗しました: %s: %w", node.Name(), err)
	}
	defer ctx.leave(index, "matrix")

	parentWorld, err := s.worldMatrixCtx(ctx, node.ParentIndex)
	if err != nil {
		return mmath.NewMat4(), err
	}

	translation, err := s.resolveNodeTranslation(ctx, index)
	if err != nil {
		return mmath.NewMat4(), err
	}

	var localRotation mmath.Quaternion
	if c := s.activeConstraint(index, OrientConstraintKind, AimConstraintKind); c != nil {
		worldRotation, err := s.constrainedWorldRotation(ctx, c)
		if err != nil {
			return mmath.NewMat4(), err
		}
		localRotation = parentWorld.Quaternion().Inverted().Muled(worldRotation)
	} else {
		rotation, err := s.resolveRotationChannels(ctx, index)
		if err != nil {
			return mmath.NewMat4(), err
		}
		orient := mmath.NewQuaternionFromDegrees(node.JointOrient.X, node.JointOrient.Y, node.JointOrient.Z)
		localRotation = orient.Muled(mmath.NewQuaternionFromDegrees(rotation.X, rotation.Y, rotation.Z))
	}

	scale, err := s.resolveScaleChannels(ctx, index)
	if err != nil {
		return mmath.NewMat4(), err
	}

	s.writeBackResolved(node, translation, localRotation)
	local := mmath.NewMat4FromTRS(translation, localRotation, scale)
	return parentWorld.Muled(local), nil
}

// writeBackResolved は解決済みローカル値を保存チャンネルへ反映する。
// ロックされたチャンネルは拘束出力でも上書きしない。
func (s *Scene) writeBackResolved(node *Node, translation mmath.Vec3, localRotation mmath.Quaternion) {
	translationValues := [3]float64{translation.X, translation.Y, translation.Z}
	for i, channel := range TranslateChannels {
		if !node.IsChannelLocked(channel) {
			node.setStoredChannelValue(channel, translationValues[i])
		}
	}
	orient := mmath.NewQuaternionFromDegrees(node.JointOrient.X, node.JointOrient.Y, node.JointOrient.Z)
	rotation := orient.Inverted().Muled(localRotation).ToDegrees()
	rotationValues := [3]float64{rotation.X, rotation.Y, rotation.Z}
	for i, channel := range RotateChannels {
		if !node.IsChannelLocked(channel) {
			node.setStoredChannelValue(channel, rotationValues[i])
		}
	}
}

// worldPositionCtx はワールド位置のみを評価する。
// 自ノードの回転は参照しないため、相互エイムでも循環しない。
func (s *Scene) worldPositionCtx(ctx *evalContext, index int) (mmath.Vec3, error) {
	if index < 0 {
		return mmath.Vec3{}, nil
	}
	node, err := s.nodes.Get(index)
	if err != nil {
		return mmath.Vec3{}, err
	}
	if err := ctx.enter(index, "position"); err != nil {
		return mmath.Vec3{}, fmt.Errorf("ワールド位置の評価に失敗しました: %s: %w", node.Name(), err)
	}
	defer ctx.leave(index, "position")

	parentWorld, err := s.worldMatrixCtx(ctx, node.ParentIndex)
	if err != nil {
		return mmath.Vec3{}, err
	}
	translation, err := s.resolveNodeTranslation(ctx, index)
	if err != nil {
		return mmath.Vec3{}, err
	}
	return parentWorld.MulVec3(translation), nil
}

// worldRotationOnlyCtx はワールド回転のみを評価する。親スケールは無視する。
func (s *Scene) worldRotationOnlyCtx(ctx *evalContext, index int) (mmath.Quaternion, error) {
	if index < 0 {
		return mmath.NewQuaternion(), nil
	}
	node, err := s.nodes.Get(index)
	if err != nil {
		return mmath.NewQuaternion(), err
	}
	if err := ctx.enter(index, "rotation"); err != nil {
		return mmath.NewQuaternion(), fmt.Errorf("ワールド回転の評価に失敗しました: %s: %w", node.Name(), err)
	}
	defer ctx.leave(index, "rotation")

	if c := s.activeConstraint(index, OrientConstraintKind, AimConstraintKind); c != nil {
		return s.constrainedWorldRotation(ctx, c)
	}
	parentRotation, err := s.worldRotationOnlyCtx(ctx, node.ParentIndex)
	if err != nil {
		return mmath.NewQuaternion(), err
	}
	rotation, err := s.resolveRotationChannels(ctx, index)
	if err != nil {
		return mmath.NewQuaternion(), err
	}
	orient := mmath.NewQuaternionFromDegrees(node.JointOrient.X, node.JointOrient.Y, node.JointOrient.Z)
	return parentRotation.Muled(orient).Muled(mmath.NewQuaternionFromDegrees(rotation.X, rotation.Y, rotation.Z)), nil
}

// resolveNodeTranslation はローカル平行移動を解決する。
// ポイント拘束が有効ならターゲット位置の重み付き平均を親ローカルへ変換して返す。
func (s *Scene) resolveNodeTranslation(ctx *evalContext, index int) (mmath.Vec3, error) {
	node, err := s.nodes.Get(index)
	if err != nil {
		return mmath.Vec3{}, err
	}
	c := s.activeConstraint(index, PointConstraintKind)
	if c == nil || c.weightSum() == 0 {
		var values [3]float64
		for i, channel := range TranslateChannels {
			values[i], err = s.resolveChannelScalar(ctx, index, channel)
			if err != nil {
				return mmath.Vec3{}, err
			}
		}
		return mmath.NewVec3(values[0], values[1], values[2]), nil
	}

	blended, err := s.blendedTargetPosition(ctx, c)
	if err != nil {
		return mmath.Vec3{}, err
	}
	parentWorld, err := s.worldMatrixCtx(ctx, node.ParentIndex)
	if err != nil {
		return mmath.Vec3{}, err
	}
	local := parentWorld.Inverted().MulVec3(blended)
	if c.MaintainOffset {
		local = local.Added(c.offsetTranslation)
	}
	return local, nil
}

// blendedTargetPosition はポイント拘束ターゲットの重み付き平均ワールド位置を返す。
func (s *Scene) blendedTargetPosition(ctx *evalContext, c *Constraint) (mmath.Vec3, error) {
	sum := mmath.Vec3{}
	weightSum := c.weightSum()
	if weightSum == 0 {
		return mmath.Vec3{}, fmt.Errorf("拘束の重み合計が0です: %s", c.Name())
	}
	for _, target := range c.Targets {
		position, err := s.worldPositionCtx(ctx, target.Index)
		if err != nil {
			return mmath.Vec3{}, fmt.Errorf("拘束ターゲットの評価に失敗しました: %s: %w", c.Name(), err)
		}
		sum = sum.Added(position.MuledScalar(target.Weight))
	}
	return sum.DivedScalar(weightSum), nil
}

// blendedTargetRotation はオリエント拘束ターゲットのワールド回転を
// 重みに応じて逐次slerpで合成する。
func (s *Scene) blendedTargetRotation(ctx *evalContext, c *Constraint) (mmath.Quaternion, error) {
	weightSum := 0.0
	blended := mmath.NewQuaternion()
	for _, target := range c.Targets {
		rotation, err := s.worldRotationOnlyCtx(ctx, target.Index)
		if err != nil {
			return mmath.NewQuaternion(), fmt.Errorf("拘束ターゲットの評価に失敗しました: %s: %w", c.Name(), err)
		}
		if target.Weight == 0 {
			continue
		}
		if weightSum == 0 {
			blended = rotation
			weightSum = target.Weight
			continue
		}
		weightSum += target.Weight
		blended = blended.Slerped(rotation, target.Weight/weightSum)
	}
	if weightSum == 0 {
		return mmath.NewQuaternion(), fmt.Errorf("拘束の重み合計が0です: %s", c.Name())
	}
	return blended, nil
}

// aimWorldRotation はエイム拘束のワールド回転を解決する。
func (s *Scene) aimWorldRotation(ctx *evalContext, c *Constraint) (mmath.Quaternion, error) {
	constrainedPosition, err := s.worldPositionCtx(ctx, c.ConstrainedIndex)
	if err != nil {
		return mmath.NewQuaternion(), fmt.Errorf("エイム拘束の評価に失敗しました: %s: %w", c.Name(), err)
	}
	targetPosition, err := s.worldPositionCtx(ctx, c.Targets[0].Index)
	if err != nil {
		return mmath.NewQuaternion(), fmt.Errorf("エイム拘束の評価に失敗しました: %s: %w", c.Name(), err)
	}
	forward := targetPosition.Subed(constrainedPosition)

	var worldUp mmath.Vec3
	switch c.WorldUpKind {
	case WorldUpObject:
		upPosition, err := s.worldPositionCtx(ctx, c.WorldUpObject)
		if err != nil {
			return mmath.NewQuaternion(), fmt.Errorf("エイム拘束のアップ評価に失敗しました: %s: %w", c.Name(), err)
		}
		worldUp = upPosition.Subed(constrainedPosition)
	case WorldUpObjectRotation:
		upRotation, err := s.worldRotationOnlyCtx(ctx, c.WorldUpObject)
		if err != nil {
			return mmath.NewQuaternion(), fmt.Errorf("エイム拘束のアップ評価に失敗しました: %s: %w", c.Name(), err)
		}
		worldUp = upRotation.MulVec3(c.WorldUpVector)
	default:
		worldUp = mmath.UNIT_Y_VEC3
	}
	return mmath.NewAimQuaternion(forward, worldUp, c.AimVector, c.UpVector), nil
}

// constrainedWorldRotation は回転拘束(オリエント・エイム)のワールド回転を返す。
func (s *Scene) constrainedWorldRotation(ctx *evalContext, c *Constraint) (mmath.Quaternion, error) {
	var worldRotation mmath.Quaternion
	var err error
	switch c.Kind {
	case AimConstraintKind:
		worldRotation, err = s.aimWorldRotation(ctx, c)
	default:
		worldRotation, err = s.blendedTargetRotation(ctx, c)
	}
	if err != nil {
		return mmath.NewQuaternion(), err
	}
	if c.MaintainOffset {
		worldRotation = worldRotation.Muled(c.offsetRotation)
	}
	return worldRotation, nil
}

// resolveRotationChannels は回転チャンネル(度)を拘束なし前提で解決する。
func (s *Scene) resolveRotationChannels(ctx *evalContext, index int) (mmath.Vec3, error) {
	var values [3]float64
	for i, channel := range RotateChannels {
		value, err := s.resolveChannelScalar(ctx, index, channel)
		if err != nil {
			return mmath.Vec3{}, err
		}
		values[i] = value
	}
	return mmath.NewVec3(values[0], values[1], values[2]), nil
}

// resolveScaleChannels はスケールチャンネルを解決する。
func (s *Scene) resolveScaleChannels(ctx *evalContext, index int) (mmath.Vec3, error) {
	var values [3]float64
	for i, channel := range ScaleChannels {
		value, err := s.resolveChannelScalar(ctx, index, channel)
		if err != nil {
			return mmath.Vec3{}, err
		}
		values[i] = value
	}
	return mmath.NewVec3(values[0], values[1], values[2]), nil
}

// resolveChannelValue はチャンネル値を拘束込みで解決する。
func (s *Scene) resolveChannelValue(ctx *evalContext, index int, channel Channel) (float64, error) {
	node, err := s.nodes.Get(index)
	if err != nil {
		return 0, err
	}
	if isTranslateChannel(channel) {
		if c := s.activeConstraint(index, PointConstraintKind); c != nil && c.weightSum() != 0 {
			translation, err := s.resolveNodeTranslation(ctx, index)
			if err != nil {
				return 0, err
			}
			switch channel {
			case ChannelTranslateX:
				return translation.X, nil
			case ChannelTranslateY:
				return translation.Y, nil
			default:
				return translation.Z, nil
			}
		}
	}
	if isRotateChannel(channel) {
		if c := s.activeConstraint(index, OrientConstraintKind, AimConstraintKind); c != nil {
			worldRotation, err := s.constrainedWorldRotation(ctx, c)
			if err != nil {
				return 0, err
			}
			parentRotation, err := s.worldRotationOnlyCtx(ctx, node.ParentIndex)
			if err != nil {
				return 0, err
			}
			orient := mmath.NewQuaternionFromDegrees(node.JointOrient.X, node.JointOrient.Y, node.JointOrient.Z)
			rotation := orient.Inverted().Muled(parentRotation.Inverted()).Muled(worldRotation).ToDegrees()
			switch channel {
			case ChannelRotateX:
				return rotation.X, nil
			case ChannelRotateY:
				return rotation.Y, nil
			default:
				return rotation.Z, nil
			}
		}
	}
	return s.resolveChannelScalar(ctx, index, channel)
}

// resolveChannelScalar は接続・ドリブンキー・保存値の優先順でチャンネル値を解決する。
func (s *Scene) resolveChannelScalar(ctx *evalContext, index int, channel Channel) (float64, error) {
	node, err := s.nodes.Get(index)
	if err != nil {
		return 0, err
	}
	aspect := "channel:" + string(channel)
	if err := ctx.enter(index, aspect); err != nil {
		return 0, fmt.Errorf("チャンネル評価が循環しています: %s.%s", node.Name(), channel)
	}
	defer ctx.leave(index, aspect)

	plug := ChannelPlug{NodeIndex: index, Channel: channel}
	if source, connected := s.connections[plug]; connected {
		value, err := source.Value(ctx)
		if err != nil {
			return 0, fmt.Errorf("接続チャンネルの評価に失敗しました: %s.%s: %w", node.Name(), channel, err)
		}
		if !node.IsChannelLocked(channel) {
			node.setStoredChannelValue(channel, value)
		}
		return value, nil
	}
	if curve := s.drivenCurveFor(plug); curve != nil {
		driverValue, err := curve.Driver.Value(ctx)
		if err != nil {
			return 0, fmt.Errorf("ドリブンキーのドライバ評価に失敗しました: %s: %w", curve.Name(), err)
		}
		value, err := curve.Evaluate(driverValue)
		if err != nil {
			return 0, err
		}
		if !node.IsChannelLocked(channel) {
			node.setStoredChannelValue(channel, value)
		}
		return value, nil
	}
	return node.storedChannelValue(channel)
}

func isTranslateChannel(channel Channel) bool {
	return strings.HasPrefix(string(channel), "translate")
}

func isRotateChannel(channel Channel) bool {
	return strings.HasPrefix(string(channel), "rotate")
}
