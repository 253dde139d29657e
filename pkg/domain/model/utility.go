// 指示: miu200521358
package model

import (
	"fmt"

	"github.com/miu200521358/mu_musclerig/pkg/domain/mmath"
)

// ScalarSource はチャンネルへ接続できるスカラー値の供給元である。
// 値は評価のたびに現在のシーン状態から引き直す。
type ScalarSource interface {
	Value(ctx *evalContext) (float64, error)
}

// ChannelPlug はノードチャンネルを参照するスカラー供給元である。
type ChannelPlug struct {
	NodeIndex int
	Channel   Channel
}

// Value は参照チャンネルの解決済み値を返す。
func (p ChannelPlug) Value(ctx *evalContext) (float64, error) {
	return ctx.scene.resolveChannelValue(ctx, p.NodeIndex, p.Channel)
}

// MultiplyNode はスカラー乗算ノード(multDoubleLinear相当)である。
type MultiplyNode struct {
	name   string
	Input1 ScalarSource
	Input2 float64
}

// NewMultiplyNode は乗算ノードを生成する。
func NewMultiplyNode(name string, input ScalarSource, factor float64) *MultiplyNode {
	return &MultiplyNode{name: name, Input1: input, Input2: factor}
}

// Name はノード名を返す。
func (m *MultiplyNode) Name() string {
	return m.name
}

// Value は input1 * input2 を返す。
func (m *MultiplyNode) Value(ctx *evalContext) (float64, error) {
	input, err := m.Input1.Value(ctx)
	if err != nil {
		return 0, fmt.Errorf("乗算ノードの入力評価に失敗しました: %s: %w", m.name, err)
	}
	return input * m.Input2, nil
}

// RemapNode は区間線形リマップノード(remapValue相当)である。
// 入力域外は出力端値へクランプする。
type RemapNode struct {
	name      string
	Input     ScalarSource
	InputMin  float64
	InputMax  float64
	OutputMin float64
	OutputMax float64
}

// NewRemapNode はリマップノードを生成する。
func NewRemapNode(name string, input ScalarSource, inputMin, inputMax, outputMin, outputMax float64) *RemapNode {
	return &RemapNode{
		name:      name,
		Input:     input,
		InputMin:  inputMin,
		InputMax:  inputMax,
		OutputMin: outputMin,
		OutputMax: outputMax,
	}
}

// Name はノード名を返す。
func (r *RemapNode) Name() string {
	return r.name
}

// Value はクランプ付き線形リマップ結果を返す。
func (r *RemapNode) Value(ctx *evalContext) (float64, error) {
	input, err := r.Input.Value(ctx)
	if err != nil {
		return 0, fmt.Errorf("リマップノードの入力評価に失敗しました: %s: %w", r.name, err)
	}
	return mmath.Remapped(input, r.InputMin, r.InputMax, r.OutputMin, r.OutputMax), nil
}

// DotProductNode はマーカーの参照ノード空間位置とエンドノードの
// ローカル平行移動との内積を出力する(vectorProduct相当)。
type DotProductNode struct {
	name            string
	MarkerIndex     int
	ReferenceIndex  int
	EndIndex        int
	NormalizeOutput bool
}

// NewDotProductNode は内積ノードを生成する。
func NewDotProductNode(name string, markerIndex, referenceIndex, endIndex int, normalize bool) *DotProductNode {
	return &DotProductNode{
		name:            name,
		MarkerIndex:     markerIndex,
		ReferenceIndex:  referenceIndex,
		EndIndex:        endIndex,
		NormalizeOutput: normalize,
	}
}

// Name はノード名を返す。
func (d *DotProductNode) Name() string {
	return d.name
}

// Value は dot(参照空間でのマーカー位置, エンドのローカル平行移動) を返す。
func (d *DotProductNode) Value(ctx *evalContext) (float64, error) {
	markerWorld, err := ctx.scene.worldMatrixCtx(ctx, d.MarkerIndex)
	if err != nil {
		return 0, fmt.Errorf("内積ノードのマーカー評価に失敗しました: %s: %w", d.name, err)
	}
	referenceWorld, err := ctx.scene.worldMatrixCtx(ctx, d.ReferenceIndex)
	if err != nil {
		return 0, fmt.Errorf("内積ノードの参照評価に失敗しました: %s: %w", d.name, err)
	}
	input1 := referenceWorld.Inverted().Muled(markerWorld).Translation()

	end, err := ctx.scene.nodes.Get(d.EndIndex)
	if err != nil {
		return 0, fmt.Errorf("内積ノードのエンド評価に失敗しました: %s: %w", d.name, err)
	}
	input2 := end.Translation

	if d.NormalizeOutput {
		input1 = input1.Normalized()
		input2 = input2.Normalized()
	}
	return input1.Dot(input2), nil
}
