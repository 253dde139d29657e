// 指示: miu200521358
package model

import (
	"fmt"
	"math"
	"sort"
)

// DrivenKey はドライバ値と被駆動値の1キーを表す。
type DrivenKey struct {
	Driver float64
	Value  float64
}

// DrivenCurve はドライバチャンネル値で被駆動チャンネルを引く
// 区間線形ルックアップカーブ(ドリブンキー)である。
// タンジェントは線形固定、キー範囲外は端値で一定とする。
type DrivenCurve struct {
	name   string
	Driver ScalarSource
	Driven ChannelPlug
	Keys   []DrivenKey
}

// Name はカーブ名を返す。
func (c *DrivenCurve) Name() string {
	return c.name
}

// setKey は同一ドライバ値のキーを置換、なければ挿入してソートを保つ。
func (c *DrivenCurve) setKey(driver, value float64) {
	const sameKeyEpsilon = 1e-9
	for i := range c.Keys {
		if math.Abs(c.Keys[i].Driver-driver) <= sameKeyEpsilon {
			c.Keys[i].Value = value
			return
		}
	}
	c.Keys = append(c.Keys, DrivenKey{Driver: driver, Value: value})
	sort.Slice(c.Keys, func(i, j int) bool {
		return c.Keys[i].Driver < c.Keys[j].Driver
	})
}

// Evaluate はドライバ値に対する被駆動値を返す。
func (c *DrivenCurve) Evaluate(driver float64) (float64, error) {
	if len(c.Keys) == 0 {
		return 0, fmt.Errorf("キーの無いドリブンカーブは評価できません: %s", c.name)
	}
	if driver <= c.Keys[0].Driver {
		return c.Keys[0].Value, nil
	}
	last := len(c.Keys) - 1
	if driver >= c.Keys[last].Driver {
		return c.Keys[last].Value, nil
	}
	for i := 0; i < last; i++ {
		left, right := c.Keys[i], c.Keys[i+1]
		if driver < left.Driver || driver > right.Driver {
			continue
		}
		span := right.Driver - left.Driver
		if span == 0 {
			return left.Value, nil
		}
		t := (driver - left.Driver) / span
		return left.Value + (right.Value-left.Value)*t, nil
	}
	return c.Keys[last].Value, nil
}
