// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
	"github.com/miu200521358/mu_musclerig/pkg/shared/base/logging"
)

// AvgPushOptions は補正ジョイント作成のパラメータ。
type AvgPushOptions struct {
	// Weight は対象ジョイントの回転をAvgへ継承する比率。
	Weight float64
	// DriverAxis は押し出しを駆動する回転軸("x"/"y"/"z")。
	DriverAxis string
	// DistanceAxis は押し出し方向の平行移動軸("x"/"y"/"z")。
	DistanceAxis string
	// リマップの入出力域。入力は回転角(度)、出力は移動量。
	InputMin  float64
	InputMax  float64
	OutputMin float64
	OutputMax float64
	// CreatePush が偽のときはAvgジョイントのみ作る。
	CreatePush bool
}

// DefaultAvgPushOptions は指先向けの既定値を返す。
func DefaultAvgPushOptions() AvgPushOptions {
	return AvgPushOptions{
		Weight:       0.5,
		DriverAxis:   "z",
		DistanceAxis: "y",
		InputMin:     0.0,
		InputMax:     90.0,
		OutputMin:    0.0,
		OutputMax:    5.0,
		CreatePush:   true,
	}
}

// AvgPushResult は作成した補正ジョイントと接続ノードの一覧。
type AvgPushResult struct {
	AvgIndex   int
	PushIndex  int
	WeightNode *model.MultiplyNode
	RemapNode  *model.RemapNode
	InvertNode *model.MultiplyNode
}

// axisChannelIndex は軸名をチャンネル配列の添字へ変換する。
func axisChannelIndex(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return 0, nil
	case "y", "Y":
		return 1, nil
	case "z", "Z":
		return 2, nil
	default:
		return -1, fmt.Errorf("軸指定が不正です: %s (x/y/z のいずれかを指定してください)", axis)
	}
}

// ensureJoint は同名ノードがあればそれを、無ければ新規ジョイントを返す。
func ensureJoint(scene *model.Scene, name string) (*model.Node, error) {
	if scene.Exists(name) {
		return scene.Resolve(name)
	}
	return scene.CreateNode(model.KindJoint, name)
}

// unlockTransformChannels はt/r/sの全チャンネルのロックを外す。
func unlockTransformChannels(node *model.Node) {
	for index := 0; index < 3; index++ {
		node.UnlockChannel(model.TranslateChannels[index])
		node.UnlockChannel(model.RotateChannels[index])
		node.UnlockChannel(model.ScaleChannels[index])
	}
}

// CreateAvgPushJoint は対象ジョイントにAvg/Push補正ジョイントを組む。
// Avgは対象の親の下で対象回転のWeight倍を継承し、Pushはその下で
// Avgの回転角をリマップした距離だけ押し出される。右側ジョイントは
// 押し出し方向を反転する。肘・膝もこのまま使える(軸と域を変えるだけ)。
func CreateAvgPushJoint(scene *model.Scene, targetIndex int, options AvgPushOptions) (*AvgPushResult, error) {
	driverAxisIndex, err := axisChannelIndex(options.DriverAxis)
	if err != nil {
		return nil, err
	}
	distanceAxisIndex, err := axisChannelIndex(options.DistanceAxis)
	if err != nil {
		return nil, err
	}

	target, err := scene.Node(targetIndex)
	if err != nil {
		return nil, fmt.Errorf("補正ジョイントの構築に失敗しました: %w", err)
	}
	if target.ParentIndex < 0 {
		return nil, fmt.Errorf("親ジョイントが無いためAvgジョイントを作れません: %s", target.Name())
	}

	baseName := model.AvgPushBaseName(target.Name())
	avgName := baseName + "Avg"
	pushName := baseName + "Push"

	avg, err := ensureJoint(scene, avgName)
	if err != nil {
		return nil, fmt.Errorf("Avgジョイントの作成に失敗しました: %w", err)
	}
	if err := scene.Parent(avg.Index(), target.ParentIndex); err != nil {
		return nil, err
	}
	unlockTransformChannels(avg)
	if err := scene.MatchTransform(avg.Index(), targetIndex, true, true); err != nil {
		return nil, err
	}
	avg.Radius = 0.5

	// 対象のジョイント方向を写してから回転をゼロに戻す。
	avg.UnlockChannel(model.ChannelJointOrientX)
	avg.UnlockChannel(model.ChannelJointOrientY)
	avg.UnlockChannel(model.ChannelJointOrientZ)
	avg.JointOrient = target.JointOrient
	for index := 0; index < 3; index++ {
		if err := scene.SetChannelValue(avg.Index(), model.RotateChannels[index], 0); err != nil {
			return nil, err
		}
	}

	driverRotateChannel := model.RotateChannels[driverAxisIndex]
	weightNode := model.NewMultiplyNode(
		fmt.Sprintf("%s_weight_%s_mdl", avgName, options.DriverAxis),
		model.ChannelPlug{NodeIndex: targetIndex, Channel: driverRotateChannel},
		options.Weight)
	if err := scene.ConnectChannel(weightNode, avg.Index(), driverRotateChannel); err != nil {
		return nil, fmt.Errorf("Avgジョイントの接続に失敗しました: %w", err)
	}

	result := &AvgPushResult{AvgIndex: avg.Index(), PushIndex: -1, WeightNode: weightNode}
	if !options.CreatePush {
		return result, nil
	}

	push, err := ensureJoint(scene, pushName)
	if err != nil {
		return nil, fmt.Errorf("Pushジョイントの作成に失敗しました: %w", err)
	}
	if err := scene.Parent(push.Index(), avg.Index()); err != nil {
		return nil, err
	}
	unlockTransformChannels(push)
	if err := scene.MatchTransform(push.Index(), targetIndex, true, true); err != nil {
		return nil, err
	}
	push.Radius = 0.5

	push.UnlockChannel(model.ChannelJointOrientX)
	push.UnlockChannel(model.ChannelJointOrientY)
	push.UnlockChannel(model.ChannelJointOrientZ)
	push.JointOrient = avg.JointOrient
	for index := 0; index < 3; index++ {
		if err := scene.SetChannelValue(push.Index(), model.TranslateChannels[index], 0); err != nil {
			return nil, err
		}
		if err := scene.SetChannelValue(push.Index(), model.RotateChannels[index], 0); err != nil {
			return nil, err
		}
	}

	pushTranslateChannel := model.TranslateChannels[distanceAxisIndex]
	remapNode := model.NewRemapNode(
		fmt.Sprintf("%s_r%s_to_%s_t%s_rmp", avgName, options.DriverAxis, pushName, options.DistanceAxis),
		model.ChannelPlug{NodeIndex: avg.Index(), Channel: driverRotateChannel},
		options.InputMin, options.InputMax, options.OutputMin, options.OutputMax)
	result.RemapNode = remapNode

	var pushSource model.ScalarSource = remapNode
	if model.IsRightSide(target.Name()) {
		// 右側は押し出し方向を反転する。
		invertNode := model.NewMultiplyNode(
			fmt.Sprintf("%s_t%s_invert_mdl", pushName, options.DistanceAxis),
			remapNode, -1.0)
		result.InvertNode = invertNode
		pushSource = invertNode
	}
	if err := scene.ConnectChannel(pushSource, push.Index(), pushTranslateChannel); err != nil {
		return nil, fmt.Errorf("Pushジョイントの接続に失敗しました: %w", err)
	}

	result.PushIndex = push.Index()
	return result, nil
}

// BatchAvgPushOptions は一括作成のパラメータ。
type BatchAvgPushOptions struct {
	// Side は"Left"/"Right"/"Both"のいずれか。
	Side string
	// Fingers は対象の指名。空のとき全指。
	Fingers []string
	// IncludeLimbs が真のとき肘・膝も対象に含める。
	IncludeLimbs bool
	// Joint はジョイントごとの作成パラメータ。
	Joint AvgPushOptions
}

// DefaultFingerNames は既定の指名一覧を返す。
func DefaultFingerNames() []string {
	return []string{"Thumb", "Index", "Middle", "Ring", "Pinky"}
}

// BatchCreateAvgPush は指全節と任意で肘・膝へAvg/Push補正ジョイントを
// 一括作成する。存在しないジョイントは読み飛ばし、失敗しても続行して
// 最後に成否件数を報告する。
func BatchCreateAvgPush(scene *model.Scene, options BatchAvgPushOptions) (map[string]*AvgPushResult, error) {
	var sides []string
	switch options.Side {
	case "Both":
		sides = []string{"Left", "Right"}
	case "Left", "Right":
		sides = []string{options.Side}
	default:
		return nil, fmt.Errorf("サイド指定が不正です: %s (Left/Right/Both のいずれかを指定してください)", options.Side)
	}
	fingers := options.Fingers
	if len(fingers) == 0 {
		fingers = DefaultFingerNames()
	}
	digits := []string{"Base", "Mid", "Tip"}
	log := logging.DefaultLogger()

	created := make(map[string]*AvgPushResult)
	successCount, failCount := 0, 0
	process := func(jointName string) {
		if !scene.Exists(jointName) {
			log.Debug("ジョイントが存在しません: %s", jointName)
			scene.AddWarning(model.RigWarningJointMissing)
			return
		}
		joint, err := scene.Resolve(jointName)
		if err != nil {
			log.Warn("補正ジョイントの作成に失敗しました: %s: %v", jointName, err)
			scene.AddWarning(model.RigWarningCorrectiveBuildFailed)
			failCount++
			return
		}
		result, err := CreateAvgPushJoint(scene, joint.Index(), options.Joint)
		if err != nil {
			log.Warn("補正ジョイントの作成に失敗しました: %s: %v", jointName, err)
			scene.AddWarning(model.RigWarningCorrectiveBuildFailed)
			failCount++
			return
		}
		created[jointName] = result
		log.Info("補正ジョイントを作成しました: %s", jointName)
		successCount++
	}

	for _, side := range sides {
		for _, finger := range fingers {
			for _, digit := range digits {
				process(fmt.Sprintf("%s%s%s%s1", model.JointNamePrefix, side, finger, digit))
			}
		}
		if options.IncludeLimbs {
			process(fmt.Sprintf("%s%sElbow1", model.JointNamePrefix, side))
			process(fmt.Sprintf("%s%sKnee1", model.JointNamePrefix, side))
		}
	}

	log.Info("一括作成が完了しました: 成功 %d 件, 失敗 %d 件", successCount, failCount)
	return created, nil
}
