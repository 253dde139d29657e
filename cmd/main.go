// 指示: miu200521358
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/miu200521358/mu_musclerig/pkg/adapter/io_rig"
	"github.com/miu200521358/mu_musclerig/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
	"github.com/miu200521358/mu_musclerig/pkg/infra/base/mfile"
	"github.com/miu200521358/mu_musclerig/pkg/infra/base/mlogging"
	"github.com/miu200521358/mu_musclerig/pkg/shared/base/logging"
)

// options はCLI引数を保持する。
type options struct {
	inputPath         string
	outputPath        string
	blueprintOnly     bool
	compressionFactor float64
	stretchFactor     float64
}

// main は筋肉レイアウトの取り込みと書き出しを実行する。
func main() {
	logger := mlogging.NewZapLogger()
	logging.SetDefaultLogger(logger)
	defer logger.Sync()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run はCLI処理全体を実行する。
func run(args []string, out io.Writer, errOut io.Writer) error {
	opts, err := parseOptions(args, errOut)
	if err != nil {
		return err
	}

	reader := mfile.NewFileReader()
	writer := mfile.NewFileWriter()
	scene := model.NewScene()

	fmt.Fprintf(out, "[mu_musclerig] 読み込み開始: %s\n", opts.inputPath)
	layout, err := io_rig.LoadMuscleLayout(reader, opts.inputPath)
	if err != nil {
		return err
	}

	buildOptions := io_rig.DefaultBuildOptions()
	buildOptions.CompressionFactor = opts.compressionFactor
	buildOptions.StretchFactor = opts.stretchFactor
	groups, err := io_rig.ImportMuscleLayout(scene, layout, opts.blueprintOnly, buildOptions)
	if err != nil {
		return err
	}
	if opts.blueprintOnly {
		fmt.Fprintf(out, "[mu_musclerig] ブループリント生成完了\n")
	} else {
		fmt.Fprintf(out, "[mu_musclerig] 筋肉グループ構築完了: %d 件\n", len(groups))
	}

	if opts.outputPath != "" {
		fmt.Fprintf(out, "[mu_musclerig] 保存開始: %s\n", opts.outputPath)
		if err := io_rig.SaveMuscleLayout(writer, opts.outputPath, io_rig.ExportMuscleLayout(scene)); err != nil {
			return err
		}
		fmt.Fprintf(out, "[mu_musclerig] 保存完了: %s\n", opts.outputPath)
	}

	printWarningSummary(out, scene)
	return nil
}

// printWarningSummary はシーンに記録された警告をID順で表示する。
func printWarningSummary(out io.Writer, scene *model.Scene) {
	counts := scene.WarningCounts()
	if len(counts) == 0 {
		return
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(out, "[mu_musclerig] %s:\n", messages.WarningSummaryTitle)
	for _, id := range ids {
		fmt.Fprintf(out, "  - %s: %d 件\n", messages.Describe(id), counts[id])
	}
}

// parseOptions はCLI引数を解析する。
func parseOptions(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("mu_musclerig", flag.ContinueOnError)
	fs.SetOutput(errOut)

	input := fs.String("input", "", "入力筋肉レイアウトJSONファイルパス")
	output := fs.String("output", "", "出力筋肉レイアウトJSONファイルパス")
	blueprintOnly := fs.Bool("bp", false, "ブループリントジョイントのみを生成する")
	compression := fs.Float64("compression", 0.5, "筋肉の収縮係数")
	stretch := fs.Float64("stretch", 1.5, "筋肉の伸長係数")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if *input == "" && fs.NArg() > 0 {
		*input = fs.Arg(0)
	}
	if *input == "" {
		return options{}, fmt.Errorf("入力筋肉レイアウトJSONを指定してください (-input)")
	}
	if !strings.EqualFold(filepath.Ext(*input), ".json") {
		return options{}, fmt.Errorf("入力拡張子が .json ではありません: %s", *input)
	}
	if *output != "" && !strings.EqualFold(filepath.Ext(*output), ".json") {
		return options{}, fmt.Errorf("出力拡張子が .json ではありません: %s", *output)
	}
	if *compression <= 0 || *stretch <= 0 {
		return options{}, fmt.Errorf("収縮係数と伸長係数は正の値を指定してください")
	}

	return options{
		inputPath:         *input,
		outputPath:        *output,
		blueprintOnly:     *blueprintOnly,
		compressionFactor: *compression,
		stretchFactor:     *stretch,
	}, nil
}
