// 指示: miu200521358
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/miu200521358/mu_musclerig/pkg/adapter/io_rig"
	"github.com/miu200521358/mu_musclerig/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_musclerig/pkg/domain/model"
	"github.com/miu200521358/mu_musclerig/pkg/infra/base/mfile"
)

const (
	batchOutputDirMode = 0o755
)

var targetLayoutPaths = []string{
	"E:/MMD_E/202101_vroid/Rig/layouts/akami_muscles.json",
	// "E:/MMD_E/202101_vroid/Rig/layouts/ricos_muscles.json",
	// "E:/MMD_E/202101_vroid/Rig/layouts/yelena_muscles.json",
}

// batchConfig はバッチ構築の実行設定を表す。
type batchConfig struct {
	OutputRoot string
	DryRun     bool
	FailFast   bool
}

// buildEntry は1レイアウト分の構築入力情報を表す。
type buildEntry struct {
	Index      int
	SourcePath string
	LayoutName string
	CaseDir    string
	OutputPath string
}

// buildResult は1レイアウト分の構築結果を表す。
type buildResult struct {
	Entry       buildEntry
	Status      string
	Duration    time.Duration
	Err         error
	GroupCount  int
	WarningInfo string
}

// main は筋肉レイアウトの一括リグ構築を実行する。
func main() {
	os.Exit(run())
}

// run は実行設定を解決して一括構築を実行し、終了コードを返す。
func run() int {
	config, err := parseBatchConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	entries := buildBatchEntries(config.OutputRoot, targetLayoutPaths)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "構築対象レイアウトがありません")
		return 2
	}

	results := executeBatchBuild(config, entries)
	printBatchSummary(results)

	hasFailed := false
	for _, result := range results {
		if result.Status == "failed" {
			hasFailed = true
			break
		}
	}
	if hasFailed {
		return 1
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig() (batchConfig, error) {
	defaultOutputRoot, err := resolveDefaultOutputRoot()
	if err != nil {
		return batchConfig{}, err
	}
	outputRoot := flag.String("output-root", defaultOutputRoot, "構築結果の出力ルートディレクトリ")
	dryRun := flag.Bool("dry-run", false, "実構築せず、入力解決と出力先計画のみ表示する")
	failFast := flag.Bool("fail-fast", false, "失敗時に即時終了する")
	flag.Parse()

	trimmedOutputRoot := strings.TrimSpace(*outputRoot)
	if trimmedOutputRoot == "" {
		return batchConfig{}, errors.New("output-root が空です")
	}
	return batchConfig{
		OutputRoot: filepath.Clean(trimmedOutputRoot),
		DryRun:     *dryRun,
		FailFast:   *failFast,
	}, nil
}

// resolveDefaultOutputRoot はスクリプト配置ディレクトリ基準の既定出力先を返す。
func resolveDefaultOutputRoot() (string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("実行ファイル位置を取得できません")
	}
	currentDir := filepath.Dir(currentFilePath)
	return filepath.Join(currentDir, "output"), nil
}

// buildBatchEntries は入力パス一覧から構築対象エントリを生成する。
func buildBatchEntries(outputRoot string, inputPaths []string) []buildEntry {
	entries := make([]buildEntry, 0, len(inputPaths))
	for i, rawPath := range inputPaths {
		resolvedInputPath := normalizeInputPath(rawPath)
		layoutName := resolveLayoutName(rawPath)
		safeLayoutName := sanitizePathComponent(layoutName)
		caseDirName := fmt.Sprintf("%03d_%s", i+1, safeLayoutName)
		caseDir := filepath.Join(outputRoot, caseDirName)
		outputPath := filepath.Join(caseDir, safeLayoutName+"_rebuilt.json")
		entries = append(entries, buildEntry{
			Index:      i + 1,
			SourcePath: resolvedInputPath,
			LayoutName: layoutName,
			CaseDir:    caseDir,
			OutputPath: outputPath,
		})
	}
	return entries
}

// executeBatchBuild は全レイアウトの構築処理を順次実行する。
func executeBatchBuild(config batchConfig, entries []buildEntry) []buildResult {
	results := make([]buildResult, 0, len(entries))
	reader := mfile.NewFileReader()
	writer := mfile.NewFileWriter()

	total := len(entries)
	for _, entry := range entries {
		fmt.Printf("[%d/%d] 構築開始: layout=%s\n", entry.Index, total, entry.LayoutName)
		result := buildLayoutEntry(reader, writer, config, entry)
		results = append(results, result)
		switch result.Status {
		case "succeeded":
			fmt.Printf("[%d/%d] 構築成功: layout=%s groups=%d output=%s elapsed=%s\n",
				entry.Index, total, entry.LayoutName, result.GroupCount, entry.OutputPath, result.Duration.Round(time.Millisecond))
			if strings.TrimSpace(result.WarningInfo) != "" {
				fmt.Printf("[%d/%d] 構築警告: %s\n", entry.Index, total, result.WarningInfo)
			}
		case "dry_run":
			fmt.Printf("[%d/%d] DRY-RUN: layout=%s input=%s output=%s\n", entry.Index, total, entry.LayoutName, entry.SourcePath, entry.OutputPath)
		case "skipped_missing":
			fmt.Printf("[%d/%d] 入力不足でスキップ: layout=%s input=%s reason=%v\n", entry.Index, total, entry.LayoutName, entry.SourcePath, result.Err)
		default:
			fmt.Printf("[%d/%d] 構築失敗: layout=%s reason=%v\n", entry.Index, total, entry.LayoutName, result.Err)
			if config.FailFast {
				return results
			}
		}
	}
	return results
}

// buildLayoutEntry は1レイアウト分の構築と書き戻しを実行する。
func buildLayoutEntry(reader *mfile.FileReader, writer *mfile.FileWriter, config batchConfig, entry buildEntry) buildResult {
	result := buildResult{
		Entry:  entry,
		Status: "failed",
	}
	if _, err := os.Stat(entry.SourcePath); err != nil {
		result.Status = "skipped_missing"
		result.Err = err
		return result
	}
	if config.DryRun {
		result.Status = "dry_run"
		return result
	}
	if err := os.MkdirAll(entry.CaseDir, batchOutputDirMode); err != nil {
		result.Err = fmt.Errorf("出力ディレクトリ作成に失敗しました: %w", err)
		return result
	}

	startedAt := time.Now()
	layout, err := io_rig.LoadMuscleLayout(reader, entry.SourcePath)
	if err != nil {
		result.Err = fmt.Errorf("レイアウト読み込みに失敗しました: %w", err)
		return result
	}
	scene := model.NewScene()
	groups, err := io_rig.ImportMuscleLayout(scene, layout, false, io_rig.DefaultBuildOptions())
	if err != nil {
		result.Err = fmt.Errorf("筋肉グループ構築に失敗しました: %w", err)
		return result
	}
	if len(groups) == 0 {
		result.Err = errors.New("構築された筋肉グループがありません")
		return result
	}
	if err := io_rig.SaveMuscleLayout(writer, entry.OutputPath, io_rig.ExportMuscleLayout(scene)); err != nil {
		result.Err = fmt.Errorf("レイアウト書き戻しに失敗しました: %w", err)
		return result
	}

	result.Status = "succeeded"
	result.Duration = time.Since(startedAt)
	result.GroupCount = len(groups)
	result.WarningInfo = summarizeWarnings(scene)
	return result
}

// summarizeWarnings はシーンに記録された警告をID順の要約文字列にする。
func summarizeWarnings(scene *model.Scene) string {
	counts := scene.WarningCounts()
	if len(counts) == 0 {
		return ""
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s=%d", messages.Describe(id), counts[id]))
	}
	return strings.Join(parts, ", ")
}

// printBatchSummary は構築結果の集計を標準出力へ表示する。
func printBatchSummary(results []buildResult) {
	succeeded := 0
	failed := 0
	skipped := 0
	dryRun := 0
	for _, result := range results {
		switch result.Status {
		case "succeeded":
			succeeded++
		case "dry_run":
			dryRun++
		case "skipped_missing":
			skipped++
		default:
			failed++
		}
	}
	fmt.Printf(
		"バッチ構築サマリ: total=%d succeeded=%d failed=%d skipped_missing=%d dry_run=%d\n",
		len(results),
		succeeded,
		failed,
		skipped,
		dryRun,
	)
}

// resolveLayoutName は入力パスから拡張子を除いたレイアウト名を返す。
func resolveLayoutName(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	ext := filepath.Ext(base)
	name := strings.TrimSpace(strings.TrimSuffix(base, ext))
	if name == "" {
		return "layout"
	}
	return name
}

// normalizeInputPath は入力パスを実行環境向けに正規化する。
func normalizeInputPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return filepath.Clean(convertWindowsPathToWsl(path))
}

// convertWindowsPathToWsl は Linux 実行時に Windows パスを WSL パスへ変換する。
func convertWindowsPathToWsl(path string) string {
	trimmed := strings.TrimSpace(path)
	if runtime.GOOS != "linux" {
		return trimmed
	}
	if len(trimmed) < 2 || trimmed[1] != ':' {
		return trimmed
	}
	drive := strings.ToLower(trimmed[:1])
	rest := strings.ReplaceAll(trimmed[2:], "\\", "/")
	if rest == "" {
		return filepath.ToSlash(filepath.Join("/mnt", drive))
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return filepath.ToSlash(filepath.Join("/mnt", drive) + rest)
}

// sanitizePathComponent は出力ディレクトリ/ファイル名に使えない文字を置換する。
func sanitizePathComponent(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "layout"
	}
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		default:
			if r < 0x20 {
				return '_'
			}
			return r
		}
	}, trimmed)
	replaced = strings.Trim(replaced, " .")
	if replaced == "" {
		return "layout"
	}
	return replaced
}
