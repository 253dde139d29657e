// 指示: miu200521358
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOptionsWithFlags(t *testing.T) {
	errBuf := bytes.NewBuffer(nil)
	opts, err := parseOptions([]string{"-input", "muscles.json", "-output", "out.json", "-bp"}, errBuf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if opts.inputPath != "muscles.json" {
		t.Fatalf("inputPath mismatch: %s", opts.inputPath)
	}
	if opts.outputPath != "out.json" {
		t.Fatalf("outputPath mismatch: %s", opts.outputPath)
	}
	if !opts.blueprintOnly {
		t.Fatalf("blueprintOnly should be set")
	}
	if opts.compressionFactor != 0.5 || opts.stretchFactor != 1.5 {
		t.Fatalf("factor defaults mismatch: %.2f %.2f", opts.compressionFactor, opts.stretchFactor)
	}
}

func TestParseOptionsWithPositionalInput(t *testing.T) {
	errBuf := bytes.NewBuffer(nil)
	opts, err := parseOptions([]string{"muscles.json"}, errBuf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if opts.inputPath != "muscles.json" {
		t.Fatalf("inputPath mismatch: %s", opts.inputPath)
	}
}

func TestParseOptionsRequireJSONExt(t *testing.T) {
	errBuf := bytes.NewBuffer(nil)
	_, err := parseOptions([]string{"-input", "muscles.yaml"}, errBuf)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), ".json") {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := parseOptions([]string{"-input", "muscles.json", "-output", "out.txt"}, errBuf); err == nil {
		t.Fatalf("expected output extension error")
	}
}

func TestParseOptionsRejectNonPositiveFactors(t *testing.T) {
	errBuf := bytes.NewBuffer(nil)
	if _, err := parseOptions([]string{"-input", "muscles.json", "-stretch", "0"}, errBuf); err == nil {
		t.Fatalf("expected factor error")
	}
}

func TestRunBuildsMusclesAndExportsLayout(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "muscles.json")
	outPath := filepath.Join(tempDir, "out.json")
	writeTestLayout(t, inPath)

	outBuf := bytes.NewBuffer(nil)
	errBuf := bytes.NewBuffer(nil)
	if err := run([]string{"-input", inPath, "-output", outPath}, outBuf, errBuf); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(outBuf.String(), "筋肉グループ構築完了: 1 件") {
		t.Fatalf("build summary missing: %s", outBuf.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output not found: %v", err)
	}
	var layout map[string]map[string]map[string][3]float64
	if err := json.Unmarshal(data, &layout); err != nil {
		t.Fatalf("output json invalid: %v", err)
	}
	origin := layout["Arms"]["Left"]["LeftBicep_muscleOrigin"]
	if origin != [3]float64{2.0, 14.0, 0.0} {
		t.Fatalf("exported origin mismatch: %v", origin)
	}
}

func TestRunBlueprintOnlySkipsBuild(t *testing.T) {
	tempDir := t.TempDir()
	inPath := filepath.Join(tempDir, "muscles.json")
	writeTestLayout(t, inPath)

	outBuf := bytes.NewBuffer(nil)
	errBuf := bytes.NewBuffer(nil)
	if err := run([]string{"-input", inPath, "-bp"}, outBuf, errBuf); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(outBuf.String(), "ブループリント生成完了") {
		t.Fatalf("blueprint summary missing: %s", outBuf.String())
	}
}

// writeTestLayout はテスト用の筋肉レイアウトJSONを保存する。
func writeTestLayout(t *testing.T, path string) {
	t.Helper()
	layout := map[string]any{
		"Arms": map[string]any{
			"Left": map[string][3]float64{
				"LeftBicep_muscleOrigin":    {2.0, 14.0, 0.0},
				"LeftBicep_muscleInsertion": {2.0, 10.0, 0.0},
				"LeftBicep_muscleDriver":    {2.0, 12.0, 0.0},
			},
		},
	}
	data, err := json.Marshal(layout)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write layout file failed: %v", err)
	}
}
