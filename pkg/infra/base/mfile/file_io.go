// 指示: miu200521358
// Package mfile はOSファイルシステムへの入出力実装を提供する。
package mfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileReader はOSファイルからの読み込み実装である。
type FileReader struct{}

// NewFileReader はFileReaderを生成する。
func NewFileReader() *FileReader {
	return &FileReader{}
}

// ReadFile はファイル全体を読み込む。
func (r *FileReader) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ファイルの読み込みに失敗しました: %s: %w", path, err)
	}
	return data, nil
}

// FileWriter はOSファイルへの書き込み実装である。
type FileWriter struct{}

// NewFileWriter はFileWriterを生成する。
func NewFileWriter() *FileWriter {
	return &FileWriter{}
}

// WriteFile は出力先ディレクトリを作ってからファイルを書き込む。
func (w *FileWriter) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("出力先ディレクトリの作成に失敗しました: %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ファイルの書き込みに失敗しました: %s: %w", path, err)
	}
	return nil
}
