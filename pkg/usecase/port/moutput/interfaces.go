// 指示: miu200521358
// Package moutput はリグデータ入出力のポート契約を提供する。
package moutput

// IFileReader は入出力共通の読み込み契約を表す。
type IFileReader interface {
	ReadFile(path string) ([]byte, error)
}

// IFileWriter は入出力共通の書き込み契約を表す。
type IFileWriter interface {
	WriteFile(path string, data []byte) error
}
