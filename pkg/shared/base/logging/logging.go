// 指示: miu200521358
// Package logging はロガーのインターフェースと既定ロガーの登録を提供する。
package logging

import (
	"fmt"
	"os"
	"sync"
)

// Level はログレベルを表す。
type Level int

const (
	LOG_LEVEL_DEBUG Level = iota
	LOG_LEVEL_INFO
	LOG_LEVEL_WARN
	LOG_LEVEL_ERROR
)

// Logger はリグ構築処理が使うロガーである。
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SetLevel(level Level)
}

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   Logger = NewConsoleLogger(os.Stderr)
)

// DefaultLogger は既定ロガーを返す。
func DefaultLogger() Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger は既定ロガーを差し替える。
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		return
	}
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// ConsoleLogger は標準エラーへ書く素朴なロガーである。
type ConsoleLogger struct {
	mu    sync.Mutex
	out   *os.File
	level Level
}

// NewConsoleLogger はコンソールロガーを生成する。
func NewConsoleLogger(out *os.File) *ConsoleLogger {
	return &ConsoleLogger{out: out, level: LOG_LEVEL_INFO}
}

// SetLevel は出力レベルを設定する。
func (l *ConsoleLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *ConsoleLogger) write(level Level, tag string, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	fmt.Fprintf(l.out, "["+tag+"] "+format+"\n", args...)
}

// Debug はデバッグログを出力する。
func (l *ConsoleLogger) Debug(format string, args ...any) {
	l.write(LOG_LEVEL_DEBUG, "DEBUG", format, args...)
}

// Info は情報ログを出力する。
func (l *ConsoleLogger) Info(format string, args ...any) {
	l.write(LOG_LEVEL_INFO, "INFO", format, args...)
}

// Warn は警告ログを出力する。
func (l *ConsoleLogger) Warn(format string, args ...any) {
	l.write(LOG_LEVEL_WARN, "WARN", format, args...)
}

// Error はエラーログを出力する。
func (l *ConsoleLogger) Error(format string, args ...any) {
	l.write(LOG_LEVEL_ERROR, "ERROR", format, args...)
}
