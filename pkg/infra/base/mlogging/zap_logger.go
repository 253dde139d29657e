// 指示: miu200521358
// Package mlogging はzapを使ったロガー実装を提供する。
package mlogging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/miu200521358/mu_musclerig/pkg/shared/base/logging"
)

// ZapLogger はlogging.Loggerのzap実装である。
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewZapLogger は標準エラーへ書くコンソール形式のロガーを生成する。
func NewZapLogger() *ZapLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)
	return &ZapLogger{
		sugar: zap.New(core).Sugar(),
		level: level,
	}
}

// SetLevel は出力レベルを設定する。
func (l *ZapLogger) SetLevel(level logging.Level) {
	switch level {
	case logging.LOG_LEVEL_DEBUG:
		l.level.SetLevel(zapcore.DebugLevel)
	case logging.LOG_LEVEL_WARN:
		l.level.SetLevel(zapcore.WarnLevel)
	case logging.LOG_LEVEL_ERROR:
		l.level.SetLevel(zapcore.ErrorLevel)
	default:
		l.level.SetLevel(zapcore.InfoLevel)
	}
}

// Debug はデバッグログを出力する。
func (l *ZapLogger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

// Info は情報ログを出力する。
func (l *ZapLogger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

// Warn は警告ログを出力する。
func (l *ZapLogger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

// Error はエラーログを出力する。
func (l *ZapLogger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync はバッファを書き出す。
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
