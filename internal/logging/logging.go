// Package logging provides the shared logger used by all internal packages.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var L *zap.Logger = zap.NewNop()

// Initialize builds a console logger on stderr and installs it as the shared
// logger. Command output itself goes to stdout, the logger only carries
// diagnostics and warnings.
func Initialize() *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "message",

		LevelKey:    "level",
		EncodeLevel: zapcore.CapitalLevelEncoder,

		TimeKey:    "time",
		EncodeTime: zapcore.ISO8601TimeEncoder,
	})
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.WarnLevel)
	L = zap.New(core)
	return L
}
