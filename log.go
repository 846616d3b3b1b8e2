package rowan

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is the engine console. Everything user-visible (script prints,
// load failures, physics recovery) goes through here so the runtime and the
// editor see one stream.
var logger = newConsoleLogger()

func newConsoleLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}

// SetLogger replaces the engine console logger. Pass nil to restore the
// default stderr console.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		logger = newConsoleLogger()
		return
	}
	logger = l
}

// Logger returns the engine console logger. Scripts' print output and
// component error reports are written through it.
func Logger() *zap.SugaredLogger {
	return logger
}
