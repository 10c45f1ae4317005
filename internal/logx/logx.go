// Package logx owns the process-wide zap logger. Until Init is called the
// logger discards everything, so library code can log unconditionally.
package logx

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Verbosity levels for the CLI -v flag count.
const (
	VerbosityQuiet = 0 // warnings and errors
	VerbosityInfo  = 1 // -v
	VerbosityDebug = 2 // -vv
)

// VerbosityToLevel maps a -v count to a zap level.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityQuiet:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Options configures Init.
type Options struct {
	Level zapcore.Level
	JSON  bool
	// Output defaults to stderr so logs never mix with reports on stdout.
	Output io.Writer
}

// Init builds the global logger.
func Init(opts Options) *zap.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var enc zapcore.Encoder
	if opts.JSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	l := zap.New(zapcore.NewCore(enc, zapcore.AddSync(out), opts.Level))
	Set(l)
	return l
}

// Set replaces the global logger. A nil logger restores the no-op one.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the global logger, optionally named.
func L(name ...string) *zap.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	for _, n := range name {
		l = l.Named(n)
	}
	return l
}

// Sync flushes buffered log entries. Errors from syncing a terminal are
// ignored.
func Sync() {
	_ = L().Sync()
}
