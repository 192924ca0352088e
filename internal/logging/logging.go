// Package logging builds the diagnostic logger. The terminal belongs to the
// pager, so diagnostics only ever go to a file, and without a file they are
// discarded.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()

	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("15:04:05.000"))
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := filepath.Base(caller.File)
		enc.AppendString(fmt.Sprintf("%s:%d", strings.TrimSuffix(file, ".go"), caller.Line))
	}

	return zapcore.NewConsoleEncoder(cfg)
}

// New opens path for appending and returns a debug-level logger writing to
// it. With an empty path it returns a no-op logger. The returned close func
// flushes and closes the file.
func New(path string) (*zap.Logger, func() error, error) {
	if path == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	core := zapcore.NewCore(encoder(), zapcore.AddSync(file), zapcore.DebugLevel)
	log := zap.New(core, zap.AddCaller()).Named("mtail")

	closeFn := func() error {
		_ = log.Sync()
		return file.Close()
	}
	return log, closeFn, nil
}
