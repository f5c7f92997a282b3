// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap.SugaredLogger writing JSON to the configured file
// (or stderr when logFile is empty) at the given level.
func NewLogger(level string, logFile string) *zap.SugaredLogger {
	lvl := zapcore.ErrorLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.ErrorLevel
	}

	var sink zapcore.WriteSyncer
	if logFile == "" {
		sink = zapcore.AddSync(os.Stderr)
	} else {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			sink = zapcore.AddSync(os.Stderr)
		} else {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		sink,
		lvl,
	)

	return zap.New(core, zap.AddCaller()).Sugar()
}
