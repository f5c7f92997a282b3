// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

package logging

// LoggerInterface is the logging surface shared across the module, modeled
// on the subset of *zap.SugaredLogger actually called by this codebase.
type LoggerInterface interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
}
