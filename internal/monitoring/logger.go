// Package monitoring provides the package-level diagnostic logger shared by
// the library and the CLI.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Verbosity levels. Warnings always print; Infof needs LevelInfo, Debugf
// needs LevelDebug.
const (
	LevelWarn int32 = iota
	LevelInfo
	LevelDebug
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var level atomic.Int32

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbosity sets the logging level: 0 warnings only, 1 adds info,
// 2 or more adds debug.
func SetVerbosity(v int) {
	switch {
	case v <= 0:
		level.Store(LevelWarn)
	case v == 1:
		level.Store(LevelInfo)
	default:
		level.Store(LevelDebug)
	}
}

// Infof logs when verbosity is at least info level.
func Infof(format string, v ...interface{}) {
	if level.Load() >= LevelInfo {
		Logf(format, v...)
	}
}

// Debugf logs when verbosity is at debug level.
func Debugf(format string, v ...interface{}) {
	if level.Load() >= LevelDebug {
		Logf(format, v...)
	}
}
