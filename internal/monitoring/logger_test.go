package monitoring

import (
	"fmt"
	"testing"
)

func capture() (*[]string, func()) {
	var lines []string
	prev := Logf
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines, func() { Logf = prev; SetVerbosity(0) }
}

func TestSetLoggerNil(t *testing.T) {
	prev := Logf
	defer func() { Logf = prev }()

	SetLogger(nil)
	// Must not panic.
	Logf("dropped %d", 1)
}

func TestVerbosityGating(t *testing.T) {
	lines, restore := capture()
	defer restore()

	SetVerbosity(0)
	Infof("info %d", 1)
	Debugf("debug %d", 1)
	if len(*lines) != 0 {
		t.Fatalf("level 0 logged: %v", *lines)
	}

	SetVerbosity(1)
	Infof("info %d", 2)
	Debugf("debug %d", 2)
	if len(*lines) != 1 || (*lines)[0] != "info 2" {
		t.Fatalf("level 1 logged: %v", *lines)
	}

	SetVerbosity(2)
	Debugf("debug %d", 3)
	if len(*lines) != 2 || (*lines)[1] != "debug 3" {
		t.Fatalf("level 2 logged: %v", *lines)
	}
}
