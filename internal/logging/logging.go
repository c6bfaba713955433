// File: internal/logging/logging.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Construction of the structured loggers handed to runtime components.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the logger type accepted by every runtime component. A nil
// *Logger is valid and discards everything.
type Logger = logiface.Logger[logiface.Event]

// ParseLevel maps a configuration level name to a logiface level.
func ParseLevel(name string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info", "informational":
		return logiface.LevelInformational, nil
	case "off", "disabled", "none":
		return logiface.LevelDisabled, nil
	case "emerg", "emergency":
		return logiface.LevelEmergency, nil
	case "alert":
		return logiface.LevelAlert, nil
	case "crit", "critical":
		return logiface.LevelCritical, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "warn", "warning":
		return logiface.LevelWarning, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	}
	return logiface.LevelDisabled, fmt.Errorf("logging: unknown level %q", name)
}

// New returns a JSON logger writing to w (stderr when nil).
func New(w io.Writer, level logiface.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w), stumpy.WithTimeField("ts")),
		stumpy.L.WithLevel(level),
	).Logger()
}

// Component derives a logger tagging every entry with the component name.
func Component(l *Logger, name string) *Logger {
	if l == nil {
		return nil
	}
	c := l.Clone()
	if c == nil {
		return l
	}
	return c.Str("component", name).Logger()
}
