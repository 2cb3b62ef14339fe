// Package monitoring holds the process-wide diagnostic logger used by the
// session layer, the calibration store and the CLI.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Component prefixes every message with a bracketed component name, e.g.
// "[ProbeSession] ". It resolves Logf on each call, so SetLogger takes
// effect on existing values.
type Component string

// Logf logs through the package logger with the component prefix.
func (c Component) Logf(format string, v ...interface{}) {
	Logf("["+string(c)+"] "+format, v...)
}
