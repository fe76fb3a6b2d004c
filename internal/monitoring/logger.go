// Package monitoring holds the shared diagnostic logger. The tracker runs
// inline in a control loop, so logging must never block or abort the
// process; everything routes through a replaceable function value.
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

// Eventf logs a detected driving event (stall, graded shift, launch).
// Events carry a short kind tag so log scrapers can filter them.
func Eventf(kind string, format string, v ...interface{}) {
	Logf("event "+kind+": "+format, v...)
}
