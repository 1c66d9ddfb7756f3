// Package monitoring holds the shared diagnostic logger for crysanalyze.
// Analysis code stays pure; anything with something to narrate (schema
// migrations, the web server, fit-conditioning warnings) goes through Logf
// so the CLI can mute or redirect it in one place.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced by SetLogger; tests typically mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
