// Package genlog is a small stderr logger, matching the teacher's
// logging.go construction, with optional rotating file output for the
// batch daemon.
package genlog

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = log.New(os.Stderr, "[ch10gen] ", log.LstdFlags|log.Lmicroseconds)

// Logf writes an informational line.
func Logf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

// Warnf writes a warning line, prefixed so it stands out in a console
// full of Logf output.
func Warnf(format string, args ...interface{}) {
	logger.Printf("WARN "+format, args...)
}

// Fatalf writes a line and exits the process with status 1.
func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}

// UseRotatingFile redirects the logger's output to a lumberjack-backed
// rotating file, returning the previous destination so callers can
// restore it (tests do this to avoid leaking file handles).
func UseRotatingFile(path string, maxSizeMB, maxBackups, maxAgeDays int) io.Writer {
	prev := logger.Writer()
	logger.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	})
	return prev
}

// SetOutput restores a previously captured destination, or redirects
// to an arbitrary writer (e.g. for test capture).
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}
