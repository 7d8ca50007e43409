// Package sylog provides a small leveled logging facade used by every
// component instead of bare fmt/log calls, mirroring how the rest of the
// supervision core is invoked (Debugf/Errorf/Fatalf) with a single
// immutable handle constructed once at startup.
package sylog

import (
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
)

// Logger is an immutable leveled logging handle. Construct one with New at
// startup and pass it down explicitly; it is never a package-level mutable
// singleton.
type Logger struct {
	entry *log.Entry
}

// New builds a Logger writing to stderr, and additionally to debugLogFile
// when it is non-empty. A failure to open debugLogFile is returned so the
// caller can treat it as startup-fatal.
func New(debug bool, debugLogFile string) (*Logger, error) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	var out io.Writer = os.Stderr
	if debugLogFile != "" {
		f, err := os.OpenFile(debugLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	l := &log.Logger{
		Handler: cli.New(out),
		Level:   level,
	}

	return &Logger{entry: log.NewEntry(l)}, nil
}

// WithField returns a derived Logger carrying an extra structured field,
// e.g. a run ID, on every subsequent line.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Fatalf logs at error level and terminates the process, matching the
// teacher's sylog.Fatalf call sites that end a process on unrecoverable
// startup errors.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
	os.Exit(1)
}
