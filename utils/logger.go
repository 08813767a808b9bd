package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger provides leveled logging throughout the application.
// The underlying log.Logger values serialize writes, so one Logger and every
// handle derived from it with With can be shared across goroutines.
type Logger struct {
	info    *log.Logger
	warn    *log.Logger
	err     *log.Logger
	debug   *log.Logger
	prefix  string
	debugOn bool
}

// NewLogger creates a Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, os.Stderr, false)
}

// NewLoggerTo creates a Logger writing info, warn and debug lines to out and
// error lines to errOut.
func NewLoggerTo(out, errOut io.Writer, debug bool) *Logger {
	flags := 0
	return &Logger{
		info:    log.New(out, "", flags),
		warn:    log.New(out, "", flags),
		err:     log.New(errOut, "", flags),
		debug:   log.New(out, "", flags),
		debugOn: debug,
	}
}

// NewRunLogger logs to the terminal and appends a plain copy of every line to
// the file at path.
func NewRunLogger(path string, debug bool) (*Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: open %q: %w", path, err)
	}
	return NewLoggerTo(io.MultiWriter(os.Stdout, f), io.MultiWriter(os.Stderr, f), debug), f, nil
}

// With returns a handle that prefixes every line with [prefix].
// The handle shares this Logger's sinks.
func (l *Logger) With(prefix string) *Logger {
	child := *l
	child.prefix = l.prefix + "[" + prefix + "] "
	return &child
}

// DebugEnabled reports whether Debug lines are emitted.
func (l *Logger) DebugEnabled() bool {
	return l.debugOn
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) line(level, format string) string {
	// The prefix may contain user-supplied text, keep it out of the format string.
	return fmt.Sprintf("[%s] %s %s%s\n", l.timestamp(), level, strings.ReplaceAll(l.prefix, "%", "%%"), format)
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(l.line("\033[32mINFO\033[0m ", format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(l.line("\033[33mWARN\033[0m ", format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(l.line("\033[31mERROR\033[0m", format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.debugOn {
		return
	}
	l.debug.Printf(l.line("\033[36mDEBUG\033[0m", format), args...)
}
