package agent

import (
	"fmt"
	"io"
	"os"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

// Logger provides formatted console output for the chat client. Command
// results go to out without timestamps; status messages go to writer.
type Logger struct {
	verbose  bool
	useColor bool
	writer   io.Writer
	out      io.Writer
	now      func() time.Time
}

// NewDevNullLogger returns a logger that discards everything.
func NewDevNullLogger() *Logger {
	return NewLoggerWithWriter(false, false, io.Discard)
}

// NewLogger creates a new logger writing to stdout.
func NewLogger(verbose, useColor bool) *Logger {
	return NewLoggerWithWriter(verbose, useColor, os.Stdout)
}

// NewLoggerWithWriter creates a new logger with a custom writer used for
// both status messages and command output.
func NewLoggerWithWriter(verbose, useColor bool, writer io.Writer) *Logger {
	return &Logger{
		verbose:  verbose,
		useColor: useColor,
		writer:   writer,
		out:      writer,
		now:      time.Now,
	}
}

// SetVerbose sets the verbose mode
func (l *Logger) SetVerbose(verbose bool) {
	l.verbose = verbose
}

// SetWriter redirects status messages and command output.
func (l *Logger) SetWriter(w io.Writer) {
	l.writer = w
	l.out = w
}

// Output writes user-facing output without timestamps.
func (l *Logger) Output(format string, args ...interface{}) {
	fmt.Fprintf(l.out, format, args...)
}

// OutputLine writes user-facing output with a newline
func (l *Logger) OutputLine(format string, args ...interface{}) {
	fmt.Fprintf(l.out, format+"\n", args...)
}

func (l *Logger) timestamp() string {
	return l.now().Format("2006-01-02 15:04:05")
}

func (l *Logger) colorize(text, colorCode string) string {
	if !l.useColor {
		return text
	}
	return colorCode + text + colorReset
}

func (l *Logger) log(colorCode, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if colorCode != "" {
		msg = l.colorize(msg, colorCode)
	}
	fmt.Fprintf(l.writer, "[%s] %s\n", l.timestamp(), msg)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log("", format, args...)
}

// Debug logs a debug message (only in verbose mode)
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.log(colorGray, format, args...)
}

// Warn logs a warning
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(colorYellow, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(colorRed, format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	l.log(colorGreen, format, args...)
}

// Request logs an outgoing MCP request in verbose mode.
func (l *Logger) Request(method string, params interface{}) {
	if !l.verbose {
		return
	}
	l.log(colorBlue, "→ %s %s", method, PrettyJSON(params))
}

// Response logs an incoming MCP response in verbose mode.
func (l *Logger) Response(method string, result interface{}) {
	if !l.verbose {
		return
	}
	l.log(colorGreen, "← %s %s", method, PrettyJSON(result))
}

// Write implements io.Writer so the logger can back a readline stderr.
func (l *Logger) Write(p []byte) (n int, err error) {
	l.Debug("%s", string(p))
	return len(p), nil
}
