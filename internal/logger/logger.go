// Package logger provides a leveled console logger with timestamps and
// optional color output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log levels, lowest first.
const (
	LevelTrace = "trace"
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levelOrder = map[string]int{
	LevelTrace: 0,
	LevelDebug: 1,
	LevelInfo:  2,
	LevelWarn:  3,
	LevelError: 4,
}

// Logger writes "[HH:MM:SS] message" lines to a writer, dropping messages
// below the configured level. Safe for concurrent use.
type Logger struct {
	writer io.Writer
	level  string
	color  bool
	now    func() time.Time
	mu     sync.Mutex
}

// New creates a Logger writing to w. A nil writer discards everything. An
// empty or unknown level defaults to info. Color is enabled when w is a
// terminal and NO_COLOR is not set.
func New(w io.Writer, level string) *Logger {
	return &Logger{
		writer: w,
		level:  NormalizeLevel(level),
		color:  isTerminal(w),
		now:    time.Now,
	}
}

// Discard returns a Logger that drops every message.
func Discard() *Logger {
	return New(nil, LevelError)
}

// NormalizeLevel lowercases level and falls back to info when it is unknown.
func NormalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if _, ok := levelOrder[normalized]; ok {
		return normalized
	}
	return LevelInfo
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return !color.NoColor
}

// Level returns the minimum level that is written.
func (l *Logger) Level() string { return l.level }

func (l *Logger) enabled(level string) bool {
	return levelOrder[level] >= levelOrder[l.level]
}

func (l *Logger) log(level string, paint *color.Color, format string, args ...interface{}) {
	if l == nil || l.writer == nil || !l.enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	tag := strings.ToUpper(level)
	if l.color && paint != nil {
		tag = paint.Sprint(tag)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.writer, "[%s] %s %s\n", l.now().Format("15:04:05"), tag, msg)
}

var (
	traceColor = color.New(color.FgHiBlack)
	debugColor = color.New(color.FgCyan)
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
)

// Tracef logs at trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.log(LevelTrace, traceColor, format, args...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, debugColor, format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, infoColor, format, args...)
}

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, warnColor, format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, errorColor, format, args...)
}
