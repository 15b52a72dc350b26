// Package logger provides the leveled, printf-style logger used across
// distsync. Output defaults to stderr so transfer progress never mixes with
// machine-readable command output on stdout.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu    sync.Mutex
	level = LevelInfo
	out   = stdlog.New(os.Stderr, "", 0)
)

// SetLevel sets the minimum level that is emitted. Unrecognized names leave
// the level unchanged.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToUpper(name) {
	case "DEBUG":
		level = LevelDebug
	case "INFO":
		level = LevelInfo
	case "WARN":
		level = LevelWarn
	case "ERROR":
		level = LevelError
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = stdlog.New(w, "", 0)
}

func emit(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	out.Printf("[%s] [%s] %s",
		time.Now().Format("2006-01-02 15:04:05"), l, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...any) { emit(LevelDebug, format, args...) }
func Info(format string, args ...any)  { emit(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { emit(LevelWarn, format, args...) }
func Error(format string, args ...any) { emit(LevelError, format, args...) }
