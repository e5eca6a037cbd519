package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the CMS server and the cmsctl tool.
// Package-level functions log without a component; Named returns a
// component-scoped logger that prefixes every line with "name: ".

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	lvl := ParseLevel(l)
	mu.Lock()
	level = lvl
	mu.Unlock()
}

// ParseLevel maps a level name to a Level.
func ParseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

func header(lvl Level, component string) string {
	h := fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(lvl.String()))
	if component != "" {
		h += component + ": "
	}
	return h
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func output(l Level, component, format string, v ...interface{}) {
	if l != LevelFatal && !enabled(l) {
		return
	}
	mu.RLock()
	out := logger
	mu.RUnlock()
	out.Printf(header(l, component)+format, v...)
}

func Debugf(format string, v ...interface{}) { output(LevelDebug, "", format, v...) }
func Infof(format string, v ...interface{})  { output(LevelInfo, "", format, v...) }
func Warnf(format string, v ...interface{})  { output(LevelWarn, "", format, v...) }
func Errorf(format string, v ...interface{}) { output(LevelError, "", format, v...) }

func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, "", format, v...)
	os.Exit(1)
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level.String()
}

// Component is a logger bound to a component name.
type Component struct {
	name string
}

// Named returns a logger whose lines carry the given component name.
func Named(name string) *Component {
	return &Component{name: name}
}

func (c *Component) Debugf(format string, v ...interface{}) { output(LevelDebug, c.name, format, v...) }
func (c *Component) Infof(format string, v ...interface{})  { output(LevelInfo, c.name, format, v...) }
func (c *Component) Warnf(format string, v ...interface{})  { output(LevelWarn, c.name, format, v...) }
func (c *Component) Errorf(format string, v ...interface{}) { output(LevelError, c.name, format, v...) }
