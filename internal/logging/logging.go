// Package logging wraps the standard library logger with the teacher's
// bracketed-component-prefix convention ("[Poller]", "[BlockScanner]") so
// every pipeline stage logs consistently without pulling in a structured
// logging library the rest of the pack never reaches for.
package logging

import (
	"log"
	"os"
	"strings"
	"sync"
)

// Level gates log output: Debug is printed only at debug level, Info at
// debug and info level, and Warn always.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

var (
	levelOnce    sync.Once
	currentLevel Level = LevelInfo
)

func resolveLevel() {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		currentLevel = LevelDebug
	case "warn", "warning":
		currentLevel = LevelWarn
	default:
		currentLevel = LevelInfo
	}
}

// Logger prefixes every line with a bracketed component tag.
type Logger struct {
	prefix string
}

// New returns a Logger for the named component, e.g. New("Explorer") logs
// as "[Explorer] ...".
func New(component string) *Logger {
	levelOnce.Do(resolveLevel)
	return &Logger{prefix: "[" + component + "] "}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if currentLevel > LevelDebug {
		return
	}
	log.Printf(l.prefix+format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if currentLevel > LevelInfo {
		return
	}
	log.Printf(l.prefix+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	log.Printf(l.prefix+"WARNING: "+format, args...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	log.Fatalf(l.prefix+format, args...)
}
