package mocks

import (
	"fmt"
	"sync"

	"github.com/user/mediapump/pkg/ports"
)

// Logger records formatted log messages.
type Logger struct {
	entries   *[]LogEntry
	component string
}

// LogEntry is one recorded message.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Message   string
}

// NewLogger creates a new recording Logger.
func NewLogger() *Logger {
	return &Logger{entries: &[]LogEntry{}}
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.record(ports.LevelDebug, msg, args) }
func (m *Logger) Info(msg string, args ...interface{})  { m.record(ports.LevelInfo, msg, args) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.record(ports.LevelWarn, msg, args) }
func (m *Logger) Error(msg string, args ...interface{}) { m.record(ports.LevelError, msg, args) }

// WithComponent returns a logger sharing the same entry list.
func (m *Logger) WithComponent(component string) ports.Logger {
	return &Logger{entries: m.entries, component: component}
}

// Entries returns every message logged at level or above.
func (m *Logger) Entries(level ports.LogLevel) []LogEntry {
	logMu.Lock()
	defer logMu.Unlock()
	var out []LogEntry
	for _, e := range *m.entries {
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}

// component loggers share one entry slice, so they share one lock too.
var logMu sync.Mutex

func (m *Logger) record(level ports.LogLevel, msg string, args []interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	*m.entries = append(*m.entries, LogEntry{
		Level:     level,
		Component: m.component,
		Message:   fmt.Sprintf(msg, args...),
	})
}

var _ ports.Logger = (*Logger)(nil)
