package logger

import (
	"fmt"
	"sort"
	"strings"
	"testing"
)

// TestLogger writes through t.Logf so output shows up with the failing test.
// Fields are appended as key=value pairs.
type TestLogger struct {
	T      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) Logger {
	return &TestLogger{T: t}
}

// NewMockLogger is a TestLogger that discards output when no t is given.
func NewMockLogger(t ...*testing.T) Logger {
	if len(t) > 0 {
		return NewTestLogger(t[0])
	}
	return &TestLogger{}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg) }

// Fatal only logs; tests decide for themselves whether to stop.
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{T: l.T, fields: merged}
}

// Fields returns the fields attached to this logger.
func (l *TestLogger) Fields() map[string]interface{} {
	return l.fields
}

func (l *TestLogger) log(level, msg string) {
	if l.T == nil {
		return
	}
	l.T.Helper()
	if len(l.fields) == 0 {
		l.T.Logf("[%s] %s", level, msg)
		return
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, l.fields[k]))
	}
	l.T.Logf("[%s] %s %s", level, msg, strings.Join(pairs, " "))
}
