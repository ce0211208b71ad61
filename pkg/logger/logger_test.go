package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	l := NewLogger()
	assert.NotNil(t, l)
	assert.IsType(t, &zerologLogger{}, l)
}

func TestNewLoggerWithLevel_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn")

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn message", entries[0]["message"])
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "error message", entries[1]["message"])
}

func TestNewLoggerWithLevel_InvalidFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "verbose")

	l.Debug("hidden")
	l.Info("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(&buf, "debug")

	base.WithField("agent", "commission").Info("routed")
	base.Info("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "commission", entries[0]["agent"])
	_, hasField := entries[1]["agent"]
	assert.False(t, hasField, "WithField must not mutate the parent logger")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := newLogger(&buf, "debug")

	base.WithFields(map[string]interface{}{
		"session_id": "s-1",
		"attempt":    2,
	}).Warn("retrying")
	base.Info("after")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "s-1", entries[0]["session_id"])
	assert.Equal(t, float64(2), entries[0]["attempt"])
	_, leaked := entries[1]["session_id"]
	assert.False(t, leaked)
}

func TestTestLogger(t *testing.T) {
	l := NewTestLogger(t)
	l.Info("hello")

	child := l.WithField("session_id", "s-1").WithFields(map[string]interface{}{"attempt": 2})
	child.Warn("retrying")
	assert.Equal(t, map[string]interface{}{"session_id": "s-1", "attempt": 2}, child.(*TestLogger).Fields())
	assert.Empty(t, l.(*TestLogger).Fields(), "parent is unchanged")

	silent := NewMockLogger()
	silent.Error("no testing.T attached")
}
