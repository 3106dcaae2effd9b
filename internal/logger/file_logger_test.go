package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesSessionFile(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLogger(dir, "trader@example.com")
	require.NoError(t, err)

	l.LogTradeClosed("pos-1", "win", 500, 100500, 500)
	path := l.GetLogPath()
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "LEDGER SESSION STARTED")
	assert.Contains(t, content, "[TRADE] [trader@example.com] CLOSE pos-1 outcome=WIN pnl=500.00 equity=100500.00")
	assert.Contains(t, content, "LEDGER SESSION ENDED")
	assert.True(t, strings.HasPrefix(path, dir))
}

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, "acct")

	l.LogRiskBlock("daily loss limit reached")
	l.LogPositionOpened("pos-9", "XAUUSD", "short", 2350.5, 2360, 2330)
	l.Warning("careful %d", 3)

	out := buf.String()
	assert.Contains(t, out, "[RISK] [acct] BLOCKED daily loss limit reached")
	assert.Contains(t, out, "OPEN pos-9 XAUUSD SHORT")
	assert.Contains(t, out, "[WARN] [acct] careful 3")
	assert.NoError(t, l.Close())
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("ignored")
	assert.NoError(t, l.Close())
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "trader@example.com", SafeName("Trader@Example.com"))
	assert.Equal(t, "default", SafeName("  "))

	slash := SafeName("a/b")
	space := SafeName("a b")
	assert.True(t, strings.HasPrefix(slash, "a_b~"), slash)
	assert.True(t, strings.HasPrefix(space, "a_b~"), space)
	assert.NotEqual(t, slash, space)
	assert.NotEqual(t, "a_b", slash)
	assert.Len(t, slash, len("a_b~")+12)

	for _, key := range []string{"trader@example.com", "a/b", "A B", "x~y", "über"} {
		name := SafeName(key)
		assert.Equal(t, name, SafeName(name), key)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, "acct")

	level, err := ParseLevel("warn")
	require.NoError(t, err)
	l.SetLevel(level)

	l.Info("hidden info")
	l.LogTradeClosed("pos-1", "win", 10, 100010, 10)
	l.LogRiskBlock("streak")
	l.Error("boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden info")
	assert.NotContains(t, out, "CLOSE pos-1")
	assert.Contains(t, out, "[RISK] [acct] BLOCKED streak")
	assert.Contains(t, out, "[ERROR] [acct] boom")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"", LogLevelInfo, false},
		{"INFO", LogLevelInfo, false},
		{"warning", LogLevelWarning, false},
		{" error ", LogLevelError, false},
		{"verbose", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
