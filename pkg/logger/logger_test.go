package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitWriterHonorsLevel(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	var buf bytes.Buffer
	InitWriter(&buf, "warn")
	Info("quiet_event", "k", 1)
	Warn("loud_event", "k", 2)

	out := buf.String()
	assert.NotContains(t, out, "quiet_event")
	assert.Contains(t, out, "loud_event")
	assert.Contains(t, out, "k=2")
}

func TestNilLoggerIsNoop(t *testing.T) {
	prev := Log
	Log = nil
	defer func() { Log = prev }()

	Debug("x")
	Info("x")
	Warn("x")
	Error("x")
}

func TestInitFileSinkFlushesOnSync(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	path := filepath.Join(t.TempDir(), "forumdb.log")
	Init("debug", "file:"+path)
	Info("file_sink_event", "at", time.Unix(0, 0).UTC())
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "file_sink_event"))
}
