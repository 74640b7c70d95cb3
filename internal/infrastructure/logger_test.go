package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulpulse/internal/config"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	logFile := filepath.Join(t.TempDir(), "logs", "haul.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	again, err := InitializeLogger(config.LoggingConfig{Output: "console"})
	require.NoError(t, err)
	assert.Same(t, logger, again, "second initialization returns the first logger")

	logger.Info("session created", "session_id", "abc")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	entries := decodeLines(t, content)
	require.Len(t, entries, 1)
	assert.Equal(t, "session created", entries[0]["msg"])
	assert.Equal(t, "abc", entries[0]["session_id"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, config.AppName, entries[0]["service"])
}

func TestNewLoggerOutputs(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.LoggingConfig
		wantStdout bool
		wantFile   bool
		wantJSON   bool
	}{
		{
			name:       "console json",
			cfg:        config.LoggingConfig{Level: "info", Format: "json", Output: "console"},
			wantStdout: true,
			wantJSON:   true,
		},
		{
			name:       "console text",
			cfg:        config.LoggingConfig{Level: "info", Format: "text", Output: "console"},
			wantStdout: true,
		},
		{
			name:       "both",
			cfg:        config.LoggingConfig{Level: "info", Format: "json", Output: "both"},
			wantStdout: true,
			wantFile:   true,
			wantJSON:   true,
		},
		{
			name:     "file only",
			cfg:      config.LoggingConfig{Level: "info", Format: "json", Output: "file"},
			wantFile: true,
			wantJSON: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.log")
			tt.cfg.FilePath = path

			var stdout bytes.Buffer
			logger, file, err := NewLogger(tt.cfg, &stdout)
			require.NoError(t, err)

			logger.Info("batch normalized", "rows_kept", 3)

			if tt.wantStdout {
				assert.Contains(t, stdout.String(), "batch normalized")
				if tt.wantJSON {
					decodeLines(t, stdout.Bytes())
				} else {
					assert.Contains(t, stdout.String(), "rows_kept=3")
				}
			} else {
				assert.Zero(t, stdout.Len())
			}

			if tt.wantFile {
				require.NotNil(t, file)
				require.NoError(t, file.Close())
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Contains(t, string(content), "batch normalized")
			} else {
				assert.Nil(t, file)
			}
		})
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: "console"}, &buf)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "with trace")
	logger.Info("without trace")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "trace-123", entries[0]["trace_id"])
	assert.NotContains(t, entries[1], "trace_id")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{level: "debug", want: []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{level: "info", want: []string{"INFO", "WARN", "ERROR"}},
		{level: "warning", want: []string{"WARN", "ERROR"}},
		{level: "error", want: []string{"ERROR"}},
		{level: "bogus", want: []string{"INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, _, err := NewLogger(config.LoggingConfig{Level: tt.level, Format: "json", Output: "console"}, &buf)
			require.NoError(t, err)

			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			var got []string
			for _, entry := range decodeLines(t, buf.Bytes()) {
				got = append(got, entry["level"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ensured := EnsureTraceID(ctx)
	id := GetTraceID(ensured)
	assert.Len(t, id, 36)
	assert.Equal(t, ensured, EnsureTraceID(ensured), "existing trace ID is kept")

	var buf bytes.Buffer
	base, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"}, &buf)
	require.NoError(t, err)

	WithComponent(LoggerWithContext(ensured, base), "sessions").Info("created")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0]["trace_id"])
	assert.Equal(t, "sessions", entries[0]["component"])
}
