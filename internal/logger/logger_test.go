package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbsmedya/zoneaudit/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr string
	}{
		{name: "json stderr", cfg: config.LoggingConfig{Level: "info", Format: "json"}},
		{name: "text stdout", cfg: config.LoggingConfig{Level: "debug", Format: "text", Output: "stdout"}},
		{name: "file", cfg: config.LoggingConfig{Level: "warn", Format: "json", Output: filepath.Join(dir, "run.log")}},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: "invalid log level"},
		{name: "unwritable file", cfg: config.LoggingConfig{Output: filepath.Join(dir, "missing", "run.log")}, wantErr: "failed to open log file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(&tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
			log.Debug("constructed")
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoneaudit.log")

	log, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.WithRun("run-7").Infow("Analysis complete", "records", 42)
	log.Debug("filtered out")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Analysis complete"`)
	assert.Contains(t, string(data), `"run":"run-7"`)
	assert.Contains(t, string(data), `"records":42`)
	assert.NotContains(t, string(data), "filtered out")
}

func TestNewDefaultAndNop(t *testing.T) {
	assert.NotNil(t, NewDefault())

	nop := NewNop()
	require.NotNil(t, nop)
	nop.Errorw("discarded", "key", "value")
	assert.NoError(t, nop.Sync())
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := fromCore(core)

	log.WithRun("abc").WithProvider("route53").WithChunk(3).WithWorker(2).Warnw("Skipping row", "line", 9)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Skipping row", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["run"])
	assert.Equal(t, "route53", fields["provider"])
	assert.Equal(t, int64(3), fields["chunk"])
	assert.Equal(t, int64(2), fields["worker"])
	assert.Equal(t, int64(9), fields["line"])
}

func TestContextHelpers_DoNotMutateParent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	parent := fromCore(core)

	_ = parent.WithRun("child")
	parent.Info("plain")

	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap(), "run")
}

func TestBuildEncoder(t *testing.T) {
	tests := []struct {
		name   string
		format string
		toFile bool
	}{
		{"json", "json", false},
		{"text terminal", "text", false},
		{"text file", "text", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, buildEncoder(tt.format, tt.toFile))
		})
	}
}

func TestOpenSink(t *testing.T) {
	for _, output := range []string{"", "stderr", "stdout"} {
		sink, toFile, err := openSink(output)
		require.NoError(t, err)
		assert.NotNil(t, sink)
		assert.False(t, toFile)
	}

	sink, toFile, err := openSink(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	assert.NotNil(t, sink)
	assert.True(t, toFile)
}
