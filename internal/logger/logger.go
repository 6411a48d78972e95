// Package logger provides structured logging for zoneaudit using zap.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/zoneaudit/internal/config"
)

// Logger wraps zap.SugaredLogger with run-scoped helpers.
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

// New creates a Logger from configuration. Logs go to stderr by default so reports
// written to stdout stay clean.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	sink, toFile, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(buildEncoder(cfg.Format, toFile), sink, level)
	return fromCore(core), nil
}

// NewDefault creates a Logger at info level with text output on stderr.
func NewDefault() *Logger {
	core := zapcore.NewCore(buildEncoder("text", false), zapcore.Lock(os.Stderr), zapcore.InfoLevel)
	return fromCore(core)
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return fromCore(zapcore.NewNopCore())
}

func fromCore(core zapcore.Core) *Logger {
	base := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// buildEncoder returns a JSON encoder or a console encoder. Level colors are only used
// when the console output is not a file.
func buildEncoder(format string, toFile bool) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	if toFile {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

// openSink resolves the output setting: stderr (default), stdout, or a file path that is
// appended to.
func openSink(output string) (zapcore.WriteSyncer, bool, error) {
	switch output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), false, nil
	case "stdout":
		return zapcore.Lock(os.Stdout), false, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file: %w", err)
	}
	return zapcore.AddSync(f), true, nil
}

// WithRun tags entries with the analysis run ID.
func (l *Logger) WithRun(runID string) *Logger {
	return l.with("run", runID)
}

// WithProvider tags entries with the detected provider.
func (l *Logger) WithProvider(provider string) *Logger {
	return l.with("provider", provider)
}

// WithChunk tags entries with a chunk ID.
func (l *Logger) WithChunk(chunkID int) *Logger {
	return l.with("chunk", chunkID)
}

// WithWorker tags entries with a worker ID.
func (l *Logger) WithWorker(workerID int) *Logger {
	return l.with("worker", workerID)
}

func (l *Logger) with(key string, value interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(key, value), base: l.base}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
