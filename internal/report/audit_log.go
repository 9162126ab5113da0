package report

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditLogger appends one JSON object per event to the run log. Fields are
// nested under "fields" so the top-level keys stay fixed.
type AuditLogger struct {
	file   *os.File
	logger *zap.Logger
}

type AuditEvent struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func NewAuditLogger(path string) (*AuditLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && dir != "." {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(f), zapcore.InfoLevel)
	return &AuditLogger{
		file:   f,
		logger: zap.New(core),
	}, nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "event",
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: zapcore.CapitalLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(time.RFC3339Nano))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func (l *AuditLogger) Close() {
	if l == nil || l.file == nil {
		return
	}
	if l.logger != nil {
		_ = l.logger.Sync()
	}
	_ = l.file.Close()
}

func (l *AuditLogger) Info(event string, fields map[string]interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Info(event, zapFields(fields)...)
}

func (l *AuditLogger) Warn(event string, fields map[string]interface{}) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Warn(event, zapFields(fields)...)
}

func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys)+1)
	out = append(out, zap.Namespace("fields"))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
