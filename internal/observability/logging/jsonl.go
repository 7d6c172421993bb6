package logging

import (
	"context"
	"io"
	"runtime"

	"github.com/commentguard/commentguard/internal/observability"
	"github.com/commentguard/commentguard/internal/version"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const SchemaVersion = "1.0"

// EventPrefix namespaces event names for SIEM ingestion
const EventPrefix = "commentguard."

type jsonlLogger struct {
	zl       *zap.Logger
	closer   io.Closer
	minLevel zapcore.Level
}

func newJSONLLogger(w io.Writer, closer io.Closer, level string) *jsonlLogger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel,
	)
	return &jsonlLogger{zl: zap.New(core), closer: closer, minLevel: zapLevel(level)}
}

func baseFields(component, opID string) []zap.Field {
	return []zap.Field{
		zap.String("component", component),
		zap.String("op_id", opID),
		zap.String("schema_version", SchemaVersion),
		zap.String("commentguard_version", version.BuildVersion()),
		zap.String("go_version", runtime.Version()),
	}
}

func (j *jsonlLogger) log(level zapcore.Level, component, msg string, fields ...any) {
	if level < j.minLevel {
		return
	}
	ce := j.zl.Check(level, msg)
	if ce == nil {
		return
	}

	// No context available in simple log methods
	zf := baseFields(component, "")
	if len(fields) > 0 {
		m := make(map[string]any)
		for i := 0; i+1 < len(fields); i += 2 {
			if key, ok := fields[i].(string); ok {
				m[key] = fields[i+1]
			}
		}
		zf = append(zf, zap.Any("fields", m))
	}
	ce.Write(zf...)
}

func (j *jsonlLogger) Event(ctx context.Context, event string, fields map[string]any) {
	zf := append([]zap.Field{zap.String("event", EventPrefix+event)}, baseFields("cli", observability.OpID(ctx))...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		zf = append(zf,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if len(fields) > 0 {
		zf = append(zf, zap.Any("fields", fields))
	}
	// events bypass level filtering
	j.zl.Info("", zf...)
}

func (j *jsonlLogger) Debug(component, msg string, fields ...any) {
	j.log(zapcore.DebugLevel, component, msg, fields...)
}

func (j *jsonlLogger) Info(component, msg string, fields ...any) {
	j.log(zapcore.InfoLevel, component, msg, fields...)
}

func (j *jsonlLogger) Warn(component, msg string, fields ...any) {
	j.log(zapcore.WarnLevel, component, msg, fields...)
}

func (j *jsonlLogger) Error(component, msg string, fields ...any) {
	j.log(zapcore.ErrorLevel, component, msg, fields...)
}

func (j *jsonlLogger) Close() error {
	_ = j.zl.Sync()
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
