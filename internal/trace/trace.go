// Package trace 在 context 中传递 trace ID，Log 时每行带 trace 字段便于排查。
// 底层用 zap 输出，默认 production 配置，SetLogger 可替换（测试用 zap.NewNop）。
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey int

const traceIDKey ctxKey = 0

// 没有 trace ID 时的占位
const noTraceID = "-"

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

func NewTraceID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "0"
	}
	return hex.EncodeToString(b)
}

var (
	loggerMu sync.RWMutex
	base     = zap.NewNop()
)

// Init 按 verbose 构建 production logger 并设为全局；返回的 logger 由调用方在退出前 Sync。
func Init(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("trace: build logger: %w", err)
	}
	SetLogger(l)
	return l, nil
}

// SetLogger 替换全局 logger，nil 表示丢弃日志。
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	base = l
	loggerMu.Unlock()
}

// Logger 返回带 trace 字段的 logger，供需要结构化字段的调用方使用。
func Logger(ctx context.Context) *zap.Logger {
	loggerMu.RLock()
	l := base
	loggerMu.RUnlock()
	id := TraceID(ctx)
	if id == "" {
		id = noTraceID
	}
	return l.With(zap.String("trace", id))
}

// Log 打日志，每行固定带 trace=id，便于一眼看到 trace 并 grep
func Log(ctx context.Context, format string, args ...interface{}) {
	Logger(ctx).WithOptions(zap.AddCallerSkip(1)).Info(fmt.Sprintf(format, args...))
}

// Debug 同 Log，debug 级别。
func Debug(ctx context.Context, format string, args ...interface{}) {
	Logger(ctx).WithOptions(zap.AddCallerSkip(1)).Debug(fmt.Sprintf(format, args...))
}
