package diag

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 为结构化日志器：单行 JSON 输出（默认 stderr），字段沿用 comp/stage/code/dur_ms/count/kv。
// 所有方法对 nil 接收者安全（no-op）。
type Logger struct {
	z *zap.Logger
}

// NewLogger 按配置的 level 初始化，输出到 stderr。
func NewLogger(corrID, level string) *Logger {
	return NewLoggerTo(os.Stderr, corrID, level)
}

// NewLoggerTo 输出到指定 io.Writer。level 为 off/none 时返回 no-op 日志器。
func NewLoggerTo(w io.Writer, corrID, level string) *Logger {
	lvl, ok := ParseLevel(level)
	if !ok {
		return &Logger{z: zap.NewNop()}
	}
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), lvl)
	return NewLoggerWithCore(corrID, core)
}

// NewLoggerWithCore 使用外部 core（测试中配合 zaptest/observer）。
func NewLoggerWithCore(corrID string, core zapcore.Core) *Logger {
	z := zap.New(core)
	if corrID != "" {
		z = z.With(zap.String("corr_id", corrID))
	}
	return &Logger{z: z}
}

// ParseLevel 解析 debug|info|warn|error；off/none 返回 ok=false；其他值按 error 处理。
func ParseLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "off", "none":
		return zapcore.InvalidLevel, false
	default:
		return zapcore.ErrorLevel, true
	}
}

func fields(comp, stage string, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{zap.String("comp", comp), zap.String("stage", stage)}, extra...)
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	if l == nil {
		return nil
	}
	l.z.Info(msg, fields(comp, "start")...)
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWithKV(comp, code, msg, durSince, nil)
}

// ErrorWithKV 支持附带键值对（例如出错的下标、原始错误文本）。
func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, kv map[string]string) {
	if l == nil {
		return
	}
	fs := fields(comp, "error", zap.String("code", code))
	if durSince != nil {
		fs = append(fs, zap.Int64("dur_ms", time.Since(*durSince).Milliseconds()))
	}
	if len(kv) > 0 {
		fs = append(fs, zap.Any("kv", kv))
	}
	l.z.Error(msg, fs...)
}

// Warn 记录非致命提示（例如截断、已在终端上报过的输入错误）。
func (l *Logger) Warn(comp, msg string, kv map[string]string) {
	if l == nil {
		return
	}
	fs := fields(comp, "warn")
	if len(kv) > 0 {
		fs = append(fs, zap.Any("kv", kv))
	}
	l.z.Warn(msg, fs...)
}

// Debug 记录调试事件（例如跳过的输入行）。
func (l *Logger) Debug(comp, msg string, kv map[string]string) {
	if l == nil {
		return
	}
	fs := fields(comp, "debug")
	if len(kv) > 0 {
		fs = append(fs, zap.Any("kv", kv))
	}
	l.z.Debug(msg, fs...)
}

// DebugStart 输出调试级别的“start”类事件（仅在 level=debug 时生效）。
func (l *Logger) DebugStart(comp, msg string, kv map[string]string) {
	if l == nil {
		return
	}
	l.z.Debug(msg, fields(comp, "start", zap.Any("kv", kv))...)
}

// Sync 刷新底层输出。
func (l *Logger) Sync() {
	if l == nil {
		return
	}
	_ = l.z.Sync()
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l    *Logger
	comp string
	t0   time.Time
}

// Finish 记录 finish；可选 count。同时上报阶段耗时指标。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	dur := time.Since(t.t0).Milliseconds()
	t.l.z.Info(msg, fields(t.comp, "finish", zap.Int64("dur_ms", dur), zap.Int64("count", count))...)
	ObserveDuration(t.comp, "finish", dur)
}
