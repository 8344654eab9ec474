package diag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pell/pkg/contract"
)

// UT-DIAG-01: 错误分类
func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, CodeUnknown},
		{context.Canceled, CodeCancel},
		{fmt.Errorf("run: %w", context.DeadlineExceeded), CodeCancel},
		{fmt.Errorf("args: %w", contract.ErrUsage), CodeUsage},
		{fmt.Errorf("decode: %w", contract.ErrNoIntegerPart), CodeDecode},
		{fmt.Errorf("scan: %w", contract.ErrMalformedConvergent), CodeMalformed},
		{contract.ErrPrecondition, CodePrecondition},
		{&fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}, CodeIO},
		{errors.New("other"), CodeUnknown},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, Classify(c.err), "err=%v", c.err)
	}
}

// UT-DIAG-02: 日志事件字段与级别过滤
func TestLoggerEvents(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLoggerWithCore("corr-1", core)

	tm := l.Start("decoder", "decode")
	tm.Finish("decode", 7)
	l.DebugStart("config", "effective", map[string]string{"d": "2"})
	start := time.Now()
	l.ErrorWithKV("scan", string(CodeMalformed), "scan failed", &start, map[string]string{"n": "3"})
	l.Warn("decoder", "skipped lines", map[string]string{"skipped": "2"})
	l.Debug("decoder", "skipped malformed lines", map[string]string{"skipped": "2"})

	entries := logs.All()
	require.Len(t, entries, 4, "debug 事件应被过滤")
	assert.Equal(t, "decode", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "decoder", ctx["comp"])
	assert.Equal(t, "start", ctx["stage"])
	assert.Equal(t, "corr-1", ctx["corr_id"])

	fin := entries[1].ContextMap()
	assert.Equal(t, "finish", fin["stage"])
	assert.Equal(t, int64(7), fin["count"])

	errCtx := entries[2].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "malformed", errCtx["code"])
	assert.Contains(t, errCtx, "dur_ms")
	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)
}

func TestLoggerDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerWithCore("", core)
	l.Debug("decoder", "skipped malformed lines", map[string]string{"skipped": "5"})
	entries := logs.FilterMessage("skipped malformed lines").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "debug", entries[0].ContextMap()["stage"])

	// 默认 error 级别下 debug/warn 均不输出
	var buf bytes.Buffer
	quiet := NewLoggerTo(&buf, "abc", "error")
	quiet.Debug("decoder", "skipped malformed lines", nil)
	quiet.Warn("scanner", "scan truncated", nil)
	quiet.Sync()
	assert.Empty(t, buf.String())
}

// UT-DIAG-03: JSON 输出与 off 级别
func TestLoggerJSONAndOff(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "abc", "warn")
	l.Start("pipeline", "run") // info 被过滤
	l.Error("pipeline", "decode", "first error", nil)
	l.Sync()
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"corr_id":"abc"`)
	assert.Contains(t, out, `"code":"decode"`)

	buf.Reset()
	off := NewLoggerTo(&buf, "abc", "off")
	off.Error("pipeline", "decode", "x", nil)
	assert.Empty(t, buf.String())

	var nilLogger *Logger
	nilLogger.Error("a", "b", "c", nil)
	nilLogger.Start("a", "b").Finish("c", 1)
}

func TestParseLevel(t *testing.T) {
	lv, ok := ParseLevel("DEBUG")
	assert.True(t, ok)
	assert.Equal(t, zapcore.DebugLevel, lv)
	lv, ok = ParseLevel("warn")
	assert.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, lv)
	lv, ok = ParseLevel("bogus")
	assert.True(t, ok)
	assert.Equal(t, zapcore.ErrorLevel, lv)
	_, ok = ParseLevel("none")
	assert.False(t, ok)
}

// UT-DIAG-04: 注解格式
func TestTerminalAnnotations(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, false)
	term.Quasi(big.NewInt(1), big.NewInt(1))
	term.Fundamental(big.NewInt(3), big.NewInt(2))
	term.Summary(contract.Classification{Kind: contract.Fundamental})
	term.Summary(contract.Classification{Kind: contract.QuasiOnly})
	term.Summary(contract.Classification{Kind: contract.None, Truncated: true, Evaluated: 4})
	// 平凡收敛子已解出时不输出“未找到”摘要
	term.Summary(contract.Classification{Kind: contract.QuasiOnly, Trivial: true})
	want := strings.Join([]string{
		"# Quasi-solution (norm=-1): p=1, q=1",
		"# Fundamental solution (norm=1): p=3, q=2",
		"# No fundamental solution, but quasi-solution exists",
		"# Scan truncated after 4 convergents",
		"# No Pell solution found",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

// UT-DIAG-05: status 关闭时进度静默；非 TTY 不输出 inline 进度
func TestTerminalStatus(t *testing.T) {
	var buf bytes.Buffer
	quiet := NewTerminal(&buf, false)
	quiet.RunStart(big.NewInt(61), 22)
	quiet.Progress(1, 22)
	quiet.RunFinish(true, time.Second)
	assert.Empty(t, buf.String())

	loud := NewTerminal(&buf, true)
	loud.RunStart(big.NewInt(61), 22)
	loud.Progress(1, 22)
	loud.RunFinish(false, 1500*time.Millisecond)
	out := buf.String()
	assert.Contains(t, out, "[run] D=61 | 收敛子 22")
	assert.Contains(t, out, "[fail]")
	assert.Contains(t, out, "1.5s")
	assert.NotContains(t, out, "[scan]")

	var nilTerm *Terminal
	nilTerm.Quasi(big.NewInt(1), big.NewInt(1))
	nilTerm.Summary(contract.Classification{})
}

type failWriter struct{ n int }

func (f *failWriter) Write(p []byte) (int, error) {
	f.n++
	return 0, errors.New("closed")
}

func TestTerminalDisablesOnWriteError(t *testing.T) {
	fw := &failWriter{}
	term := NewTerminal(fw, false)
	term.Notef("a")
	term.Notef("b")
	assert.Equal(t, 1, fw.n)
}

// UT-DIAG-06: 指标累加与文本导出
func TestMetrics(t *testing.T) {
	before := testutil.ToFloat64(opTotal.WithLabelValues("test", "finish", "success"))
	IncOp("test", "finish", "success")
	assert.Equal(t, before+1, testutil.ToFloat64(opTotal.WithLabelValues("test", "finish", "success")))

	IncError("test", string(CodeDecode))
	assert.GreaterOrEqual(t, testutil.ToFloat64(errorTotal.WithLabelValues("test", "decode")), 1.0)

	c0 := testutil.ToFloat64(convergentsTotal)
	AddConvergents(5)
	AddConvergents(0)
	assert.Equal(t, c0+5, testutil.ToFloat64(convergentsTotal))

	ObserveDuration("test", "finish", 12)

	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf))
	out := buf.String()
	assert.Contains(t, out, "pell_op_total")
	assert.Contains(t, out, "pell_error_total")
	assert.Contains(t, out, "pell_op_duration_ms_bucket")
	assert.Contains(t, out, "pell_convergents_total")
}

func TestFormatDur(t *testing.T) {
	assert.Equal(t, "0ms", formatDur(0))
	assert.Equal(t, "250ms", formatDur(250*time.Millisecond))
	assert.Equal(t, "2.0s", formatDur(2*time.Second))
}
