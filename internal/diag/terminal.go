package diag

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"pell/pkg/contract"
)

// Terminal: 诊断流上的人类可读提示（非日志）。
// - 注解（解/拟解/失败摘要）总是输出，且与主输出表格分离；
// - 进度提示仅在 status=true 时输出：TTY 单行 \r 覆盖，非 TTY 仅起止各一行；
// - 并发安全；写失败后进入禁用态为 no-op。
type Terminal struct {
	w      io.Writer
	status bool
	isTTY  bool
	broken bool

	runStart  time.Time
	lastLen   int
	lastFlush time.Time

	mu sync.Mutex
}

// NewTerminal 构造终端提示器；w 为 nil 时使用 stderr。
func NewTerminal(w io.Writer, status bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, status: status}
	// CI 环境视为非 TTY
	if os.Getenv("CI") == "" {
		if f, ok := w.(*os.File); ok {
			if fi, err := f.Stat(); err == nil {
				t.isTTY = fi.Mode()&os.ModeCharDevice != 0
			}
		}
	}
	return t
}

// Quasi: 首个 norm = −1。
func (t *Terminal) Quasi(p, q *big.Int) {
	t.Notef("# Quasi-solution (norm=-1): p=%s, q=%s", p, q)
}

// Fundamental: norm = +1。
func (t *Terminal) Fundamental(p, q *big.Int) {
	t.Notef("# Fundamental solution (norm=1): p=%s, q=%s", p, q)
}

// Summary: 扫描结束后的摘要；已解出（含平凡收敛子）时无需额外输出。
func (t *Terminal) Summary(c contract.Classification) {
	if c.Truncated {
		t.Notef("# Scan truncated after %d convergents", c.Evaluated)
	}
	if c.Solved() {
		return
	}
	switch c.Kind {
	case contract.QuasiOnly:
		t.Notef("# No fundamental solution, but quasi-solution exists")
	case contract.None:
		t.Notef("# No Pell solution found")
	}
}

// Notef 输出一行注解。
func (t *Terminal) Notef(format string, a ...any) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.println(fmt.Sprintf(format, a...))
}

// RunStart: 记录扫描规模。
func (t *Terminal) RunStart(d *big.Int, total int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runStart = time.Now()
	if !t.status {
		return
	}
	t.println(fmt.Sprintf("[run] D=%s | 收敛子 %d", d, total))
}

// Progress: 周期性进度（仅 TTY，≥100ms 节流）。
func (t *Terminal) Progress(done, total int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.status || !t.isTTY {
		return
	}
	now := time.Now()
	if now.Sub(t.lastFlush) < 100*time.Millisecond {
		return
	}
	t.lastFlush = now
	t.printInline(fmt.Sprintf("[scan] %d/%d | 用时 %s", done, total, formatDur(time.Since(t.runStart))))
}

// RunFinish: 结束总览。
func (t *Terminal) RunFinish(ok bool, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.status {
		return
	}
	tag := "ok"
	if !ok {
		tag = "fail"
	}
	t.println(fmt.Sprintf("[%s] 完成 | 总用时 %s", tag, formatDur(dur)))
}

// 内部输出工具（调用方持锁）
func (t *Terminal) println(s string) {
	if t.broken {
		return
	}
	if t.isTTY && t.lastLen > 0 {
		t.printInline("")
		if t.broken {
			return
		}
		if _, err := io.WriteString(t.w, "\r"); err != nil {
			t.broken = true
			return
		}
	}
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		t.broken = true
	}
	t.lastLen = 0
}

func (t *Terminal) printInline(s string) {
	if t.broken {
		return
	}
	// 清尾：若新行比旧短，填充空格覆盖
	pad := 0
	if l := visLen(s); t.lastLen > l {
		pad = t.lastLen - l
	}
	var b strings.Builder
	b.WriteByte('\r')
	b.WriteString(s)
	if pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		t.broken = true
		return
	}
	t.lastLen = visLen(s)
}

func visLen(s string) int { return len([]rune(s)) }

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms <= 0 {
			ms = 0
		}
		return fmt.Sprintf("%dms", ms)
	}
	// 秒，保留 1 位小数
	s := float64(d.Milliseconds()) / 1000.0
	return fmt.Sprintf("%.1fs", s)
}
