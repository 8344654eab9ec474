package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"pell/internal/diag"
	"pell/internal/norm"
	"pell/pkg/contract"
)

// - 单线程同步：Reader → Decoder → 校验 → 范数扫描 → Writer，无内部并发。
// - 主输出（表格/记录）只经 Writer；注解与进度只经 Terminal（诊断流）。
// - 解码/校验失败时主输出为空；扫描中途失败时已写出的行照常冲刷。
// - 首个 norm=+1 即停；其后的输入数据不参与递推。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader  contract.Reader
	Decoder contract.Decoder
	Writer  contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// D: 被开方数（调用方解析）
	D *big.Int
	// 输入根；空时由 Reader 视为 STDIN
	Inputs []string
	// MaxConvergents: 收敛子上限；<=0 不限
	MaxConvergents int
	// Precheck: 是否校验 D 非平方且 a0 == ⌊√D⌋
	Precheck bool
	// Term: 注解/进度输出；nil 时静默
	Term *diag.Terminal
}

// Run 执行完整流水线并返回分类结果。
// 返回的错误均已按哨兵包装，可由 diag.Classify 归类。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (contract.Classification, error) {
	var none contract.Classification
	if err := sanity(comp, set); err != nil {
		return none, fmt.Errorf("sanity: %w", err)
	}
	fail := func(c, msg string, err error, since *time.Time, kv map[string]string) {
		code := diag.Classify(err)
		if kv == nil {
			kv = map[string]string{}
		}
		kv["err"] = err.Error()
		if reported(code) {
			// 输入/前置条件错误由调用方在终端上报一次，这里降为 warn
			kv["code"] = string(code)
			logger.Warn(c, msg, kv)
		} else {
			logger.ErrorWithKV(c, string(code), msg, since, kv)
		}
		diag.IncOp(c, "error", "error")
		if code != diag.CodeUnknown {
			diag.IncError(c, string(code))
		}
	}

	if set.Precheck {
		if err := contract.CheckRadicand(set.D); err != nil {
			fail("pipeline", "precheck failed", err, nil, nil)
			return none, err
		}
	}

	// 读取 + 解码：多个输入视为一条连续的四元组流
	dstart := time.Now()
	dtimer := logger.Start("decoder", "decode")
	files := 0
	err := comp.Reader.Iterate(ctx, set.Inputs, func(id contract.FileID, rc io.ReadCloser) error {
		files++
		logger.DebugStart("reader", "open", map[string]string{"file": string(id)})
		if err := comp.Decoder.Feed(ctx, id, rc); err != nil {
			return fmt.Errorf("decode %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		fail("decoder", "read failed", err, &dstart, nil)
		return none, fmt.Errorf("reader iterate: %w", err)
	}
	exp, err := comp.Decoder.Finish()
	if exp.Skipped > 0 {
		logger.Debug("decoder", "skipped malformed lines", map[string]string{
			"skipped": strconv.FormatInt(exp.Skipped, 10),
			"lines":   strconv.FormatInt(exp.Lines, 10),
		})
	}
	if err != nil {
		fail("decoder", "decode failed", err, &dstart, map[string]string{"lines": strconv.FormatInt(exp.Lines, 10)})
		return none, fmt.Errorf("decoder finish: %w", err)
	}
	dtimer.Finish("decode", exp.Tuples)
	diag.IncOp("decoder", "finish", "success")

	if err := contract.CheckExpansion(exp); err != nil {
		fail("pipeline", "expansion invalid", err, nil, nil)
		return none, err
	}
	if set.Precheck {
		if err := contract.CheckIntegerPart(set.D, exp.A0); err != nil {
			fail("pipeline", "precheck failed", err, nil, nil)
			return none, err
		}
		if err := contract.CheckLeadingDenominator(exp.Qs); err != nil {
			fail("pipeline", "expansion invalid", err, nil, nil)
			return none, err
		}
	}

	// 扫描
	total := len(exp.Qs)
	if total == 0 {
		total = 1
	}
	if set.MaxConvergents > 0 && set.MaxConvergents < total {
		total = set.MaxConvergents
	}
	set.Term.RunStart(set.D, total)
	sstart := time.Now()
	stimer := logger.Start("scanner", "scan")

	if err := comp.Writer.WriteHeader(ctx); err != nil {
		fail("writer", "write header failed", err, nil, nil)
		return none, fmt.Errorf("writer header: %w", err)
	}
	emit := func(ev norm.Event) error {
		if err := comp.Writer.Write(ctx, ev.Record); err != nil {
			return fmt.Errorf("writer write: %w", err)
		}
		if ev.Quasi {
			set.Term.Quasi(ev.Record.P, ev.Record.Q)
		}
		if ev.Fundamental {
			set.Term.Fundamental(ev.Record.P, ev.Record.Q)
		}
		set.Term.Progress(ev.Record.N+1, total)
		return nil
	}
	res, serr := norm.Scan(ctx, set.D, exp.A0, exp.Qs, set.MaxConvergents, emit)
	// 扫描失败时也冲刷已写出的行
	ferr := comp.Writer.Flush()
	diag.AddConvergents(res.Evaluated)
	if serr == nil && ferr != nil {
		serr = fmt.Errorf("writer flush: %w", ferr)
	}
	if serr != nil {
		fail("scanner", "scan failed", serr, &sstart, map[string]string{"evaluated": strconv.Itoa(res.Evaluated)})
		set.Term.RunFinish(false, time.Since(sstart))
		return res, serr
	}
	stimer.Finish("scan", int64(res.Evaluated))
	diag.IncOp("scanner", "finish", "success")
	if res.Truncated {
		logger.Warn("scanner", "scan truncated", map[string]string{"limit": strconv.Itoa(set.MaxConvergents)})
	}
	set.Term.Summary(res)
	set.Term.RunFinish(res.Solved(), time.Since(sstart))
	return res, nil
}

// reported: 属于用户输入问题的分类，调用方会以人类可读的方式输出。
func reported(code diag.Code) bool {
	switch code {
	case diag.CodeUsage, diag.CodeDecode, diag.CodeMalformed, diag.CodePrecondition, diag.CodeCancel:
		return true
	}
	return false
}

func sanity(comp Components, set Settings) error {
	if comp.Reader == nil || comp.Decoder == nil || comp.Writer == nil {
		return errors.New("nil component")
	}
	if set.D == nil {
		return errors.New("radicand not set")
	}
	return nil
}
