package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	cfgpkg "pell/internal/config"
	"pell/internal/diag"
	"pell/internal/pipeline"
	"pell/pkg/contract"
)

var pipelineRun = pipeline.Run

const usageLine = "Usage: pell [flags] D [input ...] < egypt_output"

// 退出码
const (
	exitFundamental = 0 // 找到基本解
	exitNoSolution  = 1 // 无基本解（可能有拟解）
	exitError       = 2 // 用法/配置/解码/输入错误
)

// CLI：pell [flags] D [input ...]
// 位置参数：D（必需），其后为输入根（文件/目录 或 "-" 表示 STDIN，缺省 STDIN）。
// 全局旗标：--config, --format, --log-level, --max-convergents, --no-precheck, --status, --metrics, --print-config
func main() {
	os.Exit(run(os.Args[1:], os.Environ(), os.Stdout, os.Stderr))
}

func run(args, environ []string, stdout, stderr io.Writer) int {
	start := time.Now()
	corrID := genCorrID()
	// 先按默认级别占位，合并配置后重建
	logger := diag.NewLoggerTo(stderr, corrID, cfgpkg.Defaults().Logging.Level)

	fs := flag.NewFlagSet("pell", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		flagConfig      string
		flagFormat      string
		flagLogLevel    string
		flagMaxConv     int
		flagNoPrecheck  bool
		flagStatus      bool
		flagMetrics     bool
		flagPrintConfig bool
	)
	fs.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）；也可用 PELL_CONFIG_JSON 直接提供")
	fs.StringVar(&flagFormat, "format", "", "输出格式：table|msgpack|jsonl（覆盖配置）")
	fs.StringVar(&flagLogLevel, "log-level", "", "日志级别：debug|info|warn|error|off（覆盖配置）")
	fs.IntVar(&flagMaxConv, "max-convergents", 0, "最多评估的收敛子个数（覆盖配置；负值取消上限）")
	fs.BoolVar(&flagNoPrecheck, "no-precheck", false, "跳过前置校验：D 非平方、a0 == ⌊√D⌋、q0 == 1")
	fs.BoolVar(&flagStatus, "status", false, "终端进度提示（stderr）。TTY 动态刷新；非 TTY 仅起止各一行")
	fs.BoolVar(&flagMetrics, "metrics", false, "结束时以 Prometheus 文本格式输出指标到 stderr")
	fs.BoolVar(&flagPrintConfig, "print-config", false, "输出默认配置模板（JSON）到 stdout 并退出")
	fs.Usage = func() {
		fprintf(stderr, "%s\n", usageLine)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitFundamental
		}
		return exitError
	}

	if flagPrintConfig {
		if err := writeJSON(stdout, cfgpkg.DefaultTemplateConfig()); err != nil {
			fprintf(stderr, "输出配置模板失败: %v\n", err)
			return exitError
		}
		return exitFundamental
	}
	if flagMetrics {
		defer func() { _ = diag.WriteMetrics(stderr) }()
	}

	pos := fs.Args()
	if len(pos) == 0 {
		fprintf(stderr, "%s\n", usageLine)
		return exitError
	}
	d, err := contract.ParseRadicand(pos[0])
	if err != nil {
		fprintf(stderr, "%v\n%s\n", err, usageLine)
		logger.Warn("pipeline", "invalid radicand", map[string]string{"code": string(diag.Classify(err))})
		return exitError
	}

	// JSON 配置（文件或 ENV: PELL_CONFIG_JSON）
	var cfgJSON []byte
	if s := lookupEnv(environ, cfgpkg.EnvPrefix+"CONFIG_JSON"); s != "" {
		cfgJSON = []byte(s)
	}
	cfg := cfgpkg.Defaults()
	if flagConfig != "" || len(cfgJSON) > 0 {
		base, err := cfgpkg.LoadJSON(flagConfig, cfgJSON)
		if err != nil {
			fprintf(stderr, "配置解析失败: %v\n", err)
			logger.Error("config", string(diag.Classify(err)), "first error", &start)
			return exitError
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	// ENV 覆盖
	overEnv, err := cfgpkg.EnvOverlay(environ)
	if err != nil {
		fprintf(stderr, "环境变量解析失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "first error", &start)
		return exitError
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	// CLI 覆盖
	var overCLI cfgpkg.Config
	if len(pos) > 1 {
		overCLI.Inputs = pos[1:]
	}
	overCLI.Components.Writer = strings.TrimSpace(flagFormat)
	overCLI.Logging.Level = flagLogLevel
	overCLI.MaxConvergents = flagMaxConv
	if flagNoPrecheck {
		off := false
		overCLI.Precheck = &off
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		// 打印有效配置，便于诊断
		_ = dumpConfig(stderr, cfg)
		logger.Error("config", string(diag.Classify(err)), "first error", &start)
		return exitError
	}

	// 使用最终配置中的日志级别重建 logger
	logger = diag.NewLoggerTo(stderr, corrID, cfg.Logging.Level)
	defer logger.Sync()

	comp, set, err := cfgpkg.Assemble(cfg, stdout)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "first error", &start)
		return exitError
	}
	set.D = d
	set.Term = diag.NewTerminal(stderr, flagStatus)

	logger.DebugStart("config", "effective", map[string]string{
		"d":               d.String(),
		"inputs_count":    strconv.Itoa(len(cfg.Inputs)),
		"max_convergents": strconv.Itoa(cfg.MaxConvergents),
		"precheck":        strconv.FormatBool(cfg.PrecheckEnabled()),
		"reader":          cfg.Components.Reader,
		"decoder":         cfg.Components.Decoder,
		"writer":          cfg.Components.Writer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := logger.Start("pipeline", "run")
	res, err := pipelineRun(ctx, comp, set, logger)
	if err != nil {
		// 组件级错误已由流水线记录，这里只负责终端提示与退出码
		code := string(diag.Classify(err))
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		switch {
		case errors.Is(err, contract.ErrNoIntegerPart):
			fprintf(stderr, "No integer part found\n")
		case errors.Is(err, context.Canceled):
			// 用户中断，不再重复提示
		default:
			fprintf(stderr, "运行失败: %v\n", err)
		}
		return exitError
	}
	t.Finish("run", int64(res.Evaluated))
	diag.IncOp("pipeline", "finish", "success")
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())
	if res.Solved() {
		return exitFundamental
	}
	return exitNoSolution
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) error {
	fprintf(w, "有效配置:\n")
	return writeJSON(w, c)
}

func writeJSON(w io.Writer, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// lookupEnv 在 KEY=VALUE 列表中查找首个匹配项。
func lookupEnv(environ []string, key string) string {
	for _, kv := range environ {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:]
		}
	}
	return ""
}

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}
