package diag

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// 指标（进程内私有 registry；--metrics 时以文本格式输出）：
// - pell_op_total{comp,stage,result}
// - pell_error_total{comp,code}
// - pell_op_duration_ms{comp,stage}
// - pell_convergents_total
var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	opTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pell",
		Name:      "op_total",
		Help:      "Operations by component, stage and result",
	}, []string{"comp", "stage", "result"})

	errorTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pell",
		Name:      "error_total",
		Help:      "Errors by component and classification code",
	}, []string{"comp", "code"})

	opDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pell",
		Name:      "op_duration_ms",
		Help:      "Stage duration in milliseconds",
		Buckets:   []float64{1, 5, 25, 100, 500, 2500, 10000},
	}, []string{"comp", "stage"})

	convergentsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "pell",
		Name:      "convergents_total",
		Help:      "Convergents evaluated by the norm scan",
	})
)

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	errorTotal.WithLabelValues(comp, code).Inc()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// AddConvergents 累加已评估的收敛子个数。
func AddConvergents(n int) {
	if n > 0 {
		convergentsTotal.Add(float64(n))
	}
}

// WriteMetrics 以 Prometheus 文本格式输出全部指标。
func WriteMetrics(w io.Writer) error {
	mfs, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
