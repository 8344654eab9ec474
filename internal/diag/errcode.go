package diag

import (
	"context"
	"errors"
	"io/fs"

	"pell/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown      Code = "unknown"
	CodeUsage        Code = "usage"
	CodeDecode       Code = "decode"
	CodeMalformed    Code = "malformed"
	CodePrecondition Code = "precondition"
	CodeCancel       Code = "cancel"
	CodeIO           Code = "io"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	switch {
	case errors.Is(err, contract.ErrUsage):
		return CodeUsage
	case errors.Is(err, contract.ErrNoIntegerPart):
		return CodeDecode
	case errors.Is(err, contract.ErrMalformedConvergent):
		return CodeMalformed
	case errors.Is(err, contract.ErrPrecondition):
		return CodePrecondition
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

