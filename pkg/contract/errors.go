package contract

import "errors"

// 最小错误分类（哨兵）。调用方以 %w 包装，以 errors.Is 判定。
var (
	// ErrUsage: 命令行用法错误（例如缺少 D）。
	ErrUsage = errors.New("usage error")
	// ErrNoIntegerPart: 输入流中未出现整数部分元组 (a0, 0, 0, 0)。
	ErrNoIntegerPart = errors.New("no integer part found")
	// ErrMalformedConvergent: 分母序列不满足连分数递推（整除失败、零除数、部分商非正、q0 != 1）。
	ErrMalformedConvergent = errors.New("malformed convergent")
	// ErrPrecondition: 输入前置条件不满足（D 非正/为完全平方数、a0 与 ⌊√D⌋ 不符）。
	ErrPrecondition = errors.New("precondition failed")
)
