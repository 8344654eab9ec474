package contract

import (
	"fmt"
	"math/big"
	"strings"
)

var bigOne = big.NewInt(1)

// 校验库函数（纯函数，无 I/O）：
// - ParseRadicand:  解析命令行 D（十进制任意精度）
// - CheckRadicand:  D >= 2 且非完全平方数
// - CheckExpansion: 解码结果的结构不变量（a0 存在且为正）
// - CheckIntegerPart: a0 == ⌊√D⌋，即生成器展开的确实是 √D
// - CheckLeadingDenominator: qs[0] == 1（与前一项同属可关闭的前置校验）

// ParseRadicand 解析 D；非整数视为用法错误。
func ParseRadicand(s string) (*big.Int, error) {
	d, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("%w: D must be an integer, got %q", ErrUsage, s)
	}
	return d, nil
}

func CheckRadicand(d *big.Int) error {
	if d == nil || d.Cmp(big.NewInt(2)) < 0 {
		return fmt.Errorf("%w: D must be >= 2, got %v", ErrPrecondition, d)
	}
	r := new(big.Int).Sqrt(d)
	if new(big.Int).Mul(r, r).Cmp(d) == 0 {
		return fmt.Errorf("%w: D=%s is a perfect square", ErrPrecondition, d)
	}
	return nil
}

func CheckExpansion(exp Expansion) error {
	if !exp.HasA0 {
		return ErrNoIntegerPart
	}
	if exp.A0 == nil || exp.A0.Sign() <= 0 {
		return fmt.Errorf("%w: integer part must be positive, got %v", ErrMalformedConvergent, exp.A0)
	}
	return nil
}

// CheckLeadingDenominator: 关闭前置校验时不调用，n = 0 始终按 q = 1 评估。
func CheckLeadingDenominator(qs []*big.Int) error {
	if len(qs) > 0 && qs[0].Cmp(bigOne) != 0 {
		return fmt.Errorf("%w: q0 must be 1, got %s", ErrMalformedConvergent, qs[0])
	}
	return nil
}

func CheckIntegerPart(d, a0 *big.Int) error {
	want := new(big.Int).Sqrt(d)
	if want.Cmp(a0) != 0 {
		return fmt.Errorf("%w: integer part %s does not match floor(sqrt(%s))=%s", ErrPrecondition, a0, d, want)
	}
	return nil
}
