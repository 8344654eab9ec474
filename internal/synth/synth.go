// Package synth 生成 √D 的连分数分母序列及其元组流，供测试与本地调试使用。
// 生产环境的元组流来自外部生成器；这里只提供已知正确的对照数据。
package synth

import (
	"fmt"
	"math/big"
	"strings"
)

// Expand 返回 √D 的整数部分 a0 与前 terms 个分母 q₀..q_{terms-1}。
// 使用标准的 (m, d, a) 迭代；D 必须为非完全平方正整数。
func Expand(d int64, terms int) (*big.Int, []*big.Int) {
	a0 := new(big.Int).Sqrt(big.NewInt(d))
	a0i := a0.Int64()
	qs := make([]*big.Int, 0, terms)
	prev, cur := big.NewInt(0), big.NewInt(1) // q₋₁, q₀
	if terms > 0 {
		qs = append(qs, new(big.Int).Set(cur))
	}
	m, den, a := int64(0), int64(1), a0i
	for len(qs) < terms {
		m = den*a - m
		den = (d - m*m) / den
		a = (a0i + m) / den
		next := new(big.Int).Mul(big.NewInt(a), cur)
		next.Add(next, prev)
		prev, cur = cur, next
		qs = append(qs, new(big.Int).Set(cur))
	}
	return a0, qs
}

// Mode 控制分母序列如何切成元组。
type Mode int

const (
	// Pairs: 不重叠的成对元组 (q0,q1),(q2,q3)…；奇数尾项与前一项共享边界。
	Pairs Mode = iota
	// Sliding: 相邻重叠元组 (q0,q1),(q1,q2)…，依赖解码端去重。
	Sliding
)

// Tuples 将 (a0, qs) 编码为生成器的原始输出（制表符分隔，每行一个元组）。
// len(qs) 必须为 0 或 >= 2：每个分数元组都至少带出两个分母。
func Tuples(a0 *big.Int, qs []*big.Int, mode Mode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t0\t0\t0\n", a0)
	emit := func(k int, u, v *big.Int) {
		fmt.Fprintf(&b, "%s\t%s\t1\t%d\n", u, v, k+1)
	}
	switch mode {
	case Sliding:
		for k := 0; k+1 < len(qs); k++ {
			emit(k, qs[k], qs[k+1])
		}
	default:
		for k := 0; k < len(qs); k += 2 {
			if k+1 < len(qs) {
				emit(k, qs[k], qs[k+1])
			} else if k > 0 {
				emit(k, qs[k-1], qs[k])
			}
		}
	}
	return b.String()
}

// Stream 等价于 Tuples(Expand(d, terms))。
func Stream(d int64, terms int, mode Mode) string {
	a0, qs := Expand(d, terms)
	return Tuples(a0, qs, mode)
}
