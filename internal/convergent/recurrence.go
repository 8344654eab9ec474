package convergent

import (
	"fmt"
	"math/big"

	"pell/pkg/contract"
)

// Recurrence 由分母序列 qs 与整数部分 a0 逐项推出分子序列。
//
// 布局：ps[0] = p₋₁ = 1，ps[1] = p₀ = a0，ps[n+1] = pₙ。
// 递推：pₙ = aₙ·pₙ₋₁ + pₙ₋₂，其中 a₁ = q₁（隐含 q₋₁ = 0 且 q₀ = 1），
// n >= 2 时 aₙ = (qₙ − qₙ₋₂) / qₙ₋₁，必须整除。
//
// 计算是惰性的：只推到调用方需要的下标，解之后的坏数据不会被触及。
type Recurrence struct {
	qs []*big.Int
	ps []*big.Int
}

// New 构造递推器；调用方保证 a0 已知（见 contract.CheckExpansion）。
func New(a0 *big.Int, qs []*big.Int) *Recurrence {
	ps := make([]*big.Int, 2, len(qs)+2)
	ps[0] = big.NewInt(1)
	ps[1] = new(big.Int).Set(a0)
	return &Recurrence{qs: qs, ps: ps}
}

// Len 返回可求值的收敛子个数（即 len(qs)，n = 0..Len()-1）；qs 为空时为 1（仅 p₀）。
func (r *Recurrence) Len() int {
	if len(r.qs) == 0 {
		return 1
	}
	return len(r.qs)
}

// Numerator 返回 pₙ（n >= 0），必要时向前推进递推。
func (r *Recurrence) Numerator(n int) (*big.Int, error) {
	if n < 0 || n >= r.Len() {
		return nil, fmt.Errorf("convergent: index %d out of range [0,%d)", n, r.Len())
	}
	for len(r.ps) <= n+1 {
		k := len(r.ps) - 1 // 下一个待求的 pₖ
		a, err := r.partialQuotient(k)
		if err != nil {
			return nil, err
		}
		p := new(big.Int).Mul(a, r.ps[k])
		p.Add(p, r.ps[k-1])
		r.ps = append(r.ps, p)
	}
	return r.ps[n+1], nil
}

// Numerators 一次性推出完整的 ps（长度 max(len(qs)+1, 2)）。
func (r *Recurrence) Numerators() ([]*big.Int, error) {
	if _, err := r.Numerator(r.Len() - 1); err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(r.ps))
	copy(out, r.ps)
	return out, nil
}

// partialQuotient 计算 aₖ（k >= 1），带整除校验。
func (r *Recurrence) partialQuotient(k int) (*big.Int, error) {
	if k == 1 {
		a := r.qs[1]
		if a.Sign() <= 0 {
			return nil, fmt.Errorf("%w: a1=%s must be positive", contract.ErrMalformedConvergent, a)
		}
		return a, nil
	}
	div := r.qs[k-1]
	if div.Sign() == 0 {
		return nil, fmt.Errorf("%w: q%d is zero", contract.ErrMalformedConvergent, k-1)
	}
	num := new(big.Int).Sub(r.qs[k], r.qs[k-2])
	a, rem := new(big.Int).QuoRem(num, div, new(big.Int))
	if rem.Sign() != 0 {
		return nil, fmt.Errorf("%w: (q%d-q%d)/q%d = (%s)/%s is not exact", contract.ErrMalformedConvergent, k, k-2, k-1, num, div)
	}
	if a.Sign() <= 0 {
		return nil, fmt.Errorf("%w: a%d=%s must be positive", contract.ErrMalformedConvergent, k, a)
	}
	return a, nil
}
