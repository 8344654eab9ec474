package norm

import (
	"context"
	"errors"
	"math/big"

	"pell/internal/convergent"
	"pell/pkg/contract"
)

// State: 扫描状态机。QUASI 不是状态，而是与终态正交的标记。
type State int

const (
	Scanning State = iota
	FoundFundamental
	Exhausted
)

func (s State) String() string {
	switch s {
	case FoundFundamental:
		return "found_fundamental"
	case Exhausted:
		return "exhausted"
	default:
		return "scanning"
	}
}

// ErrTerminal: 终态之后继续 Step。
var ErrTerminal = errors.New("norm: scanner already in terminal state")

var (
	one    = big.NewInt(1)
	negOne = big.NewInt(-1)
)

// Norm 计算 p² − D·q²。
func Norm(d, p, q *big.Int) *big.Int {
	n := new(big.Int).Mul(p, p)
	dq := new(big.Int).Mul(q, q)
	dq.Mul(dq, d)
	return n.Sub(n, dq)
}

// Event: 单步结果。
type Event struct {
	Record contract.NormRecord
	// Quasi: 本步首次出现 norm = −1（之后的 −1 不再置位）。
	Quasi bool
	// Fundamental: 本步 norm = +1，扫描随即终止。
	Fundamental bool
}

// Scanner 是单次线性扫描中贯穿的显式状态记录。
type Scanner struct {
	d         *big.Int
	state     State
	n         int
	quasi     *contract.Solution
	fund      *contract.Solution
	truncated bool
	// trivial: n = 0 的平凡收敛子 (a0, 1) 已满足 |norm| = 1
	trivial bool
}

func NewScanner(d *big.Int) *Scanner {
	return &Scanner{d: d}
}

func (s *Scanner) State() State { return s.state }

// Step 评估下一个收敛子 (q, p)。
func (s *Scanner) Step(q, p *big.Int) (Event, error) {
	if s.state != Scanning {
		return Event{}, ErrTerminal
	}
	ev := Event{Record: contract.NormRecord{N: s.n, Q: q, P: p, Norm: Norm(s.d, p, q)}}
	if s.n == 0 && new(big.Int).Abs(ev.Record.Norm).Cmp(one) == 0 {
		s.trivial = true
	}
	s.n++
	switch {
	case ev.Record.Norm.Cmp(one) == 0:
		s.fund = &contract.Solution{P: p, Q: q}
		s.state = FoundFundamental
		ev.Fundamental = true
	case ev.Record.Norm.Cmp(negOne) == 0 && s.quasi == nil:
		s.quasi = &contract.Solution{P: p, Q: q}
		ev.Quasi = true
	}
	return ev, nil
}

// Exhaust 在序列耗尽（或达到上限）时进入 EXHAUSTED。
func (s *Scanner) Exhaust(truncated bool) {
	if s.state != Scanning {
		return
	}
	s.state = Exhausted
	s.truncated = truncated
}

// Result 返回当前分类；终态之前调用得到的是中间结果。
func (s *Scanner) Result() contract.Classification {
	c := contract.Classification{
		Fundamental: s.fund,
		Quasi:       s.quasi,
		Evaluated:   s.n,
		Truncated:   s.truncated,
		Trivial:     s.trivial,
	}
	switch {
	case s.fund != nil:
		c.Kind = contract.Fundamental
	case s.quasi != nil:
		c.Kind = contract.QuasiOnly
	}
	return c
}

// Scan 对 (a0, qs) 的全部收敛子执行扫描，逐条回调 emit。
// n = 0 使用 q = 1, p = a0；n >= 1 使用 q = qs[n], p = pₙ。
// limit > 0 时最多评估 limit 个收敛子，剩余部分视为截断。
func Scan(ctx context.Context, d, a0 *big.Int, qs []*big.Int, limit int, emit func(Event) error) (contract.Classification, error) {
	s := NewScanner(d)
	rec := convergent.New(a0, qs)
	total := rec.Len()
	for n := 0; n < total; n++ {
		if limit > 0 && n >= limit {
			s.Exhaust(true)
			return s.Result(), nil
		}
		if n%256 == 0 {
			select {
			case <-ctx.Done():
				return s.Result(), ctx.Err()
			default:
			}
		}
		p, err := rec.Numerator(n)
		if err != nil {
			return s.Result(), err
		}
		q := big.NewInt(1)
		if n > 0 {
			q = qs[n]
		}
		ev, err := s.Step(q, p)
		if err != nil {
			return s.Result(), err
		}
		if emit != nil {
			if err := emit(ev); err != nil {
				return s.Result(), err
			}
		}
		if s.State() == FoundFundamental {
			return s.Result(), nil
		}
	}
	s.Exhaust(false)
	return s.Result(), nil
}
