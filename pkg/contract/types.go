package contract

import "math/big"

// FileID: 逻辑输入源ID（STDIN 为 "stdin"，文件为规范化路径）。
type FileID string

// Tuple: 生成器输出的一行四元组 (u, v, i, j)。
// 约定：(v, i, j) == (0, 0, 0) 时 u 为整数部分 a0；否则 (u, v) 为相邻的两个分母值，i/j 不参与计算。
type Tuple struct {
	U, V, I, J *big.Int
}

// IsIntegerPart 报告该元组是否为整数部分记录。
func (t Tuple) IsIntegerPart() bool {
	return t.V.Sign() == 0 && t.I.Sign() == 0 && t.J.Sign() == 0
}

// Expansion: 解码结果。
// 约束：
// - HasA0 为 false 时 A0 无意义（不以 0 作哨兵）；
// - Qs 非空时 Qs[0] 应为 1（退化的首个分母）。
type Expansion struct {
	A0    *big.Int
	HasA0 bool
	Qs    []*big.Int

	// 统计：读取行数、有效元组数、被跳过的行数。
	Lines   int64
	Tuples  int64
	Skipped int64
}

// NormRecord: 单个收敛子的范数记录，Norm = P² − D·Q²。
type NormRecord struct {
	N    int
	Q    *big.Int
	P    *big.Int
	Norm *big.Int
}

// Solution: 满足范数条件的 (p, q)。
type Solution struct {
	P *big.Int
	Q *big.Int
}

// Kind: 扫描结果分类。
type Kind int

const (
	// None: 既无基本解也无拟解。
	None Kind = iota
	// QuasiOnly: 无基本解，但出现过 norm = −1。
	QuasiOnly
	// Fundamental: 出现 norm = +1。
	Fundamental
)

func (k Kind) String() string {
	switch k {
	case Fundamental:
		return "fundamental"
	case QuasiOnly:
		return "quasi_only"
	default:
		return "none"
	}
}

// Classification: 一次扫描的终态。
type Classification struct {
	Kind        Kind
	Fundamental *Solution // Kind == Fundamental 时非空
	Quasi       *Solution // 首个 norm = −1，可与任一终态共存
	Evaluated   int       // 已输出的收敛子个数（含 n=0）
	Truncated   bool      // 因 max_convergents 提前结束
	Trivial     bool      // n = 0 时 |a0² − D| = 1
}

// Solved: 找到基本解，或平凡收敛子本身已解出 ±1（退出码 0）。
func (c Classification) Solved() bool {
	return c.Kind == Fundamental || c.Trivial
}
