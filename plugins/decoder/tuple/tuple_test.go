package tuple

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pell/internal/synth"
	"pell/pkg/contract"
)

func qsStrings(xs []*big.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}

// UT-DEC-01: 整数部分 + 成对元组
func TestDecodeBasic(t *testing.T) {
	in := "1\t0\t0\t0\n1\t2\t1\t1\n5\t12\t1\t3\n"
	exp, err := Decode(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.True(t, exp.HasA0)
	assert.Equal(t, "1", exp.A0.String())
	assert.Equal(t, []string{"1", "2", "5", "12"}, qsStrings(exp.Qs))
	assert.Equal(t, int64(3), exp.Lines)
	assert.Equal(t, int64(3), exp.Tuples)
	assert.Equal(t, int64(0), exp.Skipped)
}

// UT-DEC-02: 相邻元组共享边界值时不重复追加
func TestDecodeSharedBoundary(t *testing.T) {
	in := "1\t0\t0\t0\n1\t2\t1\t1\n2\t5\t1\t2\n5\t12\t1\t3\n"
	exp, err := Decode(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "5", "12"}, qsStrings(exp.Qs))
}

// UT-DEC-03: 格式不符的行静默跳过
func TestDecodeSkipsMalformed(t *testing.T) {
	in := strings.Join([]string{
		"# egypt raw output",
		"",
		"1\t2\t3",
		"1\t2\t3\t4\t5",
		"x\t0\t0\t0",
		"1 0 0 0",
		"3\t0\t0\t0",
		"1\t3\t1\t1",
	}, "\n")
	exp, err := Decode(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "3", exp.A0.String())
	assert.Equal(t, []string{"1", "3"}, qsStrings(exp.Qs))
	assert.Equal(t, int64(6), exp.Skipped)
	assert.Equal(t, int64(2), exp.Tuples)
}

// UT-DEC-04: 无整数部分 → ErrNoIntegerPart
func TestDecodeNoIntegerPart(t *testing.T) {
	_, err := Decode(context.Background(), strings.NewReader("garbage\n1\t2\t1\t1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrNoIntegerPart))

	_, err = Decode(context.Background(), strings.NewReader(""))
	assert.True(t, errors.Is(err, contract.ErrNoIntegerPart))
}

// UT-DEC-05: 多个整数部分元组时后者覆盖前者
func TestDecodeLastIntegerPartWins(t *testing.T) {
	exp, err := Decode(context.Background(), strings.NewReader("2\t0\t0\t0\n7\t0\t0\t0\n"))
	require.NoError(t, err)
	assert.Equal(t, "7", exp.A0.String())
	assert.Empty(t, exp.Qs)
}

// UT-DEC-06: 往返：由已知分母序列合成元组流，解码后逐项一致
func TestDecodeRoundTrip(t *testing.T) {
	for _, d := range []int64{2, 3, 7, 13, 61, 94, 421} {
		for _, mode := range []synth.Mode{synth.Pairs, synth.Sliding} {
			for _, terms := range []int{2, 3, 10, 31} {
				a0, qs := synth.Expand(d, terms)
				exp, err := Decode(context.Background(), strings.NewReader(synth.Tuples(a0, qs, mode)))
				require.NoError(t, err)
				assert.Equalf(t, a0.String(), exp.A0.String(), "D=%d", d)
				assert.Equalf(t, qsStrings(qs), qsStrings(exp.Qs), "D=%d mode=%d terms=%d", d, mode, terms)
			}
		}
	}
}

// UT-DEC-07: 状态跨多个输入累积
func TestFeedAcrossInputs(t *testing.T) {
	d := New(nil)
	ctx := context.Background()
	require.NoError(t, d.Feed(ctx, "a", strings.NewReader("1\t2\t1\t1\n")))
	require.NoError(t, d.Feed(ctx, "b", strings.NewReader("2\t5\t1\t2\n1\t0\t0\t0\n")))
	exp, err := d.Finish()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "5"}, qsStrings(exp.Qs))
	assert.Equal(t, "1", exp.A0.String())
}

func TestOptionsSeparatorAndSpaces(t *testing.T) {
	d := New(&Options{Separator: ","})
	require.NoError(t, d.Feed(context.Background(), "csv", strings.NewReader(" 1, 0, 0, 0 \n1,2,1,1\n")))
	exp, err := d.Finish()
	require.NoError(t, err)
	assert.Equal(t, "1", exp.A0.String())
	assert.Equal(t, []string{"1", "2"}, qsStrings(exp.Qs))
}

// UT-DEC-08: 超长行计为跳过，后续行照常解码
func TestLineTooLongSkipped(t *testing.T) {
	d := New(&Options{MaxLineBytes: 16})
	in := strings.Repeat("9", 64) + "\t0\t0\t0\n" +
		"1\t0\t0\t0" + strings.Repeat(" ", 9) + "\n" + // 恰好 16 字节
		"1\t2\t1\t1\n" +
		strings.Repeat("7", 40) + "\n" +
		"2\t5\t1\t2" // 末行无换行
	require.NoError(t, d.Feed(context.Background(), "big", strings.NewReader(in)))
	exp, err := d.Finish()
	require.NoError(t, err)
	assert.Equal(t, "1", exp.A0.String())
	assert.Equal(t, []string{"1", "2", "5"}, qsStrings(exp.Qs))
	assert.Equal(t, int64(5), exp.Lines)
	assert.Equal(t, int64(2), exp.Skipped)
	assert.Equal(t, int64(3), exp.Tuples)

	// 仅有超长行：与畸形输入同样得到 ErrNoIntegerPart
	d = New(&Options{MaxLineBytes: 16})
	require.NoError(t, d.Feed(context.Background(), "big", strings.NewReader(strings.Repeat("9", 100))))
	_, err = d.Finish()
	assert.ErrorIs(t, err, contract.ErrNoIntegerPart)
}

func TestFeedCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(nil).Feed(ctx, "stdin", strings.NewReader("1\t0\t0\t0\n"))
	assert.True(t, errors.Is(err, context.Canceled))
}
