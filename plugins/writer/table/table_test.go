package table

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pell/pkg/contract"
)

func rec(n int, q, p, norm int64) contract.NormRecord {
	return contract.NormRecord{N: n, Q: big.NewInt(q), P: big.NewInt(p), Norm: big.NewInt(norm)}
}

// UT-WTB-01: 表头 + 行，Flush 前不落盘
func TestTableWrite(t *testing.T) {
	var buf bytes.Buffer
	w := New(nil, &buf)
	ctx := context.Background()
	require.NoError(t, w.WriteHeader(ctx))
	require.NoError(t, w.Write(ctx, rec(0, 1, 1, -1)))
	require.NoError(t, w.Write(ctx, rec(1, 2, 3, 1)))
	assert.Equal(t, 0, buf.Len())
	require.NoError(t, w.Flush())
	assert.Equal(t, "q\tp\tnorm\n1\t1\t-1\n2\t3\t1\n", buf.String())
}

func TestTableBigValues(t *testing.T) {
	var buf bytes.Buffer
	w := New(&Options{BufSize: 8}, &buf)
	q, _ := new(big.Int).SetString("15140424455100", 10)
	p, _ := new(big.Int).SetString("158070671986249", 10)
	require.NoError(t, w.Write(context.Background(), contract.NormRecord{N: 30, Q: q, P: p, Norm: big.NewInt(1)}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "15140424455100\t158070671986249\t1\n", buf.String())
}

func TestTableCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := New(nil, &bytes.Buffer{})
	assert.ErrorIs(t, w.WriteHeader(ctx), context.Canceled)
	assert.ErrorIs(t, w.Write(ctx, rec(0, 1, 1, -1)), context.Canceled)
}
