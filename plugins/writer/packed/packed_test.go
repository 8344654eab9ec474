package packed

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"pell/pkg/contract"
)

func TestPackedStream(t *testing.T) {
	var buf bytes.Buffer
	w := New(nil, &buf)
	ctx := context.Background()
	require.NoError(t, w.WriteHeader(ctx))
	require.NoError(t, w.Write(ctx, contract.NormRecord{N: 0, Q: big.NewInt(1), P: big.NewInt(1), Norm: big.NewInt(-1)}))
	require.NoError(t, w.Write(ctx, contract.NormRecord{N: 1, Q: big.NewInt(2), P: big.NewInt(3), Norm: big.NewInt(1)}))
	require.NoError(t, w.Flush())

	dec := msgpack.NewDecoder(&buf)
	var got []Record
	for {
		var r Record
		err := dec.Decode(&r)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, r)
	}
	assert.Equal(t, []Record{
		{N: 0, Q: "1", P: "1", Norm: "-1"},
		{N: 1, Q: "2", P: "3", Norm: "1"},
	}, got)
}

func TestPackedCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := New(&Options{BufSize: 32}, io.Discard)
	assert.ErrorIs(t, w.WriteHeader(ctx), context.Canceled)
	assert.ErrorIs(t, w.Write(ctx, contract.NormRecord{Q: big.NewInt(1), P: big.NewInt(1), Norm: big.NewInt(0)}), context.Canceled)
}
