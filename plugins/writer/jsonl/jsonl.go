package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"math/big"

	"pell/pkg/contract"
)

type Options struct {
	BufSize int `json:"buf_size,omitempty"`
}

// line: 每行一个 JSON 对象；big.Int 以 JSON 数字输出（不截断精度）。
type line struct {
	N    int      `json:"n"`
	Q    *big.Int `json:"q"`
	P    *big.Int `json:"p"`
	Norm *big.Int `json:"norm"`
}

// Writer 输出 JSON Lines。
type Writer struct {
	bw  *bufio.Writer
	enc *json.Encoder
}

func New(opts *Options, w io.Writer) *Writer {
	bsz := 64 * 1024
	if opts != nil && opts.BufSize > 0 {
		bsz = opts.BufSize
	}
	bw := bufio.NewWriterSize(w, bsz)
	return &Writer{bw: bw, enc: json.NewEncoder(bw)}
}

var _ contract.Writer = (*Writer)(nil)

func (w *Writer) WriteHeader(ctx context.Context) error { return ctx.Err() }

func (w *Writer) Write(ctx context.Context, rec contract.NormRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.enc.Encode(line{N: rec.N, Q: rec.Q, P: rec.P, Norm: rec.Norm})
}

func (w *Writer) Flush() error { return w.bw.Flush() }
