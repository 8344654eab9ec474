// Package packed 以 msgpack 流输出 NormRecord（每条一个 map），供下游程序消费。
// 任意精度整数以十进制字符串承载，msgpack 原生整数只有 64 位。
package packed

import (
	"bufio"
	"context"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"pell/pkg/contract"
)

type Options struct {
	BufSize int `json:"buf_size,omitempty"`
}

// Record 是线上格式。
type Record struct {
	N    int    `msgpack:"n"`
	Q    string `msgpack:"q"`
	P    string `msgpack:"p"`
	Norm string `msgpack:"norm"`
}

type Writer struct {
	bw  *bufio.Writer
	enc *msgpack.Encoder
}

func New(opts *Options, w io.Writer) *Writer {
	bsz := 64 * 1024
	if opts != nil && opts.BufSize > 0 {
		bsz = opts.BufSize
	}
	bw := bufio.NewWriterSize(w, bsz)
	enc := msgpack.NewEncoder(bw)
	enc.SetSortMapKeys(true)
	return &Writer{bw: bw, enc: enc}
}

var _ contract.Writer = (*Writer)(nil)

// WriteHeader: msgpack 流自描述，无表头。
func (w *Writer) WriteHeader(ctx context.Context) error { return ctx.Err() }

func (w *Writer) Write(ctx context.Context, rec contract.NormRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.enc.Encode(&Record{N: rec.N, Q: rec.Q.String(), P: rec.P.String(), Norm: rec.Norm.String()})
}

func (w *Writer) Flush() error { return w.bw.Flush() }
