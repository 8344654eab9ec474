package table

import (
	"bufio"
	"context"
	"io"

	"pell/pkg/contract"
)

// Header 为表头行（不含换行）。
const Header = "q\tp\tnorm"

// Options: 最小必要选项。
type Options struct {
	// BufSize: 写缓冲区大小；<=0 使用默认 64KiB。
	BufSize int `json:"buf_size,omitempty"`
}

// Table 以制表符分隔的文本表渲染 NormRecord：q\tp\tnorm。
type Table struct {
	bw *bufio.Writer
}

// New 创建表格 Writer；w 通常为 stdout。
func New(opts *Options, w io.Writer) *Table {
	bsz := 64 * 1024
	if opts != nil && opts.BufSize > 0 {
		bsz = opts.BufSize
	}
	return &Table{bw: bufio.NewWriterSize(w, bsz)}
}

var _ contract.Writer = (*Table)(nil)

func (t *Table) WriteHeader(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bw.WriteString(Header + "\n")
	return err
}

func (t *Table) Write(ctx context.Context, rec contract.NormRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// big.Int.Append 避免中间字符串
	buf := rec.Q.Append(nil, 10)
	buf = append(buf, '\t')
	buf = rec.P.Append(buf, 10)
	buf = append(buf, '\t')
	buf = rec.Norm.Append(buf, 10)
	buf = append(buf, '\n')
	_, err := t.bw.Write(buf)
	return err
}

func (t *Table) Flush() error { return t.bw.Flush() }
