package tuple

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"pell/pkg/contract"
)

// Options: 解码宽松度的最小集合。
type Options struct {
	// Separator: 字段分隔符，默认 "\t"（生成器 --raw 输出）。
	Separator string `json:"separator"`
	// MaxLineBytes: 单行最大字节数，超出的行按畸形行跳过；生成器数值可达数千位，默认 1MiB。
	MaxLineBytes int `json:"max_line_bytes"`
}

const defaultMaxLine = 1 << 20

// Decoder 按行还原 (a0, qs)，状态跨多个输入累积。
type Decoder struct {
	sep     string
	maxLine int
	exp     contract.Expansion
}

// New 从原样 JSON Options 创建解码器（严格拒绝未知字段由 registry 负责）。
func New(opts *Options) *Decoder {
	d := &Decoder{sep: "\t", maxLine: defaultMaxLine}
	if opts != nil {
		if opts.Separator != "" {
			d.sep = opts.Separator
		}
		if opts.MaxLineBytes > 0 {
			d.maxLine = opts.MaxLineBytes
		}
	}
	return d
}

var _ contract.Decoder = (*Decoder)(nil)

// Feed 消费一个输入源的全部行。
// 规则：
// - 去首尾空白后按分隔符切分，必须恰为 4 个十进制整数，否则静默跳过；
// - 超过 MaxLineBytes 的行同样计为跳过，不中断输入；
// - (u,0,0,0)：记录 a0（后者覆盖前者）；
// - 其他：qs 为空或末项 != u 时追加 u；总是追加 v。
func (d *Decoder) Feed(ctx context.Context, fileID contract.FileID, r io.Reader) error {
	br := bufio.NewReaderSize(r, min(64*1024, d.maxLine))
	var buf []byte
	for {
		line, over, err := readLine(br, buf[:0], d.maxLine)
		buf = line
		if len(line) > 0 || over {
			if d.exp.Lines%1024 == 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			d.exp.Lines++
			t, ok := contract.Tuple{}, false
			if !over {
				t, ok = d.parseLine(string(line))
			}
			if !ok {
				d.exp.Skipped++
			} else {
				d.exp.Tuples++
				d.apply(t)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", fileID, err)
		}
	}
}

// readLine 读取一行（含换行符）追加到 buf；内容超过 limit 字节时丢弃整行并返回 over=true。
func readLine(br *bufio.Reader, buf []byte, limit int) ([]byte, bool, error) {
	over := false
	for {
		frag, err := br.ReadSlice('\n')
		if !over {
			buf = append(buf, frag...)
			if len(bytes.TrimSuffix(buf, []byte("\n"))) > limit {
				over = true
				buf = buf[:0]
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return buf, over, err
	}
}

// Finish 返回累积结果；未见整数部分时返回 ErrNoIntegerPart。
func (d *Decoder) Finish() (contract.Expansion, error) {
	if !d.exp.HasA0 {
		return d.exp, contract.ErrNoIntegerPart
	}
	return d.exp, nil
}

func (d *Decoder) apply(t contract.Tuple) {
	if t.IsIntegerPart() {
		d.exp.A0 = t.U
		d.exp.HasA0 = true
		return
	}
	qs := d.exp.Qs
	if len(qs) == 0 || qs[len(qs)-1].Cmp(t.U) != 0 {
		qs = append(qs, t.U)
	}
	d.exp.Qs = append(qs, t.V)
}

func (d *Decoder) parseLine(line string) (contract.Tuple, bool) {
	parts := strings.Split(strings.TrimSpace(line), d.sep)
	if len(parts) != 4 {
		return contract.Tuple{}, false
	}
	var vals [4]*big.Int
	for i, p := range parts {
		v, ok := new(big.Int).SetString(strings.TrimSpace(p), 10)
		if !ok {
			return contract.Tuple{}, false
		}
		vals[i] = v
	}
	return contract.Tuple{U: vals[0], V: vals[1], I: vals[2], J: vals[3]}, true
}

// Decode 为单输入场景的便捷入口。
func Decode(ctx context.Context, r io.Reader) (contract.Expansion, error) {
	d := New(nil)
	if err := d.Feed(ctx, "stdin", r); err != nil {
		return contract.Expansion{}, err
	}
	return d.Finish()
}

