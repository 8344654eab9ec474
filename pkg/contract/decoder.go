package contract

import (
	"context"
	"io"
)

// Decoder: 将生成器的原始元组流还原为 (a0, qs)。
// 同一 Decoder 可对多个输入依次调用 Feed，状态跨输入累积；Finish 返回最终结果。
// 格式不符的行静默跳过，不视为错误。
type Decoder interface {
	Feed(ctx context.Context, fileID FileID, r io.Reader) error
	Finish() (Expansion, error)
}
