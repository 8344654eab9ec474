package contract

import (
	"context"
	"io"
)

// Reader: 输入源抽象（文件/STDIN）。
// 约束：
// 1) 按输入根顺序回调，供解码器视为一条连续的元组流；
// 2) 只提供字节流（必要时透明解压），不做解析；
// 3) 不在内部起并发。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(fileID FileID, r io.ReadCloser) error) error
}
