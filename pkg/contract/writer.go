package contract

import "context"

// Writer: 将 NormRecord 逐条渲染到主输出流。
// 约束：
//  1. WriteHeader 至多调用一次，且先于任何 Write；
//  2. 记录按发现顺序写入；
//  3. Flush 之后不再写入；错误直接上抛。
type Writer interface {
	WriteHeader(ctx context.Context) error
	Write(ctx context.Context, rec NormRecord) error
	Flush() error
}
