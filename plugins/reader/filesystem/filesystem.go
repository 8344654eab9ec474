package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"pell/pkg/contract"
)

// 压缩模式。auto 按魔数嗅探。
const (
	CompressionAuto = "auto"
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// Compression: auto|none|gzip|zstd，默认 auto。
	// 长周期 D 的生成器输出可能很大，常以压缩形式保存。
	Compression string `json:"compression"`
}

// FileSystem 实现基于文件系统与 STDIN 的 Reader。
type FileSystem struct {
	bufSize     int
	compression string
}

// New 创建 FileSystem Reader。
func New(opts *Options) (*FileSystem, error) {
	const defaultBuf = 64 * 1024
	fs := &FileSystem{bufSize: defaultBuf, compression: CompressionAuto}
	if opts != nil {
		if opts.BufSize > 0 {
			fs.bufSize = opts.BufSize
		}
		if c := strings.ToLower(strings.TrimSpace(opts.Compression)); c != "" {
			fs.compression = c
		}
	}
	switch fs.compression {
	case CompressionAuto, CompressionNone, CompressionGzip, CompressionZstd:
	default:
		return nil, fmt.Errorf("reader: unknown compression %q", fs.compression)
	}
	return fs, nil
}

var _ contract.Reader = (*FileSystem)(nil)

// Iterate 按 roots 顺序对每个常规文件调用 yield；目录按字典序递归展开。
// roots 为空或仅包含 "-" 时读取 STDIN。
func (r *FileSystem) Iterate(ctx context.Context, roots []string, yield func(fileID contract.FileID, rc io.ReadCloser) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if len(roots) == 0 || (len(roots) == 1 && roots[0] == "-") {
		rc, err := r.wrap(io.NopCloser(os.Stdin))
		if err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
		return yieldClose(yield, "stdin", rc)
	}
	for _, s := range roots {
		if s == "-" {
			return errors.New("stdin '-' cannot be mixed with other roots")
		}
	}
	for _, root := range roots {
		if err := r.iterateOne(ctx, root, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) iterateOne(ctx context.Context, root string, yield func(contract.FileID, io.ReadCloser) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if info.IsDir() {
		entries, err := os.ReadDir(root)
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, e := range entries {
			if err := r.iterateOne(ctx, filepath.Join(root, e.Name()), yield); err != nil {
				return err
			}
		}
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(root)
	if err != nil {
		return err
	}
	rc, err := r.wrap(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", root, err)
	}
	return yieldClose(yield, contract.NormalizeFileID(root), rc)
}

func yieldClose(yield func(contract.FileID, io.ReadCloser) error, id contract.FileID, rc io.ReadCloser) error {
	err := yield(id, rc)
	if cerr := rc.Close(); err == nil {
		err = cerr
	}
	return err
}

// wrap 套上缓冲与（可选的）解压层。
func (r *FileSystem) wrap(src io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(src, r.bufSize)
	mode := r.compression
	if mode == CompressionAuto {
		mode = sniff(br)
	}
	switch mode {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &stackCloser{Reader: zr, closers: []io.Closer{zr, src}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &stackCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), src}}, nil
	default:
		return &stackCloser{Reader: br, closers: []io.Closer{src}}, nil
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

func sniff(br *bufio.Reader) string {
	head, _ := br.Peek(4)
	switch {
	case len(head) >= 2 && head[0] == gzipMagic[0] && head[1] == gzipMagic[1]:
		return CompressionGzip
	case len(head) == 4 && string(head) == string(zstdMagic):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// stackCloser 按顺序关闭解压层与底层文件。
type stackCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
