// Package bundle packs rendered artifacts into a single ZIP archive.
package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// ErrLimitExceeded 表示归档需要 ZIP64 才能表示。
var ErrLimitExceeded = errors.New("bundle: 超出 ZIP 限制")

const (
	maxEntries   = 0xFFFF - 1
	maxEntrySize = 0xFFFFFFFF - 1
	// MaxArchiveSize 是不启用 ZIP64 时归档允许的最大字节数。
	MaxArchiveSize = 0xFFFFFFFF - 1

	creatorFAT = 0
	zipVersion = 20
)

// modTime 是写入所有成员的固定修改时间，也是 DOS 日期能表示的最早时间。
var modTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Method 选择成员的压缩方式。
type Method int

const (
	Deflate Method = iota
	Zstd
)

func (m Method) String() string {
	switch m {
	case Deflate:
		return "deflate"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

func (m Method) zipMethod() (uint16, error) {
	switch m {
	case Deflate:
		return zip.Deflate, nil
	case Zstd:
		return zstd.ZipMethodWinZip, nil
	default:
		return 0, fmt.Errorf("bundle: 未知压缩方式 %d", int(m))
	}
}

// Entry is one archive member.
type Entry struct {
	Name    string
	Content []byte
}

// Options controls compression and the archive size cap.
type Options struct {
	Method  Method
	MaxSize int64 // <=0 或超过 MaxArchiveSize 时按 MaxArchiveSize 处理
}

func (o Options) maxSize() int64 {
	if o.MaxSize <= 0 || o.MaxSize > MaxArchiveSize {
		return MaxArchiveSize
	}
	return o.MaxSize
}

// Package writes the non-empty entries into a ZIP archive in the given order.
// When every entry is empty it returns nil bytes and a nil error.
func Package(entries []Entry, opts Options) ([]byte, error) {
	method, err := opts.Method.zipMethod()
	if err != nil {
		return nil, err
	}

	kept := make([]Entry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if len(e.Content) == 0 {
			continue
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("bundle: 成员名重复: %q", e.Name)
		}
		seen[e.Name] = struct{}{}
		if int64(len(e.Content)) > maxEntrySize {
			return nil, fmt.Errorf("%w: 成员 %q 大小 %d", ErrLimitExceeded, e.Name, len(e.Content))
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	if len(kept) > maxEntries {
		return nil, fmt.Errorf("%w: 成员数 %d", ErrLimitExceeded, len(kept))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	for _, e := range kept {
		fh := &zip.FileHeader{
			Name:   e.Name,
			Method: method,
			// 标记为 MS-DOS/FAT 创建且不带外部属性，解压端按默认权限落盘。
			CreatorVersion: creatorFAT<<8 | zipVersion,
			ExternalAttrs:  0,
			Modified:       modTime,
		}
		w, err := zw.CreateHeader(fh)
		if err != nil {
			return nil, fmt.Errorf("bundle: 创建成员 %q 失败: %w", e.Name, err)
		}
		if _, err := w.Write(e.Content); err != nil {
			return nil, fmt.Errorf("bundle: 写入成员 %q 失败: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("bundle: 关闭归档失败: %w", err)
	}
	if limit := opts.maxSize(); int64(buf.Len()) >= limit {
		return nil, fmt.Errorf("%w: 归档大小 %d 超过 %d", ErrLimitExceeded, buf.Len(), limit)
	}
	return buf.Bytes(), nil
}

// Open reads every member of an archive produced by Package.
func Open(archive []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("bundle: 读取归档失败: %w", err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		data, err := readFile(f)
		if err != nil {
			return nil, err
		}
		out[f.Name] = data
	}
	return out, nil
}

// Names lists the members in archive order.
func Names(archive []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("bundle: 读取归档失败: %w", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names, nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("bundle: 打开成员 %q 失败: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("bundle: 解压成员 %q 失败: %w", f.Name, err)
	}
	return data, nil
}
