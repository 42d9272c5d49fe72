package compress

import (
	"github.com/cockroachdb/errors"
)

// ErrUnsupported 不支持的压缩算法
var ErrUnsupported = errors.New("compress: unsupported type")

// Compressor 压缩器接口
type Compressor interface {
	// Compress 压缩数据
	Compress(src []byte) ([]byte, error)

	// Decompress 解压数据
	Decompress(src []byte) ([]byte, error)

	// Name 返回压缩算法名称
	Name() string
}

// Type 压缩算法类型
type Type string

const (
	// TypeNone 不压缩
	TypeNone Type = "none"
	// TypeSnappy Snappy 压缩算法
	TypeSnappy Type = "snappy"
	// TypeZstd Zstd 压缩算法
	TypeZstd Type = "zstd"
	// TypeLZ4 LZ4 压缩算法
	TypeLZ4 Type = "lz4"
)

// New 创建压缩器，空类型等同于 none
func New(t Type) (Compressor, error) {
	switch t {
	case TypeNone, "":
		return noneCompressor{}, nil
	case TypeSnappy:
		return snappyCompressor{}, nil
	case TypeZstd:
		return newZstdCompressor()
	case TypeLZ4:
		return lz4Compressor{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%q", t)
	}
}

// Types 返回所有支持的压缩算法
func Types() []Type {
	return []Type{TypeNone, TypeSnappy, TypeZstd, TypeLZ4}
}
