package checksum

import (
	"github.com/cockroachdb/errors"
)

// ErrUnsupported 不支持的校验算法
var ErrUnsupported = errors.New("checksum: unsupported type")

// Hasher 校验和计算器接口
type Hasher interface {
	// Sum 计算数据的校验和
	Sum(data []byte) uint32

	// Verify 验证数据的校验和
	Verify(data []byte, expected uint32) bool

	// Name 返回校验算法名称
	Name() string
}

// Type 校验算法类型
type Type string

const (
	// TypeNone 不校验
	TypeNone Type = "none"
	// TypeCRC32 CRC32 校验算法 (IEEE 多项式)
	TypeCRC32 Type = "crc32"
	// TypeCRC32C CRC32C 校验算法 (Castagnoli 多项式，硬件加速)
	TypeCRC32C Type = "crc32c"
	// TypeXXHash XXHash 校验算法
	TypeXXHash Type = "xxhash"
)

// New 创建校验器
func New(t Type) (Hasher, error) {
	switch t {
	case TypeCRC32:
		return newCRC32Hasher(), nil
	case TypeCRC32C:
		return newCRC32CHasher(), nil
	case TypeXXHash:
		return xxhashHasher{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%q", t)
	}
}

// Default 返回默认校验器 (CRC32C)
func Default() Hasher {
	return newCRC32CHasher()
}
