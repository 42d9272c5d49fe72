package checksum

import (
	"github.com/cespare/xxhash/v2"
)

// xxhashHasher 取 XXHash64 的低 32 位
type xxhashHasher struct{}

func (xxhashHasher) Sum(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

func (h xxhashHasher) Verify(data []byte, expected uint32) bool {
	return h.Sum(data) == expected
}

func (xxhashHasher) Name() string {
	return string(TypeXXHash)
}
