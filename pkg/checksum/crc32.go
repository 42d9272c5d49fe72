package checksum

import (
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// crc32Hasher 基于查表的 CRC32 校验
type crc32Hasher struct {
	table *crc32.Table
	name  Type
}

func newCRC32Hasher() *crc32Hasher {
	return &crc32Hasher{table: crc32.IEEETable, name: TypeCRC32}
}

// newCRC32CHasher 现代 CPU 上有 SSE4.2 加速
func newCRC32CHasher() *crc32Hasher {
	return &crc32Hasher{table: castagnoli, name: TypeCRC32C}
}

// Sum 计算校验和
func (h *crc32Hasher) Sum(data []byte) uint32 {
	return crc32.Checksum(data, h.table)
}

// Verify 验证校验和
func (h *crc32Hasher) Verify(data []byte, expected uint32) bool {
	return h.Sum(data) == expected
}

// Name 返回校验算法名称
func (h *crc32Hasher) Name() string {
	return string(h.name)
}
