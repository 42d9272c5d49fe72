package compress

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"
)

// 块格式：1 字节标记 + uvarint 原始长度 + 数据
const (
	lz4Raw   byte = 0
	lz4Block byte = 1
)

var errCorrupt = errors.New("compress: corrupt lz4 block")

// lz4Compressor LZ4 块压缩实现
type lz4Compressor struct{}

// Compress 使用 LZ4 压缩数据，不可压缩的数据按原样存储
func (lz4Compressor) Compress(src []byte) ([]byte, error) {
	if src == nil {
		return nil, nil
	}

	header := make([]byte, 1+binary.MaxVarintLen64)
	hn := 1 + binary.PutUvarint(header[1:], uint64(len(src)))

	dst := make([]byte, hn+lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst[hn:], nil)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	if n == 0 || n >= len(src) {
		header[0] = lz4Raw
		return append(header[:hn], src...), nil
	}

	header[0] = lz4Block
	copy(dst, header[:hn])
	return dst[:hn+n], nil
}

// Decompress 使用 LZ4 解压数据
func (lz4Compressor) Decompress(src []byte) ([]byte, error) {
	if src == nil {
		return nil, nil
	}
	if len(src) < 2 {
		return nil, errCorrupt
	}

	size, vn := binary.Uvarint(src[1:])
	if vn <= 0 {
		return nil, errCorrupt
	}
	body := src[1+vn:]

	switch src[0] {
	case lz4Raw:
		if uint64(len(body)) != size {
			return nil, errCorrupt
		}
		return append([]byte{}, body...), nil
	case lz4Block:
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			return nil, errors.Wrap(err, "lz4 decompress")
		}
		if uint64(n) != size {
			return nil, errCorrupt
		}
		return dst, nil
	default:
		return nil, errCorrupt
	}
}

func (lz4Compressor) Name() string {
	return string(TypeLZ4)
}
