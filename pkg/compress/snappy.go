package compress

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// snappyCompressor Snappy 压缩实现
type snappyCompressor struct{}

// Compress 使用 Snappy 压缩数据
func (snappyCompressor) Compress(src []byte) ([]byte, error) {
	if src == nil {
		return nil, nil
	}
	return snappy.Encode(nil, src), nil
}

// Decompress 使用 Snappy 解压数据
func (snappyCompressor) Decompress(src []byte) ([]byte, error) {
	if src == nil {
		return nil, nil
	}
	out, err := snappy.Decode(nil, src)
	if err != nil {
		return nil, errors.Wrap(err, "snappy decode")
	}
	return out, nil
}

func (snappyCompressor) Name() string {
	return string(TypeSnappy)
}
