package compress

import "bytes"

// noneCompressor 不压缩，返回数据副本
type noneCompressor struct{}

func (noneCompressor) Compress(src []byte) ([]byte, error) {
	return bytes.Clone(src), nil
}

func (noneCompressor) Decompress(src []byte) ([]byte, error) {
	return bytes.Clone(src), nil
}

func (noneCompressor) Name() string {
	return string(TypeNone)
}
