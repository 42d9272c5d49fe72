package serializer

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/compress"
)

// Compressed 在序列化结果上叠加压缩
type Compressed struct {
	inner      Serializer
	compressor compress.Compressor
}

// WithCompression 包装序列化器，none 类型直接返回原序列化器
func WithCompression(inner Serializer, t compress.Type) (Serializer, error) {
	if t == "" || t == compress.TypeNone {
		return inner, nil
	}
	c, err := compress.New(t)
	if err != nil {
		return nil, err
	}
	return &Compressed{inner: inner, compressor: c}, nil
}

// Serialize 序列化后压缩
func (s *Compressed) Serialize(v any) ([]byte, error) {
	raw, err := s.inner.Serialize(v)
	if err != nil {
		return nil, err
	}
	packed, err := s.compressor.Compress(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "compress %s", s.compressor.Name())
	}
	return packed, nil
}

// Deserialize 解压后反序列化
func (s *Compressed) Deserialize(data []byte, v any) error {
	raw, err := s.compressor.Decompress(data)
	if err != nil {
		return errors.Wrapf(err, "decompress %s", s.compressor.Name())
	}
	return s.inner.Deserialize(raw, v)
}

// ContentType 内容类型，附带压缩算法
func (s *Compressed) ContentType() string {
	return s.inner.ContentType() + "+" + s.compressor.Name()
}
