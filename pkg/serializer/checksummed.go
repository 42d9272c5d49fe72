package serializer

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/checksum"
)

// ErrChecksumMismatch 数据校验失败
var ErrChecksumMismatch = errors.New("serializer: checksum mismatch")

const checksumSize = 4

// Checksummed 在载荷尾部追加 4 字节大端校验和
type Checksummed struct {
	inner  Serializer
	hasher checksum.Hasher
}

// WithChecksum 包装序列化器，none 类型直接返回原序列化器
func WithChecksum(inner Serializer, t checksum.Type) (Serializer, error) {
	if t == "" || t == checksum.TypeNone {
		return inner, nil
	}
	h, err := checksum.New(t)
	if err != nil {
		return nil, err
	}
	return &Checksummed{inner: inner, hasher: h}, nil
}

// Serialize 序列化后追加校验和
func (s *Checksummed) Serialize(v any) ([]byte, error) {
	raw, err := s.inner.Serialize(v)
	if err != nil {
		return nil, err
	}
	return binary.BigEndian.AppendUint32(raw, s.hasher.Sum(raw)), nil
}

// Deserialize 校验通过后反序列化
func (s *Checksummed) Deserialize(data []byte, v any) error {
	if len(data) < checksumSize {
		return errors.Wrapf(ErrChecksumMismatch, "payload too short (%d bytes)", len(data))
	}
	body := data[:len(data)-checksumSize]
	if !s.hasher.Verify(body, binary.BigEndian.Uint32(data[len(body):])) {
		return errors.Wrap(ErrChecksumMismatch, s.hasher.Name())
	}
	return s.inner.Deserialize(body, v)
}

// ContentType 内容类型，附带校验算法
func (s *Checksummed) ContentType() string {
	return s.inner.ContentType() + ";" + s.hasher.Name()
}
