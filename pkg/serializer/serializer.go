package serializer

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ErrUnknownCodec 未知的编码名
var ErrUnknownCodec = errors.New("serializer: unknown codec")

// Serializer 序列化器接口
type Serializer interface {
	// Serialize 序列化
	Serialize(v any) ([]byte, error)
	// Deserialize 反序列化
	Deserialize(data []byte, v any) error
	// ContentType 内容类型（用于日志追踪）
	ContentType() string
}

// JSON JSON 序列化器
type JSON struct{}

// NewJSON 创建 JSON 序列化器
func NewJSON() *JSON {
	return &JSON{}
}

// Serialize 序列化为 JSON
func (s *JSON) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Deserialize 从 JSON 反序列化
func (s *JSON) Deserialize(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ContentType 返回内容类型
func (s *JSON) ContentType() string {
	return "application/json"
}

// Msgpack msgpack 序列化器
type Msgpack struct{}

// NewMsgpack 创建 msgpack 序列化器
func NewMsgpack() *Msgpack {
	return &Msgpack{}
}

// Serialize 序列化为 msgpack
func (s *Msgpack) Serialize(v any) ([]byte, error) {
	return Encode(v)
}

// Deserialize 从 msgpack 反序列化
func (s *Msgpack) Deserialize(data []byte, v any) error {
	return Decode(data, v)
}

// ContentType 返回内容类型
func (s *Msgpack) ContentType() string {
	return "application/msgpack"
}

// ByName 根据配置名选择序列化器，空名称返回 JSON
func ByName(name string) (Serializer, error) {
	switch name {
	case "", "json":
		return NewJSON(), nil
	case "msgpack":
		return NewMsgpack(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownCodec, "%q", name)
	}
}
