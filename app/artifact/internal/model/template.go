package model

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
)

// Stats 属性值
type Stats struct {
	Attack  int64 `json:"attack" mapstructure:"attack"`
	Defense int64 `json:"defense" mapstructure:"defense"`
	Speed   int64 `json:"speed" mapstructure:"speed"`
}

// Add 属性相加
func (s Stats) Add(o Stats) Stats {
	return Stats{Attack: s.Attack + o.Attack, Defense: s.Defense + o.Defense, Speed: s.Speed + o.Speed}
}

// NonNegative 是否全部非负
func (s Stats) NonNegative() bool {
	return s.Attack >= 0 && s.Defense >= 0 && s.Speed >= 0
}

// TemplateMeta 模板元数据，对应 template.meta 列
// 除 baseStats、slotCapacity 外的键（如 modifiers）原样保存在 Extra 中
type TemplateMeta struct {
	BaseStats Stats `json:"baseStats" mapstructure:"baseStats"`
	// SlotCapacity 仅 SKELETON 使用：可装配的部件数量
	SlotCapacity int `json:"slotCapacity,omitempty" mapstructure:"slotCapacity"`
	// Extra 其余键，JSON 数字解码为 float64
	Extra map[string]any `json:"-" mapstructure:",remain"`
}

const (
	metaKeyBaseStats    = "baseStats"
	metaKeySlotCapacity = "slotCapacity"
)

// MarshalJSON 将 Extra 展开到顶层
func (m TemplateMeta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[metaKeyBaseStats] = m.BaseStats
	if m.SlotCapacity != 0 {
		out[metaKeySlotCapacity] = m.SlotCapacity
	} else {
		delete(out, metaKeySlotCapacity)
	}
	return json.Marshal(out)
}

// UnmarshalJSON 解析已知键，其余键放入 Extra
func (m *TemplateMeta) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var meta TemplateMeta
	for k, raw := range fields {
		switch k {
		case metaKeyBaseStats:
			if err := json.Unmarshal(raw, &meta.BaseStats); err != nil {
				return errors.Wrapf(err, "field %s", k)
			}
		case metaKeySlotCapacity:
			if err := json.Unmarshal(raw, &meta.SlotCapacity); err != nil {
				return errors.Wrapf(err, "field %s", k)
			}
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return errors.Wrapf(err, "field %s", k)
			}
			if meta.Extra == nil {
				meta.Extra = make(map[string]any)
			}
			meta.Extra[k] = v
		}
	}
	*m = meta
	return nil
}

// Map 转为输入 map，供 schema 校验
func (m TemplateMeta) Map() map[string]any {
	out := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[metaKeyBaseStats] = map[string]any{
		"attack":  m.BaseStats.Attack,
		"defense": m.BaseStats.Defense,
		"speed":   m.BaseStats.Speed,
	}
	out[metaKeySlotCapacity] = m.SlotCapacity
	return out
}

// Encode 编码为 JSON
func (m TemplateMeta) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}

// ParseTemplateMeta 解析 meta 列，空值返回零值
func ParseTemplateMeta(raw []byte) (TemplateMeta, error) {
	var m TemplateMeta
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return TemplateMeta{}, errors.Wrap(err, "invalid template meta")
	}
	return m, nil
}

// Template 目录条目（不可变）
// 对应表：template
type Template struct {
	ID        string
	Class     TemplateClass
	Name      string
	Slug      string
	Meta      TemplateMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}
