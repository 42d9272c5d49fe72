package dto

import (
	"encoding/json"
	"time"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

// TemplateDTO 对应 template 表
type TemplateDTO struct {
	ID        string          `db:"id" json:"id"`
	Class     string          `db:"class" json:"class"`
	Name      string          `db:"name" json:"name"`
	Slug      string          `db:"slug" json:"slug"`
	Meta      json.RawMessage `db:"meta" json:"meta"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// ToRecord 转换为存储记录
func (d TemplateDTO) ToRecord() store.Record {
	meta := []byte(d.Meta)
	if len(meta) == 0 {
		meta = []byte("{}")
	}
	return store.Record{
		"id":    d.ID,
		"class": d.Class,
		"name":  d.Name,
		"slug":  d.Slug,
		"meta":  meta,
	}
}

// TemplateFromRecord 从存储记录解码
func TemplateFromRecord(rec store.Record) (TemplateDTO, error) {
	var d TemplateDTO
	err := decodeRecord(rec, &d)
	return d, err
}

// TemplateToDTO 模板转换为 DTO
func TemplateToDTO(t model.Template) TemplateDTO {
	return TemplateDTO{
		ID:        t.ID,
		Class:     string(t.Class),
		Name:      t.Name,
		Slug:      t.Slug,
		Meta:      t.Meta.Encode(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// TemplateFromDTO DTO 转换为模板
func TemplateFromDTO(d TemplateDTO) (model.Template, error) {
	class := model.TemplateClass(d.Class)
	if !class.Valid() {
		return model.Template{}, model.NewConstructionError("template", "unknown class %q", d.Class)
	}
	meta, err := model.ParseTemplateMeta(d.Meta)
	if err != nil {
		return model.Template{}, model.NewConstructionError("template", "%v", err)
	}
	return model.Template{
		ID:        d.ID,
		Class:     class,
		Name:      d.Name,
		Slug:      d.Slug,
		Meta:      meta,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// InstanceDTO 对应 instance 表
type InstanceDTO struct {
	ID         string    `db:"id" json:"id"`
	TemplateID string    `db:"template_id" json:"templateId"`
	ShardID    string    `db:"shard_id" json:"shardId"`
	PlayerID   string    `db:"player_id" json:"playerId"`
	State      string    `db:"state" json:"state"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// ToRecord 转换为存储记录
func (d InstanceDTO) ToRecord() store.Record {
	return store.Record{
		"id":          d.ID,
		"template_id": d.TemplateID,
		"shard_id":    d.ShardID,
		"player_id":   d.PlayerID,
		"state":       d.State,
	}
}

// InstanceFromRecord 从存储记录解码
func InstanceFromRecord(rec store.Record) (InstanceDTO, error) {
	var d InstanceDTO
	err := decodeRecord(rec, &d)
	return d, err
}

// InstanceToDTO 实例转换为 DTO
func InstanceToDTO(i model.Instance) InstanceDTO {
	return InstanceDTO{
		ID:         i.ID,
		TemplateID: i.TemplateID,
		ShardID:    i.ShardID,
		PlayerID:   i.PlayerID,
		State:      string(i.State),
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

// InstanceFromDTO DTO 转换为实例
func InstanceFromDTO(d InstanceDTO) (model.Instance, error) {
	state := model.InstanceState(d.State)
	if !state.Valid() {
		return model.Instance{}, model.NewConstructionError("instance", "unknown state %q", d.State)
	}
	return model.Instance{
		ID:         d.ID,
		TemplateID: d.TemplateID,
		ShardID:    d.ShardID,
		PlayerID:   d.PlayerID,
		State:      state,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
