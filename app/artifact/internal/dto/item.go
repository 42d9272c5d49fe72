package dto

import (
	"time"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

// ItemDTO 对应 item 表
type ItemDTO struct {
	ID              string    `db:"id" json:"id"`
	OwnerID         string    `db:"owner_id" json:"ownerId"`
	Name            string    `db:"name" json:"name"`
	Category        string    `db:"category" json:"category"`
	Rarity          string    `db:"rarity" json:"rarity"`
	Value           int64     `db:"value" json:"value"`
	GemType         *string   `db:"gem_type" json:"gemType"`
	DurationSeconds *int64    `db:"duration_seconds" json:"durationSeconds"`
	TradeValue      *int64    `db:"trade_value" json:"tradeValue"`
	Version         int64     `db:"version" json:"version"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// ToRecord 转换为存储记录
func (d ItemDTO) ToRecord() store.Record {
	return store.Record{
		"id":               d.ID,
		"owner_id":         d.OwnerID,
		"name":             d.Name,
		"category":         d.Category,
		"rarity":           d.Rarity,
		"value":            d.Value,
		"gem_type":         d.GemType,
		"duration_seconds": d.DurationSeconds,
		"trade_value":      d.TradeValue,
	}
}

// ItemFromRecord 从存储记录解码
func ItemFromRecord(rec store.Record) (ItemDTO, error) {
	var d ItemDTO
	err := decodeRecord(rec, &d)
	return d, err
}

// ItemToDTO 物品转换为 DTO
func ItemToDTO(i *model.Item) ItemDTO {
	return ItemDTO{
		ID:              i.ID,
		OwnerID:         i.OwnerID,
		Name:            i.Name,
		Category:        string(i.Category),
		Rarity:          string(i.Rarity),
		Value:           i.Value,
		GemType:         optString(i.GemType),
		DurationSeconds: copyInt(i.DurationSeconds),
		TradeValue:      copyInt(i.TradeValue),
		Version:         i.Version,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// ItemFromDTO DTO 转换为物品，枚举值非法时返回 ConstructionError
func ItemFromDTO(d ItemDTO) (*model.Item, error) {
	category := model.ItemCategory(d.Category)
	if !category.Valid() {
		return nil, model.NewConstructionError("item", "unknown category %q", d.Category)
	}
	rarity := model.Rarity(d.Rarity)
	if !rarity.Valid() {
		return nil, model.NewConstructionError("item", "unknown rarity %q", d.Rarity)
	}
	return &model.Item{
		ID:              d.ID,
		OwnerID:         d.OwnerID,
		Name:            d.Name,
		Category:        category,
		Rarity:          rarity,
		Value:           d.Value,
		GemType:         derefString(d.GemType),
		DurationSeconds: copyInt(d.DurationSeconds),
		TradeValue:      copyInt(d.TradeValue),
		Version:         d.Version,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}
