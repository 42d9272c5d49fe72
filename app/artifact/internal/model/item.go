package model

import "time"

// Item 物品
// 对应表：item
type Item struct {
	ID       string
	OwnerID  string
	Name     string
	Category ItemCategory
	Rarity   Rarity
	Value    int64

	// 类别相关属性，nil 表示未设置
	GemType         string
	DurationSeconds *int64
	TradeValue      *int64

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPersisted 是否已有持久化标识
func (i *Item) IsPersisted() bool {
	return i.ID != ""
}

// Duration SPEED_UP 物品的加速时长
func (i *Item) Duration() time.Duration {
	if i.DurationSeconds == nil {
		return 0
	}
	return time.Duration(*i.DurationSeconds) * time.Second
}

// IsTradeable 是否可交易
func (i *Item) IsTradeable() bool {
	return i.Category == CategoryTradeable && i.TradeValue != nil
}

// Clone 深拷贝
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	if i.DurationSeconds != nil {
		d := *i.DurationSeconds
		c.DurationSeconds = &d
	}
	if i.TradeValue != nil {
		v := *i.TradeValue
		c.TradeValue = &v
	}
	return &c
}
