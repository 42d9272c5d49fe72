package model

import "time"

// Component 装配在机器人上的实例及其模板
type Component struct {
	Instance Instance
	Template Template
}

// Stats 组件基础属性
func (c Component) Stats() Stats {
	return c.Template.Meta.BaseStats
}

// Bot 机器人
// 对应表：robot，以及 soul_chip_slot / skeleton_slot / part_slot / expansion_slot
type Bot struct {
	ID      string
	Name    string
	OwnerID string
	ShardID string
	BotType BotType
	SubType WorkerSubType

	SoulChip   *Component
	Skeleton   *Component
	Parts      []Component // 下标即 slot_ix
	Expansions []Component // 下标即 slot_ix

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPersisted 是否已有持久化标识
func (b *Bot) IsPersisted() bool {
	return b.ID != ""
}

// Components 按 soul chip、skeleton、parts、expansions 顺序返回所有组件
func (b *Bot) Components() []Component {
	out := make([]Component, 0, 2+len(b.Parts)+len(b.Expansions))
	if b.SoulChip != nil {
		out = append(out, *b.SoulChip)
	}
	if b.Skeleton != nil {
		out = append(out, *b.Skeleton)
	}
	out = append(out, b.Parts...)
	return append(out, b.Expansions...)
}

// TotalStats 所有组件属性之和
func (b *Bot) TotalStats() Stats {
	var total Stats
	for _, c := range b.Components() {
		total = total.Add(c.Stats())
	}
	return total
}

// TotalAttack 攻击力之和
func (b *Bot) TotalAttack() int64 {
	return b.TotalStats().Attack
}

// SlotCapacity skeleton 的部件容量，没有 skeleton 时为 0
func (b *Bot) SlotCapacity() int {
	if b.Skeleton == nil {
		return 0
	}
	return b.Skeleton.Template.Meta.SlotCapacity
}

// IsAssembled 有 skeleton 且部件数量等于其容量
func (b *Bot) IsAssembled() bool {
	return b.Skeleton != nil && len(b.Parts) == b.SlotCapacity()
}

// InstanceIDs 所有装配实例的 ID
func (b *Bot) InstanceIDs() []string {
	comps := b.Components()
	ids := make([]string, 0, len(comps))
	for _, c := range comps {
		ids = append(ids, c.Instance.ID)
	}
	return ids
}

// Clone 深拷贝
func (b *Bot) Clone() *Bot {
	if b == nil {
		return nil
	}
	c := *b
	if b.SoulChip != nil {
		sc := *b.SoulChip
		c.SoulChip = &sc
	}
	if b.Skeleton != nil {
		sk := *b.Skeleton
		c.Skeleton = &sk
	}
	c.Parts = append([]Component(nil), b.Parts...)
	c.Expansions = append([]Component(nil), b.Expansions...)
	return &c
}
