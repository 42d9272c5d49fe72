package schema

import "fmt"

// Entity 可校验的实体
type Entity int

const (
	EntityAccount Entity = iota + 1
	EntityTemplate
	EntityInstance
	EntityRobot
	EntitySoulChipSlot
	EntitySkeletonSlot
	EntityPartSlot
	EntityExpansionSlot
	EntityItem
)

// Entities 所有实体
var Entities = []Entity{
	EntityAccount, EntityTemplate, EntityInstance, EntityRobot,
	EntitySoulChipSlot, EntitySkeletonSlot, EntityPartSlot, EntityExpansionSlot,
	EntityItem,
}

func (e Entity) String() string {
	switch e {
	case EntityAccount:
		return "account"
	case EntityTemplate:
		return "template"
	case EntityInstance:
		return "instance"
	case EntityRobot:
		return "robot"
	case EntitySoulChipSlot:
		return "soul_chip_slot"
	case EntitySkeletonSlot:
		return "skeleton_slot"
	case EntityPartSlot:
		return "part_slot"
	case EntityExpansionSlot:
		return "expansion_slot"
	case EntityItem:
		return "item"
	}
	return fmt.Sprintf("entity(%d)", int(e))
}

// Variant 校验场景
type Variant int

const (
	// Create 不包含服务端生成的字段
	Create Variant = iota + 1
	// Read 全部可选，用于构造过滤条件
	Read
	// Update 必须携带标识，其余可选
	Update
	// Delete 只需要标识
	Delete
)

// Variants 所有场景
var Variants = []Variant{Create, Read, Update, Delete}

func (v Variant) String() string {
	switch v {
	case Create:
		return "create"
	case Read:
		return "read"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Schema 实体与场景的组合
type Schema struct {
	Entity  Entity
	Variant Variant
}

// Of 构造 Schema
func Of(e Entity, v Variant) Schema {
	return Schema{Entity: e, Variant: v}
}

func (s Schema) String() string {
	return s.Entity.String() + "." + s.Variant.String()
}

// AllSchemas 全部 36 个 Schema
func AllSchemas() []Schema {
	out := make([]Schema, 0, len(Entities)*len(Variants))
	for _, e := range Entities {
		for _, v := range Variants {
			out = append(out, Of(e, v))
		}
	}
	return out
}

// newTarget 返回 Schema 对应结构体的新指针，未知组合返回 nil
func (s Schema) newTarget() any {
	switch s.Entity {
	case EntityAccount:
		return pick(s.Variant, &AccountCreate{}, &AccountRead{}, &AccountUpdate{}, &AccountDelete{})
	case EntityTemplate:
		return pick(s.Variant, &TemplateCreate{}, &TemplateRead{}, &TemplateUpdate{}, &TemplateDelete{})
	case EntityInstance:
		return pick(s.Variant, &InstanceCreate{}, &InstanceRead{}, &InstanceUpdate{}, &InstanceDelete{})
	case EntityRobot:
		return pick(s.Variant, &RobotCreate{}, &RobotRead{}, &RobotUpdate{}, &RobotDelete{})
	case EntitySoulChipSlot:
		return pick(s.Variant, &SoulChipSlotCreate{}, &SoulChipSlotRead{}, &SoulChipSlotUpdate{}, &SoulChipSlotDelete{})
	case EntitySkeletonSlot:
		return pick(s.Variant, &SkeletonSlotCreate{}, &SkeletonSlotRead{}, &SkeletonSlotUpdate{}, &SkeletonSlotDelete{})
	case EntityPartSlot:
		return pick(s.Variant, &PartSlotCreate{}, &PartSlotRead{}, &PartSlotUpdate{}, &PartSlotDelete{})
	case EntityExpansionSlot:
		return pick(s.Variant, &ExpansionSlotCreate{}, &ExpansionSlotRead{}, &ExpansionSlotUpdate{}, &ExpansionSlotDelete{})
	case EntityItem:
		return pick(s.Variant, &ItemCreate{}, &ItemRead{}, &ItemUpdate{}, &ItemDelete{})
	}
	return nil
}

func pick(v Variant, create, read, update, del any) any {
	switch v {
	case Create:
		return create
	case Read:
		return read
	case Update:
		return update
	case Delete:
		return del
	}
	return nil
}
