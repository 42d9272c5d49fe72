package schema

import (
	"math"
	"time"
)

// MaxTTLSeconds 可换算为 time.Duration 的最大秒数，即 TTL 字段 max 规则的取值
const MaxTTLSeconds = math.MaxInt64 / int64(time.Second)

// 结构体字段说明：
//   json     输入字段名，同时用于错误路径
//   db       对应的列名，FilterColumns 使用，"-" 表示不是列
//   validate go-playground/validator 规则

// ---------------------------------------------------------------------------
// 共享输入
// ---------------------------------------------------------------------------

// StatsInput 属性值
type StatsInput struct {
	Attack  int64 `json:"attack" validate:"gte=0"`
	Defense int64 `json:"defense" validate:"gte=0"`
	Speed   int64 `json:"speed" validate:"gte=0"`
}

// TemplateMetaInput 模板元数据
type TemplateMetaInput struct {
	BaseStats    StatsInput `json:"baseStats"`
	SlotCapacity int        `json:"slotCapacity" validate:"gte=0"`
	// Extra 其余键（如 modifiers）原样保留
	Extra map[string]any `json:",remain"`
}

// Extras 返回其余键，没有时返回 nil
func (m TemplateMetaInput) Extras() map[string]any {
	if len(m.Extra) == 0 {
		return nil
	}
	return m.Extra
}

// ComponentTemplate 组件引用的模板
type ComponentTemplate struct {
	ID    string            `json:"id" validate:"required,nonblank"`
	Class string            `json:"class" validate:"required,oneof=SOUL_CHIP SKELETON PART EXPANSION_CHIP"`
	Name  string            `json:"name"`
	Slug  string            `json:"slug" validate:"omitempty,slug"`
	Meta  TemplateMetaInput `json:"meta"`
}

// ComponentInput 装配到机器人上的实例
type ComponentInput struct {
	InstanceID string            `json:"instanceId" validate:"required,nonblank"`
	State      *string           `json:"state" validate:"omitempty,oneof=NEW EQUIPPED UNEQUIPPED DESTROYED"`
	Template   ComponentTemplate `json:"template"`
}

// ---------------------------------------------------------------------------
// account
// ---------------------------------------------------------------------------

// AccountCreate 创建账号
type AccountCreate struct {
	UserID                 string     `json:"userId" db:"user_id" validate:"required,nonblank"`
	ProviderID             string     `json:"providerId" db:"provider_id" validate:"required,nonblank"`
	AccountID              *string    `json:"accountId" db:"account_id" validate:"omitempty,nonblank"`
	AccessToken            *string    `json:"accessToken" db:"access_token"`
	RefreshToken           *string    `json:"refreshToken" db:"refresh_token"`
	IDToken                *string    `json:"idToken" db:"id_token"`
	AccessTokenExpiresAt   *time.Time `json:"accessTokenExpiresAt" db:"access_token_expires_at"`
	RefreshTokenExpiresAt  *time.Time `json:"refreshTokenExpiresAt" db:"refresh_token_expires_at"`
	AccessTokenTTLSeconds  *int64     `json:"accessTokenTtlSeconds" db:"-" validate:"omitempty,gt=0,max=9223372036"`
	RefreshTokenTTLSeconds *int64     `json:"refreshTokenTtlSeconds" db:"-" validate:"omitempty,gt=0,max=9223372036"`
	Scope                  *string    `json:"scope" db:"scope"`
	Password               *string    `json:"password" db:"password" validate:"omitempty,min=8"`
}

// AccountRead 账号查询条件
type AccountRead struct {
	ID         *string `json:"id" db:"id"`
	UserID     *string `json:"userId" db:"user_id"`
	ProviderID *string `json:"providerId" db:"provider_id"`
	AccountID  *string `json:"accountId" db:"account_id"`
	Scope      *string `json:"scope" db:"scope"`
}

// AccountUpdate 更新账号
type AccountUpdate struct {
	ID                    string     `json:"id" db:"id" validate:"required,nonblank"`
	Version               *int64     `json:"version" db:"version" validate:"omitempty,gte=1"`
	UserID                *string    `json:"userId" db:"user_id" validate:"omitempty,nonblank"`
	ProviderID            *string    `json:"providerId" db:"provider_id" validate:"omitempty,nonblank"`
	AccountID             *string    `json:"accountId" db:"account_id" validate:"omitempty,nonblank"`
	AccessToken           *string    `json:"accessToken" db:"access_token"`
	RefreshToken          *string    `json:"refreshToken" db:"refresh_token"`
	IDToken               *string    `json:"idToken" db:"id_token"`
	AccessTokenExpiresAt  *time.Time `json:"accessTokenExpiresAt" db:"access_token_expires_at"`
	RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt" db:"refresh_token_expires_at"`
	Scope                 *string    `json:"scope" db:"scope"`
	Password              *string    `json:"password" db:"password" validate:"omitempty,min=8"`
}

// AccountDelete 删除账号
type AccountDelete struct {
	ID string `json:"id" db:"id" validate:"required,nonblank"`
}

// ---------------------------------------------------------------------------
// template
// ---------------------------------------------------------------------------

// TemplateCreate 创建模板
type TemplateCreate struct {
	Class string            `json:"class" db:"class" validate:"required,oneof=SOUL_CHIP SKELETON PART EXPANSION_CHIP"`
	Name  string            `json:"name" db:"name" validate:"required,nonblank"`
	Slug  string            `json:"slug" db:"slug" validate:"required,slug"`
	Meta  TemplateMetaInput `json:"meta" db:"meta"`
}

// TemplateRead 模板查询条件
type TemplateRead struct {
	ID    *string `json:"id" db:"id"`
	Class *string `json:"class" db:"class" validate:"omitempty,oneof=SOUL_CHIP SKELETON PART EXPANSION_CHIP"`
	Name  *string `json:"name" db:"name"`
	Slug  *string `json:"slug" db:"slug"`
}

// TemplateUpdate 更新模板
type TemplateUpdate struct {
	ID   string             `json:"id" db:"id" validate:"required,nonblank"`
	Name *string            `json:"name" db:"name" validate:"omitempty,nonblank"`
	Slug *string            `json:"slug" db:"slug" validate:"omitempty,slug"`
	Meta *TemplateMetaInput `json:"meta" db:"meta"`
}

// TemplateDelete 删除模板
type TemplateDelete struct {
	ID string `json:"id" db:"id" validate:"required,nonblank"`
}

// ---------------------------------------------------------------------------
// instance
// ---------------------------------------------------------------------------

// InstanceCreate 铸造实例
type InstanceCreate struct {
	TemplateID string  `json:"templateId" db:"template_id" validate:"required,nonblank"`
	ShardID    string  `json:"shardId" db:"shard_id" validate:"required,nonblank"`
	PlayerID   string  `json:"playerId" db:"player_id" validate:"required,nonblank"`
	State      *string `json:"state" db:"state" validate:"omitempty,oneof=NEW EQUIPPED UNEQUIPPED DESTROYED"`
}

// InstanceRead 实例查询条件
type InstanceRead struct {
	ID         *string `json:"id" db:"id"`
	TemplateID *string `json:"templateId" db:"template_id"`
	ShardID    *string `json:"shardId" db:"shard_id"`
	PlayerID   *string `json:"playerId" db:"player_id"`
	State      *string `json:"state" db:"state" validate:"omitempty,oneof=NEW EQUIPPED UNEQUIPPED DESTROYED"`
}

// InstanceUpdate 更新实例
type InstanceUpdate struct {
	ID       string  `json:"id" db:"id" validate:"required,nonblank"`
	ShardID  *string `json:"shardId" db:"shard_id" validate:"omitempty,nonblank"`
	PlayerID *string `json:"playerId" db:"player_id" validate:"omitempty,nonblank"`
	State    *string `json:"state" db:"state" validate:"omitempty,oneof=NEW EQUIPPED UNEQUIPPED DESTROYED"`
}

// InstanceDelete 删除实例
type InstanceDelete struct {
	ID string `json:"id" db:"id" validate:"required,nonblank"`
}

// ---------------------------------------------------------------------------
// robot
// ---------------------------------------------------------------------------

// RobotCreate 创建机器人，组件字段只在工厂配置中使用
type RobotCreate struct {
	Name       string           `json:"name" db:"name" validate:"omitempty,nonblank"`
	OwnerID    string           `json:"ownerId" db:"owner_id" validate:"required,nonblank"`
	ShardID    string           `json:"shardId" db:"shard_id" validate:"required,nonblank"`
	BotType    string           `json:"botType" db:"bot_type" validate:"required,oneof=WORKER PLAYABLE KING"`
	SubType    *string          `json:"subType" db:"sub_type" validate:"omitempty,oneof=MINING HARVESTING CRAFTING SCOUTING"`
	SoulChip   *ComponentInput  `json:"soulChip" db:"-"`
	Skeleton   *ComponentInput  `json:"skeleton" db:"-"`
	Parts      []ComponentInput `json:"parts" db:"-" validate:"dive"`
	Expansions []ComponentInput `json:"expansions" db:"-" validate:"dive"`
}

// RobotRead 机器人查询条件
type RobotRead struct {
	ID      *string `json:"id" db:"id"`
	Name    *string `json:"name" db:"name"`
	OwnerID *string `json:"ownerId" db:"owner_id"`
	ShardID *string `json:"shardId" db:"shard_id"`
	BotType *string `json:"botType" db:"bot_type" validate:"omitempty,oneof=WORKER PLAYABLE KING"`
	SubType *string `json:"subType" db:"sub_type" validate:"omitempty,oneof=MINING HARVESTING CRAFTING SCOUTING"`
}

// RobotUpdate 更新机器人
type RobotUpdate struct {
	ID      string  `json:"id" db:"id" validate:"required,nonblank"`
	Version *int64  `json:"version" db:"version" validate:"omitempty,gte=1"`
	Name    *string `json:"name" db:"name" validate:"omitempty,nonblank"`
	OwnerID *string `json:"ownerId" db:"owner_id" validate:"omitempty,nonblank"`
	ShardID *string `json:"shardId" db:"shard_id" validate:"omitempty,nonblank"`
	BotType *string `json:"botType" db:"bot_type" validate:"omitempty,oneof=WORKER PLAYABLE KING"`
	SubType *string `json:"subType" db:"sub_type" validate:"omitempty,oneof=MINING HARVESTING CRAFTING SCOUTING"`
}

// RobotDelete 删除机器人
type RobotDelete struct {
	ID string `json:"id" db:"id" validate:"required,nonblank"`
}

// ---------------------------------------------------------------------------
// 槽位：soul_chip_slot / skeleton_slot 以 robotId 为键，
// part_slot / expansion_slot 以 (robotId, slotIx) 为键
// ---------------------------------------------------------------------------

// SoulChipSlotCreate 创建灵魂芯片槽位
type SoulChipSlotCreate struct {
	RobotID    string `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	InstanceID string `json:"instanceId" db:"instance_id" validate:"required,nonblank"`
}

// SoulChipSlotRead 灵魂芯片槽位查询条件
type SoulChipSlotRead struct {
	RobotID    *string `json:"robotId" db:"robot_id"`
	InstanceID *string `json:"instanceId" db:"instance_id"`
}

// SoulChipSlotUpdate 更新灵魂芯片槽位
type SoulChipSlotUpdate struct {
	RobotID    string  `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	InstanceID *string `json:"instanceId" db:"instance_id" validate:"omitempty,nonblank"`
}

// SoulChipSlotDelete 删除灵魂芯片槽位
type SoulChipSlotDelete struct {
	RobotID string `json:"robotId" db:"robot_id" validate:"required,nonblank"`
}

// SkeletonSlotCreate 创建骨架槽位
type SkeletonSlotCreate struct {
	RobotID    string `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	InstanceID string `json:"instanceId" db:"instance_id" validate:"required,nonblank"`
}

// SkeletonSlotRead 骨架槽位查询条件
type SkeletonSlotRead struct {
	RobotID    *string `json:"robotId" db:"robot_id"`
	InstanceID *string `json:"instanceId" db:"instance_id"`
}

// SkeletonSlotUpdate 更新骨架槽位
type SkeletonSlotUpdate struct {
	RobotID    string  `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	InstanceID *string `json:"instanceId" db:"instance_id" validate:"omitempty,nonblank"`
}

// SkeletonSlotDelete 删除骨架槽位
type SkeletonSlotDelete struct {
	RobotID string `json:"robotId" db:"robot_id" validate:"required,nonblank"`
}

// PartSlotCreate 创建部件槽位
type PartSlotCreate struct {
	RobotID    string `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	SlotIx     *int64 `json:"slotIx" db:"slot_ix" validate:"required,gte=0"`
	InstanceID string `json:"instanceId" db:"instance_id" validate:"required,nonblank"`
}

// PartSlotRead 部件槽位查询条件
type PartSlotRead struct {
	RobotID    *string `json:"robotId" db:"robot_id"`
	SlotIx     *int64  `json:"slotIx" db:"slot_ix" validate:"omitempty,gte=0"`
	InstanceID *string `json:"instanceId" db:"instance_id"`
}

// PartSlotUpdate 更新部件槽位
type PartSlotUpdate struct {
	RobotID    string  `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	SlotIx     *int64  `json:"slotIx" db:"slot_ix" validate:"required,gte=0"`
	InstanceID *string `json:"instanceId" db:"instance_id" validate:"omitempty,nonblank"`
}

// PartSlotDelete 删除部件槽位
type PartSlotDelete struct {
	RobotID string `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	SlotIx  *int64 `json:"slotIx" db:"slot_ix" validate:"required,gte=0"`
}

// ExpansionSlotCreate 创建扩展槽位
type ExpansionSlotCreate struct {
	RobotID    string `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	SlotIx     *int64 `json:"slotIx" db:"slot_ix" validate:"required,gte=0"`
	InstanceID string `json:"instanceId" db:"instance_id" validate:"required,nonblank"`
}

// ExpansionSlotRead 扩展槽位查询条件
type ExpansionSlotRead struct {
	RobotID    *string `json:"robotId" db:"robot_id"`
	SlotIx     *int64  `json:"slotIx" db:"slot_ix" validate:"omitempty,gte=0"`
	InstanceID *string `json:"instanceId" db:"instance_id"`
}

// ExpansionSlotUpdate 更新扩展槽位
type ExpansionSlotUpdate struct {
	RobotID    string  `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	SlotIx     *int64  `json:"slotIx" db:"slot_ix" validate:"required,gte=0"`
	InstanceID *string `json:"instanceId" db:"instance_id" validate:"omitempty,nonblank"`
}

// ExpansionSlotDelete 删除扩展槽位
type ExpansionSlotDelete struct {
	RobotID string `json:"robotId" db:"robot_id" validate:"required,nonblank"`
	SlotIx  *int64 `json:"slotIx" db:"slot_ix" validate:"required,gte=0"`
}

// ---------------------------------------------------------------------------
// item
// ---------------------------------------------------------------------------

// ItemCreate 创建物品
type ItemCreate struct {
	OwnerID         string  `json:"ownerId" db:"owner_id" validate:"required,nonblank"`
	Name            string  `json:"name" db:"name" validate:"required,nonblank"`
	Category        string  `json:"category" db:"category" validate:"required,oneof=GEM RESOURCE SPEED_UP TRADEABLE CONSUMABLE"`
	Rarity          string  `json:"rarity" db:"rarity" validate:"required,oneof=COMMON UNCOMMON RARE EPIC LEGENDARY"`
	Value           int64   `json:"value" db:"value" validate:"gte=0"`
	GemType         *string `json:"gemType" db:"gem_type" validate:"omitempty,nonblank"`
	DurationSeconds *int64  `json:"durationSeconds" db:"duration_seconds" validate:"omitempty,gt=0"`
	TradeValue      *int64  `json:"tradeValue" db:"trade_value" validate:"omitempty,gte=0"`
}

// ItemRead 物品查询条件
type ItemRead struct {
	ID       *string `json:"id" db:"id"`
	OwnerID  *string `json:"ownerId" db:"owner_id"`
	Name     *string `json:"name" db:"name"`
	Category *string `json:"category" db:"category" validate:"omitempty,oneof=GEM RESOURCE SPEED_UP TRADEABLE CONSUMABLE"`
	Rarity   *string `json:"rarity" db:"rarity" validate:"omitempty,oneof=COMMON UNCOMMON RARE EPIC LEGENDARY"`
}

// ItemUpdate 更新物品
type ItemUpdate struct {
	ID              string  `json:"id" db:"id" validate:"required,nonblank"`
	Version         *int64  `json:"version" db:"version" validate:"omitempty,gte=1"`
	OwnerID         *string `json:"ownerId" db:"owner_id" validate:"omitempty,nonblank"`
	Name            *string `json:"name" db:"name" validate:"omitempty,nonblank"`
	Category        *string `json:"category" db:"category" validate:"omitempty,oneof=GEM RESOURCE SPEED_UP TRADEABLE CONSUMABLE"`
	Rarity          *string `json:"rarity" db:"rarity" validate:"omitempty,oneof=COMMON UNCOMMON RARE EPIC LEGENDARY"`
	Value           *int64  `json:"value" db:"value" validate:"omitempty,gte=0"`
	GemType         *string `json:"gemType" db:"gem_type" validate:"omitempty,nonblank"`
	DurationSeconds *int64  `json:"durationSeconds" db:"duration_seconds" validate:"omitempty,gt=0"`
	TradeValue      *int64  `json:"tradeValue" db:"trade_value" validate:"omitempty,gte=0"`
}

// ItemDelete 删除物品
type ItemDelete struct {
	ID string `json:"id" db:"id" validate:"required,nonblank"`
}
