package model

// BotType 机器人类型
type BotType string

const (
	BotTypeWorker   BotType = "WORKER"
	BotTypePlayable BotType = "PLAYABLE"
	BotTypeKing     BotType = "KING"
)

// Valid 是否为已知类型
func (t BotType) Valid() bool {
	switch t {
	case BotTypeWorker, BotTypePlayable, BotTypeKing:
		return true
	}
	return false
}

// RequiresAssembly PLAYABLE/KING 需要完整组装
func (t BotType) RequiresAssembly() bool {
	return t == BotTypePlayable || t == BotTypeKing
}

// WorkerSubType 工人机器人子类型
type WorkerSubType string

const (
	SubTypeMining     WorkerSubType = "MINING"
	SubTypeHarvesting WorkerSubType = "HARVESTING"
	SubTypeCrafting   WorkerSubType = "CRAFTING"
	SubTypeScouting   WorkerSubType = "SCOUTING"
)

// Valid 是否为已知子类型
func (s WorkerSubType) Valid() bool {
	switch s {
	case SubTypeMining, SubTypeHarvesting, SubTypeCrafting, SubTypeScouting:
		return true
	}
	return false
}

// Title 首字母大写形式，用于默认名称
func (s WorkerSubType) Title() string {
	if s == "" {
		return ""
	}
	b := []byte(string(s))
	for i := 1; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// TemplateClass 模板类别
type TemplateClass string

const (
	ClassSoulChip      TemplateClass = "SOUL_CHIP"
	ClassSkeleton      TemplateClass = "SKELETON"
	ClassPart          TemplateClass = "PART"
	ClassExpansionChip TemplateClass = "EXPANSION_CHIP"
)

// Valid 是否为已知类别
func (c TemplateClass) Valid() bool {
	switch c {
	case ClassSoulChip, ClassSkeleton, ClassPart, ClassExpansionChip:
		return true
	}
	return false
}

// InstanceState 实例状态
type InstanceState string

const (
	StateNew        InstanceState = "NEW"
	StateEquipped   InstanceState = "EQUIPPED"
	StateUnequipped InstanceState = "UNEQUIPPED"
	StateDestroyed  InstanceState = "DESTROYED"
)

// instanceTransitions 允许的状态迁移
var instanceTransitions = map[InstanceState][]InstanceState{
	StateNew:        {StateEquipped, StateDestroyed},
	StateEquipped:   {StateUnequipped},
	StateUnequipped: {StateEquipped, StateDestroyed},
}

// Valid 是否为已知状态
func (s InstanceState) Valid() bool {
	switch s {
	case StateNew, StateEquipped, StateUnequipped, StateDestroyed:
		return true
	}
	return false
}

// CanTransition 是否允许迁移到目标状态
func (s InstanceState) CanTransition(to InstanceState) bool {
	for _, next := range instanceTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ItemCategory 物品类别
type ItemCategory string

const (
	CategoryGem        ItemCategory = "GEM"
	CategoryResource   ItemCategory = "RESOURCE"
	CategorySpeedUp    ItemCategory = "SPEED_UP"
	CategoryTradeable  ItemCategory = "TRADEABLE"
	CategoryConsumable ItemCategory = "CONSUMABLE"
)

// Valid 是否为已知类别
func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryGem, CategoryResource, CategorySpeedUp, CategoryTradeable, CategoryConsumable:
		return true
	}
	return false
}

// Rarity 稀有度，按声明顺序递增
type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

var rarityRank = map[Rarity]int{
	RarityCommon:    1,
	RarityUncommon:  2,
	RarityRare:      3,
	RarityEpic:      4,
	RarityLegendary: 5,
}

// Valid 是否为已知稀有度
func (r Rarity) Valid() bool {
	_, ok := rarityRank[r]
	return ok
}

// Rank 稀有度等级，未知为 0
func (r Rarity) Rank() int {
	return rarityRank[r]
}

// AtLeast 是否不低于目标稀有度
func (r Rarity) AtLeast(other Rarity) bool {
	return r.Rank() >= other.Rank()
}

// ProviderCredential 账号密码登录的 provider
const ProviderCredential = "credential"
