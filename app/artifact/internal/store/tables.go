package store

import (
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
)

// 表名
const (
	TableAccount       = "account"
	TableTemplate      = "template"
	TableInstance      = "instance"
	TableRobot         = "robot"
	TableSoulChipSlot  = "soul_chip_slot"
	TableSkeletonSlot  = "skeleton_slot"
	TablePartSlot      = "part_slot"
	TableExpansionSlot = "expansion_slot"
	TableItem          = "item"
)

// SlotTables 机器人的四张槽位表
var SlotTables = []string{TableSoulChipSlot, TableSkeletonSlot, TablePartSlot, TableExpansionSlot}

func str(name string) Column     { return Column{Name: name, Kind: KindString} }
func optStr(name string) Column  { return Column{Name: name, Kind: KindString, Nullable: true} }
func integer(name string) Column { return Column{Name: name, Kind: KindInt} }
func optInt(name string) Column  { return Column{Name: name, Kind: KindInt, Nullable: true} }
func optTime(name string) Column { return Column{Name: name, Kind: KindTime, Nullable: true} }
func timestamps() []Column {
	return []Column{{Name: ColCreatedAt, Kind: KindTime}, {Name: ColUpdatedAt, Kind: KindTime}}
}
func jsonCol(name string) Column { return Column{Name: name, Kind: KindJSON} }
func slotCols(indexed bool) []Column {
	cols := []Column{str("robot_id")}
	if indexed {
		cols = append(cols, integer("slot_ix"))
	}
	return append(cols, str("instance_id"))
}

// ArtifactTableDefs 所有表定义，按外键依赖顺序排列
func ArtifactTableDefs() []TableDef {
	return []TableDef{
		{
			Name: TableAccount,
			Columns: append([]Column{
				str(ColID), str("user_id"), str("provider_id"), str("account_id"),
				optStr("access_token"), optStr("refresh_token"), optStr("id_token"),
				optTime("access_token_expires_at"), optTime("refresh_token_expires_at"),
				optStr("scope"), optStr("password"), integer(ColVersion),
			}, timestamps()...),
			PrimaryKey: []string{ColID},
			Unique:     [][]string{{"user_id", "provider_id", "account_id"}},
			AutoID:     true, Timestamps: true, Versioned: true,
		},
		{
			Name: TableTemplate,
			Columns: append([]Column{
				str(ColID), str("class"), str("name"), str("slug"), jsonCol("meta"),
			}, timestamps()...),
			PrimaryKey: []string{ColID},
			Unique:     [][]string{{"slug"}},
			AutoID:     true, Timestamps: true,
		},
		{
			Name: TableInstance,
			Columns: append([]Column{
				str(ColID), str("template_id"), str("shard_id"), str("player_id"), str("state"),
			}, timestamps()...),
			PrimaryKey: []string{ColID},
			AutoID:     true, Timestamps: true,
		},
		{
			Name: TableRobot,
			Columns: append([]Column{
				str(ColID), str("name"), str("owner_id"), str("shard_id"), str("bot_type"),
				optStr("sub_type"), integer(ColVersion),
			}, timestamps()...),
			PrimaryKey: []string{ColID},
			AutoID:     true, Timestamps: true, Versioned: true,
		},
		{
			Name:       TableSoulChipSlot,
			Columns:    slotCols(false),
			PrimaryKey: []string{"robot_id"},
			Unique:     [][]string{{"instance_id"}},
		},
		{
			Name:       TableSkeletonSlot,
			Columns:    slotCols(false),
			PrimaryKey: []string{"robot_id"},
			Unique:     [][]string{{"instance_id"}},
		},
		{
			Name:       TablePartSlot,
			Columns:    slotCols(true),
			PrimaryKey: []string{"robot_id", "slot_ix"},
			Unique:     [][]string{{"instance_id"}},
		},
		{
			Name:       TableExpansionSlot,
			Columns:    slotCols(true),
			PrimaryKey: []string{"robot_id", "slot_ix"},
			Unique:     [][]string{{"instance_id"}},
		},
		{
			Name: TableItem,
			Columns: append([]Column{
				str(ColID), str("owner_id"), str("name"), str("category"), str("rarity"),
				integer("value"), optStr("gem_type"), optInt("duration_seconds"), optInt("trade_value"),
				integer(ColVersion),
			}, timestamps()...),
			PrimaryKey: []string{ColID},
			AutoID:     true, Timestamps: true, Versioned: true,
		},
	}
}

// NewArtifactTables 创建包含所有表的注册表
func NewArtifactTables(ids idgen.Generator, clock idgen.Clock) (*Tables, error) {
	return NewTables(ids, clock, ArtifactTableDefs()...)
}
