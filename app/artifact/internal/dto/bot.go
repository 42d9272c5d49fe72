package dto

import (
	"sort"
	"time"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

// RobotDTO 对应 robot 表
type RobotDTO struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerID   string    `db:"owner_id" json:"ownerId"`
	ShardID   string    `db:"shard_id" json:"shardId"`
	BotType   string    `db:"bot_type" json:"botType"`
	SubType   *string   `db:"sub_type" json:"subType"`
	Version   int64     `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ToRecord 转换为存储记录
func (d RobotDTO) ToRecord() store.Record {
	return store.Record{
		"id":       d.ID,
		"name":     d.Name,
		"owner_id": d.OwnerID,
		"shard_id": d.ShardID,
		"bot_type": d.BotType,
		"sub_type": d.SubType,
	}
}

// RobotFromRecord 从存储记录解码
func RobotFromRecord(rec store.Record) (RobotDTO, error) {
	var d RobotDTO
	err := decodeRecord(rec, &d)
	return d, err
}

// SoulChipSlotDTO 对应 soul_chip_slot 表
type SoulChipSlotDTO struct {
	RobotID    string `db:"robot_id" json:"robotId"`
	InstanceID string `db:"instance_id" json:"instanceId"`
}

// ToRecord 转换为存储记录
func (d SoulChipSlotDTO) ToRecord() store.Record {
	return store.Record{"robot_id": d.RobotID, "instance_id": d.InstanceID}
}

// SkeletonSlotDTO 对应 skeleton_slot 表
type SkeletonSlotDTO struct {
	RobotID    string `db:"robot_id" json:"robotId"`
	InstanceID string `db:"instance_id" json:"instanceId"`
}

// ToRecord 转换为存储记录
func (d SkeletonSlotDTO) ToRecord() store.Record {
	return store.Record{"robot_id": d.RobotID, "instance_id": d.InstanceID}
}

// PartSlotDTO 对应 part_slot 表
type PartSlotDTO struct {
	RobotID    string `db:"robot_id" json:"robotId"`
	SlotIx     int64  `db:"slot_ix" json:"slotIx"`
	InstanceID string `db:"instance_id" json:"instanceId"`
}

// ToRecord 转换为存储记录
func (d PartSlotDTO) ToRecord() store.Record {
	return store.Record{"robot_id": d.RobotID, "slot_ix": d.SlotIx, "instance_id": d.InstanceID}
}

// ExpansionSlotDTO 对应 expansion_slot 表
type ExpansionSlotDTO struct {
	RobotID    string `db:"robot_id" json:"robotId"`
	SlotIx     int64  `db:"slot_ix" json:"slotIx"`
	InstanceID string `db:"instance_id" json:"instanceId"`
}

// ToRecord 转换为存储记录
func (d ExpansionSlotDTO) ToRecord() store.Record {
	return store.Record{"robot_id": d.RobotID, "slot_ix": d.SlotIx, "instance_id": d.InstanceID}
}

// SlotFromRecord 解码任意槽位记录
func SlotFromRecord[T SoulChipSlotDTO | SkeletonSlotDTO | PartSlotDTO | ExpansionSlotDTO](rec store.Record) (T, error) {
	var d T
	err := decodeRecord(rec, &d)
	return d, err
}

// ComponentDTO 组件投影：实例及其模板
type ComponentDTO struct {
	Instance InstanceDTO `json:"instance"`
	Template TemplateDTO `json:"template"`
}

// ComponentToDTO 组件转换为 DTO
func ComponentToDTO(c model.Component) ComponentDTO {
	return ComponentDTO{Instance: InstanceToDTO(c.Instance), Template: TemplateToDTO(c.Template)}
}

// ComponentFromDTO DTO 转换为组件
func ComponentFromDTO(d ComponentDTO) (model.Component, error) {
	inst, err := InstanceFromDTO(d.Instance)
	if err != nil {
		return model.Component{}, err
	}
	tpl, err := TemplateFromDTO(d.Template)
	if err != nil {
		return model.Component{}, err
	}
	return model.Component{Instance: inst, Template: tpl}, nil
}

// BotDTO 机器人及其槽位记录，Components 以实例 ID 为键
type BotDTO struct {
	Robot          RobotDTO                `json:"robot"`
	SoulChipSlot   *SoulChipSlotDTO        `json:"soulChipSlot,omitempty"`
	SkeletonSlot   *SkeletonSlotDTO        `json:"skeletonSlot,omitempty"`
	PartSlots      []PartSlotDTO           `json:"partSlots,omitempty"`
	ExpansionSlots []ExpansionSlotDTO      `json:"expansionSlots,omitempty"`
	Components     map[string]ComponentDTO `json:"components,omitempty"`
}

// SlotRecord 槽位表名与记录
type SlotRecord struct {
	Table  string
	Record store.Record
}

// WithRobotID 返回机器人与所有槽位都指向 id 的副本
func (d BotDTO) WithRobotID(id string) BotDTO {
	d.Robot.ID = id
	if d.SoulChipSlot != nil {
		s := *d.SoulChipSlot
		s.RobotID = id
		d.SoulChipSlot = &s
	}
	if d.SkeletonSlot != nil {
		s := *d.SkeletonSlot
		s.RobotID = id
		d.SkeletonSlot = &s
	}
	parts := make([]PartSlotDTO, len(d.PartSlots))
	for i, s := range d.PartSlots {
		s.RobotID = id
		parts[i] = s
	}
	d.PartSlots = parts
	expansions := make([]ExpansionSlotDTO, len(d.ExpansionSlots))
	for i, s := range d.ExpansionSlots {
		s.RobotID = id
		expansions[i] = s
	}
	d.ExpansionSlots = expansions
	return d
}

// SlotRecords 按 soul chip、skeleton、parts、expansions 顺序返回槽位记录
func (d BotDTO) SlotRecords() []SlotRecord {
	out := make([]SlotRecord, 0, 2+len(d.PartSlots)+len(d.ExpansionSlots))
	if d.SoulChipSlot != nil {
		out = append(out, SlotRecord{Table: store.TableSoulChipSlot, Record: d.SoulChipSlot.ToRecord()})
	}
	if d.SkeletonSlot != nil {
		out = append(out, SlotRecord{Table: store.TableSkeletonSlot, Record: d.SkeletonSlot.ToRecord()})
	}
	for _, s := range d.PartSlots {
		out = append(out, SlotRecord{Table: store.TablePartSlot, Record: s.ToRecord()})
	}
	for _, s := range d.ExpansionSlots {
		out = append(out, SlotRecord{Table: store.TableExpansionSlot, Record: s.ToRecord()})
	}
	return out
}

// InstanceIDs 槽位引用的所有实例
func (d BotDTO) InstanceIDs() []string {
	recs := d.SlotRecords()
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.Record.String("instance_id")
	}
	return ids
}

// BotToDTO 机器人转换为 DTO
func BotToDTO(b *model.Bot) BotDTO {
	d := BotDTO{
		Robot: RobotDTO{
			ID:        b.ID,
			Name:      b.Name,
			OwnerID:   b.OwnerID,
			ShardID:   b.ShardID,
			BotType:   string(b.BotType),
			SubType:   optString(string(b.SubType)),
			Version:   b.Version,
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		},
		Components: make(map[string]ComponentDTO),
	}

	for _, c := range b.Components() {
		d.Components[c.Instance.ID] = ComponentToDTO(c)
	}
	if b.SoulChip != nil {
		d.SoulChipSlot = &SoulChipSlotDTO{RobotID: b.ID, InstanceID: b.SoulChip.Instance.ID}
	}
	if b.Skeleton != nil {
		d.SkeletonSlot = &SkeletonSlotDTO{RobotID: b.ID, InstanceID: b.Skeleton.Instance.ID}
	}
	for i, c := range b.Parts {
		d.PartSlots = append(d.PartSlots, PartSlotDTO{RobotID: b.ID, SlotIx: int64(i), InstanceID: c.Instance.ID})
	}
	for i, c := range b.Expansions {
		d.ExpansionSlots = append(d.ExpansionSlots, ExpansionSlotDTO{RobotID: b.ID, SlotIx: int64(i), InstanceID: c.Instance.ID})
	}
	return d
}

// BotFromDTO DTO 转换为机器人
// 槽位引用的实例必须出现在 Components 中，parts/expansions 按 slot_ix 排序
func BotFromDTO(d BotDTO) (*model.Bot, error) {
	botType := model.BotType(d.Robot.BotType)
	if !botType.Valid() {
		return nil, model.NewConstructionError("bot", "unknown bot type %q", d.Robot.BotType)
	}
	subType := model.WorkerSubType(derefString(d.Robot.SubType))
	if subType != "" && !subType.Valid() {
		return nil, model.NewConstructionError("bot", "unknown sub type %q", subType)
	}

	b := &model.Bot{
		ID:        d.Robot.ID,
		Name:      d.Robot.Name,
		OwnerID:   d.Robot.OwnerID,
		ShardID:   d.Robot.ShardID,
		BotType:   botType,
		SubType:   subType,
		Version:   d.Robot.Version,
		CreatedAt: d.Robot.CreatedAt,
		UpdatedAt: d.Robot.UpdatedAt,
	}

	resolve := func(robotID, instanceID string) (model.Component, error) {
		if robotID != d.Robot.ID {
			return model.Component{}, model.NewConstructionError("bot", "slot belongs to robot %q, not %q", robotID, d.Robot.ID)
		}
		c, ok := d.Components[instanceID]
		if !ok {
			return model.Component{}, model.NewConstructionError("bot", "slot references unknown instance %q", instanceID)
		}
		return ComponentFromDTO(c)
	}

	if s := d.SoulChipSlot; s != nil {
		c, err := resolve(s.RobotID, s.InstanceID)
		if err != nil {
			return nil, err
		}
		b.SoulChip = &c
	}
	if s := d.SkeletonSlot; s != nil {
		c, err := resolve(s.RobotID, s.InstanceID)
		if err != nil {
			return nil, err
		}
		b.Skeleton = &c
	}

	parts := append([]PartSlotDTO(nil), d.PartSlots...)
	sort.Slice(parts, func(i, j int) bool { return parts[i].SlotIx < parts[j].SlotIx })
	for _, s := range parts {
		c, err := resolve(s.RobotID, s.InstanceID)
		if err != nil {
			return nil, err
		}
		b.Parts = append(b.Parts, c)
	}

	expansions := append([]ExpansionSlotDTO(nil), d.ExpansionSlots...)
	sort.Slice(expansions, func(i, j int) bool { return expansions[i].SlotIx < expansions[j].SlotIx })
	for _, s := range expansions {
		c, err := resolve(s.RobotID, s.InstanceID)
		if err != nil {
			return nil, err
		}
		b.Expansions = append(b.Expansions, c)
	}
	return b, nil
}
