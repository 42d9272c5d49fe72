package autosync

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/schema"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

const entityBot = "bot"

// slotRef 组件在机器人上的位置
type slotRef struct {
	path      string
	component model.Component
}

func slotRefs(b *model.Bot) []slotRef {
	var refs []slotRef
	if b.SoulChip != nil {
		refs = append(refs, slotRef{path: "soulChip", component: *b.SoulChip})
	}
	if b.Skeleton != nil {
		refs = append(refs, slotRef{path: "skeleton", component: *b.Skeleton})
	}
	for i, c := range b.Parts {
		refs = append(refs, slotRef{path: fmt.Sprintf("parts[%d]", i), component: c})
	}
	for i, c := range b.Expansions {
		refs = append(refs, slotRef{path: fmt.Sprintf("expansions[%d]", i), component: c})
	}
	return refs
}

// SaveBotArtifact 保存新机器人：校验、跨实体检查、写入 robot、写入槽位并装备实例
// 槽位写入失败时删除已创建的 robot 记录
func (s *Syncer) SaveBotArtifact(ctx context.Context, b *model.Bot) (saved *model.Bot, err error) {
	ctx, done := s.begin(ctx, entityBot, "save")
	defer func() { done(err) }()

	// 1. 领域规则
	if err := s.bots.ValidateArtifact(b).Err(entityBot); err != nil {
		return nil, err
	}

	// 2. 跨实体检查
	instances, err := s.checkComponents(ctx, b)
	if err != nil {
		return nil, err
	}

	// 3. 写入 robot
	d := dto.BotToDTO(b)
	robot, err := s.store.Create(ctx, store.TableRobot, d.Robot.ToRecord())
	if err != nil {
		return nil, persistence("create", store.TableRobot, err)
	}
	id := robot.String(store.ColID)
	d = d.WithRobotID(id)

	// 4. 槽位与实例状态
	ops := make([]store.Op, 0, 2*len(instances))
	for _, sr := range d.SlotRecords() {
		ops = append(ops, store.Op{Kind: store.OpCreate, Table: sr.Table, Data: sr.Record})
	}
	ops = append(ops, equipOps(d.InstanceIDs(), instances)...)
	if len(ops) > 0 {
		if _, err := s.store.Batch(ctx, ops); err != nil {
			// 5. 补偿
			if derr := s.store.Delete(ctx, store.TableRobot, store.Key{store.ColID: id}); derr != nil {
				s.logger.ErrorContext(ctx, "failed to roll back robot", "id", id, "error", derr)
				err = errors.CombineErrors(err, derr)
			} else {
				s.logger.WarnContext(ctx, "robot rolled back after slot failure", "id", id, "error", err)
			}
			return nil, persistence("batch", store.TableRobot, err)
		}
	}

	saved, err = s.loadBot(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bot saved", "id", id, "name", saved.Name, "bot_type", saved.BotType)
	return saved, nil
}

// LoadBotArtifact 按 ID 加载机器人，不存在时返回 nil, nil
func (s *Syncer) LoadBotArtifact(ctx context.Context, id string) (b *model.Bot, err error) {
	ctx, done := s.begin(ctx, entityBot, "load")
	defer func() { done(err) }()
	return s.loadBot(ctx, id)
}

// UpdateBotArtifact 更新机器人及其槽位，version 必须与存储一致
func (s *Syncer) UpdateBotArtifact(ctx context.Context, b *model.Bot) (updated *model.Bot, err error) {
	ctx, done := s.begin(ctx, entityBot, "update")
	defer func() { done(err) }()

	if b == nil || !b.IsPersisted() {
		return nil, &model.NotFoundError{Entity: entityBot}
	}
	if err := s.bots.ValidateArtifact(b).Err(entityBot); err != nil {
		return nil, err
	}

	current, err := s.loadBot(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &model.NotFoundError{Entity: entityBot, ID: b.ID}
	}
	if current.Version != b.Version {
		s.states.set(b.ID, StateStale)
		return nil, &model.ConflictError{Entity: entityBot, ID: b.ID}
	}

	instances, err := s.checkComponents(ctx, b)
	if err != nil {
		return nil, err
	}

	// robot 带 version 条件更新，旧槽位整体替换
	d := dto.BotToDTO(b)
	old := dto.BotToDTO(current)
	ops := []store.Op{{Kind: store.OpUpdate, Table: store.TableRobot, Key: versionKey(b.ID, b.Version), Data: d.Robot.ToRecord()}}
	for _, sr := range old.SlotRecords() {
		ops = append(ops, store.Op{Kind: store.OpDelete, Table: sr.Table, Key: slotKey(sr)})
	}
	for _, sr := range d.SlotRecords() {
		ops = append(ops, store.Op{Kind: store.OpCreate, Table: sr.Table, Data: sr.Record})
	}
	ops = append(ops, unequipOps(old.InstanceIDs(), d.InstanceIDs())...)
	ops = append(ops, equipOps(d.InstanceIDs(), instances)...)

	if _, err := s.store.Batch(ctx, ops); err != nil {
		return nil, s.resolveUpdateErr(ctx, entityBot, store.TableRobot, b.ID, err)
	}

	updated, err = s.loadBot(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bot updated", "id", updated.ID, "version", updated.Version)
	return updated, nil
}

// DeleteBotArtifact 删除机器人及其槽位，释放的实例变为 UNEQUIPPED
func (s *Syncer) DeleteBotArtifact(ctx context.Context, id string) (err error) {
	ctx, done := s.begin(ctx, entityBot, "delete")
	defer func() { done(err) }()

	current, err := s.loadBot(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return &model.NotFoundError{Entity: entityBot, ID: id}
	}

	d := dto.BotToDTO(current)
	var ops []store.Op
	for _, sr := range d.SlotRecords() {
		ops = append(ops, store.Op{Kind: store.OpDelete, Table: sr.Table, Key: slotKey(sr)})
	}
	ops = append(ops, unequipOps(d.InstanceIDs(), nil)...)
	ops = append(ops, store.Op{Kind: store.OpDelete, Table: store.TableRobot, Key: store.Key{store.ColID: id}})

	if _, err := s.store.Batch(ctx, ops); err != nil {
		return persistence("delete", store.TableRobot, err)
	}
	s.states.forget(id)
	s.logger.InfoContext(ctx, "bot deleted", "id", id)
	return nil
}

// FindBotArtifacts 按 robot.read 条件查询机器人
func (s *Syncer) FindBotArtifacts(ctx context.Context, filter map[string]any) (bots []*model.Bot, err error) {
	ctx, done := s.begin(ctx, entityBot, "find")
	defer func() { done(err) }()

	res := schema.Validate(schema.Of(schema.EntityRobot, schema.Read), filter)
	if !res.Valid {
		return nil, &model.ValidationError{Entity: entityBot, Errors: res.Errors}
	}

	recs, err := s.store.List(ctx, store.TableRobot, store.Filter(schema.FilterColumns(res.Parsed)))
	if err != nil {
		return nil, persistence("list", store.TableRobot, err)
	}
	bots = make([]*model.Bot, 0, len(recs))
	for _, rec := range recs {
		b, err := s.loadBot(ctx, rec.String(store.ColID))
		if err != nil {
			return nil, err
		}
		if b != nil {
			bots = append(bots, b)
		}
	}
	return bots, nil
}

// loadBot 读取 robot、槽位、实例与模板并组装
func (s *Syncer) loadBot(ctx context.Context, id string) (*model.Bot, error) {
	rec, err := s.store.Find(ctx, store.TableRobot, store.Key{store.ColID: id})
	if err != nil {
		return nil, persistence("find", store.TableRobot, err)
	}
	if rec == nil {
		return nil, nil
	}

	robot, err := dto.RobotFromRecord(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "decode robot %s", id)
	}
	d := dto.BotDTO{Robot: robot, Components: make(map[string]dto.ComponentDTO)}

	slots := make(map[string][]store.Record, len(store.SlotTables))
	for _, table := range store.SlotTables {
		recs, err := s.store.List(ctx, table, store.Filter{"robot_id": id})
		if err != nil {
			return nil, persistence("list", table, err)
		}
		slots[table] = recs
	}

	if recs := slots[store.TableSoulChipSlot]; len(recs) > 0 {
		slot, err := dto.SlotFromRecord[dto.SoulChipSlotDTO](recs[0])
		if err != nil {
			return nil, errors.Wrapf(err, "decode soul chip slot of %s", id)
		}
		d.SoulChipSlot = &slot
	}
	if recs := slots[store.TableSkeletonSlot]; len(recs) > 0 {
		slot, err := dto.SlotFromRecord[dto.SkeletonSlotDTO](recs[0])
		if err != nil {
			return nil, errors.Wrapf(err, "decode skeleton slot of %s", id)
		}
		d.SkeletonSlot = &slot
	}
	for _, r := range slots[store.TablePartSlot] {
		slot, err := dto.SlotFromRecord[dto.PartSlotDTO](r)
		if err != nil {
			return nil, errors.Wrapf(err, "decode part slot of %s", id)
		}
		d.PartSlots = append(d.PartSlots, slot)
	}
	for _, r := range slots[store.TableExpansionSlot] {
		slot, err := dto.SlotFromRecord[dto.ExpansionSlotDTO](r)
		if err != nil {
			return nil, errors.Wrapf(err, "decode expansion slot of %s", id)
		}
		d.ExpansionSlots = append(d.ExpansionSlots, slot)
	}

	templates := make(map[string]dto.TemplateDTO)
	for _, instanceID := range d.InstanceIDs() {
		comp, err := s.loadComponent(ctx, instanceID, templates)
		if err != nil {
			return nil, err
		}
		d.Components[instanceID] = comp
	}

	b, err := dto.BotFromDTO(d)
	if err != nil {
		return nil, err
	}
	s.states.set(id, StatePersisted)
	return b, nil
}

// loadComponent 读取实例及其模板，templates 为本次加载内的模板缓存
func (s *Syncer) loadComponent(ctx context.Context, instanceID string, templates map[string]dto.TemplateDTO) (dto.ComponentDTO, error) {
	rec, err := s.store.Find(ctx, store.TableInstance, store.Key{store.ColID: instanceID})
	if err != nil {
		return dto.ComponentDTO{}, persistence("find", store.TableInstance, err)
	}
	if rec == nil {
		return dto.ComponentDTO{}, &model.NotFoundError{Entity: entityInstance, ID: instanceID}
	}
	inst, err := dto.InstanceFromRecord(rec)
	if err != nil {
		return dto.ComponentDTO{}, errors.Wrapf(err, "decode instance %s", instanceID)
	}

	tpl, ok := templates[inst.TemplateID]
	if !ok {
		found, err := s.findTemplate(ctx, inst.TemplateID)
		if err != nil {
			return dto.ComponentDTO{}, err
		}
		if found == nil {
			return dto.ComponentDTO{}, &model.NotFoundError{Entity: entityTemplate, ID: inst.TemplateID}
		}
		tpl = *found
		templates[inst.TemplateID] = tpl
	}
	return dto.ComponentDTO{Instance: inst, Template: tpl}, nil
}

// checkComponents 检查组件引用：模板与实例存在、实例未销毁且属于机器人所有者、未装配在其他机器人上
// 返回实例 ID 到存储记录的映射
func (s *Syncer) checkComponents(ctx context.Context, b *model.Bot) (map[string]store.Record, error) {
	var errs model.ErrorList
	instances := make(map[string]store.Record)

	for _, ref := range slotRefs(b) {
		c := ref.component

		tpl, err := s.findTemplate(ctx, c.Template.ID)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			errs.Add(ref.path+".template.id", "template %q does not exist", c.Template.ID)
		}

		inst, err := s.store.Find(ctx, store.TableInstance, store.Key{store.ColID: c.Instance.ID})
		if err != nil {
			return nil, persistence("find", store.TableInstance, err)
		}
		if inst == nil {
			errs.Add(ref.path+".instanceId", "instance %q does not exist", c.Instance.ID)
			continue
		}
		instances[c.Instance.ID] = inst

		if inst.String("template_id") != c.Template.ID {
			errs.Add(ref.path+".templateId", "instance %q is minted from template %q", c.Instance.ID, inst.String("template_id"))
		}
		if model.InstanceState(inst.String("state")) == model.StateDestroyed {
			errs.Add(ref.path+".state", "instance %q is destroyed", c.Instance.ID)
		}
		if owner := inst.String("player_id"); owner != b.OwnerID {
			errs.Add(ref.path+".instanceId", "instance %q belongs to player %q", c.Instance.ID, owner)
		}

		for _, table := range store.SlotTables {
			bound, err := s.store.List(ctx, table, store.Filter{"instance_id": c.Instance.ID})
			if err != nil {
				return nil, persistence("list", table, err)
			}
			for _, r := range bound {
				if robotID := r.String("robot_id"); robotID != b.ID {
					errs.Add(ref.path+".instanceId", "instance %q is equipped by robot %q", c.Instance.ID, robotID)
				}
			}
		}
	}

	if !errs.Empty() {
		return nil, &model.ValidationError{Entity: entityBot, Errors: errs}
	}
	return instances, nil
}

// slotKey 槽位记录的主键
func slotKey(sr dto.SlotRecord) store.Key {
	key := store.Key{"robot_id": sr.Record["robot_id"]}
	if ix, ok := sr.Record["slot_ix"]; ok {
		key["slot_ix"] = ix
	}
	return key
}

// equipOps 未装备的实例标记为 EQUIPPED
func equipOps(ids []string, instances map[string]store.Record) []store.Op {
	var ops []store.Op
	for _, id := range ids {
		if model.InstanceState(instances[id].String("state")) == model.StateEquipped {
			continue
		}
		ops = append(ops, stateOp(id, model.StateEquipped))
	}
	return ops
}

// unequipOps 不再使用的实例标记为 UNEQUIPPED
func unequipOps(before, after []string) []store.Op {
	keep := make(map[string]bool, len(after))
	for _, id := range after {
		keep[id] = true
	}
	var ops []store.Op
	for _, id := range before {
		if !keep[id] {
			ops = append(ops, stateOp(id, model.StateUnequipped))
		}
	}
	return ops
}

func stateOp(id string, state model.InstanceState) store.Op {
	return store.Op{
		Kind:  store.OpUpdate,
		Table: store.TableInstance,
		Key:   store.Key{store.ColID: id},
		Data:  store.Record{"state": string(state)},
	}
}
