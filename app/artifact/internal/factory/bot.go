package factory

import (
	"fmt"
	"strings"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/schema"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

const (
	entityBot = "bot"

	// workerSuffixLen 默认工人名称中 ID 后缀的长度
	workerSuffixLen = 6
)

// BotParams 构造机器人的参数
type BotParams struct {
	Name    string
	OwnerID string
	ShardID string
	BotType model.BotType
	SubType model.WorkerSubType

	SoulChip   *model.Component
	Skeleton   *model.Component
	Parts      []model.Component
	Expansions []model.Component
}

// BotFactory 机器人工厂
type BotFactory struct {
	ctx    *Context
	logger logger.Logger
}

// NewBotFactory 创建机器人工厂
func NewBotFactory(ctx *Context) *BotFactory {
	return &BotFactory{
		ctx:    ctx,
		logger: ctx.Logger.Named("factory.bot"),
	}
}

// CreateBotArtifact 按类型默认值构造机器人，参数非法时返回 *model.ConstructionError
func (f *BotFactory) CreateBotArtifact(p BotParams) (*model.Bot, error) {
	if !p.BotType.Valid() {
		return nil, f.fail(model.NewConstructionError(entityBot, "unknown bot type %q", p.BotType))
	}
	if p.SubType != "" && !p.SubType.Valid() {
		return nil, f.fail(model.NewConstructionError(entityBot, "unknown worker sub type %q", p.SubType))
	}

	b := &model.Bot{
		Name:       strings.TrimSpace(p.Name),
		OwnerID:    p.OwnerID,
		ShardID:    p.ShardID,
		BotType:    p.BotType,
		SubType:    p.SubType,
		SoulChip:   copyComponent(p.SoulChip),
		Skeleton:   copyComponent(p.Skeleton),
		Parts:      copyComponents(p.Parts),
		Expansions: copyComponents(p.Expansions),
	}

	if b.BotType == model.BotTypeWorker {
		if b.SoulChip != nil {
			f.logger.Debug("dropping soul chip from worker bot", "instance_id", b.SoulChip.Instance.ID)
			b.SoulChip = nil
		}
		if b.Name == "" {
			name, err := f.workerName(b.SubType)
			if err != nil {
				return nil, f.fail(model.NewConstructionError(entityBot, "generate worker name: %v", err))
			}
			b.Name = name
		}
	}

	f.ctx.record(entityBot, EventCreated)
	f.logger.Debug("bot artifact created", "name", b.Name, "bot_type", b.BotType)
	return b, nil
}

// CreateBotArtifactFromConfig 先经过 robot.create 校验再构造
func (f *BotFactory) CreateBotArtifactFromConfig(raw map[string]any) (*model.Bot, error) {
	in, errs := schema.Parse[schema.RobotCreate](schema.Of(schema.EntityRobot, schema.Create), raw)
	if !errs.Empty() {
		return nil, f.fail(constructionFromErrors(entityBot, errs))
	}

	p := BotParams{
		Name:    in.Name,
		OwnerID: in.OwnerID,
		ShardID: in.ShardID,
		BotType: model.BotType(in.BotType),
	}
	if in.SubType != nil {
		p.SubType = model.WorkerSubType(*in.SubType)
	}
	if in.SoulChip != nil {
		c := componentFromInput(*in.SoulChip, in.ShardID, in.OwnerID)
		p.SoulChip = &c
	}
	if in.Skeleton != nil {
		c := componentFromInput(*in.Skeleton, in.ShardID, in.OwnerID)
		p.Skeleton = &c
	}
	for _, c := range in.Parts {
		p.Parts = append(p.Parts, componentFromInput(c, in.ShardID, in.OwnerID))
	}
	for _, c := range in.Expansions {
		p.Expansions = append(p.Expansions, componentFromInput(c, in.ShardID, in.OwnerID))
	}
	return f.CreateBotArtifact(p)
}

// ValidateArtifact 校验领域规则，收集全部错误
func (f *BotFactory) ValidateArtifact(b *model.Bot) ValidationResult {
	var errs model.ErrorList
	if b == nil {
		errs.Add("", "bot is nil")
		return f.finish(errs)
	}

	if strings.TrimSpace(b.Name) == "" {
		errs.Add("name", "must not be blank")
	}
	if strings.TrimSpace(b.OwnerID) == "" {
		errs.Add("ownerId", "is required")
	}
	if strings.TrimSpace(b.ShardID) == "" {
		errs.Add("shardId", "is required")
	}

	switch {
	case !b.BotType.Valid():
		errs.Add("botType", "unknown bot type %q", b.BotType)
	case b.BotType == model.BotTypeWorker:
		if !b.SubType.Valid() {
			errs.Add("subType", "WORKER bots need a valid sub type, got %q", b.SubType)
		}
		if b.SoulChip != nil {
			errs.Add("soulChip", "WORKER bots cannot carry a soul chip")
		}
	default:
		if b.SubType != "" {
			errs.Add("subType", "only WORKER bots have a sub type")
		}
		if b.Skeleton == nil {
			errs.Add("skeleton", "%s bots need a skeleton", b.BotType)
		} else if len(b.Parts) != b.SlotCapacity() {
			errs.Add("parts", "expected %d parts for skeleton capacity, got %d", b.SlotCapacity(), len(b.Parts))
		}
	}

	seen := make(map[string]string)
	check := func(path string, c *model.Component, class model.TemplateClass) {
		if c == nil {
			return
		}
		validateComponent(&errs, path, *c, class)
		id := c.Instance.ID
		if id == "" {
			return
		}
		if prev, ok := seen[id]; ok {
			errs.Add(path+".instanceId", "instance %q is already used by %s", id, prev)
			return
		}
		seen[id] = path
	}
	check("soulChip", b.SoulChip, model.ClassSoulChip)
	check("skeleton", b.Skeleton, model.ClassSkeleton)
	for i := range b.Parts {
		check(fmt.Sprintf("parts[%d]", i), &b.Parts[i], model.ClassPart)
	}
	for i := range b.Expansions {
		check(fmt.Sprintf("expansions[%d]", i), &b.Expansions[i], model.ClassExpansionChip)
	}

	return f.finish(errs)
}

// BatchCreateArtifacts 逐个构造并校验，单个失败不影响其余配置
func (f *BotFactory) BatchCreateArtifacts(configs []map[string]any) BatchResult[*model.Bot] {
	var res BatchResult[*model.Bot]
	for i, cfg := range configs {
		b, err := f.CreateBotArtifactFromConfig(cfg)
		if err == nil {
			err = f.ValidateArtifact(b).Err(entityBot)
		}
		if err != nil {
			name := configName(cfg, i)
			f.logger.Warn("bot config rejected", "index", i, "name", name, "error", err)
			res.Failures = append(res.Failures, Failure{Index: i, Name: name, Config: cfg, Err: err})
			continue
		}
		res.Artifacts = append(res.Artifacts, b)
	}
	return res
}

// ArtifactToDTOPipeline 校验通过后转换为 DTO
func (f *BotFactory) ArtifactToDTOPipeline(b *model.Bot) PipelineResult[dto.BotDTO] {
	v := f.ValidateArtifact(b)
	if !v.IsValid {
		return PipelineResult[dto.BotDTO]{Validation: v}
	}
	d := dto.BotToDTO(b)
	return PipelineResult[dto.BotDTO]{DTO: &d, Validation: v}
}

// Stats 工厂计数器快照
func (f *BotFactory) Stats() StatsSnapshot {
	return f.ctx.Stats.Snapshot()
}

// workerName 默认工人名称，例如 "Mining Worker 3f9a1c"
func (f *BotFactory) workerName(sub model.WorkerSubType) (string, error) {
	id, err := f.ctx.IDs.NewID()
	if err != nil {
		return "", err
	}
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > workerSuffixLen {
		id = id[len(id)-workerSuffixLen:]
	}
	if sub == "" {
		return "Worker " + id, nil
	}
	return sub.Title() + " Worker " + id, nil
}

func (f *BotFactory) fail(err error) error {
	f.ctx.record(entityBot, EventFailed)
	return err
}

func (f *BotFactory) finish(errs model.ErrorList) ValidationResult {
	if errs.Empty() {
		f.ctx.record(entityBot, EventValidated)
	} else {
		f.ctx.record(entityBot, EventFailed)
	}
	return resultOf(errs)
}

// validateComponent 组件类别、实例与属性检查
func validateComponent(errs *model.ErrorList, path string, c model.Component, class model.TemplateClass) {
	if strings.TrimSpace(c.Instance.ID) == "" {
		errs.Add(path+".instanceId", "is required")
	}
	if c.Template.Class != class {
		errs.Add(path+".template.class", "must be %s, got %q", class, c.Template.Class)
	}
	if c.Instance.TemplateID != "" && c.Instance.TemplateID != c.Template.ID {
		errs.Add(path+".templateId", "instance template %q does not match template %q", c.Instance.TemplateID, c.Template.ID)
	}
	if c.Instance.State == model.StateDestroyed {
		errs.Add(path+".state", "destroyed instances cannot be equipped")
	}
	if !c.Stats().NonNegative() {
		errs.Add(path+".template.meta.baseStats", "stats must not be negative")
	}
}

// componentFromInput 配置中的组件转换为领域组件，实例归属于机器人的 shard 与 owner
func componentFromInput(in schema.ComponentInput, shardID, ownerID string) model.Component {
	state := model.StateNew
	if in.State != nil {
		state = model.InstanceState(*in.State)
	}
	t := in.Template
	return model.Component{
		Instance: model.Instance{
			ID:         in.InstanceID,
			TemplateID: t.ID,
			ShardID:    shardID,
			PlayerID:   ownerID,
			State:      state,
		},
		Template: model.Template{
			ID:    t.ID,
			Class: model.TemplateClass(t.Class),
			Name:  t.Name,
			Slug:  t.Slug,
			Meta: model.TemplateMeta{
				BaseStats: model.Stats{
					Attack:  t.Meta.BaseStats.Attack,
					Defense: t.Meta.BaseStats.Defense,
					Speed:   t.Meta.BaseStats.Speed,
				},
				SlotCapacity: t.Meta.SlotCapacity,
				Extra:        t.Meta.Extras(),
			},
		},
	}
}

func copyComponent(c *model.Component) *model.Component {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func copyComponents(cs []model.Component) []model.Component {
	if len(cs) == 0 {
		return nil
	}
	return append([]model.Component(nil), cs...)
}
