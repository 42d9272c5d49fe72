package factory

import (
	"strings"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/schema"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

const entityItem = "item"

// ItemParams 构造物品的参数
type ItemParams struct {
	OwnerID  string
	Name     string
	Category model.ItemCategory
	Rarity   model.Rarity
	Value    int64

	GemType         string
	DurationSeconds *int64
	TradeValue      *int64
}

// ItemFactory 物品工厂
type ItemFactory struct {
	ctx    *Context
	logger logger.Logger
}

// NewItemFactory 创建物品工厂
func NewItemFactory(ctx *Context) *ItemFactory {
	return &ItemFactory{
		ctx:    ctx,
		logger: ctx.Logger.Named("factory.item"),
	}
}

// CreateItemArtifact 构造物品，与类别无关的属性会被丢弃
func (f *ItemFactory) CreateItemArtifact(p ItemParams) (*model.Item, error) {
	if !p.Category.Valid() {
		return nil, f.fail(model.NewConstructionError(entityItem, "unknown category %q", p.Category))
	}
	if !p.Rarity.Valid() {
		return nil, f.fail(model.NewConstructionError(entityItem, "unknown rarity %q", p.Rarity))
	}

	it := &model.Item{
		OwnerID:  p.OwnerID,
		Name:     strings.TrimSpace(p.Name),
		Category: p.Category,
		Rarity:   p.Rarity,
		Value:    p.Value,
	}
	switch p.Category {
	case model.CategoryGem:
		it.GemType = p.GemType
	case model.CategorySpeedUp:
		it.DurationSeconds = copyInt64(p.DurationSeconds)
	case model.CategoryTradeable:
		it.TradeValue = copyInt64(p.TradeValue)
	}

	f.ctx.record(entityItem, EventCreated)
	f.logger.Debug("item artifact created", "name", it.Name, "category", it.Category, "rarity", it.Rarity)
	return it, nil
}

// CreateItemArtifactFromConfig 先经过 item.create 校验再构造
func (f *ItemFactory) CreateItemArtifactFromConfig(raw map[string]any) (*model.Item, error) {
	in, errs := schema.Parse[schema.ItemCreate](schema.Of(schema.EntityItem, schema.Create), raw)
	if !errs.Empty() {
		return nil, f.fail(constructionFromErrors(entityItem, errs))
	}
	p := ItemParams{
		OwnerID:         in.OwnerID,
		Name:            in.Name,
		Category:        model.ItemCategory(in.Category),
		Rarity:          model.Rarity(in.Rarity),
		Value:           in.Value,
		DurationSeconds: in.DurationSeconds,
		TradeValue:      in.TradeValue,
	}
	if in.GemType != nil {
		p.GemType = *in.GemType
	}
	return f.CreateItemArtifact(p)
}

// ValidateArtifact 校验领域规则，收集全部错误
func (f *ItemFactory) ValidateArtifact(it *model.Item) ValidationResult {
	var errs model.ErrorList
	if it == nil {
		errs.Add("", "item is nil")
		return f.finish(errs)
	}

	if strings.TrimSpace(it.Name) == "" {
		errs.Add("name", "must not be blank")
	}
	if strings.TrimSpace(it.OwnerID) == "" {
		errs.Add("ownerId", "is required")
	}
	if !it.Category.Valid() {
		errs.Add("category", "unknown category %q", it.Category)
	}
	if !it.Rarity.Valid() {
		errs.Add("rarity", "unknown rarity %q", it.Rarity)
	}
	if it.Value < 0 {
		errs.Add("value", "must be at least 0")
	}

	switch it.Category {
	case model.CategoryGem:
		if strings.TrimSpace(it.GemType) == "" {
			errs.Add("gemType", "GEM items need a gem type")
		}
	case model.CategorySpeedUp:
		if it.DurationSeconds == nil || *it.DurationSeconds <= 0 {
			errs.Add("durationSeconds", "SPEED_UP items need a positive duration")
		}
	case model.CategoryTradeable:
		if it.TradeValue == nil {
			errs.Add("tradeValue", "TRADEABLE items need a trade value")
		} else if *it.TradeValue < 0 {
			errs.Add("tradeValue", "must be at least 0")
		}
	}

	return f.finish(errs)
}

// BatchCreateArtifacts 逐个构造并校验，单个失败不影响其余配置
func (f *ItemFactory) BatchCreateArtifacts(configs []map[string]any) BatchResult[*model.Item] {
	var res BatchResult[*model.Item]
	for i, cfg := range configs {
		it, err := f.CreateItemArtifactFromConfig(cfg)
		if err == nil {
			err = f.ValidateArtifact(it).Err(entityItem)
		}
		if err != nil {
			name := configName(cfg, i)
			f.logger.Warn("item config rejected", "index", i, "name", name, "error", err)
			res.Failures = append(res.Failures, Failure{Index: i, Name: name, Config: cfg, Err: err})
			continue
		}
		res.Artifacts = append(res.Artifacts, it)
	}
	return res
}

// ArtifactToDTOPipeline 校验通过后转换为 DTO
func (f *ItemFactory) ArtifactToDTOPipeline(it *model.Item) PipelineResult[dto.ItemDTO] {
	v := f.ValidateArtifact(it)
	if !v.IsValid {
		return PipelineResult[dto.ItemDTO]{Validation: v}
	}
	d := dto.ItemToDTO(it)
	return PipelineResult[dto.ItemDTO]{DTO: &d, Validation: v}
}

// Stats 工厂计数器快照
func (f *ItemFactory) Stats() StatsSnapshot {
	return f.ctx.Stats.Snapshot()
}

func (f *ItemFactory) fail(err error) error {
	f.ctx.record(entityItem, EventFailed)
	return err
}

func (f *ItemFactory) finish(errs model.ErrorList) ValidationResult {
	if errs.Empty() {
		f.ctx.record(entityItem, EventValidated)
	} else {
		f.ctx.record(entityItem, EventFailed)
	}
	return resultOf(errs)
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
