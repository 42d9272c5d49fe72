package autosync

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/schema"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

const (
	entityTemplate = "template"
	entityInstance = "instance"
)

// SaveTemplate 保存目录模板，模板创建后不可修改
func (s *Syncer) SaveTemplate(ctx context.Context, t model.Template) (saved *model.Template, err error) {
	ctx, done := s.begin(ctx, entityTemplate, "save")
	defer func() { done(err) }()

	input := map[string]any{
		"class": string(t.Class),
		"name":  t.Name,
		"slug":  t.Slug,
		"meta":  t.Meta.Map(),
	}
	if _, errs := schema.Parse[schema.TemplateCreate](schema.Of(schema.EntityTemplate, schema.Create), input); !errs.Empty() {
		return nil, &model.ValidationError{Entity: entityTemplate, Errors: errs}
	}

	rec, err := s.store.Create(ctx, store.TableTemplate, dto.TemplateToDTO(t).ToRecord())
	if err != nil {
		return nil, persistence("create", store.TableTemplate, err)
	}
	saved, err = templateFromRecord(rec)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "template saved", "id", saved.ID, "slug", saved.Slug, "class", saved.Class)
	return saved, nil
}

// LoadTemplate 按 ID 加载模板，不存在时返回 nil, nil
func (s *Syncer) LoadTemplate(ctx context.Context, id string) (*model.Template, error) {
	d, err := s.findTemplate(ctx, id)
	if err != nil || d == nil {
		return nil, err
	}
	t, err := dto.TemplateFromDTO(*d)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTemplateBySlug 按 slug 查找模板，不存在时返回 nil, nil
func (s *Syncer) FindTemplateBySlug(ctx context.Context, slug string) (*model.Template, error) {
	recs, err := s.store.List(ctx, store.TableTemplate, store.Filter{"slug": slug})
	if err != nil {
		return nil, persistence("list", store.TableTemplate, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return templateFromRecord(recs[0])
}

// MintInstance 由模板铸造新实例，状态为 NEW
func (s *Syncer) MintInstance(ctx context.Context, templateID, shardID, playerID string) (minted *model.Instance, err error) {
	ctx, done := s.begin(ctx, entityInstance, "mint")
	defer func() { done(err) }()

	input := map[string]any{"templateId": templateID, "shardId": shardID, "playerId": playerID}
	if _, errs := schema.Parse[schema.InstanceCreate](schema.Of(schema.EntityInstance, schema.Create), input); !errs.Empty() {
		return nil, &model.ValidationError{Entity: entityInstance, Errors: errs}
	}

	tpl, err := s.LoadTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, &model.NotFoundError{Entity: entityTemplate, ID: templateID}
	}

	d := dto.InstanceDTO{TemplateID: templateID, ShardID: shardID, PlayerID: playerID, State: string(model.StateNew)}
	rec, err := s.store.Create(ctx, store.TableInstance, d.ToRecord())
	if err != nil {
		return nil, persistence("create", store.TableInstance, err)
	}
	return instanceFromRecord(rec)
}

// LoadInstance 按 ID 加载实例，不存在时返回 nil, nil
func (s *Syncer) LoadInstance(ctx context.Context, id string) (*model.Instance, error) {
	rec, err := s.store.Find(ctx, store.TableInstance, store.Key{store.ColID: id})
	if err != nil {
		return nil, persistence("find", store.TableInstance, err)
	}
	if rec == nil {
		return nil, nil
	}
	return instanceFromRecord(rec)
}

// DestroyInstance 销毁实例，已装备的实例返回 model.ErrInvalidTransition
func (s *Syncer) DestroyInstance(ctx context.Context, id string) (destroyed *model.Instance, err error) {
	ctx, done := s.begin(ctx, entityInstance, "destroy")
	defer func() { done(err) }()

	inst, err := s.LoadInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, &model.NotFoundError{Entity: entityInstance, ID: id}
	}
	next, err := inst.Transition(model.StateDestroyed)
	if err != nil {
		return nil, errors.Wrapf(err, "instance %s", id)
	}

	rec, err := s.store.Update(ctx, store.TableInstance, store.Key{store.ColID: id}, store.Record{"state": string(next.State)})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &model.NotFoundError{Entity: entityInstance, ID: id}
		}
		return nil, persistence("update", store.TableInstance, err)
	}
	s.logger.InfoContext(ctx, "instance destroyed", "id", id, "template_id", inst.TemplateID)
	return instanceFromRecord(rec)
}

func templateFromRecord(rec store.Record) (*model.Template, error) {
	d, err := dto.TemplateFromRecord(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "decode template %s", rec.String(store.ColID))
	}
	t, err := dto.TemplateFromDTO(d)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func instanceFromRecord(rec store.Record) (*model.Instance, error) {
	d, err := dto.InstanceFromRecord(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "decode instance %s", rec.String(store.ColID))
	}
	i, err := dto.InstanceFromDTO(d)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
