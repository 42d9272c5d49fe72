package autosync

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

const entityItem = "item"

// SaveItemArtifact 校验并保存新物品
func (s *Syncer) SaveItemArtifact(ctx context.Context, it *model.Item) (saved *model.Item, err error) {
	ctx, done := s.begin(ctx, entityItem, "save")
	defer func() { done(err) }()

	if err := s.items.ValidateArtifact(it).Err(entityItem); err != nil {
		return nil, err
	}
	rec, err := s.store.Create(ctx, store.TableItem, dto.ItemToDTO(it).ToRecord())
	if err != nil {
		return nil, persistence("create", store.TableItem, err)
	}
	saved, err = s.itemFromRecord(rec)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "item saved", "id", saved.ID, "name", saved.Name, "category", saved.Category)
	return saved, nil
}

// LoadItemArtifact 按 ID 加载物品，不存在时返回 nil, nil
func (s *Syncer) LoadItemArtifact(ctx context.Context, id string) (it *model.Item, err error) {
	ctx, done := s.begin(ctx, entityItem, "load")
	defer func() { done(err) }()

	rec, err := s.store.Find(ctx, store.TableItem, store.Key{store.ColID: id})
	if err != nil {
		return nil, persistence("find", store.TableItem, err)
	}
	if rec == nil {
		return nil, nil
	}
	return s.itemFromRecord(rec)
}

// UpdateItemArtifact 更新物品，version 必须与存储一致
func (s *Syncer) UpdateItemArtifact(ctx context.Context, it *model.Item) (updated *model.Item, err error) {
	ctx, done := s.begin(ctx, entityItem, "update")
	defer func() { done(err) }()

	if it == nil || !it.IsPersisted() {
		return nil, &model.NotFoundError{Entity: entityItem}
	}
	if err := s.items.ValidateArtifact(it).Err(entityItem); err != nil {
		return nil, err
	}
	rec, err := s.store.Update(ctx, store.TableItem, versionKey(it.ID, it.Version), dto.ItemToDTO(it).ToRecord())
	if err != nil {
		return nil, s.resolveUpdateErr(ctx, entityItem, store.TableItem, it.ID, err)
	}
	return s.itemFromRecord(rec)
}

func (s *Syncer) itemFromRecord(rec store.Record) (*model.Item, error) {
	d, err := dto.ItemFromRecord(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "decode item %s", rec.String(store.ColID))
	}
	it, err := dto.ItemFromDTO(d)
	if err != nil {
		return nil, err
	}
	s.states.set(it.ID, StatePersisted)
	return it, nil
}
