package autosync

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

const entityAccount = "account"

// SaveAccountArtifact 校验并保存新账号，(userId, providerId, accountId) 重复时返回带 store.ErrConflict 的错误
func (s *Syncer) SaveAccountArtifact(ctx context.Context, a *model.Account) (saved *model.Account, err error) {
	ctx, done := s.begin(ctx, entityAccount, "save")
	defer func() { done(err) }()

	if err := s.accounts.ValidateArtifact(a).Err(entityAccount); err != nil {
		return nil, err
	}
	rec, err := s.store.Create(ctx, store.TableAccount, dto.AccountToDTO(a).ToRecord())
	if err != nil {
		return nil, persistence("create", store.TableAccount, err)
	}
	saved, err = s.accountFromRecord(rec)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account saved", "id", saved.ID, "provider_id", saved.ProviderID)
	return saved, nil
}

// LoadAccountArtifact 按 ID 加载账号，不存在时返回 nil, nil
func (s *Syncer) LoadAccountArtifact(ctx context.Context, id string) (a *model.Account, err error) {
	ctx, done := s.begin(ctx, entityAccount, "load")
	defer func() { done(err) }()

	rec, err := s.store.Find(ctx, store.TableAccount, store.Key{store.ColID: id})
	if err != nil {
		return nil, persistence("find", store.TableAccount, err)
	}
	if rec == nil {
		return nil, nil
	}
	return s.accountFromRecord(rec)
}

// UpdateAccountArtifact 更新账号，version 必须与存储一致
func (s *Syncer) UpdateAccountArtifact(ctx context.Context, a *model.Account) (updated *model.Account, err error) {
	ctx, done := s.begin(ctx, entityAccount, "update")
	defer func() { done(err) }()

	if a == nil || !a.IsPersisted() {
		return nil, &model.NotFoundError{Entity: entityAccount}
	}
	if err := s.accounts.ValidateArtifact(a).Err(entityAccount); err != nil {
		return nil, err
	}
	rec, err := s.store.Update(ctx, store.TableAccount, versionKey(a.ID, a.Version), dto.AccountToDTO(a).ToRecord())
	if err != nil {
		return nil, s.resolveUpdateErr(ctx, entityAccount, store.TableAccount, a.ID, err)
	}
	return s.accountFromRecord(rec)
}

func (s *Syncer) accountFromRecord(rec store.Record) (*model.Account, error) {
	d, err := dto.AccountFromRecord(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "decode account %s", rec.String(store.ColID))
	}
	a, err := dto.AccountFromDTO(d)
	if err != nil {
		return nil, err
	}
	s.states.set(a.ID, StatePersisted)
	return a, nil
}
