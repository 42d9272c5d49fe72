package dto

import (
	"time"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

// AccountDTO 对应 account 表
// 持久化使用，保留真实凭据
type AccountDTO struct {
	ID                    string     `db:"id" json:"id"`
	UserID                string     `db:"user_id" json:"userId"`
	ProviderID            string     `db:"provider_id" json:"providerId"`
	AccountID             string     `db:"account_id" json:"accountId"`
	AccessToken           *string    `db:"access_token" json:"accessToken"`
	RefreshToken          *string    `db:"refresh_token" json:"refreshToken"`
	IDToken               *string    `db:"id_token" json:"idToken"`
	AccessTokenExpiresAt  *time.Time `db:"access_token_expires_at" json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt *time.Time `db:"refresh_token_expires_at" json:"refreshTokenExpiresAt"`
	Scope                 *string    `db:"scope" json:"scope"`
	Password              *string    `db:"password" json:"password"`
	Version               int64      `db:"version" json:"version"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updatedAt"`
}

// ToRecord 转换为存储记录
func (d AccountDTO) ToRecord() store.Record {
	return store.Record{
		"id":                       d.ID,
		"user_id":                  d.UserID,
		"provider_id":              d.ProviderID,
		"account_id":               d.AccountID,
		"access_token":             d.AccessToken,
		"refresh_token":            d.RefreshToken,
		"id_token":                 d.IDToken,
		"access_token_expires_at":  d.AccessTokenExpiresAt,
		"refresh_token_expires_at": d.RefreshTokenExpiresAt,
		"scope":                    d.Scope,
		"password":                 d.Password,
	}
}

// AccountFromRecord 从存储记录解码
func AccountFromRecord(rec store.Record) (AccountDTO, error) {
	var d AccountDTO
	err := decodeRecord(rec, &d)
	return d, err
}

// AccountToDTO 账号转换为 DTO
func AccountToDTO(a *model.Account) AccountDTO {
	return AccountDTO{
		ID:                    a.ID,
		UserID:                a.UserID,
		ProviderID:            a.ProviderID,
		AccountID:             a.AccountID,
		AccessToken:           optString(a.AccessToken),
		RefreshToken:          optString(a.RefreshToken),
		IDToken:               optString(a.IDToken),
		AccessTokenExpiresAt:  copyTime(a.AccessTokenExpiresAt),
		RefreshTokenExpiresAt: copyTime(a.RefreshTokenExpiresAt),
		Scope:                 optString(a.Scope),
		Password:              optString(a.Password),
		Version:               a.Version,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

// AccountFromDTO DTO 转换为账号
func AccountFromDTO(d AccountDTO) (*model.Account, error) {
	if d.UserID == "" || d.ProviderID == "" {
		return nil, model.NewConstructionError("account", "userId and providerId are required")
	}
	return &model.Account{
		ID:                    d.ID,
		UserID:                d.UserID,
		ProviderID:            d.ProviderID,
		AccountID:             d.AccountID,
		AccessToken:           derefString(d.AccessToken),
		RefreshToken:          derefString(d.RefreshToken),
		IDToken:               derefString(d.IDToken),
		Password:              derefString(d.Password),
		Scope:                 derefString(d.Scope),
		AccessTokenExpiresAt:  copyTime(d.AccessTokenExpiresAt),
		RefreshTokenExpiresAt: copyTime(d.RefreshTokenExpiresAt),
		Version:               d.Version,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}, nil
}
