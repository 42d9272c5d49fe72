package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Redacted 序列化时敏感字段的占位符
const Redacted = "[REDACTED]"

// Account 身份账号
// 对应表：account
type Account struct {
	ID         string
	UserID     string
	ProviderID string
	AccountID  string

	// 凭据字段，空字符串表示未设置
	AccessToken  string
	RefreshToken string
	IDToken      string
	Password     string
	Scope        string

	AccessTokenExpiresAt  *time.Time
	RefreshTokenExpiresAt *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPersisted 是否已有持久化标识
func (a *Account) IsPersisted() bool {
	return a.ID != ""
}

// IsCredential 是否为账号密码登录
func (a *Account) IsCredential() bool {
	return a.ProviderID == ProviderCredential
}

// IsAccessTokenExpired 访问令牌是否已过期，未设置过期时间视为未过期
func (a *Account) IsAccessTokenExpired(now time.Time) bool {
	return a.AccessTokenExpiresAt != nil && !now.Before(*a.AccessTokenExpiresAt)
}

// IsRefreshTokenExpired 刷新令牌是否已过期
func (a *Account) IsRefreshTokenExpired(now time.Time) bool {
	return a.RefreshTokenExpiresAt != nil && !now.Before(*a.RefreshTokenExpiresAt)
}

// CanRefresh 是否可以用刷新令牌换取新的访问令牌
func (a *Account) CanRefresh(now time.Time) bool {
	return a.RefreshToken != "" && !a.IsRefreshTokenExpired(now)
}

// Scopes 授权范围列表，支持空格或逗号分隔
func (a *Account) Scopes() []string {
	return strings.FieldsFunc(a.Scope, func(r rune) bool { return r == ' ' || r == ',' })
}

// HasScope 是否包含指定授权范围
func (a *Account) HasScope(scope string) bool {
	for _, s := range a.Scopes() {
		if s == scope {
			return true
		}
	}
	return false
}

// Clone 深拷贝
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.AccessTokenExpiresAt != nil {
		t := *a.AccessTokenExpiresAt
		c.AccessTokenExpiresAt = &t
	}
	if a.RefreshTokenExpiresAt != nil {
		t := *a.RefreshTokenExpiresAt
		c.RefreshTokenExpiresAt = &t
	}
	return &c
}

// accountJSON 对外序列化结构
type accountJSON struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"userId"`
	ProviderID            string     `json:"providerId"`
	AccountID             string     `json:"accountId"`
	AccessToken           *string    `json:"accessToken"`
	RefreshToken          *string    `json:"refreshToken"`
	IDToken               *string    `json:"idToken"`
	Password              *string    `json:"password"`
	Scope                 *string    `json:"scope"`
	AccessTokenExpiresAt  *time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt"`
	Version               int64      `json:"version"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// MarshalJSON 序列化时将密码与令牌替换为 Redacted
func (a Account) MarshalJSON() ([]byte, error) {
	redact := func(v string) *string {
		if v == "" {
			return nil
		}
		r := Redacted
		return &r
	}
	var scope *string
	if a.Scope != "" {
		scope = &a.Scope
	}
	return json.Marshal(accountJSON{
		ID:                    a.ID,
		UserID:                a.UserID,
		ProviderID:            a.ProviderID,
		AccountID:             a.AccountID,
		AccessToken:           redact(a.AccessToken),
		RefreshToken:          redact(a.RefreshToken),
		IDToken:               redact(a.IDToken),
		Password:              redact(a.Password),
		Scope:                 scope,
		AccessTokenExpiresAt:  a.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: a.RefreshTokenExpiresAt,
		Version:               a.Version,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	})
}
