package factory

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/schema"
	"github.com/lk2023060901/xdooria-artifact/pkg/crypto"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

const entityAccount = "account"

// AccountParams 构造账号的参数
// TTL 与对应的过期时间二选一，TTL 按注入的时钟换算为过期时间
type AccountParams struct {
	UserID     string
	ProviderID string
	AccountID  string

	AccessToken  string
	RefreshToken string
	IDToken      string
	Password     string
	Scope        string

	AccessTokenExpiresAt  *time.Time
	RefreshTokenExpiresAt *time.Time
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
}

// AccountFactory 账号工厂
type AccountFactory struct {
	ctx    *Context
	logger logger.Logger
}

// NewAccountFactory 创建账号工厂
func NewAccountFactory(ctx *Context) *AccountFactory {
	return &AccountFactory{
		ctx:    ctx,
		logger: ctx.Logger.Named("factory.account"),
	}
}

// CreateAccountArtifact 构造账号
func (f *AccountFactory) CreateAccountArtifact(p AccountParams) (*model.Account, error) {
	if p.AccessTokenTTL < 0 || p.RefreshTokenTTL < 0 {
		return nil, f.fail(model.NewConstructionError(entityAccount, "token ttl must not be negative"))
	}
	if p.AccessTokenTTL > 0 && p.AccessTokenExpiresAt != nil {
		return nil, f.fail(model.NewConstructionError(entityAccount, "access token ttl and expiry are mutually exclusive"))
	}
	if p.RefreshTokenTTL > 0 && p.RefreshTokenExpiresAt != nil {
		return nil, f.fail(model.NewConstructionError(entityAccount, "refresh token ttl and expiry are mutually exclusive"))
	}

	a := &model.Account{
		UserID:                p.UserID,
		ProviderID:            p.ProviderID,
		AccountID:             p.AccountID,
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		IDToken:               p.IDToken,
		Password:              p.Password,
		Scope:                 p.Scope,
		AccessTokenExpiresAt:  copyTime(p.AccessTokenExpiresAt),
		RefreshTokenExpiresAt: copyTime(p.RefreshTokenExpiresAt),
	}
	if a.IsCredential() && a.AccountID == "" {
		a.AccountID = a.UserID
	}
	if a.IsCredential() && a.Password != "" && f.ctx.Passwords != nil && !crypto.IsHashed(a.Password) {
		hashed, err := f.ctx.Passwords.Hash(a.Password)
		if err != nil {
			return nil, f.fail(model.NewConstructionError(entityAccount, "hash password: %v", err))
		}
		a.Password = hashed
	}

	now := f.ctx.Clock.Now()
	if p.AccessTokenTTL > 0 {
		t := now.Add(p.AccessTokenTTL)
		a.AccessTokenExpiresAt = &t
	}
	if p.RefreshTokenTTL > 0 {
		t := now.Add(p.RefreshTokenTTL)
		a.RefreshTokenExpiresAt = &t
	}

	f.ctx.record(entityAccount, EventCreated)
	f.logger.Debug("account artifact created", "user_id", a.UserID, "provider_id", a.ProviderID)
	return a, nil
}

// VerifyPassword 校验凭证账号的密码，已哈希的密码交给 hasher 比对
func (f *AccountFactory) VerifyPassword(a *model.Account, plain string) bool {
	if a == nil || !a.IsCredential() || a.Password == "" {
		return false
	}
	if crypto.IsHashed(a.Password) {
		if f.ctx.Passwords == nil {
			return crypto.NewBcryptHasher().Verify(plain, a.Password) == nil
		}
		return f.ctx.Passwords.Verify(plain, a.Password) == nil
	}
	return subtle.ConstantTimeCompare([]byte(a.Password), []byte(plain)) == 1
}

// CreateAccountArtifactFromConfig 先经过 account.create 校验再构造
func (f *AccountFactory) CreateAccountArtifactFromConfig(raw map[string]any) (*model.Account, error) {
	in, errs := schema.Parse[schema.AccountCreate](schema.Of(schema.EntityAccount, schema.Create), raw)
	if !errs.Empty() {
		return nil, f.fail(constructionFromErrors(entityAccount, errs))
	}
	p := AccountParams{
		UserID:                in.UserID,
		ProviderID:            in.ProviderID,
		AccountID:             deref(in.AccountID),
		AccessToken:           deref(in.AccessToken),
		RefreshToken:          deref(in.RefreshToken),
		IDToken:               deref(in.IDToken),
		Password:              deref(in.Password),
		Scope:                 deref(in.Scope),
		AccessTokenExpiresAt:  in.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: in.RefreshTokenExpiresAt,
	}
	if in.AccessTokenTTLSeconds != nil {
		p.AccessTokenTTL = time.Duration(*in.AccessTokenTTLSeconds) * time.Second
	}
	if in.RefreshTokenTTLSeconds != nil {
		p.RefreshTokenTTL = time.Duration(*in.RefreshTokenTTLSeconds) * time.Second
	}
	return f.CreateAccountArtifact(p)
}

// ValidateArtifact 校验领域规则，收集全部错误
func (f *AccountFactory) ValidateArtifact(a *model.Account) ValidationResult {
	var errs model.ErrorList
	if a == nil {
		errs.Add("", "account is nil")
		return f.finish(errs)
	}

	if strings.TrimSpace(a.UserID) == "" {
		errs.Add("userId", "is required")
	}
	if strings.TrimSpace(a.ProviderID) == "" {
		errs.Add("providerId", "is required")
	}
	if strings.TrimSpace(a.AccountID) == "" {
		errs.Add("accountId", "is required")
	}

	if a.IsCredential() {
		if a.Password == "" {
			errs.Add("password", "credential accounts need a password")
		}
	} else if a.ProviderID != "" && a.AccessToken == "" {
		errs.Add("accessToken", "%s accounts need an access token", a.ProviderID)
	}

	if a.AccessTokenExpiresAt != nil && a.RefreshTokenExpiresAt != nil &&
		a.RefreshTokenExpiresAt.Before(*a.AccessTokenExpiresAt) {
		errs.Add("refreshTokenExpiresAt", "must not be before accessTokenExpiresAt")
	}

	return f.finish(errs)
}

// BatchCreateArtifacts 逐个构造并校验，单个失败不影响其余配置
func (f *AccountFactory) BatchCreateArtifacts(configs []map[string]any) BatchResult[*model.Account] {
	var res BatchResult[*model.Account]
	for i, cfg := range configs {
		a, err := f.CreateAccountArtifactFromConfig(cfg)
		if err == nil {
			err = f.ValidateArtifact(a).Err(entityAccount)
		}
		if err != nil {
			name := accountConfigName(cfg, i)
			f.logger.Warn("account config rejected", "index", i, "name", name, "error", err)
			res.Failures = append(res.Failures, Failure{Index: i, Name: name, Config: cfg, Err: err})
			continue
		}
		res.Artifacts = append(res.Artifacts, a)
	}
	return res
}

// ArtifactToDTOPipeline 校验通过后转换为 DTO
func (f *AccountFactory) ArtifactToDTOPipeline(a *model.Account) PipelineResult[dto.AccountDTO] {
	v := f.ValidateArtifact(a)
	if !v.IsValid {
		return PipelineResult[dto.AccountDTO]{Validation: v}
	}
	d := dto.AccountToDTO(a)
	return PipelineResult[dto.AccountDTO]{DTO: &d, Validation: v}
}

// Stats 工厂计数器快照
func (f *AccountFactory) Stats() StatsSnapshot {
	return f.ctx.Stats.Snapshot()
}

func (f *AccountFactory) fail(err error) error {
	f.ctx.record(entityAccount, EventFailed)
	return err
}

func (f *AccountFactory) finish(errs model.ErrorList) ValidationResult {
	if errs.Empty() {
		f.ctx.record(entityAccount, EventValidated)
	} else {
		f.ctx.record(entityAccount, EventFailed)
	}
	return resultOf(errs)
}

// accountConfigName 账号配置没有 name 字段，使用 provider/user 标识
func accountConfigName(cfg map[string]any, index int) string {
	provider, _ := cfg["providerId"].(string)
	user, _ := cfg["userId"].(string)
	if provider != "" && user != "" {
		return provider + "/" + user
	}
	return configName(cfg, index)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	t := *p
	return &t
}
