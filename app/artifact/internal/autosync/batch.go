package autosync

import (
	"context"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ArtifactBatch 一次批量保存的输入
type ArtifactBatch struct {
	Bots     []*model.Bot
	Items    []*model.Item
	Accounts []*model.Account
}

// BatchFailure 批量保存中的单个失败
type BatchFailure struct {
	Kind  string // bot/item/account
	Index int    // 在对应输入切片中的下标
	Name  string
	Err   error
}

// BatchSaveResult 批量保存结果，成功项保持输入顺序，失败项按 bot、item、account 及下标排列
type BatchSaveResult struct {
	Bots     []*model.Bot
	Items    []*model.Item
	Accounts []*model.Account
	Failures []BatchFailure
}

// OK 是否全部成功
func (r BatchSaveResult) OK() bool {
	return len(r.Failures) == 0
}

// SaveArtifactBatch 并发保存一组对象，各项相互独立，单项失败不影响其他项
func (s *Syncer) SaveArtifactBatch(ctx context.Context, batch ArtifactBatch) BatchSaveResult {
	ctx, span := s.tracer.Start(ctx, "autosync.batch.save", trace.WithAttributes(
		attribute.Int("batch.bots", len(batch.Bots)),
		attribute.Int("batch.items", len(batch.Items)),
		attribute.Int("batch.accounts", len(batch.Accounts)),
	))
	defer span.End()

	bots := make([]*model.Bot, len(batch.Bots))
	botErrs := make([]error, len(batch.Bots))
	items := make([]*model.Item, len(batch.Items))
	itemErrs := make([]error, len(batch.Items))
	accounts := make([]*model.Account, len(batch.Accounts))
	accountErrs := make([]error, len(batch.Accounts))

	// 1. fan-out，错误记录在各自的位置上，不取消其他任务
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, b := range batch.Bots {
		g.Go(func() error {
			bots[i], botErrs[i] = s.SaveBotArtifact(ctx, b)
			return nil
		})
	}
	for i, it := range batch.Items {
		g.Go(func() error {
			items[i], itemErrs[i] = s.SaveItemArtifact(ctx, it)
			return nil
		})
	}
	for i, a := range batch.Accounts {
		g.Go(func() error {
			accounts[i], accountErrs[i] = s.SaveAccountArtifact(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	// 2. fan-in，按输入顺序
	var res BatchSaveResult
	res.Bots = collect(entityBot, batch.Bots, bots, botErrs, func(b *model.Bot) string {
		return b.Name
	}, &res.Failures)
	res.Items = collect(entityItem, batch.Items, items, itemErrs, func(it *model.Item) string {
		return it.Name
	}, &res.Failures)
	res.Accounts = collect(entityAccount, batch.Accounts, accounts, accountErrs, func(a *model.Account) string {
		return a.ProviderID + "/" + a.UserID
	}, &res.Failures)

	span.SetAttributes(attribute.Int("batch.failures", len(res.Failures)))
	if len(res.Failures) > 0 {
		s.logger.WarnContext(ctx, "batch save finished with failures",
			"bots", len(res.Bots), "items", len(res.Items), "accounts", len(res.Accounts),
			"failures", len(res.Failures))
	}
	return res
}

func collect[T any](kind string, in, out []*T, errs []error, name func(*T) string, failures *[]BatchFailure) []*T {
	saved := make([]*T, 0, len(out))
	for i, err := range errs {
		if err != nil {
			f := BatchFailure{Kind: kind, Index: i, Err: err}
			if in[i] != nil {
				f.Name = name(in[i])
			}
			*failures = append(*failures, f)
			continue
		}
		saved = append(saved, out[i])
	}
	return saved
}
