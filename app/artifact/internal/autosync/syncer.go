package autosync

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/dto"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/factory"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
	"github.com/lk2023060901/xdooria-artifact/pkg/cache/lru"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
	"github.com/lk2023060901/xdooria-artifact/pkg/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultConcurrency 批量保存的默认并发数
const DefaultConcurrency = 8

// Syncer 领域对象与存储之间的同步器
type Syncer struct {
	store       store.Store
	bots        *factory.BotFactory
	items       *factory.ItemFactory
	accounts    *factory.AccountFactory
	logger      logger.Logger
	metrics     *metrics.ArtifactMetrics
	states      *tracker
	concurrency int
	// templates 模板不可变，可按 ID 缓存；nil 表示不缓存
	templates *lru.LRU[string, dto.TemplateDTO]
	tracer    trace.Tracer
}

// Option 同步器选项
type Option func(*Syncer)

// WithConcurrency 设置批量保存的并发数
func WithConcurrency(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTemplateCache 启用进程内模板缓存，size <= 0 时不缓存
func WithTemplateCache(size int) Option {
	return func(s *Syncer) {
		if size > 0 {
			s.templates = lru.New[string, dto.TemplateDTO](lru.Config{MaxSize: size})
		}
	}
}

// WithTracer 为每个同步操作创建 Span
func WithTracer(t trace.Tracer) Option {
	return func(s *Syncer) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New 创建同步器，工厂共享同一个 Context
func New(st store.Store, fctx *factory.Context, opts ...Option) *Syncer {
	s := &Syncer{
		store:       st,
		bots:        factory.NewBotFactory(fctx),
		items:       factory.NewItemFactory(fctx),
		accounts:    factory.NewAccountFactory(fctx),
		logger:      fctx.Logger.Named("autosync"),
		metrics:     fctx.Metrics,
		states:      newTracker(),
		concurrency: DefaultConcurrency,
		tracer:      noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bots 机器人工厂
func (s *Syncer) Bots() *factory.BotFactory { return s.bots }

// Items 物品工厂
func (s *Syncer) Items() *factory.ItemFactory { return s.items }

// Accounts 账号工厂
func (s *Syncer) Accounts() *factory.AccountFactory { return s.accounts }

// State 标识当前的持久化状态，未知标识为 StateTransient
func (s *Syncer) State(id string) State {
	return s.states.get(id)
}

// findTemplate 按 ID 读取模板，不存在时返回 nil, nil
func (s *Syncer) findTemplate(ctx context.Context, id string) (*dto.TemplateDTO, error) {
	load := func() (dto.TemplateDTO, bool, error) {
		rec, err := s.store.Find(ctx, store.TableTemplate, store.Key{store.ColID: id})
		if err != nil {
			return dto.TemplateDTO{}, false, persistence("find", store.TableTemplate, err)
		}
		if rec == nil {
			return dto.TemplateDTO{}, false, nil
		}
		d, err := dto.TemplateFromRecord(rec)
		if err != nil {
			return dto.TemplateDTO{}, false, errors.Wrapf(err, "decode template %s", id)
		}
		return d, true, nil
	}

	var (
		d   dto.TemplateDTO
		ok  bool
		err error
	)
	if s.templates != nil {
		d, ok, err = s.templates.GetOrLoad(id, load)
	} else {
		d, ok, err = load()
	}
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

// begin 开始一次同步操作，返回的 done 记录 Span 状态与耗时指标
func (s *Syncer) begin(ctx context.Context, entity, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "autosync."+entity+"."+op,
		trace.WithAttributes(attribute.String("artifact.entity", entity), attribute.String("artifact.op", op)))
	return ctx, func(err error) {
		s.metrics.RecordSync(entity, op, err == nil, time.Since(start).Seconds())
		otel.End(span, err)
	}
}

// persistence 包装存储错误
func persistence(op, table string, err error) error {
	return &model.PersistenceError{Op: op, Table: table, Err: err}
}

// resolveUpdateErr Update 无匹配行时区分记录不存在与版本冲突
func (s *Syncer) resolveUpdateErr(ctx context.Context, entity, table, id string, err error) error {
	if !errors.Is(err, store.ErrNotFound) {
		return persistence("update", table, err)
	}
	rec, ferr := s.store.Find(ctx, table, store.Key{store.ColID: id})
	if ferr != nil {
		return persistence("find", table, ferr)
	}
	if rec == nil {
		s.states.forget(id)
		return &model.NotFoundError{Entity: entity, ID: id}
	}
	s.states.set(id, StateStale)
	s.logger.WarnContext(ctx, "stale artifact rejected", "entity", entity, "id", id, "stored_version", rec.Int(store.ColVersion))
	return &model.ConflictError{Entity: entity, ID: id}
}

// versionKey 带乐观锁条件的主键
func versionKey(id string, version int64) store.Key {
	return store.Key{store.ColID: id, store.ColVersion: version}
}
