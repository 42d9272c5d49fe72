package autosync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/factory"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
	"github.com/lk2023060901/xdooria-artifact/pkg/otel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newGem(t *testing.T, s *Syncer, name string) *model.Item {
	t.Helper()
	it, err := s.Items().CreateItemArtifact(factory.ItemParams{
		OwnerID: owner, Name: name, Category: model.CategoryGem, Rarity: model.RarityEpic, Value: 50, GemType: "RED",
	})
	require.NoError(t, err)
	return it
}

func TestItemSync(t *testing.T) {
	s, _ := newTestSyncer(t)
	ctx := context.Background()

	saved, err := s.SaveItemArtifact(ctx, newGem(t, s, "Ruby"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, int64(1), saved.Version)
	assert.Equal(t, "RED", saved.GemType)
	assert.Equal(t, StatePersisted, s.State(saved.ID))

	loaded, err := s.LoadItemArtifact(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	missing, err := s.LoadItemArtifact(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	stale := saved.Clone()
	saved.Value = 75
	updated, err := s.UpdateItemArtifact(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, int64(75), updated.Value)
	assert.Equal(t, int64(2), updated.Version)

	stale.Value = 10
	_, err = s.UpdateItemArtifact(ctx, stale)
	var ce *model.ConflictError
	require.True(t, errors.As(err, &ce), "%v", err)
	assert.Equal(t, StateStale, s.State(saved.ID))

	ghost := updated.Clone()
	ghost.ID = "ghost"
	_, err = s.UpdateItemArtifact(ctx, ghost)
	var nf *model.NotFoundError
	require.True(t, errors.As(err, &nf))

	invalid := updated.Clone()
	invalid.GemType = ""
	_, err = s.UpdateItemArtifact(ctx, invalid)
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Errors.Has("gemType"))
}

func TestAccountSync(t *testing.T) {
	s, _ := newTestSyncer(t)
	ctx := context.Background()

	a, err := s.Accounts().CreateAccountArtifact(factory.AccountParams{
		UserID: owner, ProviderID: "github", AccountID: "gh-1", AccessToken: "tok", AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	saved, err := s.SaveAccountArtifact(ctx, a)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	require.NotNil(t, saved.AccessTokenExpiresAt)
	assert.True(t, epoch.Add(time.Hour).Equal(*saved.AccessTokenExpiresAt))
	assert.Equal(t, "tok", saved.AccessToken)

	_, err = s.SaveAccountArtifact(ctx, a)
	var pe *model.PersistenceError
	require.True(t, errors.As(err, &pe), "%v", err)
	assert.True(t, errors.Is(err, store.ErrConflict))

	saved.AccessToken = "rotated"
	saved.Scope = "repo"
	updated, err := s.UpdateAccountArtifact(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "rotated", updated.AccessToken)
	assert.True(t, updated.HasScope("repo"))

	loaded, err := s.LoadAccountArtifact(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, loaded)
}

func TestCatalog(t *testing.T) {
	s, _ := newTestSyncer(t)
	ctx := context.Background()

	tpl, err := s.SaveTemplate(ctx, model.Template{
		Class: model.ClassSkeleton, Name: "Titan Frame", Slug: "titan-frame",
		Meta: model.TemplateMeta{BaseStats: model.Stats{Defense: 12}, SlotCapacity: 4},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, 4, tpl.Meta.SlotCapacity)

	bySlug, err := s.FindTemplateBySlug(ctx, "titan-frame")
	require.NoError(t, err)
	assert.Equal(t, tpl, bySlug)

	loaded, err := s.LoadTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl, loaded)

	none, err := s.FindTemplateBySlug(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = s.SaveTemplate(ctx, model.Template{Class: model.ClassPart, Name: "Dup", Slug: "titan-frame"})
	assert.True(t, errors.Is(err, store.ErrConflict))

	_, err = s.SaveTemplate(ctx, model.Template{Class: "GADGET", Name: " ", Slug: "Not A Slug"})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Errors.Has("class"))
	assert.True(t, ve.Errors.Has("name"))
	assert.True(t, ve.Errors.Has("slug"))

	inst, err := s.MintInstance(ctx, tpl.ID, shard, owner)
	require.NoError(t, err)
	assert.Equal(t, model.StateNew, inst.State)
	assert.Equal(t, tpl.ID, inst.TemplateID)

	_, err = s.MintInstance(ctx, "no-template", shard, owner)
	var nf *model.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "no-template", nf.ID)

	_, err = s.MintInstance(ctx, tpl.ID, "", owner)
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Errors.Has("shardId"))
}

func TestDestroyInstance(t *testing.T) {
	s, _ := newTestSyncer(t)
	ctx := context.Background()

	free := seedComponent(t, s, model.ClassPart, "free", 1, 0)
	destroyed, err := s.DestroyInstance(ctx, free.Instance.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDestroyed, destroyed.State)

	_, err = s.DestroyInstance(ctx, free.Instance.ID)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))

	saved, err := s.SaveBotArtifact(ctx, newKing(t, s, "holder"))
	require.NoError(t, err)
	_, err = s.DestroyInstance(ctx, saved.Skeleton.Instance.ID)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
	assert.Equal(t, model.StateEquipped, instanceState(t, s, saved.Skeleton.Instance.ID))

	_, err = s.DestroyInstance(ctx, "missing")
	var nf *model.NotFoundError
	require.True(t, errors.As(err, &nf))
}

func TestSaveArtifactBatch(t *testing.T) {
	s, _ := newTestSyncer(t)
	ctx := context.Background()

	badBot := newWorker(t, s, "broken", owner)
	badBot.OwnerID = ""
	badItem := newGem(t, s, "Flawed")
	badItem.GemType = ""
	acc, err := s.Accounts().CreateAccountArtifact(factory.AccountParams{UserID: "u9", ProviderID: model.ProviderCredential, Password: "longpassword"})
	require.NoError(t, err)

	res := s.SaveArtifactBatch(ctx, ArtifactBatch{
		Bots:     []*model.Bot{newWorker(t, s, "one", owner), badBot, newKing(t, s, "three")},
		Items:    []*model.Item{badItem, newGem(t, s, "Opal")},
		Accounts: []*model.Account{acc},
	})

	assert.False(t, res.OK())
	require.Len(t, res.Bots, 2)
	assert.Equal(t, "one", res.Bots[0].Name)
	assert.Equal(t, "three", res.Bots[1].Name)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Opal", res.Items[0].Name)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, "u9", res.Accounts[0].AccountID)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, BatchFailure{Kind: "bot", Index: 1, Name: "broken", Err: res.Failures[0].Err}, res.Failures[0])
	assert.Equal(t, "item", res.Failures[1].Kind)
	assert.Equal(t, 0, res.Failures[1].Index)
	assert.Equal(t, "Flawed", res.Failures[1].Name)
	var ve *model.ValidationError
	assert.True(t, errors.As(res.Failures[1].Err, &ve))
}

func TestBatchSharedInstance(t *testing.T) {
	s, st := newTestSyncer(t)
	ctx := context.Background()

	chip := seedComponent(t, s, model.ClassExpansionChip, "contested", 1, 0)
	var bots []*model.Bot
	for i := 0; i < 4; i++ {
		b := newWorker(t, s, fmt.Sprintf("claimant-%d", i), owner)
		b.Expansions = []model.Component{chip}
		bots = append(bots, b)
	}

	res := s.SaveArtifactBatch(ctx, ArtifactBatch{Bots: bots})
	require.Len(t, res.Bots, 1)
	assert.Len(t, res.Failures, 3)

	robots, err := st.List(ctx, store.TableRobot, nil)
	require.NoError(t, err)
	assert.Len(t, robots, 1)
	bound, err := st.List(ctx, store.TableExpansionSlot, store.Filter{"instance_id": chip.Instance.ID})
	require.NoError(t, err)
	require.Len(t, bound, 1)
	assert.Equal(t, res.Bots[0].ID, bound[0].String("robot_id"))
}

type countingStore struct {
	store.Store
	mu    sync.Mutex
	finds map[string]int
}

func (c *countingStore) Find(ctx context.Context, table string, key store.Key) (store.Record, error) {
	c.mu.Lock()
	c.finds[table]++
	c.mu.Unlock()
	return c.Store.Find(ctx, table, key)
}

func TestTemplateCache(t *testing.T) {
	counting := &countingStore{Store: store.NewMemory(newTables(t), nil), finds: map[string]int{}}
	s := New(counting, newFactoryContext(nil), WithTemplateCache(16))
	ctx := context.Background()

	saved, err := s.SaveBotArtifact(ctx, newKing(t, s, "cached"))
	require.NoError(t, err)

	before := counting.finds[store.TableTemplate]
	for i := 0; i < 3; i++ {
		loaded, err := s.LoadBotArtifact(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved, loaded)
	}
	assert.Equal(t, before, counting.finds[store.TableTemplate])

	tpl, err := s.LoadTemplate(ctx, saved.Skeleton.Template.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Skeleton.Template, *tpl)
	assert.Equal(t, before, counting.finds[store.TableTemplate])

	missing, err := s.LoadTemplate(ctx, "no-such-template")
	require.NoError(t, err)
	assert.Nil(t, missing)
	missing, err = s.LoadTemplate(ctx, "no-such-template")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Equal(t, before+2, counting.finds[store.TableTemplate])
}

func TestSyncTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp, err := otel.New(&otel.Config{Enabled: true, ExporterType: otel.ExporterTypeNoop}, otel.WithSpanProcessor(rec))
	require.NoError(t, err)
	defer tp.Close()

	s := New(store.NewMemory(newTables(t), nil), newFactoryContext(nil), WithTracer(tp.Tracer("autosync")))
	ctx := context.Background()

	saved, err := s.SaveItemArtifact(ctx, newGem(t, s, "Topaz"))
	require.NoError(t, err)
	ghost := saved.Clone()
	ghost.ID = "ghost"
	_, err = s.UpdateItemArtifact(ctx, ghost)
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "autosync.item.save", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "autosync.item.update", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	res := s.SaveArtifactBatch(ctx, ArtifactBatch{Items: []*model.Item{newGem(t, s, "Jade")}})
	require.True(t, res.OK())
	spans = rec.Ended()
	require.Len(t, spans, 4)
	child, batch := spans[2], spans[3]
	assert.Equal(t, "autosync.batch.save", batch.Name())
	assert.Equal(t, batch.SpanContext().SpanID(), child.Parent().SpanID())
}

func TestSyncLogsCarryTraceIDs(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp, err := otel.New(&otel.Config{Enabled: true, ExporterType: otel.ExporterTypeNoop}, otel.WithSpanProcessor(rec))
	require.NoError(t, err)
	defer tp.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	l, err := logger.New(nil, logger.WithCore(core), logger.WithContextExtractor(otel.LogFields))
	require.NoError(t, err)

	fctx := factory.NewContext(l, idgen.NewManualClock(epoch), idgen.NewSequence("w"), nil)
	s := New(store.NewMemory(newTables(t), nil), fctx, WithTracer(tp.Tracer("autosync")))

	_, err = s.SaveItemArtifact(context.Background(), newGem(t, s, "Opal"))
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	saved := logs.FilterMessage("item saved").All()
	require.Len(t, saved, 1)
	fields := saved[0].ContextMap()
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), fields[otel.LogKeyTraceID])
	assert.Equal(t, spans[0].SpanContext().SpanID().String(), fields[otel.LogKeySpanID])
	assert.Equal(t, "autosync", saved[0].LoggerName)
}
