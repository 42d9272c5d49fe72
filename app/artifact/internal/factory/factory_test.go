package factory

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	return NewContext(nil, idgen.NewManualClock(epoch), idgen.NewSequence("id"), nil)
}

func componentConfig(id, class string, attack, capacity int) map[string]any {
	return map[string]any{
		"instanceId": id,
		"template": map[string]any{
			"id":    "tpl-" + id,
			"class": class,
			"name":  "Template " + id,
			"meta": map[string]any{
				"baseStats":    map[string]any{"attack": attack, "defense": 1, "speed": 1},
				"slotCapacity": capacity,
			},
		},
	}
}

func kingConfig(name string) map[string]any {
	return map[string]any{
		"name":     name,
		"ownerId":  "user123",
		"shardId":  "s1",
		"botType":  "KING",
		"soulChip": componentConfig("soul-"+name, "SOUL_CHIP", 2, 0),
		"skeleton": componentConfig("skel-"+name, "SKELETON", 0, 2),
		"parts": []any{
			componentConfig("arm-"+name, "PART", 5, 0),
			componentConfig("leg-"+name, "PART", 3, 0),
		},
	}
}

func component(id string, class model.TemplateClass, attack int64, capacity int) model.Component {
	return model.Component{
		Instance: model.Instance{ID: id, TemplateID: "tpl-" + id, State: model.StateNew},
		Template: model.Template{
			ID: "tpl-" + id, Class: class,
			Meta: model.TemplateMeta{BaseStats: model.Stats{Attack: attack}, SlotCapacity: capacity},
		},
	}
}

func TestMiningBotAlpha(t *testing.T) {
	f := NewBotFactory(newTestContext(t))
	soul := component("soul", model.ClassSoulChip, 1, 0)

	b, err := f.CreateBotArtifact(BotParams{
		Name:     "Mining Bot Alpha",
		OwnerID:  "user123",
		ShardID:  "s1",
		BotType:  model.BotTypeWorker,
		SubType:  model.SubTypeMining,
		SoulChip: &soul,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mining Bot Alpha", b.Name)
	assert.Equal(t, model.BotTypeWorker, b.BotType)
	assert.Nil(t, b.SoulChip)
	assert.False(t, b.IsPersisted())
	assert.True(t, f.ValidateArtifact(b).IsValid)
}

func TestWorkerDefaultName(t *testing.T) {
	f := NewBotFactory(newTestContext(t))

	b, err := f.CreateBotArtifact(BotParams{OwnerID: "user123", ShardID: "s1", BotType: model.BotTypeWorker, SubType: model.SubTypeHarvesting})
	require.NoError(t, err)
	assert.Equal(t, "Harvesting Worker id1", b.Name)

	b, err = f.CreateBotArtifact(BotParams{OwnerID: "user123", ShardID: "s1", BotType: model.BotTypeWorker, SubType: model.SubTypeScouting})
	require.NoError(t, err)
	assert.Equal(t, "Scouting Worker id2", b.Name)
}

func TestCreateBotFromConfig(t *testing.T) {
	f := NewBotFactory(newTestContext(t))

	b, err := f.CreateBotArtifactFromConfig(kingConfig("Warden"))
	require.NoError(t, err)
	assert.Equal(t, model.BotTypeKing, b.BotType)
	require.NotNil(t, b.SoulChip)
	require.NotNil(t, b.Skeleton)
	assert.Len(t, b.Parts, 2)
	assert.True(t, b.IsAssembled())
	assert.Equal(t, int64(10), b.TotalAttack())
	assert.Equal(t, model.StateNew, b.Parts[0].Instance.State)
	assert.Equal(t, "user123", b.Parts[0].Instance.PlayerID)
	assert.Equal(t, "tpl-arm-Warden", b.Parts[0].Instance.TemplateID)
	assert.True(t, f.ValidateArtifact(b).IsValid)
}

func TestCreateBotErrors(t *testing.T) {
	f := NewBotFactory(newTestContext(t))

	_, err := f.CreateBotArtifact(BotParams{Name: "x", BotType: "TANK"})
	var ce *model.ConstructionError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Reason, "TANK")

	_, err = f.CreateBotArtifact(BotParams{Name: "x", BotType: model.BotTypeWorker, SubType: "FISHING"})
	require.True(t, errors.As(err, &ce))

	_, err = f.CreateBotArtifactFromConfig(map[string]any{"name": "x", "botType": "WORKER", "ownerId": 7})
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Reason, "ownerId")
	assert.Contains(t, ce.Reason, "shardId")

	assert.Equal(t, int64(3), f.Stats().Failed)
	assert.Zero(t, f.Stats().Created)
}

func TestValidateBot(t *testing.T) {
	f := NewBotFactory(newTestContext(t))

	tests := []struct {
		name  string
		bot   *model.Bot
		paths []string
	}{
		{
			name:  "blank fields",
			bot:   &model.Bot{Name: " ", BotType: model.BotTypeWorker, SubType: model.SubTypeMining},
			paths: []string{"name", "ownerId", "shardId"},
		},
		{
			name: "worker with soul chip and no sub type",
			bot: func() *model.Bot {
				soul := component("soul", model.ClassSoulChip, 0, 0)
				return &model.Bot{Name: "w", OwnerID: "o", ShardID: "s", BotType: model.BotTypeWorker, SoulChip: &soul}
			}(),
			paths: []string{"subType", "soulChip"},
		},
		{
			name:  "playable without skeleton",
			bot:   &model.Bot{Name: "p", OwnerID: "o", ShardID: "s", BotType: model.BotTypePlayable, SubType: model.SubTypeMining},
			paths: []string{"subType", "skeleton"},
		},
		{
			name: "part count below capacity",
			bot: func() *model.Bot {
				skel := component("skel", model.ClassSkeleton, 0, 3)
				return &model.Bot{Name: "p", OwnerID: "o", ShardID: "s", BotType: model.BotTypePlayable, Skeleton: &skel,
					Parts: []model.Component{component("a", model.ClassPart, 1, 0)}}
			}(),
			paths: []string{"parts"},
		},
		{
			name: "wrong classes and reuse",
			bot: func() *model.Bot {
				skel := component("skel", model.ClassPart, 0, 0)
				return &model.Bot{Name: "p", OwnerID: "o", ShardID: "s", BotType: model.BotTypeKing, Skeleton: &skel,
					Expansions: []model.Component{component("skel", model.ClassExpansionChip, 0, 0), component("e", model.ClassPart, -1, 0)}}
			}(),
			paths: []string{"skeleton.template.class", "expansions[0].instanceId", "expansions[1].template.class", "expansions[1].template.meta.baseStats"},
		},
		{
			name: "destroyed instance",
			bot: func() *model.Bot {
				skel := component("skel", model.ClassSkeleton, 0, 0)
				skel.Instance.State = model.StateDestroyed
				return &model.Bot{Name: "p", OwnerID: "o", ShardID: "s", BotType: model.BotTypePlayable, Skeleton: &skel}
			}(),
			paths: []string{"skeleton.state"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.ValidateArtifact(tt.bot)
			assert.False(t, res.IsValid)
			for _, p := range tt.paths {
				assert.True(t, res.Errors.Has(p), "missing error for %s in %v", p, res.Errors.Messages())
			}
			assert.Len(t, res.Errors, len(tt.paths), res.Errors.Messages())

			var ve *model.ValidationError
			require.True(t, errors.As(res.Err("bot"), &ve))
			assert.Equal(t, res.Errors, ve.Errors)
		})
	}
}

func TestBatchCreateBots(t *testing.T) {
	f := NewBotFactory(newTestContext(t))

	configs := []map[string]any{
		kingConfig("Alpha"),
		{"name": "Broken Bot", "ownerId": "user123", "shardId": "s1", "botType": "TANK"},
		{"name": "Digger", "ownerId": "user123", "shardId": "s1", "botType": "WORKER", "subType": "MINING"},
		kingConfig("Omega"),
	}

	res := f.BatchCreateArtifacts(configs)
	require.Len(t, res.Artifacts, len(configs)-1)
	require.Len(t, res.Failures, 1)

	fail := res.Failures[0]
	assert.Equal(t, "Broken Bot", fail.Name)
	assert.Equal(t, 1, fail.Index)
	assert.Equal(t, configs[1], fail.Config)
	assert.Contains(t, fail.Err.Error(), "botType")

	names := []string{res.Artifacts[0].Name, res.Artifacts[1].Name, res.Artifacts[2].Name}
	assert.Equal(t, []string{"Alpha", "Digger", "Omega"}, names)
}

func TestBatchRejectsInvalidArtifact(t *testing.T) {
	f := NewBotFactory(newTestContext(t))

	incomplete := kingConfig("Half")
	incomplete["parts"] = []any{componentConfig("arm", "PART", 1, 0)}

	res := f.BatchCreateArtifacts([]map[string]any{incomplete, {"ownerId": "o", "shardId": "s", "botType": "WORKER", "subType": "CRAFTING"}})
	require.Len(t, res.Artifacts, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "Half", res.Failures[0].Name)

	var ve *model.ValidationError
	require.True(t, errors.As(res.Failures[0].Err, &ve))
	assert.True(t, ve.Errors.Has("parts"))
}

func TestBotPipeline(t *testing.T) {
	f := NewBotFactory(newTestContext(t))

	b, err := f.CreateBotArtifactFromConfig(kingConfig("Warden"))
	require.NoError(t, err)

	res := f.ArtifactToDTOPipeline(b)
	require.True(t, res.Validation.IsValid)
	require.NotNil(t, res.DTO)
	assert.Equal(t, "Warden", res.DTO.Robot.Name)
	assert.Len(t, res.DTO.PartSlots, 2)

	b.Parts = b.Parts[:1]
	res = f.ArtifactToDTOPipeline(b)
	assert.False(t, res.Validation.IsValid)
	assert.Nil(t, res.DTO)
	assert.NotEmpty(t, res.Validation.Errors)
}

func TestFactoryStats(t *testing.T) {
	m, err := metrics.New(&metrics.Config{Enabled: true})
	require.NoError(t, err)
	ctx := NewContext(nil, idgen.NewManualClock(epoch), idgen.NewSequence("id"), m)
	bots := NewBotFactory(ctx)
	items := NewItemFactory(ctx)

	b, err := bots.CreateBotArtifact(BotParams{Name: "w", OwnerID: "o", ShardID: "s", BotType: model.BotTypeWorker, SubType: model.SubTypeMining})
	require.NoError(t, err)
	bots.ValidateArtifact(b)
	_, err = items.CreateItemArtifact(ItemParams{Name: "i", Category: "JUNK", Rarity: model.RarityCommon})
	require.Error(t, err)

	want := StatsSnapshot{Created: 1, Validated: 1, Failed: 1}
	assert.Equal(t, want, bots.Stats())
	assert.Equal(t, want, items.Stats())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.FactoryTotal.WithLabelValues("bot", EventCreated)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FactoryTotal.WithLabelValues("item", EventFailed)))

	other := NewBotFactory(newTestContext(t))
	assert.Equal(t, StatsSnapshot{}, other.Stats())
}
