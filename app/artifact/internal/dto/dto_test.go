package dto

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func component(id string, class model.TemplateClass, stats model.Stats, capacity int) model.Component {
	return model.Component{
		Instance: model.Instance{ID: id, TemplateID: "tpl-" + id, ShardID: "s1", PlayerID: "user123", State: model.StateEquipped, CreatedAt: now, UpdatedAt: now},
		Template: model.Template{
			ID: "tpl-" + id, Class: class, Name: "T " + id, Slug: "t-" + id,
			Meta:      model.TemplateMeta{BaseStats: stats, SlotCapacity: capacity},
			CreatedAt: now, UpdatedAt: now,
		},
	}
}

func assembledBot() *model.Bot {
	soul := component("soul", model.ClassSoulChip, model.Stats{Attack: 1}, 0)
	skel := component("skel", model.ClassSkeleton, model.Stats{Defense: 5}, 2)
	return &model.Bot{
		ID: "bot-1", Name: "Warden", OwnerID: "user123", ShardID: "s1",
		BotType:    model.BotTypeKing,
		SoulChip:   &soul,
		Skeleton:   &skel,
		Parts:      []model.Component{component("arm", model.ClassPart, model.Stats{Attack: 3}, 0), component("leg", model.ClassPart, model.Stats{Speed: 4}, 0)},
		Expansions: []model.Component{component("x0", model.ClassExpansionChip, model.Stats{}, 0), component("x1", model.ClassExpansionChip, model.Stats{Attack: 1}, 0)},
		Version:    3, CreatedAt: now, UpdatedAt: now.Add(time.Minute),
	}
}

// TestBotRoundTrip BotFromDTO(BotToDTO(b)) 与 b 相等
func TestBotRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		bot  *model.Bot
	}{
		{name: "assembled king", bot: assembledBot()},
		{name: "worker", bot: &model.Bot{ID: "w1", Name: "Mining Bot Alpha", OwnerID: "user123", ShardID: "s1", BotType: model.BotTypeWorker, SubType: model.SubTypeMining}},
		{name: "unpersisted", bot: &model.Bot{Name: "n", OwnerID: "o", ShardID: "s", BotType: model.BotTypePlayable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := BotToDTO(tt.bot)
			got, err := BotFromDTO(d)
			require.NoError(t, err)
			assert.Equal(t, tt.bot, got)
		})
	}
}

// TestBotDTOShape 槽位记录与组件投影
func TestBotDTOShape(t *testing.T) {
	d := BotToDTO(assembledBot())

	require.NotNil(t, d.SoulChipSlot)
	assert.Equal(t, SoulChipSlotDTO{RobotID: "bot-1", InstanceID: "soul"}, *d.SoulChipSlot)
	assert.Equal(t, []PartSlotDTO{{RobotID: "bot-1", SlotIx: 0, InstanceID: "arm"}, {RobotID: "bot-1", SlotIx: 1, InstanceID: "leg"}}, d.PartSlots)
	assert.Len(t, d.Components, 6)
	assert.Nil(t, d.Robot.SubType)

	recs := d.SlotRecords()
	require.Len(t, recs, 6)
	assert.Equal(t, store.TableSoulChipSlot, recs[0].Table)
	assert.Equal(t, store.TableSkeletonSlot, recs[1].Table)
	assert.Equal(t, store.TableExpansionSlot, recs[5].Table)
	assert.Equal(t, store.Record{"robot_id": "bot-1", "slot_ix": int64(1), "instance_id": "x1"}, recs[5].Record)
	assert.Equal(t, []string{"soul", "skel", "arm", "leg", "x0", "x1"}, d.InstanceIDs())

	moved := d.WithRobotID("bot-2")
	assert.Equal(t, "bot-2", moved.Robot.ID)
	assert.Equal(t, "bot-2", moved.PartSlots[1].RobotID)
	assert.Equal(t, "bot-1", d.PartSlots[1].RobotID)
	assert.Equal(t, "bot-1", d.SoulChipSlot.RobotID)
}

// TestBotFromDTOOrdersSlots 按 slot_ix 排序
func TestBotFromDTOOrdersSlots(t *testing.T) {
	d := BotToDTO(assembledBot())
	d.PartSlots[0], d.PartSlots[1] = d.PartSlots[1], d.PartSlots[0]

	b, err := BotFromDTO(d)
	require.NoError(t, err)
	assert.Equal(t, "arm", b.Parts[0].Instance.ID)
	assert.Equal(t, "leg", b.Parts[1].Instance.ID)
}

// TestBotFromDTOErrors 非法输入返回 ConstructionError
func TestBotFromDTOErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *BotDTO)
	}{
		{name: "bot type", mutate: func(d *BotDTO) { d.Robot.BotType = "TANK" }},
		{name: "sub type", mutate: func(d *BotDTO) { s := "FISHING"; d.Robot.SubType = &s }},
		{name: "unknown instance", mutate: func(d *BotDTO) { delete(d.Components, "arm") }},
		{name: "foreign slot", mutate: func(d *BotDTO) { d.SkeletonSlot.RobotID = "other" }},
		{name: "instance state", mutate: func(d *BotDTO) {
			c := d.Components["leg"]
			c.Instance.State = "LOST"
			d.Components["leg"] = c
		}},
		{name: "template class", mutate: func(d *BotDTO) {
			c := d.Components["soul"]
			c.Template.Class = "GEAR"
			d.Components["soul"] = c
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := BotToDTO(assembledBot())
			tt.mutate(&d)
			_, err := BotFromDTO(d)
			var ce *model.ConstructionError
			assert.True(t, errors.As(err, &ce), "got %v", err)
		})
	}
}

// TestItemRoundTrip 物品往返
func TestItemRoundTrip(t *testing.T) {
	d := int64(600)
	item := &model.Item{ID: "i1", OwnerID: "u", Name: "Boost", Category: model.CategorySpeedUp, Rarity: model.RarityRare, Value: 7, DurationSeconds: &d, Version: 1, CreatedAt: now, UpdatedAt: now}

	dto := ItemToDTO(item)
	assert.Nil(t, dto.GemType)
	*dto.DurationSeconds = 1
	assert.EqualValues(t, 600, *item.DurationSeconds)
	*dto.DurationSeconds = 600

	got, err := ItemFromDTO(dto)
	require.NoError(t, err)
	assert.Equal(t, item, got)

	dto.Rarity = "MYTHIC"
	_, err = ItemFromDTO(dto)
	var ce *model.ConstructionError
	assert.True(t, errors.As(err, &ce))
}

// TestAccountRoundTrip DTO 保留真实凭据，序列化时脱敏
func TestAccountRoundTrip(t *testing.T) {
	exp := now.Add(time.Hour)
	acc := &model.Account{
		ID: "a1", UserID: "user123", ProviderID: model.ProviderCredential, AccountID: "user123",
		Password: "correct horse", AccessToken: "tok", AccessTokenExpiresAt: &exp, Scope: "read write",
		Version: 2, CreatedAt: now, UpdatedAt: now,
	}

	d := AccountToDTO(acc)
	require.NotNil(t, d.Password)
	assert.Equal(t, "correct horse", *d.Password)
	assert.Nil(t, d.RefreshToken)

	got, err := AccountFromDTO(d)
	require.NoError(t, err)
	assert.Equal(t, acc, got)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct horse")
	assert.Contains(t, string(raw), model.Redacted)

	_, err = AccountFromDTO(AccountDTO{})
	var ce *model.ConstructionError
	assert.True(t, errors.As(err, &ce))
}

// TestStoreRoundTrip DTO 经过存储后还原，只有服务端字段不同
func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	tables, err := store.NewArtifactTables(idgen.NewSequence("id"), idgen.NewManualClock(now))
	require.NoError(t, err)
	s := store.NewMemory(tables, nil)

	t.Run("account", func(t *testing.T) {
		exp := now.Add(time.Hour)
		acc := &model.Account{UserID: "u1", ProviderID: "github", AccountID: "gh-1", AccessToken: "tok", AccessTokenExpiresAt: &exp}
		rec, err := s.Create(ctx, store.TableAccount, AccountToDTO(acc).ToRecord())
		require.NoError(t, err)

		d, err := AccountFromRecord(rec)
		require.NoError(t, err)
		got, err := AccountFromDTO(d)
		require.NoError(t, err)

		assert.NotEmpty(t, got.ID)
		assert.EqualValues(t, 1, got.Version)
		assert.False(t, got.CreatedAt.IsZero())
		assert.True(t, got.AccessTokenExpiresAt.Equal(exp))
		got.ID, got.Version, got.CreatedAt, got.UpdatedAt, got.AccessTokenExpiresAt = "", 0, time.Time{}, time.Time{}, &exp
		assert.Equal(t, acc, got)
	})

	t.Run("item", func(t *testing.T) {
		tv := int64(99)
		item := &model.Item{OwnerID: "u1", Name: "Gold Bar", Category: model.CategoryTradeable, Rarity: model.RarityLegendary, Value: 1, TradeValue: &tv}
		rec, err := s.Create(ctx, store.TableItem, ItemToDTO(item).ToRecord())
		require.NoError(t, err)

		d, err := ItemFromRecord(rec)
		require.NoError(t, err)
		got, err := ItemFromDTO(d)
		require.NoError(t, err)
		got.ID, got.Version, got.CreatedAt, got.UpdatedAt = "", 0, time.Time{}, time.Time{}
		assert.Equal(t, item, got)
	})

	t.Run("template and instance", func(t *testing.T) {
		tpl := model.Template{Class: model.ClassSkeleton, Name: "Frame", Slug: "frame", Meta: model.TemplateMeta{
			BaseStats:    model.Stats{Defense: 8},
			SlotCapacity: 4,
			Extra:        map[string]any{"modifiers": map[string]any{"critChance": float64(10)}},
		}}
		rec, err := s.Create(ctx, store.TableTemplate, TemplateToDTO(tpl).ToRecord())
		require.NoError(t, err)
		td, err := TemplateFromRecord(rec)
		require.NoError(t, err)
		gotTpl, err := TemplateFromDTO(td)
		require.NoError(t, err)
		assert.Equal(t, tpl.Meta, gotTpl.Meta)
		assert.Equal(t, "frame", gotTpl.Slug)

		inst := model.Instance{TemplateID: gotTpl.ID, ShardID: "s1", PlayerID: "u1", State: model.StateNew}
		rec, err = s.Create(ctx, store.TableInstance, InstanceToDTO(inst).ToRecord())
		require.NoError(t, err)
		id, err := InstanceFromRecord(rec)
		require.NoError(t, err)
		gotInst, err := InstanceFromDTO(id)
		require.NoError(t, err)
		assert.Equal(t, gotTpl.ID, gotInst.TemplateID)
		assert.Equal(t, model.StateNew, gotInst.State)
	})

	t.Run("robot and slots", func(t *testing.T) {
		d := BotToDTO(&model.Bot{Name: "Mining Bot Alpha", OwnerID: "user123", ShardID: "s1", BotType: model.BotTypeWorker, SubType: model.SubTypeMining})
		rec, err := s.Create(ctx, store.TableRobot, d.Robot.ToRecord())
		require.NoError(t, err)
		rd, err := RobotFromRecord(rec)
		require.NoError(t, err)
		assert.Equal(t, "Mining Bot Alpha", rd.Name)
		require.NotNil(t, rd.SubType)
		assert.Equal(t, "MINING", *rd.SubType)

		slotRec, err := s.Create(ctx, store.TableExpansionSlot, ExpansionSlotDTO{RobotID: rd.ID, SlotIx: 1, InstanceID: "x1"}.ToRecord())
		require.NoError(t, err)
		slot, err := SlotFromRecord[ExpansionSlotDTO](slotRec)
		require.NoError(t, err)
		assert.Equal(t, ExpansionSlotDTO{RobotID: rd.ID, SlotIx: 1, InstanceID: "x1"}, slot)
	})
}
