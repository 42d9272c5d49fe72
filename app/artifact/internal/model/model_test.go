package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func component(id string, class TemplateClass, stats Stats, capacity int) Component {
	return Component{
		Instance: Instance{ID: id, TemplateID: "tpl-" + id, State: StateNew},
		Template: Template{ID: "tpl-" + id, Class: class, Meta: TemplateMeta{BaseStats: stats, SlotCapacity: capacity}},
	}
}

func TestBotAggregates(t *testing.T) {
	skeleton := component("sk", ClassSkeleton, Stats{Defense: 10}, 2)
	soul := component("sc", ClassSoulChip, Stats{Attack: 1, Speed: 1}, 0)
	bot := &Bot{
		BotType:  BotTypePlayable,
		SoulChip: &soul,
		Skeleton: &skeleton,
		Parts: []Component{
			component("p0", ClassPart, Stats{Attack: 5}, 0),
			component("p1", ClassPart, Stats{Attack: 7, Speed: 2}, 0),
		},
		Expansions: []Component{component("e0", ClassExpansionChip, Stats{Attack: 3}, 0)},
	}

	assert.Equal(t, Stats{Attack: 16, Defense: 10, Speed: 3}, bot.TotalStats())
	assert.EqualValues(t, 16, bot.TotalAttack())
	assert.True(t, bot.IsAssembled())
	assert.Equal(t, []string{"sc", "sk", "p0", "p1", "e0"}, bot.InstanceIDs())

	bot.Parts = bot.Parts[:1]
	assert.False(t, bot.IsAssembled())

	bot.Skeleton = nil
	assert.False(t, bot.IsAssembled())
	assert.Zero(t, bot.SlotCapacity())
}

func TestBotClone(t *testing.T) {
	skeleton := component("sk", ClassSkeleton, Stats{}, 1)
	bot := &Bot{Name: "a", Skeleton: &skeleton, Parts: []Component{component("p0", ClassPart, Stats{}, 0)}}

	c := bot.Clone()
	c.Skeleton.Instance.ID = "other"
	c.Parts[0].Instance.ID = "other"

	assert.Equal(t, "sk", bot.Skeleton.Instance.ID)
	assert.Equal(t, "p0", bot.Parts[0].Instance.ID)
	assert.Nil(t, (*Bot)(nil).Clone())
}

func TestInstanceTransition(t *testing.T) {
	tests := []struct {
		from, to InstanceState
		ok       bool
	}{
		{StateNew, StateEquipped, true},
		{StateNew, StateDestroyed, true},
		{StateEquipped, StateUnequipped, true},
		{StateEquipped, StateDestroyed, false},
		{StateUnequipped, StateEquipped, true},
		{StateUnequipped, StateDestroyed, true},
		{StateDestroyed, StateNew, false},
		{StateNew, StateUnequipped, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			inst := Instance{ID: "i", State: tt.from}
			got, err := inst.Transition(tt.to)
			if !tt.ok {
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				assert.Equal(t, tt.from, got.State)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.State)
			assert.Equal(t, tt.from, inst.State)
		})
	}
}

func TestRarity(t *testing.T) {
	assert.True(t, RarityLegendary.AtLeast(RarityEpic))
	assert.False(t, RarityCommon.AtLeast(RarityUncommon))
	assert.True(t, RarityRare.AtLeast(RarityRare))
	assert.False(t, Rarity("MYTHIC").Valid())
	assert.Zero(t, Rarity("MYTHIC").Rank())
}

func TestWorkerSubTypeTitle(t *testing.T) {
	assert.Equal(t, "Mining", SubTypeMining.Title())
	assert.Equal(t, "Harvesting", SubTypeHarvesting.Title())
	assert.Equal(t, "", WorkerSubType("").Title())
}

func TestTemplateMeta(t *testing.T) {
	meta := TemplateMeta{BaseStats: Stats{Attack: 3, Defense: 2, Speed: 1}, SlotCapacity: 4}
	parsed, err := ParseTemplateMeta(meta.Encode())
	require.NoError(t, err)
	assert.Equal(t, meta, parsed)

	assert.JSONEq(t, `{"baseStats":{"attack":3,"defense":2,"speed":1},"slotCapacity":4}`, string(meta.Encode()))

	empty, err := ParseTemplateMeta(nil)
	require.NoError(t, err)
	assert.Equal(t, TemplateMeta{}, empty)

	_, err = ParseTemplateMeta([]byte("{"))
	assert.Error(t, err)
}

func TestTemplateMetaExtra(t *testing.T) {
	raw := []byte(`{"baseStats":{"attack":5},"modifiers":{"critChance":10},"tier":"S"}`)
	meta, err := ParseTemplateMeta(raw)
	require.NoError(t, err)
	assert.Equal(t, Stats{Attack: 5}, meta.BaseStats)
	assert.Equal(t, map[string]any{"critChance": float64(10)}, meta.Extra["modifiers"])
	assert.Equal(t, "S", meta.Extra["tier"])

	assert.JSONEq(t, `{"baseStats":{"attack":5,"defense":0,"speed":0},"modifiers":{"critChance":10},"tier":"S"}`, string(meta.Encode()))

	again, err := ParseTemplateMeta(meta.Encode())
	require.NoError(t, err)
	assert.Equal(t, meta, again)

	m := meta.Map()
	assert.Equal(t, "S", m["tier"])
	assert.Equal(t, 0, m["slotCapacity"])
}

func TestAccountTokens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	a := &Account{AccessToken: "a", RefreshToken: "r", AccessTokenExpiresAt: &past, RefreshTokenExpiresAt: &future, Scope: "read write,admin"}
	assert.True(t, a.IsAccessTokenExpired(now))
	assert.False(t, a.IsRefreshTokenExpired(now))
	assert.True(t, a.CanRefresh(now))
	assert.Equal(t, []string{"read", "write", "admin"}, a.Scopes())
	assert.True(t, a.HasScope("admin"))
	assert.False(t, a.HasScope("delete"))

	assert.False(t, (&Account{}).IsAccessTokenExpired(now))
}

func TestAccountMarshalJSONRedacts(t *testing.T) {
	a := Account{
		ID:          "acc-1",
		UserID:      "user123",
		ProviderID:  ProviderCredential,
		AccountID:   "user123",
		Password:    "hunter2",
		AccessToken: "secret-token",
	}

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hunter2")
	assert.NotContains(t, string(b), "secret-token")

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, Redacted, out["password"])
	assert.Equal(t, Redacted, out["accessToken"])
	assert.Nil(t, out["refreshToken"])
	assert.Equal(t, "user123", out["userId"])

	// 原值保留
	assert.Equal(t, "hunter2", a.Password)

	// 指针同样脱敏
	b, err = json.Marshal(&a)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hunter2")
}

func TestErrorList(t *testing.T) {
	var list ErrorList
	assert.True(t, list.Empty())

	list.Add("name", "is required")
	list.Append("parts[0]", ErrorList{{Path: "instanceId", Message: "is required"}})

	assert.Equal(t, []string{"name: is required", "parts[0].instanceId: is required"}, list.Messages())
	assert.True(t, list.Has("parts[0].instanceId"))

	var verr error = &ValidationError{Entity: "bot", Errors: list}
	var target *ValidationError
	require.True(t, errors.As(verr, &target))
	assert.Len(t, target.Errors, 2)

	inner := errors.New("duplicate key")
	perr := &PersistenceError{Op: "create", Table: "robot", Err: inner}
	assert.True(t, errors.Is(perr, inner))
}
