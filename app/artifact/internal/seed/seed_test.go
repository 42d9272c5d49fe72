package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/autosync"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/factory"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
templates:
  - class: SOUL_CHIP
    name: Core Mind
    slug: core-mind
    meta:
      baseStats: {attack: 2, defense: 1, speed: 1}
  - class: SKELETON
    name: Titan Frame
    slug: titan-frame
    meta:
      baseStats: {defense: 12}
      slotCapacity: 2
  - class: PART
    name: Arm Servo
    slug: arm-servo
    meta:
      baseStats: {attack: 5}
      modifiers: {critChance: 10}
  - class: PART
    name: Leg Servo
    slug: leg-servo
    meta:
      baseStats: {attack: 3, speed: 4}
  - class: GADGET
    name: Broken
    slug: broken

bots:
  - name: Mining Bot Alpha
    ownerId: user123
    shardId: shard-1
    botType: WORKER
    subType: MINING
  - name: Warden
    ownerId: user123
    shardId: shard-1
    botType: KING
    soulChip: core-mind
    skeleton: titan-frame
    parts: [arm-servo, leg-servo]
  - name: Ghost
    ownerId: user123
    shardId: shard-1
    botType: PLAYABLE
    skeleton: unknown-frame

items:
  - {ownerId: user123, name: Ruby, category: GEM, rarity: RARE, value: 40, gemType: RED}
  - {ownerId: user123, name: Flawed, category: GEM, rarity: COMMON}

accounts:
  - {userId: user123, providerId: credential, password: correct-horse-battery}
`

func newSeeder(t *testing.T) (*Seeder, *autosync.Syncer, store.Store) {
	t.Helper()
	clock := idgen.NewManualClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	tables, err := store.NewArtifactTables(idgen.NewSequence("id"), clock)
	require.NoError(t, err)
	st := store.NewMemory(tables, nil)
	s := autosync.New(st, factory.NewContext(nil, clock, idgen.NewSequence("f"), nil))
	return New(s, nil), s, st
}

func TestParseFixture(t *testing.T) {
	fx, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	assert.Len(t, fx.Templates, 5)
	assert.Len(t, fx.Bots, 3)
	assert.Equal(t, 11, fx.Size())
	assert.Equal(t, []any{"arm-servo", "leg-servo"}, fx.Bots[1]["parts"])

	_, err = ParseFixture([]byte("templates: {"))
	assert.Error(t, err)
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o644))

	fx, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Len(t, fx.Accounts, 1)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedRun(t *testing.T) {
	seeder, syncer, st := newSeeder(t)
	ctx := context.Background()
	fx, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	report, err := seeder.Run(ctx, fx)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Templates)
	assert.Equal(t, 4, report.Instances)
	assert.Equal(t, 2, report.Bots)
	assert.Equal(t, 1, report.Items)
	assert.Equal(t, 1, report.Accounts)

	require.Len(t, report.Failures, 3)
	assert.Equal(t, StageBuild, report.Failures[0].Stage)
	assert.Equal(t, "template", report.Failures[0].Kind)
	assert.Equal(t, 4, report.Failures[0].Index)
	var ve *model.ValidationError
	assert.True(t, errors.As(report.Failures[0].Err, &ve))

	assert.Equal(t, StageResolve, report.Failures[1].Stage)
	assert.Equal(t, "Ghost", report.Failures[1].Name)
	assert.True(t, errors.Is(report.Failures[1].Err, errUnknownSlug))

	assert.Equal(t, StageBuild, report.Failures[2].Stage)
	assert.Equal(t, "item", report.Failures[2].Kind)
	assert.Equal(t, "Flawed", report.Failures[2].Name)
	assert.Error(t, report.Err())

	robots, err := st.List(ctx, store.TableRobot, store.Filter{"name": "Warden"})
	require.NoError(t, err)
	require.Len(t, robots, 1)
	warden, err := syncer.LoadBotArtifact(ctx, robots[0].String(store.ColID))
	require.NoError(t, err)
	require.NotNil(t, warden.Skeleton)
	assert.Equal(t, "titan-frame", warden.Skeleton.Template.Slug)
	assert.Len(t, warden.Parts, 2)
	assert.Equal(t, model.StateEquipped, warden.Skeleton.Instance.State)

	arm, err := syncer.FindTemplateBySlug(ctx, "arm-servo")
	require.NoError(t, err)
	require.NotNil(t, arm)
	assert.Equal(t, int64(5), arm.Meta.BaseStats.Attack)
	assert.Equal(t, map[string]any{"critChance": float64(10)}, arm.Meta.Extra["modifiers"])
}

func TestSeedRerunReusesTemplates(t *testing.T) {
	seeder, _, st := newSeeder(t)
	ctx := context.Background()
	fx, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	_, err = seeder.Run(ctx, fx)
	require.NoError(t, err)
	report, err := seeder.Run(ctx, fx)
	require.NoError(t, err)

	assert.Zero(t, report.Templates)
	assert.Equal(t, 2, report.Bots)
	assert.Zero(t, report.Accounts)

	templates, err := st.List(ctx, store.TableTemplate, nil)
	require.NoError(t, err)
	assert.Len(t, templates, 4)

	var accountFailure *Failure
	for i := range report.Failures {
		if report.Failures[i].Kind == "account" {
			accountFailure = &report.Failures[i]
		}
	}
	require.NotNil(t, accountFailure)
	assert.Equal(t, StageSave, accountFailure.Stage)
	assert.True(t, errors.Is(accountFailure.Err, store.ErrConflict))
}

func TestSeedCancelled(t *testing.T) {
	seeder, _, _ := newSeeder(t)
	fx, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = seeder.Run(ctx, fx)
	assert.ErrorIs(t, err, context.Canceled)
}
