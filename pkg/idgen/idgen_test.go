package idgen

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID(t *testing.T) {
	g := NewUUID()
	a, err := g.NewID()
	require.NoError(t, err)
	b, err := g.NewID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	_, err = uuid.Parse(a)
	assert.NoError(t, err)
}

func TestSequence(t *testing.T) {
	g := NewSequence("bot")
	a, _ := g.NewID()
	b, _ := g.NewID()
	assert.Equal(t, "bot-1", a)
	assert.Equal(t, "bot-2", b)
}

func TestSequenceConcurrent(t *testing.T) {
	g := NewSequence("x")
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := g.NewID()
			_, dup := seen.LoadOrStore(id, true)
			assert.False(t, dup)
		}()
	}
	wg.Wait()
}

func TestNew(t *testing.T) {
	g, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, UUID{}, g)

	g, err = New(Config{Kind: KindSonyflake, MachineID: 7})
	require.NoError(t, err)
	id, err := g.NewID()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestMonotonic(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMonotonic(NewManualClock(fixed))

	first := m.Now()
	second := m.Now()
	assert.Equal(t, fixed, first)
	assert.True(t, second.After(first))
}

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())
}
