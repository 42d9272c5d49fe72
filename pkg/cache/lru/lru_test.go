package lru

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasic(t *testing.T) {
	c := New[string, int](Config{MaxSize: 10})

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 2)
	v, _ = c.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Set("b", 1)
	c.Clear()
	assert.Zero(t, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, int](Config{MaxSize: 2}, WithOnEvict(func(k string, _ int) {
		evicted = append(evicted, k)
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	assert.Equal(t, []string{"b"}, evicted)
	_, ok := c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	clock := idgen.NewManualClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	c := New[string, int](Config{MaxSize: 10, DefaultTTL: time.Minute}, WithClock[string, int](clock))

	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)
	c.SetWithTTL("forever", 3, 0)

	clock.Advance(time.Minute)
	_, ok := c.Get("short")
	assert.False(t, ok)

	clock.Advance(time.Hour)
	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())
	v, ok := c.Get("forever")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestGetOrLoad(t *testing.T) {
	c := New[string, string](Config{MaxSize: 4})
	calls := 0
	load := func() (string, bool, error) {
		calls++
		return "titan-frame", true, nil
	}

	for i := 0; i < 3; i++ {
		v, ok, err := c.GetOrLoad("tpl-1", load)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "titan-frame", v)
	}
	assert.Equal(t, 1, calls)

	_, ok, err := c.GetOrLoad("absent", func() (string, bool, error) { return "", false, nil })
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	boom := errors.New("boom")
	_, _, err = c.GetOrLoad("broken", func() (string, bool, error) { return "", false, boom })
	assert.True(t, errors.Is(err, boom))
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](Config{MaxSize: 50})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Set(g*1000+i, i)
				_, _ = c.Get(g*1000 + i)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
