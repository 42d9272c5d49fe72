package sentry

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (r *recorder) hook(e *sentry.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.events...)
}

func newTestClient(t *testing.T) (*Client, *recorder) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Tags["service"] = "artifact"
	c, err := New(cfg)
	require.NoError(t, err)
	rec := &recorder{}
	c.RegisterHook(rec.hook)
	return c, rec
}

func TestValidate(t *testing.T) {
	var nilCfg *Config
	assert.True(t, errors.Is(nilCfg.Validate(), ErrNilConfig))

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.SampleRate = 1.5
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))

	cfg = DefaultConfig()
	cfg.MaxBreadcrumbs = -1
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
}

func TestCaptureException(t *testing.T) {
	c, rec := newTestClient(t)

	id := c.CaptureException(errors.New("seed failed"), map[string]string{"task": "seed"})
	require.NotNil(t, id)
	assert.Nil(t, c.CaptureException(nil, nil))

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, sentry.LevelError, events[0].Level)
	assert.Equal(t, "seed", events[0].Tags["task"])
	assert.Equal(t, "artifact", events[0].Tags["service"])
	assert.NotEmpty(t, events[0].Exception)

	// 单次事件的标签不会残留在 Hub 上
	c.CaptureMessage("stats", LevelWarning, nil)
	events = rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, sentry.LevelWarning, events[1].Level)
	assert.NotContains(t, events[1].Tags, "task")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.EventsTotal)
	assert.Equal(t, uint64(2), stats.EventsCaptured)
}

func TestRecover(t *testing.T) {
	c, rec := newTestClient(t)

	func() {
		defer func() {
			c.RecoverWithContext(recover())
		}()
		panic("boom")
	}()

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, sentry.LevelFatal, events[0].Level)
	assert.Nil(t, c.RecoverWithContext(nil))
}

func TestClose(t *testing.T) {
	c, rec := newTestClient(t)
	require.NoError(t, c.Close())
	assert.True(t, errors.Is(c.Close(), ErrClientClosed))
	assert.Nil(t, c.CaptureException(errors.New("late"), nil))
	assert.Empty(t, rec.all())
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.Nil(t, c.CaptureException(errors.New("x"), nil))
	assert.Nil(t, c.CaptureMessage("x", LevelInfo, nil))
	assert.Nil(t, c.RecoverWithContext("x"))
	c.RegisterHook(func(*sentry.Event) {})
	assert.True(t, c.Flush(0))
	assert.NoError(t, c.Close())
	assert.Equal(t, Stats{}, c.Stats())
}
