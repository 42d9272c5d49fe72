package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndRegister(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	// 重复注册失败
	assert.Error(t, m.Register(reg))
}

func TestRecord(t *testing.T) {
	m, err := New(&Config{Namespace: "test"})
	require.NoError(t, err)

	m.RecordFactory("bot", "created")
	m.RecordFactory("bot", "created")
	m.RecordSync("bot", "save", false, 0.01)
	m.RecordDBQuery("insert", true, 0.002)
	m.RecordCacheHit("robot")
	m.RecordCacheMiss("robot")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FactoryTotal.WithLabelValues("bot", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncTotal.WithLabelValues("bot", "save", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryTotal.WithLabelValues("insert", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitTotal.WithLabelValues("robot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissTotal.WithLabelValues("robot")))
}

func TestNilSafe(t *testing.T) {
	var m *ArtifactMetrics
	assert.NotPanics(t, func() {
		m.RecordFactory("bot", "created")
		m.RecordSync("bot", "save", true, 0)
		m.RecordDBQuery("select", true, 0)
		m.RecordCacheHit("robot")
		m.RecordCacheMiss("robot")
	})
}
