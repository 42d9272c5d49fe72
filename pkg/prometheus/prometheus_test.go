package prometheus

import (
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cfg := &Config{HTTPServer: HTTPServerConfig{Enabled: true}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.HTTPServer.Addr = ":0"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/metrics", cfg.HTTPServer.Path)
	assert.NotZero(t, cfg.HTTPServer.Timeout)

	assert.NoError(t, (&Config{}).Validate())
}

func TestDisabledServer(t *testing.T) {
	c, err := New(&Config{}, nil)
	require.NoError(t, err)

	require.NoError(t, c.Start())
	assert.Empty(t, c.Addr())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
	assert.ErrorIs(t, c.Start(), ErrClientClosed)
}

func TestServeMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPServer.Enabled = true
	cfg.HTTPServer.Addr = "127.0.0.1:0"
	c, err := New(cfg, nil)
	require.NoError(t, err)

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "artifact_test_total", Help: "test"})
	require.NoError(t, c.Registry().Register(counter))
	counter.Add(3)

	require.NoError(t, c.Start())
	defer c.Close()

	resp, err := http.Get("http://" + c.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "artifact_test_total 3")
	assert.Contains(t, string(body), "go_goroutines")
}
