package redis

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{name: "nil", cfg: nil, wantErr: ErrNilConfig},
		{name: "no mode", cfg: &Config{}, wantErr: ErrInvalidConfig},
		{name: "both modes", cfg: &Config{Standalone: &NodeConfig{}, Cluster: &ClusterConfig{Addrs: []string{"a:1"}}}, wantErr: ErrInvalidConfig},
		{name: "empty cluster", cfg: &Config{Cluster: &ClusterConfig{}}, wantErr: ErrInvalidConfig},
		{name: "standalone", cfg: &Config{Standalone: &NodeConfig{Host: "localhost", Port: 6379}}},
		{name: "cluster", cfg: &Config{Cluster: &ClusterConfig{Addrs: []string{"a:1", "b:2"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNodeAddr(t *testing.T) {
	assert.Equal(t, "cache:6380", (&NodeConfig{Host: "cache", Port: 6380}).Addr())
}

func TestClientIntegration(t *testing.T) {
	addr := os.Getenv("XDOORIA_TEST_REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("skipping integration test: XDOORIA_TEST_REDIS_ADDR not set")
	}
	host, portStr, _ := strings.Cut(addr, ":")
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := NewClient(&Config{Standalone: &NodeConfig{Host: host, Port: port}})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	key := "xdooria:test:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	_, err = client.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrNil))

	require.NoError(t, client.Set(ctx, key, []byte("v"), time.Minute))
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	n, err := client.Del(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
