package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "dsn skips standalone", mutate: func(c *Config) { c.DSN = "postgres://x"; c.Standalone = nil }},
		{name: "missing standalone", mutate: func(c *Config) { c.Standalone = nil }, wantErr: true},
		{name: "empty host", mutate: func(c *Config) { c.Standalone.Host = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Standalone.Port = 70000 }, wantErr: true},
		{name: "zero max conns", mutate: func(c *Config) { c.Pool.MaxConns = 0 }, wantErr: true},
		{name: "min above max", mutate: func(c *Config) { c.Pool.MinConns = 30 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConnString(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password= dbname=xdooria sslmode=disable connect_timeout=10",
		cfg.ConnString())

	cfg.DSN = "postgres://u:p@db:5432/artifact"
	assert.Equal(t, "postgres://u:p@db:5432/artifact", cfg.ConnString())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(errors.Wrap(&pgconn.PgError{Code: "23505"}, "insert")))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestClientIntegration(t *testing.T) {
	dsn := os.Getenv("XDOORIA_TEST_POSTGRES_DSN")
	if testing.Short() || dsn == "" {
		t.Skip("skipping integration test: XDOORIA_TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, &Config{DSN: dsn})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(ctx))

	_, err = client.Exec(ctx, `CREATE TEMP TABLE tx_check (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	sentinel := errors.New("rollback")
	err = client.WithTx(ctx, func(q Querier) error {
		if _, err := q.Exec(ctx, `INSERT INTO tx_check (id) VALUES ($1)`, "a"); err != nil {
			return err
		}
		return sentinel
	})
	assert.True(t, errors.Is(err, sentinel))

	rows, err := client.Query(ctx, `SELECT count(*) FROM tx_check`)
	require.NoError(t, err)
	var n int64
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&n))
	rows.Close()
	assert.Zero(t, n)
}
