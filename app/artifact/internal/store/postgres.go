package store

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

// NewPostgres 创建 PostgreSQL 存储
func NewPostgres(client *postgres.Client, tables *Tables, l logger.Logger, m *metrics.ArtifactMetrics) *SQL {
	return newSQL(&pgBackend{pgExecer: pgExecer{q: client}, client: client}, pgDialect{}, tables, l, m)
}

type pgExecer struct {
	q postgres.Querier
}

func (e pgExecer) exec(ctx context.Context, query string, args ...any) (int64, error) {
	return e.q.Exec(ctx, query, args...)
}

func (e pgExecer) query(ctx context.Context, query string, args ...any) (rows, error) {
	return e.q.Query(ctx, query, args...)
}

type pgBackend struct {
	pgExecer
	client *postgres.Client
}

func (b *pgBackend) withTx(ctx context.Context, fn func(ex execer) error) error {
	return b.client.WithTx(ctx, func(q postgres.Querier) error {
		return fn(pgExecer{q: q})
	})
}

// pgDialect TEXT / BIGINT / TIMESTAMPTZ / JSONB
type pgDialect struct{}

func (pgDialect) name() string { return "postgres" }

func (pgDialect) placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }

func (pgDialect) columnType(kind Kind) string {
	switch kind {
	case KindInt:
		return "BIGINT"
	case KindTime:
		return "TIMESTAMPTZ"
	case KindJSON:
		return "JSONB"
	}
	return "TEXT"
}

func (pgDialect) encode(col Column, v any) any {
	if b, ok := v.([]byte); ok && col.Kind == KindJSON {
		return string(b)
	}
	return v
}

func (pgDialect) scanTarget(col Column) any {
	switch col.Kind {
	case KindInt:
		return new(*int64)
	case KindTime:
		return new(*time.Time)
	}
	return new(*string)
}

func (pgDialect) decode(col Column, target any) (any, error) {
	switch t := target.(type) {
	case **int64:
		if *t == nil {
			return nil, nil
		}
		return **t, nil
	case **time.Time:
		if *t == nil {
			return nil, nil
		}
		return (*t).UTC(), nil
	case **string:
		if *t == nil {
			return nil, nil
		}
		if col.Kind == KindJSON {
			return []byte(**t), nil
		}
		return **t, nil
	}
	return nil, nil
}

func (pgDialect) isUniqueViolation(err error) bool {
	return postgres.IsUniqueViolation(err)
}
