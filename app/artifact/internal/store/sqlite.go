package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/pkg/database/sqlite"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

// NewSQLite 创建 SQLite 存储
func NewSQLite(client *sqlite.Client, tables *Tables, l logger.Logger, m *metrics.ArtifactMetrics) *SQL {
	return newSQL(&liteBackend{liteExecer: liteExecer{q: client}, client: client}, liteDialect{}, tables, l, m)
}

// liteRows 适配 *sql.Rows 的 Close 签名
type liteRows struct {
	*sql.Rows
}

func (r liteRows) Close() {
	_ = r.Rows.Close()
}

type liteExecer struct {
	q sqlite.Querier
}

func (e liteExecer) exec(ctx context.Context, query string, args ...any) (int64, error) {
	return e.q.Exec(ctx, query, args...)
}

func (e liteExecer) query(ctx context.Context, query string, args ...any) (rows, error) {
	rs, err := e.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return liteRows{Rows: rs}, nil
}

type liteBackend struct {
	liteExecer
	client *sqlite.Client
}

func (b *liteBackend) withTx(ctx context.Context, fn func(ex execer) error) error {
	return b.client.WithTx(ctx, func(q sqlite.Querier) error {
		return fn(liteExecer{q: q})
	})
}

// liteDialect 时间以 unix 纳秒存为 INTEGER，JSON 存为 TEXT
type liteDialect struct{}

func (liteDialect) name() string { return "sqlite" }

func (liteDialect) placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

func (liteDialect) columnType(kind Kind) string {
	switch kind {
	case KindInt, KindTime:
		return "INTEGER"
	}
	return "TEXT"
}

func (liteDialect) encode(col Column, v any) any {
	switch tv := v.(type) {
	case time.Time:
		return tv.UnixNano()
	case []byte:
		return string(tv)
	}
	return v
}

func (liteDialect) scanTarget(col Column) any {
	switch col.Kind {
	case KindInt, KindTime:
		return new(*int64)
	}
	return new(*string)
}

func (liteDialect) decode(col Column, target any) (any, error) {
	switch t := target.(type) {
	case **int64:
		if *t == nil {
			return nil, nil
		}
		if col.Kind == KindTime {
			return time.Unix(0, **t).UTC(), nil
		}
		return **t, nil
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

func (liteDialect) isUniqueViolation(err error) bool {
	return sqlite.IsUniqueViolation(err)
}
