package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Querier 客户端与事务共同实现的读写接口
type Querier interface {
	// Exec 执行写操作，返回影响行数
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query 执行查询，调用方负责关闭 rows
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var _ Querier = (*Client)(nil)

// Client SQLite 客户端
type Client struct {
	db  *sql.DB
	cfg *Config
}

// Open 打开数据库
func Open(ctx context.Context, cfg *Config) (*Client, error) {
	// 1. 合并默认配置
	newCfg, err := MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge config")
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	// 2. 打开连接
	db, err := sql.Open("sqlite", newCfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	db.SetMaxOpenConns(newCfg.MaxOpenConns)

	// 3. 测试连接
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}
	return &Client{db: db, cfg: newCfg}, nil
}

// Close 关闭数据库
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Exec 执行写操作
func (c *Client) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execOn(ctx, c.db, query, args...)
}

// Query 执行查询
func (c *Client) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	return rows, nil
}

type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execOn(ctx context.Context, e execContexter, query string, args ...any) (int64, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "exec failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}

// txQuerier 事务内的 Querier
type txQuerier struct {
	tx *sql.Tx
}

func (t *txQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execOn(ctx, t.tx, query, args...)
}

func (t *txQuerier) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	return rows, nil
}

// WithTx 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (c *Client) WithTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.CombineErrors(err, rbErr)
			}
		}
	}()

	if err = fn(&txQuerier{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// IsUniqueViolation 判断是否为唯一约束或主键冲突
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
