package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/metrics"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

// rows 查询结果游标
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// execer 客户端或事务内的执行器
type execer interface {
	exec(ctx context.Context, query string, args ...any) (int64, error)
	query(ctx context.Context, query string, args ...any) (rows, error)
}

// backend 数据库连接
type backend interface {
	execer
	withTx(ctx context.Context, fn func(ex execer) error) error
}

// dialect 数据库方言：列类型与值编解码
type dialect interface {
	name() string
	placeholder() squirrel.PlaceholderFormat
	columnType(kind Kind) string
	// encode 规范值转换为驱动参数
	encode(col Column, v any) any
	// scanTarget 返回可接收 NULL 的扫描目标
	scanTarget(col Column) any
	// decode 扫描结果转换为规范值
	decode(col Column, target any) (any, error)
	isUniqueViolation(err error) bool
}

var _ Store = (*SQL)(nil)

// SQL 基于 squirrel 的关系型存储
type SQL struct {
	backend backend
	dialect dialect
	tables  *Tables
	builder squirrel.StatementBuilderType
	logger  logger.Logger
	metrics *metrics.ArtifactMetrics
}

func newSQL(b backend, d dialect, tables *Tables, l logger.Logger, m *metrics.ArtifactMetrics) *SQL {
	return &SQL{
		backend: b,
		dialect: d,
		tables:  tables,
		builder: squirrel.StatementBuilder.PlaceholderFormat(d.placeholder()),
		logger:  logger.OrNoop(l).Named("store." + d.name()),
		metrics: m,
	}
}

// Migrate 创建缺失的表
func (s *SQL) Migrate(ctx context.Context) error {
	for _, name := range s.tables.names {
		def := s.tables.defs[name]
		if _, err := s.backend.exec(ctx, s.createTableDDL(def)); err != nil {
			return errors.Wrapf(err, "failed to create table %s", name)
		}
		s.logger.DebugContext(ctx, "table ready", "table", name)
	}
	return nil
}

// createTableDDL 生成 CREATE TABLE 语句
func (s *SQL) createTableDDL(def *TableDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (", def.Name)
	for i, col := range def.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", col.Name, s.dialect.columnType(col.Kind))
		if !col.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	fmt.Fprintf(&b, ", PRIMARY KEY (%s)", strings.Join(def.PrimaryKey, ", "))
	for _, set := range def.Unique {
		fmt.Fprintf(&b, ", UNIQUE (%s)", strings.Join(set, ", "))
	}
	b.WriteString(")")
	return b.String()
}

// Create 插入记录
func (s *SQL) Create(ctx context.Context, table string, data Record) (rec Record, err error) {
	defer s.observe(ctx, "create", table, time.Now(), &err)
	return s.create(ctx, s.backend, table, data)
}

// Find 按主键查询
func (s *SQL) Find(ctx context.Context, table string, key Key) (rec Record, err error) {
	defer s.observe(ctx, "find", table, time.Now(), &err)

	def, err := s.tables.Def(table)
	if err != nil {
		return nil, err
	}
	nk, err := def.normalizeKey(key, true)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, s.backend, def, nk)
}

// List 按等值条件查询
func (s *SQL) List(ctx context.Context, table string, filter Filter) (recs []Record, err error) {
	defer s.observe(ctx, "list", table, time.Now(), &err)

	def, err := s.tables.Def(table)
	if err != nil {
		return nil, err
	}
	nf, err := def.normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.selectRows(ctx, s.backend, def, nf)
}

// Update 更新记录
func (s *SQL) Update(ctx context.Context, table string, key Key, data Record) (rec Record, err error) {
	defer s.observe(ctx, "update", table, time.Now(), &err)
	return s.update(ctx, s.backend, table, key, data)
}

// Delete 删除记录
func (s *SQL) Delete(ctx context.Context, table string, key Key) (err error) {
	defer s.observe(ctx, "delete", table, time.Now(), &err)
	return s.delete(ctx, s.backend, table, key)
}

// Batch 在单个事务中执行
func (s *SQL) Batch(ctx context.Context, ops []Op) (results []Record, err error) {
	defer s.observe(ctx, "batch", "", time.Now(), &err)

	results = make([]Record, len(ops))
	err = s.backend.withTx(ctx, func(ex execer) error {
		for i, op := range ops {
			var (
				rec   Record
				opErr error
			)
			switch op.Kind {
			case OpCreate:
				rec, opErr = s.create(ctx, ex, op.Table, op.Data)
			case OpUpdate:
				rec, opErr = s.update(ctx, ex, op.Table, op.Key, op.Data)
			case OpDelete:
				opErr = s.delete(ctx, ex, op.Table, op.Key)
			default:
				opErr = errors.Newf("unknown op kind %d", op.Kind)
			}
			if opErr != nil {
				return errors.Wrapf(opErr, "batch op %d (%s %s)", i, op.Kind, op.Table)
			}
			results[i] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *SQL) create(ctx context.Context, ex execer, table string, data Record) (Record, error) {
	def, err := s.tables.Def(table)
	if err != nil {
		return nil, err
	}
	rec, err := s.tables.prepareCreate(def, data)
	if err != nil {
		return nil, err
	}

	vals := make([]any, len(def.Columns))
	for i, col := range def.Columns {
		vals[i] = s.dialect.encode(col, rec[col.Name])
	}
	query, args, err := s.builder.Insert(def.Name).Columns(def.ColumnNames()...).Values(vals...).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build insert")
	}
	if _, err := ex.exec(ctx, query, args...); err != nil {
		return nil, s.translate(err, "insert", table)
	}
	return rec, nil
}

func (s *SQL) update(ctx context.Context, ex execer, table string, key Key, data Record) (Record, error) {
	def, err := s.tables.Def(table)
	if err != nil {
		return nil, err
	}
	nk, err := def.normalizeKey(key, false)
	if err != nil {
		return nil, err
	}
	changes, err := s.tables.prepareUpdate(def, data)
	if err != nil {
		return nil, err
	}

	// 1. 没有可更新的列时只校验记录存在
	if len(changes) == 0 && !def.Versioned {
		rec, err := s.findOne(ctx, ex, def, nk)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, errors.Wrapf(ErrNotFound, "%s %s", table, def.keyString(nk))
		}
		return rec, nil
	}

	// 2. 更新
	ub := s.builder.Update(def.Name).Where(s.eq(def, nk))
	for col, v := range changes {
		c, _ := def.Column(col)
		ub = ub.Set(col, s.dialect.encode(c, v))
	}
	if def.Versioned {
		ub = ub.Set(ColVersion, squirrel.Expr(ColVersion+" + 1"))
	}
	query, args, err := ub.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build update")
	}
	n, err := ex.exec(ctx, query, args...)
	if err != nil {
		return nil, s.translate(err, "update", table)
	}
	if n == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s %s", table, def.keyString(nk))
	}

	// 3. 读回完整记录
	pk := make(Key, len(def.PrimaryKey))
	for _, col := range def.PrimaryKey {
		pk[col] = nk[col]
	}
	rec, err := s.findOne(ctx, ex, def, pk)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.Wrapf(ErrNotFound, "%s %s", table, def.keyString(nk))
	}
	return rec, nil
}

func (s *SQL) delete(ctx context.Context, ex execer, table string, key Key) error {
	def, err := s.tables.Def(table)
	if err != nil {
		return err
	}
	nk, err := def.normalizeKey(key, false)
	if err != nil {
		return err
	}
	query, args, err := s.builder.Delete(def.Name).Where(s.eq(def, nk)).ToSql()
	if err != nil {
		return errors.Wrap(err, "failed to build delete")
	}
	n, err := ex.exec(ctx, query, args...)
	if err != nil {
		return s.translate(err, "delete", table)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s %s", table, def.keyString(nk))
	}
	return nil
}

func (s *SQL) findOne(ctx context.Context, ex execer, def *TableDef, key Key) (Record, error) {
	recs, err := s.selectRows(ctx, ex, def, key)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

func (s *SQL) selectRows(ctx context.Context, ex execer, def *TableDef, cond map[string]any) ([]Record, error) {
	qb := s.builder.Select(def.ColumnNames()...).From(def.Name).OrderBy(def.PrimaryKey...)
	if len(cond) > 0 {
		qb = qb.Where(s.eq(def, cond))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build select")
	}

	rs, err := ex.query(ctx, query, args...)
	if err != nil {
		return nil, s.translate(err, "select", def.Name)
	}
	defer rs.Close()

	out := make([]Record, 0)
	for rs.Next() {
		targets := make([]any, len(def.Columns))
		for i, col := range def.Columns {
			targets[i] = s.dialect.scanTarget(col)
		}
		if err := rs.Scan(targets...); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s", def.Name)
		}
		rec := make(Record, len(def.Columns))
		for i, col := range def.Columns {
			v, err := s.dialect.decode(col, targets[i])
			if err != nil {
				return nil, errors.Wrapf(err, "failed to decode %s.%s", def.Name, col.Name)
			}
			rec[col.Name] = v
		}
		out = append(out, rec)
	}
	if err := rs.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to iterate %s", def.Name)
	}
	return out, nil
}

// eq 规范化条件转换为 WHERE，nil 生成 IS NULL
func (s *SQL) eq(def *TableDef, cond map[string]any) squirrel.Eq {
	eq := make(squirrel.Eq, len(cond))
	for name, v := range cond {
		col, _ := def.Column(name)
		eq[name] = s.dialect.encode(col, v)
	}
	return eq
}

// translate 包装驱动错误，唯一约束冲突标记为 ErrConflict
func (s *SQL) translate(err error, op, table string) error {
	wrapped := errors.Wrapf(err, "%s %s", op, table)
	if s.dialect.isUniqueViolation(err) {
		return errors.Mark(wrapped, ErrConflict)
	}
	return wrapped
}

// observe 记录耗时与结果，NotFound 不计为失败
func (s *SQL) observe(ctx context.Context, op, table string, start time.Time, errp *error) {
	err := *errp
	success := err == nil || errors.Is(err, ErrNotFound)
	label := op
	if table != "" {
		label = table + "." + op
	}
	s.metrics.RecordDBQuery(label, success, time.Since(start).Seconds())
	if !success {
		s.logger.WarnContext(ctx, "query failed", "op", op, "table", table, "error", err)
	}
}
