package store

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/logger"
)

var _ Store = (*Memory)(nil)

// Memory 内存存储，强制主键与唯一约束，Batch 原子执行
// 已写入的记录不会被原地修改，读取方拿到的都是副本
type Memory struct {
	mu     sync.RWMutex
	tables *Tables
	data   map[string]map[string]Record
	logger logger.Logger
}

// NewMemory 创建内存存储
func NewMemory(tables *Tables, l logger.Logger) *Memory {
	m := &Memory{
		tables: tables,
		data:   make(map[string]map[string]Record, len(tables.names)),
		logger: logger.OrNoop(l).Named("store.memory"),
	}
	for _, name := range tables.names {
		m.data[name] = make(map[string]Record)
	}
	return m
}

// Create 插入记录
func (m *Memory) Create(ctx context.Context, table string, data Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.create(m.data, table, data)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Find 按主键查询
func (m *Memory) Find(ctx context.Context, table string, key Key) (Record, error) {
	def, err := m.tables.Def(table)
	if err != nil {
		return nil, err
	}
	nk, err := def.normalizeKey(key, true)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[table][def.keyString(nk)]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

// List 按等值条件查询
func (m *Memory) List(ctx context.Context, table string, filter Filter) ([]Record, error) {
	def, err := m.tables.Def(table)
	if err != nil {
		return nil, err
	}
	nf, err := def.normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range m.data[table] {
		if matches(rec, map[string]any(nf)) {
			out = append(out, rec.Clone())
		}
	}
	sortByKey(def, out)
	return out, nil
}

// Update 更新记录
func (m *Memory) Update(ctx context.Context, table string, key Key, data Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.update(m.data, table, key, data)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Delete 删除记录
func (m *Memory) Delete(ctx context.Context, table string, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.delete(m.data, table, key)
}

// Batch 在数据副本上依次执行，全部成功后再提交
func (m *Memory) Batch(ctx context.Context, ops []Op) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. 表级写时复制
	working := make(map[string]map[string]Record, len(m.data))
	for name, rows := range m.data {
		working[name] = rows
	}
	copied := make(map[string]bool)
	ensureCopy := func(table string) {
		if copied[table] {
			return
		}
		rows := make(map[string]Record, len(working[table]))
		for k, v := range working[table] {
			rows[k] = v
		}
		working[table] = rows
		copied[table] = true
	}

	// 2. 依次执行
	results := make([]Record, len(ops))
	for i, op := range ops {
		if _, err := m.tables.Def(op.Table); err != nil {
			return nil, errors.Wrapf(err, "batch op %d", i)
		}
		ensureCopy(op.Table)

		var (
			rec Record
			err error
		)
		switch op.Kind {
		case OpCreate:
			rec, err = m.create(working, op.Table, op.Data)
		case OpUpdate:
			rec, err = m.update(working, op.Table, op.Key, op.Data)
		case OpDelete:
			err = m.delete(working, op.Table, op.Key)
		default:
			err = errors.Newf("unknown op kind %d", op.Kind)
		}
		if err != nil {
			m.logger.DebugContext(ctx, "batch rolled back", "op", i, "kind", op.Kind.String(), "table", op.Table, "error", err)
			return nil, errors.Wrapf(err, "batch op %d (%s %s)", i, op.Kind, op.Table)
		}
		results[i] = rec.Clone()
	}

	// 3. 提交
	m.data = working
	return results, nil
}

func (m *Memory) create(data map[string]map[string]Record, table string, input Record) (Record, error) {
	def, err := m.tables.Def(table)
	if err != nil {
		return nil, err
	}
	rec, err := m.tables.prepareCreate(def, input)
	if err != nil {
		return nil, err
	}

	rows := data[table]
	pk := def.keyString(rec)
	if _, exists := rows[pk]; exists {
		return nil, errors.Wrapf(ErrConflict, "%s: primary key %s already exists", table, pk)
	}
	if err := checkUnique(def, rows, rec, ""); err != nil {
		return nil, err
	}
	rows[pk] = rec
	return rec, nil
}

func (m *Memory) update(data map[string]map[string]Record, table string, key Key, input Record) (Record, error) {
	def, err := m.tables.Def(table)
	if err != nil {
		return nil, err
	}
	nk, err := def.normalizeKey(key, false)
	if err != nil {
		return nil, err
	}
	changes, err := m.tables.prepareUpdate(def, input)
	if err != nil {
		return nil, err
	}

	rows := data[table]
	pk := def.keyString(nk)
	current, ok := rows[pk]
	if !ok || !matches(current, map[string]any(nk)) {
		return nil, errors.Wrapf(ErrNotFound, "%s %s", table, pk)
	}

	next := current.Clone()
	for k, v := range changes {
		next[k] = v
	}
	if def.Versioned {
		next[ColVersion] = current.Int(ColVersion) + 1
	}
	if err := checkUnique(def, rows, next, pk); err != nil {
		return nil, err
	}
	rows[pk] = next
	return next, nil
}

func (m *Memory) delete(data map[string]map[string]Record, table string, key Key) error {
	def, err := m.tables.Def(table)
	if err != nil {
		return err
	}
	nk, err := def.normalizeKey(key, false)
	if err != nil {
		return err
	}

	rows := data[table]
	pk := def.keyString(nk)
	current, ok := rows[pk]
	if !ok || !matches(current, map[string]any(nk)) {
		return errors.Wrapf(ErrNotFound, "%s %s", table, pk)
	}
	delete(rows, pk)
	return nil
}

// checkUnique 检查唯一约束，包含 nil 的组合不参与比较
func checkUnique(def *TableDef, rows map[string]Record, rec Record, selfPK string) error {
	for _, set := range def.Unique {
		if hasNil(rec, set) {
			continue
		}
		for pk, other := range rows {
			if pk == selfPK {
				continue
			}
			if sameValues(rec, other, set) {
				return errors.Wrapf(ErrConflict, "%s: unique %v already taken", def.Name, set)
			}
		}
	}
	return nil
}

func hasNil(rec Record, cols []string) bool {
	for _, c := range cols {
		if rec[c] == nil {
			return true
		}
	}
	return false
}

func sameValues(a, b Record, cols []string) bool {
	for _, c := range cols {
		if !valuesEqual(a[c], b[c]) {
			return false
		}
	}
	return true
}

// matches 记录是否满足所有等值条件
func matches(rec Record, cond map[string]any) bool {
	for col, v := range cond {
		if !valuesEqual(rec[col], v) {
			return false
		}
	}
	return true
}
