package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
)

// 服务端维护的列
const (
	ColID        = "id"
	ColVersion   = "version"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"
)

// Kind 列类型
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindTime
	KindJSON
)

// Column 列定义
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// TableDef 表定义
type TableDef struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
	Unique     [][]string

	// AutoID 未提供 id 时由生成器分配
	AutoID bool
	// Timestamps 维护 created_at / updated_at
	Timestamps bool
	// Versioned 维护 version，Create 为 1，每次 Update 加 1
	Versioned bool
}

// Column 查找列定义
func (d *TableDef) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames 列名（定义顺序）
func (d *TableDef) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// KeyOf 从记录提取主键
func (d *TableDef) KeyOf(rec Record) Key {
	key := make(Key, len(d.PrimaryKey))
	for _, col := range d.PrimaryKey {
		key[col] = rec[col]
	}
	return key
}

// isPrimaryKey 是否为主键列
func (d *TableDef) isPrimaryKey(col string) bool {
	for _, pk := range d.PrimaryKey {
		if pk == col {
			return true
		}
	}
	return false
}

// serverManaged 是否为服务端维护的列
func (d *TableDef) serverManaged(col string) bool {
	switch col {
	case ColCreatedAt, ColUpdatedAt:
		return d.Timestamps
	case ColVersion:
		return d.Versioned
	}
	return false
}

// validate 检查表定义
func (d *TableDef) validate() error {
	if d.Name == "" || len(d.Columns) == 0 || len(d.PrimaryKey) == 0 {
		return errors.Newf("table %q: name, columns and primary key are required", d.Name)
	}
	sets := append([][]string{d.PrimaryKey}, d.Unique...)
	for _, set := range sets {
		for _, col := range set {
			if _, ok := d.Column(col); !ok {
				return errors.Newf("table %q: key column %q is not defined", d.Name, col)
			}
		}
	}
	var required []string
	if d.AutoID {
		required = append(required, ColID)
	}
	if d.Timestamps {
		required = append(required, ColCreatedAt, ColUpdatedAt)
	}
	if d.Versioned {
		required = append(required, ColVersion)
	}
	for _, col := range required {
		if _, ok := d.Column(col); !ok {
			return errors.Newf("table %q: column %q is required", d.Name, col)
		}
	}
	return nil
}

// normalizeRecord 校验列名并规范化值
func (d *TableDef) normalizeRecord(data Record) (Record, error) {
	out := make(Record, len(data))
	for name, v := range data {
		col, ok := d.Column(name)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidRecord, "%s: unknown column %q", d.Name, name)
		}
		nv, err := normalizeValue(col, v)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidRecord, "%s.%s: %v", d.Name, name, err)
		}
		if nv == nil && !col.Nullable {
			return nil, errors.Wrapf(ErrInvalidRecord, "%s.%s: must not be null", d.Name, name)
		}
		out[name] = nv
	}
	return out, nil
}

// normalizeKey 校验并规范化键
// exact 为 true 时要求恰好为主键列
func (d *TableDef) normalizeKey(key Key, exact bool) (Key, error) {
	for _, pk := range d.PrimaryKey {
		if _, ok := key[pk]; !ok {
			return nil, errors.Wrapf(ErrInvalidKey, "%s: missing key column %q", d.Name, pk)
		}
	}
	if exact && len(key) != len(d.PrimaryKey) {
		return nil, errors.Wrapf(ErrInvalidKey, "%s: key must contain only %v", d.Name, d.PrimaryKey)
	}

	out := make(Key, len(key))
	for name, v := range key {
		col, ok := d.Column(name)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidKey, "%s: unknown column %q", d.Name, name)
		}
		nv, err := normalizeValue(col, v)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidKey, "%s.%s: %v", d.Name, name, err)
		}
		out[name] = nv
	}
	return out, nil
}

// normalizeFilter 校验并规范化过滤条件
func (d *TableDef) normalizeFilter(filter Filter) (Filter, error) {
	out := make(Filter, len(filter))
	for name, v := range filter {
		col, ok := d.Column(name)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidKey, "%s: unknown filter column %q", d.Name, name)
		}
		nv, err := normalizeValue(col, v)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidKey, "%s.%s: %v", d.Name, name, err)
		}
		out[name] = nv
	}
	return out, nil
}

// keyString 主键的稳定字符串形式
func (d *TableDef) keyString(rec map[string]any) string {
	parts := make([]string, len(d.PrimaryKey))
	for i, col := range d.PrimaryKey {
		parts[i] = fmt.Sprint(rec[col])
	}
	return strings.Join(parts, "/")
}

// Tables 表注册表，同时负责分配服务端字段
type Tables struct {
	defs  map[string]*TableDef
	names []string
	ids   idgen.Generator
	clock idgen.Clock
}

// NewTables 创建注册表，ids/clock 为 nil 时使用 uuid 与系统时钟
func NewTables(ids idgen.Generator, clock idgen.Clock, defs ...TableDef) (*Tables, error) {
	if ids == nil {
		ids = idgen.NewUUID()
	}
	if clock == nil {
		clock = idgen.SystemClock
	}
	t := &Tables{
		defs:  make(map[string]*TableDef, len(defs)),
		ids:   ids,
		clock: idgen.NewMonotonic(clock),
	}
	for i := range defs {
		def := defs[i]
		if err := def.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.defs[def.Name]; dup {
			return nil, errors.Newf("table %q registered twice", def.Name)
		}
		t.defs[def.Name] = &def
		t.names = append(t.names, def.Name)
	}
	return t, nil
}

// Def 查找表定义
func (t *Tables) Def(name string) (*TableDef, error) {
	def, ok := t.defs[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTable, "%q", name)
	}
	return def, nil
}

// Names 按注册顺序返回表名
func (t *Tables) Names() []string {
	return append([]string(nil), t.names...)
}

// Now 当前时间
func (t *Tables) Now() time.Time {
	return t.clock.Now()
}

// prepareCreate 规范化输入并填充服务端字段
func (t *Tables) prepareCreate(def *TableDef, data Record) (Record, error) {
	rec, err := def.normalizeRecord(withoutServerManaged(def, data))
	if err != nil {
		return nil, err
	}

	if def.AutoID {
		if id, _ := rec[ColID].(string); id == "" {
			id, err := t.ids.NewID()
			if err != nil {
				return nil, errors.Wrap(err, "failed to generate id")
			}
			rec[ColID] = id
		}
	}
	if def.Timestamps {
		now := t.clock.Now()
		rec[ColCreatedAt] = now
		rec[ColUpdatedAt] = now
	}
	if def.Versioned {
		rec[ColVersion] = int64(1)
	}

	for _, col := range def.Columns {
		v, ok := rec[col.Name]
		if !ok {
			if !col.Nullable {
				return nil, errors.Wrapf(ErrInvalidRecord, "%s.%s: is required", def.Name, col.Name)
			}
			rec[col.Name] = nil
			continue
		}
		if v == nil && !col.Nullable {
			return nil, errors.Wrapf(ErrInvalidRecord, "%s.%s: is required", def.Name, col.Name)
		}
	}
	return rec, nil
}

// prepareUpdate 规范化更新字段，主键与服务端字段被忽略
func (t *Tables) prepareUpdate(def *TableDef, data Record) (Record, error) {
	filtered := make(Record, len(data))
	for k, v := range withoutServerManaged(def, data) {
		if def.isPrimaryKey(k) {
			continue
		}
		filtered[k] = v
	}
	rec, err := def.normalizeRecord(filtered)
	if err != nil {
		return nil, err
	}
	if def.Timestamps {
		rec[ColUpdatedAt] = t.clock.Now()
	}
	return rec, nil
}

func withoutServerManaged(def *TableDef, data Record) Record {
	out := make(Record, len(data))
	for k, v := range data {
		if def.serverManaged(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// normalizeValue 将输入值转换为列的规范类型
func normalizeValue(col Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeValue(col, rv.Elem().Interface())
	}

	switch col.Kind {
	case KindString:
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case KindInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint()), nil
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			if f == float64(int64(f)) {
				return int64(f), nil
			}
			return nil, errors.Newf("%v is not an integer", f)
		}
	case KindTime:
		switch tv := v.(type) {
		case time.Time:
			return tv.UTC(), nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, tv)
			if err != nil {
				return nil, err
			}
			return parsed.UTC(), nil
		}
	case KindJSON:
		switch jv := v.(type) {
		case []byte:
			return append([]byte(nil), jv...), nil
		case json.RawMessage:
			return append([]byte(nil), jv...), nil
		case string:
			return []byte(jv), nil
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return b, nil
		}
	}
	return nil, errors.Newf("unsupported value of type %T", v)
}

// valuesEqual 比较两个规范值
func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && string(av) == string(bv)
	default:
		return a == b
	}
}

// compareValues 比较两个规范值，用于稳定排序
func compareValues(a, b any) int {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// sortByKey 按主键排序
func sortByKey(def *TableDef, recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, col := range def.PrimaryKey {
			if c := compareValues(recs[i][col], recs[j][col]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}
