package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-artifact/pkg/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeValue 规范化输入值
func TestNormalizeValue(t *testing.T) {
	n := int32(7)
	var nilPtr *string
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6000, time.FixedZone("X", 3600))

	tests := []struct {
		name    string
		col     Column
		in      any
		want    any
		wantErr bool
	}{
		{name: "string", col: Column{Kind: KindString}, in: "a", want: "a"},
		{name: "nil pointer", col: Column{Kind: KindString}, in: nilPtr, want: nil},
		{name: "int pointer", col: Column{Kind: KindInt}, in: &n, want: int64(7)},
		{name: "uint", col: Column{Kind: KindInt}, in: uint8(3), want: int64(3)},
		{name: "integral float", col: Column{Kind: KindInt}, in: float64(12), want: int64(12)},
		{name: "fractional float", col: Column{Kind: KindInt}, in: 1.5, wantErr: true},
		{name: "string into int", col: Column{Kind: KindInt}, in: "1", wantErr: true},
		{name: "time to utc", col: Column{Kind: KindTime}, in: ts, want: ts.UTC()},
		{name: "rfc3339 time", col: Column{Kind: KindTime}, in: "2025-01-02T02:04:05.000006Z", want: ts.UTC()},
		{name: "bad time", col: Column{Kind: KindTime}, in: "yesterday", wantErr: true},
		{name: "json bytes", col: Column{Kind: KindJSON}, in: []byte(`{"a":1}`), want: []byte(`{"a":1}`)},
		{name: "json raw", col: Column{Kind: KindJSON}, in: json.RawMessage(`[1]`), want: []byte(`[1]`)},
		{name: "json string", col: Column{Kind: KindJSON}, in: `{}`, want: []byte(`{}`)},
		{name: "json value", col: Column{Kind: KindJSON}, in: map[string]int{"a": 1}, want: []byte(`{"a":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeValue(tt.col, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, valuesEqual(tt.want, got), "want %v, got %v", tt.want, got)
		})
	}
}

// TestNewTables 表定义校验
func TestNewTables(t *testing.T) {
	_, err := NewTables(nil, nil, TableDef{Name: "t", Columns: []Column{{Name: "a", Kind: KindString}}, PrimaryKey: []string{"b"}})
	assert.Error(t, err)

	_, err = NewTables(nil, nil, TableDef{Name: "t", Columns: []Column{{Name: "a", Kind: KindString}}, PrimaryKey: []string{"a"}, Versioned: true})
	assert.Error(t, err)

	def := TableDef{Name: "t", Columns: []Column{{Name: "a", Kind: KindString}}, PrimaryKey: []string{"a"}}
	_, err = NewTables(nil, nil, def, def)
	assert.Error(t, err)

	tables, err := NewArtifactTables(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		TableAccount, TableTemplate, TableInstance, TableRobot,
		TableSoulChipSlot, TableSkeletonSlot, TablePartSlot, TableExpansionSlot, TableItem,
	}, tables.Names())

	_, err = tables.Def("unknown")
	assert.True(t, errors.Is(err, ErrUnknownTable))
}

// TestPrepareCreate 服务端字段填充
func TestPrepareCreate(t *testing.T) {
	clock := idgen.NewManualClock(testEpoch)
	tables, err := NewArtifactTables(idgen.NewSequence("bot"), clock)
	require.NoError(t, err)
	def, err := tables.Def(TableRobot)
	require.NoError(t, err)

	rec, err := tables.prepareCreate(def, robotData("a"))
	require.NoError(t, err)
	assert.Equal(t, "bot-1", rec.String(ColID))
	assert.Equal(t, testEpoch, rec[ColCreatedAt])
	assert.Equal(t, testEpoch, rec[ColUpdatedAt])
	assert.EqualValues(t, 1, rec.Int(ColVersion))

	// 时钟未推进时仍严格递增
	rec2, err := tables.prepareCreate(def, robotData("b"))
	require.NoError(t, err)
	assert.Equal(t, "bot-2", rec2.String(ColID))
	assert.True(t, rec2[ColCreatedAt].(time.Time).After(rec[ColCreatedAt].(time.Time)))

	changes, err := tables.prepareUpdate(def, Record{ColID: "x", ColVersion: 9, "name": "c"})
	require.NoError(t, err)
	assert.NotContains(t, changes, ColID)
	assert.NotContains(t, changes, ColVersion)
	assert.Equal(t, "c", changes["name"])
	assert.Contains(t, changes, ColUpdatedAt)
}
