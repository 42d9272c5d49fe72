package schema

import (
	"reflect"
)

// 服务端生成的输入字段
var serverFields = []string{"id", "createdAt", "updatedAt"}

// UpdatePayload 由 Create 输入构造 Update 输入：去掉服务端字段，合并标识
func UpdatePayload(data map[string]any, identity map[string]any) map[string]any {
	out := make(map[string]any, len(data)+len(identity))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range serverFields {
		delete(out, k)
	}
	for k, v := range identity {
		out[k] = v
	}
	return out
}

// FilterColumns 把解析结果转换为列名到值的等值条件
// 只包含带 db tag 且有值的字段：指针非 nil，其余非零值
func FilterColumns(parsed any) map[string]any {
	out := make(map[string]any)
	rv := reflect.ValueOf(parsed)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return out
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return out
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		col := rt.Field(i).Tag.Get("db")
		if col == "" || col == "-" {
			continue
		}
		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.Ptr:
			if fv.IsNil() {
				continue
			}
			out[col] = fv.Elem().Interface()
		case reflect.Slice, reflect.Map, reflect.Struct:
			continue
		default:
			if fv.IsZero() {
				continue
			}
			out[col] = fv.Interface()
		}
	}
	return out
}
