package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var structValidator = newValidator()

// newValidator 注册自定义规则，错误路径使用 json 字段名
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Result 校验结果
type Result struct {
	Valid bool
	// Parsed 校验通过时为 Schema 对应结构体的指针
	Parsed any
	Errors model.ErrorList
}

// Validate 按 Schema 解码并校验，收集全部错误，不会 panic
func Validate(s Schema, data map[string]any) Result {
	target := s.newTarget()
	if target == nil {
		var errs model.ErrorList
		errs.Add("", "unknown schema %s", s)
		return Result{Errors: errs}
	}

	// 1. 解码，类型错误按字段收集
	var errs model.ErrorList
	if err := decode(data, target); err != nil {
		errs = append(errs, decodeErrors(err)...)
	}

	// 2. 规则校验，已有解码错误的字段不再重复报告
	if err := structValidator.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				path := fieldPath(fe.Namespace())
				if errs.Has(path) {
					continue
				}
				errs.Add(path, "%s", message(fe))
			}
		} else {
			errs.Add("", "%v", err)
		}
	}

	if !errs.Empty() {
		return Result{Errors: errs}
	}
	return Result{Valid: true, Parsed: target}
}

// SafeValidate 只关心是否通过的调用方使用
func SafeValidate(s Schema, data map[string]any) (any, bool) {
	r := Validate(s, data)
	if !r.Valid {
		return nil, false
	}
	return r.Parsed, true
}

// Parse 校验并返回具体类型，T 与 Schema 不匹配时报告错误
func Parse[T any](s Schema, data map[string]any) (*T, model.ErrorList) {
	r := Validate(s, data)
	if !r.Valid {
		return nil, r.Errors
	}
	parsed, ok := r.Parsed.(*T)
	if !ok {
		var errs model.ErrorList
		errs.Add("", "schema %s parses into %T, not %T", s, r.Parsed, parsed)
		return nil, errs
	}
	return parsed, nil
}

// decode map 解码到结构体，字段名取 json tag，时间接受 RFC3339 字符串
func decode(data map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			unixToTimeHook,
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}

// unixToTimeHook 整数按 unix 秒解析为时间
func unixToTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	}
	return data, nil
}

// decodeErrors 展开 mapstructure 的错误树
func decodeErrors(err error) model.ErrorList {
	var out model.ErrorList
	var walk func(err error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var de *mapstructure.DecodeError
		if errors.As(err, &de) {
			out.Add(de.Name(), "%s", decodeMessage(de.Unwrap()))
			return
		}
		out.Add("", "%v", err)
	}
	walk(err)
	return out
}

func decodeMessage(err error) string {
	var ute *mapstructure.UnconvertibleTypeError
	if errors.As(err, &ute) {
		return fmt.Sprintf("expected %s, got %s", kindName(ute.Expected.Type()), typeName(ute.Value))
	}
	var pe *mapstructure.ParseError
	if errors.As(err, &pe) {
		return fmt.Sprintf("expected %s, got %q", kindName(pe.Expected.Type()), fmt.Sprint(pe.Value))
	}
	if err == nil {
		return "invalid value"
	}
	return err.Error()
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == reflect.TypeOf(time.Time{}) {
		return "timestamp"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	}
	return t.Kind().String()
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return kindName(reflect.TypeOf(v))
}

// fieldPath 去掉结构体名前缀：RobotCreate.parts[0].instanceId -> parts[0].instanceId
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

// message 校验错误的可读描述
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "nonblank":
		return "must not be blank"
	case "slug":
		return "must be lowercase letters, digits and single dashes"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte", "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return fmt.Sprintf("failed rule '%s'", fe.Tag())
}
