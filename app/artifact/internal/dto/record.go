package dto

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/store"
)

// decodeRecord 按 db tag 把存储记录解码到 DTO
func decodeRecord(rec store.Record, out any) error {
	if rec == nil {
		return errors.New("nil record")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "db",
		Result:  out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := dec.Decode(map[string]any(rec)); err != nil {
		return errors.Wrapf(err, "failed to decode %T", out)
	}
	return nil
}

// optString 空字符串转换为 nil
func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString nil 转换为空字符串
func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// copyInt 复制指针指向的值，避免共享
func copyInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
