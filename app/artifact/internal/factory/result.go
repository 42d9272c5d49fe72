package factory

import (
	"fmt"

	"github.com/lk2023060901/xdooria-artifact/app/artifact/internal/model"
)

// ValidationResult 领域规则校验结果
type ValidationResult struct {
	IsValid bool            `json:"isValid"`
	Errors  model.ErrorList `json:"errors"`
}

// Err 校验失败时返回 *model.ValidationError
func (r ValidationResult) Err(entity string) error {
	if r.IsValid {
		return nil
	}
	return &model.ValidationError{Entity: entity, Errors: r.Errors}
}

func resultOf(errs model.ErrorList) ValidationResult {
	return ValidationResult{IsValid: errs.Empty(), Errors: errs}
}

// Failure 批量构造中单个配置的失败
type Failure struct {
	Index  int
	Name   string
	Config map[string]any
	Err    error
}

// BatchResult 批量构造结果，Artifacts 保持输入顺序
type BatchResult[T any] struct {
	Artifacts []T
	Failures  []Failure
}

// PipelineResult 校验后转换的结果，校验失败时 DTO 为 nil
type PipelineResult[D any] struct {
	DTO        *D
	Validation ValidationResult
}

// configName 配置中的名称，缺失时使用下标
func configName(cfg map[string]any, index int) string {
	if name, ok := cfg["name"].(string); ok && name != "" {
		return name
	}
	return fmt.Sprintf("config[%d]", index)
}

// constructionFromErrors schema 错误转换为构造错误
func constructionFromErrors(entity string, errs model.ErrorList) *model.ConstructionError {
	return model.NewConstructionError(entity, "invalid config: %s", errs.Error())
}
