// Package schema 提供助手方案的提取与结构校验
package schema

import (
	"encoding/json"

	"schema-assistant-api/internal/domain/entity"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/metrics"
)

// 校验失败信息
const (
	MsgNotObject      = "Schema must be a valid JSON object"
	MsgMissingType    = `Schema must have a "type" field`
	MsgMissingName    = `Record schema must have a "name" field`
	MsgMissingFields  = `Record schema must have a "fields" array`
	validationTypeKey = "avro"
)

// ValidateAvro 对候选文档做浅层 AVRO 约定检查
// 只检查顶层 type/name/fields，不递归校验字段类型；纯函数，结果只由输入决定
func ValidateAvro(text string) entity.ValidationResult {
	result := validateAvro(text)
	status := "valid"
	if !result.Valid {
		status = "invalid"
	}
	metrics.ValidationTotal.WithLabelValues(validationTypeKey, status).Inc()
	return result
}

// CheckAvro 与 ValidateAvro 规则相同，失败时返回应用错误
// JSON 解析失败为 CodeParseError，结构不符合约定为 CodeStructuralError
func CheckAvro(text string) error {
	result := ValidateAvro(text)
	if result.Valid {
		return nil
	}
	if !json.Valid([]byte(text)) {
		return apperrors.New(apperrors.CodeParseError, result.Error)
	}
	return apperrors.New(apperrors.CodeStructuralError, result.Error)
}

func validateAvro(text string) entity.ValidationResult {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return invalid(err.Error())
	}

	var doc map[string]any
	switch v := parsed.(type) {
	case map[string]any:
		doc = v
	case []any:
		// 数组按对象处理，但不可能携带 type 字段
		return invalid(MsgMissingType)
	default:
		return invalid(MsgNotObject)
	}

	typ, ok := doc["type"]
	if !ok || !truthy(typ) {
		return invalid(MsgMissingType)
	}

	if s, isString := typ.(string); isString && s == "record" {
		if !truthy(doc["name"]) {
			return invalid(MsgMissingName)
		}
		if _, isArray := doc["fields"].([]any); !isArray {
			return invalid(MsgMissingFields)
		}
	}

	return entity.ValidationResult{Valid: true}
}

func invalid(msg string) entity.ValidationResult {
	return entity.ValidationResult{Valid: false, Error: msg}
}

// truthy 判断 JSON 值是否为真值：null、false、0 与空字符串视为假
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
