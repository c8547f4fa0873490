package entity

import (
	"strings"
	"time"
)

// DocumentType 注册中心支持的 schema 类型
type DocumentType string

const (
	DocumentTypeAvro     DocumentType = "AVRO"
	DocumentTypeJSON     DocumentType = "JSON"
	DocumentTypeProtobuf DocumentType = "PROTOBUF"
)

// ParseDocumentType 解析文档类型（大小写不敏感）
func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(strings.ToUpper(strings.TrimSpace(s))) {
	case DocumentTypeAvro:
		return DocumentTypeAvro, true
	case DocumentTypeJSON:
		return DocumentTypeJSON, true
	case DocumentTypeProtobuf:
		return DocumentTypeProtobuf, true
	default:
		return "", false
	}
}

// SchemaContext 会话所见的编辑上下文快照
type SchemaContext struct {
	Subject         string       `json:"subject"`
	CurrentDocument string       `json:"schema"`
	DocumentType    DocumentType `json:"schema_type"`
}

// ValidationResult schema 校验结果
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// EditorDraft 宿主表单中的工作文档
type EditorDraft struct {
	SessionID    string       `json:"session_id"`
	Subject      string       `json:"subject"`
	DocumentType DocumentType `json:"schema_type"`
	Document     string       `json:"schema"`
	Dirty        bool         `json:"dirty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
