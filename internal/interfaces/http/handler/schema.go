package handler

import (
	"github.com/gin-gonic/gin"

	"schema-assistant-api/internal/application/schema"
	"schema-assistant-api/internal/domain/entity"
	"schema-assistant-api/internal/interfaces/http/dto"
)

// SchemaHandler schema 校验处理器
type SchemaHandler struct{}

// NewSchemaHandler 创建 schema 校验处理器
func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{}
}

// Validate 校验任意 AVRO 文本；校验失败同样返回 200，strict=true 时返回 422
// @Summary 校验 AVRO schema
// @Tags Schemas
// @Accept json
// @Produce json
// @Param strict query bool false "校验失败时返回错误状态码"
// @Param body body dto.ValidateSchemaRequest true "schema 文本"
// @Success 200 {object} dto.Response[entity.ValidationResult]
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/schemas/validate [post]
func (h *SchemaHandler) Validate(c *gin.Context) {
	var req dto.ValidateSchemaRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if dto.QueryBool(c, "strict") {
		if err := schema.CheckAvro(req.Schema); err != nil {
			handleError(c, err, "schema validation failed")
			return
		}
		dto.Success(c, entity.ValidationResult{Valid: true})
		return
	}
	dto.Success(c, schema.ValidateAvro(req.Schema))
}
