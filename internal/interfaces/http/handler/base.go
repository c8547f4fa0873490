package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"schema-assistant-api/internal/domain/entity"
	"schema-assistant-api/internal/interfaces/http/dto"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
)

// handleError 将错误转换为统一的错误响应；非应用错误记日志并返回 500
func handleError(c *gin.Context, err error, msg string) {
	if apperrors.IsAppError(err) {
		appErr := apperrors.AsAppError(err)
		if appErr.HTTPStatus >= 500 {
			logger.Error(c.Request.Context(), msg, err)
		}
		dto.FromAppError(c, appErr)
		return
	}
	logger.Error(c.Request.Context(), msg, err)
	dto.InternalError(c, msg)
}

// bindJSON 绑定请求体；允许空请求体时传 allowEmpty
func bindJSON(c *gin.Context, req any, allowEmpty bool) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// parseDocumentType 解析 schema_type，失败时写入 400 响应
func parseDocumentType(c *gin.Context, raw string) (entity.DocumentType, bool) {
	docType, ok := entity.ParseDocumentType(raw)
	if !ok {
		dto.BadRequest(c, "unsupported schema_type: "+raw)
		return "", false
	}
	return docType, true
}
