// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"schema-assistant-api/internal/application/catalog"
	"schema-assistant-api/internal/application/credential"
	"schema-assistant-api/internal/interfaces/http/dto"
)

// ModelResetter 凭据变化后丢弃已缓存的模型实例
type ModelResetter interface {
	Reset()
}

// CredentialHandler 凭据管理处理器
type CredentialHandler struct {
	svc     *credential.Service
	catalog *catalog.Service
	models  ModelResetter
	backend string
}

// NewCredentialHandler 创建凭据管理处理器，models 可为 nil
func NewCredentialHandler(svc *credential.Service, catalogSvc *catalog.Service, models ModelResetter, backend string) *CredentialHandler {
	return &CredentialHandler{svc: svc, catalog: catalogSvc, models: models, backend: backend}
}

// GetCredential 查询凭据是否已配置
// @Summary 查询凭据状态
// @Tags Credential
// @Produce json
// @Success 200 {object} dto.Response[dto.CredentialStatusResponse]
// @Router /v1/credential [get]
func (h *CredentialHandler) GetCredential(c *gin.Context) {
	dto.Success(c, &dto.CredentialStatusResponse{
		Configured: h.svc.Has(c.Request.Context()),
		Backend:    h.backend,
	})
}

// PutCredential 保存凭据
// @Summary 保存凭据
// @Tags Credential
// @Accept json
// @Param body body dto.SetCredentialRequest true "凭据"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/credential [put]
func (h *CredentialHandler) PutCredential(c *gin.Context) {
	var req dto.SetCredentialRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		dto.BadRequest(c, "api_key must not be blank")
		return
	}

	ctx := c.Request.Context()
	if err := h.svc.Set(ctx, req.APIKey); err != nil {
		handleError(c, err, "failed to save credential")
		return
	}
	h.catalog.Invalidate(ctx)
	dto.NoContent(c)
}

// DeleteCredential 清除凭据
// @Summary 清除凭据
// @Tags Credential
// @Success 204
// @Router /v1/credential [delete]
func (h *CredentialHandler) DeleteCredential(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.svc.Clear(ctx); err != nil {
		handleError(c, err, "failed to clear credential")
		return
	}
	h.catalog.Invalidate(ctx)
	if h.models != nil {
		h.models.Reset()
	}
	dto.NoContent(c)
}
