package handler

import (
	"github.com/gin-gonic/gin"

	"schema-assistant-api/internal/application/catalog"
	"schema-assistant-api/internal/domain/entity"
	"schema-assistant-api/internal/interfaces/http/dto"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
)

// ModelHandler 模型目录处理器
type ModelHandler struct {
	catalog *catalog.Service
}

// NewModelHandler 创建模型目录处理器
func NewModelHandler(catalogSvc *catalog.Service) *ModelHandler {
	return &ModelHandler{catalog: catalogSvc}
}

// ListModels 获取模型目录、下拉选项与校正后的当前选择
// 上游失败时以 200 返回并在 error 字段携带原因；未配置凭据返回 401
// @Summary 获取模型目录
// @Tags Models
// @Produce json
// @Param selected query string false "当前选择的模型 ID"
// @Param refresh query bool false "跳过缓存"
// @Success 200 {object} dto.Response[dto.ModelListResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/models [get]
func (h *ModelHandler) ListModels(c *gin.Context) {
	ctx := c.Request.Context()
	current := c.Query("selected")

	listing, err := h.catalog.Select(ctx, current, dto.QueryBool(c, "refresh"))
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			handleError(c, err, "failed to load models")
			return
		}
		logger.Warn(ctx, "failed to load models", "error", err.Error())
		dto.Success(c, &dto.ModelListResponse{
			Models:   []entity.ModelDescriptor{},
			Options:  []entity.ModelOption{},
			Selected: current,
			Error:    errorText(err),
		})
		return
	}

	dto.Success(c, &dto.ModelListResponse{
		Models:   listing.Models,
		Options:  listing.Options,
		Selected: listing.Selected,
		Changed:  listing.Changed,
	})
}

// errorText 取出展示给用户的错误信息
func errorText(err error) string {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err).Message
	}
	return "Failed to load models"
}
