package handler

import (
	"github.com/gin-gonic/gin"

	"schema-assistant-api/internal/application/assistant"
	"schema-assistant-api/internal/domain/entity"
	"schema-assistant-api/internal/interfaces/http/dto"
	apperrors "schema-assistant-api/pkg/errors"
)

// AssistantHandler 对话助手处理器
type AssistantHandler struct {
	manager *assistant.Manager
}

// NewAssistantHandler 创建对话助手处理器
func NewAssistantHandler(manager *assistant.Manager) *AssistantHandler {
	return &AssistantHandler{manager: manager}
}

// Capability 查询指定文档类型下助手是否可用
// @Summary 助手可用性
// @Tags Assistant
// @Produce json
// @Param document_type query string true "AVRO / JSON / PROTOBUF"
// @Success 200 {object} dto.Response[assistant.Capability]
// @Router /v1/capability [get]
func (h *AssistantHandler) Capability(c *gin.Context) {
	docType, ok := parseDocumentType(c, c.Query("document_type"))
	if !ok {
		return
	}
	dto.Success(c, h.manager.Capability(c.Request.Context(), docType))
}

// CreateSession 为一个 subject 打开助手会话
// @Summary 创建会话
// @Tags Assistant
// @Accept json
// @Produce json
// @Param body body dto.CreateSessionRequest true "编辑上下文"
// @Success 201 {object} dto.Response[dto.SessionResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/sessions [post]
func (h *AssistantHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !bindJSON(c, &req, false) {
		return
	}
	docType, ok := parseDocumentType(c, req.SchemaType)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sc := entity.SchemaContext{Subject: req.Subject, CurrentDocument: req.Schema, DocumentType: docType}
	ctrl, err := h.manager.Create(ctx, sc, req.Model)
	if err != nil {
		handleError(c, err, "failed to create session")
		return
	}
	dto.Created(c, dto.ToSessionResponse(ctrl.Snapshot(), h.manager.Capability(ctx, docType)))
}

// ListSessions 列出打开的会话；指定 subject 时返回该 subject 已持久化的会话
// @Summary 会话列表
// @Tags Assistant
// @Produce json
// @Param subject query string false "subject"
// @Router /v1/sessions [get]
func (h *AssistantHandler) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	subject := c.Query("subject")
	if subject == "" {
		snapshots := h.manager.List()
		out := make([]*dto.SessionResponse, 0, len(snapshots))
		for _, s := range snapshots {
			out = append(out, dto.ToSessionResponse(s, h.manager.Capability(ctx, s.Context.DocumentType)))
		}
		dto.Success(c, out)
		return
	}

	page := dto.BindPage(c)
	result, err := h.manager.History(ctx, subject, page.Pagination())
	if err != nil {
		handleError(c, err, "failed to list sessions")
		return
	}
	dto.SuccessWithPage(c, dto.ToSessionSummaries(result.Items), dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// GetSession 获取会话详情
// @Summary 会话详情
// @Tags Assistant
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid} [get]
func (h *AssistantHandler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()
	ctrl, err := h.manager.Get(ctx, dto.BindSessionID(c))
	if err != nil {
		handleError(c, err, "failed to get session")
		return
	}
	snapshot := ctrl.Snapshot()
	dto.Success(c, dto.ToSessionResponse(snapshot, h.manager.Capability(ctx, snapshot.Context.DocumentType)))
}

// UpdateContext 替换会话的编辑上下文
// @Summary 更新编辑上下文
// @Tags Assistant
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.UpdateContextRequest true "编辑上下文"
// @Success 200 {object} dto.Response[dto.UpdateContextResponse]
// @Router /v1/sessions/{sid}/context [put]
func (h *AssistantHandler) UpdateContext(c *gin.Context) {
	var req dto.UpdateContextRequest
	if !bindJSON(c, &req, false) {
		return
	}
	docType, ok := parseDocumentType(c, req.SchemaType)
	if !ok {
		return
	}

	sc := entity.SchemaContext{Subject: req.Subject, CurrentDocument: req.Schema, DocumentType: docType}
	cleared, err := h.manager.UpdateContext(c.Request.Context(), dto.BindSessionID(c), sc)
	if err != nil {
		handleError(c, err, "failed to update context")
		return
	}
	dto.Success(c, &dto.UpdateContextResponse{ArtifactCleared: cleared})
}

// SelectModel 切换会话使用的模型
// @Summary 切换模型
// @Tags Assistant
// @Accept json
// @Param sid path string true "会话 ID"
// @Param body body dto.SelectModelRequest true "模型"
// @Success 204
// @Router /v1/sessions/{sid}/model [put]
func (h *AssistantHandler) SelectModel(c *gin.Context) {
	var req dto.SelectModelRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if err := h.manager.SelectModel(c.Request.Context(), dto.BindSessionID(c), req.Model); err != nil {
		handleError(c, err, "failed to select model")
		return
	}
	dto.NoContent(c)
}

// ListTurns 获取会话记录
// @Summary 会话记录
// @Tags Assistant
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.TurnListResponse]
// @Router /v1/sessions/{sid}/turns [get]
func (h *AssistantHandler) ListTurns(c *gin.Context) {
	ctrl, err := h.manager.Get(c.Request.Context(), dto.BindSessionID(c))
	if err != nil {
		handleError(c, err, "failed to list turns")
		return
	}
	dto.Success(c, &dto.TurnListResponse{Turns: ctrl.Transcript()})
}

// SendMessage 发送一条用户消息
// 上游失败时仍返回 200，错误以 "Error: ..." 助手消息出现在 turns 中
// @Summary 发送消息
// @Tags Assistant
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.SendMessageRequest true "消息"
// @Success 200 {object} dto.Response[dto.SendMessageResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/messages [post]
func (h *AssistantHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if !bindJSON(c, &req, false) {
		return
	}
	result, err := h.manager.Send(c.Request.Context(), dto.BindSessionID(c), req.Content)
	if err != nil {
		handleError(c, err, "failed to send message")
		return
	}
	dto.Success(c, dto.ToSendMessageResponse(result))
}

// CloseSession 关闭会话；purge=true 时同时删除已持久化的记录
// @Summary 关闭会话
// @Tags Assistant
// @Param sid path string true "会话 ID"
// @Param purge query bool false "删除持久化记录"
// @Success 204
// @Router /v1/sessions/{sid} [delete]
func (h *AssistantHandler) CloseSession(c *gin.Context) {
	ctx := c.Request.Context()
	id := dto.BindSessionID(c)

	var err error
	if dto.QueryBool(c, "purge") {
		err = h.manager.Purge(ctx, id)
	} else {
		err = h.manager.Close(ctx, id)
	}
	if err != nil {
		handleError(c, err, "failed to close session")
		return
	}
	dto.NoContent(c)
}

// GetArtifact 获取当前候选方案
// @Summary 候选方案
// @Tags Assistant
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.ArtifactResponse]
// @Router /v1/sessions/{sid}/artifact [get]
func (h *AssistantHandler) GetArtifact(c *gin.Context) {
	ctrl, err := h.manager.Get(c.Request.Context(), dto.BindSessionID(c))
	if err != nil {
		handleError(c, err, "failed to get artifact")
		return
	}
	artifact := ctrl.Artifact()
	dto.Success(c, &dto.ArtifactResponse{Artifact: artifact, Present: artifact != ""})
}

// ValidateArtifact 校验当前候选方案
// @Summary 校验候选方案
// @Tags Assistant
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[entity.ValidationResult]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/artifact/validate [post]
func (h *AssistantHandler) ValidateArtifact(c *gin.Context) {
	result, err := h.manager.ValidateArtifact(c.Request.Context(), dto.BindSessionID(c))
	if err != nil {
		handleError(c, err, "failed to validate artifact")
		return
	}
	dto.Success(c, result)
}

// ApplyArtifact 将候选方案复制到工作文档
// @Summary 复制到编辑器
// @Tags Assistant
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[entity.EditorDraft]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/artifact/apply [post]
func (h *AssistantHandler) ApplyArtifact(c *gin.Context) {
	draft, err := h.manager.ApplyArtifact(c.Request.Context(), dto.BindSessionID(c))
	if err != nil {
		handleError(c, err, "failed to apply artifact")
		return
	}
	dto.Success(c, draft)
}

// GetDraft 获取工作文档
// @Summary 工作文档
// @Tags Assistant
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[entity.EditorDraft]
// @Router /v1/sessions/{sid}/draft [get]
func (h *AssistantHandler) GetDraft(c *gin.Context) {
	id := dto.BindSessionID(c)
	if _, err := h.manager.Get(c.Request.Context(), id); err != nil {
		handleError(c, err, "failed to get draft")
		return
	}
	draft, ok := h.manager.Editor().Draft(id)
	if !ok {
		handleError(c, apperrors.ErrSessionNotFound, "failed to get draft")
		return
	}
	dto.Success(c, draft)
}

// UpdateDraft 宿主编辑工作文档
// @Summary 编辑工作文档
// @Tags Assistant
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.UpdateDraftRequest true "文档"
// @Success 200 {object} dto.Response[entity.EditorDraft]
// @Router /v1/sessions/{sid}/draft [put]
func (h *AssistantHandler) UpdateDraft(c *gin.Context) {
	var req dto.UpdateDraftRequest
	if !bindJSON(c, &req, false) {
		return
	}
	id := dto.BindSessionID(c)
	if _, err := h.manager.Get(c.Request.Context(), id); err != nil {
		handleError(c, err, "failed to update draft")
		return
	}
	draft, err := h.manager.Editor().SetDocument(c.Request.Context(), id, req.Document)
	if err != nil {
		handleError(c, err, "failed to update draft")
		return
	}
	dto.Success(c, draft)
}
