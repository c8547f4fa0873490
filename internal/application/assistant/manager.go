package assistant

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"schema-assistant-api/internal/application/schema"
	"schema-assistant-api/internal/domain/entity"
	"schema-assistant-api/internal/domain/repository"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
	"schema-assistant-api/pkg/metrics"
)

// MsgUnsupportedDocumentType 文档类型不支持时的提示
const MsgUnsupportedDocumentType = "LLM Schema Assistant is currently only available for AVRO schemas"

// CredentialChecker 凭据存在性查询
type CredentialChecker interface {
	Has(ctx context.Context) bool
}

// ManagerConfig 会话管理配置
type ManagerConfig struct {
	Enabled       bool
	DocumentTypes []entity.DocumentType
	DefaultModel  string
	// Persist 为 true 时会话与记录写入仓储
	Persist bool
	Options Options
}

// Capability 助手可用性
type Capability struct {
	Enabled               bool   `json:"enabled"`
	DocumentTypeSupported bool   `json:"document_type_supported"`
	CredentialConfigured  bool   `json:"credential_configured"`
	Reason                string `json:"reason,omitempty"`
}

// Manager 会话管理器
type Manager struct {
	cfg         ManagerConfig
	provider    ChatProvider
	credentials CredentialChecker
	sessions    repository.ChatSessionRepository
	turns       repository.ChatTurnRepository
	editor      *EditorBinder
	events      EventPublisher
	tx          repository.Transactor

	mu          sync.RWMutex
	controllers map[string]*Controller
}

// NewManager 创建会话管理器；sessions/turns 仅在 cfg.Persist 时使用，可为 nil
func NewManager(
	cfg ManagerConfig,
	provider ChatProvider,
	credentials CredentialChecker,
	sessions repository.ChatSessionRepository,
	turns repository.ChatTurnRepository,
	editor *EditorBinder,
	events EventPublisher,
) *Manager {
	if len(cfg.DocumentTypes) == 0 {
		cfg.DocumentTypes = []entity.DocumentType{entity.DocumentTypeAvro}
	}
	if sessions == nil || turns == nil {
		cfg.Persist = false
	}
	if editor == nil {
		editor = NewEditorBinder(events)
	}
	return &Manager{
		cfg:         cfg,
		provider:    provider,
		credentials: credentials,
		sessions:    sessions,
		turns:       turns,
		editor:      editor,
		events:      events,
		controllers: make(map[string]*Controller),
	}
}

// UseTransactor 设置清除持久化记录时使用的事务管理器
func (m *Manager) UseTransactor(tx repository.Transactor) {
	m.tx = tx
}

// Editor 返回编辑器绑定层
func (m *Manager) Editor() *EditorBinder {
	return m.editor
}

// Capability 判断指定文档类型下助手是否可用：功能开启、类型受支持且已配置凭据
func (m *Manager) Capability(ctx context.Context, docType entity.DocumentType) Capability {
	c := Capability{
		DocumentTypeSupported: m.supports(docType),
		CredentialConfigured:  m.credentials.Has(ctx),
	}
	switch {
	case !m.cfg.Enabled:
		c.Reason = "LLM Schema Assistant is disabled"
	case !c.DocumentTypeSupported:
		c.Reason = MsgUnsupportedDocumentType
	case !c.CredentialConfigured:
		c.Reason = apperrors.ErrUnauthenticated.Message
	default:
		c.Enabled = true
	}
	return c
}

func (m *Manager) supports(docType entity.DocumentType) bool {
	for _, t := range m.cfg.DocumentTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// Create 创建会话；model 为空时使用默认模型
func (m *Manager) Create(ctx context.Context, sc entity.SchemaContext, model string) (*Controller, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = m.cfg.DefaultModel
	}

	session := entity.NewChatSession(sc.Subject, sc.DocumentType, model)
	if m.cfg.Persist {
		if err := m.sessions.Create(ctx, session); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create session")
		}
	}

	c, _ := m.register(session.ID, sc, model)
	logger.Info(logger.WithContext(ctx, logger.SessionIDKey, session.ID), "assistant session created",
		"subject", sc.Subject, "schema_type", sc.DocumentType, "model", model)
	return c, nil
}

// register 注册控制器；同 ID 已存在时返回已有实例且 created=false
func (m *Manager) register(id string, sc entity.SchemaContext, model string, history ...entity.ChatTurn) (*Controller, bool) {
	c := NewController(id, sc, model, m.provider, m.cfg.Options)
	c.Restore(history)
	if m.cfg.Persist {
		c.AddTurnObserver(&turnRecorder{turns: m.turns})
	}
	c.AddArtifactObserver(m.editor)

	m.mu.Lock()
	if existing, ok := m.controllers[id]; ok {
		m.mu.Unlock()
		return existing, false
	}
	m.controllers[id] = c
	m.mu.Unlock()

	m.editor.Open(id, sc)
	metrics.ActiveSessions.Inc()
	return c, true
}

// Get 获取会话；内存中不存在时尝试从仓储恢复
func (m *Manager) Get(ctx context.Context, id string) (*Controller, error) {
	m.mu.RLock()
	c, ok := m.controllers[id]
	m.mu.RUnlock()
	if ok {
		return c, nil
	}
	if !m.cfg.Persist {
		return nil, apperrors.ErrSessionNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrSessionNotFound
	}
	return m.restore(ctx, id)
}

func (m *Manager) restore(ctx context.Context, id string) (*Controller, error) {
	session, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load session")
	}
	if session == nil {
		return nil, apperrors.ErrSessionNotFound
	}

	var history []entity.ChatTurn
	pagination := repository.NewPagination(1, repository.MaxPageSize)
	for {
		page, err := m.turns.ListBySession(ctx, id, pagination)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load transcript")
		}
		for _, t := range page.Items {
			history = append(history, *t)
		}
		if pagination.Page >= page.TotalPages {
			break
		}
		pagination.Page++
	}

	// 上下文中的文档内容不持久化，恢复时以空文档开始，由宿主通过 UpdateContext 补齐
	sc := entity.SchemaContext{Subject: session.Subject, DocumentType: session.DocumentType}
	c, created := m.register(id, sc, session.Model, history...)
	if created {
		logger.Info(ctx, "assistant session restored", "session_id", id, "turns", len(history))
	}
	return c, nil
}

// replayArtifact 按顺序重放助手回复，得到最后一次提取出的候选方案
func replayArtifact(history []entity.ChatTurn) string {
	artifact := ""
	for _, t := range history {
		if t.Role != entity.RoleAssistant {
			continue
		}
		if p, ok := schema.ExtractProposal(t.Content); ok {
			artifact = p
		}
	}
	return artifact
}

// Send 在会话中发送消息；助手不可用时拒绝
func (m *Manager) Send(ctx context.Context, id, text string) (*SendResult, error) {
	c, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sc := c.Context()
	capability := m.Capability(ctx, sc.DocumentType)
	if !capability.Enabled {
		return nil, apperrors.ErrFeatureUnavailable.WithDetail(capability.Reason)
	}
	ctx = logger.WithContext(ctx, logger.SubjectKey, sc.Subject)
	return c.Send(ctx, text)
}

// UpdateContext 更新会话的编辑上下文；subject 变化时清空候选方案并重置工作文档
func (m *Manager) UpdateContext(ctx context.Context, id string, sc entity.SchemaContext) (bool, error) {
	c, err := m.Get(ctx, id)
	if err != nil {
		return false, err
	}
	prev := c.Context()
	cleared := c.UpdateContext(sc)
	if prev.Subject != sc.Subject {
		m.editor.Open(id, sc)
		if err := m.persistSession(ctx, c); err != nil {
			return cleared, err
		}
	}
	return cleared, nil
}

// SelectModel 切换会话模型
func (m *Manager) SelectModel(ctx context.Context, id, model string) error {
	if strings.TrimSpace(model) == "" {
		return ErrNoModel
	}
	c, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	c.SelectModel(model)
	return m.persistSession(ctx, c)
}

func (m *Manager) persistSession(ctx context.Context, c *Controller) error {
	if !m.cfg.Persist {
		return nil
	}
	session, err := m.sessions.GetByID(ctx, c.ID())
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load session")
	}
	if session == nil {
		return nil
	}
	sc := c.Context()
	session.Subject = sc.Subject
	session.DocumentType = sc.DocumentType
	session.Model = c.Model()
	if err := m.sessions.Update(ctx, session); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update session")
	}
	return nil
}

// ApplyArtifact 将会话当前候选方案复制到工作文档
func (m *Manager) ApplyArtifact(ctx context.Context, id string) (entity.EditorDraft, error) {
	c, err := m.Get(ctx, id)
	if err != nil {
		return entity.EditorDraft{}, err
	}
	artifact := c.Artifact()
	if artifact == "" {
		return entity.EditorDraft{}, apperrors.ErrArtifactNotFound
	}
	return m.editor.CopyToEditor(ctx, id, artifact)
}

// ValidateArtifact 校验会话当前候选方案
func (m *Manager) ValidateArtifact(ctx context.Context, id string) (entity.ValidationResult, error) {
	c, err := m.Get(ctx, id)
	if err != nil {
		return entity.ValidationResult{}, err
	}
	artifact := c.Artifact()
	if artifact == "" {
		return entity.ValidationResult{}, apperrors.ErrArtifactNotFound
	}
	return schema.ValidateAvro(artifact), nil
}

// Close 关闭并移除会话，已持久化的记录保留
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	c, ok := m.controllers[id]
	if ok {
		delete(m.controllers, id)
	}
	m.mu.Unlock()
	if !ok {
		return apperrors.ErrSessionNotFound
	}

	c.Close()
	m.editor.Remove(id)
	metrics.ActiveSessions.Dec()

	if m.events != nil {
		if err := m.events.PublishEvent(ctx, Event{Type: EventSessionClosed, SessionID: id, Subject: c.Context().Subject}); err != nil {
			logger.Warn(ctx, "failed to publish assistant event", "type", EventSessionClosed, "error", err.Error())
		}
	}
	return nil
}

// Purge 关闭会话并删除已持久化的会话与记录
func (m *Manager) Purge(ctx context.Context, id string) error {
	closeErr := m.Close(ctx, id)
	if !m.cfg.Persist {
		return closeErr
	}
	if closeErr != nil && !errors.Is(closeErr, apperrors.ErrSessionNotFound) {
		return closeErr
	}

	session, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load session")
	}
	if session == nil {
		return apperrors.ErrSessionNotFound
	}

	purge := func(ctx context.Context) error {
		if err := m.turns.DeleteBySession(ctx, id); err != nil {
			return err
		}
		return m.sessions.Delete(ctx, id)
	}
	if m.tx != nil {
		err = m.tx.WithTransaction(ctx, purge)
	} else {
		err = purge(ctx)
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to purge session")
	}
	logger.Info(ctx, "assistant session purged", "session_id", id)
	return nil
}

// History 分页查询某个 subject 下已持久化的会话
func (m *Manager) History(ctx context.Context, subject string, pagination repository.Pagination) (*repository.PagedResult[*entity.ChatSession], error) {
	if !m.cfg.Persist {
		return repository.NewPagedResult([]*entity.ChatSession{}, 0, pagination), nil
	}
	page, err := m.sessions.ListBySubject(ctx, subject, pagination)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list sessions")
	}
	return page, nil
}

// List 返回当前打开的会话快照，按 ID 排序
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	out := make([]Snapshot, 0, len(m.controllers))
	for _, c := range m.controllers {
		out = append(out, c.Snapshot())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shutdown 关闭所有会话
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.controllers))
	for id := range m.controllers {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.Close(ctx, id)
	}
}

// turnRecorder 将追加的记录写入仓储
type turnRecorder struct {
	turns repository.ChatTurnRepository
}

func (r *turnRecorder) OnTurnAppended(ctx context.Context, turn entity.ChatTurn) {
	t := turn
	if err := r.turns.Create(ctx, &t); err != nil {
		logger.Error(ctx, "failed to persist chat turn", err, "turn_id", turn.ID, "role", string(turn.Role))
	}
}
