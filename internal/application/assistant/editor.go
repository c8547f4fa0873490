package assistant

import (
	"context"
	"sync"
	"time"

	"schema-assistant-api/internal/domain/entity"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
)

// EditorBinder 宿主编辑表单的绑定层
// 保存每个会话对应的工作文档，接收候选方案通知，并在"复制到编辑器"时覆盖工作文档
type EditorBinder struct {
	events EventPublisher

	mu        sync.RWMutex
	drafts    map[string]*entity.EditorDraft
	proposals map[string]string
}

// NewEditorBinder 创建编辑器绑定层；events 可为 nil
func NewEditorBinder(events EventPublisher) *EditorBinder {
	return &EditorBinder{
		events:    events,
		drafts:    make(map[string]*entity.EditorDraft),
		proposals: make(map[string]string),
	}
}

// Open 以编辑上下文初始化工作文档
func (b *EditorBinder) Open(sessionID string, sc entity.SchemaContext) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drafts[sessionID] = &entity.EditorDraft{
		SessionID:    sessionID,
		Subject:      sc.Subject,
		DocumentType: sc.DocumentType,
		Document:     sc.CurrentDocument,
		UpdatedAt:    time.Now(),
	}
	delete(b.proposals, sessionID)
}

// Remove 移除会话的工作文档
func (b *EditorBinder) Remove(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.drafts, sessionID)
	delete(b.proposals, sessionID)
}

// Draft 返回工作文档副本
func (b *EditorBinder) Draft(sessionID string) (entity.EditorDraft, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.drafts[sessionID]
	if !ok {
		return entity.EditorDraft{}, false
	}
	return *d, true
}

// LatestProposal 返回最近一次通知的候选方案
func (b *EditorBinder) LatestProposal(sessionID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.proposals[sessionID]
	return p, ok
}

// SetDocument 宿主表单编辑工作文档
func (b *EditorBinder) SetDocument(ctx context.Context, sessionID, document string) (entity.EditorDraft, error) {
	return b.overwrite(ctx, sessionID, document, "host")
}

// CopyToEditor 用候选方案覆盖工作文档并标记为已修改
func (b *EditorBinder) CopyToEditor(ctx context.Context, sessionID, artifact string) (entity.EditorDraft, error) {
	return b.overwrite(ctx, sessionID, artifact, "assistant")
}

// OnArtifactProposed 实现 ArtifactObserver
func (b *EditorBinder) OnArtifactProposed(ctx context.Context, sessionID, artifact string) {
	b.mu.Lock()
	subject := ""
	if d, ok := b.drafts[sessionID]; ok {
		subject = d.Subject
	}
	b.proposals[sessionID] = artifact
	b.mu.Unlock()

	b.publish(ctx, Event{
		Type:      EventArtifactProposed,
		SessionID: sessionID,
		Subject:   subject,
		Payload:   map[string]any{"artifact": artifact},
	})
}

func (b *EditorBinder) overwrite(ctx context.Context, sessionID, document, source string) (entity.EditorDraft, error) {
	b.mu.Lock()
	d, ok := b.drafts[sessionID]
	if !ok {
		b.mu.Unlock()
		return entity.EditorDraft{}, apperrors.ErrSessionNotFound
	}
	d.Document = document
	d.Dirty = true
	d.UpdatedAt = time.Now()
	out := *d
	b.mu.Unlock()

	b.publish(ctx, Event{
		Type:      EventDraftUpdated,
		SessionID: sessionID,
		Subject:   out.Subject,
		Payload:   map[string]any{"source": source, "schema": out.Document},
	})
	return out, nil
}

func (b *EditorBinder) publish(ctx context.Context, event Event) {
	if b.events == nil {
		return
	}
	if err := b.events.PublishEvent(ctx, event); err != nil {
		logger.Warn(ctx, "failed to publish assistant event", "type", event.Type, "error", err.Error())
	}
}
