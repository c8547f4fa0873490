package assistant

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-assistant-api/internal/domain/entity"
	"schema-assistant-api/internal/domain/repository"
	apperrors "schema-assistant-api/pkg/errors"
)

type staticCredentials bool

func (s staticCredentials) Has(context.Context) bool { return bool(s) }

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]entity.ChatSession
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[string]entity.ChatSession)}
}

func (r *memorySessionRepo) Create(_ context.Context, s *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *memorySessionRepo) GetByID(_ context.Context, id string) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memorySessionRepo) Update(_ context.Context, s *entity.ChatSession) error {
	return r.Create(context.Background(), s)
}

func (r *memorySessionRepo) ListBySubject(_ context.Context, subject string, p repository.Pagination) (*repository.PagedResult[*entity.ChatSession], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.ChatSession
	for _, s := range r.sessions {
		if s.Subject == subject {
			cp := s
			items = append(items, &cp)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memorySessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type memoryTurnRepo struct {
	mu    sync.Mutex
	turns []entity.ChatTurn
}

func (r *memoryTurnRepo) Create(_ context.Context, t *entity.ChatTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, *t)
	return nil
}

func (r *memoryTurnRepo) ListBySession(_ context.Context, sessionID string, p repository.Pagination) (*repository.PagedResult[*entity.ChatTurn], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*entity.ChatTurn
	for i := range r.turns {
		if r.turns[i].SessionID == sessionID {
			cp := r.turns[i]
			all = append(all, &cp)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit()
	if end > len(all) {
		end = len(all)
	}
	return repository.NewPagedResult(all[start:end], int64(len(all)), p), nil
}

func (r *memoryTurnRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.turns[:0]
	for _, t := range r.turns {
		if t.SessionID != sessionID {
			kept = append(kept, t)
		}
	}
	r.turns = kept
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func managerConfig() ManagerConfig {
	return ManagerConfig{
		Enabled:       true,
		DocumentTypes: []entity.DocumentType{entity.DocumentTypeAvro},
		DefaultModel:  "anthropic/claude-sonnet-4.5-20250929",
		Options:       DefaultOptions(),
	}
}

func TestManager_Capability(t *testing.T) {
	ctx := context.Background()

	m := NewManager(managerConfig(), &fakeProvider{}, staticCredentials(true), nil, nil, nil, nil)
	assert.True(t, m.Capability(ctx, entity.DocumentTypeAvro).Enabled)

	jsonCap := m.Capability(ctx, entity.DocumentTypeJSON)
	assert.False(t, jsonCap.Enabled)
	assert.False(t, jsonCap.DocumentTypeSupported)
	assert.Equal(t, MsgUnsupportedDocumentType, jsonCap.Reason)

	noCred := NewManager(managerConfig(), &fakeProvider{}, staticCredentials(false), nil, nil, nil, nil)
	c := noCred.Capability(ctx, entity.DocumentTypeAvro)
	assert.False(t, c.Enabled)
	assert.True(t, c.DocumentTypeSupported)
	assert.False(t, c.CredentialConfigured)

	cfg := managerConfig()
	cfg.Enabled = false
	off := NewManager(cfg, &fakeProvider{}, staticCredentials(true), nil, nil, nil, nil)
	assert.False(t, off.Capability(ctx, entity.DocumentTypeAvro).Enabled)
}

func TestManager_CreateUsesDefaultModel(t *testing.T) {
	m := NewManager(managerConfig(), &fakeProvider{}, staticCredentials(true), nil, nil, nil, nil)
	c, err := m.Create(context.Background(), avroContext(), "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-sonnet-4.5-20250929", c.Model())

	draft, ok := m.Editor().Draft(c.ID())
	require.True(t, ok)
	assert.Equal(t, avroContext().CurrentDocument, draft.Document)
	assert.False(t, draft.Dirty)
}

func TestManager_SendRefusedWhenCapabilityOff(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{replies: []string{"hi"}}
	m := NewManager(managerConfig(), p, staticCredentials(true), nil, nil, nil, nil)

	sc := avroContext()
	sc.DocumentType = entity.DocumentTypeProtobuf
	c, err := m.Create(ctx, sc, "openai/gpt-4o")
	require.NoError(t, err)

	_, err = m.Send(ctx, c.ID(), "hello")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeFeatureUnavailable))
	assert.Equal(t, MsgUnsupportedDocumentType, apperrors.AsAppError(err).Detail)
	assert.Empty(t, p.requests)
}

func TestManager_ProposeValidateApply(t *testing.T) {
	ctx := context.Background()
	proposal := `{"type":"record","name":"Order","fields":[{"name":"id","type":"string"}]}`
	p := &fakeProvider{replies: []string{"```json\n" + proposal + "\n```"}}
	events := &recordingPublisher{}
	m := NewManager(managerConfig(), p, staticCredentials(true), nil, nil, NewEditorBinder(events), events)

	c, err := m.Create(ctx, avroContext(), "openai/gpt-4o")
	require.NoError(t, err)

	_, err = m.ApplyArtifact(ctx, c.ID())
	assert.ErrorIs(t, err, apperrors.ErrArtifactNotFound)

	res, err := m.Send(ctx, c.ID(), "add id")
	require.NoError(t, err)
	require.True(t, res.ArtifactChanged)

	latest, ok := m.Editor().LatestProposal(c.ID())
	require.True(t, ok)
	assert.Equal(t, proposal, latest)

	result, err := m.ValidateArtifact(ctx, c.ID())
	require.NoError(t, err)
	assert.True(t, result.Valid)

	draft, err := m.ApplyArtifact(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, proposal, draft.Document)
	assert.True(t, draft.Dirty)

	// 复制到编辑器后再读取，内容与校验结果一致
	reread, ok := m.Editor().Draft(c.ID())
	require.True(t, ok)
	assert.Equal(t, proposal, reread.Document)

	assert.Equal(t, []string{EventArtifactProposed, EventDraftUpdated}, events.types())
}

func TestManager_UpdateContextResetsDraftOnSubjectChange(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{replies: []string{"```json\n{\"type\":\"string\"}\n```"}}
	m := NewManager(managerConfig(), p, staticCredentials(true), nil, nil, nil, nil)
	c, err := m.Create(ctx, avroContext(), "m")
	require.NoError(t, err)
	_, err = m.Send(ctx, c.ID(), "go")
	require.NoError(t, err)
	_, err = m.ApplyArtifact(ctx, c.ID())
	require.NoError(t, err)

	next := entity.SchemaContext{Subject: "payments-value", CurrentDocument: `{"type":"int"}`, DocumentType: entity.DocumentTypeAvro}
	cleared, err := m.UpdateContext(ctx, c.ID(), next)
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Empty(t, c.Artifact())

	draft, _ := m.Editor().Draft(c.ID())
	assert.Equal(t, `{"type":"int"}`, draft.Document)
	assert.False(t, draft.Dirty)
}

func TestManager_PersistAndRestore(t *testing.T) {
	ctx := context.Background()
	sessions := newMemorySessionRepo()
	turns := &memoryTurnRepo{}
	cfg := managerConfig()
	cfg.Persist = true

	p := &fakeProvider{replies: []string{"```json\n{\"type\":\"long\"}\n```"}}
	m := NewManager(cfg, p, staticCredentials(true), sessions, turns, nil, nil)
	c, err := m.Create(ctx, avroContext(), "openai/gpt-4o")
	require.NoError(t, err)
	_, err = m.Send(ctx, c.ID(), "make it long")
	require.NoError(t, err)
	require.NoError(t, m.SelectModel(ctx, c.ID(), "openai/gpt-4o-mini"))

	assert.Len(t, turns.turns, 2)
	stored, _ := sessions.GetByID(ctx, c.ID())
	require.NotNil(t, stored)
	assert.Equal(t, "openai/gpt-4o-mini", stored.Model)

	// 新的管理器实例从仓储恢复
	fresh := NewManager(cfg, &fakeProvider{}, staticCredentials(true), sessions, turns, nil, nil)
	restored, err := fresh.Get(ctx, c.ID())
	require.NoError(t, err)
	assert.Len(t, restored.Transcript(), 2)
	assert.Equal(t, `{"type":"long"}`, restored.Artifact())
	assert.Equal(t, "openai/gpt-4o-mini", restored.Model())
	assert.Equal(t, "orders-value", restored.Context().Subject)

	_, err = fresh.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	_, err = fresh.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestManager_CloseAndList(t *testing.T) {
	ctx := context.Background()
	events := &recordingPublisher{}
	m := NewManager(managerConfig(), &fakeProvider{}, staticCredentials(true), nil, nil, nil, events)

	a, err := m.Create(ctx, avroContext(), "m")
	require.NoError(t, err)
	_, err = m.Create(ctx, avroContext(), "m")
	require.NoError(t, err)
	assert.Len(t, m.List(), 2)

	require.NoError(t, m.Close(ctx, a.ID()))
	assert.Len(t, m.List(), 1)
	assert.ErrorIs(t, m.Close(ctx, a.ID()), apperrors.ErrSessionNotFound)
	_, err = m.Get(ctx, a.ID())
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	_, ok := m.Editor().Draft(a.ID())
	assert.False(t, ok)
	assert.Contains(t, events.types(), EventSessionClosed)

	m.Shutdown(ctx)
	assert.Empty(t, m.List())
}

type countingTransactor struct{ calls int }

func (c *countingTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	c.calls++
	return fn(ctx)
}

func TestManager_PurgeAndHistory(t *testing.T) {
	ctx := context.Background()
	sessions := newMemorySessionRepo()
	turns := &memoryTurnRepo{}
	cfg := managerConfig()
	cfg.Persist = true

	m := NewManager(cfg, &fakeProvider{replies: []string{"ok"}}, staticCredentials(true), sessions, turns, nil, nil)
	tx := &countingTransactor{}
	m.UseTransactor(tx)

	c, err := m.Create(ctx, avroContext(), "m")
	require.NoError(t, err)
	_, err = m.Send(ctx, c.ID(), "hi")
	require.NoError(t, err)

	page, err := m.History(ctx, "orders-value", repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	require.NoError(t, m.Purge(ctx, c.ID()))
	assert.Equal(t, 1, tx.calls)
	assert.Empty(t, turns.turns)
	stored, _ := sessions.GetByID(ctx, c.ID())
	assert.Nil(t, stored)
	assert.ErrorIs(t, m.Purge(ctx, c.ID()), apperrors.ErrSessionNotFound)
}

func TestManager_HistoryWithoutPersistence(t *testing.T) {
	m := NewManager(managerConfig(), &fakeProvider{}, staticCredentials(true), nil, nil, nil, nil)
	page, err := m.History(context.Background(), "orders-value", repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestManager_ReplyForPreviousSubjectIsNotApplied(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{
		replies: []string{"```json\n{\"type\":\"record\",\"name\":\"Old\",\"fields\":[]}\n```"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	m := NewManager(managerConfig(), p, staticCredentials(true), nil, nil, nil, nil)
	c, err := m.Create(ctx, avroContext(), "m")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := m.Send(ctx, c.ID(), "rename the record")
		done <- err
	}()

	<-p.entered
	next := entity.SchemaContext{Subject: "users-value", CurrentDocument: `{"type":"int"}`, DocumentType: entity.DocumentTypeAvro}
	_, err = m.UpdateContext(ctx, c.ID(), next)
	require.NoError(t, err)
	close(p.gate)
	require.NoError(t, <-done)

	assert.Empty(t, c.Artifact())
	_, err = m.ApplyArtifact(ctx, c.ID())
	assert.ErrorIs(t, err, apperrors.ErrArtifactNotFound)

	draft, _ := m.Editor().Draft(c.ID())
	assert.Equal(t, "users-value", draft.Subject)
	assert.Equal(t, `{"type":"int"}`, draft.Document)
}
