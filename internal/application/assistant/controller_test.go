package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-assistant-api/internal/domain/entity"
	apperrors "schema-assistant-api/pkg/errors"
)

type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []ChatRequest
	// gate 非空时 Chat 在返回前阻塞，直到收到信号
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeProvider) lastRequest() ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type recordingObserver struct {
	mu        sync.Mutex
	turns     []entity.ChatTurn
	artifacts []string
}

func (r *recordingObserver) OnTurnAppended(_ context.Context, turn entity.ChatTurn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turn)
}

func (r *recordingObserver) OnArtifactProposed(_ context.Context, _ string, artifact string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts = append(r.artifacts, artifact)
}

func avroContext() entity.SchemaContext {
	return entity.SchemaContext{
		Subject:         "orders-value",
		CurrentDocument: `{"type":"record","name":"Order","fields":[]}`,
		DocumentType:    entity.DocumentTypeAvro,
	}
}

func newTestController(p ChatProvider) *Controller {
	return NewController("session-1", avroContext(), "openai/gpt-4o", p, DefaultOptions())
}

func TestController_SendWithJSONBlockProposesArtifact(t *testing.T) {
	reply := "Added a field:\n```json\n{\"type\":\"record\",\"name\":\"Order\",\"fields\":[{\"name\":\"email\",\"type\":\"string\"}]}\n```"
	p := &fakeProvider{replies: []string{reply}}
	c := newTestController(p)
	obs := &recordingObserver{}
	c.AddTurnObserver(obs)
	c.AddArtifactObserver(obs)

	res, err := c.Send(context.Background(), "add an email field")
	require.NoError(t, err)

	assert.False(t, res.Failed)
	assert.True(t, res.ArtifactChanged)
	assert.Equal(t, `{"type":"record","name":"Order","fields":[{"name":"email","type":"string"}]}`, c.Artifact())
	assert.Equal(t, entity.ChatStateIdle, c.State())

	transcript := c.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, entity.RoleUser, transcript[0].Role)
	assert.Equal(t, "add an email field", transcript[0].Content)
	assert.Equal(t, entity.RoleAssistant, transcript[1].Role)
	assert.Equal(t, reply, transcript[1].Content)
	assert.NotEqual(t, transcript[0].ID, transcript[1].ID)

	assert.Len(t, obs.turns, 2)
	assert.Equal(t, []string{c.Artifact()}, obs.artifacts)

	req := p.lastRequest()
	assert.Equal(t, "openai/gpt-4o", req.Model)
	assert.InDelta(t, 0.7, float64(req.Temperature), 1e-6)
	assert.Equal(t, 2000, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, schema.System, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Subject: orders-value")
	assert.Equal(t, schema.User, req.Messages[1].Role)
	assert.Equal(t, "add an email field", req.Messages[1].Content)
}

func TestController_ReplyWithoutFenceLeavesArtifact(t *testing.T) {
	p := &fakeProvider{replies: []string{
		"```json\n{\"type\":\"string\"}\n```",
		"Consider adding a default value.",
	}}
	c := newTestController(p)

	_, err := c.Send(context.Background(), "first")
	require.NoError(t, err)
	require.Equal(t, `{"type":"string"}`, c.Artifact())

	res, err := c.Send(context.Background(), "second")
	require.NoError(t, err)
	assert.False(t, res.ArtifactChanged)
	assert.Equal(t, `{"type":"string"}`, c.Artifact())
	assert.Len(t, c.Transcript(), 4)
}

func TestController_ProviderFailureAppendsErrorTurn(t *testing.T) {
	p := &fakeProvider{err: apperrors.ProviderError(`Failed to send chat message: {"error":{"message":"Invalid API key"}}`)}
	c := newTestController(p)

	res, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.False(t, res.ArtifactChanged)
	assert.Empty(t, c.Artifact())
	assert.Equal(t, entity.ChatStateIdle, c.State())

	transcript := c.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, entity.RoleAssistant, transcript[1].Role)
	assert.Equal(t, `Error: Failed to send chat message: {"error":{"message":"Invalid API key"}}`, transcript[1].Content)
}

func TestController_PlainErrorMessage(t *testing.T) {
	c := newTestController(&fakeProvider{err: errors.New("dial tcp: connection refused")})

	_, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Error: dial tcp: connection refused", c.Transcript()[1].Content)
}

func TestController_FullHistoryReplayedInOrder(t *testing.T) {
	p := &fakeProvider{replies: []string{"a1", "a2", "a3"}}
	c := newTestController(p)
	ctx := context.Background()

	for _, msg := range []string{"u1", "u2", "u3"} {
		_, err := c.Send(ctx, msg)
		require.NoError(t, err)
	}

	req := p.lastRequest()
	var got []string
	for _, m := range req.Messages[1:] {
		got = append(got, string(m.Role)+":"+m.Content)
	}
	assert.Equal(t, []string{"user:u1", "assistant:a1", "user:u2", "assistant:a2", "user:u3"}, got)
	for _, m := range req.Messages[1:] {
		assert.NotEqual(t, schema.System, m.Role, "system turn is never part of the transcript")
	}
}

func TestController_HistoryBound(t *testing.T) {
	p := &fakeProvider{replies: []string{"a1", "a2", "a3"}}
	opts := DefaultOptions()
	opts.MaxHistoryTurns = 2
	c := NewController("s", avroContext(), "m", p, opts)
	ctx := context.Background()

	for _, msg := range []string{"u1", "u2", "u3"} {
		_, err := c.Send(ctx, msg)
		require.NoError(t, err)
	}

	req := p.lastRequest()
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "u2", req.Messages[1].Content)
	assert.Equal(t, "a2", req.Messages[2].Content)
	assert.Equal(t, "u3", req.Messages[3].Content)
	assert.Len(t, c.Transcript(), 6, "bounding replay never truncates the transcript")
}

func TestController_RejectsInvalidSends(t *testing.T) {
	ctx := context.Background()

	c := newTestController(&fakeProvider{})
	_, err := c.Send(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, c.Transcript())

	noModel := NewController("s", avroContext(), "", &fakeProvider{}, DefaultOptions())
	_, err = noModel.Send(ctx, "hi")
	assert.ErrorIs(t, err, ErrNoModel)
	assert.Empty(t, noModel.Transcript())

	closed := newTestController(&fakeProvider{})
	closed.Close()
	_, err = closed.Send(ctx, "hi")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestController_SecondSendWhileSendingIsRejected(t *testing.T) {
	p := &fakeProvider{
		replies: []string{"done"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := newTestController(p)
	ctx := context.Background()

	done := make(chan *SendResult, 1)
	go func() {
		res, err := c.Send(ctx, "first")
		assert.NoError(t, err)
		done <- res
	}()

	<-p.entered
	assert.Equal(t, entity.ChatStateSending, c.State())
	// 用户消息在网络调用之前已追加
	require.Len(t, c.Transcript(), 1)

	_, err := c.Send(ctx, "second")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSendInProgress))

	close(p.gate)
	res := <-done
	assert.Equal(t, "done", res.ReplyTurn.Content)
	assert.Equal(t, entity.ChatStateIdle, c.State())
	assert.Len(t, c.Transcript(), 2)
}

func TestController_ReplyAfterCloseIsDiscarded(t *testing.T) {
	p := &fakeProvider{
		replies: []string{"```json\n{\"type\":\"int\"}\n```"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := newTestController(p)

	done := make(chan *SendResult, 1)
	go func() {
		res, _ := c.Send(context.Background(), "first")
		done <- res
	}()

	<-p.entered
	c.Close()
	close(p.gate)

	res := <-done
	assert.True(t, res.Discarded)
	assert.Nil(t, res.ReplyTurn)
	assert.Len(t, c.Transcript(), 1)
	assert.Empty(t, c.Artifact())
}

func TestController_SubjectChangeClearsArtifact(t *testing.T) {
	p := &fakeProvider{replies: []string{"```json\n{\"type\":\"string\"}\n```"}}
	c := newTestController(p)
	_, err := c.Send(context.Background(), "go")
	require.NoError(t, err)
	require.NotEmpty(t, c.Artifact())

	sameSubject := avroContext()
	sameSubject.CurrentDocument = `{"type":"string"}`
	assert.False(t, c.UpdateContext(sameSubject))
	assert.NotEmpty(t, c.Artifact())

	other := avroContext()
	other.Subject = "payments-value"
	assert.True(t, c.UpdateContext(other))
	assert.Empty(t, c.Artifact())
	assert.Equal(t, "payments-value", c.Context().Subject)
}

func TestController_SubjectChangeDuringSendIgnoresProposal(t *testing.T) {
	p := &fakeProvider{
		replies: []string{"```json\n{\"type\":\"record\",\"name\":\"Old\",\"fields\":[]}\n```"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := newTestController(p)
	obs := &recordingObserver{}
	c.AddArtifactObserver(obs)

	done := make(chan *SendResult, 1)
	go func() {
		res, _ := c.Send(context.Background(), "rename the record")
		done <- res
	}()

	<-p.entered
	other := avroContext()
	other.Subject = "users-value"
	c.UpdateContext(other)
	close(p.gate)

	res := <-done
	assert.True(t, res.SubjectChanged)
	assert.False(t, res.ArtifactChanged)
	assert.False(t, res.Discarded)
	require.NotNil(t, res.ReplyTurn)
	assert.Len(t, c.Transcript(), 2)
	assert.Empty(t, c.Artifact())
	assert.Empty(t, obs.artifacts)
}

func TestController_ContextSnapshotUsedPerSend(t *testing.T) {
	p := &fakeProvider{replies: []string{"ok", "ok"}}
	c := newTestController(p)
	ctx := context.Background()

	_, err := c.Send(ctx, "one")
	require.NoError(t, err)
	assert.Contains(t, p.lastRequest().Messages[0].Content, `"name":"Order"`)

	updated := avroContext()
	updated.CurrentDocument = `{"type":"record","name":"OrderV2","fields":[]}`
	c.UpdateContext(updated)

	_, err = c.Send(ctx, "two")
	require.NoError(t, err)
	assert.Contains(t, p.lastRequest().Messages[0].Content, `"name":"OrderV2"`)
}

func TestController_RestoreReplaysArtifact(t *testing.T) {
	c := newTestController(&fakeProvider{})
	history := []entity.ChatTurn{
		{ID: "1", Role: entity.RoleUser, Content: "make it a string"},
		{ID: "2", Role: entity.RoleAssistant, Content: "```json\n{\"type\":\"string\"}\n```"},
		{ID: "3", Role: entity.RoleUser, Content: "thanks"},
		{ID: "4", Role: entity.RoleAssistant, Content: "You're welcome."},
	}
	c.Restore(history)

	assert.Len(t, c.Transcript(), 4)
	assert.Equal(t, `{"type":"string"}`, c.Artifact())

	c.Restore([]entity.ChatTurn{{ID: "x", Role: entity.RoleUser, Content: "ignored"}})
	assert.Len(t, c.Transcript(), 4)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "OpenRouter API key is not configured", errorMessage(apperrors.ErrUnauthenticated))
	assert.True(t, strings.HasPrefix(errorMessage(errors.New("boom")), "boom"))
}
