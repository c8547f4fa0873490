package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "schema-assistant-api/pkg/errors"
)

type failingPublisher struct{}

func (failingPublisher) PublishEvent(context.Context, Event) error {
	return errors.New("stream unavailable")
}

func TestEditorBinder_CopyToEditorMarksDirty(t *testing.T) {
	ctx := context.Background()
	b := NewEditorBinder(nil)
	b.Open("s1", avroContext())

	draft, ok := b.Draft("s1")
	require.True(t, ok)
	assert.False(t, draft.Dirty)
	assert.Equal(t, "orders-value", draft.Subject)

	updated, err := b.CopyToEditor(ctx, "s1", `{"type":"string"}`)
	require.NoError(t, err)
	assert.True(t, updated.Dirty)
	assert.Equal(t, `{"type":"string"}`, updated.Document)
	assert.False(t, updated.UpdatedAt.Before(draft.UpdatedAt))
}

func TestEditorBinder_SetDocumentAndUnknownSession(t *testing.T) {
	ctx := context.Background()
	b := NewEditorBinder(failingPublisher{})
	b.Open("s1", avroContext())

	draft, err := b.SetDocument(ctx, "s1", `{"type":"int"}`)
	require.NoError(t, err, "publish failures are logged, not returned")
	assert.Equal(t, `{"type":"int"}`, draft.Document)

	_, err = b.CopyToEditor(ctx, "missing", "{}")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestEditorBinder_ProposalTrackingAndRemove(t *testing.T) {
	ctx := context.Background()
	events := &recordingPublisher{}
	b := NewEditorBinder(events)
	b.Open("s1", avroContext())

	b.OnArtifactProposed(ctx, "s1", "first")
	b.OnArtifactProposed(ctx, "s1", "second")
	p, ok := b.LatestProposal("s1")
	require.True(t, ok)
	assert.Equal(t, "second", p)

	// 通知本身不修改工作文档
	draft, _ := b.Draft("s1")
	assert.Equal(t, avroContext().CurrentDocument, draft.Document)

	require.Len(t, events.events, 2)
	assert.Equal(t, "orders-value", events.events[0].Subject)

	b.Remove("s1")
	_, ok = b.Draft("s1")
	assert.False(t, ok)
	_, ok = b.LatestProposal("s1")
	assert.False(t, ok)
}
