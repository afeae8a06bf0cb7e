package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceowl/backend/internal/logging"
	"voiceowl/backend/internal/services"
	"voiceowl/backend/internal/testsupport"
	"voiceowl/backend/pkg/models"
)

type failingTranscriber struct{}

func (failingTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", errors.New("backend down")
}

func newTestSession(t *testing.T) (*Session, *testsupport.MemoryStore) {
	t.Helper()
	store := testsupport.NewMemoryStore()
	svc := services.NewTranscriptionService(store,
		services.NewMockDownloader(0),
		services.NewMockTranscriber(),
		services.NewAzureClient("", "", ""))
	return NewSession(svc, logging.NewNopLogger()), store
}

func TestChunksThenEnd(t *testing.T) {
	session, store := newTestSession(t)
	ctx := context.Background()

	for i, want := range []string{
		"partial transcription (1)",
		"partial transcription (2)",
		"partial transcription (3)",
	} {
		resp := session.HandleMessage(ctx, []byte(`{"type":"chunk"}`))
		partial, ok := resp.(PartialFrame)
		require.True(t, ok, "chunk %d should produce a partial frame", i+1)
		assert.Equal(t, want, partial.Partial)
	}

	resp := session.HandleMessage(ctx, []byte(`{"type":"end"}`))
	final, ok := resp.(FinalFrame)
	require.True(t, ok, "end should produce a final frame, got %#v", resp)
	assert.NotEmpty(t, final.Final)
	require.NotEmpty(t, final.ID)

	rec, err := store.Get(ctx, final.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.ChunksReceived)
	assert.Equal(t, models.SourceStream, rec.Source)
	assert.Equal(t, "ws://dummy-stream", rec.AudioURL)
	assert.Equal(t, models.WorkflowNotStarted, rec.Workflow.State)
}

func TestEndCarriesAudioURL(t *testing.T) {
	session, store := newTestSession(t)
	ctx := context.Background()

	resp := session.HandleMessage(ctx, []byte(`{"type":"end","audioUrl":"https://example.com/live.mp3"}`))
	final, ok := resp.(FinalFrame)
	require.True(t, ok)

	rec, err := store.Get(ctx, final.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/live.mp3", rec.AudioURL)
	assert.Equal(t, 0, rec.ChunksReceived)
}

func TestMalformedFrameTolerance(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	resp := session.HandleMessage(ctx, []byte(`{"type":"chunk"}`))
	require.IsType(t, PartialFrame{}, resp)

	resp = session.HandleMessage(ctx, []byte(`not json at all`))
	errFrame, ok := resp.(ErrorFrame)
	require.True(t, ok)
	assert.Equal(t, "Invalid message format", errFrame.Error)

	resp = session.HandleMessage(ctx, []byte(`{"type":"bogus"}`))
	errFrame, ok = resp.(ErrorFrame)
	require.True(t, ok)
	assert.Equal(t, "Invalid message format", errFrame.Error)

	// the session survives bad frames: the counter resumes where it was
	resp = session.HandleMessage(ctx, []byte(`{"type":"chunk"}`))
	partial, ok := resp.(PartialFrame)
	require.True(t, ok)
	assert.Equal(t, "partial transcription (2)", partial.Partial)
}

func TestSecondEndIsRejected(t *testing.T) {
	session, store := newTestSession(t)
	ctx := context.Background()

	resp := session.HandleMessage(ctx, []byte(`{"type":"end"}`))
	require.IsType(t, FinalFrame{}, resp)
	require.Equal(t, 1, store.Len())

	resp = session.HandleMessage(ctx, []byte(`{"type":"end"}`))
	errFrame, ok := resp.(ErrorFrame)
	require.True(t, ok)
	assert.Equal(t, "session already finalized", errFrame.Error)
	assert.Equal(t, 1, store.Len(), "a session is single-shot")
}

func TestBackendFailureLeavesSessionCollecting(t *testing.T) {
	store := testsupport.NewMemoryStore()
	svc := services.NewTranscriptionService(store,
		services.NewMockDownloader(0),
		failingTranscriber{},
		services.NewAzureClient("", "", ""))
	session := NewSession(svc, logging.NewNopLogger())
	ctx := context.Background()

	resp := session.HandleMessage(ctx, []byte(`{"type":"end"}`))
	errFrame, ok := resp.(ErrorFrame)
	require.True(t, ok)
	assert.Equal(t, "transcription failed", errFrame.Error)
	assert.Equal(t, 0, store.Len())

	// still collecting: chunks keep counting
	resp = session.HandleMessage(ctx, []byte(`{"type":"chunk"}`))
	require.IsType(t, PartialFrame{}, resp)
}

func TestCloseBeforeEndProducesNoRecord(t *testing.T) {
	session, store := newTestSession(t)
	ctx := context.Background()

	session.HandleMessage(ctx, []byte(`{"type":"chunk"}`))
	session.Close()
	assert.Equal(t, stateClosed, session.state)
	assert.Equal(t, 0, store.Len())
}

func TestCloseAfterFinalizeKeepsFinalizedState(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	resp := session.HandleMessage(ctx, []byte(`{"type":"end"}`))
	require.IsType(t, FinalFrame{}, resp)
	session.Close()
	assert.Equal(t, stateFinalized, session.state)
}
