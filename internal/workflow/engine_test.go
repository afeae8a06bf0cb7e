package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceowl/backend/internal/logging"
	"voiceowl/backend/internal/repository"
	"voiceowl/backend/internal/testsupport"
	"voiceowl/backend/pkg/models"
)

const (
	testPendingDelay = 30 * time.Millisecond
	testApproveDelay = 30 * time.Millisecond
)

func newTestEngine(t *testing.T) (*Engine, *TimerRegistry, *testsupport.MemoryStore) {
	t.Helper()
	store := testsupport.NewMemoryStore()
	registry := NewTimerRegistry(logging.NewNopLogger())
	t.Cleanup(registry.Stop)
	engine := NewEngine(store, registry, testPendingDelay, testApproveDelay, logging.NewNopLogger())
	return engine, registry, store
}

func seedRecord(t *testing.T, store *testsupport.MemoryStore) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, store.Create(context.Background(), &models.Transcription{
		ID:            id,
		AudioURL:      "https://example.com/sample.mp3",
		Transcription: "transcribed text",
		Source:        models.SourceMock,
	}))
	return id
}

// waitForState polls until the workflow reaches the wanted state or the
// deadline passes.
func waitForState(t *testing.T, store *testsupport.MemoryStore, id string, want models.WorkflowState, deadline time.Duration) *models.Transcription {
	t.Helper()
	var rec *models.Transcription
	var err error
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		rec, err = store.Get(context.Background(), id)
		require.NoError(t, err)
		if rec.Workflow.State == want {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("record %s never reached %s, last state %s", id, want, rec.Workflow.State)
	return nil
}

func TestStartMovesToPendingReview(t *testing.T) {
	engine, registry, store := newTestEngine(t)
	id := seedRecord(t, store)

	rec, err := engine.Start(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowPendingReview, rec.Workflow.State)
	assert.True(t, registry.Armed(id))
}

func TestStartIsIdempotent(t *testing.T) {
	engine, registry, store := newTestEngine(t)
	id := seedRecord(t, store)

	_, err := engine.Start(context.Background(), id)
	require.NoError(t, err)
	rec, err := engine.Start(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowPendingReview, rec.Workflow.State)
	assert.Equal(t, 1, registry.Len(), "second start must not arm a second chain")
}

func TestStartUnknownID(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.Start(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFullAutoProgression(t *testing.T) {
	engine, registry, store := newTestEngine(t)
	id := seedRecord(t, store)

	_, err := engine.Start(context.Background(), id)
	require.NoError(t, err)

	waitForState(t, store, id, models.WorkflowInReview, 10*testPendingDelay)
	rec := waitForState(t, store, id, models.WorkflowApproved, 10*testApproveDelay)

	assert.NotNil(t, rec.Workflow.ReviewedAt)
	// chain is spent once the final stage fires
	assert.Eventually(t, func() bool { return !registry.Armed(id) },
		time.Second, 5*time.Millisecond)
}

func TestManualReviewPreemptsAuto(t *testing.T) {
	engine, registry, store := newTestEngine(t)
	id := seedRecord(t, store)

	_, err := engine.Start(context.Background(), id)
	require.NoError(t, err)

	rec, err := engine.ManualReview(context.Background(), id, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowInReview, rec.Workflow.State)
	require.NotNil(t, rec.Workflow.Reviewer)
	assert.Equal(t, "bob", *rec.Workflow.Reviewer)
	assert.False(t, registry.Armed(id))

	// wait past both delays; no auto-approval may ever land
	time.Sleep(3 * (testPendingDelay + testApproveDelay))
	rec, err = store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowInReview, rec.Workflow.State)
	assert.Nil(t, rec.Workflow.ReviewedAt)
}

func TestManualReviewRequiresReviewer(t *testing.T) {
	engine, _, store := newTestEngine(t)
	id := seedRecord(t, store)

	_, err := engine.ManualReview(context.Background(), id, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	// nothing was mutated
	rec, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowNotStarted, rec.Workflow.State)
}

func TestManualReviewUnknownID(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.ManualReview(context.Background(), "nonexistent", "bob", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRejectCancelsChain(t *testing.T) {
	engine, registry, store := newTestEngine(t)
	id := seedRecord(t, store)

	_, err := engine.Start(context.Background(), id)
	require.NoError(t, err)

	rec, err := engine.Reject(context.Background(), id, "bob", "bad audio")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowRejected, rec.Workflow.State)
	require.NotNil(t, rec.Workflow.Notes)
	assert.Equal(t, "bad audio", *rec.Workflow.Notes)
	assert.NotNil(t, rec.Workflow.ReviewedAt)
	assert.False(t, registry.Armed(id))

	time.Sleep(3 * (testPendingDelay + testApproveDelay))
	rec, err = store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowRejected, rec.Workflow.State)
}

func TestApproveWithoutReviewer(t *testing.T) {
	engine, _, store := newTestEngine(t)
	id := seedRecord(t, store)

	rec, err := engine.Approve(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowApproved, rec.Workflow.State)
	assert.Nil(t, rec.Workflow.Reviewer)
	assert.NotNil(t, rec.Workflow.ReviewedAt)
}

// Terminal records are deliberately still writable: the engine preserves
// the permissive overwrite behavior the API has always had.
func TestTerminalStateOverwriteStaysPermissive(t *testing.T) {
	engine, _, store := newTestEngine(t)
	id := seedRecord(t, store)

	_, err := engine.Approve(context.Background(), id, "bob")
	require.NoError(t, err)

	rec, err := engine.Reject(context.Background(), id, "alice", "second look")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowRejected, rec.Workflow.State)
	require.NotNil(t, rec.Workflow.Reviewer)
	assert.Equal(t, "alice", *rec.Workflow.Reviewer)
}

// Concurrent manual actions and timer firings on the same id must leave the
// record in exactly one coherent final state, never a half-applied mix.
func TestConcurrentManualActions(t *testing.T) {
	engine, _, store := newTestEngine(t)
	id := seedRecord(t, store)

	_, err := engine.Start(context.Background(), id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				_, _ = engine.Approve(context.Background(), id, "bob")
			} else {
				_, _ = engine.Reject(context.Background(), id, "alice", "no")
			}
		}(i)
	}
	wg.Wait()

	rec, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, rec.Workflow.Reviewer)
	switch rec.Workflow.State {
	case models.WorkflowApproved:
		assert.Equal(t, "bob", *rec.Workflow.Reviewer)
		// notes may linger from an interleaved reject; approve leaves them
	case models.WorkflowRejected:
		assert.Equal(t, "alice", *rec.Workflow.Reviewer)
		require.NotNil(t, rec.Workflow.Notes)
		assert.Equal(t, "no", *rec.Workflow.Notes)
	default:
		t.Fatalf("unexpected final state %s", rec.Workflow.State)
	}
}

func TestGetWorkflowUnknownID(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.GetWorkflow(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
