package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceowl/backend/internal/services"
	"voiceowl/backend/internal/testsupport"
	"voiceowl/backend/pkg/models"
)

// flakyDownloader fails a fixed number of times before succeeding.
type flakyDownloader struct {
	failures int
	calls    int
}

func (d *flakyDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	d.calls++
	if d.calls <= d.failures {
		return nil, services.ErrDownloadFailed
	}
	return []byte("mock-audio-data"), nil
}

type failingTranscriber struct{}

func (failingTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", errors.New("backend unavailable")
}

func newService(store *testsupport.MemoryStore, downloader services.AudioDownloader) *services.TranscriptionService {
	return services.NewTranscriptionService(
		store,
		downloader,
		services.NewMockTranscriber(),
		services.NewAzureClient("", "", "en-US"),
	)
}

func TestCreateFromURLPersistsRecord(t *testing.T) {
	store := testsupport.NewMemoryStore()
	svc := newService(store, services.NewMockDownloader(0))

	rec, err := svc.CreateFromURL(context.Background(), "https://example.com/a.wav")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "https://example.com/a.wav", rec.AudioURL)
	assert.Equal(t, "transcribed text", rec.Transcription)
	assert.Equal(t, models.SourceMock, rec.Source)
	assert.Equal(t, models.WorkflowNotStarted, rec.Workflow.State)
	assert.Nil(t, rec.Workflow.Reviewer)

	got, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Transcription, got.Transcription)
}

func TestCreateFromURLRetriesTransientDownloadFailure(t *testing.T) {
	store := testsupport.NewMemoryStore()
	downloader := &flakyDownloader{failures: 2}
	svc := newService(store, downloader)

	rec, err := svc.CreateFromURL(context.Background(), "https://example.com/a.wav")
	require.NoError(t, err)

	assert.Equal(t, 3, downloader.calls)
	assert.Equal(t, "transcribed text", rec.Transcription)
}

func TestCreateFromURLGivesUpAfterThreeAttempts(t *testing.T) {
	store := testsupport.NewMemoryStore()
	downloader := &flakyDownloader{failures: 10}
	svc := newService(store, downloader)

	_, err := svc.CreateFromURL(context.Background(), "https://example.com/a.wav")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrDownloadFailed)

	assert.Equal(t, 3, downloader.calls)
	assert.Equal(t, 0, store.Len())
}

func TestCreateFromURLWithAzureUsesAzureBackend(t *testing.T) {
	store := testsupport.NewMemoryStore()
	svc := newService(store, services.NewMockDownloader(0))

	rec, err := svc.CreateFromURLWithAzure(context.Background(), "https://example.com/a.wav")
	require.NoError(t, err)

	assert.Equal(t, models.SourceAzure, rec.Source)
	assert.Equal(t, "[Azure-en-US] dummy azure transcription", rec.Transcription)
}

func TestCreateFromStreamWritesWithoutTranscribing(t *testing.T) {
	store := testsupport.NewMemoryStore()
	svc := services.NewTranscriptionService(
		store,
		services.NewMockDownloader(0),
		failingTranscriber{},
		services.NewAzureClient("", "", "en-US"),
	)

	rec, err := svc.CreateFromStream(context.Background(), "ws://dummy-stream", "partial transcription (4)", 4, 1200)
	require.NoError(t, err)

	assert.Equal(t, models.SourceStream, rec.Source)
	assert.Equal(t, 4, rec.ChunksReceived)
	assert.Equal(t, int64(1200), rec.DurationMs)
}

func TestGetRecentExcludesOldRecords(t *testing.T) {
	store := testsupport.NewMemoryStore()
	svc := newService(store, services.NewMockDownloader(0))

	old := &models.Transcription{
		ID:        "11111111-1111-1111-1111-111111111111",
		AudioURL:  "https://example.com/old.wav",
		CreatedAt: time.Now().UTC().Add(-31 * 24 * time.Hour),
	}
	require.NoError(t, store.Create(context.Background(), old))

	fresh, err := svc.CreateFromURL(context.Background(), "https://example.com/new.wav")
	require.NoError(t, err)

	records, err := svc.GetRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fresh.ID, records[0].ID)
}

func TestTranscribeSurfacesBackendFailure(t *testing.T) {
	store := testsupport.NewMemoryStore()
	svc := services.NewTranscriptionService(
		store,
		services.NewMockDownloader(0),
		failingTranscriber{},
		services.NewAzureClient("", "", "en-US"),
	)

	_, err := svc.Transcribe(context.Background(), []byte("fake-audio"))
	assert.Error(t, err)
}
