package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"voiceowl/backend/internal/repository"
	"voiceowl/backend/pkg/models"
)

// recentWindow bounds the GetRecent query.
const recentWindow = 30 * 24 * time.Hour

// TranscriptionService is a service for creating and querying transcription
// records. Every record write outside the workflow engine goes through here.
type TranscriptionService struct {
	store       repository.TranscriptionStore
	downloader  AudioDownloader
	transcriber Transcriber
	azure       Transcriber
}

// NewTranscriptionService creates a new TranscriptionService.
func NewTranscriptionService(store repository.TranscriptionStore, downloader AudioDownloader, transcriber, azure Transcriber) *TranscriptionService {
	return &TranscriptionService{
		store:       store,
		downloader:  downloader,
		transcriber: transcriber,
		azure:       azure,
	}
}

// CreateFromURL downloads the audio, transcribes it and persists a new
// record. Download and transcription are retried on transient failure.
func (s *TranscriptionService) CreateFromURL(ctx context.Context, audioURL string) (*models.Transcription, error) {
	audio, err := Retry(ctx, func() ([]byte, error) {
		return s.downloader.Download(ctx, audioURL)
	})
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}

	text, err := Retry(ctx, func() (string, error) {
		return s.transcriber.Transcribe(ctx, audio)
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}

	return s.create(ctx, audioURL, text, models.SourceMock, 0, 0)
}

// CreateFromURLWithAzure is CreateFromURL against the Azure backend.
func (s *TranscriptionService) CreateFromURLWithAzure(ctx context.Context, audioURL string) (*models.Transcription, error) {
	audio, err := Retry(ctx, func() ([]byte, error) {
		return s.downloader.Download(ctx, audioURL)
	})
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}

	text, err := Retry(ctx, func() (string, error) {
		return s.azure.Transcribe(ctx, audio)
	})
	if err != nil {
		return nil, fmt.Errorf("azure transcribe audio: %w", err)
	}

	return s.create(ctx, audioURL, text, models.SourceAzure, 0, 0)
}

// CreateFromStream persists the record produced by a finalized streaming
// session. The session has already run transcription; this only writes.
func (s *TranscriptionService) CreateFromStream(ctx context.Context, audioURL, text string, chunks int, durationMs int64) (*models.Transcription, error) {
	return s.create(ctx, audioURL, text, models.SourceStream, chunks, durationMs)
}

// Transcribe runs the mock transcription backend with the service's retry
// policy. The streaming session uses this on finalization.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return Retry(ctx, func() (string, error) {
		return s.transcriber.Transcribe(ctx, audio)
	})
}

// GetRecent returns records created in the last 30 days, newest first.
func (s *TranscriptionService) GetRecent(ctx context.Context) ([]*models.Transcription, error) {
	return s.store.ListSince(ctx, time.Now().UTC().Add(-recentWindow))
}

func (s *TranscriptionService) create(ctx context.Context, audioURL, text, source string, chunks int, durationMs int64) (*models.Transcription, error) {
	rec := &models.Transcription{
		ID:             uuid.New().String(),
		AudioURL:       audioURL,
		Transcription:  text,
		Source:         source,
		CreatedAt:      time.Now().UTC(),
		ChunksReceived: chunks,
		DurationMs:     durationMs,
		Workflow:       models.Workflow{State: models.WorkflowNotStarted},
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
