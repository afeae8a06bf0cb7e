package repository

import (
	"context"
	"errors"
	"time"

	"voiceowl/backend/pkg/models"
)

// ErrNotFound is returned when an id does not resolve to a record.
var ErrNotFound = errors.New("transcription not found")

// TranscriptionStore is the persistence gateway for transcription records.
type TranscriptionStore interface {
	// Create persists a new record. The caller assigns the id.
	Create(ctx context.Context, t *models.Transcription) error
	// Get retrieves a record by its id.
	Get(ctx context.Context, id string) (*models.Transcription, error)
	// ListSince returns records created at or after the cutoff, newest first.
	ListSince(ctx context.Context, cutoff time.Time) ([]*models.Transcription, error)
	// UpdateWorkflow applies a partial update to the workflow sub-fields and
	// returns the updated record.
	UpdateWorkflow(ctx context.Context, id string, patch models.WorkflowPatch) (*models.Transcription, error)
}
