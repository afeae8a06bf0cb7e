// Package testsupport provides shared fakes for package tests.
package testsupport

import (
	"context"
	"sync"
	"time"

	"voiceowl/backend/internal/repository"
	"voiceowl/backend/pkg/models"
)

// MemoryStore is an in-memory TranscriptionStore with the same observable
// semantics as the postgres implementation, including the empty-string
// clears-the-column behavior of UpdateWorkflow.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.Transcription
}

var _ repository.TranscriptionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.Transcription)}
}

// Create persists a new record.
func (s *MemoryStore) Create(ctx context.Context, t *models.Transcription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Workflow.State == "" {
		t.Workflow.State = models.WorkflowNotStarted
	}
	s.records[t.ID] = clone(t)
	return nil
}

// Get retrieves a record by its id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(rec), nil
}

// ListSince returns records created at or after the cutoff, newest first.
func (s *MemoryStore) ListSince(ctx context.Context, cutoff time.Time) ([]*models.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Transcription
	for _, rec := range s.records {
		if !rec.CreatedAt.Before(cutoff) {
			out = append(out, clone(rec))
		}
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

// UpdateWorkflow applies a partial update to the workflow sub-fields.
func (s *MemoryStore) UpdateWorkflow(ctx context.Context, id string, patch models.WorkflowPatch) (*models.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.State != nil {
		rec.Workflow.State = *patch.State
	}
	if patch.Reviewer != nil {
		rec.Workflow.Reviewer = nullable(*patch.Reviewer)
	}
	if patch.ReviewedAt != nil {
		at := *patch.ReviewedAt
		rec.Workflow.ReviewedAt = &at
	}
	if patch.Notes != nil {
		rec.Workflow.Notes = nullable(*patch.Notes)
	}
	return clone(rec), nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clone(t *models.Transcription) *models.Transcription {
	c := *t
	if t.Workflow.Reviewer != nil {
		v := *t.Workflow.Reviewer
		c.Workflow.Reviewer = &v
	}
	if t.Workflow.ReviewedAt != nil {
		v := *t.Workflow.ReviewedAt
		c.Workflow.ReviewedAt = &v
	}
	if t.Workflow.Notes != nil {
		v := *t.Workflow.Notes
		c.Workflow.Notes = &v
	}
	return &c
}
