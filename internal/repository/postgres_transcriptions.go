package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"voiceowl/backend/pkg/models"
)

const transcriptionColumns = `id, audio_url, transcription, source, created_at,
	chunks_received, duration_ms,
	workflow_state, workflow_reviewer, workflow_reviewed_at, workflow_notes`

// PostgresTranscriptionStore is a PostgreSQL implementation of the
// TranscriptionStore interface.
type PostgresTranscriptionStore struct {
	db *pgxpool.Pool
}

// NewPostgresTranscriptionStore creates a new PostgresTranscriptionStore.
func NewPostgresTranscriptionStore(db *pgxpool.Pool) *PostgresTranscriptionStore {
	return &PostgresTranscriptionStore{db: db}
}

// Create persists a new record.
func (s *PostgresTranscriptionStore) Create(ctx context.Context, t *models.Transcription) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Workflow.State == "" {
		t.Workflow.State = models.WorkflowNotStarted
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO transcriptions (id, audio_url, transcription, source, created_at,
			chunks_received, duration_ms,
			workflow_state, workflow_reviewer, workflow_reviewed_at, workflow_notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.AudioURL, t.Transcription, t.Source, t.CreatedAt,
		t.ChunksReceived, t.DurationMs,
		t.Workflow.State, t.Workflow.Reviewer, t.Workflow.ReviewedAt, t.Workflow.Notes)
	if err != nil {
		return fmt.Errorf("insert transcription: %w", err)
	}
	return nil
}

// Get retrieves a record by its id.
func (s *PostgresTranscriptionStore) Get(ctx context.Context, id string) (*models.Transcription, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+transcriptionColumns+` FROM transcriptions WHERE id = $1`, id)
	return scanTranscription(row)
}

// ListSince returns records created at or after the cutoff, newest first.
func (s *PostgresTranscriptionStore) ListSince(ctx context.Context, cutoff time.Time) ([]*models.Transcription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+transcriptionColumns+` FROM transcriptions
		 WHERE created_at >= $1 ORDER BY created_at DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list transcriptions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transcription
	for rows.Next() {
		t, err := scanTranscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateWorkflow applies a partial update to the workflow sub-fields and
// returns the updated record. Nil patch fields leave the stored value alone.
func (s *PostgresTranscriptionStore) UpdateWorkflow(ctx context.Context, id string, patch models.WorkflowPatch) (*models.Transcription, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	args = append(args, id)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	// An empty reviewer or notes string clears the column: manual
	// operations overwrite these fields, they never merge.
	nullable := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}
	if patch.State != nil {
		add("workflow_state", *patch.State)
	}
	if patch.Reviewer != nil {
		add("workflow_reviewer", nullable(*patch.Reviewer))
	}
	if patch.ReviewedAt != nil {
		add("workflow_reviewed_at", *patch.ReviewedAt)
	}
	if patch.Notes != nil {
		add("workflow_notes", nullable(*patch.Notes))
	}
	if len(sets) == 0 {
		return s.Get(ctx, id)
	}

	row := s.db.QueryRow(ctx,
		`UPDATE transcriptions SET `+strings.Join(sets, ", ")+
			` WHERE id = $1 RETURNING `+transcriptionColumns, args...)
	return scanTranscription(row)
}

func scanTranscription(row pgx.Row) (*models.Transcription, error) {
	var t models.Transcription
	err := row.Scan(&t.ID, &t.AudioURL, &t.Transcription, &t.Source, &t.CreatedAt,
		&t.ChunksReceived, &t.DurationMs,
		&t.Workflow.State, &t.Workflow.Reviewer, &t.Workflow.ReviewedAt, &t.Workflow.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan transcription: %w", err)
	}
	return &t, nil
}

// Schema is the DDL for the transcriptions table. cmd/seed applies it; the
// integration test uses it too.
const Schema = `CREATE TABLE IF NOT EXISTS transcriptions (
	id UUID PRIMARY KEY,
	audio_url TEXT NOT NULL,
	transcription TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'mock',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	chunks_received INT NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	workflow_state TEXT NOT NULL DEFAULT 'not_started',
	workflow_reviewer TEXT,
	workflow_reviewed_at TIMESTAMPTZ,
	workflow_notes TEXT
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_created_at ON transcriptions (created_at);`
