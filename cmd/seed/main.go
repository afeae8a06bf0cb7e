package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"voiceowl/backend/internal/config"
	"voiceowl/backend/internal/logging"
	"voiceowl/backend/internal/repository"
	"voiceowl/backend/pkg/models"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()
	defer logger.Sync()

	// Load config
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to DB
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	// 1. Ensure schema exists
	if _, err := pool.Exec(ctx, repository.Schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	logger.Info("Schema applied")

	store := repository.NewPostgresTranscriptionStore(pool)

	// 2. Check for existing records to prevent duplicates
	existing, err := store.ListSince(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		log.Fatalf("Failed to list existing transcriptions: %v", err)
	}

	existingMap := make(map[string]bool)
	for _, t := range existing {
		existingMap[t.AudioURL] = true
	}

	// 3. Create seed records
	seeds := []struct {
		AudioURL      string
		Transcription string
		Source        string
		State         models.WorkflowState
	}{
		{"https://example.com/calls/support-001.wav", "transcribed text", models.SourceMock, models.WorkflowNotStarted},
		{"https://example.com/calls/support-002.wav", "transcribed text", models.SourceMock, models.WorkflowPendingReview},
		{"https://example.com/calls/sales-001.wav", "[Azure-en-US] dummy azure transcription", models.SourceAzure, models.WorkflowNotStarted},
	}

	for _, s := range seeds {
		if existingMap[s.AudioURL] {
			logger.Info("Skipping existing record", "audio_url", s.AudioURL)
			continue
		}

		rec := &models.Transcription{
			ID:            uuid.New().String(),
			AudioURL:      s.AudioURL,
			Transcription: s.Transcription,
			Source:        s.Source,
			Workflow:      models.Workflow{State: s.State},
		}

		if err := store.Create(ctx, rec); err != nil {
			log.Printf("Failed to create record for %s: %v", s.AudioURL, err)
		} else {
			logger.Info("Seeded transcription", "audio_url", s.AudioURL, "id", rec.ID)
		}
	}
	logger.Info("Seeding complete!")
}
