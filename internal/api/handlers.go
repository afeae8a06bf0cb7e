// Package api contains the HTTP handlers for the transcription service
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"voiceowl/backend/internal/logging"
	"voiceowl/backend/internal/services"
	"voiceowl/backend/internal/workflow"
)

// Server holds the dependencies for the API handlers.
type Server struct {
	Transcriptions *services.TranscriptionService
	Engine         *workflow.Engine
	Logger         *logging.Logger
}

// NewServer creates a new Server.
func NewServer(transcriptions *services.TranscriptionService, engine *workflow.Engine, logger *logging.Logger) *Server {
	return &Server{
		Transcriptions: transcriptions,
		Engine:         engine,
		Logger:         logger,
	}
}

// Register mounts all API routes on the given group.
func (s *Server) Register(g *echo.Group) {
	g.POST("/transcription", s.CreateTranscription)
	g.GET("/transcriptions", s.GetRecentTranscriptions)
	g.POST("/azure-transcription", s.CreateAzureTranscription)

	g.POST("/workflow/start/:id", s.StartWorkflow)
	g.POST("/workflow/review/:id", s.ManualReview)
	g.POST("/workflow/approve/:id", s.Approve)
	g.POST("/workflow/reject/:id", s.Reject)
	g.GET("/workflow/:id", s.GetWorkflow)
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK)
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "voiceowl-backend",
		Version:   "1.0.0",
	})
}
