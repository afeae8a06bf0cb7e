package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type createTranscriptionRequest struct {
	AudioURL                 string `json:"audioUrl"`
	StartWorkflowImmediately bool   `json:"startWorkflowImmediately"`
}

type createAzureTranscriptionRequest struct {
	AudioURL string `json:"audioUrl"`
}

type createTranscriptionResponse struct {
	TranscriptionID string `json:"transcriptionId"`
}

// CreateTranscription downloads and transcribes the audio at the given URL
// and persists a new record.
// (POST /api/transcription)
func (s *Server) CreateTranscription(c echo.Context) error {
	ctx := c.Request().Context()

	var req createTranscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.AudioURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "audioUrl required"})
	}

	rec, err := s.Transcriptions.CreateFromURL(ctx, req.AudioURL)
	if err != nil {
		s.Logger.Error("create transcription failed", "audio_url", req.AudioURL, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if req.StartWorkflowImmediately {
		// fire-and-forget: the caller must not block on the per-entity
		// section, and the workflow outlives this request
		go func(id string) {
			if _, err := s.Engine.Start(context.Background(), id); err != nil {
				s.Logger.Error("startWorkflow error", "id", id, "error", err)
			}
		}(rec.ID)
	}

	return c.JSON(http.StatusOK, createTranscriptionResponse{TranscriptionID: rec.ID})
}

// GetRecentTranscriptions returns records created in the last 30 days.
// (GET /api/transcriptions)
func (s *Server) GetRecentTranscriptions(c echo.Context) error {
	records, err := s.Transcriptions.GetRecent(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

// CreateAzureTranscription transcribes through the Azure backend.
// (POST /api/azure-transcription)
func (s *Server) CreateAzureTranscription(c echo.Context) error {
	ctx := c.Request().Context()

	var req createAzureTranscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.AudioURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "audioUrl required"})
	}

	rec, err := s.Transcriptions.CreateFromURLWithAzure(ctx, req.AudioURL)
	if err != nil {
		s.Logger.Error("azure transcription failed", "audio_url", req.AudioURL, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, createTranscriptionResponse{TranscriptionID: rec.ID})
}
