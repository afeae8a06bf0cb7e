package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"voiceowl/backend/internal/auth"
	"voiceowl/backend/internal/repository"
	"voiceowl/backend/internal/workflow"
	"voiceowl/backend/pkg/models"
)

// workflowEnvelope is the response shape of every workflow endpoint.
type workflowEnvelope struct {
	Success bool                  `json:"success"`
	Data    *models.Transcription `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
}

type reviewRequest struct {
	Reviewer string `json:"reviewer"`
	Notes    string `json:"notes"`
}

func workflowOK(c echo.Context, rec *models.Transcription) error {
	return c.JSON(http.StatusOK, workflowEnvelope{Success: true, Data: rec})
}

func workflowError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	return c.JSON(status, workflowEnvelope{Success: false, Error: err.Error()})
}

// StartWorkflow kicks off the review workflow for a record.
// (POST /api/workflow/start/:id)
func (s *Server) StartWorkflow(c echo.Context) error {
	rec, err := s.Engine.Start(c.Request().Context(), c.Param("id"))
	if err != nil {
		return workflowError(c, err)
	}
	return workflowOK(c, rec)
}

// ManualReview claims a record for human review. The reviewer comes from
// the request body, falling back to the authenticated identity.
// (POST /api/workflow/review/:id)
func (s *Server) ManualReview(c echo.Context) error {
	ctx := c.Request().Context()

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, workflowEnvelope{Success: false, Error: "Invalid request body: " + err.Error()})
	}
	if req.Reviewer == "" {
		req.Reviewer = auth.ReviewerFromContext(ctx)
	}
	if req.Reviewer == "" {
		return c.JSON(http.StatusBadRequest, workflowEnvelope{Success: false, Error: "reviewer required"})
	}

	rec, err := s.Engine.ManualReview(ctx, c.Param("id"), req.Reviewer, req.Notes)
	if err != nil {
		return workflowError(c, err)
	}
	return workflowOK(c, rec)
}

// Approve marks a record approved.
// (POST /api/workflow/approve/:id)
func (s *Server) Approve(c echo.Context) error {
	ctx := c.Request().Context()

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, workflowEnvelope{Success: false, Error: "Invalid request body: " + err.Error()})
	}
	if req.Reviewer == "" {
		req.Reviewer = auth.ReviewerFromContext(ctx)
	}

	rec, err := s.Engine.Approve(ctx, c.Param("id"), req.Reviewer)
	if err != nil {
		return workflowError(c, err)
	}
	return workflowOK(c, rec)
}

// Reject marks a record rejected.
// (POST /api/workflow/reject/:id)
func (s *Server) Reject(c echo.Context) error {
	ctx := c.Request().Context()

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, workflowEnvelope{Success: false, Error: "Invalid request body: " + err.Error()})
	}
	if req.Reviewer == "" {
		req.Reviewer = auth.ReviewerFromContext(ctx)
	}

	rec, err := s.Engine.Reject(ctx, c.Param("id"), req.Reviewer, req.Notes)
	if err != nil {
		return workflowError(c, err)
	}
	return workflowOK(c, rec)
}

// GetWorkflow returns the record with its workflow projection.
// (GET /api/workflow/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	rec, err := s.Engine.GetWorkflow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return workflowError(c, err)
	}
	return workflowOK(c, rec)
}
