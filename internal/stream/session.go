// Package stream implements the chunked ingestion session carried over the
// /stream websocket.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voiceowl/backend/internal/logging"
	"voiceowl/backend/internal/services"
)

type sessionState string

const (
	stateCollecting sessionState = "collecting"
	stateFinalized  sessionState = "finalized"
	stateClosed     sessionState = "closed"
)

// defaultAudioURL is recorded when the client finalizes without naming a
// source. The streamed bytes themselves are reassembled by the transport,
// not here; transcription runs on a session-local placeholder buffer.
const defaultAudioURL = "ws://dummy-stream"

var placeholderAudio = []byte("fake-audio")

type inboundFrame struct {
	Type     string `json:"type"`
	AudioURL string `json:"audioUrl"`
}

// PartialFrame acknowledges a chunk with the running counter.
type PartialFrame struct {
	Partial string `json:"partial"`
}

// FinalFrame carries the produced text and the new record's id.
type FinalFrame struct {
	Final string `json:"final"`
	ID    string `json:"_id"`
}

// ErrorFrame reports a per-message failure to the sender. The session
// itself survives.
type ErrorFrame struct {
	Error string `json:"error"`
}

// Session accumulates chunk frames for one connection and finalizes exactly
// once into a persisted transcription record. A session is driven by a
// single connection goroutine; it is not safe for concurrent use.
type Session struct {
	service   *services.TranscriptionService
	logger    *logging.Logger
	chunks    int
	startedAt time.Time
	state     sessionState
}

// NewSession creates a Session in the collecting state.
func NewSession(service *services.TranscriptionService, logger *logging.Logger) *Session {
	return &Session{
		service:   service,
		logger:    logger,
		startedAt: time.Now(),
		state:     stateCollecting,
	}
}

// HandleMessage processes one inbound frame and returns the frame to send
// back, or nil if no response is due. Malformed input never terminates the
// session: the sender gets an error frame and the session keeps collecting.
func (s *Session) HandleMessage(ctx context.Context, data []byte) any {
	var msg inboundFrame
	if err := json.Unmarshal(data, &msg); err != nil {
		return ErrorFrame{Error: "Invalid message format"}
	}

	switch msg.Type {
	case "chunk":
		s.chunks++
		return PartialFrame{Partial: fmt.Sprintf("partial transcription (%d)", s.chunks)}
	case "end":
		return s.finalize(ctx, msg.AudioURL)
	default:
		return ErrorFrame{Error: "Invalid message format"}
	}
}

// finalize runs transcription and persists the record. A session is
// single-shot: a second end after a successful finalize is answered with an
// error frame and changes nothing. A backend failure leaves the session
// collecting so the client may retry.
func (s *Session) finalize(ctx context.Context, audioURL string) any {
	if s.state != stateCollecting {
		return ErrorFrame{Error: "session already finalized"}
	}
	if audioURL == "" {
		audioURL = defaultAudioURL
	}

	text, err := s.service.Transcribe(ctx, placeholderAudio)
	if err != nil {
		s.logger.Error("stream transcription failed", "error", err)
		return ErrorFrame{Error: "transcription failed"}
	}

	durationMs := time.Since(s.startedAt).Milliseconds()
	rec, err := s.service.CreateFromStream(ctx, audioURL, text, s.chunks, durationMs)
	if err != nil {
		s.logger.Error("stream record creation failed", "error", err)
		return ErrorFrame{Error: "failed to save transcription"}
	}

	s.state = stateFinalized
	s.logger.Info("stream session finalized",
		"id", rec.ID, "chunks", s.chunks, "duration_ms", durationMs)
	return FinalFrame{Final: text, ID: rec.ID}
}

// Close marks a still-collecting session closed. No record is produced and
// no error is surfaced; disconnecting mid-stream is silent cleanup.
func (s *Session) Close() {
	if s.state == stateCollecting {
		s.state = stateClosed
	}
}
