// Package models defines the domain models for the transcription service
package models

import (
	"time"
)

// Source identifies which backend produced a transcription.
const (
	SourceMock   = "mock"
	SourceAzure  = "azure"
	SourceStream = "ws"
)

// Transcription is a single transcription record together with its review
// workflow. The record is owned by the persistence layer; the workflow
// engine always re-reads it before mutating.
type Transcription struct {
	ID             string    `json:"id"`
	AudioURL       string    `json:"audioUrl"`
	Transcription  string    `json:"transcription"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"createdAt"`
	ChunksReceived int       `json:"chunksReceived"`
	DurationMs     int64     `json:"durationMs"`
	Workflow       Workflow  `json:"workflow"`
}
