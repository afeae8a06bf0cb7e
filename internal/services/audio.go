package services

import (
	"context"
	"errors"
	"math/rand"
)

// ErrDownloadFailed is the transient failure surfaced by the mock
// downloader. Callers recover it through Retry.
var ErrDownloadFailed = errors.New("download failed")

// MockDownloader simulates the audio download backend. A configurable
// fraction of calls fails to exercise the retry path.
type MockDownloader struct {
	failureRate float64
}

// NewMockDownloader creates a MockDownloader. failureRate is clamped to 0..1.
func NewMockDownloader(failureRate float64) *MockDownloader {
	if failureRate < 0 {
		failureRate = 0
	}
	if failureRate > 1 {
		failureRate = 1
	}
	return &MockDownloader{failureRate: failureRate}
}

// Download returns placeholder audio bytes, failing transiently at the
// configured rate.
func (d *MockDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rand.Float64() < d.failureRate {
		return nil, ErrDownloadFailed
	}
	return []byte("mock-audio-data"), nil
}

// MockTranscriber is the stand-in transcription backend.
type MockTranscriber struct{}

// NewMockTranscriber creates a MockTranscriber.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe returns fixed placeholder text.
func (t *MockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "transcribed text", nil
}
