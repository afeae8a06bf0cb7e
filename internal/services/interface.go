package services

import "context"

// AudioDownloader fetches audio bytes from a URL.
type AudioDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Transcriber turns audio bytes into text. Implementations may fail
// transiently; callers apply their own retry policy.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
