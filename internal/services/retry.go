package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	retryInitialInterval = 200 * time.Millisecond
	retryMaxAttempts     = 3
)

// Retry runs fn with bounded exponential backoff: three attempts total,
// starting at 200ms and doubling. Transcription and download backends fail
// transiently; anything still failing after the last attempt is surfaced to
// the caller.
func Retry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0

	return backoff.RetryWithData(fn,
		backoff.WithContext(backoff.WithMaxRetries(b, retryMaxAttempts-1), ctx))
}
