package llm

import (
	"context"
	"errors"
)

// ErrUnavailable marks transport-level failures (connection refused, DNS,
// timeout dialing) where the inference service could not be reached at all.
// Callers map it to 503; every other failure is a plain 500.
var ErrUnavailable = errors.New("inference service unavailable")

// Client is a minimal text-generation interface to allow pluggable providers.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
