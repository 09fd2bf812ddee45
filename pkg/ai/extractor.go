package ai

import (
	"context"
	"errors"
)

// ErrExtraction wraps any failure of the external vision service: the auth
// exchange, an image upload, or the chat call itself. Callers show a fixed
// apology instead of the wrapped cause.
var ErrExtraction = errors.New("vision extraction failed")

// VisionExtractor sends one or more images plus a natural-language
// instruction to a vision-capable model and returns its raw text reply.
type VisionExtractor interface {
	Extract(ctx context.Context, images [][]byte, instructions string) (string, error)
}
