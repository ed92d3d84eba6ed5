package article

import (
	"context"
)

// TextGenerator produces completion text for a system/user prompt pair.
// Implemented by the OpenAI client; mocked in tests.
type TextGenerator interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// ImageSearcher looks up candidate image URLs for a short English query.
// An empty result is not an error.
type ImageSearcher interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
}

// Draft is the output of a successful generation run. Persistence is the
// caller's responsibility.
type Draft struct {
	Title         string
	Body          string
	FeaturedImage *string
}
