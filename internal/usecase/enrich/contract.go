package enrich

import (
	"context"

	"github.com/campusconnect/forum/internal/domain"
)

// Embedder vectorizes post text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Completer generates the text-derived enrichment fields.
type Completer interface {
	Complete(ctx context.Context, turns []domain.Turn) (string, error)
}
