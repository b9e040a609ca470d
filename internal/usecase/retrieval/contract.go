package retrieval

import (
	"context"

	"github.com/campusconnect/forum/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// PostReader loads the embedded candidate universe for a department scope.
type PostReader interface {
	ListEmbedded(ctx context.Context, department string) ([]domain.Post, error)
}
