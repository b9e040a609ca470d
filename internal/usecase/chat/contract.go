package chat

import (
	"context"

	"github.com/campusconnect/forum/internal/domain"
	"github.com/campusconnect/forum/internal/usecase/retrieval"
)

// Retriever produces the ranked context candidates for a question.
type Retriever interface {
	Retrieve(ctx context.Context, queryText, department string, topK int) ([]retrieval.Candidate, error)
}

// Completer generates the answer for an ordered turn sequence.
type Completer interface {
	Complete(ctx context.Context, turns []domain.Turn) (string, error)
}
