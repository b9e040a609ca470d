package search

import (
	"context"

	"github.com/campusconnect/forum/internal/usecase/retrieval"
)

// Retriever produces ranked candidates for a query.
type Retriever interface {
	Retrieve(ctx context.Context, queryText, department string, topK int) ([]retrieval.Candidate, error)
}

// CorpusCounter reports the size of the embedded corpus, used to tell
// "nothing indexed yet" apart from "no relevant results".
type CorpusCounter interface {
	CountEmbedded(ctx context.Context) (int, error)
}
