// Package search is the presentation layer over candidate retrieval:
// vote counts attached, similarity rounded, embeddings stripped.
package search

import (
	"context"
	"fmt"

	"github.com/campusconnect/forum/internal/domain"
)

// MsgNothingIndexed tells a caller the corpus has no embedded posts at
// all, as opposed to no matches for this particular query.
const MsgNothingIndexed = "No posts with embeddings found"

// Result is one ranked search hit. The post carries no embedding and
// the similarity is rounded for presentation.
type Result struct {
	Post       domain.Post `json:"post"`
	Similarity float64     `json:"similarity"`
}

// Response is the full search outcome for a query.
type Response struct {
	Query        string   `json:"query"`
	Results      []Result `json:"results"`
	ResultsCount int      `json:"resultsCount"`
	Message      string   `json:"message,omitempty"`
}

// Service ranks posts for direct semantic search.
type Service struct {
	retriever Retriever
	corpus    CorpusCounter
	topK      int
}

// New creates a ranked search service. defaultTopK caps results when the
// caller passes no limit.
func New(retriever Retriever, corpus CorpusCounter, defaultTopK int) *Service {
	return &Service{retriever: retriever, corpus: corpus, topK: defaultTopK}
}

// Search retrieves and presents the ranked candidates for queryText.
// limit <= 0 falls back to the configured default.
func (s *Service) Search(ctx context.Context, queryText, department string, limit int) (Response, error) {
	if limit <= 0 {
		limit = s.topK
	}

	candidates, err := s.retriever.Retrieve(ctx, queryText, department, limit)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve candidates: %w", err)
	}

	resp := Response{
		Query:        queryText,
		Results:      make([]Result, 0, len(candidates)),
		ResultsCount: len(candidates),
	}
	for _, c := range candidates {
		p := c.Post
		p.Embedding = nil
		resp.Results = append(resp.Results, Result{
			Post:       p,
			Similarity: domain.RoundSimilarity(c.Similarity),
		})
	}

	if len(candidates) == 0 {
		indexed, err := s.corpus.CountEmbedded(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("count embedded posts: %w", err)
		}
		if indexed == 0 {
			resp.Message = MsgNothingIndexed
		}
	}
	return resp, nil
}
