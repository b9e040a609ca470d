// Package retrieval turns free-text queries into a bounded, ranked
// candidate set for both search and the chat assistant.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/campusconnect/forum/internal/domain"
)

// Candidate pairs a post with its query similarity. Never persisted,
// always derived at request time.
type Candidate struct {
	Post       domain.Post
	Similarity float64
}

// Service scores the embedded corpus against a query vector and returns
// the topK candidates ordered by similarity, then recency.
type Service struct {
	embed Embedder
	posts PostReader
}

// New creates a candidate retriever.
func New(embed Embedder, posts PostReader) *Service {
	return &Service{embed: embed, posts: posts}
}

// Retrieve embeds queryText, scores every embedded post in the department
// scope (empty or General means unscoped) and returns the topK best
// candidates. topK <= 0 disables truncation. An empty result is a valid
// outcome, not an error.
func (s *Service) Retrieve(ctx context.Context, queryText, department string, topK int) ([]Candidate, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("query text is empty: %w", domain.ErrValidation)
	}

	embResult, err := s.embed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	posts, err := s.posts.ListEmbedded(ctx, department)
	if err != nil {
		return nil, fmt.Errorf("load embedded posts: %w", err)
	}

	candidates := make([]Candidate, 0, len(posts))
	for _, p := range posts {
		sim, err := domain.CosineSimilarity(embResult.Embedding, p.Embedding)
		if err != nil {
			return nil, fmt.Errorf("score post %s: %w", p.ID, err)
		}
		candidates = append(candidates, Candidate{Post: p, Similarity: sim})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Post.CreatedAt.After(candidates[j].Post.CreatedAt)
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}
