package post

import (
	"context"

	"github.com/campusconnect/forum/internal/domain"
	"github.com/campusconnect/forum/internal/usecase/enrich"
)

// Repository is the storage contract for post CRUD.
type Repository interface {
	Create(ctx context.Context, p *domain.Post) error
	Update(ctx context.Context, p *domain.Post, prevDept string) error
	Get(ctx context.Context, id string) (domain.Post, error)
	Delete(ctx context.Context, id, department string) error
	List(ctx context.Context, department string) ([]domain.Post, error)
}

// Enricher derives the AI-generated post fields; it never fails, each
// field owns a fallback.
type Enricher interface {
	Enrich(ctx context.Context, title, content string) enrich.Enrichment
}
