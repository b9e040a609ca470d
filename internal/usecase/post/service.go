// Package post owns post authoring: create, update, delete, reads with
// pagination, and the enrichment orchestration around content changes.
package post

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
)

// CreateInput is the caller-supplied part of a new post.
type CreateInput struct {
	AuthorID   string
	AuthorName string
	Title      string
	Content    string
	Department string
}

// UpdateInput carries the editable post fields. Nil means unchanged.
type UpdateInput struct {
	Title      *string
	Content    *string
	Department *string
}

// Page is one page of posts, newest first.
type Page struct {
	Posts    []domain.Post `json:"posts"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// Service implements post CRUD over the repository.
type Service struct {
	repo        Repository
	enricher    Enricher
	pageSize    int
	maxPageSize int
	logger      *zap.Logger
}

// New creates a post service.
func New(repo Repository, enricher Enricher, pageSize, maxPageSize int, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		enricher:    enricher,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		logger:      logger,
	}
}

// Create validates, enriches and stores a new post. Enrichment is
// best-effort: a post with no embedding is stored anyway and stays out
// of the retrieval pool until re-enriched.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Post, error) {
	now := time.Now()
	p := domain.Post{
		ID:         uuid.NewString(),
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		Title:      in.Title,
		Content:    in.Content,
		Department: in.Department,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.Validate(); err != nil {
		return domain.Post{}, err
	}

	enr := s.enricher.Enrich(ctx, p.Title, p.Content)
	p.Embedding = enr.Embedding
	p.Summary = enr.Summary
	p.Sentiment = enr.Sentiment
	p.Tags = enr.Tags
	if !p.HasEmbedding() {
		s.logger.Warn("post stored without embedding", zap.String("post_id", p.ID))
	}

	if err := s.repo.Create(ctx, &p); err != nil {
		return domain.Post{}, fmt.Errorf("store post: %w", err)
	}
	return p, nil
}

// Update edits a post. Only the author may edit; a content or title
// change regenerates the enrichment fields.
func (s *Service) Update(ctx context.Context, id, actorID string, in UpdateInput) (domain.Post, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Post{}, fmt.Errorf("load post: %w", err)
	}
	if p.AuthorID != actorID {
		return domain.Post{}, fmt.Errorf("user %s editing post of %s: %w", actorID, p.AuthorID, domain.ErrForbidden)
	}

	prevDept := p.Department
	textChanged := false
	if in.Title != nil && *in.Title != p.Title {
		p.Title = *in.Title
		textChanged = true
	}
	if in.Content != nil && *in.Content != p.Content {
		p.Content = *in.Content
		textChanged = true
	}
	if in.Department != nil {
		p.Department = *in.Department
	}
	if err := p.Validate(); err != nil {
		return domain.Post{}, err
	}

	if textChanged {
		enr := s.enricher.Enrich(ctx, p.Title, p.Content)
		p.Embedding = enr.Embedding
		p.Summary = enr.Summary
		p.Sentiment = enr.Sentiment
		p.Tags = enr.Tags
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, &p, prevDept); err != nil {
		return domain.Post{}, fmt.Errorf("store post update: %w", err)
	}
	return p, nil
}

// Delete removes a post and its dependent vote sets. Author-only.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}
	if p.AuthorID != actorID {
		return fmt.Errorf("user %s deleting post of %s: %w", actorID, p.AuthorID, domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id, p.Department); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// Get returns one post with vote counts, embedding stripped.
func (s *Service) Get(ctx context.Context, id string) (domain.Post, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Post{}, fmt.Errorf("load post: %w", err)
	}
	p.Embedding = nil
	return p, nil
}

// List returns one page of posts in a department scope, newest first.
// page is 1-based; out-of-range pages return an empty list.
func (s *Service) List(ctx context.Context, department string, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	posts, err := s.repo.List(ctx, department)
	if err != nil {
		return Page{}, fmt.Errorf("list posts: %w", err)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	for i := range posts {
		posts[i].Embedding = nil
	}

	total := len(posts)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page{
		Posts:    posts[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
