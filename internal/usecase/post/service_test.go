package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
	"github.com/campusconnect/forum/internal/usecase/enrich"
)

// --- Mocks ---

type mockRepo struct {
	posts     map[string]domain.Post
	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{posts: make(map[string]domain.Post)}
}

func (m *mockRepo) Create(_ context.Context, p *domain.Post) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.posts[p.ID] = *p
	return nil
}

func (m *mockRepo) Update(_ context.Context, p *domain.Post, _ string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.posts[p.ID] = *p
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (domain.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return domain.Post{}, fmt.Errorf("post %s: %w", id, domain.ErrPostNotFound)
	}
	return p, nil
}

func (m *mockRepo) Delete(_ context.Context, id, _ string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.posts, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, department string) ([]domain.Post, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Post
	for _, p := range m.posts {
		if department == "" || department == domain.DepartmentGeneral || p.Department == department {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockEnricher struct {
	enrichment enrich.Enrichment
	calls      int
}

func (m *mockEnricher) Enrich(_ context.Context, _, _ string) enrich.Enrichment {
	m.calls++
	return m.enrichment
}

func fullEnrichment() enrich.Enrichment {
	return enrich.Enrichment{
		Embedding: []float32{0.1, 0.2},
		Summary:   "summary",
		Sentiment: domain.Sentiment{Score: 0.5, Label: "positive"},
		Tags:      []string{"tag"},
	}
}

func validInput() CreateInput {
	return CreateInput{
		AuthorID:   "author",
		AuthorName: "Author Name",
		Title:      "A question about placements",
		Content:    "What should I prepare?",
		Department: "Computer",
	}
}

func newTestService(repo Repository, enricher Enricher) *Service {
	return New(repo, enricher, 10, 50, zap.NewNop())
}

// --- Tests ---

func TestCreate_EnrichesAndStores(t *testing.T) {
	repo := newMockRepo()
	enricher := &mockEnricher{enrichment: fullEnrichment()}
	svc := newTestService(repo, enricher)

	got, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID == "" {
		t.Error("id not assigned")
	}
	if !got.HasEmbedding() || got.Summary != "summary" || len(got.Tags) != 1 {
		t.Errorf("enrichment not applied: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
	if _, ok := repo.posts[got.ID]; !ok {
		t.Error("post not stored")
	}
}

func TestCreate_StoredWithoutEmbeddingOnEnrichmentShortfall(t *testing.T) {
	repo := newMockRepo()
	enricher := &mockEnricher{enrichment: enrich.Enrichment{
		Summary:   "fallback",
		Sentiment: domain.NeutralSentiment(),
		Tags:      []string{},
	}}
	svc := newTestService(repo, enricher)

	got, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HasEmbedding() {
		t.Error("embedding should be absent")
	}
	if _, ok := repo.posts[got.ID]; !ok {
		t.Error("post without embedding must still be stored")
	}
}

func TestCreate_ValidationRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"empty title", func(in *CreateInput) { in.Title = "" }},
		{"title too long", func(in *CreateInput) { in.Title = strings.Repeat("t", 201) }},
		{"content too long", func(in *CreateInput) { in.Content = strings.Repeat("c", 5001) }},
		{"bad department", func(in *CreateInput) { in.Department = "Astrology" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			enricher := &mockEnricher{}
			svc := newTestService(repo, enricher)

			in := validInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if enricher.calls != 0 {
				t.Error("enrichment ran for invalid input")
			}
			if len(repo.posts) != 0 {
				t.Error("invalid post stored")
			}
		})
	}
}

func TestUpdate_ReEnrichesOnContentChange(t *testing.T) {
	repo := newMockRepo()
	enricher := &mockEnricher{enrichment: fullEnrichment()}
	svc := newTestService(repo, enricher)

	created, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enricher.calls = 0

	newContent := "Completely new content"
	got, err := svc.Update(context.Background(), created.ID, "author", UpdateInput{Content: &newContent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enricher.calls != 1 {
		t.Errorf("enricher calls = %d, want 1", enricher.calls)
	}
	if got.Content != newContent {
		t.Errorf("content = %q", got.Content)
	}
}

func TestUpdate_NoReEnrichWhenTextUnchanged(t *testing.T) {
	repo := newMockRepo()
	enricher := &mockEnricher{enrichment: fullEnrichment()}
	svc := newTestService(repo, enricher)

	created, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enricher.calls = 0

	dept := "Civil"
	if _, err := svc.Update(context.Background(), created.ID, "author", UpdateInput{Department: &dept}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enricher.calls != 0 {
		t.Error("department-only edit re-ran enrichment")
	}
}

func TestUpdate_WrongAuthorForbidden(t *testing.T) {
	repo := newMockRepo()
	enricher := &mockEnricher{enrichment: fullEnrichment()}
	svc := newTestService(repo, enricher)

	created, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "hijacked"
	_, err = svc.Update(context.Background(), created.ID, "someone-else", UpdateInput{Title: &title})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if repo.posts[created.ID].Title == "hijacked" {
		t.Error("post mutated despite forbidden edit")
	}
}

func TestDelete(t *testing.T) {
	repo := newMockRepo()
	enricher := &mockEnricher{enrichment: fullEnrichment()}
	svc := newTestService(repo, enricher)

	created, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID, "intruder"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID, "author"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID, "author"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestGet_StripsEmbedding(t *testing.T) {
	repo := newMockRepo()
	enricher := &mockEnricher{enrichment: fullEnrichment()}
	svc := newTestService(repo, enricher)

	created, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Embedding != nil {
		t.Error("embedding not stripped")
	}
}

func TestList_PaginatesNewestFirst(t *testing.T) {
	repo := newMockRepo()
	now := time.Now()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("p%d", i)
		repo.posts[id] = domain.Post{
			ID:         id,
			AuthorID:   "author",
			Title:      "t",
			Content:    "c",
			Department: "Computer",
			CreatedAt:  now.Add(time.Duration(i) * time.Minute),
		}
	}
	svc := newTestService(repo, &mockEnricher{})

	page, err := svc.List(context.Background(), "", 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 5 || len(page.Posts) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Posts[0].ID != "p4" || page.Posts[1].ID != "p3" {
		t.Errorf("order = %s, %s; want newest first", page.Posts[0].ID, page.Posts[1].ID)
	}

	last, err := svc.List(context.Background(), "", 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(last.Posts) != 1 {
		t.Errorf("last page len = %d, want 1", len(last.Posts))
	}

	beyond, err := svc.List(context.Background(), "", 9, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(beyond.Posts) != 0 {
		t.Error("out-of-range page should be empty")
	}
}

func TestList_PageSizeBounds(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockEnricher{})

	page, err := svc.List(context.Background(), "", 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.PageSize != 10 {
		t.Errorf("default page size = %d, want 10", page.PageSize)
	}

	page, err = svc.List(context.Background(), "", 1, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.PageSize != 50 {
		t.Errorf("capped page size = %d, want 50", page.PageSize)
	}
}
