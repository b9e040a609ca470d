package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
	chatuc "github.com/campusconnect/forum/internal/usecase/chat"
	"github.com/campusconnect/forum/internal/usecase/enrich"
	healthuc "github.com/campusconnect/forum/internal/usecase/health"
	"github.com/campusconnect/forum/internal/usecase/notify"
	postuc "github.com/campusconnect/forum/internal/usecase/post"
	"github.com/campusconnect/forum/internal/usecase/retrieval"
	searchuc "github.com/campusconnect/forum/internal/usecase/search"
	voteuc "github.com/campusconnect/forum/internal/usecase/vote"
)

// --- Stub collaborators ---

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

type stubCompleter struct {
	answer string
	err    error
}

func (s *stubCompleter) Complete(_ context.Context, _ []domain.Turn) (string, error) {
	return s.answer, s.err
}

// memStore backs the post and vote usecases in memory.
type memStore struct {
	posts map[string]domain.Post
	up    map[string]map[string]bool
	down  map[string]map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		posts: make(map[string]domain.Post),
		up:    make(map[string]map[string]bool),
		down:  make(map[string]map[string]bool),
	}
}

func (m *memStore) Create(_ context.Context, p *domain.Post) error {
	m.posts[p.ID] = *p
	m.up[p.ID] = make(map[string]bool)
	m.down[p.ID] = make(map[string]bool)
	return nil
}

func (m *memStore) Update(_ context.Context, p *domain.Post, _ string) error {
	m.posts[p.ID] = *p
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (domain.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return domain.Post{}, fmt.Errorf("post %s: %w", id, domain.ErrPostNotFound)
	}
	p.SetVoteCounts(len(m.up[id]), len(m.down[id]))
	return p, nil
}

func (m *memStore) Delete(_ context.Context, id, _ string) error {
	delete(m.posts, id)
	return nil
}

func (m *memStore) List(_ context.Context, department string) ([]domain.Post, error) {
	var out []domain.Post
	for id := range m.posts {
		p, _ := m.Get(context.Background(), id)
		if department == "" || department == domain.DepartmentGeneral || p.Department == department {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListEmbedded(_ context.Context, department string) ([]domain.Post, error) {
	all, _ := m.List(context.Background(), department)
	var out []domain.Post
	for _, p := range all {
		if p.HasEmbedding() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CountEmbedded(_ context.Context) (int, error) {
	n := 0
	for _, p := range m.posts {
		if p.HasEmbedding() {
			n++
		}
	}
	return n, nil
}

func (m *memStore) VoteState(_ context.Context, postID, userID string) (domain.VoteState, error) {
	switch {
	case m.up[postID][userID]:
		return domain.StateUpvoted, nil
	case m.down[postID][userID]:
		return domain.StateDownvoted, nil
	default:
		return domain.StateNone, nil
	}
}

func (m *memStore) ApplyVoteChange(_ context.Context, postID, userID string, change domain.VoteChange) error {
	if change.AddUp {
		m.up[postID][userID] = true
	}
	if change.RemoveUp {
		delete(m.up[postID], userID)
	}
	if change.AddDown {
		m.down[postID][userID] = true
	}
	if change.RemoveDown {
		delete(m.down[postID], userID)
	}
	return nil
}

func (m *memStore) VoteCounts(_ context.Context, postID string) (int, int, error) {
	return len(m.up[postID]), len(m.down[postID]), nil
}

type memNotifRepo struct {
	delivered map[string]bool
	created   []domain.Notification
}

func newMemNotifRepo() *memNotifRepo {
	return &memNotifRepo{delivered: make(map[string]bool)}
}

func (m *memNotifRepo) MarkDelivered(_ context.Context, n *domain.Notification) (bool, error) {
	if m.delivered[n.DedupKey()] {
		return false, nil
	}
	m.delivered[n.DedupKey()] = true
	return true, nil
}

func (m *memNotifRepo) Create(_ context.Context, n *domain.Notification) error {
	m.created = append(m.created, *n)
	return nil
}

func (m *memNotifRepo) ListRecent(_ context.Context, recipientID string, _ int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range m.created {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotifRepo) Count(_ context.Context, recipientID string) (int64, error) {
	items, _ := m.ListRecent(context.Background(), recipientID, 0)
	return int64(len(items)), nil
}

type stubEnricher struct {
	enrichment enrich.Enrichment
}

func (s *stubEnricher) Enrich(_ context.Context, _, _ string) enrich.Enrichment {
	return s.enrichment
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(_ context.Context) error { return s.err }

// --- Fixture ---

type fixture struct {
	store     *memStore
	notifRepo *memNotifRepo
	embedder  *stubEmbedder
	completer *stubCompleter
	pinger    *stubPinger
	handler   http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMemStore(),
		notifRepo: newMemNotifRepo(),
		embedder:  &stubEmbedder{vec: []float32{1, 0}},
		completer: &stubCompleter{answer: "an answer"},
		pinger:    &stubPinger{},
	}

	logger := zap.NewNop()
	retriever := retrieval.New(f.embedder, f.store)
	searchSvc := searchuc.New(retriever, f.store, 10)
	chatSvc := chatuc.New(retriever, f.completer, 5, 500, logger)
	enricher := &stubEnricher{enrichment: enrich.Enrichment{
		Embedding: []float32{1, 0},
		Summary:   "summary",
		Sentiment: domain.NeutralSentiment(),
		Tags:      []string{"tag"},
	}}
	postSvc := postuc.New(f.store, enricher, 10, 50, logger)
	registry := notify.NewRegistry()
	dispatcher := notify.NewDispatcher(f.notifRepo, registry, logger)
	voteSvc := voteuc.New(f.store, dispatcher, logger)
	healthSvc := healthuc.New(f.pinger, nil)

	server := NewServer(searchSvc, chatSvc, postSvc, voteSvc, dispatcher, registry, healthSvc, logger)
	r := chirouter.NewRouter()
	server.Mount(r)
	f.handler = r
	return f
}

func (f *fixture) seedPost(id, authorID string, vec []float32) {
	f.store.posts[id] = domain.Post{
		ID:         id,
		AuthorID:   authorID,
		AuthorName: "Author",
		Title:      "title " + id,
		Content:    "content",
		Department: "Computer",
		Embedding:  vec,
		CreatedAt:  time.Now(),
	}
	f.store.up[id] = make(map[string]bool)
	f.store.down[id] = make(map[string]bool)
}

func (f *fixture) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// --- Tests ---

func TestSearchEndpoint(t *testing.T) {
	f := newFixture()
	f.seedPost("p1", "author", []float32{1, 0})
	f.seedPost("p2", "author", []float32{0, 1})

	rr := f.do(t, "GET", "/api/search?q=anything", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	resp := decode[searchuc.Response](t, rr)
	if resp.ResultsCount != 2 {
		t.Errorf("resultsCount = %d, want 2", resp.ResultsCount)
	}
	if resp.Results[0].Post.ID != "p1" {
		t.Errorf("top hit = %s, want p1", resp.Results[0].Post.ID)
	}
	if resp.Results[0].Post.Embedding != nil {
		t.Error("embedding leaked into response")
	}
}

func TestSearchEndpoint_Validation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		path string
		code string
	}{
		{"empty query", "/api/search?q=", codeValidationFailed},
		{"unknown department", "/api/search?q=x&department=Astrology", codeValidationFailed},
		{"bad limit", "/api/search?q=x&limit=-2", codeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, "GET", tt.path, "", nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			errResp := decode[errorResponse](t, rr)
			if errResp.Code != tt.code {
				t.Errorf("code = %q, want %q", errResp.Code, tt.code)
			}
		})
	}
}

func TestSearchEndpoint_NothingIndexed(t *testing.T) {
	f := newFixture()
	f.seedPost("p1", "author", nil) // no embedding

	rr := f.do(t, "GET", "/api/search?q=anything", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[searchuc.Response](t, rr)
	if resp.ResultsCount != 0 || resp.Message != searchuc.MsgNothingIndexed {
		t.Errorf("resp = %+v", resp)
	}
}

func TestChatEndpoint(t *testing.T) {
	f := newFixture()
	f.seedPost("p1", "author", []float32{1, 0})

	rr := f.do(t, "POST", "/api/chat", "", map[string]any{"message": "how to prepare?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	answer := decode[chatuc.Answer](t, rr)
	if answer.Answer != "an answer" || answer.Mode != chatuc.ModeCommunity {
		t.Errorf("answer = %+v", answer)
	}
}

func TestChatEndpoint_ProviderDown(t *testing.T) {
	f := newFixture()
	f.completer.err = domain.ErrProviderUnavailable

	rr := f.do(t, "POST", "/api/chat", "", map[string]any{"message": "question"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	errResp := decode[errorResponse](t, rr)
	if errResp.Code != codeProviderUnavailable {
		t.Errorf("code = %q", errResp.Code)
	}
}

func TestCreatePostEndpoint(t *testing.T) {
	f := newFixture()

	body := map[string]any{
		"title":      "A new question",
		"content":    "details here",
		"department": "Computer",
		"authorName": "Someone",
	}

	rr := f.do(t, "POST", "/api/posts/", "", body)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no user header: status = %d, want 401", rr.Code)
	}

	rr = f.do(t, "POST", "/api/posts/", "u1", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	created := decode[domain.Post](t, rr)
	if created.ID == "" || created.AuthorID != "u1" {
		t.Errorf("created = %+v", created)
	}
	if created.Embedding != nil {
		t.Error("embedding leaked into response")
	}

	body["department"] = "Astrology"
	rr = f.do(t, "POST", "/api/posts/", "u1", body)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad department: status = %d, want 400", rr.Code)
	}
}

func TestVoteEndpoint_Flow(t *testing.T) {
	f := newFixture()
	f.seedPost("p1", "author", []float32{1, 0})

	rr := f.do(t, "POST", "/api/posts/p1/vote", "voter", map[string]string{"voteType": "upvote"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	outcome := decode[voteuc.Outcome](t, rr)
	if outcome.Message != "Post upvoted" || outcome.UpvoteCount != 1 {
		t.Errorf("outcome = %+v", outcome)
	}

	rr = f.do(t, "GET", "/api/posts/p1/vote-status", "voter", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("vote-status: %d", rr.Code)
	}
	status := decode[map[string]any](t, rr)
	if status["upvoted"] != true {
		t.Errorf("status = %v", status)
	}
}

func TestVoteEndpoint_Errors(t *testing.T) {
	f := newFixture()
	f.seedPost("p1", "author", []float32{1, 0})

	tests := []struct {
		name       string
		path       string
		user       string
		voteType   string
		wantStatus int
		wantCode   string
	}{
		{"self vote", "/api/posts/p1/vote", "author", "upvote", http.StatusForbidden, codeSelfVoteForbidden},
		{"missing post", "/api/posts/nope/vote", "voter", "upvote", http.StatusNotFound, codePostNotFound},
		{"invalid type", "/api/posts/p1/vote", "voter", "sideways", http.StatusBadRequest, codeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, "POST", tt.path, tt.user, map[string]string{"voteType": tt.voteType})
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			errResp := decode[errorResponse](t, rr)
			if errResp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", errResp.Code, tt.wantCode)
			}
		})
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	f := newFixture()
	f.seedPost("p1", "author", []float32{1, 0})

	// An upvote produces a like notification for the author.
	rr := f.do(t, "POST", "/api/posts/p1/vote", "voter", map[string]string{"voteType": "upvote"})
	if rr.Code != http.StatusOK {
		t.Fatalf("vote: %d", rr.Code)
	}

	rr = f.do(t, "GET", "/api/notifications", "author", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[map[string]json.RawMessage](t, rr)
	var items []domain.Notification
	if err := json.Unmarshal(resp["notifications"], &items); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(items) != 1 || items[0].Type != domain.NotifyLike {
		t.Errorf("items = %+v", items)
	}
}

func TestDeletePostEndpoint(t *testing.T) {
	f := newFixture()
	f.seedPost("p1", "author", []float32{1, 0})

	rr := f.do(t, "DELETE", "/api/posts/p1", "intruder", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("wrong author: status = %d, want 403", rr.Code)
	}

	rr = f.do(t, "DELETE", "/api/posts/p1", "author", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	rr = f.do(t, "GET", "/api/posts/p1", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("deleted post fetch: status = %d, want 404", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture()

	rr := f.do(t, "GET", "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	f.pinger.err = errors.New("down")
	rr = f.do(t, "GET", "/health", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded: status = %d, want 503", rr.Code)
	}

	rr = f.do(t, "GET", "/api/chat/health", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("chat health: status = %d, want 503", rr.Code)
	}
}
