// Package chi is the HTTP surface of the forum: search, chat, posts,
// votes and notifications as hand-written chi routes.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
	chatuc "github.com/campusconnect/forum/internal/usecase/chat"
	healthuc "github.com/campusconnect/forum/internal/usecase/health"
	"github.com/campusconnect/forum/internal/usecase/notify"
	postuc "github.com/campusconnect/forum/internal/usecase/post"
	searchuc "github.com/campusconnect/forum/internal/usecase/search"
	voteuc "github.com/campusconnect/forum/internal/usecase/vote"
)

// Error response codes.
const (
	codeBadRequest          = "bad_request"
	codeUnauthorized        = "unauthorized"
	codeValidationFailed    = "validation_failed"
	codeNotFound            = "not_found"
	codePostNotFound        = "post_not_found"
	codeForbidden           = "forbidden"
	codeSelfVoteForbidden   = "self_vote_forbidden"
	codeProviderUnavailable = "provider_unavailable"
	codeVectorDimMismatch   = "vector_dim_mismatch"
	codeInternalError       = "internal_error"
)

// userHeader carries the authenticated user id, set by the upstream
// credential validator. Auth mechanics are outside this service.
const userHeader = "X-User-ID"

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the usecase services behind the HTTP handlers.
type Server struct {
	search        *searchuc.Service
	chat          *chatuc.Service
	posts         *postuc.Service
	votes         *voteuc.Service
	notifications *notify.Dispatcher
	sessions      *notify.Registry
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	chat *chatuc.Service,
	posts *postuc.Service,
	votes *voteuc.Service,
	notifications *notify.Dispatcher,
	sessions *notify.Registry,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:        search,
		chat:          chat,
		posts:         posts,
		votes:         votes,
		notifications: notifications,
		sessions:      sessions,
		health:        health,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSelfVote, http.StatusForbidden, codeSelfVoteForbidden),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, codeForbidden),
		sentinelHandler(domain.ErrPostNotFound, http.StatusNotFound, codePostNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, codeVectorDimMismatch),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, codeProviderUnavailable),
	}
	return s
}

// Mount attaches all routes to the router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.Search)

		r.Post("/chat", s.Chat)
		r.Get("/chat/health", s.Health)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", s.ListPosts)
			r.Post("/", s.CreatePost)
			r.Get("/{postID}", s.GetPost)
			r.Put("/{postID}", s.UpdatePost)
			r.Delete("/{postID}", s.DeletePost)
			r.Post("/{postID}/vote", s.Vote)
			r.Get("/{postID}/vote-status", s.VoteStatus)
		})

		r.Get("/notifications", s.Notifications)
		r.Get("/notifications/stream", s.NotificationStream)
	})
}

// Search handles GET /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	department := r.URL.Query().Get("department")
	if department != "" && !domain.ValidDepartment(department) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "unknown department")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	resp, err := s.search.Search(r.Context(), q, department, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type chatRequest struct {
	Message string        `json:"message"`
	History []domain.Turn `json:"history"`
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	answer, err := s.chat.Ask(r.Context(), req.Message, req.History)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type createPostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Department string `json:"department"`
	AuthorName string `json:"authorName"`
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := s.posts.Create(r.Context(), postuc.CreateInput{
		AuthorID:   userID,
		AuthorName: req.AuthorName,
		Title:      req.Title,
		Content:    req.Content,
		Department: req.Department,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	created.Embedding = nil
	writeJSON(w, http.StatusCreated, created)
}

// ListPosts handles GET /api/posts.
func (s *Server) ListPosts(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	if department != "" && !domain.ValidDepartment(department) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "unknown department")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := s.posts.List(r.Context(), department, page, pageSize)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPost handles GET /api/posts/{postID}.
func (s *Server) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := s.posts.Get(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updatePostRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Department *string `json:"department"`
}

// UpdatePost handles PUT /api/posts/{postID}.
func (s *Server) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := s.posts.Update(r.Context(), chi.URLParam(r, "postID"), userID, postuc.UpdateInput{
		Title:      req.Title,
		Content:    req.Content,
		Department: req.Department,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	updated.Embedding = nil
	writeJSON(w, http.StatusOK, updated)
}

// DeletePost handles DELETE /api/posts/{postID}.
func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.posts.Delete(r.Context(), chi.URLParam(r, "postID"), userID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type voteRequest struct {
	VoteType string `json:"voteType"`
}

// Vote handles POST /api/posts/{postID}/vote.
func (s *Server) Vote(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	voteType, err := domain.ParseVoteType(req.VoteType)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	outcome, err := s.votes.Apply(r.Context(), chi.URLParam(r, "postID"), userID, voteType)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// VoteStatus handles GET /api/posts/{postID}/vote-status.
func (s *Server) VoteStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	state, err := s.votes.Status(r.Context(), chi.URLParam(r, "postID"), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":     state,
		"upvoted":   state == domain.StateUpvoted,
		"downvoted": state == domain.StateDownvoted,
	})
}

// Notifications handles GET /api/notifications.
func (s *Server) Notifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := s.notifications.Recent(r.Context(), userID, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	total, err := s.notifications.Count(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": items,
		"total":         total,
	})
}

// Health handles GET /health and GET /api/chat/health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing "+userHeader+" header")
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSelfVote,
		domain.ErrForbidden,
		domain.ErrPostNotFound,
		domain.ErrNotFound,
		domain.ErrValidation,
		domain.ErrVectorDimMismatch,
		domain.ErrProviderUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
