// Package chat answers user questions over the community corpus with a
// retrieval-augmented generative call, classifying whether the answer
// came from community content or general knowledge.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
	"github.com/campusconnect/forum/internal/usecase/retrieval"
)

// Answer modes.
const (
	ModeCommunity = "community"
	ModeGeneral   = "general"
)

// Source describes one context post the answer drew on, or the synthetic
// general-knowledge entry.
type Source struct {
	PostID     string `json:"id,omitempty"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Similarity int    `json:"similarity"`
}

// Answer is the full outcome of one chat turn.
type Answer struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Mode      string   `json:"mode"`
	PostsUsed int      `json:"postsUsed"`
}

// Service runs one retrieval-augmented generation pass per question. No
// state is kept across requests; history is supplied by the caller.
type Service struct {
	retriever Retriever
	completer Completer
	topK      int
	maxLen    int
	logger    *zap.Logger
}

// New creates a RAG chat service. topK bounds the context candidates and
// maxQuestionLen silently truncates oversized questions.
func New(retriever Retriever, completer Completer, topK, maxQuestionLen int, logger *zap.Logger) *Service {
	return &Service{
		retriever: retriever,
		completer: completer,
		topK:      topK,
		maxLen:    maxQuestionLen,
		logger:    logger,
	}
}

// Ask answers question using the community corpus plus the supplied
// conversation history. Any embedding or generative failure surfaces as a
// single error with no partial answer.
func (s *Service) Ask(ctx context.Context, question string, history []domain.Turn) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("question is empty: %w", domain.ErrValidation)
	}
	if runes := []rune(question); len(runes) > s.maxLen {
		question = string(runes[:s.maxLen])
	}

	candidates, err := s.retriever.Retrieve(ctx, question, "", s.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	turns := make([]domain.Turn, 0, len(history)+2)
	turns = append(turns, domain.Turn{Role: domain.RoleSystem, Text: buildSystemPrompt(candidates)})
	for _, h := range history {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		turns = append(turns, h)
	}
	turns = append(turns, domain.Turn{Role: domain.RoleUser, Text: question})

	answer, err := s.completer.Complete(ctx, turns)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	mode := ModeCommunity
	if strings.Contains(answer, GeneralMarker) {
		mode = ModeGeneral
	}

	s.logger.Debug("chat answer generated",
		zap.String("mode", mode),
		zap.Int("posts_used", len(candidates)),
	)

	return Answer{
		Answer:    answer,
		Sources:   buildSources(mode, candidates),
		Mode:      mode,
		PostsUsed: len(candidates),
	}, nil
}

func buildSources(mode string, candidates []retrieval.Candidate) []Source {
	if mode == ModeGeneral {
		return []Source{{Title: "General Knowledge", Author: "AI Assistant", Similarity: 0}}
	}
	sources := make([]Source, 0, len(candidates))
	for _, c := range candidates {
		sources = append(sources, Source{
			PostID:     c.Post.ID,
			Title:      c.Post.Title,
			Author:     c.Post.AuthorName,
			Similarity: domain.SimilarityPercent(c.Similarity),
		})
	}
	return sources
}
