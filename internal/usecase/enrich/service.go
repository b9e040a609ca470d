// Package enrich derives the AI-generated post fields: embedding,
// summary, sentiment and tags. Every task is best-effort with its own
// fallback, and the join never fails.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
)

const (
	summaryFallbackLen = 150
	maxTags            = 5
	minSummarizableLen = 50
)

// Enrichment carries the derived post fields. A nil Embedding means
// generation failed and the post stays out of the retrieval pool until
// the next content change.
type Enrichment struct {
	Embedding []float32
	Summary   string
	Sentiment domain.Sentiment
	Tags      []string
}

// Service runs the enrichment tasks concurrently.
type Service struct {
	embedder  Embedder
	completer Completer
	logger    *zap.Logger
}

// New creates an enrichment service.
func New(embedder Embedder, completer Completer, logger *zap.Logger) *Service {
	return &Service{embedder: embedder, completer: completer, logger: logger}
}

// Enrich derives all fields for a post in parallel. Individual task
// failures are logged and replaced with their fallback value.
func (s *Service) Enrich(ctx context.Context, title, content string) Enrichment {
	var (
		wg  sync.WaitGroup
		out Enrichment
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		out.Embedding = s.embed(ctx, title, content)
	}()
	go func() {
		defer wg.Done()
		out.Summary = s.summarize(ctx, title, content)
	}()
	go func() {
		defer wg.Done()
		out.Sentiment = s.sentiment(ctx, content)
	}()
	go func() {
		defer wg.Done()
		out.Tags = s.tags(ctx, title, content)
	}()
	wg.Wait()

	return out
}

func (s *Service) embed(ctx context.Context, title, content string) []float32 {
	result, err := s.embedder.Embed(ctx, domain.EmbeddingText(title, content))
	if err != nil {
		s.logger.Warn("post embedding failed", zap.Error(err))
		return nil
	}
	return result.Embedding
}

func (s *Service) summarize(ctx context.Context, title, content string) string {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minSummarizableLen {
		return trimmed
	}

	prompt := fmt.Sprintf("Summarize this post in 1-2 concise sentences (max 150 characters). "+
		"Focus on the main point.\n\nTitle: %s\nContent: %s\n\nSummary:", title, content)
	answer, err := s.completer.Complete(ctx, []domain.Turn{{Role: domain.RoleUser, Text: prompt}})
	if err != nil {
		s.logger.Warn("summary generation failed", zap.Error(err))
		return truncateSummary(trimmed)
	}
	return strings.TrimSpace(answer)
}

func truncateSummary(content string) string {
	runes := []rune(content)
	if len(runes) <= summaryFallbackLen {
		return content
	}
	return string(runes[:summaryFallbackLen]) + "..."
}

var jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)

func (s *Service) sentiment(ctx context.Context, content string) domain.Sentiment {
	prompt := fmt.Sprintf("Analyze the sentiment of this text. Respond with ONLY a JSON object "+
		"with \"score\" (number from -1 to 1, where -1 is very negative, 0 is neutral, 1 is very "+
		"positive) and \"label\" (one of: \"positive\", \"neutral\", \"negative\").\n\n"+
		"Text: %s\n\nJSON:", content)
	answer, err := s.completer.Complete(ctx, []domain.Turn{{Role: domain.RoleUser, Text: prompt}})
	if err != nil {
		s.logger.Warn("sentiment analysis failed", zap.Error(err))
		return domain.NeutralSentiment()
	}

	raw := jsonObjectRe.FindString(answer)
	if raw == "" {
		return domain.NeutralSentiment()
	}
	var parsed domain.Sentiment
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		s.logger.Warn("sentiment response unparseable", zap.Error(err))
		return domain.NeutralSentiment()
	}
	if parsed.Score < -1 || parsed.Score > 1 {
		return domain.NeutralSentiment()
	}
	switch parsed.Label {
	case "positive", "neutral", "negative":
		return parsed
	default:
		return domain.NeutralSentiment()
	}
}

var jsonArrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

func (s *Service) tags(ctx context.Context, title, content string) []string {
	prompt := fmt.Sprintf("Generate 3-5 relevant tags for this college community post. Tags "+
		"should be lowercase, single words or short phrases. Respond with ONLY a JSON array of "+
		"strings.\n\nTitle: %s\nContent: %s\n\nJSON:", title, content)
	answer, err := s.completer.Complete(ctx, []domain.Turn{{Role: domain.RoleUser, Text: prompt}})
	if err != nil {
		s.logger.Warn("tag generation failed", zap.Error(err))
		return []string{}
	}

	raw := jsonArrayRe.FindString(answer)
	if raw == "" {
		return []string{}
	}
	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		s.logger.Warn("tag response unparseable", zap.Error(err))
		return []string{}
	}

	tags := make([]string, 0, maxTags)
	for _, tag := range parsed {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}
