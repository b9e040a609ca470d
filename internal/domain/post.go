package domain

import (
	"fmt"
	"strings"
	"time"
)

// Content limits for posts.
const (
	MaxTitleLen   = 200
	MaxContentLen = 5000
)

// Departments a post can be scoped to. DepartmentGeneral means unscoped:
// it never narrows a retrieval filter.
const DepartmentGeneral = "General"

var departments = map[string]bool{
	"Computer":        true,
	"IT":              true,
	"Mechanical":      true,
	"Civil":           true,
	"Electronics":     true,
	"Electrical":      true,
	DepartmentGeneral: true,
}

// ValidDepartment reports whether dept is a known department tag.
func ValidDepartment(dept string) bool { return departments[dept] }

// Sentiment is a best-effort sentiment classification of post content.
type Sentiment struct {
	Score float64 `json:"score"` // -1 (negative) .. 1 (positive)
	Label string  `json:"label"` // positive, neutral, negative
}

// NeutralSentiment is the fallback when sentiment analysis is unavailable.
func NeutralSentiment() Sentiment { return Sentiment{Score: 0, Label: "neutral"} }

// Post is a forum post. The embedding is absent until generated; absence
// excludes the post from retrieval candidate pools, never from CRUD reads.
// Vote sets live in storage; only the derived counts are carried here.
type Post struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	AuthorName    string    `json:"authorName"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Department    string    `json:"department"`
	Summary       string    `json:"summary,omitempty"`
	Sentiment     Sentiment `json:"sentiment"`
	Tags          []string  `json:"tags,omitempty"`
	Embedding     []float32 `json:"embedding,omitempty"`
	UpvoteCount   int       `json:"upvoteCount"`
	DownvoteCount int       `json:"downvoteCount"`
	NetVotes      int       `json:"netVotes"`
	CommentCount  int       `json:"commentCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate checks the writable fields against content limits.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required: %w", ErrValidation)
	}
	if len(p.Title) > MaxTitleLen {
		return fmt.Errorf("title exceeds %d characters: %w", MaxTitleLen, ErrValidation)
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("content is required: %w", ErrValidation)
	}
	if len(p.Content) > MaxContentLen {
		return fmt.Errorf("content exceeds %d characters: %w", MaxContentLen, ErrValidation)
	}
	if p.AuthorID == "" {
		return fmt.Errorf("author is required: %w", ErrValidation)
	}
	if !ValidDepartment(p.Department) {
		return fmt.Errorf("unknown department %q: %w", p.Department, ErrValidation)
	}
	return nil
}

// HasEmbedding reports whether the post is part of the retrieval corpus.
func (p *Post) HasEmbedding() bool { return len(p.Embedding) > 0 }

// EmbeddingText is the canonical text a post embedding is generated from.
func EmbeddingText(title, content string) string { return title + "\n\n" + content }

// EmbeddingText returns the canonical embedding input for this post.
func (p *Post) EmbeddingText() string { return EmbeddingText(p.Title, p.Content) }

// SetVoteCounts attaches the vote counters and the derived net score.
func (p *Post) SetVoteCounts(up, down int) {
	p.UpvoteCount = up
	p.DownvoteCount = down
	p.NetVotes = up - down
}
