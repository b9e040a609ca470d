// Package vote applies the per-(post, user) vote state machine and fires
// like and milestone notifications on upvote transitions.
package vote

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
)

// Outcome reports the result of one vote application with the
// authoritative post-mutation counts.
type Outcome struct {
	Message       string           `json:"message"`
	State         domain.VoteState `json:"state"`
	UpvoteCount   int              `json:"upvoteCount"`
	DownvoteCount int              `json:"downvoteCount"`
	NetVotes      int              `json:"netVotes"`
}

// Service is the vote ledger.
type Service struct {
	posts    Repository
	notifier Notifier
	logger   *zap.Logger
}

// New creates a vote service.
func New(posts Repository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{posts: posts, notifier: notifier, logger: logger}
}

// Apply runs one vote action for userID on postID. Validation failures
// abort before any mutation; a notification failure never rolls the
// mutation back.
func (s *Service) Apply(ctx context.Context, postID, userID string, vote domain.VoteType) (Outcome, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load post: %w", err)
	}
	if post.AuthorID == userID {
		return Outcome{}, fmt.Errorf("author %s voting on own post: %w", userID, domain.ErrSelfVote)
	}

	state, err := s.posts.VoteState(ctx, postID, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("read vote state: %w", err)
	}

	change, err := domain.Transition(state, vote)
	if err != nil {
		return Outcome{}, err
	}

	if err := s.posts.ApplyVoteChange(ctx, postID, userID, change); err != nil {
		return Outcome{}, fmt.Errorf("apply vote change: %w", err)
	}

	// Milestone detection reads the authoritative post-mutation count,
	// never a locally derived one.
	up, down, err := s.posts.VoteCounts(ctx, postID)
	if err != nil {
		return Outcome{}, fmt.Errorf("read vote counts: %w", err)
	}

	if change.EnteredUpvoted {
		s.notifier.Notify(ctx, domain.LikeNotification(post.AuthorID, userID, postID))
		if domain.IsMilestone(up) {
			s.logger.Info("upvote milestone reached",
				zap.String("post_id", postID), zap.Int("threshold", up))
			s.notifier.Notify(ctx, domain.MilestoneNotification(post.AuthorID, userID, postID, up))
		}
	}

	return Outcome{
		Message:       change.Message,
		State:         change.NewState,
		UpvoteCount:   up,
		DownvoteCount: down,
		NetVotes:      up - down,
	}, nil
}

// Status returns the caller's current vote state on a post.
func (s *Service) Status(ctx context.Context, postID, userID string) (domain.VoteState, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return "", fmt.Errorf("load post: %w", err)
	}
	state, err := s.posts.VoteState(ctx, postID, userID)
	if err != nil {
		return "", fmt.Errorf("read vote state: %w", err)
	}
	return state, nil
}
