package post

import (
	"context"
	"fmt"

	"github.com/campusconnect/forum/internal/db"
	"github.com/campusconnect/forum/internal/domain"
)

// VoteState reports the caller's current vote membership for a post.
func (r *Repo) VoteState(ctx context.Context, postID, userID string) (domain.VoteState, error) {
	up, err := r.store.SMIsMember(ctx, r.upKey(postID), userID)
	if err != nil {
		return "", fmt.Errorf("check upvote membership: %w", err)
	}
	if up[0] {
		return domain.StateUpvoted, nil
	}

	down, err := r.store.SMIsMember(ctx, r.downKey(postID), userID)
	if err != nil {
		return "", fmt.Errorf("check downvote membership: %w", err)
	}
	if down[0] {
		return domain.StateDownvoted, nil
	}
	return domain.StateNone, nil
}

// ApplyVoteChange applies the transition's set mutations as one atomic
// MULTI/EXEC unit, so concurrent voters never lose updates and the mutual
// exclusion invariant holds at every point in time.
func (r *Repo) ApplyVoteChange(ctx context.Context, postID, userID string, change domain.VoteChange) error {
	update := db.SetUpdate{
		Add:    map[string][]string{},
		Remove: map[string][]string{},
	}
	if change.AddUp {
		update.Add[r.upKey(postID)] = []string{userID}
	}
	if change.RemoveUp {
		update.Remove[r.upKey(postID)] = []string{userID}
	}
	if change.AddDown {
		update.Add[r.downKey(postID)] = []string{userID}
	}
	if change.RemoveDown {
		update.Remove[r.downKey(postID)] = []string{userID}
	}

	if err := r.store.ApplySetUpdate(ctx, update); err != nil {
		return fmt.Errorf("apply vote change on %s: %w", postID, err)
	}
	return nil
}

// VoteCounts reads the authoritative post-mutation counts.
func (r *Repo) VoteCounts(ctx context.Context, postID string) (up, down int, err error) {
	up, err = r.store.SCard(ctx, r.upKey(postID))
	if err != nil {
		return 0, 0, fmt.Errorf("scard upvotes %s: %w", postID, err)
	}
	down, err = r.store.SCard(ctx, r.downKey(postID))
	if err != nil {
		return 0, 0, fmt.Errorf("scard downvotes %s: %w", postID, err)
	}
	return up, down, nil
}
