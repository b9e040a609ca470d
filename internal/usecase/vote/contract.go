package vote

import (
	"context"

	"github.com/campusconnect/forum/internal/domain"
)

// Repository is the storage contract for vote mutations. ApplyVoteChange
// must apply all flagged set operations as one atomic unit.
type Repository interface {
	Get(ctx context.Context, id string) (domain.Post, error)
	VoteState(ctx context.Context, postID, userID string) (domain.VoteState, error)
	ApplyVoteChange(ctx context.Context, postID, userID string, change domain.VoteChange) error
	VoteCounts(ctx context.Context, postID string) (up, down int, err error)
}

// Notifier receives fire-and-forget event signals. Implementations own
// dedup and delivery; the ledger never learns about dispatch failures.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}
