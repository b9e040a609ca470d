package notify

import (
	"context"

	"github.com/campusconnect/forum/internal/domain"
)

// Pusher delivers a notification to one live session.
type Pusher interface {
	Push(n domain.Notification) error
}

// Repository persists notification records and the delivery dedup set.
type Repository interface {
	MarkDelivered(ctx context.Context, n *domain.Notification) (bool, error)
	Create(ctx context.Context, n *domain.Notification) error
	ListRecent(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error)
	Count(ctx context.Context, recipientID string) (int64, error)
}

// SessionLookup resolves the live sessions of a recipient.
type SessionLookup interface {
	Lookup(userID string) []Pusher
}
