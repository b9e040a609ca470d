// Package notification persists notification records as newest-first
// per-recipient feeds and tracks delivered events for at-most-once dispatch.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusconnect/forum/internal/db"
	"github.com/campusconnect/forum/internal/domain"
)

// store is the consumer interface for notifications (ISP).
type store interface {
	db.ListStore
	db.SetStore
}

// Repo implements the notification storage contracts of the usecase layer.
type Repo struct {
	store  store
	prefix string
}

// New creates a notification repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) feedKey(recipientID string) string {
	return r.prefix + "notif:" + recipientID
}

func (r *Repo) dedupKey(recipientID string) string {
	return r.prefix + "notif:" + recipientID + ":seen"
}

// MarkDelivered records the notification's dedup key and reports whether
// this is the first delivery of the event. SADD's newly-added count is the
// atomic claim; two concurrent dispatches of the same event see 1 and 0.
func (r *Repo) MarkDelivered(ctx context.Context, n *domain.Notification) (bool, error) {
	added, err := r.store.SAdd(ctx, r.dedupKey(n.RecipientID), n.DedupKey())
	if err != nil {
		return false, fmt.Errorf("mark delivered: %w", err)
	}
	return added == 1, nil
}

// Create assigns identity and persists the notification at the head of the
// recipient's feed.
func (r *Repo) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := r.store.LPush(ctx, r.feedKey(n.RecipientID), data); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

// ListRecent returns up to limit notifications for a recipient, newest first.
func (r *Repo) ListRecent(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	raw, err := r.store.LRange(ctx, r.feedKey(recipientID), 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("range notifications: %w", err)
	}

	out := make([]domain.Notification, 0, len(raw))
	for _, data := range raw {
		var n domain.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			continue // skip corrupt entries rather than failing the feed
		}
		out = append(out, n)
	}
	return out, nil
}

// Count returns the feed length for a recipient.
func (r *Repo) Count(ctx context.Context, recipientID string) (int64, error) {
	n, err := r.store.LLen(ctx, r.feedKey(recipientID))
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}
