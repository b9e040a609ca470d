// Package notify persists notification events and pushes them to live
// sessions. Delivery is at-most-once per logical event and best-effort:
// callers never see a dispatch failure.
package notify

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/domain"
	"github.com/campusconnect/forum/internal/metrics"
)

// Dispatcher is the single sink for "this event happened" signals.
type Dispatcher struct {
	repo     Repository
	sessions SessionLookup
	logger   *zap.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(repo Repository, sessions SessionLookup, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, sessions: sessions, logger: logger}
}

// Notify delivers one event: claims the dedup slot, persists the record
// and pushes to every live session of the recipient. Duplicate events
// and all delivery failures are swallowed; only the first claim of an
// event results in a stored record.
func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) {
	first, err := d.repo.MarkDelivered(ctx, &n)
	if err != nil {
		d.logger.Warn("notification dedup check failed",
			zap.String("key", n.DedupKey()), zap.Error(err))
		return
	}
	if !first {
		return
	}

	if err := d.repo.Create(ctx, &n); err != nil {
		d.logger.Warn("notification persist failed",
			zap.String("recipient", n.RecipientID), zap.Error(err))
		return
	}

	if n.Type == domain.NotifyMilestone {
		metrics.MilestonesFiredTotal.WithLabelValues(strconv.Itoa(n.Threshold)).Inc()
	}

	for _, p := range d.sessions.Lookup(n.RecipientID) {
		if err := p.Push(n); err != nil {
			d.logger.Debug("session push failed",
				zap.String("recipient", n.RecipientID), zap.Error(err))
		}
	}
}

// Recent returns the latest notifications for a recipient.
func (d *Dispatcher) Recent(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	return d.repo.ListRecent(ctx, recipientID, limit)
}

// Count returns the total stored notifications for a recipient.
func (d *Dispatcher) Count(ctx context.Context, recipientID string) (int64, error) {
	return d.repo.Count(ctx, recipientID)
}
