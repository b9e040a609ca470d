package domain

import (
	"fmt"
	"time"
)

// NotificationType classifies a notification event.
type NotificationType string

// Notification types.
const (
	NotifyLike      NotificationType = "like"
	NotifyMilestone NotificationType = "milestone"
)

// Notification is a persisted "this event happened" record for a user.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	SenderID    string           `json:"senderId"`
	Type        NotificationType `json:"type"`
	PostID      string           `json:"postId,omitempty"`
	Content     string           `json:"content"`
	Threshold   int              `json:"threshold,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// DedupKey identifies the logical event behind a notification. Two
// notifications with the same key are the same event; the dispatcher
// delivers each event at most once.
func (n *Notification) DedupKey() string {
	switch n.Type {
	case NotifyMilestone:
		// Each (post, threshold) pair maps to a distinct key.
		return fmt.Sprintf("%s:%s:%d", n.Type, n.PostID, n.Threshold)
	default:
		return fmt.Sprintf("%s:%s:%s", n.Type, n.SenderID, n.PostID)
	}
}

// MilestoneNotification builds the notification for a post reaching an
// upvote threshold.
func MilestoneNotification(recipientID, senderID, postID string, threshold int) Notification {
	return Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        NotifyMilestone,
		PostID:      postID,
		Content:     fmt.Sprintf("Your post reached %d upvotes!", threshold),
		Threshold:   threshold,
	}
}

// LikeNotification builds the notification for an upvote on a post.
func LikeNotification(recipientID, senderID, postID string) Notification {
	return Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        NotifyLike,
		PostID:      postID,
		Content:     "liked your post",
	}
}
