package domain

import "fmt"

// VoteType is a vote action requested by a user.
type VoteType string

// Vote actions.
const (
	VoteUp     VoteType = "upvote"
	VoteDown   VoteType = "downvote"
	VoteRemove VoteType = "remove"
)

// ParseVoteType validates a raw vote type string.
func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(s) {
	case VoteUp, VoteDown, VoteRemove:
		return VoteType(s), nil
	default:
		return "", fmt.Errorf("invalid vote type %q: %w", s, ErrValidation)
	}
}

// VoteState is the per-(post, user) vote membership state.
type VoteState string

// Vote states.
const (
	StateNone      VoteState = "none"
	StateUpvoted   VoteState = "upvoted"
	StateDownvoted VoteState = "downvoted"
)

// VoteChange describes the set mutations a transition requires. All flagged
// operations must be applied to storage as one atomic unit.
type VoteChange struct {
	AddUp      bool
	RemoveUp   bool
	AddDown    bool
	RemoveDown bool

	NewState VoteState
	Message  string

	// EnteredUpvoted marks the only transition eligible for milestone
	// detection and like-notification dispatch.
	EnteredUpvoted bool
}

// Transition computes the vote state machine step for the given current
// state and requested action. A user is a member of at most one of the
// upvote and downvote sets at any time; transitions into upvoted or
// downvoted always clear the opposite membership.
func Transition(state VoteState, vote VoteType) (VoteChange, error) {
	switch vote {
	case VoteUp:
		if state == StateUpvoted {
			return VoteChange{RemoveUp: true, NewState: StateNone, Message: "Upvote removed"}, nil
		}
		return VoteChange{
			AddUp: true, RemoveDown: true,
			NewState: StateUpvoted, Message: "Post upvoted",
			EnteredUpvoted: true,
		}, nil
	case VoteDown:
		if state == StateDownvoted {
			return VoteChange{RemoveDown: true, NewState: StateNone, Message: "Downvote removed"}, nil
		}
		return VoteChange{
			AddDown: true, RemoveUp: true,
			NewState: StateDownvoted, Message: "Post downvoted",
		}, nil
	case VoteRemove:
		// Idempotent: clearing both sets is a no-op when already none.
		return VoteChange{RemoveUp: true, RemoveDown: true, NewState: StateNone, Message: "Vote removed"}, nil
	default:
		return VoteChange{}, fmt.Errorf("invalid vote type %q: %w", vote, ErrValidation)
	}
}

// MilestoneThresholds is the ascending list of upvote counts that fire a
// milestone notification when reached from below.
var MilestoneThresholds = []int{5, 10, 25, 50, 100, 250, 500, 1000}

// IsMilestone reports whether count exactly equals a milestone threshold.
// Exact equality (not >=) keeps a climb through a threshold from firing on
// every subsequent vote.
func IsMilestone(count int) bool {
	for _, t := range MilestoneThresholds {
		if count == t {
			return true
		}
		if count < t {
			return false
		}
	}
	return false
}
