package domain

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a chat conversation. Turns are supplied by
// the caller per request and never persisted by the core.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
