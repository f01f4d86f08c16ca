package models

import "time"

// ChatRole identifies who authored a conversation turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one stored turn of a user's advisory conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryIntent is the classified topic of an incoming question.
type QueryIntent string

const (
	IntentStock QueryIntent = "stock"
	IntentTax   QueryIntent = "tax"
)
