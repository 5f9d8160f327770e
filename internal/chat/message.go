package chat

import "time"

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TimestampFormat is the wall-clock format stored with each message
const TimestampFormat = "15:04:05"

// Message is a single entry in a session's log. Messages are append-only:
// once stored they are never reordered or mutated.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewMessage creates a message stamped with the current wall-clock time
func NewMessage(role Role, content string, now time.Time) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: now.Format(TimestampFormat),
	}
}
