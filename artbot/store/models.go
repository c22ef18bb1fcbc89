// artbot/store/models.go
package store

import (
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one transcript entry. Content is mutable (a streaming bot reply
// starts empty and is patched in place); everything else is set at creation.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Rating    *int      `json:"rating,omitempty"`
	Liked     bool      `json:"liked"`
	Disliked  bool      `json:"disliked"`
}

// Chat is one conversation session. Messages are append-only, in display
// order, except for in-place patches during streaming.
type Chat struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SessionSummary is the sidebar projection of a chat.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewUserMessage(content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Content:   content,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	}
}

func NewBotMessage(content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Content:   content,
		Sender:    SenderBot,
		Timestamp: time.Now(),
	}
}
