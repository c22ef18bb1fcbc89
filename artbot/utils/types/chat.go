// artbot/utils/types/chat.go
package types

import "time"

// ChatSendRequest is one send-message call from the UI. An attached image
// arrives base64-encoded alongside its MIME type.
type ChatSendRequest struct {
	Content   string `json:"content"`
	ImageName string `json:"image_name,omitempty"`
	ImageType string `json:"image_type,omitempty"`
	ImageData string `json:"image_data,omitempty"`
}

type ChatSendResponse struct {
	Response string `json:"response"`
	ChatID   string `json:"chat_id"`
}

// ExportDocument is the point-in-time snapshot a user downloads. Field names
// follow the original export artifact format.
type ExportDocument struct {
	ExportDate time.Time       `json:"exportDate"`
	ChatTitle  string          `json:"chatTitle"`
	Messages   []ExportMessage `json:"messages"`
}

type ExportMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Rating    *int      `json:"rating,omitempty"`
	Liked     bool      `json:"liked"`
	Disliked  bool      `json:"disliked"`
}

// StreamEvent is one websocket frame during a streamed reply.
type StreamEvent struct {
	Type    string `json:"type"` // "delta", "done", "error"
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}
