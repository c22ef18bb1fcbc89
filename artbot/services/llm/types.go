// artbot/services/llm/types.go
package llm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one provider-facing conversation turn.
type Message struct {
	Role    string      `json:"role"`
	Content TurnContent `json:"content"`
}

// TurnContent is a two-case variant: a plain text turn, or text plus an image
// data URI. It serializes as a bare string in the first case and as an ordered
// [text, image_url] part list in the second, per the OpenAI-style schema.
type TurnContent struct {
	Text     string
	ImageURL string
}

func Text(s string) TurnContent {
	return TurnContent{Text: s}
}

func TextWithImage(s, dataURI string) TurnContent {
	return TurnContent{Text: s, ImageURL: dataURI}
}

func (c TurnContent) MarshalJSON() ([]byte, error) {
	if c.ImageURL == "" {
		return json.Marshal(c.Text)
	}
	parts := []contentPart{
		{Type: "text", Text: c.Text},
		{Type: "image_url", ImageURL: &imageRef{URL: c.ImageURL}},
	}
	return json.Marshal(parts)
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

// Attachment is a user-supplied image riding along with a turn.
type Attachment struct {
	Name string
	MIME string
	Data []byte
}

// DataURI encodes the attachment the way the provider expects inline images:
// base64 bytes prefixed with the MIME type.
func (a *Attachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIME, base64.StdEncoding.EncodeToString(a.Data))
}
