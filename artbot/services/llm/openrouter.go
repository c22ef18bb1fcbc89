// artbot/services/llm/openrouter.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"artbot/artbot/utils/logging"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// EmptyResponseFallback replaces a provider response with no extractable text.
// Never surfaced as an error.
const EmptyResponseFallback = "I apologize, but I could not generate a response. Please try again."

// Client talks to the OpenRouter chat-completions endpoint. It holds no
// conversation state; history travels with every call.
type Client struct {
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	referer      string
	appTitle     string
	httpClient   *http.Client
}

// ClientConfig carries the provider settings. BaseURL is optional and exists
// for OpenAI-compatible endpoints other than OpenRouter (and for tests).
type ClientConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	Referer      string
	AppTitle     string
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openRouterURL
	}
	return &Client{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		baseURL:      baseURL,
		systemPrompt: cfg.SystemPrompt,
		referer:      cfg.Referer,
		appTitle:     cfg.AppTitle,
		httpClient:   &http.Client{},
	}
}

// Configured reports whether an API credential is present. Checked at startup
// so the missing-key condition is visible before the first send.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	PresencePenalty  float64   `json:"presence_penalty"`
	Stream           bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send submits one conversation turn: [system prompt, history..., new turn].
// With a non-nil onDelta it requests a streamed response, invokes onDelta per
// content delta in arrival order, and returns the accumulated text; otherwise
// it awaits a single completion object. An attachment rides on the new turn
// as an inline image part.
func (c *Client) Send(ctx context.Context, userText string, history []Message, att *Attachment, onDelta func(string)) (string, error) {
	defer logging.LogDuration(ctx, "openrouter_send")()

	if c.apiKey == "" {
		return "", &ConfigError{Reason: "OpenRouter API key is not configured. Please add your API key to the .env file."}
	}

	content := Text(userText)
	if att != nil {
		content = TextWithImage(userText, att.DataURI())
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: Text(c.systemPrompt)})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: content})

	body, err := json.Marshal(chatRequest{
		Model:            c.model,
		Messages:         messages,
		MaxTokens:        1500,
		Temperature:      0.7,
		TopP:             0.9,
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.1,
		Stream:           onDelta != nil,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", c.referer)
	httpReq.Header.Set("X-Title", c.appTitle)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// User cancelled; the caller classifies via errors.Is.
			return "", err
		}
		return "", &TransportError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		_ = json.Unmarshal(b, &errResp)
		return "", &TransportError{Status: resp.StatusCode, Detail: errResp.Error.Message}
	}

	if onDelta != nil {
		var full string
		for delta := range decodeStream(ctx, resp.Body) {
			full += delta
			onDelta(delta)
		}
		if err := ctx.Err(); err != nil {
			return full, err
		}
		if full == "" {
			return EmptyResponseFallback, nil
		}
		return full, nil
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &TransportError{Status: resp.StatusCode, Detail: "response body is not valid JSON"}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return EmptyResponseFallback, nil
	}
	return parsed.Choices[0].Message.Content, nil
}
