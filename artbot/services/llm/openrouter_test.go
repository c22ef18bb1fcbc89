package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(apiKey, baseURL string) *Client {
	return NewClient(ClientConfig{
		APIKey:       apiKey,
		Model:        "openai/gpt-oss-120b:free",
		BaseURL:      baseURL,
		SystemPrompt: "You are ArtBot.",
		Referer:      "http://localhost:8000",
		AppTitle:     "Arts Festival Chatbot",
	})
}

func TestSendRequiresAPIKey(t *testing.T) {
	c := testClient("", "http://unreachable.invalid")
	_, err := c.Send(context.Background(), "hi", nil, nil, nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestSendNonStreaming(t *testing.T) {
	var captured struct {
		Model            string            `json:"model"`
		Messages         []json.RawMessage `json:"messages"`
		MaxTokens        int               `json:"max_tokens"`
		Temperature      float64           `json:"temperature"`
		Stream           bool              `json:"stream"`
		TopP             float64           `json:"top_p"`
		FrequencyPenalty float64           `json:"frequency_penalty"`
		PresencePenalty  float64           `json:"presence_penalty"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer credential, got %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "Arts Festival Chatbot" {
			t.Errorf("expected X-Title header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"final answer"}}]}`))
	}))
	defer srv.Close()

	c := testClient("test-key", srv.URL)
	history := []Message{
		{Role: RoleUser, Content: Text("earlier question")},
		{Role: RoleAssistant, Content: Text("earlier answer")},
	}
	got, err := c.Send(context.Background(), "hi", history, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "final answer" {
		t.Errorf("expected %q, got %q", "final answer", got)
	}

	if captured.Stream {
		t.Error("expected stream=false without a delta callback")
	}
	if captured.MaxTokens != 1500 || captured.Temperature != 0.7 ||
		captured.TopP != 0.9 || captured.FrequencyPenalty != 0.1 || captured.PresencePenalty != 0.1 {
		t.Errorf("unexpected sampling parameters: %+v", captured)
	}
	// system prompt + 2 history turns + new turn
	if len(captured.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(captured.Messages))
	}
}

func TestSendStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("expected stream=true with a delta callback")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n",
			"data: [DONE]\n\n",
		} {
			w.Write([]byte(frame))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := testClient("test-key", srv.URL)
	var deltas []string
	got, err := c.Send(context.Background(), "hi", nil, nil, func(d string) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello" {
		t.Errorf("expected accumulated %q, got %q", "Hello", got)
	}
	if len(deltas) != 2 || deltas[0] != "Hel" || deltas[1] != "lo" {
		t.Errorf("unexpected deltas: %v", deltas)
	}
}

func TestSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := testClient("test-key", srv.URL)
	_, err := c.Send(context.Background(), "hi", nil, nil, nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Status != http.StatusTooManyRequests || transportErr.Detail != "rate limited" {
		t.Errorf("unexpected transport error: %+v", transportErr)
	}
}

func TestSendConnectionFailureIsTransportError(t *testing.T) {
	// Port 1 is never listening.
	c := testClient("test-key", "http://127.0.0.1:1")
	_, err := c.Send(context.Background(), "hi", nil, nil, nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Status != 0 {
		t.Errorf("expected status 0 for connection failure, got %d", transportErr.Status)
	}
}

func TestSendTransportErrorUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>gateway exploded</html>"))
	}))
	defer srv.Close()

	c := testClient("test-key", srv.URL)
	_, err := c.Send(context.Background(), "hi", nil, nil, nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.Error() != "API Error: 500 - Unknown error" {
		t.Errorf("expected generic detail, got %q", transportErr.Error())
	}
}

func TestSendEmptyResponseNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := testClient("test-key", srv.URL)
	got, err := c.Send(context.Background(), "hi", nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != EmptyResponseFallback {
		t.Errorf("expected fallback text, got %q", got)
	}
}

func TestSendEmptyStreamNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	c := testClient("test-key", srv.URL)
	got, err := c.Send(context.Background(), "hi", nil, nil, func(string) {})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != EmptyResponseFallback {
		t.Errorf("expected fallback text, got %q", got)
	}
}

func TestSendWithAttachment(t *testing.T) {
	var messages []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []map[string]any `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		messages = req.Messages
		w.Write([]byte(`{"choices":[{"message":{"content":"nice picture"}}]}`))
	}))
	defer srv.Close()

	c := testClient("test-key", srv.URL)
	att := &Attachment{Name: "poster.png", MIME: "image/png", Data: []byte{1, 2, 3}}
	if _, err := c.Send(context.Background(), "what is this?", nil, att, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := messages[len(messages)-1]
	parts, ok := last["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected two-part content for image turn, got %v", last["content"])
	}
	text := parts[0].(map[string]any)
	if text["type"] != "text" || text["text"] != "what is this?" {
		t.Errorf("unexpected text part: %v", text)
	}
	image := parts[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Errorf("unexpected image part: %v", image)
	}
	url := image["image_url"].(map[string]any)["url"].(string)
	if url != "data:image/png;base64,AQID" {
		t.Errorf("unexpected data URI: %q", url)
	}
}
