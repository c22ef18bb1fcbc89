package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"artbot/artbot/config"
	"artbot/artbot/controllers"
	"artbot/artbot/services/llm"
	"artbot/artbot/store"
)

func newTestRouter(t *testing.T, handler http.HandlerFunc) (http.Handler, *store.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := llm.NewClient(llm.ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	st := store.New("welcome!")
	ctrl := controllers.NewChatController(st, client)
	persona := config.Persona{QuickReplies: []config.QuickReply{
		{ID: "1", Text: "Show me today's events", Category: "schedule"},
	}}
	return ChatRoutes(ctrl, persona), st
}

func TestChatSendAndMessages(t *testing.T) {
	r, st := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"hello back"}}]}`))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader(`{"content":"hi"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Response != "hello back" {
		t.Errorf("unexpected response: %q", resp.Response)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/messages", nil))
	var page struct {
		Messages []store.Message `json:"messages"`
		Error    string          `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("invalid messages payload: %v", err)
	}
	if len(page.Messages) != 3 {
		t.Errorf("expected 3 messages, got %d", len(page.Messages))
	}
	if page.Error != "" {
		t.Errorf("unexpected error field: %q", page.Error)
	}
	if got := st.Messages(st.CurrentID()); len(got) != 3 || got[2].Content != "hello back" {
		t.Errorf("store not reconciled: %+v", got)
	}
}

func TestChatSendTransportErrorMapsToBadGateway(t *testing.T) {
	r, st := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"down"}}`))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/", strings.NewReader(`{"content":"hi"}`)))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rr.Code)
	}
	if len(st.Messages(st.CurrentID())) != 2 {
		t.Error("expected placeholder removed after failure")
	}
}

func TestExportDownload(t *testing.T) {
	r, _ := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/export", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="artbot-chat-`) {
		t.Errorf("unexpected Content-Disposition: %q", cd)
	}
	var doc struct {
		ChatTitle string `json:"chatTitle"`
		Messages  []any  `json:"messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(doc.Messages) != 1 {
		t.Errorf("expected 1 exported message, got %d", len(doc.Messages))
	}
}

func TestShareIsPlainText(t *testing.T) {
	r, _ := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/share", nil))
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected Content-Type: %q", ct)
	}
	if got := rr.Body.String(); got != "BOT: welcome!" {
		t.Errorf("unexpected share payload: %q", got)
	}
}

func TestQuickReplies(t *testing.T) {
	r, _ := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/quick-replies", nil))
	var replies []config.QuickReply
	if err := json.Unmarshal(rr.Body.Bytes(), &replies); err != nil {
		t.Fatalf("invalid quick replies payload: %v", err)
	}
	if len(replies) != 1 || replies[0].Text != "Show me today's events" {
		t.Errorf("unexpected quick replies: %+v", replies)
	}
}

func TestSessionLifecycle(t *testing.T) {
	r, st := newTestRouter(t, func(w http.ResponseWriter, req *http.Request) {})
	first := st.CurrentID()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/sessions", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var created struct {
		ChatID string `json:"chat_id"`
	}
	json.Unmarshal(rr.Body.Bytes(), &created)
	if created.ChatID == "" || st.CurrentID() != created.ChatID {
		t.Error("new chat should be current")
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/sessions/"+first+"/select", nil))
	if rr.Code != http.StatusNoContent || st.CurrentID() != first {
		t.Errorf("switch failed: code=%d current=%s", rr.Code, st.CurrentID())
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/sessions/unknown/select", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown chat, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("DELETE", "/sessions/"+created.ChatID, nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if len(st.Sessions()) != 1 {
		t.Errorf("expected 1 remaining session, got %d", len(st.Sessions()))
	}
}
