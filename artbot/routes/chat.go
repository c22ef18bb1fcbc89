// artbot/routes/chat.go
package routes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"artbot/artbot/config"
	"artbot/artbot/controllers"
	"artbot/artbot/services/llm"
	httputils "artbot/artbot/utils/http"
	"artbot/artbot/utils/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

func ChatRoutes(ctrl *controllers.ChatController, persona config.Persona) chi.Router {
	r := chi.NewRouter()

	// POST /chat/ : send a message, await the complete reply
	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		var body types.ChatSendRequest
		if err := httputils.ReadJSON(req, &body); err != nil {
			httputils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		att, err := attachmentFrom(body)
		if err != nil {
			httputils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp, err := ctrl.Send(req.Context(), body.Content, att)
		if err != nil {
			writeSendError(w, err)
			return
		}
		httputils.WriteJSON(w, http.StatusOK, types.ChatSendResponse{Response: resp})
	})

	// GET /chat/messages : current chat transcript
	r.Get("/messages", func(w http.ResponseWriter, req *http.Request) {
		httputils.WriteJSON(w, http.StatusOK, map[string]any{
			"messages": ctrl.Messages(),
			"typing":   ctrl.Typing(),
			"error":    ctrl.Error(),
		})
	})

	// GET /chat/sessions : sidebar thread list
	r.Get("/sessions", func(w http.ResponseWriter, req *http.Request) {
		httputils.WriteJSON(w, http.StatusOK, ctrl.Sessions())
	})

	// POST /chat/sessions : new chat, marked current
	r.Post("/sessions", func(w http.ResponseWriter, req *http.Request) {
		id := ctrl.NewChat()
		httputils.WriteJSON(w, http.StatusCreated, map[string]string{"chat_id": id})
	})

	// POST /chat/sessions/{id}/select : switch current chat
	r.Post("/sessions/{id}/select", func(w http.ResponseWriter, req *http.Request) {
		if !ctrl.SwitchChat(chi.URLParam(req, "id")) {
			httputils.WriteError(w, http.StatusNotFound, "chat not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// DELETE /chat/sessions/{id} : delete a chat (current heals itself)
	r.Delete("/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
		ctrl.DeleteChat(chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	// PUT /chat/sessions/{id}/title : rename a chat
	r.Put("/sessions/{id}/title", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Title string `json:"title"`
		}
		if err := httputils.ReadJSON(req, &body); err != nil {
			httputils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctrl.SetTitle(chi.URLParam(req, "id"), body.Title)
		w.WriteHeader(http.StatusNoContent)
	})

	// POST /chat/messages/{id}/rate
	r.Post("/messages/{id}/rate", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Rating int `json:"rating"`
		}
		if err := httputils.ReadJSON(req, &body); err != nil {
			httputils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctrl.Rate(chi.URLParam(req, "id"), body.Rating)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/messages/{id}/like", func(w http.ResponseWriter, req *http.Request) {
		ctrl.Like(chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/messages/{id}/dislike", func(w http.ResponseWriter, req *http.Request) {
		ctrl.Dislike(chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	// POST /chat/clear : cancel in-flight request, reset current chat
	r.Post("/clear", func(w http.ResponseWriter, req *http.Request) {
		ctrl.Clear()
		w.WriteHeader(http.StatusNoContent)
	})

	// GET /chat/export : point-in-time JSON snapshot download
	r.Get("/export", func(w http.ResponseWriter, req *http.Request) {
		doc := ctrl.Export()
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			httputils.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		filename := fmt.Sprintf("artbot-chat-%s.json", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Write(data)
	})

	// GET /chat/share : flat text for the share sheet / clipboard
	r.Get("/share", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(ctrl.Share()))
	})

	// GET /chat/quick-replies : canned starter prompts from the persona
	r.Get("/quick-replies", func(w http.ResponseWriter, req *http.Request) {
		httputils.WriteJSON(w, http.StatusOK, persona.QuickReplies)
	})

	// GET /chat/ws : websocket streaming send
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := req.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var body types.ChatSendRequest
		if err := json.Unmarshal(data, &body); err != nil {
			writeEvent(ctx, conn, types.StreamEvent{Type: "error", Error: "invalid json"})
			return
		}
		att, err := attachmentFrom(body)
		if err != nil {
			writeEvent(ctx, conn, types.StreamEvent{Type: "error", Error: err.Error()})
			return
		}

		ch, errCh := ctrl.SendStream(ctx, body.Content, att)
		for delta := range ch {
			if err := writeEvent(ctx, conn, types.StreamEvent{Type: "delta", Content: delta}); err != nil {
				return
			}
		}
		if err := <-errCh; err != nil {
			writeEvent(ctx, conn, types.StreamEvent{Type: "error", Error: err.Error()})
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		writeEvent(ctx, conn, types.StreamEvent{Type: "done"})
		conn.Close(websocket.StatusNormalClosure, "")
	})

	return r
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev types.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func attachmentFrom(body types.ChatSendRequest) (*llm.Attachment, error) {
	if body.ImageData == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(body.ImageData)
	if err != nil {
		return nil, fmt.Errorf("invalid image data: %w", err)
	}
	mime := body.ImageType
	if mime == "" {
		mime = "image/png"
	}
	return &llm.Attachment{Name: body.ImageName, MIME: mime, Data: raw}, nil
}

func writeSendError(w http.ResponseWriter, err error) {
	var cfgErr *llm.ConfigError
	var transportErr *llm.TransportError
	switch {
	case errors.Is(err, controllers.ErrBusy):
		httputils.WriteError(w, http.StatusConflict, err.Error())
	case errors.As(err, &cfgErr):
		httputils.WriteError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &transportErr):
		httputils.WriteError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled):
		// User cancelled; not an error.
		httputils.WriteJSON(w, http.StatusOK, types.ChatSendResponse{})
	default:
		httputils.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
