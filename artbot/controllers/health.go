package controllers

import (
	"encoding/json"
	"net/http"

	"artbot/artbot/services/llm"
)

type HealthController struct {
	client *llm.Client
}

func NewHealthController(client *llm.Client) *HealthController {
	return &HealthController{client: client}
}

// HealthCheck reports liveness plus whether a provider credential is
// configured, so the UI can warn before the first send is ever attempted.
func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"configured": h.client.Configured(),
	})
}
