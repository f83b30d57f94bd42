package handler

import (
	"net/http"

	"examprep/internal/model"
)

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ai, err := h.store.GetAISettings()
	if err != nil {
		storeError(w, err)
		return
	}
	// The key never leaves the server; the client only learns whether
	// one is configured.
	hasKey := ai.APIKey != ""
	ai.APIKey = ""
	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"ai_model":    ai,
		"has_api_key": hasKey,
	})
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AIModel         *model.AISettings `json:"ai_model"`
		Subject         string            `json:"subject"`
		EnabledChapters []string          `json:"enabled_chapters"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AIModel == nil && req.Subject == "" {
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.AIModel != nil {
		if req.AIModel.ModelName == "" {
			respondError(w, http.StatusBadRequest, "model_name is required")
			return
		}
		if err := h.store.SetAISettings(*req.AIModel); err != nil {
			storeError(w, err)
			return
		}
	}
	if req.Subject != "" {
		if err := h.store.SetEnabledChapters(req.Subject, req.EnabledChapters); err != nil {
			storeError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
