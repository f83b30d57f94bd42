package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"examprep/internal/llm/prompts"
	"examprep/internal/model"
	"examprep/internal/sanitize"
	"examprep/internal/store"
)

const explanationTTL = time.Hour

// handleExplain serves an AI explanation for one concept. Lookup order:
// in-memory cache, persisted explanations, then the model. Whatever the
// model returns is sanitized before it is stored or served.
func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject     string `json:"subject"`
		Chapter     string `json:"chapter"`
		Concept     string `json:"concept"`
		ConceptType string `json:"concept_type"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subject == "" || req.Chapter == "" || req.Concept == "" {
		respondError(w, http.StatusBadRequest, "subject, chapter, and concept are required")
		return
	}
	if req.ConceptType == "" {
		req.ConceptType = "concept"
	}

	key := "explain:" + req.Subject + ":" + req.Chapter + ":" + req.Concept + ":" + req.ConceptType
	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			respondJSON(w, http.StatusOK, map[string]any{"success": true, "explanation": v, "cached": true})
			return
		}
	}

	if stored, err := h.store.GetExplanation(req.Subject, req.Chapter, req.Concept, req.ConceptType); err == nil {
		if h.cache != nil {
			h.cache.Set(key, stored.Content, explanationTTL)
		}
		respondJSON(w, http.StatusOK, map[string]any{"success": true, "explanation": stored.Content, "cached": true})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		storeError(w, err)
		return
	}

	raw, err := h.ai.GenerateText(r.Context(), prompts.Explain(req.Subject, req.Chapter, req.Concept, req.ConceptType))
	if err != nil {
		slog.Error("explain generation", "subject", req.Subject, "concept", req.Concept, "error", err)
		respondError(w, http.StatusBadGateway, "讲解生成失败，请稍后重试")
		return
	}
	clean := sanitize.HTML(raw)

	if _, err := h.store.AddExplanation(model.Explanation{
		Subject:     req.Subject,
		Chapter:     req.Chapter,
		Concept:     req.Concept,
		ConceptType: req.ConceptType,
		Content:     clean,
	}); err != nil {
		slog.Warn("persist explanation", "concept", req.Concept, "error", err)
	}
	if h.cache != nil {
		h.cache.Set(key, clean, explanationTTL)
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "explanation": clean, "cached": false})
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject  string `json:"subject"`
		Chapter  string `json:"chapter"`
		Concept  string `json:"concept"`
		Question string `json:"question"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subject == "" || req.Question == "" {
		respondError(w, http.StatusBadRequest, "subject and question are required")
		return
	}

	raw, err := h.ai.GenerateText(r.Context(), prompts.Ask(req.Subject, req.Chapter, req.Concept, req.Question))
	if err != nil {
		slog.Error("ask generation", "subject", req.Subject, "error", err)
		respondError(w, http.StatusBadGateway, "回答生成失败，请稍后重试")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "answer": sanitize.HTML(raw)})
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject      string `json:"subject"`
		Chapter      string `json:"chapter"`
		Concept      string `json:"concept"`
		FeedbackType string `json:"feedback_type"`
		Content      string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	id, err := h.store.AddFeedback(model.Feedback{
		Subject:      req.Subject,
		Chapter:      req.Chapter,
		Concept:      req.Concept,
		FeedbackType: req.FeedbackType,
		Content:      req.Content,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	slog.Info("feedback received", "id", id, "type", req.FeedbackType)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (h *Handler) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		h.cache.Clear()
	}
	slog.Info("cache cleared")
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
