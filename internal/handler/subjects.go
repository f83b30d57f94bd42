package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"examprep/internal/subject"
)

func (h *Handler) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjects.Available()
	if err != nil {
		slog.Error("list subjects", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "subjects": subjects})
}

func (h *Handler) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.subjects.Create(r.Context(), req.Subject)
	switch {
	case errors.Is(err, subject.ErrInvalidName):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Info("subject created", "subject", req.Subject)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "subject": req.Subject})
}

func (h *Handler) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "subject")
	err := h.subjects.Delete(name)
	switch {
	case errors.Is(err, subject.ErrInvalidName):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, os.ErrNotExist):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		slog.Error("delete subject", "subject", name, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("subject deleted", "subject", name)
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleChapters(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("subject")
	if name == "" {
		respondError(w, http.StatusBadRequest, "subject is required")
		return
	}
	chapters, err := h.subjects.Chapters(name)
	if err != nil {
		subjectError(w, name, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "chapters": chapters})
}

func (h *Handler) handleConcepts(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("subject")
	chapter := r.URL.Query().Get("chapter")
	if name == "" || chapter == "" {
		respondError(w, http.StatusBadRequest, "subject and chapter are required")
		return
	}
	concepts, contents, err := h.subjects.Concepts(name, chapter)
	if err != nil {
		subjectError(w, name, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"mainConcepts": concepts,
		"mainContents": contents,
	})
}

func subjectError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, subject.ErrInvalidName):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, os.ErrNotExist):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("subject config", "subject", name, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
