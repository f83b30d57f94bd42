// Package handler exposes the exam service as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"examprep/internal/cache"
	"examprep/internal/exam"
	"examprep/internal/model"
	"examprep/internal/store"
	"examprep/internal/subject"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	generator *exam.Generator
	subjects  *subject.Service
	ai        exam.TextGenerator
	cache     cache.Cache
}

// New creates a new Handler.
func New(s *store.Store, g *exam.Generator, subjects *subject.Service, ai exam.TextGenerator, c cache.Cache) *Handler {
	return &Handler{store: s, generator: g, subjects: subjects, ai: ai, cache: c}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/generate_exam", h.handleGenerateExam)
	r.Post("/api/create_exam_session", h.handleCreateSession)
	r.Post("/api/start_exam", h.handleStartExam)
	r.Post("/api/save_answer", h.handleSaveAnswer)
	r.Get("/api/get_saved_answers/{sessionID}", h.handleGetSavedAnswers)
	r.Post("/api/submit_exam", h.handleSubmitExam)
	r.Get("/api/exam_records", h.handleExamRecords)
	r.Get("/api/exam_record/{sessionID}", h.handleExamRecord)

	r.Get("/api/subjects", h.handleListSubjects)
	r.Post("/api/subjects", h.handleCreateSubject)
	r.Delete("/api/subjects/{subject}", h.handleDeleteSubject)
	r.Get("/api/chapters", h.handleChapters)
	r.Get("/api/concepts", h.handleConcepts)

	r.Post("/api/explain", h.handleExplain)
	r.Post("/api/ask", h.handleAsk)
	r.Post("/api/feedback", h.handleFeedback)

	r.Get("/api/settings", h.handleGetSettings)
	r.Post("/api/settings/update", h.handleUpdateSettings)

	r.Post("/api/export_exam", h.handleExportExam)
	r.Post("/api/cache/clear", h.handleCacheClear)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{"success": false, "error": msg})
}

// storeError maps store failures onto the API's status codes.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrSessionCompleted):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("store failure", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) handleGenerateExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject  string   `json:"subject"`
		Chapters []string `json:"chapters"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subject == "" || len(req.Chapters) == 0 {
		respondError(w, http.StatusBadRequest, "subject and chapters are required")
		return
	}

	available, err := h.subjects.Available()
	if err != nil {
		slog.Error("list subjects", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !slices.Contains(available, req.Subject) {
		respondError(w, http.StatusBadRequest, "请选择有效的学科")
		return
	}

	build := exam.BuildRequest{Subject: req.Subject, Chapters: req.Chapters}
	if tm, err := h.subjects.TestModel(req.Subject); err == nil {
		build.Duration = tm.Info.Duration
		build.Difficulty = tm.Info.Difficulty
		for _, qt := range tm.Info.QuestionTypes {
			switch qt.Label {
			case "单项选择题":
				build.ChoiceCount = qt.Count
			case "判断题":
				build.JudgeCount = qt.Count
			}
		}
	} else {
		slog.Warn("no exam template, using defaults", "subject", req.Subject, "error", err)
		build.ChoiceCount = 10
		build.JudgeCount = 5
	}

	generated, err := h.generator.BuildExam(r.Context(), build)
	if errors.Is(err, exam.ErrNoQuestions) {
		respondError(w, http.StatusBadRequest, "试卷生成失败，请稍后重试")
		return
	}
	if err != nil {
		slog.Error("generate exam", "subject", req.Subject, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "exam_data": generated})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExamData    *model.Exam `json:"exam_data"`
		StudentName string      `json:"student_name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ExamData == nil || len(req.ExamData.Questions) == 0 {
		respondError(w, http.StatusBadRequest, "exam_data is required")
		return
	}

	sess, err := h.store.CreateSession(*req.ExamData, req.StudentName)
	if err != nil {
		storeError(w, err)
		return
	}
	slog.Info("session created", "session_id", sess.SessionID, "questions", sess.Exam.QuestionCount)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "session_id": sess.SessionID})
}

func (h *Handler) handleStartExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	sess, err := h.store.StartSession(req.SessionID)
	if err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"session_id": sess.SessionID,
		"start_time": sess.StartTime,
		"exam_data":  sess.Exam,
	})
}

func (h *Handler) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID     string            `json:"session_id"`
		QuestionIndex *int              `json:"question_index"`
		Answer        string            `json:"answer"`
		Answers       map[string]string `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.QuestionIndex == nil && len(req.Answers) == 0 {
		respondError(w, http.StatusBadRequest, "question_index and answer are required")
		return
	}

	// The single question_index/answer pair is the primary form; a
	// batch map may ride along with it.
	answers := req.Answers
	if req.QuestionIndex != nil {
		if answers == nil {
			answers = map[string]string{}
		}
		answers[strconv.Itoa(*req.QuestionIndex)] = req.Answer
	}

	count, err := h.store.SaveAnswers(req.SessionID, answers)
	if err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"auto_save_count": count,
		"save_time":       time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleGetSavedAnswers(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.GetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"answers":         sess.Answers,
		"auto_save_count": sess.AutoSaveCount,
		"last_save_time":  sess.LastSaveTime,
	})
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string            `json:"session_id"`
		Answers   map[string]string `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	// Fold in any answers delivered with the submission itself so a lost
	// final auto-save cannot drop them.
	if len(req.Answers) > 0 {
		if _, err := h.store.SaveAnswers(req.SessionID, req.Answers); err != nil && !errors.Is(err, store.ErrSessionCompleted) {
			storeError(w, err)
			return
		}
	}

	sess, err := h.store.GetSession(req.SessionID)
	if err != nil {
		storeError(w, err)
		return
	}

	result := exam.Score(&sess.Exam, sess.Answers)
	finalized, err := h.store.FinalizeSession(req.SessionID, result)
	if errors.Is(err, store.ErrAlreadySubmitted) {
		respondJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"already_done": true,
			"score_result": finalized.ScoreResult,
		})
		return
	}
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("exam submitted",
		"session_id", req.SessionID,
		"score", result.TotalScore,
		"percentage", result.Percentage)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"score_result": finalized.ScoreResult,
		"end_time":     finalized.EndTime,
	})
}

func (h *Handler) handleExamRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListRecords()
	if err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "records": records})
}

func (h *Handler) handleExamRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetRecord(chi.URLParam(r, "sessionID"))
	if err != nil {
		storeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "record": rec})
}
