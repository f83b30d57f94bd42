package handler

import (
	"net/http"

	"examprep/internal/exam"
	"examprep/internal/model"
)

// handleExportExam renders an exam as a downloadable plain-text paper.
// The client may send the exam inline or reference a stored session.
func (h *Handler) handleExportExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExamData  *model.Exam `json:"exam_data"`
		SessionID string      `json:"session_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	e := req.ExamData
	if e == nil && req.SessionID != "" {
		sess, err := h.store.GetSession(req.SessionID)
		if err != nil {
			storeError(w, err)
			return
		}
		e = &sess.Exam
	}
	if e == nil || len(e.Questions) == 0 {
		respondError(w, http.StatusBadRequest, "exam_data or session_id is required")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="exam.txt"`)
	w.Write([]byte(exam.RenderText(e)))
}
