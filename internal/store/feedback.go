package store

import (
	"database/sql"
	"errors"
	"time"

	"examprep/internal/model"
)

// AddFeedback appends one feedback entry.
func (s *Store) AddFeedback(fb model.Feedback) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO feedback (subject, chapter, concept, feedback_type, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fb.Subject, fb.Chapter, fb.Concept, fb.FeedbackType, fb.Content,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListFeedback returns all feedback entries, newest first.
func (s *Store) ListFeedback() ([]model.Feedback, error) {
	rows, err := s.db.Query(
		`SELECT id, subject, chapter, concept, feedback_type, content, created_at
		 FROM feedback ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.Feedback
	for rows.Next() {
		var fb model.Feedback
		if err := rows.Scan(&fb.ID, &fb.Subject, &fb.Chapter, &fb.Concept, &fb.FeedbackType, &fb.Content, &fb.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, fb)
	}
	return entries, rows.Err()
}

// AddExplanation persists one generated explanation.
func (s *Store) AddExplanation(e model.Explanation) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO explanations (subject, chapter, concept, concept_type, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Subject, e.Chapter, e.Concept, e.ConceptType, e.Content,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetExplanation returns the most recent stored explanation for a
// concept, or ErrNotFound.
func (s *Store) GetExplanation(subject, chapter, concept, conceptType string) (*model.Explanation, error) {
	var e model.Explanation
	err := s.db.QueryRow(
		`SELECT id, subject, chapter, concept, concept_type, content, created_at
		 FROM explanations
		 WHERE subject = ? AND chapter = ? AND concept = ? AND concept_type = ?
		 ORDER BY id DESC LIMIT 1`,
		subject, chapter, concept, conceptType,
	).Scan(&e.ID, &e.Subject, &e.Chapter, &e.Concept, &e.ConceptType, &e.Content, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
