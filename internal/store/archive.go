package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"examprep/internal/model"
)

// FinalizeSession grades-in the result: marks the session completed,
// stamps the end time, and appends an immutable archive row. A second
// submission changes nothing and returns the stored result with
// ErrAlreadySubmitted.
func (s *Store) FinalizeSession(id string, result *model.ScoreResult) (*model.Session, error) {
	var finalized *model.Session
	var existing *model.ScoreResult

	err := s.updateSession(id, func(sess *model.Session) error {
		if sess.Status == model.StatusCompleted {
			existing = sess.ScoreResult
			finalized = sess
			return ErrAlreadySubmitted
		}
		sess.Status = model.StatusCompleted
		sess.EndTime = time.Now().Format(time.RFC3339)
		sess.ScoreResult = result
		finalized = sess
		return nil
	})
	if errors.Is(err, ErrAlreadySubmitted) {
		slog.Warn("duplicate submission rejected", "session_id", id)
		finalized.ScoreResult = existing
		return finalized, err
	}
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(finalized)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO records (session_id, end_time, payload) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		id, finalized.EndTime, string(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return finalized, nil
}

// ListRecords returns archive summaries, most recently finished first.
// A corrupt payload is skipped, never fatal: one bad row must not hide
// the rest of the archive.
func (s *Store) ListRecords() ([]model.RecordSummary, error) {
	rows, err := s.db.Query(`SELECT session_id, payload FROM records ORDER BY end_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []model.RecordSummary{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var sess model.Session
		if err := json.Unmarshal([]byte(payload), &sess); err != nil {
			slog.Warn("skipping corrupt exam record", "session_id", id, "error", err)
			continue
		}
		summaries = append(summaries, sess.Summary())
	}
	return summaries, rows.Err()
}

// ExportRecords loads every archived session in full, newest first, for
// the export command. Corrupt rows are skipped like in ListRecords.
func (s *Store) ExportRecords() ([]model.Session, error) {
	rows, err := s.db.Query(`SELECT session_id, payload FROM records ORDER BY end_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var sess model.Session
		if err := json.Unmarshal([]byte(payload), &sess); err != nil {
			slog.Warn("skipping corrupt exam record", "session_id", id, "error", err)
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// GetRecord loads one archived session, including its score detail.
func (s *Store) GetRecord(id string) (*model.Session, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM records WHERE session_id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &sess, nil
}
