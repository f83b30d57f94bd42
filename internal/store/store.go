// Package store persists exam sessions, archived records, settings, and
// feedback in SQLite. Each session is stored as one self-contained JSON
// payload so a row can always be read and re-graded on its own.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"examprep/internal/model"
)

var (
	// ErrNotFound is returned when a session or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSessionCompleted is returned for mutations on a submitted session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrAlreadySubmitted is returned by FinalizeSession on a double
	// submission; the existing score accompanies it.
	ErrAlreadySubmitted = errors.New("session already submitted")
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'not_started',
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		session_id TEXT PRIMARY KEY,
		end_time TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL DEFAULT '',
		chapter TEXT NOT NULL DEFAULT '',
		concept TEXT NOT NULL DEFAULT '',
		feedback_type TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS explanations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL,
		chapter TEXT NOT NULL,
		concept TEXT NOT NULL,
		concept_type TEXT NOT NULL DEFAULT 'concept',
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// NewSessionID builds an identifier that stays readable in logs and
// sorts roughly by creation time.
func NewSessionID(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("exam_%s_%s", now.Format("20060102_150405"), suffix)
}

// CreateSession persists a fresh session unit. The caller provides the
// exam; identity, status, and bookkeeping fields are set here.
func (s *Store) CreateSession(exam model.Exam, studentName string) (*model.Session, error) {
	sess := &model.Session{
		SessionID:   NewSessionID(time.Now()),
		StudentName: studentName,
		Exam:        exam,
		// Stamped now so a session submitted without an explicit start
		// still archives with a start time; StartSession re-stamps it
		// when the student actually begins.
		StartTime: time.Now().Format(time.RFC3339),
		Status:    model.StatusNotStarted,
		Answers:   map[string]string{},
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (session_id, status, payload, updated_at) VALUES (?, ?, ?, ?)`,
		sess.SessionID, sess.Status, string(payload), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession loads one session unit by id.
func (s *Store) GetSession(id string) (*model.Session, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM sessions WHERE session_id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var sess model.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// StartSession marks a session in progress and stamps its start time.
// Starting an already running session is a no-op; a completed session
// cannot be restarted.
func (s *Store) StartSession(id string) (*model.Session, error) {
	var out *model.Session
	err := s.updateSession(id, func(sess *model.Session) error {
		switch sess.Status {
		case model.StatusCompleted:
			return ErrSessionCompleted
		case model.StatusNotStarted:
			sess.Status = model.StatusInProgress
			sess.StartTime = time.Now().Format(time.RFC3339)
		}
		out = sess
		return nil
	})
	return out, err
}

// SaveAnswer records one answer by question index.
func (s *Store) SaveAnswer(id string, questionIndex int, answer string) (int, error) {
	return s.SaveAnswers(id, map[string]string{strconv.Itoa(questionIndex): answer})
}

// SaveAnswers merges the submitted answers into the session inside a
// single transaction, so concurrent auto-saves cannot drop each other's
// entries. Returns the updated auto-save count. An empty map saves
// nothing and leaves the count alone.
func (s *Store) SaveAnswers(id string, answers map[string]string) (int, error) {
	if len(answers) == 0 {
		sess, err := s.GetSession(id)
		if err != nil {
			return 0, err
		}
		if sess.Status == model.StatusCompleted {
			return 0, ErrSessionCompleted
		}
		return sess.AutoSaveCount, nil
	}

	var count int
	err := s.updateSession(id, func(sess *model.Session) error {
		if sess.Status == model.StatusCompleted {
			return ErrSessionCompleted
		}
		if sess.Answers == nil {
			sess.Answers = map[string]string{}
		}
		for k, v := range answers {
			sess.Answers[k] = v
		}
		sess.AutoSaveCount++
		sess.LastSaveTime = time.Now().Format(time.RFC3339)
		count = sess.AutoSaveCount
		return nil
	})
	return count, err
}

// updateSession runs a read-modify-write on one session unit in a
// transaction. The mutation sees the decoded session and may return an
// error to abort without writing.
func (s *Store) updateSession(id string, mutate func(*model.Session) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var payload string
	err = tx.QueryRow(`SELECT payload FROM sessions WHERE session_id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return fmt.Errorf("decode session %s: %w", id, err)
	}
	if err := mutate(&sess); err != nil {
		return err
	}

	updated, err := json.Marshal(&sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = tx.Exec(
		`UPDATE sessions SET status = ?, payload = ?, updated_at = ? WHERE session_id = ?`,
		sess.Status, string(updated), time.Now().Format(time.RFC3339), id,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}
