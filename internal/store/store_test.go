package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"examprep/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testExam() model.Exam {
	return model.Exam{
		Title:   "地理智能试卷",
		Subject: "地理",
		Questions: []model.Question{
			{Type: model.QuestionChoice, Content: "首都", Options: []string{"北京", "上海"}, Answer: model.IndexKey(0), Score: model.ChoiceScore},
			{Type: model.QuestionJudge, Content: "地球是圆的", Answer: model.BoolKey(true), Score: model.JudgeScore},
		},
		TotalScore:    3,
		QuestionCount: 2,
	}
}

func createTestSession(t *testing.T, s *Store) *model.Session {
	t.Helper()
	sess, err := s.CreateSession(testExam(), "张三")
	if err != nil {
		t.Fatalf("createTestSession: %v", err)
	}
	return sess
}

func TestNewSessionID(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id := NewSessionID(now)
	if !strings.HasPrefix(id, "exam_20260314_092653_") {
		t.Errorf("session id = %q", id)
	}
	if id == NewSessionID(now) {
		t.Error("two ids from the same instant collided")
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	sess := createTestSession(t, s)

	if sess.Status != model.StatusNotStarted {
		t.Fatalf("new session status = %q", sess.Status)
	}
	// Stamped at creation: a session submitted without an explicit
	// start must still archive with a start time.
	if sess.StartTime == "" {
		t.Error("new session has no start time")
	}

	got, err := s.GetSession(sess.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.StudentName != "张三" {
		t.Errorf("student name = %q", got.StudentName)
	}
	if got.Exam.QuestionCount != 2 {
		t.Errorf("question count = %d", got.Exam.QuestionCount)
	}

	started, err := s.StartSession(sess.SessionID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if started.Status != model.StatusInProgress {
		t.Errorf("status after start = %q", started.Status)
	}
	if started.StartTime == "" {
		t.Error("start time not stamped")
	}

	// Starting again is a no-op, not an error.
	again, err := s.StartSession(sess.SessionID)
	if err != nil {
		t.Fatalf("second StartSession: %v", err)
	}
	if again.StartTime != started.StartTime {
		t.Error("restart changed the start time")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSession("exam_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSaveAnswers(t *testing.T) {
	s := newTestStore(t)
	sess := createTestSession(t, s)

	count, err := s.SaveAnswer(sess.SessionID, 0, "A")
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if count != 1 {
		t.Errorf("auto-save count = %d, want 1", count)
	}

	// A second save merges without dropping the first answer.
	count, err = s.SaveAnswers(sess.SessionID, map[string]string{"1": "B"})
	if err != nil {
		t.Fatalf("second SaveAnswers: %v", err)
	}
	if count != 2 {
		t.Errorf("auto-save count = %d, want 2", count)
	}

	got, err := s.GetSession(sess.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Answers["0"] != "A" || got.Answers["1"] != "B" {
		t.Errorf("answers = %v", got.Answers)
	}
	if got.LastSaveTime == "" {
		t.Error("last save time not stamped")
	}
}

func TestSaveAnswersEmptyIsNoOp(t *testing.T) {
	s := newTestStore(t)
	sess := createTestSession(t, s)

	if _, err := s.SaveAnswer(sess.SessionID, 0, "A"); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}

	count, err := s.SaveAnswers(sess.SessionID, nil)
	if err != nil {
		t.Fatalf("empty SaveAnswers: %v", err)
	}
	if count != 1 {
		t.Errorf("empty save bumped the count to %d", count)
	}
}

func TestSaveAnswersOnCompletedSession(t *testing.T) {
	s := newTestStore(t)
	sess := createTestSession(t, s)
	if _, err := s.FinalizeSession(sess.SessionID, &model.ScoreResult{}); err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}

	if _, err := s.SaveAnswers(sess.SessionID, map[string]string{"0": "A"}); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("error = %v, want ErrSessionCompleted", err)
	}
}

func TestFinalizeSession(t *testing.T) {
	s := newTestStore(t)
	sess := createTestSession(t, s)

	result := &model.ScoreResult{TotalScore: 3, FullScore: 3, Percentage: 100}
	finalized, err := s.FinalizeSession(sess.SessionID, result)
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	if finalized.Status != model.StatusCompleted {
		t.Errorf("status = %q", finalized.Status)
	}
	if finalized.EndTime == "" {
		t.Error("end time not stamped")
	}

	// The archive row exists and round-trips.
	rec, err := s.GetRecord(sess.SessionID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.ScoreResult == nil || rec.ScoreResult.Percentage != 100 {
		t.Errorf("archived score = %+v", rec.ScoreResult)
	}
}

func TestFinalizeSessionTwice(t *testing.T) {
	s := newTestStore(t)
	sess := createTestSession(t, s)

	first := &model.ScoreResult{TotalScore: 3, FullScore: 3, Percentage: 100}
	if _, err := s.FinalizeSession(sess.SessionID, first); err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}

	second := &model.ScoreResult{TotalScore: 0, FullScore: 3}
	got, err := s.FinalizeSession(sess.SessionID, second)
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("error = %v, want ErrAlreadySubmitted", err)
	}
	if got.ScoreResult == nil || got.ScoreResult.Percentage != 100 {
		t.Errorf("double submission returned %+v, want the original score", got.ScoreResult)
	}
}

func TestFinalizeUnknownSession(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.FinalizeSession("exam_missing", &model.ScoreResult{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	records, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("failed finalize left %d records", len(records))
	}
}

func TestListRecordsOrderAndCorruption(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		sess := createTestSession(t, s)
		if _, err := s.FinalizeSession(sess.SessionID, &model.ScoreResult{}); err != nil {
			t.Fatalf("FinalizeSession: %v", err)
		}
		ids = append(ids, sess.SessionID)
	}

	// Force distinct, known end times so the ordering is observable.
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range ids {
		et := base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
		if _, err := s.db.Exec(`UPDATE records SET end_time = ? WHERE session_id = ?`, et, id); err != nil {
			t.Fatalf("update end_time: %v", err)
		}
	}

	records, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// Latest end time first.
	if records[0].SessionID != ids[2] || records[2].SessionID != ids[0] {
		t.Errorf("record order = %v, want newest first", []string{records[0].SessionID, records[1].SessionID, records[2].SessionID})
	}

	// A corrupt payload is skipped, not fatal.
	if _, err := s.db.Exec(`UPDATE records SET payload = '{broken' WHERE session_id = ?`, ids[1]); err != nil {
		t.Fatalf("corrupt record: %v", err)
	}
	records, err = s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords with corrupt row: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records after corruption, want 2", len(records))
	}
}

func TestGetRecordNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRecord("exam_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRecordSummaryFallbacks(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.CreateSession(model.Exam{}, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := s.FinalizeSession(sess.SessionID, &model.ScoreResult{}); err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}

	records, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	r := records[0]
	if r.StudentName != "匿名" || r.ExamTitle != "未知试卷" || r.Subject != "未知学科" {
		t.Errorf("summary fallbacks = %+v", r)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	if v, err := s.GetSetting("missing"); err != nil || v != "" {
		t.Errorf("GetSetting(missing) = %q, %v", v, err)
	}

	if err := s.SetSetting("k", "v1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting("k", "v2"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}
	if v, _ := s.GetSetting("k"); v != "v2" {
		t.Errorf("GetSetting = %q, want v2", v)
	}

	ai := model.AISettings{Type: "openai", ModelName: "gpt-4o-mini", APIKey: "sk-test", BaseURL: "https://api.example.com/v1"}
	if err := s.SetAISettings(ai); err != nil {
		t.Fatalf("SetAISettings: %v", err)
	}
	got, err := s.GetAISettings()
	if err != nil {
		t.Fatalf("GetAISettings: %v", err)
	}
	if got != ai {
		t.Errorf("GetAISettings = %+v, want %+v", got, ai)
	}
}

func TestEnabledChapters(t *testing.T) {
	s := newTestStore(t)

	if chapters, err := s.GetEnabledChapters("地理"); err != nil || chapters != nil {
		t.Errorf("unset allow-list = %v, %v", chapters, err)
	}

	want := []string{"中国地理", "世界地理"}
	if err := s.SetEnabledChapters("地理", want); err != nil {
		t.Fatalf("SetEnabledChapters: %v", err)
	}
	got, err := s.GetEnabledChapters("地理")
	if err != nil {
		t.Fatalf("GetEnabledChapters: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("chapters = %v, want %v", got, want)
	}

	// Clearing removes the restriction.
	if err := s.SetEnabledChapters("地理", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if chapters, _ := s.GetEnabledChapters("地理"); chapters != nil {
		t.Errorf("cleared allow-list = %v", chapters)
	}
}

func TestFeedback(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddFeedback(model.Feedback{Subject: "地理", FeedbackType: "error", Content: "题目有误"})
	if err != nil {
		t.Fatalf("AddFeedback: %v", err)
	}
	if id == 0 {
		t.Error("feedback id = 0")
	}

	entries, err := s.ListFeedback()
	if err != nil {
		t.Fatalf("ListFeedback: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "题目有误" {
		t.Errorf("feedback entries = %+v", entries)
	}
}

func TestExplanations(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetExplanation("地理", "中国地理", "长江", "concept"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	if _, err := s.AddExplanation(model.Explanation{Subject: "地理", Chapter: "中国地理", Concept: "长江", ConceptType: "concept", Content: "<p>旧</p>"}); err != nil {
		t.Fatalf("AddExplanation: %v", err)
	}
	if _, err := s.AddExplanation(model.Explanation{Subject: "地理", Chapter: "中国地理", Concept: "长江", ConceptType: "concept", Content: "<p>新</p>"}); err != nil {
		t.Fatalf("AddExplanation: %v", err)
	}

	got, err := s.GetExplanation("地理", "中国地理", "长江", "concept")
	if err != nil {
		t.Fatalf("GetExplanation: %v", err)
	}
	if got.Content != "<p>新</p>" {
		t.Errorf("content = %q, want the most recent", got.Content)
	}
}
