package model

// QuestionType discriminates the question union.
type QuestionType string

const (
	// QuestionChoice is a single-choice question keyed by an option index.
	QuestionChoice QuestionType = "choice"
	// QuestionJudge is a true/false question.
	QuestionJudge QuestionType = "judge"
	// QuestionText is a free-text question graded by presence only.
	QuestionText QuestionType = "text"
)

// Point weights per question type, fixed at generation time.
const (
	ChoiceScore = 2
	JudgeScore  = 1
)

// Question is one exam question. Answer carries the stored answer key in
// whichever encoding the generator (or a legacy session unit) produced.
type Question struct {
	Type       QuestionType `json:"type"`
	Content    string       `json:"question"`
	Options    []string     `json:"options,omitempty"`
	Answer     AnswerKey    `json:"answer"`
	AnswerText string       `json:"answer_text,omitempty"`
	Analysis   string       `json:"analysis"`
	Score      float64      `json:"score"`
}

// Exam is immutable once generated; it is embedded by value into exactly
// one session. TotalScore is computed once at creation and never recomputed.
type Exam struct {
	Title         string     `json:"title"`
	Subject       string     `json:"subject"`
	Chapters      []string   `json:"chapters"`
	Difficulty    string     `json:"difficulty"`
	Duration      string     `json:"duration"`
	TotalScore    float64    `json:"totalScore"`
	Questions     []Question `json:"questions"`
	QuestionCount int        `json:"questionCount"`
}

// SessionStatus represents the lifecycle state of an exam session.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// Session is one student's attempt at one generated exam instance.
// Timestamps are RFC 3339 strings so persisted units order lexicographically.
type Session struct {
	SessionID     string            `json:"session_id"`
	StudentName   string            `json:"student_name,omitempty"`
	Exam          Exam              `json:"exam_data"`
	StartTime     string            `json:"start_time"`
	EndTime       string            `json:"end_time,omitempty"`
	Status        SessionStatus     `json:"status"`
	Answers       map[string]string `json:"answers"`
	AutoSaveCount int               `json:"auto_save_count"`
	LastSaveTime  string            `json:"last_save_time,omitempty"`
	ScoreResult   *ScoreResult      `json:"score_result,omitempty"`
}

// ScoreResult is the outcome of grading a submitted session.
type ScoreResult struct {
	TotalScore      float64          `json:"total_score"`
	FullScore       float64          `json:"full_score"`
	Percentage      float64          `json:"percentage"`
	QuestionResults []QuestionResult `json:"question_results"`
}

// QuestionResult holds per-question grading detail in display form.
type QuestionResult struct {
	QuestionIndex int          `json:"question_index"`
	Question      string       `json:"question"`
	UserAnswer    string       `json:"user_answer"`
	CorrectAnswer string       `json:"correct_answer"`
	IsCorrect     bool         `json:"is_correct"`
	EarnedScore   float64      `json:"earned_score"`
	FullScore     float64      `json:"full_score"`
	QuestionType  QuestionType `json:"question_type"`
}

// RecordSummary is the projection returned by the archive listing.
type RecordSummary struct {
	SessionID   string        `json:"session_id"`
	StudentName string        `json:"student_name"`
	ExamTitle   string        `json:"exam_title"`
	Subject     string        `json:"subject"`
	StartTime   string        `json:"start_time"`
	EndTime     string        `json:"end_time"`
	Status      SessionStatus `json:"status"`
	TotalScore  float64       `json:"total_score"`
	FullScore   float64       `json:"full_score"`
	Percentage  float64       `json:"percentage"`
}

// Summary builds the archive projection for a session.
func (s *Session) Summary() RecordSummary {
	sum := RecordSummary{
		SessionID:   s.SessionID,
		StudentName: s.StudentName,
		ExamTitle:   s.Exam.Title,
		Subject:     s.Exam.Subject,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Status:      s.Status,
	}
	if sum.StudentName == "" {
		sum.StudentName = "匿名"
	}
	if sum.ExamTitle == "" {
		sum.ExamTitle = "未知试卷"
	}
	if sum.Subject == "" {
		sum.Subject = "未知学科"
	}
	if s.ScoreResult != nil {
		sum.TotalScore = s.ScoreResult.TotalScore
		sum.FullScore = s.ScoreResult.FullScore
		sum.Percentage = s.ScoreResult.Percentage
	}
	return sum
}
