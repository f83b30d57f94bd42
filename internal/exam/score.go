package exam

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"examprep/internal/model"
)

// Score grades a submitted answer sheet against its exam. Answers is the
// question-index-keyed map exactly as auto-saved; a missing entry counts
// as unanswered. Grading never fails: a malformed key or out-of-range
// answer earns zero for that question only.
func Score(exam *model.Exam, answers map[string]string) *model.ScoreResult {
	result := &model.ScoreResult{
		QuestionResults: make([]model.QuestionResult, 0, len(exam.Questions)),
	}

	for i, q := range exam.Questions {
		userAnswer := answers[strconv.Itoa(i)]
		qr := gradeQuestion(i, q, userAnswer)
		result.TotalScore += qr.EarnedScore
		result.FullScore += qr.FullScore
		result.QuestionResults = append(result.QuestionResults, qr)
	}

	if result.FullScore > 0 {
		result.Percentage = math.Round(result.TotalScore/result.FullScore*10000) / 100
	}
	return result
}

func gradeQuestion(index int, q model.Question, userAnswer string) model.QuestionResult {
	qr := model.QuestionResult{
		QuestionIndex: index,
		Question:      q.Content,
		FullScore:     q.Score,
		QuestionType:  q.Type,
	}

	switch q.Type {
	case model.QuestionChoice:
		gradeChoice(q, userAnswer, &qr)
	case model.QuestionJudge:
		gradeJudge(q, userAnswer, &qr)
	default:
		gradeText(q, userAnswer, &qr)
	}

	if qr.IsCorrect {
		qr.EarnedScore = q.Score
	}
	return qr
}

// gradeChoice compares the student's answer against the stored key.
// Integer keys grade by option letter. For legacy text keys, how the
// student answered decides the path: a letter resolves the key through
// the options list to an index compare, while any other answer text is
// compared against the key as trimmed raw text.
func gradeChoice(q model.Question, userAnswer string, qr *model.QuestionResult) {
	trimmed := strings.TrimSpace(userAnswer)
	userIndex, isLetter := letterIndex(userAnswer)

	if q.Answer.Kind == model.AnswerIndex {
		qr.CorrectAnswer = letterFor(q.Answer.Index)
		switch {
		case trimmed == "":
			qr.UserAnswer = "未作答"
		case isLetter:
			qr.UserAnswer = letterFor(userIndex)
			qr.IsCorrect = userIndex == q.Answer.Index
		default:
			qr.UserAnswer = userAnswer
		}
		return
	}
	if q.Answer.Kind != model.AnswerString {
		slog.Warn("choice question carries a non-choice answer key", "kind", q.Answer.Kind)
	}

	// Legacy text keys display as the raw key text, never as a letter.
	key := strings.TrimSpace(q.Answer.Text)
	qr.CorrectAnswer = key
	switch {
	case trimmed == "":
		qr.UserAnswer = "未作答"
	case isLetter:
		qr.UserAnswer = letterFor(userIndex)
		if keyIndex, ok := optionIndex(key, q.Options); ok {
			qr.IsCorrect = userIndex == keyIndex
		} else {
			qr.IsCorrect = trimmed == key
		}
	default:
		qr.UserAnswer = userAnswer
		qr.IsCorrect = trimmed == key
	}
}

// optionIndex finds the option whose trimmed text equals key.
func optionIndex(key string, options []string) (int, bool) {
	for i, opt := range options {
		if key == strings.TrimSpace(opt) {
			return i, true
		}
	}
	return 0, false
}

// letterIndex maps a single option letter (A-F, either case) to its
// index. Anything else, including empty, counts as unanswered.
func letterIndex(answer string) (int, bool) {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if len(answer) != 1 || answer[0] < 'A' || answer[0] > 'F' {
		return 0, false
	}
	return int(answer[0] - 'A'), true
}

// letterFor renders an option index in display form. Indices past F are
// shown numerically rather than as garbage bytes.
func letterFor(index int) string {
	if index >= 0 && index <= 5 {
		return string(rune('A' + index))
	}
	return strconv.Itoa(index)
}

// gradeJudge compares the student's A/B choice against the stored key.
// Bool keys are current; legacy text keys grade by uppercase-trimmed
// equality against the raw selection.
func gradeJudge(q model.Question, userAnswer string, qr *model.QuestionResult) {
	userTrue, answered := judgeSelection(userAnswer)
	switch {
	case !answered:
		qr.UserAnswer = "未作答"
	case userTrue:
		qr.UserAnswer = "正确"
	default:
		qr.UserAnswer = "错误"
	}

	switch q.Answer.Kind {
	case model.AnswerBool:
		if q.Answer.Bool {
			qr.CorrectAnswer = "正确"
		} else {
			qr.CorrectAnswer = "错误"
		}
		qr.IsCorrect = answered && userTrue == q.Answer.Bool
	default:
		key := strings.TrimSpace(q.Answer.Text)
		qr.CorrectAnswer = key
		qr.IsCorrect = answered &&
			strings.ToUpper(strings.TrimSpace(userAnswer)) == strings.ToUpper(key)
	}
}

// judgeSelection decodes the student's judge choice: A means true, B
// means false, anything else is indeterminate and graded as unanswered.
func judgeSelection(answer string) (value, answered bool) {
	switch strings.ToUpper(strings.TrimSpace(answer)) {
	case "A":
		return true, true
	case "B":
		return false, true
	}
	return false, false
}

// gradeText awards full marks for any non-empty submission. Free-text
// answers have no mechanical key; presence is the only signal.
func gradeText(q model.Question, userAnswer string, qr *model.QuestionResult) {
	trimmed := strings.TrimSpace(userAnswer)
	if trimmed == "" {
		qr.UserAnswer = "未作答"
	} else {
		qr.UserAnswer = userAnswer
		qr.IsCorrect = true
	}
	qr.CorrectAnswer = q.Answer.String()
}
