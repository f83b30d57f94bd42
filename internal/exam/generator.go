// Package exam turns raw LLM output into typed exams and grades
// submitted answer sheets against them.
package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"examprep/internal/llm/prompts"
	"examprep/internal/model"
)

// ErrNoQuestions signals total generation failure: the model produced no
// usable questions for a batch. Callers degrade, they do not crash.
var ErrNoQuestions = errors.New("no usable questions generated")

// TextGenerator is the AI capability the generator consumes.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// TextGeneratorFunc adapts a function to the TextGenerator interface.
type TextGeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f TextGeneratorFunc) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Generator builds exams from LLM question batches.
type Generator struct {
	ai TextGenerator
}

// NewGenerator creates a Generator backed by the given text capability.
func NewGenerator(ai TextGenerator) *Generator {
	return &Generator{ai: ai}
}

// BuildRequest describes one exam to assemble.
type BuildRequest struct {
	Subject     string
	Chapters    []string
	Difficulty  string
	Duration    string
	ChoiceCount int
	JudgeCount  int
}

// BuildExam generates each requested question type, assembles the exam,
// and computes the total score once. A failed batch for one type is
// skipped; ErrNoQuestions is returned only when nothing at all came back.
func (g *Generator) BuildExam(ctx context.Context, req BuildRequest) (*model.Exam, error) {
	var questions []model.Question

	if req.ChoiceCount > 0 {
		batch, err := g.Questions(ctx, req.Chapters, model.QuestionChoice, req.ChoiceCount)
		if err != nil {
			slog.Warn("choice batch failed", "subject", req.Subject, "requested", req.ChoiceCount, "error", err)
		}
		questions = append(questions, batch...)
	}
	if req.JudgeCount > 0 {
		batch, err := g.Questions(ctx, req.Chapters, model.QuestionJudge, req.JudgeCount)
		if err != nil {
			slog.Warn("judge batch failed", "subject", req.Subject, "requested", req.JudgeCount, "error", err)
		}
		questions = append(questions, batch...)
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	var total float64
	for _, q := range questions {
		total += q.Score
	}

	duration := req.Duration
	if duration == "" {
		duration = "120分钟"
	}

	exam := &model.Exam{
		Title:         req.Subject + "智能试卷",
		Subject:       req.Subject,
		Chapters:      req.Chapters,
		Difficulty:    req.Difficulty,
		Duration:      duration,
		TotalScore:    total,
		Questions:     questions,
		QuestionCount: len(questions),
	}
	slog.Info("exam assembled",
		"subject", req.Subject,
		"questions", exam.QuestionCount,
		"total_score", exam.TotalScore)
	return exam, nil
}

// Questions generates up to count questions of one type. The model's
// output is parsed leniently: direct JSON, JSON buried in prose, or
// fenced JSON all work; anything else yields ErrNoQuestions. Invalid
// candidates are dropped without failing the batch.
func (g *Generator) Questions(ctx context.Context, chapters []string, qtype model.QuestionType, count int) ([]model.Question, error) {
	label := prompts.TypeChoiceLabel
	if qtype == model.QuestionJudge {
		label = prompts.TypeJudgeLabel
	}

	resp, err := g.ai.GenerateText(ctx, prompts.Questions(chapters, label, count))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoQuestions, err)
	}
	if strings.TrimSpace(resp) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrNoQuestions)
	}

	candidates, err := parseQuestionArray(resp)
	if err != nil {
		return nil, err
	}

	var questions []model.Question
	for i, c := range candidates {
		q, ok := buildQuestion(c, qtype)
		if !ok {
			slog.Warn("dropping invalid question candidate", "index", i, "type", qtype)
			continue
		}
		questions = append(questions, q)
		if len(questions) == count {
			break
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: all candidates invalid", ErrNoQuestions)
	}

	slog.Info("generated questions", "type", qtype, "requested", count, "valid", len(questions))
	return questions, nil
}

// rawQuestion is one candidate object from the model's JSON array.
// Fields are raw so a missing key is distinguishable from an empty one.
type rawQuestion struct {
	Content  *string  `json:"content"`
	Options  []string `json:"options"`
	Answer   *string  `json:"answer"`
	Analysis *string  `json:"analysis"`
}

// parseQuestionArray extracts the JSON array from the model output.
// Fallback order: as-is, fences stripped, then the first-[ to last-]
// substring.
func parseQuestionArray(resp string) ([]json.RawMessage, error) {
	attempts := []string{resp, stripFences(resp)}
	if start, end := strings.Index(resp, "["), strings.LastIndex(resp, "]"); start >= 0 && end > start {
		attempts = append(attempts, resp[start:end+1])
	}

	for _, s := range attempts {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			if len(arr) == 0 {
				return nil, fmt.Errorf("%w: empty array", ErrNoQuestions)
			}
			return arr, nil
		}
	}
	return nil, fmt.Errorf("%w: no JSON array in response", ErrNoQuestions)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// buildQuestion validates one candidate and normalizes its answer into
// the typed encoding for its question type.
func buildQuestion(raw json.RawMessage, qtype model.QuestionType) (model.Question, bool) {
	var c rawQuestion
	if err := json.Unmarshal(raw, &c); err != nil {
		return model.Question{}, false
	}
	if c.Content == nil || c.Answer == nil || c.Analysis == nil {
		return model.Question{}, false
	}
	if qtype == model.QuestionChoice && len(c.Options) == 0 {
		return model.Question{}, false
	}

	q := model.Question{
		Type:       qtype,
		Content:    *c.Content,
		Analysis:   *c.Analysis,
		AnswerText: *c.Answer,
	}

	switch qtype {
	case model.QuestionChoice:
		q.Options = c.Options
		q.Answer = model.IndexKey(resolveOptionIndex(*c.Answer, c.Options))
		q.Score = model.ChoiceScore
	case model.QuestionJudge:
		q.Answer = model.BoolKey(classifyJudgeAnswer(*c.Answer))
		q.Score = model.JudgeScore
	default:
		q.Answer = model.TextKey(*c.Answer)
		q.Score = model.ChoiceScore
	}
	return q, true
}

// resolveOptionIndex maps the model's answer text to an option index:
// exact trimmed match first, then substring in either direction, then
// index 0 as the historical default.
func resolveOptionIndex(answer string, options []string) int {
	answer = strings.TrimSpace(answer)
	for i, opt := range options {
		if answer == strings.TrimSpace(opt) {
			return i
		}
	}
	if answer != "" {
		for i, opt := range options {
			opt = strings.TrimSpace(opt)
			if opt != "" && (strings.Contains(answer, opt) || strings.Contains(opt, answer)) {
				return i
			}
		}
	}
	slog.Warn("choice answer matches no option, defaulting to first", "answer", answer)
	return 0
}

var (
	falseWords = []string{"错误", "不正确", "不对", "false", "错", "否"}
	trueWords  = []string{"正确", "对的", "true", "对", "是"}
)

// classifyJudgeAnswer maps the model's answer text to a boolean key.
// Unrecognized text defaults to true; that mirrors the historical
// behavior and is logged so bad batches are visible.
func classifyJudgeAnswer(answer string) bool {
	lower := strings.ToLower(strings.TrimSpace(answer))
	for _, w := range falseWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	for _, w := range trueWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	slog.Warn("judge answer has no recognizable keyword, defaulting to true", "answer", answer)
	return true
}
