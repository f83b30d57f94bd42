// Package subject manages per-subject configuration: the knowledge base
// that drives question and explanation prompts, and the exam template
// that fixes question counts and weights. Both live as JSON files under
// a subjects directory so teachers can edit them by hand.
package subject

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"examprep/internal/cache"
)

const (
	knowledgeBaseFile = "knowledgebase.json"
	testModelFile     = "testmodel.json"

	cacheTTL = 30 * time.Minute
)

// ErrInvalidName rejects subject names that would escape the subjects
// directory.
var ErrInvalidName = errors.New("invalid subject name")

// KnowledgeBase is the per-subject chapter outline.
type KnowledgeBase struct {
	Subject  string             `json:"科目"`
	Chapters map[string]Chapter `json:"章节"`
}

// Chapter lists the teachable units inside one chapter.
type Chapter struct {
	MainConcepts []string `json:"mainConcepts"`
	MainContents []string `json:"mainContents"`
}

// TestModel is the per-subject exam template.
type TestModel struct {
	Info ExamInfo `json:"考试信息"`
}

// ExamInfo fixes the exam shape for a subject.
type ExamInfo struct {
	Duration      string             `json:"总时长"`
	Difficulty    string             `json:"难度"`
	QuestionTypes []QuestionTypeSpec `json:"题型列表"`
}

// QuestionTypeSpec is one entry of the exam template's type list.
type QuestionTypeSpec struct {
	Label string  `json:"题型"`
	Count int     `json:"数量"`
	Score float64 `json:"每题分值"`
}

// ChapterFilter narrows the visible chapters of a subject. Implemented
// by the settings store; nil means no filtering.
type ChapterFilter interface {
	GetEnabledChapters(subject string) ([]string, error)
}

// TextGenerator is the AI capability used to bootstrap new subjects.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Service reads and writes subject configuration.
type Service struct {
	dir    string
	cache  cache.Cache
	filter ChapterFilter
	ai     TextGenerator
}

// New creates a subject Service rooted at dir. cache and filter may be
// nil; ai may be nil, in which case new subjects get default outlines.
func New(dir string, c cache.Cache, filter ChapterFilter, ai TextGenerator) *Service {
	return &Service{dir: dir, cache: c, filter: filter, ai: ai}
}

// Available lists the configured subjects, sorted.
func (s *Service) Available() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read subjects dir: %w", err)
	}
	subjects := []string{}
	for _, e := range entries {
		if e.IsDir() {
			subjects = append(subjects, e.Name())
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

// KnowledgeBase loads a subject's chapter outline, from cache when warm.
func (s *Service) KnowledgeBase(subject string) (*KnowledgeBase, error) {
	if err := validName(subject); err != nil {
		return nil, err
	}
	key := "kb:" + subject
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.(*KnowledgeBase), nil
		}
	}
	var kb KnowledgeBase
	if err := readJSON(s.path(subject, knowledgeBaseFile), &kb); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, &kb, cacheTTL)
	}
	return &kb, nil
}

// TestModel loads a subject's exam template, from cache when warm.
func (s *Service) TestModel(subject string) (*TestModel, error) {
	if err := validName(subject); err != nil {
		return nil, err
	}
	key := "tm:" + subject
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.(*TestModel), nil
		}
	}
	var tm TestModel
	if err := readJSON(s.path(subject, testModelFile), &tm); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(key, &tm, cacheTTL)
	}
	return &tm, nil
}

// Chapters returns the subject's chapter names, sorted, narrowed by the
// enabled-chapters setting when one is configured.
func (s *Service) Chapters(subject string) ([]string, error) {
	kb, err := s.KnowledgeBase(subject)
	if err != nil {
		return nil, err
	}
	chapters := make([]string, 0, len(kb.Chapters))
	for name := range kb.Chapters {
		chapters = append(chapters, name)
	}
	sort.Strings(chapters)

	if s.filter == nil {
		return chapters, nil
	}
	enabled, err := s.filter.GetEnabledChapters(subject)
	if err != nil {
		return nil, err
	}
	if enabled == nil {
		return chapters, nil
	}
	allow := make(map[string]bool, len(enabled))
	for _, c := range enabled {
		allow[c] = true
	}
	filtered := []string{}
	for _, c := range chapters {
		if allow[c] {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// Concepts returns the main concepts and contents of one chapter.
func (s *Service) Concepts(subject, chapter string) (concepts, contents []string, err error) {
	kb, err := s.KnowledgeBase(subject)
	if err != nil {
		return nil, nil, err
	}
	ch, ok := kb.Chapters[chapter]
	if !ok {
		return nil, nil, fmt.Errorf("chapter %q in %s: %w", chapter, subject, os.ErrNotExist)
	}
	return ch.MainConcepts, ch.MainContents, nil
}

// Create sets up a new subject directory. The knowledge base is asked
// from the AI when available; a failure there degrades to a default
// outline rather than failing the creation.
func (s *Service) Create(ctx context.Context, subject string) error {
	if err := validName(subject); err != nil {
		return err
	}
	dir := filepath.Join(s.dir, subject)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("subject %s already exists", subject)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create subject dir: %w", err)
	}

	kb := s.bootstrapKnowledgeBase(ctx, subject)
	if err := writeJSON(s.path(subject, knowledgeBaseFile), kb); err != nil {
		return err
	}
	if err := writeJSON(s.path(subject, testModelFile), defaultTestModel()); err != nil {
		return err
	}
	s.invalidate(subject)
	return nil
}

// Delete removes a subject and all its configuration.
func (s *Service) Delete(subject string) error {
	if err := validName(subject); err != nil {
		return err
	}
	dir := filepath.Join(s.dir, subject)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("subject %s: %w", subject, os.ErrNotExist)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	s.invalidate(subject)
	return nil
}

func (s *Service) bootstrapKnowledgeBase(ctx context.Context, subject string) *KnowledgeBase {
	if s.ai != nil {
		if kb, err := s.generateKnowledgeBase(ctx, subject); err == nil {
			return kb
		} else {
			slog.Warn("knowledge base generation failed, using defaults", "subject", subject, "error", err)
		}
	}
	return defaultKnowledgeBase(subject)
}

func (s *Service) invalidate(subject string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete("kb:" + subject)
	s.cache.Delete("tm:" + subject)
}

func (s *Service) path(subject, file string) string {
	return filepath.Join(s.dir, subject, file)
}

func validName(subject string) error {
	if subject == "" || strings.ContainsAny(subject, `/\`) || strings.Contains(subject, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, subject)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func defaultKnowledgeBase(subject string) *KnowledgeBase {
	return &KnowledgeBase{
		Subject: subject,
		Chapters: map[string]Chapter{
			"第一章 基础概念": {
				MainConcepts: []string{"基本定义", "发展历史", "学科体系"},
				MainContents: []string{"学科的研究对象", "学科的基本方法", "学科的应用领域"},
			},
			"第二章 核心原理": {
				MainConcepts: []string{"核心原理", "基本规律", "典型模型"},
				MainContents: []string{"原理的推导与解释", "规律的应用条件", "典型案例分析"},
			},
		},
	}
}

func defaultTestModel() *TestModel {
	return &TestModel{
		Info: ExamInfo{
			Duration:   "120分钟",
			Difficulty: "中等",
			QuestionTypes: []QuestionTypeSpec{
				{Label: "单项选择题", Count: 10, Score: 2},
				{Label: "判断题", Count: 5, Score: 1},
			},
		},
	}
}
