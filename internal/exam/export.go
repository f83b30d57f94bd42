package exam

import (
	"fmt"
	"strings"

	"examprep/internal/model"
)

// RenderText lays an exam out as a printable plain-text paper: header,
// questions grouped by type, options as lettered lines, no answers.
func RenderText(e *model.Exam) string {
	var sb strings.Builder
	sb.WriteString(e.Title + "\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&sb, "学科：%s\n", e.Subject)
	if len(e.Chapters) > 0 {
		fmt.Fprintf(&sb, "章节：%s\n", strings.Join(e.Chapters, "、"))
	}
	if e.Duration != "" {
		fmt.Fprintf(&sb, "时长：%s\n", e.Duration)
	}
	fmt.Fprintf(&sb, "总分：%g分  共%d题\n\n", e.TotalScore, e.QuestionCount)

	section := model.QuestionType("")
	num := 0
	for _, q := range e.Questions {
		if q.Type != section {
			section = q.Type
			sb.WriteString(sectionTitle(q.Type) + "\n\n")
		}
		num++
		fmt.Fprintf(&sb, "%d. （%g分）%s\n", num, q.Score, q.Content)
		for i, opt := range q.Options {
			fmt.Fprintf(&sb, "   %c. %s\n", 'A'+i, opt)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func sectionTitle(t model.QuestionType) string {
	switch t {
	case model.QuestionChoice:
		return "一、单项选择题"
	case model.QuestionJudge:
		return "二、判断题（正确选A，错误选B）"
	default:
		return "三、简答题"
	}
}
