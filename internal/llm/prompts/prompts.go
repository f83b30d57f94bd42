// Package prompts builds the prompt strings sent to the LLM. Prompts are
// written in Chinese to match the subject material; the JSON contracts
// embedded in them are what the generator parses on the way back.
package prompts

import (
	"fmt"
	"strings"
)

// Question-type labels as the exam template files spell them.
const (
	TypeChoiceLabel = "单项选择题"
	TypeJudgeLabel  = "判断题"
)

// Questions builds the exam-question generation prompt for one question
// type. The response contract is a JSON array of objects with content,
// options (choice only), answer, and analysis fields.
func Questions(chapters []string, typeLabel string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "请根据以下章节内容生成%d道%s：\n", count, typeLabel)
	sb.WriteString("章节：" + strings.Join(chapters, "、") + "\n\n")
	sb.WriteString("要求：\n")
	sb.WriteString("1. 题目难度要适中\n")
	sb.WriteString("2. 涵盖所选章节的重要知识点\n")
	sb.WriteString("3. 如果是选择题，需要包含4个选项\n")
	sb.WriteString("4. 确保题目清晰明确\n")
	sb.WriteString("5. 返回的格式为JSON数组，每个题目包含：\n")
	sb.WriteString("   - content: 题目内容\n")
	sb.WriteString("   - options: 选项（选择题才有）\n")
	sb.WriteString("   - answer: 答案\n")
	sb.WriteString("   - analysis: 解析\n\n")
	sb.WriteString("请确保题目内容准确、专业，并符合学科特点。只返回JSON数组，不要附加其他说明。\n")
	return sb.String()
}

// Explain builds a concept or content explanation prompt. conceptType is
// "concept" for main concepts and "content" for chapter contents.
func Explain(subject, chapter, concept, conceptType string) string {
	var sb strings.Builder
	if conceptType == "concept" {
		fmt.Fprintf(&sb, "请作为一名%s教师，详细讲解%s课程中“%s”章节的概念“%s”。\n", subject, subject, chapter, concept)
		sb.WriteString("请使用HTML格式组织内容，可以使用以下标签：h1-h6, p, ul, li, strong, em, code。\n\n")
		sb.WriteString("请按照以下结构组织讲解：\n")
		sb.WriteString("<h2>概念定义</h2>\n<p>用通俗易懂的语言解释这个概念</p>\n\n")
		sb.WriteString("<h2>重要特点</h2>\n<ul>\n<li>特点1</li>\n<li>特点2</li>\n</ul>\n\n")
		sb.WriteString("<h2>实际应用</h2>\n<p>举例说明该概念在实践中的应用</p>\n\n")
		sb.WriteString("<h2>相关概念</h2>\n<ul>\n<li>相关概念1及关系</li>\n<li>相关概念2及关系</li>\n</ul>\n\n")
		sb.WriteString("<h2>重点难点</h2>\n<ul>\n<li>重点1</li>\n<li>难点1</li>\n</ul>\n\n")
		sb.WriteString("要求：\n- 讲解要通俗易懂，避免过于晦涩的术语\n- 多用具体的例子来说明\n- 突出重点和难点\n- 注意知识点之间的联系\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "请作为一名%s教师，详细讲解%s课程中“%s”章节的内容“%s”。\n", subject, subject, chapter, concept)
	sb.WriteString("请使用HTML格式组织内容，可以使用以下标签：h1-h6, p, ul, li, strong, em, code。\n\n")
	sb.WriteString("请按照以下结构组织讲解：\n")
	sb.WriteString("<h2>主要内容</h2>\n<p>概述这部分内容的核心要点</p>\n\n")
	sb.WriteString("<h2>详细解析</h2>\n<ul>\n<li>要点1详细解释</li>\n<li>要点2详细解释</li>\n</ul>\n\n")
	sb.WriteString("<h2>实例讲解</h2>\n<p>结合具体例子进行说明</p>\n\n")
	sb.WriteString("<h2>应用场景</h2>\n<ul>\n<li>应用场景1</li>\n<li>应用场景2</li>\n</ul>\n\n")
	sb.WriteString("<h2>学习建议</h2>\n<ul>\n<li>建议1</li>\n<li>建议2</li>\n</ul>\n\n")
	sb.WriteString("要求：\n- 循序渐进，由浅入深\n- 结合实际案例\n- 突出实践应用\n- 给出具体的学习方法\n")
	return sb.String()
}

// Ask builds the Q&A prompt for a student question about a knowledge point.
func Ask(subject, chapter, concept, question string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "作为%s课程教师，请回答学生关于“%s”章节中“%s”知识点的以下问题：\n\n", subject, chapter, concept)
	sb.WriteString("问题：" + question + "\n\n")
	sb.WriteString("请给出详细的解答，并尽可能举例说明。\n")
	return sb.String()
}

// KnowledgeBase builds the prompt that bootstraps a new subject's
// knowledge base. The response contract matches the knowledgebase.json
// file layout: chapter titles mapping to mainConcepts/mainContents.
func KnowledgeBase(subject string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "请为学科“%s”设计一份入门知识库大纲。\n\n", subject)
	sb.WriteString("返回JSON对象，格式如下：\n")
	sb.WriteString("{\n")
	fmt.Fprintf(&sb, "  \"科目\": \"%s\",\n", subject)
	sb.WriteString("  \"章节\": {\n")
	sb.WriteString("    \"第一章 章节名\": {\n")
	sb.WriteString("      \"mainConcepts\": [\"概念1\", \"概念2\"],\n")
	sb.WriteString("      \"mainContents\": [\"内容1\", \"内容2\"]\n")
	sb.WriteString("    }\n")
	sb.WriteString("  }\n")
	sb.WriteString("}\n\n")
	sb.WriteString("要求：\n- 生成4到8个章节，覆盖该学科的主干内容\n- 每章3到6个主要概念和3到6条主要内容\n- 只返回JSON对象，不要附加其他说明\n")
	return sb.String()
}
