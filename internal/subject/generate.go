package subject

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"examprep/internal/llm/prompts"
)

// generateKnowledgeBase asks the AI for a chapter outline and parses it
// with the same tolerance the question generator uses: direct JSON or
// the first-{ to last-} substring of a chattier response.
func (s *Service) generateKnowledgeBase(ctx context.Context, subject string) (*KnowledgeBase, error) {
	resp, err := s.ai.GenerateText(ctx, prompts.KnowledgeBase(subject))
	if err != nil {
		return nil, err
	}

	attempts := []string{resp}
	if start, end := strings.Index(resp, "{"), strings.LastIndex(resp, "}"); start >= 0 && end > start {
		attempts = append(attempts, resp[start:end+1])
	}
	for _, a := range attempts {
		var kb KnowledgeBase
		if err := json.Unmarshal([]byte(a), &kb); err != nil {
			continue
		}
		if len(kb.Chapters) == 0 {
			continue
		}
		kb.Subject = subject
		return &kb, nil
	}
	return nil, fmt.Errorf("no knowledge base object in response")
}
