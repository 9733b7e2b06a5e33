package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/logger"
)

// maxEvalAttempts bounds the corrective retry loop for one tag
// evaluation before failing closed.
const maxEvalAttempts = 3

const evalSystemPrompt = `You classify articles for a personal reading library.

The user gives you a tag description and an article's text. Decide whether the
tag applies to the article.

Respond with a JSON object of exactly this shape and nothing else:

{"matches": true}

or

{"matches": false}`

// evalResponse is the only accepted response shape.
type evalResponse struct {
	Matches *bool `json:"matches"`
}

// TagEvaluator asks the model whether one tag applies to one article.
// Any failure mode evaluates to no match: a tag is only assigned on an
// explicit, well-formed positive verdict.
type TagEvaluator struct {
	llm driven.LLMService
}

// NewTagEvaluator creates a new tag evaluator.
func NewTagEvaluator(llm driven.LLMService) *TagEvaluator {
	return &TagEvaluator{llm: llm}
}

// Evaluate returns whether the tag described by description applies to
// the article text. The prompt carries the description only; the tag
// name is used for logging and must never reach the model. Malformed
// responses trigger corrective retries; exhausted retries and transport
// errors both return false.
func (e *TagEvaluator) Evaluate(ctx context.Context, tagName, description, text string) bool {
	messages := []driven.ChatMessage{
		{Role: "system", Content: evalSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Tag description: %s\n\nArticle text:\n%s", description, text)},
	}

	for attempt := 1; attempt <= maxEvalAttempts; attempt++ {
		raw, err := e.llm.Chat(ctx, messages, driven.ChatOptions{
			MaxTokens:   64,
			Temperature: 0,
			JSONOnly:    true,
		})
		if err != nil {
			logger.Warn("Tag %q evaluation request failed: %v", tagName, err)
			return false
		}

		matches, err := parseEvalResponse(raw)
		if err == nil {
			return matches
		}

		logger.Debug("Tag %q evaluation returned invalid response (attempt %d): %v", tagName, attempt, err)
		messages = append(messages,
			driven.ChatMessage{Role: "assistant", Content: raw},
			driven.ChatMessage{Role: "user", Content: fmt.Sprintf(
				`Your previous response was invalid: %v. Respond with exactly {"matches": true} or {"matches": false} and no other keys or text.`, err)},
		)
	}

	logger.Warn("Tag %q evaluation failed after %d attempts, treating as no match", tagName, maxEvalAttempts)
	return false
}

// parseEvalResponse decodes the strict {"matches": bool} shape,
// rejecting missing keys and trailing content.
func parseEvalResponse(raw string) (bool, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var resp evalResponse
	if err := dec.Decode(&resp); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}
	if resp.Matches == nil {
		return false, fmt.Errorf("response missing \"matches\" key")
	}
	if dec.More() {
		return false, fmt.Errorf("trailing content after JSON object")
	}
	return *resp.Matches, nil
}
