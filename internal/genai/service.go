// Package genai defines the ports to the upstream generative models.
// The pipeline and the adventure engine depend only on the Service
// interface; the OpenAI client and the test mocks both implement it.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Service is the set of generative calls story code needs. Asset calls
// return an empty string when no asset could be produced; callers treat
// that as "no result", not an error.
type Service interface {
	// GenerateText asks the model for a JSON document following the
	// schema described in the system instruction.
	GenerateText(ctx context.Context, systemInstruction, userPrompt string) (string, error)

	// GenerateImage produces a cover illustration as a data URL.
	GenerateImage(ctx context.Context, prompt, style string) (string, error)

	// GenerateSpeech narrates text and returns audio as a data URL.
	// The narration language follows the text itself; voice selects the
	// speaker, which is language-neutral for the OpenAI speech models.
	GenerateSpeech(ctx context.Context, text, voice string) (string, error)

	// GenerateColoringPage produces black and white line art as a data URL.
	GenerateColoringPage(ctx context.Context, subject string) (string, error)
}

// DecodeJSON parses a model response into v. Markdown code fences are
// stripped and near-valid JSON is repaired before the strict decode; a
// document that still fails to decode is reported as an error.
func DecodeJSON(raw string, v any) error {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return fmt.Errorf("empty model response")
	}

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return fmt.Errorf("model response is not valid JSON: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("model response does not match the expected schema: %w", err)
	}
	return nil
}

// StripCodeFences removes a surrounding ```json ... ``` block if the
// model wrapped its output in one.
func StripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag on the opening fence.
		first := strings.TrimSpace(trimmed[:idx])
		if first == "json" || first == "" {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
