package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"fable/internal/genai"
	"fable/internal/story"
)

// ErrMalformedResponse marks a model response that could not be turned
// into a story. Generation fails outright on it; there is no retry for
// schema violations.
var ErrMalformedResponse = errors.New("malformed story response")

type storyPayload struct {
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Choices      []story.Option `json:"choices"`
	WordOfTheDay *story.Word    `json:"wordOfTheDay"`
}

// parseStoryPayload decodes and validates the text model's response.
func parseStoryPayload(raw string, interactive bool) (*storyPayload, error) {
	var payload storyPayload
	if err := genai.DecodeJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if strings.TrimSpace(payload.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrMalformedResponse)
	}
	if strings.TrimSpace(payload.Content) == "" {
		return nil, fmt.Errorf("%w: missing content", ErrMalformedResponse)
	}

	if interactive {
		if len(payload.Choices) != 2 {
			return nil, fmt.Errorf("%w: interactive story needs exactly 2 choices, got %d", ErrMalformedResponse, len(payload.Choices))
		}
		for _, choice := range payload.Choices {
			if strings.TrimSpace(choice.Text) == "" {
				return nil, fmt.Errorf("%w: empty choice text", ErrMalformedResponse)
			}
		}
	} else if len(payload.Choices) > 0 {
		return nil, fmt.Errorf("%w: non-interactive story carries choices", ErrMalformedResponse)
	}

	if payload.WordOfTheDay != nil {
		word := payload.WordOfTheDay
		if strings.TrimSpace(word.Word) == "" || strings.TrimSpace(word.Definition) == "" {
			// An incomplete vocabulary entry is dropped rather than fatal.
			payload.WordOfTheDay = nil
		}
	}

	return &payload, nil
}
