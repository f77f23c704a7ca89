package pipeline

import (
	"fmt"
	"strings"

	"fable/internal/story"
)

// buildSystemInstruction renders the system prompt for a generation
// request. The model must answer with a single JSON object; choices are
// requested only for interactive stories.
func buildSystemInstruction(req story.GenerationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a master storyteller for children aged %s. ", req.AgeGroup)
	fmt.Fprintf(&b, "Write in %s, using vocabulary and sentence rhythm suited to that age. ", req.Language.Name())
	fmt.Fprintf(&b, "The story belongs to the %q category and should be roughly %d words long.\n\n", req.Category, req.Length.WordTarget())

	b.WriteString("Respond with a single JSON object and nothing else. The object has these fields:\n")
	b.WriteString(`- "title": a short, evocative story title` + "\n")
	b.WriteString(`- "content": the story text, with paragraphs separated by blank lines` + "\n")

	if req.Interactive {
		b.WriteString(`- "choices": exactly two options for what happens next, each an object with a "text" field` + "\n")
		b.WriteString("\nThis is the opening of an interactive story. End the content at a moment of suspense that the two choices resolve differently.\n")
	} else {
		b.WriteString(`- "wordOfTheDay": optionally, one object with "word", "definition" and "example" introducing a single interesting word from the story` + "\n")
		b.WriteString("\nDo not include a choices field. The story must be complete with a satisfying ending.\n")
	}

	return b.String()
}

// buildUserPrompt renders the user turn for a generation request.
func buildUserPrompt(req story.GenerationRequest) string {
	return "Write a story about: " + strings.TrimSpace(req.Prompt)
}
