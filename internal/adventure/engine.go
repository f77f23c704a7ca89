// Package adventure drives interactive stories turn by turn. A story
// runs for at most MaxTurns continuations; the final turn is generated
// as a conclusive ending and offers no further choices.
package adventure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fable/internal/genai"
	"fable/internal/logging"
	"fable/internal/story"
)

// MaxTurns caps the number of continuation turns per story.
const MaxTurns = 5

// ErrStoryConcluded is returned when a continuation is requested for a
// story that already reached its ending.
var ErrStoryConcluded = errors.New("story has concluded")

// ErrNotInteractive is returned when the story was not generated in
// interactive mode.
var ErrNotInteractive = errors.New("story is not interactive")

// ContinuationResult is one turn produced by the engine.
type ContinuationResult struct {
	Segment   string
	Choices   []story.Option
	Concluded bool
}

// Engine generates continuation turns. Continuations for the same story
// are serialized: a second request for an id waits until the first one
// finishes.
type Engine struct {
	svc    genai.Service
	logger logging.Logger

	mu       sync.Mutex
	inflight map[string]*sync.Mutex
}

// NewEngine builds a continuation engine on the given service.
func NewEngine(svc genai.Service, logger logging.Logger) *Engine {
	return &Engine{
		svc:      svc,
		logger:   logging.OrNop(logger),
		inflight: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) storyLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.inflight[id]
	if !ok {
		lock = &sync.Mutex{}
		e.inflight[id] = lock
	}
	return lock
}

// Continue generates the next turn for st. turnsTaken counts the
// continuations already applied; choice is the option text the reader
// picked. A failed turn leaves the story unchanged and may be retried
// by the caller.
func (e *Engine) Continue(ctx context.Context, st *story.Story, turnsTaken int, choice string) (*ContinuationResult, error) {
	if st == nil {
		return nil, fmt.Errorf("no story to continue")
	}
	if !st.Interactive {
		return nil, ErrNotInteractive
	}
	if turnsTaken >= MaxTurns || st.Concluded() {
		return nil, ErrStoryConcluded
	}
	if strings.TrimSpace(choice) == "" {
		return nil, fmt.Errorf("a choice is required to continue")
	}

	lock := e.storyLock(st.ID)
	lock.Lock()
	defer lock.Unlock()

	final := turnsTaken+1 >= MaxTurns
	e.logger.Info("continuing story %s: turn %d/%d final=%v choice=%q", st.ID, turnsTaken+1, MaxTurns, final, choice)

	raw, err := e.svc.GenerateText(ctx, buildContinuationInstruction(st, final), buildContinuationPrompt(st, choice))
	if err != nil {
		return nil, fmt.Errorf("continue story %s: %w", st.ID, err)
	}

	var payload struct {
		Content string         `json:"content"`
		Choices []story.Option `json:"choices"`
	}
	if err := genai.DecodeJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("continue story %s: %w", st.ID, err)
	}
	if strings.TrimSpace(payload.Content) == "" {
		return nil, fmt.Errorf("continue story %s: empty continuation segment", st.ID)
	}

	if final {
		// A concluded turn never carries choices, whatever the model said.
		if len(payload.Choices) > 0 {
			e.logger.Warn("story %s: dropping %d choices from final turn", st.ID, len(payload.Choices))
		}
		return &ContinuationResult{Segment: payload.Content, Concluded: true}, nil
	}

	if len(payload.Choices) != 2 {
		return nil, fmt.Errorf("continue story %s: expected 2 choices, got %d", st.ID, len(payload.Choices))
	}
	for _, option := range payload.Choices {
		if strings.TrimSpace(option.Text) == "" {
			return nil, fmt.Errorf("continue story %s: empty choice text", st.ID)
		}
	}

	return &ContinuationResult{Segment: payload.Content, Choices: payload.Choices}, nil
}

// Apply folds a continuation into the story.
func Apply(st *story.Story, result *ContinuationResult) {
	if st == nil || result == nil {
		return
	}
	st.AppendSegment(result.Segment, result.Choices)
}

func buildContinuationInstruction(st *story.Story, final bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a master storyteller for children aged %s, continuing an interactive story in %s. ",
		st.AgeGroup, st.Language.Name())
	b.WriteString("Respond with a single JSON object and nothing else.\n\n")
	b.WriteString(`The object has a "content" field with the next story segment, two to four paragraphs.` + "\n")

	if final {
		b.WriteString("This is the final turn. Bring the story to a warm, conclusive ending that resolves the reader's choice. Do not include a choices field.\n")
	} else {
		b.WriteString(`It also has a "choices" field: exactly two options for what happens next, each an object with a "text" field. End the segment at a moment the two choices resolve differently.` + "\n")
	}

	return b.String()
}

func buildContinuationPrompt(st *story.Story, choice string) string {
	var b strings.Builder
	b.WriteString("The story so far:\n\n")
	b.WriteString(st.Content)
	b.WriteString("\n\nThe reader chose: ")
	b.WriteString(choice)
	return b.String()
}
