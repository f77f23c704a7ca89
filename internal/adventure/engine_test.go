package adventure

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fable/internal/genai"
	"fable/internal/story"
)

func interactiveStory() *story.Story {
	return &story.Story{
		ID:          "gen_1700000000000",
		Title:       "The Door",
		Content:     "A door appeared in the old oak tree.",
		Interactive: true,
		Language:    story.LanguageEnglish,
		AgeGroup:    story.AgeGroupKid,
		Choices:     []story.Option{{Text: "Open it"}, {Text: "Knock first"}},
	}
}

func TestContinueMidStoryReturnsTwoChoices(t *testing.T) {
	mock := &genai.MockService{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			require.NotContains(t, system, "final turn")
			require.Contains(t, system, "exactly two options")
			require.Contains(t, user, "The reader chose: Open it")
			return `{"content":"The door creaked open.","choices":[{"text":"Step inside"},{"text":"Call out"}]}`, nil
		},
	}
	engine := NewEngine(mock, nil)

	result, err := engine.Continue(context.Background(), interactiveStory(), 2, "Open it")
	require.NoError(t, err)
	require.False(t, result.Concluded)
	require.Len(t, result.Choices, 2)
	require.Equal(t, "The door creaked open.", result.Segment)
}

func TestContinueFinalTurnConcludes(t *testing.T) {
	mock := &genai.MockService{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			require.Contains(t, system, "final turn")
			require.Contains(t, system, "conclusive ending")
			return `{"content":"And they all went home for supper."}`, nil
		},
	}
	engine := NewEngine(mock, nil)

	// Four turns taken, the fifth and last one must conclude.
	result, err := engine.Continue(context.Background(), interactiveStory(), MaxTurns-1, "Open it")
	require.NoError(t, err)
	require.True(t, result.Concluded)
	require.Empty(t, result.Choices)
}

func TestContinueFinalTurnDropsStrayChoices(t *testing.T) {
	mock := &genai.MockService{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return `{"content":"The end.","choices":[{"text":"But wait"},{"text":"More"}]}`, nil
		},
	}
	engine := NewEngine(mock, nil)

	result, err := engine.Continue(context.Background(), interactiveStory(), MaxTurns-1, "Open it")
	require.NoError(t, err)
	require.True(t, result.Concluded)
	require.Empty(t, result.Choices)
}

func TestContinueRejectsConcludedStory(t *testing.T) {
	engine := NewEngine(&genai.MockService{}, nil)

	_, err := engine.Continue(context.Background(), interactiveStory(), MaxTurns, "Open it")
	require.ErrorIs(t, err, ErrStoryConcluded)

	st := interactiveStory()
	st.Choices = nil
	_, err = engine.Continue(context.Background(), st, 1, "Open it")
	require.ErrorIs(t, err, ErrStoryConcluded)
}

func TestContinueRejectsNonInteractiveStory(t *testing.T) {
	engine := NewEngine(&genai.MockService{}, nil)
	st := interactiveStory()
	st.Interactive = false

	_, err := engine.Continue(context.Background(), st, 0, "Open it")
	require.ErrorIs(t, err, ErrNotInteractive)
}

func TestContinueDoesNotRetryFailures(t *testing.T) {
	mock := &genai.MockService{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return "", errors.New("429 rate limit")
		},
	}
	engine := NewEngine(mock, nil)

	st := interactiveStory()
	_, err := engine.Continue(context.Background(), st, 1, "Open it")
	require.Error(t, err)
	require.Equal(t, 1, mock.TextCalls)
	// The story is untouched and can be continued again.
	require.Equal(t, "A door appeared in the old oak tree.", st.Content)
	require.Len(t, st.Choices, 2)
}

func TestContinueRejectsWrongChoiceCount(t *testing.T) {
	mock := &genai.MockService{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			return `{"content":"More story.","choices":[{"text":"Only one"}]}`, nil
		},
	}
	engine := NewEngine(mock, nil)

	_, err := engine.Continue(context.Background(), interactiveStory(), 1, "Open it")
	require.Error(t, err)
}

func TestContinueSerializesPerStory(t *testing.T) {
	var active, maxActive int
	var mu sync.Mutex
	mock := &genai.MockService{
		TextFunc: func(ctx context.Context, system, user string) (string, error) {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			return `{"content":"Next.","choices":[{"text":"a"},{"text":"b"}]}`, nil
		},
	}
	engine := NewEngine(mock, nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Continue(context.Background(), interactiveStory(), 1, "Open it")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxActive)
}

func TestApply(t *testing.T) {
	st := interactiveStory()

	Apply(st, &ContinuationResult{Segment: "The door opened.", Choices: []story.Option{{Text: "a"}, {Text: "b"}}})
	require.True(t, strings.HasSuffix(st.Content, "\n\nThe door opened."))
	require.False(t, st.Concluded())

	Apply(st, &ContinuationResult{Segment: "The end.", Concluded: true})
	require.True(t, st.Concluded())
	require.Nil(t, st.Choices)
}

func TestTurnLedgerRoundTrip(t *testing.T) {
	dir := t.TempDir()

	ledger, err := OpenTurnLedger(dir)
	require.NoError(t, err)
	require.Zero(t, ledger.Turns("gen_1"))

	require.NoError(t, ledger.Record("gen_1", 3))
	require.Equal(t, 3, ledger.Turns("gen_1"))

	reopened, err := OpenTurnLedger(dir)
	require.NoError(t, err)
	require.Equal(t, 3, reopened.Turns("gen_1"))

	require.NoError(t, reopened.Forget("gen_1"))
	require.Zero(t, reopened.Turns("gen_1"))
}
