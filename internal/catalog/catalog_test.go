package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fable/internal/story"
)

func TestStoriesReturnsFixedOrder(t *testing.T) {
	first := Stories()
	second := Stories()
	require.Equal(t, Len(), len(first))
	for i := range first {
		require.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestStoriesReturnsClones(t *testing.T) {
	view := Stories()
	view[0].Title = "tampered"
	require.NotEqual(t, "tampered", Stories()[0].Title)
}

func TestContains(t *testing.T) {
	for _, st := range Stories() {
		require.True(t, Contains(st.ID))
		require.False(t, st.Generated())
	}
	require.False(t, Contains("gen_1700000000000"))
	require.False(t, Contains(""))
}

func TestSeedsAreComplete(t *testing.T) {
	for _, st := range Stories() {
		require.NotEmpty(t, st.ID)
		require.NotEmpty(t, st.Title)
		require.NotEmpty(t, st.Content)
		require.NotEmpty(t, st.Category)
		require.NotEmpty(t, st.AgeGroup)
		require.NotEmpty(t, st.Language)
		require.False(t, st.CreatedAt.IsZero())
	}
}

func TestSeedsCoverBothLanguages(t *testing.T) {
	langs := map[story.Language]int{}
	for _, st := range Stories() {
		langs[st.Language]++
	}
	require.Positive(t, langs[story.LanguageEnglish])
	require.Positive(t, langs[story.LanguageTurkish])
}
