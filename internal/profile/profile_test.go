package profile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fable/internal/story"
)

func TestToggleFavoriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	svc, err := Open(dir, nil)
	require.NoError(t, err)

	on, err := svc.ToggleFavorite("cat_one")
	require.NoError(t, err)
	require.True(t, on)
	require.True(t, svc.IsFavorite("cat_one"))

	// Survives a reload.
	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	require.True(t, reopened.IsFavorite("cat_one"))

	off, err := reopened.ToggleFavorite("cat_one")
	require.NoError(t, err)
	require.False(t, off)
	require.False(t, reopened.IsFavorite("cat_one"))
}

func TestRemoveFavorite(t *testing.T) {
	svc, err := Open(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = svc.ToggleFavorite("gen_1")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveFavorite("gen_1"))
	require.False(t, svc.IsFavorite("gen_1"))

	// Removing a non-favorite is a no-op.
	require.NoError(t, svc.RemoveFavorite("gen_2"))
}

func TestFavoriteStoriesKeepsViewOrder(t *testing.T) {
	svc, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = svc.ToggleFavorite("gen_2")
	require.NoError(t, err)
	_, err = svc.ToggleFavorite("cat_one")
	require.NoError(t, err)

	view := []*story.Story{
		{ID: "cat_one"},
		{ID: "cat_two"},
		{ID: "gen_1"},
		{ID: "gen_2"},
	}

	favorites := svc.FavoriteStories(view)
	require.Len(t, favorites, 2)
	require.Equal(t, "cat_one", favorites[0].ID)
	require.Equal(t, "gen_2", favorites[1].ID)
}

func TestMyStories(t *testing.T) {
	view := []*story.Story{
		{ID: "cat_one"},
		{ID: "gen_1"},
		{ID: "gen_2"},
	}
	mine := MyStories(view)
	require.Len(t, mine, 2)
	require.Equal(t, "gen_1", mine[0].ID)
}

func TestMarkReadAndName(t *testing.T) {
	dir := t.TempDir()
	svc, err := Open(dir, nil)
	require.NoError(t, err)

	require.NoError(t, svc.SetName("Deniz"))
	require.NoError(t, svc.MarkRead())
	require.NoError(t, svc.MarkRead())

	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	current := reopened.Current()
	require.Equal(t, "Deniz", current.Name)
	require.Equal(t, 2, current.StoriesRead)
}
