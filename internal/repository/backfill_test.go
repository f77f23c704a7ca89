package repository

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"fable/internal/genai"
	"fable/internal/pipeline"
	"fable/internal/retry"
	"fable/internal/story"
)

func newTestAssets(mock *genai.MockService) *pipeline.Assets {
	exec := retry.New(retry.Policy{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	}, nil)
	gen := pipeline.New(mock, exec, nil, pipeline.WithMetrics(pipeline.MustNewMetrics(prometheus.NewRegistry())))
	return gen.Assets()
}

func TestBackfillFillsMissingAssetsOnce(t *testing.T) {
	mock := &genai.MockService{}
	repo := New(newMemStore(), testCatalog(), nil)
	backfiller := NewBackfiller(repo, newTestAssets(mock), "alloy", nil)

	updated, err := backfiller.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, updated)

	for _, st := range repo.All() {
		require.NotEmpty(t, st.CoverImage, st.ID)
		require.NotEmpty(t, st.AudioData, st.ID)
	}

	imageCalls, speechCalls := mock.ImageCalls, mock.SpeechCalls

	// A second pass finds nothing to do.
	updated, err = backfiller.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, updated)
	require.Equal(t, imageCalls, mock.ImageCalls)
	require.Equal(t, speechCalls, mock.SpeechCalls)
}

func TestBackfillSkipsGeneratedStories(t *testing.T) {
	mock := &genai.MockService{}
	repo := New(newMemStore(), testCatalog(), nil)
	require.NoError(t, repo.Save(context.Background(), &story.Story{ID: "gen_1", Title: "G", Content: "C"}))
	backfiller := NewBackfiller(repo, newTestAssets(mock), "alloy", nil)

	_, err := backfiller.Run(context.Background())
	require.NoError(t, err)

	st, ok := repo.Get("gen_1")
	require.True(t, ok)
	require.Empty(t, st.CoverImage)
}

func TestBackfillLeavesExistingAssetsAlone(t *testing.T) {
	mock := &genai.MockService{}
	cat := testCatalog()
	cat[0].CoverImage = "data:image/png;base64,ZXhpc3Rpbmc="
	repo := New(newMemStore(), cat, nil)
	backfiller := NewBackfiller(repo, newTestAssets(mock), "alloy", nil)

	_, err := backfiller.Run(context.Background())
	require.NoError(t, err)

	st, ok := repo.Get("cat_one")
	require.True(t, ok)
	require.Equal(t, "data:image/png;base64,ZXhpc3Rpbmc=", st.CoverImage)
}

func TestBackfillStopsOnCancelledContext(t *testing.T) {
	mock := &genai.MockService{}
	repo := New(newMemStore(), testCatalog(), nil)
	backfiller := NewBackfiller(repo, newTestAssets(mock), "alloy", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	updated, err := backfiller.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, updated)
	require.Zero(t, mock.ImageCalls)
}

func TestBackfillStartRunsInBackground(t *testing.T) {
	mock := &genai.MockService{}
	repo := New(newMemStore(), testCatalog(), nil)
	backfiller := NewBackfiller(repo, newTestAssets(mock), "alloy", nil)

	select {
	case <-backfiller.Start(context.Background()):
	case <-time.After(5 * time.Second):
		t.Fatal("backfill pass did not finish")
	}

	st, ok := repo.Get("cat_one")
	require.True(t, ok)
	require.NotEmpty(t, st.CoverImage)
}
