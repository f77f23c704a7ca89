package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chdir stands in for t.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FABLE_MODELS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	a, err := newApp(context.Background())
	require.NoError(t, err)
	return a
}

func TestNewAppWorksWithoutAPIKey(t *testing.T) {
	a := newTestApp(t)

	// Library commands never touch the model.
	require.NotEmpty(t, a.repo.All())

	// Model-backed commands fail only when they actually need the client.
	_, err := a.generator()
	require.Error(t, err)
	_, err = a.engine()
	require.Error(t, err)
	_, err = a.backfiller()
	require.Error(t, err)
}

func TestMaybeBackfillDisabledToggle(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Backfill = false

	select {
	case <-a.maybeBackfill(context.Background()):
	case <-time.After(time.Second):
		t.Fatal("disabled backfill should return a closed channel")
	}
}

func TestMaybeBackfillWithoutClientDegrades(t *testing.T) {
	a := newTestApp(t)
	require.True(t, a.cfg.Backfill)

	select {
	case <-a.maybeBackfill(context.Background()):
	case <-time.After(time.Second):
		t.Fatal("unavailable backfill should return a closed channel")
	}
}
