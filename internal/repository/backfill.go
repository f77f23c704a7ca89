package repository

import (
	"context"

	"fable/internal/logging"
	"fable/internal/pipeline"
	"fable/internal/story"
)

// Backfiller fills in assets missing from catalog stories. Each run is
// idempotent: a story whose assets are already present is not touched,
// so a second pass over a fully backfilled catalog performs no
// generation calls.
type Backfiller struct {
	repo   *Repository
	assets *pipeline.Assets
	voice  string
	logger logging.Logger
}

// NewBackfiller builds a backfill worker over the repository.
func NewBackfiller(repo *Repository, assets *pipeline.Assets, voice string, logger logging.Logger) *Backfiller {
	return &Backfiller{
		repo:   repo,
		assets: assets,
		voice:  voice,
		logger: logging.OrNop(logger),
	}
}

// Run performs one backfill pass and returns how many stories were
// updated. The pass stops early when ctx is cancelled; a story that
// still could not get an asset is left unchanged for the next pass.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	updated := 0
	for _, st := range b.repo.All() {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		if st.Generated() {
			continue
		}
		// Work on a copy; the merged view only changes after persistence.
		candidate := st.Clone()
		if !b.backfillStory(ctx, candidate) {
			continue
		}
		if err := b.repo.Save(ctx, candidate); err != nil {
			b.logger.Warn("backfill could not persist %s: %v", st.ID, err)
			continue
		}
		updated++
	}
	if updated > 0 {
		b.logger.Info("backfill updated %d stories", updated)
	}
	return updated, nil
}

// Start runs one pass in the background. The returned channel closes
// when the pass finishes; cancel ctx to stop it early.
func (b *Backfiller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := b.Run(ctx); err != nil && ctx.Err() == nil {
			b.logger.Error("backfill pass failed: %v", err)
		}
	}()
	return done
}

// backfillStory generates missing assets in place and reports whether
// anything changed.
func (b *Backfiller) backfillStory(ctx context.Context, st *story.Story) bool {
	changed := false

	if st.CoverImage == "" {
		if cover := b.assets.Cover(ctx, st.Title, st.AgeGroup); cover != "" {
			st.CoverImage = cover
			changed = true
		}
	}
	if st.AudioData == "" && !st.Interactive {
		if audio := b.assets.Narration(ctx, st.Content, b.voice); audio != "" {
			st.AudioData = audio
			changed = true
		}
	}
	return changed
}
