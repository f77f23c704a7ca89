// Package pipeline turns a generation request into a complete story:
// one mandatory text call followed by a parallel, best-effort fan-out
// for cover image, narration and coloring page.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fable/internal/genai"
	"fable/internal/logging"
	"fable/internal/retry"
	"fable/internal/story"
)

// Generator runs the story generation pipeline.
type Generator struct {
	svc     genai.Service
	exec    *retry.Executor
	assets  *Assets
	voice   string
	logger  logging.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source, used by tests for stable ids.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithMetrics overrides the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
		g.assets.withMetrics(m)
	}
}

// WithVoice sets the narration voice passed to the speech model.
func WithVoice(voice string) Option {
	return func(g *Generator) { g.voice = voice }
}

// New builds a Generator. The retry executor backs the asset fan-out
// through Assets; the text call is never retried.
func New(svc genai.Service, exec *retry.Executor, logger logging.Logger, opts ...Option) *Generator {
	logger = logging.OrNop(logger)
	g := &Generator{
		svc:     svc,
		exec:    exec,
		assets:  NewAssets(svc, exec, logger),
		logger:  logger,
		metrics: defaultMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Assets exposes the asset generator, shared with the backfill worker.
func (g *Generator) Assets() *Assets {
	return g.assets
}

// Generate produces a new story for the request. The text call is
// mandatory and made exactly once: if it fails, no story exists and the
// error is returned. Asset failures degrade to a story without that
// asset.
func (g *Generator) Generate(ctx context.Context, req story.GenerationRequest) (*story.Story, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reqID := uuid.NewString()[:8]
	start := g.now()
	g.metrics.IncActiveGenerations()
	defer g.metrics.DecActiveGenerations()

	g.logger.Info("[%s] generating story: prompt=%q lang=%s age=%s interactive=%v",
		reqID, req.Prompt, req.Language, req.AgeGroup, req.Interactive)

	// A single creative attempt. Repeating a failed creative call would
	// produce different text each time, so only assets go through the
	// retry executor.
	raw, err := g.svc.GenerateText(ctx, buildSystemInstruction(req), buildUserPrompt(req))
	if err != nil {
		g.metrics.ObserveGeneration("error", time.Since(start))
		return nil, fmt.Errorf("generate story text: %w", err)
	}

	payload, err := parseStoryPayload(raw, req.Interactive)
	if err != nil {
		g.metrics.ObserveGeneration("malformed", time.Since(start))
		g.logger.Error("[%s] %v", reqID, err)
		return nil, err
	}

	var coverImage, audioData, coloringPage string
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		coverImage = g.assets.Cover(grpCtx, req.Prompt+", "+payload.Title, req.AgeGroup)
		return nil
	})
	grp.Go(func() error {
		coloringPage = g.assets.ColoringPage(grpCtx, payload.Title)
		return nil
	})
	if !req.Interactive {
		grp.Go(func() error {
			audioData = g.assets.Narration(grpCtx, payload.Content, g.voice)
			return nil
		})
	}
	_ = grp.Wait()

	now := g.now()
	result := &story.Story{
		ID:           story.NewGeneratedID(now),
		Title:        payload.Title,
		Content:      payload.Content,
		Category:     req.Category,
		AgeGroup:     req.AgeGroup,
		Language:     req.Language,
		Author:       "AI Storyteller",
		CoverImage:   coverImage,
		AudioData:    audioData,
		ColoringPage: coloringPage,
		Interactive:  req.Interactive,
		WordOfTheDay: payload.WordOfTheDay,
		CreatedAt:    now,
	}
	if req.Interactive {
		result.Choices = payload.Choices
	}

	g.metrics.ObserveGeneration("ok", time.Since(start))
	g.logger.Info("[%s] story %s generated: title=%q cover=%v audio=%v coloring=%v",
		reqID, result.ID, result.Title, coverImage != "", audioData != "", coloringPage != "")
	return result, nil
}
