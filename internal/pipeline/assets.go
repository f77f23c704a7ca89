package pipeline

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"fable/internal/genai"
	"fable/internal/logging"
	"fable/internal/retry"
	"fable/internal/story"
)

const assetCacheSize = 128

// Assets produces the optional media attached to a story. Every call is
// best-effort: a failure after retries yields an empty string and the
// story ships without that asset.
type Assets struct {
	svc     genai.Service
	exec    *retry.Executor
	cache   *lru.Cache[string, string]
	logger  logging.Logger
	metrics *Metrics
}

// NewAssets builds an asset generator around the given service and
// retry executor.
func NewAssets(svc genai.Service, exec *retry.Executor, logger logging.Logger) *Assets {
	cache, _ := lru.New[string, string](assetCacheSize)
	return &Assets{
		svc:     svc,
		exec:    exec,
		cache:   cache,
		logger:  logging.OrNop(logger),
		metrics: defaultMetrics(),
	}
}

// withMetrics swaps the metrics sink, used by the pipeline constructor.
func (a *Assets) withMetrics(m *Metrics) *Assets {
	if m != nil {
		a.metrics = m
	}
	return a
}

// Cover generates a cover illustration for the given subject. Returns
// an empty string when no image could be produced.
func (a *Assets) Cover(ctx context.Context, subject string, age story.AgeGroup) string {
	style := story.StyleForAge(age)
	return a.generate(ctx, "cover", coverKey(style, subject), func(ctx context.Context) (string, error) {
		return a.svc.GenerateImage(ctx, subject, style)
	})
}

// RegenerateCover discards any cached cover for the subject and renders
// a fresh one. The new render replaces the cached entry.
func (a *Assets) RegenerateCover(ctx context.Context, subject string, age story.AgeGroup) string {
	a.cache.Remove(coverKey(story.StyleForAge(age), subject))
	return a.Cover(ctx, subject, age)
}

func coverKey(style, subject string) string {
	return "cover\x00" + style + "\x00" + subject
}

// Narration generates audio narration for the story text.
func (a *Assets) Narration(ctx context.Context, text string, voice string) string {
	return a.generate(ctx, "narration", "narration\x00"+voice+"\x00"+text, func(ctx context.Context) (string, error) {
		return a.svc.GenerateSpeech(ctx, text, voice)
	})
}

// ColoringPage generates printable line art for the story subject.
func (a *Assets) ColoringPage(ctx context.Context, subject string) string {
	return a.generate(ctx, "coloring_page", "coloring\x00"+subject, func(ctx context.Context) (string, error) {
		return a.svc.GenerateColoringPage(ctx, subject)
	})
}

func (a *Assets) generate(ctx context.Context, kind, cacheKey string, op func(ctx context.Context) (string, error)) string {
	if cached, ok := a.cache.Get(cacheKey); ok {
		a.metrics.IncAssetResult(kind, "cache_hit")
		return cached
	}

	result := retry.BestEffort(ctx, a.exec, op)
	if result == "" {
		a.logger.Warn("%s generation produced no result", kind)
		a.metrics.IncAssetResult(kind, "missing")
		return ""
	}

	a.cache.Add(cacheKey, result)
	a.metrics.IncAssetResult(kind, "ok")
	return result
}
