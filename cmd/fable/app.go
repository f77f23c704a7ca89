package main

import (
	"context"
	"path/filepath"

	"fable/internal/adventure"
	"fable/internal/catalog"
	"fable/internal/config"
	"fable/internal/genai"
	"fable/internal/logging"
	"fable/internal/pipeline"
	"fable/internal/profile"
	"fable/internal/repository"
	"fable/internal/retry"
)

// app wires the configured services together for the CLI commands. The
// model client and everything built on it are created lazily so library
// commands work without an API key.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	ledger  *adventure.TurnLedger
	repo    *repository.Repository
	profile *profile.Service

	svc genai.Service
	gen *pipeline.Generator
	eng *adventure.Engine
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		logging.SetLevel(logging.DEBUG)
	}
	logger := logging.NewComponentLogger("cli")

	store, err := repository.NewFileStore(filepath.Join(cfg.DataDir, "stories"), logging.NewComponentLogger("store"))
	if err != nil {
		return nil, err
	}
	repo := repository.New(store, catalog.Stories(), logging.NewComponentLogger("repository"))
	if err := repo.Refresh(ctx); err != nil {
		return nil, err
	}

	ledger, err := adventure.OpenTurnLedger(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	prof, err := profile.Open(cfg.DataDir, logging.NewComponentLogger("profile"))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		ledger:  ledger,
		repo:    repo,
		profile: prof,
	}, nil
}

// service builds the model client on first use.
func (a *app) service() (genai.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	svc, err := genai.NewOpenAIService(genai.OpenAIConfig{
		APIKey:      a.cfg.Models.APIKey,
		BaseURL:     a.cfg.Models.BaseURL,
		TextModel:   a.cfg.Models.Text,
		ImageModel:  a.cfg.Models.Image,
		SpeechModel: a.cfg.Models.Speech,
		Voice:       a.cfg.Models.Voice,
		Timeout:     a.cfg.Timeout(),
	}, logging.NewComponentLogger("genai"))
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return a.svc, nil
}

// generator builds the story generation pipeline on first use.
func (a *app) generator() (*pipeline.Generator, error) {
	if a.gen != nil {
		return a.gen, nil
	}
	svc, err := a.service()
	if err != nil {
		return nil, err
	}
	exec := retry.New(retry.Policy{
		MaxRetries: a.cfg.Retry.MaxRetries,
		BaseDelay:  a.cfg.Retry.BaseDelay,
		Multiplier: a.cfg.Retry.Multiplier,
		MaxDelay:   a.cfg.Retry.MaxDelay,
	}, logging.NewComponentLogger("retry"))
	a.gen = pipeline.New(svc, exec, logging.NewComponentLogger("pipeline"),
		pipeline.WithVoice(a.cfg.Models.Voice))
	return a.gen, nil
}

// engine builds the interactive continuation engine on first use.
func (a *app) engine() (*adventure.Engine, error) {
	if a.eng != nil {
		return a.eng, nil
	}
	svc, err := a.service()
	if err != nil {
		return nil, err
	}
	a.eng = adventure.NewEngine(svc, logging.NewComponentLogger("adventure"))
	return a.eng, nil
}

// backfiller builds the asset backfill worker on demand.
func (a *app) backfiller() (*repository.Backfiller, error) {
	gen, err := a.generator()
	if err != nil {
		return nil, err
	}
	return repository.NewBackfiller(a.repo, gen.Assets(), a.cfg.Models.Voice,
		logging.NewComponentLogger("backfill")), nil
}

// maybeBackfill starts the background asset pass when the backfill
// toggle is on. The returned channel closes when the pass finishes;
// when backfill is disabled or the model client cannot be built it is
// already closed.
func (a *app) maybeBackfill(ctx context.Context) <-chan struct{} {
	if !a.cfg.Backfill {
		done := make(chan struct{})
		close(done)
		return done
	}
	bf, err := a.backfiller()
	if err != nil {
		a.logger.Warn("background backfill unavailable: %v", err)
		done := make(chan struct{})
		close(done)
		return done
	}
	return bf.Start(ctx)
}
