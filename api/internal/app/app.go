// Package app wires configuration into the stores, engines and services shared by
// the HTTP server and the Telegram bot.
package app

import (
	"context"
	"errors"
	"fmt"

	"image-translator/api/internal/cache"
	"image-translator/api/internal/config"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/llm/gemini"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/ocr"
	"image-translator/api/internal/queue"
	"image-translator/api/internal/store"
	"image-translator/api/internal/store/memory"
	"image-translator/api/internal/translation"
)

type App struct {
	Cfg          *config.Config
	Log          *logging.Logger
	Extractor    *ocr.Extractor
	Extractions  *extraction.Service
	Translations *translation.Service
	Reconciler   *translation.Reconciler

	// Worker is set when edits are reconciled through Redis.
	Worker *queue.Worker

	closers []func() error
}

// Build opens storage and wires every service. Close releases what it opened.
func Build(ctx context.Context, cfg *config.Config, log *logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}
	a := &App{Cfg: cfg, Log: log}

	extRepo, trRepo, err := a.repos(ctx)
	if err != nil {
		return nil, err
	}

	engine := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiMaxOutputTokens)
	a.Translations = translation.NewService(trRepo, engine, log.With("translation"))
	a.Reconciler = translation.NewReconciler(a.Translations, cfg.ReconcileConcurrency, log.With("reconcile"))

	notifier, err := a.notifier(extRepo)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Extractions = extraction.NewService(extRepo, notifier, log.With("extraction"))
	a.Extractions.StrictBounds = cfg.StrictBounds

	var ocrCache ocr.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.OCRCacheTTL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		ocrCache = rc
	}
	a.Extractor = ocr.NewExtractor(engine, ocrCache, a.Extractions, log.With("ocr"))
	a.Extractor.MaxPixels = cfg.MaxPixels

	log.Info("services ready", "store", cfg.Store, "model", engine.GetModel(), "redis", cfg.RedisURL != "")
	return a, nil
}

func (a *App) repos(ctx context.Context) (extraction.Repository, translation.Repository, error) {
	if a.Cfg.Store != config.StorePostgres {
		return memory.NewExtractionRepo(), memory.NewTranslationRepo(), nil
	}
	db, err := store.Open(ctx, a.Cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	a.closers = append(a.closers, db.Close)
	return store.NewExtractionRepo(db), store.NewTranslationRepo(db), nil
}

// notifier publishes edits to the asynq queue when Redis is configured, and
// reconciles in-process otherwise.
func (a *App) notifier(src queue.Source) (extraction.Notifier, error) {
	if a.Cfg.RedisURL == "" {
		return queue.NewInline(a.Reconciler, a.Log.With("queue")), nil
	}
	pub, err := queue.NewPublisher(a.Cfg.RedisURL, a.Cfg.TranslationQueue)
	if err != nil {
		return nil, fmt.Errorf("queue publisher: %w", err)
	}
	a.closers = append(a.closers, pub.Close)

	w, err := queue.NewWorker(queue.WorkerConfig{
		RedisURL:    a.Cfg.RedisURL,
		QueueName:   a.Cfg.TranslationQueue,
		Concurrency: a.Cfg.ReconcileConcurrency,
	}, a.Reconciler, src, a.Log.With("worker"))
	if err != nil {
		return nil, fmt.Errorf("queue worker: %w", err)
	}
	a.Worker = w
	return pub, nil
}

// Start launches background workers, if any.
func (a *App) Start() error {
	if a.Worker == nil {
		return nil
	}
	return a.Worker.Start()
}

func (a *App) Close() error {
	if a.Worker != nil {
		a.Worker.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
