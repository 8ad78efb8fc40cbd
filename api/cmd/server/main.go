package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"image-translator/api/internal/app"
	"image-translator/api/internal/config"
	"image-translator/api/internal/handle"
	"image-translator/api/internal/httpserver"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/media"
)

func main() {
	log := logging.New("image-translator")

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		log.Error("worker start failed", "err", err)
		os.Exit(1)
	}

	h := handle.New(handle.Deps{
		Extractor:    a.Extractor,
		Extractions:  a.Extractions,
		Translations: a.Translations,
		Media:        media.NewDir(cfg.MediaDir),
		Log:          log.With("http"),
		Timeout:      cfg.RequestTimeout,
	})
	mux := http.NewServeMux()
	h.Register(mux)

	if err := httpserver.Serve(ctx, ":"+cfg.Port, mux, log.With("http")); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
