package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"image-translator/api/internal/app"
	"image-translator/api/internal/config"
	"image-translator/api/internal/httpserver"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/telegram"
	"image-translator/api/internal/util"
)

func main() {
	log := logging.New("image-translator-bot")

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err == nil && cfg.TelegramBotToken == "" {
		err = errors.New("missing required env TELEGRAM_BOT_TOKEN")
	}
	if err != nil {
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

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("telegram", "err", err)
		os.Exit(1)
	}
	bot.Debug = false
	log.Info("authorized", "bot", bot.Self.UserName)

	r := &telegram.Router{
		Bot:          bot,
		Fetch:        telegram.BotFetcher(bot),
		Extractor:    a.Extractor,
		Extractions:  a.Extractions,
		Translations: a.Translations,
		Log:          log.With("telegram"),
		Timeout:      cfg.RequestTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	addr := "0.0.0.0:" + cfg.Port

	if base := strings.TrimSpace(cfg.WebhookURL); base != "" {
		err = runWebhook(ctx, addr, mux, bot, r, base, log)
	} else {
		go func() {
			if err := httpserver.Serve(ctx, addr, mux, log.With("health")); err != nil {
				log.Error("health server", "err", err)
			}
		}()
		runPolling(ctx, bot, r.HandleUpdate, log)
	}
	if err != nil {
		log.Error("bot stopped", "err", err)
		os.Exit(1)
	}
}

func runWebhook(ctx context.Context, addr string, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string, log *logging.Logger) error {
	path := webhookPath(bot.Token)
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + path)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	updates := make(chan tgbotapi.Update, bot.Buffer)
	mux.HandleFunc(path, webhookHandler(ctx, bot.HandleUpdate, updates))
	go func() {
		for {
			select {
			case upd := <-updates:
				r.HandleUpdate(upd)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("webhook mode", "path", path)
	return httpserver.Serve(ctx, addr, mux, log.With("http"))
}

// webhookHandler parses one update and hands it to the consumer. It gives up when the
// request or the bot is done instead of blocking on a full or abandoned channel.
func webhookHandler(ctx context.Context, parse func(*http.Request) (*tgbotapi.Update, error), updates chan<- tgbotapi.Update) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		upd, err := parse(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		select {
		case updates <- *upd:
		case <-req.Context().Done():
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		}
	}
}

// webhookPath derives a stable secret path from the bot token.
func webhookPath(token string) string {
	return "/webhook/" + util.SHA256Hex([]byte(token))[:16]
}
