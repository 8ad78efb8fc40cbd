package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port string `yaml:"port"`

	GeminiAPIKey          string `yaml:"gemini_api_key"`
	GeminiModel           string `yaml:"gemini_model"`
	GeminiMaxOutputTokens int32  `yaml:"gemini_max_output_tokens"`

	Store       string `yaml:"store"`
	DatabaseURL string `yaml:"database_url"`

	RedisURL         string        `yaml:"redis_url"`
	OCRCacheTTL      time.Duration `yaml:"ocr_cache_ttl"`
	TranslationQueue string        `yaml:"translation_queue"`

	MediaDir             string        `yaml:"media_dir"`
	MaxPixels            int           `yaml:"max_pixels"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
	ReconcileConcurrency int           `yaml:"reconcile_concurrency"`
	StrictBounds         bool          `yaml:"strict_bounds"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	WebhookURL       string `yaml:"webhook_url"`
}

func defaults() *Config {
	return &Config{
		Port:                 "8000",
		GeminiModel:          "gemini-2.5-flash-lite",
		Store:                StoreMemory,
		OCRCacheTTL:          24 * time.Hour,
		TranslationQueue:     "translations",
		MediaDir:             "media",
		MaxPixels:            18_000_000,
		RequestTimeout:       60 * time.Second,
		ReconcileConcurrency: 4,
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if set), then
// environment variables. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Store == StorePostgres && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = resolveDSN()
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.Store = strings.ToLower(getEnv("STORE", c.Store))
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.TranslationQueue = getEnv("TRANSLATION_QUEUE", c.TranslationQueue)
	c.MediaDir = getEnv("MEDIA_DIR", c.MediaDir)
	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.WebhookURL = getEnv("WEBHOOK_URL", c.WebhookURL)

	var errs []error
	if v := getEnv("GEMINI_MAX_OUTPUT_TOKENS", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		errs = append(errs, envErr("GEMINI_MAX_OUTPUT_TOKENS", err))
		c.GeminiMaxOutputTokens = int32(n)
	}
	errs = append(errs,
		intEnv("MAX_PIXELS", &c.MaxPixels),
		intEnv("RECONCILE_CONCURRENCY", &c.ReconcileConcurrency),
		durationEnv("OCR_CACHE_TTL", &c.OCRCacheTTL),
		durationEnv("REQUEST_TIMEOUT", &c.RequestTimeout),
	)
	if v := getEnv("STRICT_BOUNDS", ""); v != "" {
		b, err := strconv.ParseBool(v)
		errs = append(errs, envErr("STRICT_BOUNDS", err))
		c.StrictBounds = b
	}
	return errors.Join(errs...)
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("missing required env GEMINI_API_KEY"))
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("STORE=postgres needs DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store))
	}
	if c.MaxPixels <= 0 {
		errs = append(errs, errors.New("MAX_PIXELS must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.ReconcileConcurrency <= 0 {
		errs = append(errs, errors.New("RECONCILE_CONCURRENCY must be positive"))
	}
	return errors.Join(errs...)
}

func intEnv(k string, dst *int) error {
	v := getEnv(k, "")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return envErr(k, err)
	}
	*dst = n
	return nil
}

func durationEnv(k string, dst *time.Duration) error {
	v := getEnv(k, "")
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return envErr(k, err)
	}
	*dst = d
	return nil
}

func envErr(k string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("env %s: %w", k, err)
}

// resolveDSN builds a DSN from POSTGRES_* / PG* variables when DATABASE_URL is not set.
func resolveDSN() string {
	user := getEnv("POSTGRES_USER", "translator")
	pass := os.Getenv("POSTGRES_PASSWORD")
	host := getEnv("PGHOST", "db")
	port := getEnv("PGPORT", "5432")
	db := getEnv("POSTGRES_DB", "translator")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
