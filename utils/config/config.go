package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/subosito/gotenv"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// External job worker.
	WorkerURL       string        `env:"WORKER_URL"`
	SigningSecret   string        `env:"SIGNING_SECRET"`
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"10s"`

	// Inbound result callbacks are signed with the same secret and must
	// be fresher than this window.
	CallbackFreshness time.Duration `env:"CALLBACK_FRESHNESS" envDefault:"5m"`

	// Gateway auth.
	JWTSecret string `env:"JWT_SECRET"`
	APIKey    string `env:"API_KEY"`
	APISecret string `env:"API_SECRET"`

	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash-lite"`

	Debug bool `env:"DEBUG"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	gotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.SigningSecret == "" {
		return Config{}, fmt.Errorf("SIGNING_SECRET is required")
	}
	if cfg.WorkerURL == "" {
		return Config{}, fmt.Errorf("WORKER_URL is required")
	}
	return cfg, nil
}
