package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// MaxUploadBytes caps the multipart form size on /transcribe.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`

	ScratchDir    string        `env:"SCRATCH_DIR" envDefault:"./scratch"`
	ScratchMaxAge time.Duration `env:"SCRATCH_MAX_AGE" envDefault:"1h"`
	SweepInterval time.Duration `env:"SCRATCH_SWEEP_INTERVAL" envDefault:"15m"`

	ModelMode    string        `env:"MODEL_MODE" envDefault:"exec"`
	ModelSize    string        `env:"MODEL_SIZE" envDefault:"small"`
	ModelCommand string        `env:"MODEL_COMMAND"`
	ModelTimeout time.Duration `env:"MODEL_TIMEOUT" envDefault:"5m"`
	Device       string        `env:"DEVICE"`

	// WhisperURL points at an OpenAI-compatible /v1/audio/transcriptions
	// endpoint. Required when MODEL_MODE=http.
	WhisperURL string `env:"WHISPER_URL"`

	MaxConcurrent   int  `env:"MAX_CONCURRENT_TRANSCRIPTIONS" envDefault:"1"`
	PreprocessAudio bool `env:"PREPROCESS_AUDIO" envDefault:"false"`

	// RateLimitRPS enables per-IP rate limiting when > 0.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// CORSOrigins restricts cross-origin callers. Empty allows any origin.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile    string
	HTTPAddr   string
	LogLevel   string
	ScratchDir string
	ModelMode  string
	ModelSize  string
	Device     string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.ScratchDir != "" {
		cfg.ScratchDir = overrides.ScratchDir
	}
	if overrides.ModelMode != "" {
		cfg.ModelMode = overrides.ModelMode
	}
	if overrides.ModelSize != "" {
		cfg.ModelSize = overrides.ModelSize
	}
	if overrides.Device != "" {
		cfg.Device = overrides.Device
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ModelMode {
	case "exec", "http", "mock":
	default:
		return fmt.Errorf("invalid MODEL_MODE %q: must be exec, http, or mock", c.ModelMode)
	}
	if c.ModelMode == "http" && c.WhisperURL == "" {
		return fmt.Errorf("WHISPER_URL is required when MODEL_MODE=http")
	}
	switch c.Device {
	case "", "cpu", "cuda":
	default:
		return fmt.Errorf("invalid DEVICE %q: must be cpu or cuda (empty = auto-detect)", c.Device)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT_TRANSCRIPTIONS must be >= 1, got %d", c.MaxConcurrent)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be >= 1, got %d", c.MaxUploadBytes)
	}
	return nil
}
