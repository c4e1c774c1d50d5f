package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.ScratchDir != "./scratch" {
			t.Errorf("ScratchDir = %q, want ./scratch", cfg.ScratchDir)
		}
		if cfg.ModelMode != "exec" {
			t.Errorf("ModelMode = %q, want exec", cfg.ModelMode)
		}
		if cfg.ModelSize != "small" {
			t.Errorf("ModelSize = %q, want small", cfg.ModelSize)
		}
		if cfg.MaxUploadBytes != 32<<20 {
			t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 32<<20)
		}
		if cfg.MaxConcurrent != 1 {
			t.Errorf("MaxConcurrent = %d, want 1", cfg.MaxConcurrent)
		}
		if cfg.PreprocessAudio {
			t.Error("PreprocessAudio = true, want false")
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:    "nonexistent.env",
			HTTPAddr:   ":9090",
			LogLevel:   "debug",
			ScratchDir: "/tmp/asr-scratch",
			ModelMode:  "mock",
			ModelSize:  "base",
			Device:     "cpu",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.ScratchDir != "/tmp/asr-scratch" {
			t.Errorf("ScratchDir = %q, want /tmp/asr-scratch", cfg.ScratchDir)
		}
		if cfg.ModelMode != "mock" {
			t.Errorf("ModelMode = %q, want mock", cfg.ModelMode)
		}
		if cfg.ModelSize != "base" {
			t.Errorf("ModelSize = %q, want base", cfg.ModelSize)
		}
		if cfg.Device != "cpu" {
			t.Errorf("Device = %q, want cpu", cfg.Device)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{
			"MODEL_SIZE":     "medium",
			"MODEL_MODE":     "mock",
			"HTTP_ADDR":      ":7000",
			"RATE_LIMIT_RPS": "25",
		})
		defer cleanup()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.ModelSize != "medium" {
			t.Errorf("ModelSize = %q, want medium", cfg.ModelSize)
		}
		if cfg.ModelMode != "mock" {
			t.Errorf("ModelMode = %q, want mock", cfg.ModelMode)
		}
		if cfg.HTTPAddr != ":7000" {
			t.Errorf("HTTPAddr = %q, want :7000", cfg.HTTPAddr)
		}
		if cfg.RateLimitRPS != 25 {
			t.Errorf("RateLimitRPS = %v, want 25", cfg.RateLimitRPS)
		}
	})

	t.Run("empty_overrides_use_env", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{"MODEL_SIZE": "tiny"})
		defer cleanup()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.ModelSize != "tiny" {
			t.Errorf("ModelSize = %q, want env value tiny", cfg.ModelSize)
		}
	})
}

func TestLoadValidation(t *testing.T) {
	t.Run("invalid_model_mode", func(t *testing.T) {
		_, err := Load(Overrides{EnvFile: "nonexistent.env", ModelMode: "grpc"})
		if err == nil {
			t.Error("expected error for invalid model mode")
		}
	})

	t.Run("http_mode_requires_url", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{"WHISPER_URL": ""})
		defer cleanup()
		os.Unsetenv("WHISPER_URL")

		_, err := Load(Overrides{EnvFile: "nonexistent.env", ModelMode: "http"})
		if err == nil {
			t.Error("expected error for http mode without WHISPER_URL")
		}
	})

	t.Run("http_mode_with_url", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{"WHISPER_URL": "http://localhost:8000/v1/audio/transcriptions"})
		defer cleanup()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env", ModelMode: "http"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.ModelMode != "http" {
			t.Errorf("ModelMode = %q, want http", cfg.ModelMode)
		}
	})

	t.Run("invalid_device", func(t *testing.T) {
		_, err := Load(Overrides{EnvFile: "nonexistent.env", Device: "tpu"})
		if err == nil {
			t.Error("expected error for invalid device")
		}
	})

	t.Run("invalid_max_concurrent", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{"MAX_CONCURRENT_TRANSCRIPTIONS": "0"})
		defer cleanup()

		_, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err == nil {
			t.Error("expected error for MAX_CONCURRENT_TRANSCRIPTIONS=0")
		}
	})
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
