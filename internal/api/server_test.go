package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/snarg/asr-engine/internal/asr"
	"github.com/snarg/asr-engine/internal/config"
	"github.com/snarg/asr-engine/internal/scratch"
	"github.com/snarg/asr-engine/internal/testaudio"
)

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	store, err := scratch.New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	source := &stubSource{rec: asr.NewFromModel(&spyModel{}, "cpu", "small", zerolog.Nop())}
	return NewServer(cfg, source, store, zerolog.Nop()).http.Handler
}

func toneClip(t *testing.T) []byte {
	t.Helper()
	data, err := testaudio.ToneBytes(0.25)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func baseConfig() *config.Config {
	return &config.Config{
		HTTPAddr:       ":0",
		MaxUploadBytes: 32 << 20,
	}
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, baseConfig())

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET /health = %d, want 200", rec.Code)
		}
		if id := rec.Header().Get("X-Request-ID"); id == "" {
			t.Error("missing X-Request-ID header")
		}
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET /metrics = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "asr_engine_") {
			t.Error("metrics exposition missing asr_engine namespace")
		}
	})

	t.Run("openapi", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/openapi.yaml", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET /openapi.yaml = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "openapi:") {
			t.Error("openapi.yaml body looks empty")
		}
	})

	t.Run("transcribe_end_to_end", func(t *testing.T) {
		body, ct := buildMultipartForm(t, nil, "audio_file", toneClip(t), "clip.wav")
		req := httptest.NewRequest("POST", "/transcribe", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("POST /transcribe = %d, want 200; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestServer_AuthProtectsTranscribeOnly(t *testing.T) {
	cfg := baseConfig()
	cfg.AuthToken = "sekrit"
	h := newTestServer(t, cfg)

	body, ct := buildMultipartForm(t, nil, "audio_file", toneClip(t), "clip.wav")
	req := httptest.NewRequest("POST", "/transcribe", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated POST /transcribe = %d, want 401", rec.Code)
	}

	body, ct = buildMultipartForm(t, nil, "audio_file", toneClip(t), "clip.wav")
	req = httptest.NewRequest("POST", "/transcribe", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer sekrit")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated POST /transcribe = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	// Health stays open.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health with auth enabled = %d, want 200", rec.Code)
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	h := newTestServer(t, cfg)

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", rec.Code)
	}
}
