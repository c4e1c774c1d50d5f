package asr

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/snarg/asr-engine/internal/config"
)

// Model is the capability the recognizer consumes: feed it an audio file
// path and a fixed option set, get back raw text plus timestamped segments.
// Implementations: execModel (local whisper runner process), httpModel
// (OpenAI-compatible endpoint), mockModel (development and tests).
type Model interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (*ModelResult, error)
	Name() string // backend identifier for logs
}

// Options is the decoding configuration sent on every invocation.
type Options struct {
	Task                      string
	Temperature               float64
	CompressionRatioThreshold float64
	LogprobThreshold          float64
	NoSpeechThreshold         float64
	FP16                      bool
}

// DefaultOptions returns the fixed option set: deterministic decoding with
// automatic language detection, and reduced precision only on CUDA.
func DefaultOptions(device string) Options {
	return Options{
		Task:                      "transcribe",
		Temperature:               0,
		CompressionRatioThreshold: 2.4,
		LogprobThreshold:          -1.0,
		NoSpeechThreshold:         0.6,
		FP16:                      device == DeviceCUDA,
	}
}

// ModelResult is the raw model output before post-processing.
type ModelResult struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Segment mirrors whisper's segment shape and is exposed verbatim in the
// transcribe response.
type Segment struct {
	ID               int     `json:"id"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	AvgLogprob       float64 `json:"avg_logprob"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// newModel constructs the backend selected by cfg.ModelMode, bound to device.
func newModel(cfg *config.Config, device string, log zerolog.Logger) (Model, error) {
	switch cfg.ModelMode {
	case "exec":
		return newExecModel(cfg, device, log)
	case "http":
		return newHTTPModel(cfg.WhisperURL, cfg.ModelSize, cfg.ModelTimeout), nil
	case "mock":
		return mockModel{}, nil
	default:
		return nil, fmt.Errorf("unknown model mode %q", cfg.ModelMode)
	}
}
