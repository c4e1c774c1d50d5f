// Package asr wraps a speech-to-text model behind a recognizer that resolves
// the compute device once, invokes the model with a fixed option set, and
// post-processes raw segments into a confidence score and duration estimate.
package asr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/asr-engine/internal/config"
)

// Recognizer binds a Model to a resolved compute device. Transcribe never
// returns a Go error: failures come back as the failure variant of Result.
type Recognizer struct {
	model      Model
	device     string
	size       string
	opts       Options
	timeout    time.Duration
	preprocess bool
	slots      chan struct{} // bounds concurrent model invocations
	log        zerolog.Logger

	completed atomic.Int64
	failed    atomic.Int64
}

// New resolves the compute device and constructs the configured model
// backend bound to it. Construction failure propagates; callers map it to a
// service-unavailable response.
func New(cfg *config.Config, log zerolog.Logger) (*Recognizer, error) {
	device := DetectDevice(cfg.Device)
	if cfg.ModelMode == "http" {
		device = DeviceRemote
	}

	model, err := newModel(cfg, device, log)
	if err != nil {
		return nil, fmt.Errorf("construct %s model: %w", cfg.ModelMode, err)
	}

	r := &Recognizer{
		model:      model,
		device:     device,
		size:       cfg.ModelSize,
		opts:       DefaultOptions(device),
		timeout:    cfg.ModelTimeout,
		preprocess: cfg.PreprocessAudio,
		slots:      make(chan struct{}, cfg.MaxConcurrent),
		log:        log,
	}

	if r.preprocess {
		if CheckSox() {
			log.Info().Msg("audio preprocessing enabled (sox found)")
		} else {
			log.Warn().Msg("PREPROCESS_AUDIO=true but sox not found in PATH; preprocessing disabled")
			r.preprocess = false
		}
	}

	log.Info().
		Str("backend", model.Name()).
		Str("model", r.size).
		Str("device", device).
		Int("slots", cfg.MaxConcurrent).
		Msg("recognizer ready")
	return r, nil
}

// NewFromModel builds a recognizer over an already-constructed model with a
// single transcription slot and no invocation timeout.
func NewFromModel(model Model, device, size string, log zerolog.Logger) *Recognizer {
	return &Recognizer{
		model:  model,
		device: device,
		size:   size,
		opts:   DefaultOptions(device),
		slots:  make(chan struct{}, 1),
		log:    log,
	}
}

// Transcribe runs the model on the audio file at path and post-processes the
// output. The path must reference an existing file. Waits for a free
// transcription slot first; the wait is abandoned when ctx is canceled.
func (r *Recognizer) Transcribe(ctx context.Context, path string) Result {
	if _, err := os.Stat(path); err != nil {
		return r.fail(fmt.Errorf("audio file not found: %s", path))
	}

	select {
	case r.slots <- struct{}{}:
		defer func() { <-r.slots }()
	case <-ctx.Done():
		return r.fail(fmt.Errorf("canceled waiting for transcription slot: %w", ctx.Err()))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	audioPath := path
	if r.preprocess {
		processed, cleanup, err := Preprocess(ctx, path)
		if err != nil {
			r.log.Warn().Err(err).Msg("preprocessing failed, using original audio")
		} else {
			audioPath = processed
			defer cleanup()
		}
	}

	start := time.Now()
	raw, err := r.model.Transcribe(ctx, audioPath, r.opts)
	if err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("model invocation failed")
		return r.fail(err)
	}

	lang := strings.TrimSpace(raw.Language)
	if lang == "" {
		lang = "unknown"
	}
	dur := lastSegmentEnd(raw.Segments)

	res := Result{
		Text:       strings.TrimSpace(raw.Text),
		Language:   lang,
		Confidence: confidence(raw.Segments),
		Duration:   dur,
		Segments:   raw.Segments,
		Info: ProcessingInfo{
			Model:            r.size,
			Device:           r.device,
			AudioDuration:    dur,
			DetectedLanguage: lang,
		},
	}

	r.completed.Add(1)
	r.log.Debug().
		Str("language", res.Language).
		Float64("confidence", res.Confidence).
		Float64("audio_duration", res.Duration).
		Int("segments", len(res.Segments)).
		Dur("took", time.Since(start)).
		Msg("transcription complete")
	return res
}

// fail records the failure and builds the failure variant with zeroed
// confidence.
func (r *Recognizer) fail(err error) Result {
	r.failed.Add(1)
	return Result{
		Language: "unknown",
		Info: ProcessingInfo{
			Model:  r.size,
			Device: r.device,
			Error:  err.Error(),
		},
		Err: err.Error(),
	}
}

// Device returns the compute device the recognizer is bound to.
func (r *Recognizer) Device() string { return r.device }

// ModelSize returns the configured model size.
func (r *Recognizer) ModelSize() string { return r.size }

// Completed returns the number of successful transcriptions.
func (r *Recognizer) Completed() int64 { return r.completed.Load() }

// Failed returns the number of failed transcriptions.
func (r *Recognizer) Failed() int64 { return r.failed.Load() }

// confidence maps each segment's average log-probability to
// clamp((lp+1)/2, 0, 1) and takes the duration-weighted mean. This is a
// heuristic reading of whisper's logprobs, not a calibrated probability.
// Returns 0 when there are no segments or the total duration is zero.
func confidence(segs []Segment) float64 {
	var weighted, total float64
	for _, s := range segs {
		dur := s.End - s.Start
		score := (s.AvgLogprob + 1.0) / 2.0
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		weighted += score * dur
		total += dur
	}
	if total <= 0 {
		return 0
	}
	return weighted / total
}

// lastSegmentEnd estimates audio duration as the end of the last segment.
func lastSegmentEnd(segs []Segment) float64 {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].End
}
