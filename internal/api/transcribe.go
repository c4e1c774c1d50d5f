package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/asr-engine/internal/asr"
	"github.com/snarg/asr-engine/internal/metrics"
	"github.com/snarg/asr-engine/internal/scratch"
)

// TranscribeHandler implements POST /transcribe: multipart upload in, either
// an echoed reference text or a model transcription out. The scratch file
// written for the model path is removed on every exit path.
type TranscribeHandler struct {
	rec      RecognizerSource
	store    *scratch.Store
	maxBytes int64
	log      zerolog.Logger
}

func NewTranscribeHandler(rec RecognizerSource, store *scratch.Store, maxBytes int64, log zerolog.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		rec:      rec,
		store:    store,
		maxBytes: maxBytes,
		log:      log.With().Str("handler", "transcribe").Logger(),
	}
}

// referenceResponse echoes caller-supplied text without touching the model.
type referenceResponse struct {
	Transcription string  `json:"transcription"`
	Source        string  `json:"source"`
	Language      string  `json:"language"`
	Confidence    float64 `json:"confidence"`
	Message       string  `json:"message"`
}

// modelResponse is the normalized model result. Segments and ProcessingInfo
// are always present, materialized to [] and {} when the model produced
// neither.
type modelResponse struct {
	Transcription  string             `json:"transcription"`
	Source         string             `json:"source"`
	Language       string             `json:"language"`
	Confidence     float64            `json:"confidence"`
	Segments       []asr.Segment      `json:"segments"`
	ProcessingInfo asr.ProcessingInfo `json:"processing_info"`
}

func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "failed to read audio file", err.Error())
		return
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "Empty audio file")
		return
	}

	// A non-audio content type is tolerated, not rejected.
	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "audio/") {
		h.log.Warn().Str("content_type", ct).Str("filename", header.Filename).Msg("upload declared a non-audio content type")
	}

	// Caller-supplied reference text bypasses the model entirely.
	if ref := strings.TrimSpace(r.FormValue("text")); ref != "" {
		h.log.Info().Str("filename", header.Filename).Msg("using provided reference text")
		metrics.TranscriptionsTotal.WithLabelValues("reference_text", "ok").Inc()
		WriteJSON(w, http.StatusOK, referenceResponse{
			Transcription: ref,
			Source:        "reference_text",
			Language:      "unknown",
			Confidence:    1.0,
			Message:       "Using provided reference text",
		})
		return
	}

	path, err := h.store.Save(data, header.Filename)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to save upload to scratch")
		WriteErrorDetail(w, http.StatusInternalServerError, "internal server error", "could not store upload")
		return
	}
	defer h.store.Remove(path)

	rec, err := h.rec.Get()
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("asr_model", "unavailable").Inc()
		WriteErrorDetail(w, http.StatusServiceUnavailable, "asr service unavailable", err.Error())
		return
	}

	start := time.Now()
	res := rec.Transcribe(r.Context(), path)
	metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())

	if res.Failed() {
		metrics.TranscriptionsTotal.WithLabelValues("asr_model", "error").Inc()
		h.log.Warn().Str("filename", header.Filename).Str("reason", res.Err).Msg("transcription failed")
		WriteErrorDetail(w, http.StatusInternalServerError, "transcription failed", res.Err)
		return
	}

	metrics.TranscriptionsTotal.WithLabelValues("asr_model", "ok").Inc()
	metrics.AudioDuration.Observe(res.Duration)
	metrics.Confidence.Observe(res.Confidence)

	segments := res.Segments
	if segments == nil {
		segments = []asr.Segment{}
	}
	WriteJSON(w, http.StatusOK, modelResponse{
		Transcription:  res.Text,
		Source:         "asr_model",
		Language:       res.Language,
		Confidence:     res.Confidence,
		Segments:       segments,
		ProcessingInfo: res.Info,
	})
}
