package api

import (
	"net/http"

	"github.com/snarg/asr-engine/internal/asr"
)

const serviceName = "asr-service"

// RecognizerSource hands out the process-wide recognizer, constructing it on
// first use.
type RecognizerSource interface {
	Get() (*asr.Recognizer, error)
}

// HealthResponse is the GET /health body. model_loaded and device are only
// present when the recognizer is usable; error only when it is not.
type HealthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ModelLoaded *bool  `json:"model_loaded,omitempty"`
	Device      string `json:"device,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HealthHandler reports whether the recognizer can be obtained. It shares
// the lazy holder with the transcribe path, so a health probe on a fresh
// process is what loads the model.
type HealthHandler struct {
	rec RecognizerSource
}

func NewHealthHandler(rec RecognizerSource) *HealthHandler {
	return &HealthHandler{rec: rec}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec, err := h.rec.Get()
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "unhealthy",
			Service: serviceName,
			Error:   err.Error(),
		})
		return
	}

	loaded := true
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Service:     serviceName,
		ModelLoaded: &loaded,
		Device:      rec.Device(),
	})
}
