package asr

// ProcessingInfo describes how a result was produced.
type ProcessingInfo struct {
	Model            string  `json:"model,omitempty"`
	Device           string  `json:"device,omitempty"`
	AudioDuration    float64 `json:"audio_duration,omitempty"`
	DetectedLanguage string  `json:"detected_language,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// Result is the outcome of one transcription. Failure is carried in Err
// rather than a Go error so callers branch on the variant, and a failed
// Result still has well-defined zero-value fields.
type Result struct {
	Text       string
	Language   string
	Confidence float64
	Duration   float64
	Segments   []Segment
	Info       ProcessingInfo
	Err        string
}

// Failed reports whether this is the failure variant.
func (r *Result) Failed() bool { return r.Err != "" }
