package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// httpModel posts audio to an OpenAI-compatible /v1/audio/transcriptions
// endpoint, requesting verbose_json so segment log-probabilities come back.
// No language is sent; the server auto-detects.
type httpModel struct {
	url    string
	model  string
	client *http.Client
}

func newHTTPModel(url, model string, timeout time.Duration) *httpModel {
	return &httpModel{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

// verboseResponse is the verbose_json body from the Whisper API.
type verboseResponse struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

func (m *httpModel) Transcribe(ctx context.Context, audioPath string, opts Options) (*ModelResult, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	if m.model != "" {
		w.WriteField("model", m.model)
	}
	w.WriteField("temperature", fmt.Sprintf("%.2f", opts.Temperature))
	w.WriteField("response_format", "verbose_json")
	w.WriteField("timestamp_granularities[]", "segment")
	if opts.NoSpeechThreshold > 0 {
		w.WriteField("no_speech_threshold", fmt.Sprintf("%.2f", opts.NoSpeechThreshold))
	}
	if opts.CompressionRatioThreshold > 0 {
		w.WriteField("compression_ratio_threshold", fmt.Sprintf("%.2f", opts.CompressionRatioThreshold))
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed verboseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &ModelResult{
		Text:     parsed.Text,
		Language: parsed.Language,
		Segments: parsed.Segments,
	}, nil
}

func (m *httpModel) Name() string { return "http" }
