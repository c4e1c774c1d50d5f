package asr

import "context"

// mockModel returns a canned result. Selected with MODEL_MODE=mock so the
// service runs end-to-end without a whisper install.
type mockModel struct{}

func (mockModel) Transcribe(ctx context.Context, audioPath string, opts Options) (*ModelResult, error) {
	return &ModelResult{
		Text:     "mock transcription",
		Language: "en",
		Segments: []Segment{
			{ID: 0, Start: 0, End: 1.0, Text: "mock transcription", AvgLogprob: -0.2},
		},
	}, nil
}

func (mockModel) Name() string { return "mock" }
