// Package testaudio synthesizes small WAV fixtures for tests.
package testaudio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	sampleRate = 16000
	toneHz     = 440.0
)

// WriteTone writes a mono 16-bit PCM WAV file containing a sine tone of the
// given length to path.
func WriteTone(path string, seconds float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	n := int(float64(sampleRate) * seconds)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, n),
	}
	for i := range buf.Data {
		buf.Data[i] = int(math.Round(0.4 * 32767 * math.Sin(2*math.Pi*toneHz*float64(i)/sampleRate)))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// ToneBytes returns an in-memory WAV tone, for stuffing into multipart
// forms. The wav encoder needs a seekable writer, so this round-trips
// through a temp file.
func ToneBytes(seconds float64) ([]byte, error) {
	f, err := os.CreateTemp("", "testaudio-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := WriteTone(path, seconds); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
