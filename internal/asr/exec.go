package asr

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/rs/zerolog"

	"github.com/snarg/asr-engine/internal/config"
)

//go:embed runner.py
var runnerScript []byte

// execModel runs a local whisper process per invocation. By default a
// bundled Python runner drives openai-whisper; MODEL_COMMAND swaps in any
// command that prints the same JSON shape on stdout. Stderr is captured and
// discarded on success, so model warnings never reach the caller; on failure
// its last line is attached to the error.
type execModel struct {
	cmd    []string
	device string
	size   string
	log    zerolog.Logger
}

func newExecModel(cfg *config.Config, device string, log zerolog.Logger) (*execModel, error) {
	m := &execModel{device: device, size: cfg.ModelSize, log: log}

	if cfg.ModelCommand == "" {
		py, err := exec.LookPath("python3")
		if err != nil {
			return nil, fmt.Errorf("python3 not found in PATH (set MODEL_COMMAND to use another runner): %w", err)
		}
		runnerPath := filepath.Join(os.TempDir(), "asr-engine-runner.py")
		if err := os.WriteFile(runnerPath, runnerScript, 0o755); err != nil {
			return nil, fmt.Errorf("write whisper runner: %w", err)
		}
		m.cmd = []string{py, runnerPath}
		return m, nil
	}

	args, err := shellwords.Parse(cfg.ModelCommand)
	if err != nil {
		return nil, fmt.Errorf("parse MODEL_COMMAND: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("MODEL_COMMAND is empty")
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("model command %q: %w", args[0], err)
	}
	m.cmd = args
	return m, nil
}

func (m *execModel) Transcribe(ctx context.Context, audioPath string, opts Options) (*ModelResult, error) {
	args := append([]string{}, m.cmd[1:]...)
	args = append(args,
		"--audio", audioPath,
		"--model", m.size,
		"--device", m.device,
		"--task", opts.Task,
		"--temperature", formatFloat(opts.Temperature),
		"--compression-ratio-threshold", formatFloat(opts.CompressionRatioThreshold),
		"--logprob-threshold", formatFloat(opts.LogprobThreshold),
		"--no-speech-threshold", formatFloat(opts.NoSpeechThreshold),
	)
	if opts.FP16 {
		args = append(args, "--fp16")
	}

	cmd := exec.CommandContext(ctx, m.cmd[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("whisper runner: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("whisper runner: %w", err)
	}

	var res ModelResult
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return nil, fmt.Errorf("decode runner output: %w", err)
	}
	return &res, nil
}

func (m *execModel) Name() string { return "exec" }

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// lastLine returns the final non-blank line of s, which for a Python runner
// is the exception summary rather than the traceback.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
