package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snarg/asr-engine/internal/metrics"
)

// Store holds uploaded audio on local disk for the duration of one request.
// Every Save allocates a fresh path, so concurrent uploads with identical
// filenames cannot race on the same file.
type Store struct {
	dir string
	log zerolog.Logger
}

// New creates the scratch directory if needed and returns a store over it.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	return &Store{
		dir: dir,
		log: log.With().Str("component", "scratch").Logger(),
	}, nil
}

// Save writes data to a uniquely named scratch file and returns its path.
// The name embeds a per-request UUID plus a sanitized form of the caller's
// filename, which is kept only as a debugging aid.
func (s *Store) Save(data []byte, origName string) (string, error) {
	path := filepath.Join(s.dir, uuid.NewString()+"_"+sanitizeName(origName))

	// Atomic write: temp file + rename
	tmp, err := os.CreateTemp(s.dir, ".upload-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename: %w", err)
	}
	return path, nil
}

// Remove deletes a scratch file. Failures are logged and counted but never
// returned, so cleanup cannot mask the primary result of a request.
func (s *Store) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		metrics.ScratchCleanupFailuresTotal.Inc()
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove scratch file")
		return
	}
	s.log.Debug().Str("path", path).Msg("removed scratch file")
}

// Dir returns the scratch directory path.
func (s *Store) Dir() string { return s.dir }

// sanitizeName reduces a caller-supplied filename to a safe basename.
// Uniqueness comes from the UUID prefix, not from this name.
func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == ".." || base == "/" {
		base = ""
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "audio"
	}
	// Cap the tail so extensions survive absurdly long names.
	if len(out) > 64 {
		out = out[len(out)-64:]
	}
	return out
}
