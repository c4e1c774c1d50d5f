package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper removes scratch files that outlive maxAge. Requests delete their
// own files on every exit path; the sweeper reclaims files leaked by crashes
// or hard kills mid-request so the scratch dir cannot grow without bound.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	log      zerolog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSweeper creates a sweeper over the scratch directory.
// maxAge <= 0 disables sweeping.
func NewSweeper(dir string, maxAge, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		log:      log.With().Str("component", "scratch-sweeper").Logger(),
		stop:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.loop()
}

func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Sweeper) loop() {
	// Run once on startup to clear any backlog left by a previous crash
	s.Sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Sweep removes every regular file in the scratch dir older than maxAge
// and returns how many were removed.
func (s *Sweeper) Sweep() int {
	if s.maxAge <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-s.maxAge)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn().Err(err).Str("dir", s.dir).Msg("scratch sweep failed to list dir")
		return 0
	}

	var swept int
	var freed int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			swept++
			freed += info.Size()
		}
	}

	if swept > 0 {
		s.log.Info().
			Int("swept", swept).
			Str("freed", humanizeBytes(freed)).
			Msg("scratch sweep complete")
	}
	return swept
}

func humanizeBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
