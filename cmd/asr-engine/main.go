package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/snarg/asr-engine/internal/api"
	"github.com/snarg/asr-engine/internal/asr"
	"github.com/snarg/asr-engine/internal/config"
	"github.com/snarg/asr-engine/internal/metrics"
	"github.com/snarg/asr-engine/internal/scratch"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	var showVersion bool
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.ScratchDir, "scratch-dir", "", "scratch directory (overrides SCRATCH_DIR)")
	flag.StringVar(&overrides.ModelMode, "model-mode", "", "model backend: exec, http, or mock")
	flag.StringVar(&overrides.ModelSize, "model-size", "", "whisper model size")
	flag.StringVar(&overrides.Device, "device", "", "compute device: cpu or cuda (default auto-detect)")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().
		Str("version", version).
		Str("model_mode", cfg.ModelMode).
		Str("model_size", cfg.ModelSize).
		Msg("asr-engine starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Scratch storage for uploads, with a background sweep for leaked files
	store, err := scratch.New(cfg.ScratchDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scratch store")
	}
	sweeper := scratch.NewSweeper(cfg.ScratchDir, cfg.ScratchMaxAge, cfg.SweepInterval, log)
	sweeper.Start()
	defer sweeper.Stop()

	// Recognizer, constructed lazily on first request
	asrLog := log.With().Str("component", "asr").Logger()
	lazy := asr.NewLazy(func() (*asr.Recognizer, error) {
		return asr.New(cfg, asrLog)
	})
	prometheus.MustRegister(metrics.NewCollector(lazy))

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, lazy, store, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Dur("uptime", time.Since(startTime)).Msg("asr-engine stopped")
}
