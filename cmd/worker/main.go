package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"donasi/internal/adapter/repo"
	"donasi/internal/infra"
	"donasi/internal/ledger"
	"donasi/internal/storage"
)

// The worker removes proof images that no donation references any more,
// e.g. uploads whose donation failed to persist or was deleted while the
// blob store was unreachable.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLoggerWithOptions(infra.LoggerOptions{AppEnv: cfg.AppEnv, File: cfg.LogFile}).
		With().Str("component", "sweeper").Logger()

	// A private in-memory store references nothing, so every proof would
	// look orphaned.
	if cfg.StoreBackend == infra.BackendMemory && cfg.DataDir == "" {
		logger.Fatal().Msg("worker: memory backend needs DATA_DIR shared with the API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: open collection store failed")
	}
	defer store.Close()

	blobs, err := storage.NewFileStore(cfg.UploadDir, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: prepare upload directory failed")
	}

	svc := ledger.New(ledger.Options{
		Store:  store,
		Blobs:  blobs,
		Logger: logger,
	})

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	logger.Info().Dur("interval", interval).Dur("grace", cfg.SweepGrace).Msg("worker started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		sweep(ctx, svc, cfg.SweepGrace, logger)
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker stopped")
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, svc *ledger.Service, grace time.Duration, logger infra.Logger) {
	removed, err := svc.SweepOrphanProofs(ctx, grace)
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return
	}
	if removed > 0 {
		logger.Info().Int("removed", removed).Msg("orphaned proofs removed")
	}
}
