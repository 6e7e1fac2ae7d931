package repo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"donasi/internal/domain"
	"donasi/internal/infra"
)

// Open builds the collection store selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.CollectionStore, error) {
	logger = logger.With().Str("store", cfg.StoreBackend).Logger()
	switch cfg.StoreBackend {
	case infra.BackendMemory:
		if cfg.DataDir == "" {
			logger.Warn().Msg("DATA_DIR not set, collections are lost on restart")
			return NewMemoryStore(logger), nil
		}
		osfs := afero.NewOsFs()
		if err := osfs.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
		return NewSnapshotStore(afero.NewBasePathFs(osfs, cfg.DataDir), logger, domain.KeyDonations, domain.KeyFundUsage)
	case infra.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, logger)
	case infra.BackendPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(ctx, infra.NewSQLRunner(pool, logger), pool.Close)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}
