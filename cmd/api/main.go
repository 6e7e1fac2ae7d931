package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"donasi/internal/adapter/repo"
	"donasi/internal/http/handlers"
	httpapi "donasi/internal/http/httpapi"
	"donasi/internal/infra"
	"donasi/internal/infra/geoip"
	"donasi/internal/ledger"
	"donasi/internal/middleware"
	"donasi/internal/storage"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLoggerWithOptions(infra.LoggerOptions{AppEnv: cfg.AppEnv, File: cfg.LogFile})

	ctx := context.Background()
	store, err := repo.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open collection store")
	}
	defer store.Close()

	blobs, err := storage.NewFileStore(cfg.UploadDir, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.Lookup
	}

	if cfg.CORSWildcardWithCredentials() {
		logger.Warn().Msg("CORS allows any origin with credentials; set CORS_ALLOWED_ORIGINS for production")
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn().Msg("ADMIN_JWT_SECRET not set, admin routes are public")
	}

	metrics := infra.NewMetrics()
	svc := ledger.New(ledger.Options{
		Store:          store,
		Blobs:          blobs,
		Logger:         logger,
		Metrics:        metrics,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	app := handlers.NewApp(svc, logger, metrics, cfg.AppEnv)

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSOrigins,
		CORSCredentials: cfg.CORSCredentials,
		AdminSecret:     cfg.AdminJWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		Uploads:         blobs.HTTPFileSystem(),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("store", cfg.StoreBackend).
			Str("uploads", cfg.StorageBaseURL).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
