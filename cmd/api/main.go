package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/history"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/library"
	"server/internal/operation"
	"server/internal/pipeline"
	"server/internal/providers/genai"
	imageprovider "server/internal/providers/image"
	videoprovider "server/internal/providers/video"
	"server/internal/retry"
	"server/internal/storage"
	"server/internal/video"
	"server/internal/watermark"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	client, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		EditModel:  cfg.EditModel,
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModel,
		VideoModel: cfg.VideoModel,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build provider client")
	}

	// Operation store: Redis when configured, process memory otherwise.
	var opStore operation.Store
	if cfg.RedisURL != "" {
		redisStore, err := operation.NewRedisStore(cfg.RedisURL, cfg.OperationTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build redis operation store")
		}
		if err := redisStore.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to reach redis")
		}
		opStore = redisStore
		logger.Info().Msg("operation store: redis")
	} else {
		opStore = operation.NewMemoryStore()
		logger.Warn().Msg("operation store: in-memory, operations are lost on restart")
	}

	// History store: Postgres when configured.
	var histStore history.Store
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		pg := history.NewPostgres(dbpool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare history schema")
		}
		histStore = pg
		logger.Info().Msg("history store: postgres")
	} else {
		histStore = history.NewMemory()
		logger.Warn().Msg("history store: in-memory")
	}

	// Asset library: filesystem when a storage path is configured.
	var (
		lib      library.Library
		exporter library.Exporter
	)
	if cfg.StoragePath != "" {
		fileStore, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare storage")
		}
		fs := library.NewFilesystem(fileStore)
		lib, exporter = fs, fs
		logger.Info().Str("path", cfg.StoragePath).Msg("asset library: filesystem")
	} else {
		mem := library.NewMemory()
		lib, exporter = mem, mem
		logger.Warn().Msg("asset library: in-memory")
	}

	marker := watermark.New(watermark.Config{Tag: cfg.WatermarkTag, Label: cfg.WatermarkLabel})

	videoSvc := video.NewService(videoprovider.NewVeo(client), opStore, video.Config{
		PollInterval:    cfg.PollInterval,
		MaxPollDuration: cfg.MaxPollDuration,
		SubmitRetry:     retry.Policy{MaxAttempts: cfg.SubmitRetryAttempts, BaseDelay: cfg.SubmitRetryDelay},
		PollRetry:       retry.Policy{MaxAttempts: cfg.PollRetryAttempts, BaseDelay: cfg.PollRetryDelay},
	}, logger)

	coordinator := pipeline.NewCoordinator(
		imageprovider.NewGemini(client),
		videoSvc,
		marker,
		lib,
		histStore,
		pipeline.Config{
			EditRetry:        retry.Policy{MaxAttempts: cfg.EditRetryAttempts, BaseDelay: cfg.EditRetryDelay},
			BatchRetry:       retry.Policy{MaxAttempts: cfg.BatchRetryAttempts, BaseDelay: cfg.BatchRetryDelay},
			PreprocessRetry:  retry.Policy{MaxAttempts: cfg.PreprocessRetryAttempts, BaseDelay: cfg.PreprocessRetryDelay},
			BatchConcurrency: cfg.BatchConcurrency,
		},
		logger,
	)

	var lookup func(string) (string, error)
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip unavailable, locale falls back to headers")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := &handlers.App{
		Pipeline: coordinator,
		Video:    videoSvc,
		History:  histStore,
		Library:  lib,
		Exporter: exporter,
		Logger:   logger,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
