package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stickerline/internal/adapter/repo"
	"stickerline/internal/http/handlers"
	"stickerline/internal/http/httpapi"
	"stickerline/internal/imaging"
	"stickerline/internal/infra"
	"stickerline/internal/infra/geoip"
	"stickerline/internal/middleware"
	"stickerline/internal/orchestrator"
	"stickerline/internal/providers/background"
	"stickerline/internal/providers/genai"
	imageprovider "stickerline/internal/providers/image"
	"stickerline/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init storage")
	}
	signer, err := storage.NewURLSigner(cfg.SignedURLSecret, cfg.SignedURLExpiry)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init url signer")
	}

	users := repo.NewUserRepository(dbpool)
	jobs := repo.NewJobRepository(dbpool)
	slots := repo.NewSlotRepository(dbpool)

	generator := buildGenerator(cfg, &logger)
	remover := background.Select(cfg.BackgroundRemoveURL, nil, &logger)
	cleaner := imaging.NewCleaner(remover)

	orch := orchestrator.New(users, jobs, slots, generator, cleaner, store, &logger, orchestrator.Options{
		Concurrency: cfg.GenerationConcurrency,
		Cooldown:    cfg.GenerationCooldown,
		Timeout:     cfg.GenerationTimeout,
	})

	app := &handlers.App{
		Users:          users,
		Jobs:           jobs,
		Slots:          slots,
		Orch:           orch,
		Store:          store,
		Signer:         signer,
		Logger:         &logger,
		JWTSecret:      cfg.JWTSecret,
		OmiseSecretKey: cfg.OmiseSecretKey,
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, cfg, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
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
	orch.Wait()
	logger.Info().Msg("server stopped")
}

// buildGenerator assembles the primary Gemini generator with its retry budget
// and, when a fallback model is configured, chains it behind the primary.
func buildGenerator(cfg *infra.Config, logger *infra.Logger) imageprovider.Generator {
	primaryClient, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init gemini client")
	}
	primary := imageprovider.NewGeminiGenerator(primaryClient, genai.NewBackoff(cfg.RetryBaseDelay, nil), cfg.GenerationRetries)

	if cfg.FallbackModel == "" {
		return primary
	}

	fallbackKey := cfg.FallbackAPIKey
	if fallbackKey == "" {
		fallbackKey = cfg.GeminiAPIKey
	}
	fallbackClient, err := genai.NewClient(genai.Options{
		APIKey:  fallbackKey,
		BaseURL: cfg.FallbackBaseURL,
		Model:   cfg.FallbackModel,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init fallback gemini client")
	}
	secondary := imageprovider.NewGeminiGenerator(fallbackClient, genai.NewBackoff(cfg.RetryBaseDelay, nil), cfg.FallbackMaxRetries)

	return imageprovider.NewFallbackGenerator(primary, secondary)
}
