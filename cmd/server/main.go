package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/http2"

	"chunk-gate/internal/adapter/augur"
	"chunk-gate/internal/adapter/gate_http"
	"chunk-gate/internal/adapter/llmcache"
	"chunk-gate/internal/adapter/openaix"
	"chunk-gate/internal/domain"
	"chunk-gate/internal/infra/config"
	"chunk-gate/internal/infra/logger"
	"chunk-gate/internal/infra/telemetry"
	"chunk-gate/internal/usecase"
)

func main() {
	// 1. Load Config (.env is optional)
	_ = godotenv.Load()
	cfg := config.Load()

	// 2. Initialize Telemetry + Logger
	if cfg.OTelEnabled {
		shutdown, err := telemetry.Setup(context.Background(), "chunk-gate")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to set up telemetry: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}
	log := logger.NewWithOTel(cfg.OTelEnabled)
	slog.SetDefault(log)

	// 3. Initialize Completion Provider
	provider, err := buildProvider(cfg)
	if err != nil {
		log.Error("failed to build completion provider", "error", err)
		os.Exit(1)
	}
	if provider != nil {
		cached, err := llmcache.New(provider, cfg.CacheSize)
		if err != nil {
			log.Error("failed to build completion cache", "error", err)
			os.Exit(1)
		}
		provider = cached
		log.Info("completion provider ready", "provider", cfg.Provider, "model", provider.ModelName())
	} else {
		log.Warn("no completion provider configured; relevance probe will use heuristics only")
	}

	// 4. Initialize Usecases
	assessUsecase := usecase.NewAssessChunkUsecase(provider, log)
	filterUsecase := usecase.NewFilterChunksUsecase(assessUsecase, log)

	defaults := usecase.DefaultFilterOptions()
	defaults.MinRelevanceScore = cfg.Gate.MinRelevanceScore
	defaults.QualityWeight = cfg.Gate.QualityWeight
	defaults.BatchSize = cfg.Gate.BatchSize
	defaults.MaxChunks = cfg.Gate.MaxChunks

	// 5. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	handler := gate_http.NewHandler(filterUsecase, assessUsecase, defaults)
	handler.Register(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// 6. Start Server (h2c so local callers can multiplex batch requests)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr)
		if err := e.StartH2CServer(addr, &http2.Server{}); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("failed to shut down cleanly", "error", err)
	}
}

func buildProvider(cfg *config.Config) (domain.CompletionProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return augur.NewCompletionClient(
			cfg.OllamaURL,
			cfg.OllamaModel,
			time.Duration(cfg.OllamaTimeout)*time.Second,
			cfg.OllamaRPS,
		), nil
	case "openai":
		return openaix.NewCompletionClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
