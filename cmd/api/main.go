package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/bowmeow/session-token/internal/api/http"
	"github.com/bowmeow/session-token/internal/api/http/handlers"
	"github.com/bowmeow/session-token/internal/auth"
	"github.com/bowmeow/session-token/internal/config"
	"github.com/bowmeow/session-token/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	tokens, err := auth.NewTokenService(cfg.Auth.TokenConfig())
	if err != nil {
		logger.Fatal("failed to init token service", zap.Error(err))
	}
	logger.Info("token service ready",
		zap.Stringer("secret_source", tokens.Source()),
		zap.String("algorithm", tokens.Algorithm()),
		zap.Duration("expiration", tokens.Expiration()),
	)

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewAuthMiddleware(tokens, metrics)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics),
		Tokens:         handlers.NewTokensHandler(tokens, metrics, logger),
		AuthMiddleware: authMiddleware,
		IssueEnabled:   cfg.Auth.IssueEndpointEnabled,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", cfg.App.Addr()))

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
