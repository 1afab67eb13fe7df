package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/octobees/attic-directory/internal/auth"
	"github.com/octobees/attic-directory/internal/config"
	"github.com/octobees/attic-directory/internal/database"
	"github.com/octobees/attic-directory/internal/handler"
	"github.com/octobees/attic-directory/internal/logger"
	"github.com/octobees/attic-directory/internal/metrics"
	middlewarepkg "github.com/octobees/attic-directory/internal/middleware"
	"github.com/octobees/attic-directory/internal/repository"
	"github.com/octobees/attic-directory/internal/router"
	"github.com/octobees/attic-directory/internal/service"
	"github.com/octobees/attic-directory/internal/service/contact"
	"github.com/octobees/attic-directory/internal/service/search"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		zapLogger.Fatal("failed to connect database", zap.Error(err))
	}
	defer pool.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	normalizer := contact.NewNormalizer(cfg.PhoneRegion)

	usersRepo := repository.NewPGXUsersRepository(pool)
	locationsRepo := repository.NewPGXLocationsRepository(pool)
	listingsRepo := repository.NewPGXListingsRepository(pool)
	searchLogsRepo := repository.NewPGXSearchLogsRepository(pool)

	logWriter, err := search.NewAsyncLogWriter(searchLogsRepo, cfg.SearchLogWorkers, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to start search log writer", zap.Error(err))
	}

	searchService := search.NewService(locationsRepo, listingsRepo, logWriter, normalizer, cfg.SearchTimeout)
	authService := service.NewAuthService(usersRepo, jwtManager)
	directoryService := service.NewDirectoryService(locationsRepo, listingsRepo, normalizer)
	searchLogService := service.NewSearchLogService(searchLogsRepo)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(zapLogger))
	e.Use(echoMiddleware.Recover())
	e.Use(metrics.Middleware())

	router.Register(e, cfg, jwtManager, router.Handlers{
		Health:     handler.NewHealthHandler(pool),
		Auth:       handler.NewAuthHandler(authService),
		Search:     handler.NewSearchHandler(searchService),
		Directory:  handler.NewDirectoryHandler(directoryService),
		SearchLogs: handler.NewSearchLogHandler(searchLogService),
	})

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("http server listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zapLogger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("server error", zap.Error(err))
		}
		if closeErr := logWriter.Close(shutdownTimeout); closeErr != nil {
			zapLogger.Warn("search log writer did not drain", zap.Error(closeErr))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("graceful shutdown failed", zap.Error(err))
	}
	if err := logWriter.Close(shutdownTimeout); err != nil {
		zapLogger.Warn("search log writer did not drain", zap.Error(err))
	}
}
