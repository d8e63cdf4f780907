package main

import (
	"chatpat/internal/api"
	"chatpat/internal/api/ws"
	"chatpat/internal/app"
	"chatpat/internal/auth"
	"chatpat/internal/config"
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	"chatpat/internal/repository/memory"
	"chatpat/internal/repository/sqlstore"
	"chatpat/internal/service/llm"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func openDatabase(ctx context.Context, dbConfig config.DatabaseConfig) (db.Database, error) {
	switch dbConfig.Driver {
	case config.DriverPostgres:
		return sqlstore.OpenPostgres(ctx, dbConfig)
	case config.DriverSQLite:
		return sqlstore.OpenSQLite(ctx, dbConfig.SQLitePath)
	case config.DriverMemory:
		logger.Log.Warn("Using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConfig.Driver)
	}
}

func run() error {
	config.LoadDotEnv()

	appConfig, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.SetLevel(appConfig.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	logger.Log.WithField("driver", appConfig.Database.Driver).Info("Initializing database...")
	database, err := openDatabase(ctx, appConfig.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	gateway, err := llm.NewGateway(ctx, &appConfig.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize model gateway: %w", err)
	}

	deps := app.NewConfig(database, gateway, appConfig)
	authService := auth.NewService(database, auth.NewTokenManager(appConfig.Auth))

	// Seed demo user
	if appConfig.Auth.SeedDemoUser {
		if err := authService.SeedDemoUser(ctx); err != nil {
			return err
		}
	}

	hub := ws.NewHub(appConfig.Server.AllowedOrigins)
	go hub.Run(ctx)

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(api.Deps{Config: deps, Auth: authService, Hub: hub}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       appConfig.Server.ReadTimeout,
		WriteTimeout:      appConfig.Server.WriteTimeout,
	}

	port := appConfig.Server.Port
	logger.Log.WithFields(logrus.Fields{
		"port":     port,
		"provider": gateway.Name(),
	}).Info("Server starting")
	logger.Log.Infof("Health check: http://localhost:%s/api/health", port)
	logger.Log.Infof("Login endpoint: http://localhost:%s/api/login", port)
	logger.Log.Infof("Register endpoint: http://localhost:%s/api/register", port)
	logger.Log.Infof("Chat endpoint: http://localhost:%s/api/chat", port)
	logger.Log.Infof("Conversations endpoint: http://localhost:%s/api/conversations", port)
	logger.Log.Infof("Conversation messages endpoint: http://localhost:%s/api/conversations/{id}/messages", port)
	logger.Log.Infof("Typing socket: ws://localhost:%s/ws", port)

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Log.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		logger.Log.WithError(err).Fatal("Server exited with error")
	}
}
