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

	"go.uber.org/zap"

	"github.com/shaun/scaffold/server/internal/api"
	"github.com/shaun/scaffold/server/internal/auth"
	"github.com/shaun/scaffold/server/internal/config"
	"github.com/shaun/scaffold/server/internal/github"
	"github.com/shaun/scaffold/server/internal/provision"
	"github.com/shaun/scaffold/server/internal/scaffold"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("[Scaffold] %v", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("[Scaffold] building logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.HasGitHubToken() {
		logger.Warn("GITHUB_TOKEN not set; repository routes will answer 503")
	}

	client, err := github.NewClient(github.Config{
		Token:   cfg.GitHubToken,
		BaseURL: cfg.GitHubAPIURL,
		Timeout: cfg.GitHubTimeout,
	})
	if err != nil {
		logger.Fatal("creating github client", zap.Error(err))
	}
	catalog, err := scaffold.Default()
	if err != nil {
		logger.Fatal("loading scaffold catalog", zap.Error(err))
	}

	workflow := provision.New(client,
		provision.WithOwner(cfg.GitHubUsername),
		provision.WithLogger(logger.Named("provision")),
	)
	handler := api.NewHandler(workflow, client, catalog, logger.Named("api"))

	var authMiddleware func(http.Handler) http.Handler
	if cfg.DashboardAuthEnabled() {
		authMiddleware = auth.BasicAuth(cfg.DashboardUser, cfg.DashboardPassword)
	}
	router := api.NewRouter(handler, authMiddleware)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A provisioning request makes several sequential GitHub calls.
		WriteTimeout: 6*cfg.GitHubTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("scaffold server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
