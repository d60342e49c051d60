package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/segundavia/boleto_bot/internal/adapters/audit"
	"github.com/segundavia/boleto_bot/internal/adapters/bank"
	"github.com/segundavia/boleto_bot/internal/adapters/storage"
	"github.com/segundavia/boleto_bot/internal/adapters/whatsapp"
	"github.com/segundavia/boleto_bot/internal/config"
	"github.com/segundavia/boleto_bot/internal/kvstore"
	"github.com/segundavia/boleto_bot/internal/server"
	"github.com/segundavia/boleto_bot/internal/session"
	"github.com/segundavia/boleto_bot/internal/useCases"
)

const (
	envDev  = "dev"
	envProd = "prod"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := setupLogger(cfg.Env)

	memory := kvstore.NewMemory()
	defer memory.Close()

	var sessionKV kvstore.Store = memory
	var redisStore *kvstore.Redis
	if cfg.RedisURL != "" {
		redisStore, err = kvstore.NewRedisFromURL(cfg.RedisURL)
		if err != nil {
			logger.Error("redis config invalid", "error", err)
			os.Exit(1)
		}
		sessionKV = kvstore.NewFailover(redisStore, memory, logger)
	} else {
		logger.Warn("no redis configured, sessions are process-local")
	}

	sessions := session.NewStore(sessionKV, cfg.SessionTTL, logger)
	limiter := kvstore.NewRateLimiter(redisStore, logger)

	gateway := bank.NewAggregator(logger, buildProviders(cfg, logger)...)

	messenger := whatsapp.NewClient(cfg.WhatsApp.BaseURL, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.Token, logger)
	objects := storage.NewClient(cfg.Storage.BaseURL, cfg.Storage.Bucket, cfg.Storage.Token, logger)
	auditLog := audit.NewAppender(cfg.AuditWebhookURL, logger)

	service := useCases.NewService(logger, sessions, limiter, gateway, messenger, objects, auditLog, useCases.Config{
		Pepper:       cfg.Pepper,
		LookupLimit:  cfg.LookupLimit,
		LookupWindow: cfg.LookupWindow,
		SiteURL:      cfg.SiteURL,
		ContactText:  cfg.ContactText,
	})
	dispatcher := useCases.NewDispatcher(service.Process, logger)

	srv := server.New(server.Config{
		ListenAddr:  cfg.ListenAddr,
		VerifyToken: cfg.Webhook.VerifyToken,
		AppSecret:   cfg.Webhook.AppSecret,
		RateLimit:   rate.Limit(cfg.Webhook.RateLimit),
		RateBurst:   cfg.Webhook.RateBurst,
	}, dispatcher, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}

	// drain in-flight conversations before the process exits
	dispatcher.Wait()
	logger.Info("exit")
}

func buildProviders(cfg *config.AppConfig, logger *slog.Logger) []bank.Provider {
	var providers []bank.Provider

	if cfg.Norte.Configured() {
		providers = append(providers, bank.NewNorte(cfg.Norte, logger))
	} else {
		logger.Warn("provider not configured, using stub", "provider", "norte")
		providers = append(providers, bank.NewNoop("norte"))
	}

	if cfg.Azul.Configured() {
		azul, err := bank.NewAzul(cfg.Azul, logger)
		if err != nil {
			logger.Error("azul provider init failed", "error", err)
			os.Exit(1)
		}
		providers = append(providers, azul)
	} else {
		logger.Warn("provider not configured, using stub", "provider", "azul")
		providers = append(providers, bank.NewNoop("azul"))
	}

	return providers
}

func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return logger
}
