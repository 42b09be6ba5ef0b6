package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SiamFS/Project471/internal/app"
	"github.com/SiamFS/Project471/internal/config"
	"github.com/SiamFS/Project471/internal/events"
	"github.com/SiamFS/Project471/internal/payment"
	"github.com/SiamFS/Project471/internal/server"
	"github.com/SiamFS/Project471/internal/storage"
	"github.com/SiamFS/Project471/internal/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	initLogger(cfg.LogLevel)

	gormStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer gormStore.Close()

	var dataStore store.Store = gormStore
	if cfg.RedisAddr != "" {
		ttl, err := config.ParseCartCountTTL(cfg.CartCountTTL)
		if err != nil {
			log.Fatalf("failed to parse cart count TTL: %v", err)
		}
		dataStore = store.NewCachedStore(gormStore, cfg.RedisAddr, cfg.RedisPassword, ttl)
		slog.Info("cart count cache enabled", "addr", cfg.RedisAddr)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
		slog.Info("order event publisher enabled", "exchange", cfg.AMQPExchange)
	}

	var objects storage.CoverStore
	if cfg.MinioEndpoint != "" {
		objects, err = storage.NewMinioCoverStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object store: %v", err)
		}
		slog.Info("cover image store enabled", "bucket", cfg.MinioBucket)
	}

	appCore, err := app.New(app.Config{
		Store:        dataStore,
		Gateway:      payment.NewStripeGateway(cfg.StripeSecretKey),
		Events:       publisher,
		BaseURL:      cfg.BaseURL,
		StrictCommit: cfg.StrictCommit,
		Tx:           gormStore,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer := server.New(server.Config{
		Store:          dataStore,
		App:            appCore,
		Objects:        objects,
		AllowedOrigin:  cfg.AllowedOrigin,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedExts:    cfg.AllowedExtensions,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// initLogger configures the global slog logger with JSON output.
func initLogger(level string) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
