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

	"github.com/1363V4/datastar-void/internal/broadcast"
	"github.com/1363V4/datastar-void/internal/config"
	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/feed"
	"github.com/1363V4/datastar-void/internal/logging"
	"github.com/1363V4/datastar-void/internal/redis"
	"github.com/1363V4/datastar-void/internal/render"
	"github.com/1363V4/datastar-void/internal/server"
	"github.com/1363V4/datastar-void/internal/wall"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(connectCtx, cfg.RedisURL, cfg.RedisDB)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupStore(cfg *config.Config, redisClient *goredis.Client, clock clockwork.Clock) domain.Store {
	switch cfg.StoreBackend {
	case config.BackendList:
		return redis.NewListStore(redisClient, cfg.MaxMessages)
	case config.BackendExpiring:
		return redis.NewExpiringStore(redisClient)
	default:
		return wall.NewMemoryStore(clock, cfg.MaxMessages)
	}
}

func setupChannel(cfg *config.Config, redisClient *goredis.Client) domain.Channel {
	if cfg.DeliveryMode != config.DeliveryPush {
		return nil
	}
	if redisClient != nil {
		return redis.NewPubSub(redisClient)
	}
	return wall.NewMemoryChannel()
}

func runGracefulShutdown(srv *server.Server, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if hub != nil {
			hub.Stop()
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting",
		"env", cfg.AppEnv,
		"port", cfg.Port,
		"backend", cfg.StoreBackend,
		"delivery", cfg.DeliveryMode,
	)

	var redisClient *goredis.Client
	if cfg.StoreBackend != config.BackendMemory {
		redisClient = setupRedis(context.Background(), cfg)
		defer func() { _ = redisClient.Close() }()
	}

	store := setupStore(cfg, redisClient, clock)
	channel := setupChannel(cfg, redisClient)

	renderer := render.New(cfg.MessageTTL)

	var strategy feed.Strategy
	if cfg.DeliveryMode == config.DeliveryPush {
		strategy = feed.NewPushStrategy(channel, renderer)
	} else {
		strategy = feed.NewPollStrategy(store, renderer, clock, cfg.PollInterval)
	}

	bounds := wall.Bounds{MinX: cfg.MinX, MaxX: cfg.MaxX, MinY: cfg.MinY, MaxY: cfg.MaxY}
	publisher := wall.NewPublisher(store, channel, cfg.MessageTTL, bounds)

	var hub *broadcast.Hub
	if channel != nil {
		hub = broadcast.NewHub(channel, clock, cfg.MaxFeedClients)
	}

	srv, err := server.NewServer(cfg, publisher, strategy, hub, redisClient)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
