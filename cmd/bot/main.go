package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"

	"neubott/internal/bot"
	"neubott/internal/config"
	"neubott/internal/facts"
	"neubott/internal/metrics"
	"neubott/internal/schedule"
	"neubott/internal/scheduler"
	"neubott/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	store, err := openStorage(cfg)
	if err != nil {
		log.Error("open database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	snapshots, closeSnapshots, err := openSnapshots(cfg)
	if err != nil {
		log.Error("open schedule cache", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeSnapshots()

	svc := facts.NewService(store, log)
	svc.SetConfirmTimeout(cfg.ConfirmTimeout)

	cache := schedule.NewCache(snapshots, schedule.NewFetcher(schedule.NewHTTPClient()), cfg.SplatoonBaseURL, log)

	b, err := bot.New(cfg.TelegramBotToken, svc, cache, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		metrics.StartServer(ctx, log, cfg.MetricsAddr)
	}

	if cfg.RefreshInterval > 0 {
		sched := scheduler.New(cache, log)
		sched.SetTickInterval(cfg.RefreshInterval)
		go sched.Run(ctx)
	}

	log.Info("starting bot", "driver", cfg.DatabaseDriver, "cache", cfg.CacheBackend)

	b.Run(ctx)

	log.Info("bot stopped")
}

func openStorage(cfg *config.Config) (storage.Facts, error) {
	if cfg.DatabaseDriver == config.DriverMySQL {
		return storage.NewGorm(mysql.Open(cfg.DatabasePath))
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	return storage.NewSQLite(cfg.DatabasePath)
}

func openSnapshots(cfg *config.Config) (schedule.SnapshotStore, func(), error) {
	if cfg.CacheBackend != config.CacheRedis {
		return schedule.NewFileStore(cfg.CacheDir), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	return schedule.NewRedisStore(client, cfg.CacheKeyPrefix), func() { _ = client.Close() }, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
