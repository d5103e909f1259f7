// cmd/historian/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/beergame/internal/cache"
	"github.com/jason-s-yu/beergame/internal/config"
	"github.com/jason-s-yu/beergame/internal/database"
	"github.com/jason-s-yu/beergame/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	archive := database.NewArchive(pool)
	if err := archive.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}

	svc := historian.NewService(cache.NewConsumer(rdb, cfg.QueueName), archive, historian.Options{
		BatchSize:  cfg.BatchSize,
		FlushDelay: cfg.FlushDelay,
		Inactivity: cfg.InactivityTimeout,
	})
	log.Infof("historian reading %s queue %s", cfg.RedisAddr, cfg.QueueName)
	svc.Run(ctx)
	log.Info("historian stopped")
}
