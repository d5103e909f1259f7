// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/beergame/internal/cache"
	"github.com/jason-s-yu/beergame/internal/config"
	"github.com/jason-s-yu/beergame/internal/game"
	"github.com/jason-s-yu/beergame/internal/handlers"
	"github.com/jason-s-yu/beergame/internal/room"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)
	logrus.SetLevel(cfg.LogLevel)

	issuer, err := cfg.Issuer()
	if err != nil {
		logger.Fatalf("token keys: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := room.NewRegistry(issuer, game.DefaultSettings())
	gs := handlers.NewGameServer(reg)

	// round feed for the historian
	feedDone := make(chan struct{})
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()

		feed := cache.NewFeed(cache.NewPublisher(rdb, cfg.QueueName), 0)
		reg.Subscribe(feed.Listen)
		go func() {
			defer close(feedDone)
			feed.Run(ctx)
		}()
		logger.Infof("publishing rounds to %s queue %s", cfg.RedisAddr, cfg.QueueName)
	} else {
		close(feedDone)
		logger.Info("REDIS_ADDR not set, round feed disabled")
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.Routes(logger, gs),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", cfg.Addr())
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server exited: %v", err)
		}
		stop()
	case <-ctx.Done():
		logger.Info("terminating")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	<-feedDone
}
