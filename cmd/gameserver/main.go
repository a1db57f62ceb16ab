// Package main provides the game server binary: a UDP matchmaking
// server that registers players and pairs them into two-player rooms.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pong-server/internal/config"
	"github.com/cory-johannsen/pong-server/internal/game/match"
	"github.com/cory-johannsen/pong-server/internal/game/player"
	"github.com/cory-johannsen/pong-server/internal/gameserver"
	"github.com/cory-johannsen/pong-server/internal/observability"
	"github.com/cory-johannsen/pong-server/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	registry := player.NewRegistry()
	maker := match.NewMaker(registry, logger)
	srv := gameserver.New(cfg, registry, maker, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("udp", srv)

	logger.Info("game server initialized",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("queue_capacity", cfg.Pipeline.QueueCapacity),
		zap.Int64("max_in_flight", cfg.Pipeline.MaxInFlight),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
