package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property-dapp-backend/bootstrap"
	"property-dapp-backend/internal/config"
	"property-dapp-backend/internal/interfaces/router"
	"property-dapp-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logging.Setup(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}
	defer c.Close()

	if c.Rdb != nil {
		if err := c.Rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		log.Info().Msg("Redis connected")
	}
	if c.DB != nil {
		log.Info().Msg("Database connected")
	}
	if err := c.Node.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("server", cfg.AlgodServer).Msg("Algod node unreachable")
	}

	go func() {
		warm, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := c.Reconciler.DiscoverAll(warm); err != nil {
			log.Warn().Err(err).Msg("Initial property discovery failed")
		}
	}()

	app := router.CreateApp(c)
	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info().Str("port", cfg.Port).Msgf("Server running at http://localhost:%s", cfg.Port)
	log.Info().Msgf("Health check: http://localhost:%s/health/json", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
