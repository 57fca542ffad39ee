package main

import (
	"context"
	"fmt"
	"os"

	"manualdesk/internal/accounts"
	"manualdesk/internal/config"
	"manualdesk/internal/database"
	"manualdesk/internal/logger"
	"manualdesk/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.IsDevelopment())
	log := logger.Get()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	ctx := context.Background()
	users := accounts.NewService(db)
	if err := users.EnsureDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("seeding admin failed")
	}
	if cfg.SeedDemoUsers {
		if err := users.SeedDemoUsers(ctx); err != nil {
			log.Fatal().Err(err).Msg("seeding demo users failed")
		}
	}

	// без REDIS_URL ограничение неудачных входов выключено
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis is not reachable, login throttling fails open")
		}
		defer rdb.Close()
	}

	r := server.NewRouter(cfg, server.Deps{DB: db, Redis: rdb})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info().Str("addr", addr).Msg("starting server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
