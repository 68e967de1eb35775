package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/goldmine/exercise-archive/internal/bootstrap"
	"github.com/goldmine/exercise-archive/internal/config"
	"github.com/goldmine/exercise-archive/internal/infrastructure/db"
	"github.com/goldmine/exercise-archive/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	gdb, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("failed to connect database")
	}

	if err := db.Migrate(gdb); err != nil {
		logger.Get().Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("failed to create pgx pool")
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	server := bootstrap.NewHTTPServer(cfg, gdb, pool, rdb)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Get().Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Get().Fatal().Err(err).Msg("graceful shutdown failed")
	}
}
