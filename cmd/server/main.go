// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wordclash/server/internal/cache"
	"github.com/wordclash/server/internal/config"
	"github.com/wordclash/server/internal/content"
	"github.com/wordclash/server/internal/game"
	"github.com/wordclash/server/internal/server"
	"github.com/wordclash/server/internal/store"
	"github.com/wordclash/server/internal/ws"
)

func main() {
	cfg := config.Load()
	logrus.SetLevel(cfg.ParseLogLevel())
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Storage: Postgres when configured, in-memory otherwise.
	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logrus.WithError(err).Fatal("failed to connect to postgres")
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logrus.WithError(err).Fatal("failed to ensure database schema")
		}
		st = pg
		logrus.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		logrus.Info("using in-memory store")
	}

	// Redis audit trail and leaderboard are optional.
	if cfg.RedisURL != "" {
		if err := cache.Init(ctx, cfg.RedisURL); err != nil {
			logrus.WithError(err).Warn("redis unavailable, audit trail disabled")
		} else {
			logrus.Info("redis connected")
		}
	}

	bank := content.NewBank(time.Now().UnixNano())
	var provider content.Provider = bank
	if apiURL := os.Getenv("WORDCLASH_WORD_API_URL"); apiURL != "" {
		provider = content.NewAPIProvider(apiURL, bank)
		logrus.Infof("using word API at %s with bank fallback", apiURL)
	}

	engineCfg := game.DefaultConfig()
	engineCfg.MatchDuration = cfg.MatchDuration
	engineCfg.DefaultTimeLimit = cfg.DefaultTimeLimit
	engineCfg.MaxPlayers = cfg.MaxPlayers
	engineCfg.ReconnectGrace = cfg.ReconnectGrace
	engineCfg.RoomTTL = cfg.RoomTTL
	engineCfg.SweepInterval = cfg.SweepInterval

	engine := game.NewEngine(engineCfg, st, provider)
	engine.StartSweeper(ctx)

	gateway := ws.NewGateway(engine, cfg.JWTSecret)
	router := server.NewRouter(st, gateway)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logrus.Infof("listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("graceful shutdown failed")
	}
}
