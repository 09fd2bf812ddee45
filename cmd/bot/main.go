package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bookbot/internal/app"
	"bookbot/internal/config"
	"bookbot/internal/telegram"
	"bookbot/internal/util"
	"bookbot/pkg/ai"
	"bookbot/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel)

	extractor, err := ai.NewGigaChatClient(cfg.GigaChatAuthKey,
		ai.WithModel(cfg.GigaChatModel),
		ai.WithInsecureTLS(),
	)
	if err != nil {
		util.Fatal("failed to init gigachat client", "err", err)
	}

	ttl := time.Duration(cfg.PendingTTLSeconds) * time.Second
	appCore, err := app.New(app.Config{
		Extractor:   extractor,
		Pending:     store.NewRedisPendingStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl),
		Registry:    store.NewRedisTenantRegistry(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		Sessions:    store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		Ledgers:     store.NewLedgerManager(),
		AdminUserID: cfg.AdminUserID,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	bot, err := telegram.New(cfg.TelegramToken, appCore, cfg.ImagesDir)
	if err != nil {
		util.Fatal("failed to init telegram bot", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return bot.Run(ctx)
	})
	if err := group.Wait(); err != nil {
		logger.Error("bot stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
