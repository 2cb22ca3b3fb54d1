package main

import (
	"context"

	config "github.com/NordCoder/Tgrelay/internal/config/relay"
	"github.com/NordCoder/Tgrelay/internal/domain/chat"
	"github.com/NordCoder/Tgrelay/internal/services/relay"
	"github.com/NordCoder/Tgrelay/internal/services/relay/repo"
	"github.com/NordCoder/Tgrelay/internal/telegram"
	"go.uber.org/zap"
)

func buildRelay(cfg *config.Config, logger *zap.Logger, store chat.Store) *relay.Relay {
	tg := telegram.New(telegram.Config{
		BaseURL: cfg.Telegram.APIURL,
		Token:   cfg.Telegram.BotToken,
		Timeout: cfg.Telegram.Timeout,
	}).WithLogger(logger)

	defaultChat, _ := chat.Parse(cfg.Telegram.DefaultChatID)
	return relay.New(relay.Deps{
		Store:   store,
		Out:     repo.Sender{C: tg, ParseMode: cfg.Telegram.ParseMode},
		Updates: repo.Updates{C: tg},
		Log:     logger,
	}, relay.Options{
		Token:          cfg.Telegram.BotToken,
		TokenPrefixLen: cfg.Telegram.TokenPrefixLen,
		DefaultChatID:  defaultChat,
		Product:        cfg.App.Product,
	})
}

func logBanner(ctx context.Context, cfg *config.Config, logger *zap.Logger, uc *relay.Relay) {
	fields := []zap.Field{
		zap.String("bot_token", uc.RedactedToken()),
		zap.String("listen", cfg.Server.HTTPAddr),
		zap.String("store", cfg.Store.Driver),
	}
	if id, ok := uc.Init(ctx); ok {
		logger.Info("relay ready", append(fields, zap.String("chat_id", id.String()))...)
		return
	}
	logger.Info("relay ready, chat id not configured", append(fields,
		zap.String("hint", "send any message to the bot, then call GET /test or POST /config"),
	)...)
}
