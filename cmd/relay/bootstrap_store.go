package main

import (
	"context"
	"fmt"

	config "github.com/NordCoder/Tgrelay/internal/config/relay"
	"github.com/NordCoder/Tgrelay/internal/domain/chat"
	"github.com/NordCoder/Tgrelay/internal/repository/file"
	pg "github.com/NordCoder/Tgrelay/internal/repository/postgres"
	"github.com/NordCoder/Tgrelay/internal/repository/sqlite"
	"go.uber.org/zap"
)

func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (chat.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverFile:
		s, err := file.NewChatStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return s.WithLogger(logger), nil
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Store.Path, BusyTimeout: cfg.Store.BusyTimeout})
		if err != nil {
			return nil, err
		}
		return s.WithLogger(logger), nil
	case config.DriverPostgres:
		db, err := pg.NewDB(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return pg.NewChatStore(db).WithLogger(logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
