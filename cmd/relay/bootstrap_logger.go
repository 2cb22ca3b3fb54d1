package main

import (
	config "github.com/NordCoder/Tgrelay/internal/config/relay"
	"github.com/NordCoder/Tgrelay/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.LoggerConfig())
}
