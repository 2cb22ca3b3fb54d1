package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	config "github.com/NordCoder/Tgrelay/internal/config/relay"
	"github.com/NordCoder/Tgrelay/internal/obs"
	"go.uber.org/zap"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("RELAY_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/relay.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	undoStdLog := zap.RedirectStdLog(logger)
	defer undoStdLog()
	logger.Info("starting relay", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	store, err := initStore(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err), zap.String("driver", cfg.Store.Driver))
	}
	defer func() { _ = store.Close() }()

	uc := buildRelay(cfg, logger, store)
	logBanner(rootCtx, cfg, logger, uc)

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		metricsSrv = obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, store.Ping, logger)
	}

	httpSrv := buildHTTPServer(cfg, logger, uc)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shCtx)
	}
	logger.Info("bye")
}
