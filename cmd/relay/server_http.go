package main

import (
	"net/http"
	"time"

	config "github.com/NordCoder/Tgrelay/internal/config/relay"
	"github.com/NordCoder/Tgrelay/internal/services/relay"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, uc *relay.Relay) *http.Server {
	handler := relay.NewRouter(logger, relay.NewController(logger, uc), relay.RouterOptions{
		Service:        cfg.OTEL.ServiceName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ExposeMetrics:  cfg.Server.MetricsAddr == "",
	})

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
