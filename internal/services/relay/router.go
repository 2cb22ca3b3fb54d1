package relay

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/NordCoder/Tgrelay/internal/obs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Service        string
	AllowedOrigins []string
	// ExposeMetrics mounts /metrics on the API listener.
	ExposeMetrics bool
}

func NewRouter(log *zap.Logger, ctrl *Controller, opts RouterOptions) http.Handler {
	if log == nil {
		log = zap.L()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(obs.HTTPMetrics(routeLabel))
	r.Use(recoverJSON(log))
	r.Use(cors(opts.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	r.Get("/health", ctrl.Health)
	r.Get("/config", ctrl.GetConfig)
	r.Post("/config", ctrl.SetConfig)
	r.Post("/notify", ctrl.Notify)
	r.Get("/test", ctrl.Test)
	r.Post("/reset", ctrl.Reset)
	r.Post("/api/telegram-notify", ctrl.Forward)
	if opts.ExposeMetrics {
		r.Method(http.MethodGet, "/metrics", obs.MetricsHandler())
	}

	return obs.TraceHTTP(r, opts.Service)
}

func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// cors answers preflight requests before routing so every path accepts OPTIONS.
func cors(origins []string) func(http.Handler) http.Handler {
	allowAny := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAny = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if allowAny {
				h.Set("Access-Control-Allow-Origin", "*")
			} else if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recoverJSON(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				obs.WithTrace(r.Context(), log).Error("handler panic",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, result{Error: fmt.Sprint(rec)})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
