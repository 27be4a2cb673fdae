package handler

import (
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/sphere-relay/backend/internal/config"
	"github.com/zhouzirui/sphere-relay/backend/internal/handler/api"
	"github.com/zhouzirui/sphere-relay/backend/internal/handler/stream"
	"github.com/zhouzirui/sphere-relay/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/sphere-relay/backend/internal/middleware"
	"github.com/zhouzirui/sphere-relay/backend/internal/service/relay"
	"github.com/zhouzirui/sphere-relay/backend/pkg/utils"
)

// Version is reported by the health endpoint and the OpenAPI document.
var Version = "dev"

// NewRouter wires HTTP routes to the relay hub.
func NewRouter(cfg config.ServerConfig, hub *relay.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Metrics)
	r.Use(middlewarePkg.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(cfg.AllowedOrigins))

	humaCfg := huma.DefaultConfig("Sphere Relay API", Version)
	// No $schema link in response bodies.
	humaCfg.CreateHooks = nil
	humaAPI := humachi.New(r, humaCfg)
	api.Register(humaAPI, hub, Version)

	ws.New(hub).RegisterRoutes(r)
	stream.New(hub).RegisterRoutes(r)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
			logrus.WithField("dir", cfg.StaticDir).Warn("static directory not found, skipping asset serving")
		} else {
			r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
		}
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "not found")
	})

	return r
}
