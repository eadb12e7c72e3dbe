package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/pawnboard/internal/auth"
	"github.com/yanizio/pawnboard/internal/board"
	"github.com/yanizio/pawnboard/internal/component"
	"github.com/yanizio/pawnboard/internal/config"
	"github.com/yanizio/pawnboard/internal/middleware"
	"github.com/yanizio/pawnboard/internal/requestinfo"
	"github.com/yanizio/pawnboard/internal/respond"
)

// newRouter builds the root handler.  geo may be nil.
//
//	/healthz, /metrics         open
//	/api/*                     operator token → board session → components
func newRouter(cfg *config.Config, env component.Env, res auth.Resolver, geo *requestinfo.GeoDB) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(requestinfo.Enrich(geo))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"boards": env.Boards().Len(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	var initErr error
	r.Group(func(api chi.Router) {
		api.Use(auth.Middleware(res, cfg.API.ProfileTTL))
		api.Use(board.Attach(env.Boards()))

		for _, c := range component.All() {
			if err := c.Init(env); err != nil {
				initErr = fmt.Errorf("component %s: %w", c.Name(), err)
				return
			}
			c.Routes(api)
			zap.L().Info("component mounted", zap.String("component", c.Name()))
		}
	})
	if initErr != nil {
		return nil, initErr
	}

	var h http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		h = middleware.ForceHTTPS(h)
	}
	return h, nil
}
