// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/wayfinder/internal/middleware"
)

// RouterConfig tunes the router.
type RouterConfig struct {
	// TriggerLimit requests per TriggerWindow are allowed on the manual
	// recluster endpoint, per client IP. Zero disables the limit.
	TriggerLimit  int
	TriggerWindow time.Duration
}

// NewRouter builds the chi router over h.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, codeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/clustering", func(r chi.Router) {
			r.Get("/status", h.ClusteringStatus)
			r.With(triggerLimit(cfg)).Post("/trigger", h.ClusteringTrigger)
		})
		r.Get("/context", h.Context)
		r.Get("/stats", h.Stats)

		r.Post("/interactions", h.PublishInteraction)
		r.Post("/recommendations", h.Recommend)
	})

	return r
}

func triggerLimit(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.TriggerLimit <= 0 || cfg.TriggerWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.TriggerLimit,
		cfg.TriggerWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many recluster requests", nil)
		}),
	)
}
