// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package middleware provides chi-compatible HTTP middleware for the ops
listener.

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request counts by method, route pattern and status
  - SecurityHeaders: nosniff, frame and referrer headers, HSTS behind TLS

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)

Metrics are labelled with the chi route pattern rather than the raw path
so path parameters do not explode label cardinality.
*/
package middleware
