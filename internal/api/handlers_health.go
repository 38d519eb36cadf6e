// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the liveness body.
type HealthStatus struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

// ReadinessStatus is the readiness body.
type ReadinessStatus struct {
	Ready  bool            `json:"ready"`
	Checks map[string]bool `json:"checks"`
}

// Healthz reports that the process is serving.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, HealthStatus{
		Status: "healthy",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// Readyz reports whether interactions can be accepted and the catalog is
// populated. Unconfigured components are not checked.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]bool, 2)
	if h.deps.Intake != nil {
		checks["intake"] = h.deps.Intake.IsRunning()
	}
	if h.deps.Catalog != nil {
		checks["catalog"] = h.deps.Catalog.Len() > 0
	}

	ready := true
	for _, ok := range checks {
		ready = ready && ok
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, ReadinessStatus{Ready: ready, Checks: checks})
}
