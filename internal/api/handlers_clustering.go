// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"net/http"

	"github.com/tomtom215/wayfinder/internal/logging"
)

// TriggerResult is the body of a manual recluster request.
type TriggerResult struct {
	// Queued is false when a pending request absorbed this one.
	Queued bool `json:"queued"`
}

// ClusteringStatus returns the published assignment set summary.
func (h *Handler) ClusteringStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Clustering == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "clustering is not configured", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, h.deps.Clustering.Status())
}

// ClusteringTrigger queues an on-demand clustering pass.
func (h *Handler) ClusteringTrigger(w http.ResponseWriter, r *http.Request) {
	if h.deps.Clustering == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "clustering is not configured", nil)
		return
	}

	queued := h.deps.Clustering.Trigger()
	logging.Ctx(r.Context()).Info().Bool("queued", queued).Msg("manual clustering pass requested")
	respondJSON(w, r, http.StatusAccepted, TriggerResult{Queued: queued})
}
