// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/validation"
)

// ContextStatus is the body of GET /api/v1/context.
type ContextStatus struct {
	Snapshot recommend.ContextSnapshot `json:"snapshot"`
	Breaker  string                    `json:"breaker_state"`
}

// RecommendRequest is the body of POST /api/v1/recommendations.
//
// Candidates are resolved in order: explicit candidates, then item_ids
// looked up in the catalog, then the whole catalog. A nil context is
// filled from the context engine.
type RecommendRequest struct {
	UserID     string                     `json:"user_id,omitempty" validate:"max=256"`
	TopK       int                        `json:"top_k,omitempty" validate:"gte=0,lte=1000"`
	ItemIDs    []string                   `json:"item_ids,omitempty" validate:"omitempty,dive,required,max=256"`
	Candidates []recommend.CandidateItem  `json:"candidates,omitempty"`
	Context    *recommend.ContextSnapshot `json:"context,omitempty"`
}

// InteractionAccepted is the body of a queued interaction.
type InteractionAccepted struct {
	UserID string `json:"user_id"`
}

// Context returns the current context snapshot.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	if h.deps.Context == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "context engine is not configured", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, ContextStatus{
		Snapshot: h.deps.Context.Current(r.Context()),
		Breaker:  h.deps.Context.BreakerState(),
	})
}

// Stats returns fusion engine counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.deps.Recommender == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "recommender is not configured", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, h.deps.Recommender.GetStats())
}

// PublishInteraction enqueues an interaction for asynchronous ingest.
func (h *Handler) PublishInteraction(w http.ResponseWriter, r *http.Request) {
	if h.deps.Intake == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "intake is not configured", nil)
		return
	}

	var in recommend.Interaction
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, err.Error(), nil)
		return
	}

	if err := h.deps.Intake.Publish(r.Context(), &in); err != nil {
		if errors.Is(err, recommend.ErrInvalidArgument) {
			respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "interaction could not be queued", err)
		return
	}

	logging.Ctx(r.Context()).Debug().Str("user_id", sanitizeLogValue(in.UserID)).Msg("interaction queued")
	respondJSON(w, r, http.StatusAccepted, InteractionAccepted{UserID: in.UserID})
}

// Recommend ranks candidates for a user.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	if h.deps.Recommender == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "recommender is not configured", nil)
		return
	}

	var req RecommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadJSON, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, verr.Error(), nil)
		return
	}

	candidates, err := h.resolveCandidates(&req)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeNotFound, err.Error(), nil)
		return
	}

	engineReq := recommend.Request{
		RequestID:  logging.RequestIDFromContext(r.Context()),
		UserID:     req.UserID,
		Candidates: candidates,
		TopK:       req.TopK,
	}
	switch {
	case req.Context != nil:
		engineReq.Context = *req.Context
	case h.deps.Context != nil:
		engineReq.Context = h.deps.Context.Current(r.Context())
	}

	resp, err := h.deps.Recommender.Recommend(r.Context(), engineReq)
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidArgument) {
			respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeInternal, "recommendation failed", err)
		return
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) resolveCandidates(req *RecommendRequest) ([]recommend.CandidateItem, error) {
	if len(req.Candidates) > 0 {
		return req.Candidates, nil
	}
	if h.deps.Catalog == nil {
		if len(req.ItemIDs) > 0 {
			return nil, errors.New("item_ids require a loaded catalog")
		}
		return nil, nil
	}
	if len(req.ItemIDs) == 0 {
		return h.deps.Catalog.Items(), nil
	}

	out := make([]recommend.CandidateItem, 0, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		item, ok := h.deps.Catalog.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown item_id %q", id)
		}
		out = append(out, item)
	}
	return out, nil
}
