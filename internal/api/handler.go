// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"context"
	"time"

	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/recommend/clustering"
)

// ClusteringController is satisfied by *clustering.Engine.
type ClusteringController interface {
	Status() clustering.Status
	Trigger() bool
}

// ContextSource is satisfied by *contextual.Engine.
type ContextSource interface {
	Current(ctx context.Context) recommend.ContextSnapshot
	BreakerState() string
}

// Recommender is satisfied by *recommend.Engine.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	GetStats() recommend.Stats
}

// InteractionPublisher is satisfied by *eventprocessor.Intake.
type InteractionPublisher interface {
	Publish(ctx context.Context, in *recommend.Interaction) error
	IsRunning() bool
}

// CatalogReader is satisfied by *catalog.Catalog.
type CatalogReader interface {
	Items() []recommend.CandidateItem
	Get(itemID string) (recommend.CandidateItem, bool)
	Len() int
	LoadedAt() time.Time
}

// Dependencies are the components behind the handlers. Nil components
// disable the endpoints that need them (503) and drop out of readiness.
type Dependencies struct {
	Clustering  ClusteringController
	Context     ContextSource
	Recommender Recommender
	Intake      InteractionPublisher
	Catalog     CatalogReader
}

// Handler serves the HTTP endpoints.
type Handler struct {
	deps      Dependencies
	startTime time.Time
}

// NewHandler creates a handler over deps.
//
//nolint:gocritic // hugeParam: Dependencies is copied once at startup
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:      deps,
		startTime: time.Now(),
	}
}
