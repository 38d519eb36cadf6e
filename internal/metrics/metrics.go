// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package metrics provides Prometheus instrumentation for the personalization core.
//
// Collectors are registered with the default registry through promauto and
// exposed by the ops router at /metrics. Components call the Record* helpers
// rather than touching collectors directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Profile Store Metrics
	ProfileIngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_ingest_total",
			Help: "Total number of interest ingests by result",
		},
		[]string{"result"}, // "success", "invalid", "error"
	)

	ProfileIngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profile_ingest_duration_seconds",
			Help:    "Duration of profile ingest operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	ProfilesTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiles_tracked",
			Help: "Number of user profiles seen by the last clustering snapshot",
		},
	)

	// Classifier Metrics
	ClassifiedInterests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_interests_total",
			Help: "Total number of interests emitted by category",
		},
		[]string{"category"},
	)

	// Fusion Engine Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by result",
		},
		[]string{"result"}, // "success", "invalid"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	RecommendResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_results",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	RecommendColdStarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cold_starts_total",
			Help: "Total number of requests served without a user profile",
		},
	)

	RecommendFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_context_fallbacks_total",
			Help: "Total number of requests ranked by context alone after threshold exclusion",
		},
	)

	// Clustering Metrics
	ClusteringPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustering_passes_total",
			Help: "Total number of clustering passes by outcome",
		},
		[]string{"outcome"}, // "applied", "insufficient_data", "superseded", "failed"
	)

	ClusteringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clustering_duration_seconds",
			Help:    "Duration of clustering passes in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		},
	)

	ClusteringClusters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clustering_clusters",
			Help: "Number of clusters in the current assignment set",
		},
	)

	ClusteringAssignments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clustering_assignments",
			Help: "Number of users in the current assignment set",
		},
	)

	// Context Engine Metrics
	ContextSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "context_snapshots_total",
			Help: "Total number of context snapshots by source",
		},
		[]string{"source"}, // "provider", "cache", "clock"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Catalog Metrics
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Number of items in the loaded suitability table",
		},
	)

	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Total number of catalog loads by result",
		},
		[]string{"result"}, // "success", "error"
	)

	// Intake Metrics
	IntakeMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_messages_total",
			Help: "Total number of interaction messages handled by result",
		},
		[]string{"result"}, // "ingested", "rejected", "failed"
	)

	// Ops API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of ops API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)
)

// RecordIngest records a profile ingest outcome.
func RecordIngest(result string, duration time.Duration) {
	ProfileIngestTotal.WithLabelValues(result).Inc()
	ProfileIngestDuration.Observe(duration.Seconds())
}

// RecordInterest counts an interest emitted by the classifier.
func RecordInterest(category string) {
	ClassifiedInterests.WithLabelValues(category).Inc()
}

// RecordRecommendation records a completed recommendation request.
func RecordRecommendation(duration time.Duration, results int, coldStart, fallback bool) {
	RecommendRequests.WithLabelValues("success").Inc()
	RecommendDuration.Observe(duration.Seconds())
	RecommendResults.Observe(float64(results))
	if coldStart {
		RecommendColdStarts.Inc()
	}
	if fallback {
		RecommendFallbacks.Inc()
	}
}

// RecordRecommendationRejected records a request rejected for invalid input.
func RecordRecommendationRejected() {
	RecommendRequests.WithLabelValues("invalid").Inc()
}

// RecordClusteringPass records the outcome of a clustering pass. Gauges are
// only updated when the pass produced the published assignment set.
func RecordClusteringPass(outcome string, duration time.Duration, profiles, clusters, assignments int) {
	ClusteringPasses.WithLabelValues(outcome).Inc()
	ClusteringDuration.Observe(duration.Seconds())
	if outcome == "applied" || outcome == "insufficient_data" {
		ProfilesTracked.Set(float64(profiles))
		ClusteringClusters.Set(float64(clusters))
		ClusteringAssignments.Set(float64(assignments))
	}
}

// RecordContextSnapshot counts a context snapshot by where it came from.
func RecordContextSnapshot(source string) {
	ContextSnapshots.WithLabelValues(source).Inc()
}

// RecordCatalogLoad records a catalog load. The item gauge only moves on success.
func RecordCatalogLoad(items int, err error) {
	if err != nil {
		CatalogLoads.WithLabelValues("error").Inc()
		return
	}
	CatalogLoads.WithLabelValues("success").Inc()
	CatalogItems.Set(float64(items))
}

// RecordIntakeMessage counts an intake message by result.
func RecordIntakeMessage(result string) {
	IntakeMessages.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an ops API request metric.
func RecordAPIRequest(method, endpoint, statusCode string) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
}
