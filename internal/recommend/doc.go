// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package recommend implements the personalization core of the tourism assistant.
//
// # Architecture
//
// Recommendations are produced by fusing three independent signals:
//
//   - Context: how well a candidate suits the current weather, time of day and season
//   - Profile: the user's decayed interest weights per category
//   - Collaborative: the centroid of the cluster the user was assigned to
//
// The supporting components live in sub-packages and depend on the types
// declared here, never the other way around:
//
//   - classifier: maps interaction records to typed Interest values
//   - profile: owns UserProfile records, applies temporal decay
//   - contextual: builds ContextSnapshot values from injected readings
//   - catalog: the candidate suitability table
//   - clustering: background k-means over profile feature vectors
//
// # Cold Start
//
// A user without a profile is ranked by context alone (scaled by the
// cold-start context weight). Profile and collaborative signals only
// influence ranking once data exists for the user.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), store, clusters, logger)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    UserID:     "traveler-42",
//	    Candidates: catalog.Items(),
//	    Context:    snapshot,
//	    TopK:       10,
//	})
//
// # Thread Safety
//
// Engine is safe for concurrent use. It holds no mutable state besides
// atomic counters; profile and cluster data are read through the injected
// ProfileReader and AssignmentReader.
package recommend
