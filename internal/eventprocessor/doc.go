// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package eventprocessor provides asynchronous interaction intake using
// Watermill over an in-process Go channel pub/sub.
//
// Producers publish JSON-encoded recommend.Interaction records to the
// "interactions" topic. A Watermill router consumes them and feeds the
// profile store:
//
//	Publish ──► gochannel ──► Router ──► Intake.handle ──► profile.Store.IngestInteraction
//	                           │
//	                           ├─ Recoverer: panics become handler errors
//	                           ├─ Retry: transient store errors are retried with backoff
//	                           └─ drop: messages still failing after retries are logged and acked
//
// # Poison Messages
//
// A message that cannot be decoded or fails validation will never succeed,
// so it is logged, counted as "rejected" and acked without retry. Only
// errors from the store itself are retried.
//
// # Delivery
//
// The Go channel pub/sub is in-memory: messages published before the
// router is running, or still queued at shutdown, are lost. Interactions
// are advisory signals, so at-most-once delivery is acceptable here.
package eventprocessor
