// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package api provides the Wayfinder HTTP surface on a chi router.

Ops endpoints:

	GET  /healthz                       liveness
	GET  /readyz                        intake running and catalog loaded
	GET  /metrics                       Prometheus exposition
	GET  /api/v1/clustering/status      published assignment set and last error
	POST /api/v1/clustering/trigger     queue an on-demand pass (rate limited)
	GET  /api/v1/context                current context snapshot and breaker state
	GET  /api/v1/stats                  fusion engine counters

Product endpoints:

	POST /api/v1/interactions           enqueue an interaction on the intake topic
	POST /api/v1/recommendations        rank candidates for a user

Every JSON response uses the APIResponse envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","request_id":"..."}}
	{"status":"error","error":{"code":"VALIDATION_ERROR","message":"..."},"metadata":{...}}

Components are injected through small interfaces on Dependencies so the
handlers are tested with fakes; cmd/server wires the real engines.
*/
package api
