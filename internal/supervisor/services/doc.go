// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package services provides suture.Service wrappers for Wayfinder components.

Each wrapper translates a component lifecycle into suture's
Serve(ctx) error, returns promptly when ctx is canceled, and implements
fmt.Stringer so supervisor events name the service.

  - HTTPServerService: ops HTTP server with graceful shutdown
  - IntakeService: watermill router consuming interaction events
  - ClusteringService: interval and on-demand clustering passes
  - BadgerGCService: value log garbage collection for the profile store

Components are taken through small interfaces so tests drive the
wrappers with mocks.
*/
package services
