// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package supervisor provides process supervision for Wayfinder using suture v4.

Long-running components are grouped into three layers so a failure in one
does not restart the others:

	RootSupervisor ("wayfinder")
	├── StorageSupervisor ("storage-layer")
	│   └── BadgerGCService (badger backend only)
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── IntakeService
	│   └── ClusteringService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (service start, panic, backoff) are logged through
sutureslog, bridged to zerolog by logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddPipelineService(services.NewIntakeService(intake))
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Failure Handling

Each failure increments a counter that decays over FailureDecay seconds.
Above FailureThreshold the supervisor waits FailureBackoff before the next
restart. A service returning nil is not restarted; returning an error
restarts it.

What is not supervised: the context engine and the fusion engine are plain
request-path objects with no goroutines of their own.
*/
package supervisor
