// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package services

import (
	"context"
	"fmt"
)

// IntakeRunner is the part of *eventprocessor.Intake the service runs.
type IntakeRunner interface {
	Run(ctx context.Context) error
}

// IntakeService runs the interaction intake router under supervision.
type IntakeService struct {
	intake IntakeRunner
	name   string
}

// NewIntakeService wraps intake.
func NewIntakeService(intake IntakeRunner) *IntakeService {
	return &IntakeService{intake: intake, name: "interaction-intake"}
}

// Serve implements suture.Service. The router returns nil when its
// context is canceled; that is reported as the context error so the
// supervisor does not mistake shutdown for a clean exit.
func (s *IntakeService) Serve(ctx context.Context) error {
	err := s.intake.Run(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("intake stopped: %w", err)
	}
	return fmt.Errorf("intake stopped unexpectedly")
}

// String names the service in supervisor logs.
func (s *IntakeService) String() string {
	return s.name
}
