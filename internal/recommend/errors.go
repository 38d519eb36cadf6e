// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import "errors"

// Error kinds surfaced by the core. Callers match them with errors.Is;
// components wrap them with additional context.
var (
	// ErrInvalidArgument is returned for structurally invalid input such as an
	// empty user ID on ingest or a malformed candidate on recommend.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a profile does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData reports that clustering was skipped because too few
	// profiles exist. It is a status, not a request failure.
	ErrInsufficientData = errors.New("insufficient data")
)
