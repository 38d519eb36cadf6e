// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package contextual

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

// FileProvider reads readings from a JSON file maintained by an external
// weather fetcher. The file holds one RawReadings object.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider for the JSON file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Readings reads and decodes the file.
func (p *FileProvider) Readings(ctx context.Context) (*recommend.RawReadings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read readings file: %w", err)
	}

	var raw recommend.RawReadings
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode readings file %s: %w", p.path, err)
	}
	return &raw, nil
}
