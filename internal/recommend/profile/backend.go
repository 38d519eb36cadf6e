// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

// Backend persists profile records. Get returns an error wrapping
// recommend.ErrNotFound for unknown users. Implementations must make
// individual Get and Put calls atomic; the Store serializes writers
// per user.
type Backend interface {
	Get(ctx context.Context, userID string) (*recommend.UserProfile, error)
	Put(ctx context.Context, profile *recommend.UserProfile) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryBackend keeps profiles in a map. Suitable for tests and
// single-process deployments that accept losing profiles on restart.
type MemoryBackend struct {
	mu       sync.RWMutex
	profiles map[string]*recommend.UserProfile
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{profiles: make(map[string]*recommend.UserProfile)}
}

// Get returns a copy of the stored profile.
func (m *MemoryBackend) Get(_ context.Context, userID string) (*recommend.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %q: %w", userID, recommend.ErrNotFound)
	}
	return p.Clone(), nil
}

// Put stores a copy of the profile.
func (m *MemoryBackend) Put(_ context.Context, profile *recommend.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("%w: profile without user id", recommend.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile.Clone()
	return nil
}

// Keys returns all stored user IDs in sorted order.
func (m *MemoryBackend) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.profiles))
	for k := range m.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
