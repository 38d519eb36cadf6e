// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

// Key prefix for BadgerDB storage
const profileKeyPrefix = "profile:"

// BadgerBackend implements Backend using BadgerDB for durable storage.
// The caller owns the database handle and closes it.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend creates a new BadgerDB-backed profile backend.
func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

// OpenBadger opens (or creates) a Badger database at dir. An empty dir
// opens an in-memory database.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return db, nil
}

// Get retrieves a profile by user ID.
func (b *BadgerBackend) Get(_ context.Context, userID string) (*recommend.UserProfile, error) {
	var p recommend.UserProfile

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("profile %q: %w", userID, recommend.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Put stores a profile, replacing any previous record.
func (b *BadgerBackend) Put(_ context.Context, profile *recommend.UserProfile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("%w: profile without user id", recommend.ErrInvalidArgument)
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(profileKeyPrefix+profile.UserID), data); err != nil {
			return fmt.Errorf("set profile: %w", err)
		}
		return nil
	})
}

// Keys returns all stored user IDs in key order.
func (b *BadgerBackend) Keys(_ context.Context) ([]string, error) {
	var keys []string

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(profileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), profileKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	return keys, nil
}
