// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package catalog holds the suitability table: the candidate items with
// their category, weather dependency and time/season affinities.
//
// The table is loaded from a YAML or JSON file of the form
//
//	items:
//	  - item_id: wat-pho
//	    category: culture
//	    weather_dependency: indoor
//	    time_affinity: {morning: 0.9, afternoon: 0.7}
//	    seasonal_affinity: {hot: 0.8, rainy: 0.9, cool: 0.8}
//
// Every entry is validated on load. Reload swaps the whole table
// atomically, so readers always see either the old or the new table.
// The core never writes to the catalog.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/recommend"
)

// table is one immutable version of the catalog.
type table struct {
	items    []recommend.CandidateItem
	byID     map[string]int
	loadedAt time.Time
}

// Catalog is a read-only, hot-swappable suitability table.
type Catalog struct {
	path   string
	table  atomic.Pointer[table]
	logger zerolog.Logger

	watchMu  sync.Mutex
	provider *file.File
}

// New builds an in-memory catalog from items. Reload is a no-op on it.
func New(items []recommend.CandidateItem, logger zerolog.Logger) (*Catalog, error) {
	t, err := buildTable(items)
	if err != nil {
		return nil, err
	}
	c := &Catalog{logger: logger.With().Str("component", "catalog").Logger()}
	c.table.Store(t)
	return c, nil
}

// Load reads and validates the catalog file at path.
func Load(path string, logger zerolog.Logger) (*Catalog, error) {
	c := &Catalog{
		path:   path,
		logger: logger.With().Str("component", "catalog").Str("path", path).Logger(),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog file and swaps the table. On error the
// current table stays in place.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}

	items, err := readFile(c.path)
	if err == nil {
		var t *table
		if t, err = buildTable(items); err == nil {
			c.table.Store(t)
			metrics.RecordCatalogLoad(len(t.items), nil)
			c.logger.Info().Int("items", len(t.items)).Msg("catalog loaded")
			return nil
		}
	}

	metrics.RecordCatalogLoad(0, err)
	return fmt.Errorf("load catalog %s: %w", c.path, err)
}

// Watch reloads the catalog whenever the file changes. Failed reloads are
// logged and keep the previous table.
func (c *Catalog) Watch() error {
	if c.path == "" {
		return errors.New("catalog has no backing file")
	}

	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.provider != nil {
		return nil
	}

	provider := file.Provider(c.path)
	err := provider.Watch(func(event interface{}, err error) {
		if err != nil {
			c.logger.Warn().Err(err).Msg("catalog watch error")
			return
		}
		if err := c.Reload(); err != nil {
			c.logger.Error().Err(err).Msg("catalog reload failed, keeping previous table")
		}
	})
	if err != nil {
		return fmt.Errorf("watch catalog %s: %w", c.path, err)
	}
	c.provider = provider
	return nil
}

// Close stops watching the catalog file.
func (c *Catalog) Close() error {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.provider == nil {
		return nil
	}
	err := c.provider.Unwatch()
	c.provider = nil
	return err
}

// Items returns all items in file order. The slice is a copy; the items'
// affinity maps are shared and must not be modified.
func (c *Catalog) Items() []recommend.CandidateItem {
	t := c.table.Load()
	out := make([]recommend.CandidateItem, len(t.items))
	copy(out, t.items)
	return out
}

// Get returns the item with the given id.
func (c *Catalog) Get(itemID string) (recommend.CandidateItem, bool) {
	t := c.table.Load()
	i, ok := t.byID[itemID]
	if !ok {
		return recommend.CandidateItem{}, false
	}
	return t.items[i], true
}

// CategoryOf returns the declared category of an item.
func (c *Catalog) CategoryOf(itemID string) (recommend.Category, bool) {
	item, ok := c.Get(itemID)
	if !ok {
		return "", false
	}
	return item.Category, true
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.table.Load().items)
}

// LoadedAt returns when the current table was built.
func (c *Catalog) LoadedAt() time.Time {
	return c.table.Load().loadedAt
}

// IDs returns all item ids in ascending order.
func (c *Catalog) IDs() []string {
	t := c.table.Load()
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type fileLayout struct {
	Items []recommend.CandidateItem `koanf:"items"`
}

func readFile(path string) ([]recommend.CandidateItem, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	var layout fileLayout
	if err := k.Unmarshal("", &layout); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return layout.Items, nil
}

// buildTable validates items, coerces unknown categories and indexes by id.
func buildTable(items []recommend.CandidateItem) (*table, error) {
	t := &table{
		items:    make([]recommend.CandidateItem, 0, len(items)),
		byID:     make(map[string]int, len(items)),
		loadedAt: time.Now(),
	}

	for i := range items {
		item := items[i]
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if _, dup := t.byID[item.ItemID]; dup {
			return nil, fmt.Errorf("item %d: %w: duplicate item_id %s", i, recommend.ErrInvalidArgument, item.ItemID)
		}
		item.Category = recommend.ParseCategory(string(item.Category))
		t.byID[item.ItemID] = len(t.items)
		t.items = append(t.items, item)
	}
	return t, nil
}
