// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/wayfinder/internal/api"
	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/eventprocessor"
	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/recommend/catalog"
	"github.com/tomtom215/wayfinder/internal/recommend/classifier"
	"github.com/tomtom215/wayfinder/internal/recommend/clustering"
	"github.com/tomtom215/wayfinder/internal/recommend/contextual"
	"github.com/tomtom215/wayfinder/internal/recommend/profile"
	"github.com/tomtom215/wayfinder/internal/recommend/storage"
)

// components holds the wired engines. Fields are nil when the
// corresponding feature is not configured.
type components struct {
	db          *badger.DB
	catalog     *catalog.Catalog
	profiles    *profile.Store
	context     *contextual.Engine
	clustering  *clustering.Engine
	recommender *recommend.Engine
	intake      *eventprocessor.Intake

	// restored is true when a persisted assignment set was published.
	restored bool
}

// buildComponents wires the engines leaves first: catalog, classifier,
// profile store, context, clustering, fusion and intake.
//
//nolint:gocyclo // sequential wiring with one error check per step
func buildComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	c := &components{}

	backend, err := openProfileBackend(cfg, c)
	if err != nil {
		return nil, err
	}

	if cfg.Catalog.Path != "" {
		c.catalog, err = catalog.Load(cfg.Catalog.Path, logging.Logger())
		metrics.RecordCatalogLoad(catalogLen(c.catalog), err)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		if cfg.Catalog.Watch {
			if err := c.catalog.Watch(); err != nil {
				logging.Warn().Err(err).Msg("Catalog hot reload disabled")
			}
		}
		logging.Info().Int("items", c.catalog.Len()).Str("path", cfg.Catalog.Path).Msg("Catalog loaded")
	}

	var lookup classifier.CategoryLookup
	if c.catalog != nil {
		lookup = c.catalog
	}
	cls, err := classifier.New(cfg.Classifier, lookup, logging.WithComponent("classifier"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create classifier: %w", err)
	}

	c.profiles, err = profile.NewStore(cfg.Profile, backend, cls, logging.WithComponent("profile"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create profile store: %w", err)
	}

	var provider contextual.ReadingsProvider
	if cfg.Weather.ReadingsFile != "" {
		provider = contextual.NewFileProvider(cfg.Weather.ReadingsFile)
	}
	c.context, err = contextual.NewEngine(cfg.Context, provider, logging.WithComponent("context"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create context engine: %w", err)
	}
	// Profile time buckets follow the destination clock, like the context.
	c.profiles.WithLocation(c.context.Locale().Location)

	var snapshots clustering.SnapshotStore
	if cfg.Storage.SnapshotDir != "" {
		store, err := storage.NewStore(cfg.Storage.SnapshotDir)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		snapshots = store
	}
	c.clustering, err = clustering.NewEngine(
		cfg.Clustering,
		clustering.NewKMeans(cfg.Clustering.KMeans),
		c.profiles,
		snapshots,
		logging.WithComponent("clustering"),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create clustering engine: %w", err)
	}
	if snapshots != nil {
		if err := c.clustering.Restore(ctx); err != nil {
			logging.Warn().Err(err).Msg("Cluster assignments not restored, waiting for first pass")
		}
		c.restored = c.clustering.Status().Generation > 0
	}

	recCfg := cfg.Recommend
	c.recommender, err = recommend.NewEngine(&recCfg, c.profiles, c.clustering, logging.WithComponent("recommend"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create fusion engine: %w", err)
	}

	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger("intake"))
	c.intake, err = eventprocessor.NewIntake(cfg.Intake, c.profiles, wmLogger, logging.WithComponent("intake"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create intake: %w", err)
	}

	return c, nil
}

func openProfileBackend(cfg *config.Config, c *components) (profile.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		db, err := profile.OpenBadger(cfg.Storage.BadgerDir)
		if err != nil {
			return nil, fmt.Errorf("open profile store: %w", err)
		}
		c.db = db
		logging.Info().Str("dir", cfg.Storage.BadgerDir).Msg("Profile store opened (badger)")
		return profile.NewBadgerBackend(db), nil
	default:
		logging.Warn().Msg("Profile store is in memory; profiles are lost on restart (STORAGE_BACKEND=memory)")
		return profile.NewMemoryBackend(), nil
	}
}

func catalogLen(c *catalog.Catalog) int {
	if c == nil {
		return 0
	}
	return c.Len()
}

// apiDependencies converts the components to handler dependencies
// without leaking typed nils into the interfaces.
func (c *components) apiDependencies() api.Dependencies {
	deps := api.Dependencies{
		Clustering:  c.clustering,
		Context:     c.context,
		Recommender: c.recommender,
		Intake:      c.intake,
	}
	if c.catalog != nil {
		deps.Catalog = c.catalog
	}
	return deps
}

// Close releases resources in reverse wiring order.
func (c *components) Close() {
	var errs []error
	if c.intake != nil {
		errs = append(errs, c.intake.Close())
	}
	if c.catalog != nil {
		errs = append(errs, c.catalog.Close())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("Error releasing components")
	}
}
