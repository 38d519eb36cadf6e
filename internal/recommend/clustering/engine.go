// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package clustering groups users by their category weights and publishes
// a cluster assignment set used for the collaborative score component.
//
// Passes run off the request path, on a schedule or on demand. Each pass
// replaces the whole assignment set atomically; readers see either the
// previous set or the new one. When passes overlap, starting a new pass
// cancels the older one, and a pass only publishes if no newer pass has
// published first.
package clustering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/recommend/storage"
)

// ErrSuperseded is returned by a pass whose result was discarded because a
// newer pass published first.
var ErrSuperseded = errors.New("clustering pass superseded")

// ProfileSource provides a consistent per-user snapshot of all profiles.
type ProfileSource interface {
	Snapshot(ctx context.Context) ([]*recommend.UserProfile, error)
}

// SnapshotStore persists assignment sets.
type SnapshotStore interface {
	Save(ctx context.Context, name string, version int, data interface{}, meta storage.SnapshotMetadata) error
	Load(ctx context.Context, name string, version int, target interface{}) (*storage.SnapshotMetadata, error)
	Prune(ctx context.Context, name string, keep int) error
	LatestVersion(name string) (int, bool)
}

// PassStatus is the outcome of a clustering pass.
type PassStatus string

const (
	// StatusPending means no assignment set has been published yet.
	StatusPending PassStatus = "pending"

	// StatusOK means clusters were computed.
	StatusOK PassStatus = "ok"

	// StatusInsufficientData means the pass was skipped for too few profiles
	// and an empty set was published.
	StatusInsufficientData PassStatus = "insufficient_data"
)

// Result describes a published pass.
type Result struct {
	Generation  uint64        `json:"generation"`
	Status      PassStatus    `json:"status"`
	K           int           `json:"k"`
	Profiles    int           `json:"profiles"`
	Assignments int           `json:"assignments"`
	ComputedAt  time.Time     `json:"computed_at"`
	Duration    time.Duration `json:"duration"`
}

// Err returns an error wrapping recommend.ErrInsufficientData for skipped
// passes and nil otherwise.
func (r Result) Err() error {
	if r.Status == StatusInsufficientData {
		return fmt.Errorf("%w: %d profiles", recommend.ErrInsufficientData, r.Profiles)
	}
	return nil
}

// Status reports the engine state.
type Status struct {
	Generation  uint64     `json:"generation"`
	Status      PassStatus `json:"status"`
	Clusters    int        `json:"clusters"`
	Assignments int        `json:"assignments"`
	Profiles    int        `json:"profiles"`
	ComputedAt  time.Time  `json:"computed_at,omitempty"`
	Running     bool       `json:"running"`
	LastError   string     `json:"last_error,omitempty"`
	LastErrorAt time.Time  `json:"last_error_at,omitempty"`
}

// assignmentSet is one immutable published generation.
type assignmentSet struct {
	generation uint64
	status     PassStatus
	byUser     map[string]int
	centroids  []map[recommend.Category]float64
	profiles   int
	computedAt time.Time
}

// Engine computes and serves cluster assignments. It is safe for concurrent use.
type Engine struct {
	cfg       Config
	clusterer Clusterer
	source    ProfileSource
	snapshots SnapshotStore
	logger    zerolog.Logger
	now       func() time.Time

	current atomic.Pointer[assignmentSet]
	trigger chan struct{}

	passMu       sync.Mutex
	nextGen      uint64
	activeGen    uint64
	cancelActive context.CancelFunc

	errMu       sync.Mutex
	lastErr     error
	lastErrTime time.Time
}

// NewEngine creates a clustering engine. clusterer nil uses KMeans with
// cfg.KMeans; source and snapshots may be nil.
//
//nolint:gocritic // hugeParam: cfg copied once; logger by value is acceptable for zerolog
func NewEngine(cfg Config, clusterer Clusterer, source ProfileSource, snapshots SnapshotStore, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid clustering config: %w", err)
	}
	if clusterer == nil {
		clusterer = NewKMeans(cfg.KMeans)
	}
	return &Engine{
		cfg:       cfg,
		clusterer: clusterer,
		source:    source,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "clustering").Logger(),
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
	}, nil
}

// WithClock sets the clock used for ComputedAt.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// Interval returns the scheduled pass interval.
func (e *Engine) Interval() time.Duration {
	return e.cfg.Interval
}

// Trigger requests an on-demand pass without blocking. Requests made while
// one is already pending are coalesced; the return value reports whether
// this call queued a new request.
func (e *Engine) Trigger() bool {
	select {
	case e.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Triggered delivers pending on-demand requests to the pass loop.
func (e *Engine) Triggered() <-chan struct{} {
	return e.trigger
}

// RunPass snapshots the profile source and recomputes the assignment set.
// The generation is assigned before the snapshot is taken, so a pass never
// outranks a pass that started later with fresher profiles.
func (e *Engine) RunPass(ctx context.Context) (Result, error) {
	if e.source == nil {
		return Result{}, errors.New("clustering engine has no profile source")
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.PassTimeout)
	defer cancel()

	passCtx, gen, done := e.beginPass(ctx)
	defer done()

	profiles, err := e.source.Snapshot(passCtx)
	if err == nil {
		err = passCtx.Err()
	}
	if err != nil {
		e.recordError(err)
		return Result{}, fmt.Errorf("clustering pass %d: snapshot profiles: %w", gen, err)
	}
	return e.recompute(ctx, passCtx, gen, profiles)
}

// Recompute clusters the given profiles and publishes the result. It never
// modifies the profiles. Too few profiles publish an empty set with
// StatusInsufficientData, which is not an error.
func (e *Engine) Recompute(ctx context.Context, profiles []*recommend.UserProfile) (Result, error) {
	passCtx, gen, done := e.beginPass(ctx)
	defer done()
	return e.recompute(ctx, passCtx, gen, profiles)
}

func (e *Engine) recompute(ctx, passCtx context.Context, gen uint64, profiles []*recommend.UserProfile) (Result, error) {
	start := time.Now()
	users, vectors := featureVectors(profiles)
	n := len(users)
	k := e.cfg.ChooseK(n)

	set := &assignmentSet{
		generation: gen,
		byUser:     make(map[string]int, n),
		profiles:   n,
		computedAt: e.now(),
	}

	if n < e.cfg.Threshold(k) {
		set.status = StatusInsufficientData
		k = 0
	} else {
		labels, centroids, err := e.clusterer.Fit(passCtx, vectors, k)
		if err != nil {
			outcome := "failed"
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				outcome = "canceled"
			}
			metrics.RecordClusteringPass(outcome, time.Since(start), n, 0, 0)
			e.recordError(err)
			return Result{}, fmt.Errorf("clustering pass %d: %w", gen, err)
		}
		set.status = StatusOK
		set.centroids = centroidWeights(centroids)
		for i, user := range users {
			set.byUser[user] = labels[i]
		}
	}

	result := Result{
		Generation:  gen,
		Status:      set.status,
		K:           k,
		Profiles:    n,
		Assignments: len(set.byUser),
		ComputedAt:  set.computedAt,
		Duration:    time.Since(start),
	}

	if !e.publish(set) {
		metrics.RecordClusteringPass("superseded", result.Duration, n, k, len(set.byUser))
		e.logger.Debug().Uint64("generation", gen).Msg("clustering pass superseded, discarding result")
		return Result{}, fmt.Errorf("clustering pass %d: %w", gen, ErrSuperseded)
	}

	outcome := "applied"
	if set.status == StatusInsufficientData {
		outcome = "insufficient_data"
	}
	metrics.RecordClusteringPass(outcome, result.Duration, n, k, len(set.byUser))
	e.clearError()

	e.logger.Info().
		Uint64("generation", gen).
		Str("status", string(set.status)).
		Int("profiles", n).
		Int("k", k).
		Dur("duration", result.Duration).
		Msg("cluster assignments published")

	e.persist(ctx, set, result)
	return result, nil
}

// beginPass cancels any running pass and assigns the next generation.
func (e *Engine) beginPass(ctx context.Context) (context.Context, uint64, func()) {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	if e.cancelActive != nil {
		e.cancelActive()
	}
	e.nextGen++
	gen := e.nextGen

	passCtx, cancel := context.WithCancel(ctx)
	e.activeGen = gen
	e.cancelActive = cancel

	return passCtx, gen, func() {
		cancel()
		e.passMu.Lock()
		if e.activeGen == gen {
			e.activeGen = 0
			e.cancelActive = nil
		}
		e.passMu.Unlock()
	}
}

// raiseGeneration makes the next pass use a generation above gen.
func (e *Engine) raiseGeneration(gen uint64) {
	e.passMu.Lock()
	if e.nextGen < gen {
		e.nextGen = gen
	}
	e.passMu.Unlock()
}

// publish installs set unless a newer generation is already published.
func (e *Engine) publish(set *assignmentSet) bool {
	for {
		cur := e.current.Load()
		if cur != nil && cur.generation > set.generation {
			return false
		}
		if e.current.CompareAndSwap(cur, set) {
			return true
		}
	}
}

func (e *Engine) persist(ctx context.Context, set *assignmentSet, result Result) {
	if e.snapshots == nil {
		return
	}

	state := storage.ClusterState{
		Generation:  set.generation,
		Assignments: set.byUser,
		Centroids:   set.centroids,
		ComputedAt:  set.computedAt,
	}
	meta := storage.SnapshotMetadata{
		ComputedAt:      set.computedAt,
		Status:          string(set.status),
		ProfileCount:    set.profiles,
		ClusterCount:    len(set.centroids),
		AssignmentCount: len(set.byUser),
		DurationMS:      result.Duration.Milliseconds(),
	}

	// Persisting must not be cut short by a newer pass canceling ours.
	saveCtx := context.WithoutCancel(ctx)
	if err := e.snapshots.Save(saveCtx, e.cfg.SnapshotName, int(set.generation), state, meta); err != nil { //nolint:gosec // generation fits in int
		e.logger.Warn().Err(err).Uint64("generation", set.generation).Msg("failed to persist cluster assignments")
		return
	}
	if err := e.snapshots.Prune(saveCtx, e.cfg.SnapshotName, e.cfg.KeepSnapshots); err != nil {
		e.logger.Warn().Err(err).Msg("failed to prune cluster snapshots")
	}
}

// Restore publishes the latest persisted assignment set, unless a pass has
// already published. A missing snapshot is not an error. Even when the
// latest snapshot cannot be read, later passes are numbered after it.
func (e *Engine) Restore(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}

	// New passes number past every persisted version, readable or not, so
	// pruning never keeps a stale file over newer results.
	if latest, ok := e.snapshots.LatestVersion(e.cfg.SnapshotName); ok && latest > 0 {
		e.raiseGeneration(uint64(latest))
	}

	var state storage.ClusterState
	meta, err := e.snapshots.Load(ctx, e.cfg.SnapshotName, 0, &state)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restore cluster assignments: %w", err)
	}

	status := PassStatus(meta.Status)
	if status != StatusOK && status != StatusInsufficientData {
		status = StatusOK
	}
	set := &assignmentSet{
		generation: state.Generation,
		status:     status,
		byUser:     state.Assignments,
		centroids:  state.Centroids,
		profiles:   meta.ProfileCount,
		computedAt: state.ComputedAt,
	}
	if set.byUser == nil {
		set.byUser = make(map[string]int)
	}
	for user, c := range set.byUser {
		if c < 0 || c >= len(set.centroids) {
			return fmt.Errorf("restore cluster assignments: user %s has cluster %d of %d", user, c, len(set.centroids))
		}
	}

	e.raiseGeneration(set.generation)

	if !e.publish(set) {
		return nil
	}
	e.logger.Info().
		Uint64("generation", set.generation).
		Int("assignments", len(set.byUser)).
		Msg("cluster assignments restored")
	return nil
}

// Assignment returns the cluster assignment of a user.
func (e *Engine) Assignment(userID string) (recommend.ClusterAssignment, bool) {
	set := e.current.Load()
	if set == nil {
		return recommend.ClusterAssignment{}, false
	}
	c, ok := set.byUser[userID]
	if !ok {
		return recommend.ClusterAssignment{}, false
	}

	centroid := make(map[recommend.Category]float64, len(set.centroids[c]))
	for cat, w := range set.centroids[c] {
		centroid[cat] = w
	}
	return recommend.ClusterAssignment{UserID: userID, ClusterID: c, Centroid: centroid}, true
}

// Assignments returns every assignment of the published set, sorted by user id.
func (e *Engine) Assignments() []recommend.ClusterAssignment {
	set := e.current.Load()
	if set == nil {
		return nil
	}
	users := make([]string, 0, len(set.byUser))
	for user := range set.byUser {
		users = append(users, user)
	}
	sort.Strings(users)

	out := make([]recommend.ClusterAssignment, 0, len(users))
	for _, user := range users {
		if a, ok := e.Assignment(user); ok {
			out = append(out, a)
		}
	}
	return out
}

// Status reports the published set and the last pass error.
func (e *Engine) Status() Status {
	st := Status{Status: StatusPending}
	if set := e.current.Load(); set != nil {
		st.Generation = set.generation
		st.Status = set.status
		st.Clusters = len(set.centroids)
		st.Assignments = len(set.byUser)
		st.Profiles = set.profiles
		st.ComputedAt = set.computedAt
	}

	e.passMu.Lock()
	st.Running = e.activeGen != 0
	e.passMu.Unlock()

	e.errMu.Lock()
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
		st.LastErrorAt = e.lastErrTime
	}
	e.errMu.Unlock()

	return st
}

func (e *Engine) recordError(err error) {
	e.errMu.Lock()
	e.lastErr = err
	e.lastErrTime = e.now()
	e.errMu.Unlock()
	e.logger.Warn().Err(err).Msg("clustering pass failed")
}

func (e *Engine) clearError() {
	e.errMu.Lock()
	e.lastErr = nil
	e.lastErrTime = time.Time{}
	e.errMu.Unlock()
}

// featureVectors builds one category-weight vector per distinct user in
// AllCategories order, sorted by user id. Nil profiles are skipped.
func featureVectors(profiles []*recommend.UserProfile) ([]string, [][]float64) {
	byUser := make(map[string]*recommend.UserProfile, len(profiles))
	for _, p := range profiles {
		if p == nil || p.UserID == "" {
			continue
		}
		byUser[p.UserID] = p
	}

	users := make([]string, 0, len(byUser))
	for user := range byUser {
		users = append(users, user)
	}
	sort.Strings(users)

	categories := recommend.AllCategories()
	vectors := make([][]float64, len(users))
	for i, user := range users {
		p := byUser[user]
		v := make([]float64, len(categories))
		for j, c := range categories {
			v[j] = p.Weight(c)
		}
		vectors[i] = v
	}
	return users, vectors
}

// centroidWeights converts centroid vectors back to category weights.
func centroidWeights(centroids [][]float64) []map[recommend.Category]float64 {
	categories := recommend.AllCategories()
	out := make([]map[recommend.Category]float64, len(centroids))
	for i, centroid := range centroids {
		m := make(map[recommend.Category]float64, len(categories))
		for j, c := range categories {
			if j < len(centroid) {
				m[c] = min(1, max(0, centroid[j]))
			}
		}
		out[i] = m
	}
	return out
}
