// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

const snapshotExt = ".gob.gz"

// SnapshotMetadata contains information about a stored snapshot.
type SnapshotMetadata struct {
	// Name is the snapshot family (e.g., "clusters").
	Name string `json:"name"`

	// Version is the snapshot version (monotonically increasing).
	Version int `json:"version"`

	// ComputedAt is when the state was computed.
	ComputedAt time.Time `json:"computed_at"`

	// SavedAt is when the snapshot was written.
	SavedAt time.Time `json:"saved_at"`

	// Status is the outcome of the computation ("ok", "insufficient_data").
	Status string `json:"status"`

	ProfileCount    int `json:"profile_count"`
	ClusterCount    int `json:"cluster_count"`
	AssignmentCount int `json:"assignment_count"`

	// Checksum is the SHA-256 checksum of the uncompressed state.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed state size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// DurationMS is how long the computation took.
	DurationMS int64 `json:"duration_ms"`
}

// ClusterState is the serializable form of a published cluster assignment set.
type ClusterState struct {
	// Generation is the clustering pass that produced the set.
	Generation uint64

	// Assignments maps user id to cluster id.
	Assignments map[string]int

	// Centroids holds per-cluster centroid category weights, indexed by cluster id.
	Centroids []map[recommend.Category]float64

	ComputedAt time.Time
}

// Store manages snapshot persistence.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per snapshot name
	versions map[string]int
}

// NewStore creates a snapshot store at the given directory.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for snapshot storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}

	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing snapshots: %w", err)
	}

	return s, nil
}

// scan records the latest version of every snapshot in the directory.
func (s *Store) scan() error {
	all, err := s.listVersions()
	if err != nil {
		return err
	}
	for name, versions := range all {
		s.versions[name] = versions[0]
	}
	return nil
}

// listVersions returns every version on disk per name, sorted descending.
func (s *Store) listVersions() (map[string][]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		name, version := parseSnapshotFilename(strings.TrimSuffix(entry.Name(), snapshotExt))
		if name == "" {
			continue
		}
		out[name] = append(out[name], version)
	}
	for name := range out {
		sort.Sort(sort.Reverse(sort.IntSlice(out[name])))
	}
	return out, nil
}

// parseSnapshotFilename extracts name and version from a base name like "clusters_v3".
func parseSnapshotFilename(base string) (name string, version int) {
	idx := strings.LastIndex(base, "_v")
	if idx < 1 {
		return "", 0
	}
	if _, err := fmt.Sscanf(base[idx+2:], "%d", &version); err != nil || version < 1 {
		return "", 0
	}
	return base[:idx], version
}

// storedFile is the on-disk format for snapshot files.
type storedFile struct {
	Metadata       SnapshotMetadata
	CompressedData []byte
}

// Save stores state under name and version. Versions must be positive.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, data interface{}, meta SnapshotMetadata) error {
	if err := validateName(name); err != nil {
		return err
	}
	if version < 1 {
		return fmt.Errorf("%w: version must be positive, got %d", recommend.ErrInvalidArgument, version)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now()
	meta.Name = name
	meta.Version = version

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeFile(s.snapshotPath(name, version), storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return err
	}

	if current, ok := s.versions[name]; !ok || version > current {
		s.versions[name] = version
	}
	return nil
}

// writeFile writes sf to a temp file in the store directory and renames it to path.
//
//nolint:gocritic // hugeParam: written once
func (s *Store) writeFile(path string, sf storedFile) error {
	tmp, err := os.CreateTemp(s.baseDir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("publish snapshot file: %w", err)
	}
	return nil
}

// Load decodes a snapshot into target. Version 0 loads the latest version.
// A missing snapshot returns an error wrapping recommend.ErrNotFound.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*SnapshotMetadata, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("%w: no snapshot for %s", recommend.ErrNotFound, name)
		}
	}

	sf, err := readFile(s.snapshotPath(name, version))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: snapshot %s v%d", recommend.ErrNotFound, name, version)
		}
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return &sf.Metadata, nil
}

func readFile(path string) (*storedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from a validated name
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	return &sf, nil
}

// LatestVersion returns the latest version number for a snapshot name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// List returns metadata for the latest snapshot of every name, sorted by name.
// Unreadable files are skipped.
func (s *Store) List(ctx context.Context) ([]SnapshotMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.versions))
	for name := range s.versions {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SnapshotMetadata, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sf, err := readFile(s.snapshotPath(name, s.versions[name]))
		if err != nil {
			continue
		}
		out = append(out, sf.Metadata)
	}
	return out, nil
}

// Delete removes a specific snapshot version.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.snapshotPath(name, version)); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	if s.versions[name] == version {
		all, err := s.listVersions()
		if err != nil {
			return fmt.Errorf("read directory: %w", err)
		}
		if versions := all[name]; len(versions) > 0 {
			s.versions[name] = versions[0]
		} else {
			delete(s.versions, name)
		}
	}
	return nil
}

// Prune removes old versions of name, keeping the latest keep versions.
func (s *Store) Prune(ctx context.Context, name string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}

	all, err := s.listVersions()
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	versions := all[name]
	for i := keep; i < len(versions); i++ {
		_ = os.Remove(s.snapshotPath(name, versions[i])) //nolint:errcheck // best-effort cleanup of old versions
	}
	return nil
}

func (s *Store) snapshotPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, snapshotExt))
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: invalid snapshot name %q", recommend.ErrInvalidArgument, name)
	}
	return nil
}

// Register gob types for serialization.
//
//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(ClusterState{})
	gob.Register(SnapshotMetadata{})
	gob.Register(storedFile{})
}
