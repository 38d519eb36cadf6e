// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package storage persists versioned snapshots of derived state, such as
// the published cluster assignment set, so a restarted process can serve
// collaborative scores before its first clustering pass completes.
//
// # Storage Format
//
// Each snapshot is a gob-encoded file:
//
//	filename: {name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (SnapshotMetadata)
//	  - CompressedData (gzip-compressed gob-encoded state)
//
// The SHA-256 of the uncompressed state is stored in the metadata and
// verified on load; a mismatch is reported as an error rather than
// restoring corrupted assignments.
//
// # Usage
//
//	store, err := storage.NewStore("/var/lib/wayfinder/snapshots")
//	if err != nil {
//	    return err
//	}
//
//	state := storage.ClusterState{Generation: gen, Assignments: labels, Centroids: centroids}
//	err = store.Save(ctx, "clusters", int(gen), state, storage.SnapshotMetadata{ProfileCount: n})
//
//	var restored storage.ClusterState
//	meta, err := store.Load(ctx, "clusters", 0, &restored) // 0 = latest
//
// Files are written to a temporary name and renamed into place, so a crash
// mid-write never leaves a truncated latest snapshot.
//
// # Thread Safety
//
// All store operations are safe for concurrent use. Save, Delete and
// Prune take the write lock; Load and List share the read lock.
package storage
