// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

/*
Package cache provides small generic in-memory data structures shared by the
recommendation components.

# Overview

  - Cache: thread-safe key/value store with per-entry TTL, lazy expiry and
    hit/miss statistics. The context engine keeps its snapshot reuse window
    in one.
  - AhoCorasick: multi-pattern matcher with typed payloads, case-insensitive,
    optionally restricted to whole words. The interest classifier compiles
    its category lexicon into one.

# Usage Example

	c := cache.New[string, int](5 * time.Minute)
	c.Set("answer", 42)
	if v, ok := c.Get("answer"); ok {
	    fmt.Println(v)
	}

	ac := cache.NewAhoCorasick[string](true)
	ac.AddPatterns([]string{"temple", "museum"}, "culture")
	ac.Build()
	for _, m := range ac.Search("Which museum is open late?") {
	    fmt.Println(m.Pattern, m.Data)
	}

# Thread Safety

Both types are safe for concurrent use. AhoCorasick serializes Build
against Search with a read/write mutex.
*/
package cache
