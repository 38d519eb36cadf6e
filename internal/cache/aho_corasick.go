// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package cache

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// AhoCorasick implements the Aho-Corasick string matching algorithm over a
// set of patterns, each carrying a typed payload. All patterns are found in
// a single pass over the text in O(n + m + z) time, where:
//   - n = length of text
//   - m = total length of all patterns
//   - z = number of matches
//
// Matching is case-insensitive. With word boundaries enabled, a match only
// counts when it is not embedded in a longer word ("art" does not match
// "party").
//
// Example:
//
//	ac := NewAhoCorasick[string](true)
//	ac.AddPattern("temple", "culture")
//	ac.AddPattern("street food", "food")
//	ac.Build()
//
//	matches := ac.Search("Temple visit then street food")
//	// matches[0] = Match{Pattern: "temple", Data: "culture", Position: 0}
type AhoCorasick[T any] struct {
	mu           sync.RWMutex
	root         *acNode
	patterns     []Pattern[T]
	built        bool
	wordBoundary bool
}

// acNode represents a node in the Aho-Corasick automaton.
type acNode struct {
	children map[rune]*acNode
	failure  *acNode // Failure link for when match fails
	output   []int   // Indices of patterns that end at this node
	depth    int     // Depth from root
}

// Pattern represents a search pattern with associated data.
type Pattern[T any] struct {
	Text string // The pattern text, lower-cased
	Data T
}

// Match represents a pattern match in the text.
type Match[T any] struct {
	Pattern  string // The matched pattern
	Data     T      // Associated data from the pattern
	Position int    // Start byte offset in the lower-cased text
}

// NewAhoCorasick creates a new case-insensitive automaton.
func NewAhoCorasick[T any](wordBoundary bool) *AhoCorasick[T] {
	return &AhoCorasick[T]{
		root:         newACNode(0),
		wordBoundary: wordBoundary,
	}
}

func newACNode(depth int) *acNode {
	return &acNode{
		children: make(map[rune]*acNode),
		depth:    depth,
	}
}

// AddPattern adds a pattern to the automaton. Blank patterns are ignored.
// Adding after Build marks the automaton for rebuild.
func (ac *AhoCorasick[T]) AddPattern(pattern string, data T) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return
	}

	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.built = false
	ac.patterns = append(ac.patterns, Pattern[T]{Text: pattern, Data: data})
}

// AddPatterns adds multiple patterns sharing the same data.
func (ac *AhoCorasick[T]) AddPatterns(patterns []string, data T) {
	for _, p := range patterns {
		ac.AddPattern(p, data)
	}
}

// Build constructs the automaton. Must be called after adding patterns
// and before searching.
func (ac *AhoCorasick[T]) Build() {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.built {
		return
	}

	ac.root = newACNode(0)
	for i, p := range ac.patterns {
		ac.insertPattern(i, p.Text)
	}
	ac.buildFailureLinks()

	ac.built = true
}

func (ac *AhoCorasick[T]) insertPattern(index int, pattern string) {
	node := ac.root
	for _, ch := range pattern {
		if node.children[ch] == nil {
			node.children[ch] = newACNode(node.depth + 1)
		}
		node = node.children[ch]
	}
	node.output = append(node.output, index)
}

// buildFailureLinks builds failure links using BFS.
func (ac *AhoCorasick[T]) buildFailureLinks() {
	queue := make([]*acNode, 0, len(ac.root.children))
	for _, child := range ac.root.children {
		child.failure = ac.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			// Follow failure links to find longest proper suffix
			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}

			if fail == nil {
				child.failure = ac.root
			} else {
				child.failure = fail.children[ch]
				child.output = append(child.output, child.failure.output...)
			}
		}
	}
}

// Search finds all pattern matches in the text, in order of match end.
func (ac *AhoCorasick[T]) Search(text string) []Match[T] {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if !ac.built || len(ac.patterns) == 0 {
		return nil
	}

	searchText := strings.ToLower(text)

	var matches []Match[T]
	node := ac.root

	for i, ch := range searchText {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}

		if node == nil {
			node = ac.root
			continue
		}

		node = node.children[ch]
		end := i + utf8.RuneLen(ch)

		for _, patternIdx := range node.output {
			pattern := ac.patterns[patternIdx]
			start := end - len(pattern.Text)
			if ac.wordBoundary && !isWordBoundary(searchText, start, end) {
				continue
			}
			matches = append(matches, Match[T]{
				Pattern:  pattern.Text,
				Data:     pattern.Data,
				Position: start,
			})
		}
	}

	return matches
}

// Contains checks if any pattern matches in the text.
func (ac *AhoCorasick[T]) Contains(text string) bool {
	return len(ac.Search(text)) > 0
}

// PatternCount returns the number of patterns in the automaton.
func (ac *AhoCorasick[T]) PatternCount() int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return len(ac.patterns)
}

// isWordBoundary reports whether text[start:end] is not flanked by letters or digits.
func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
