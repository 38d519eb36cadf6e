// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package classifier maps interaction records to typed Interest values.
//
// Classification is lexicon matching: every category owns a set of
// trigger terms, compiled into one Aho-Corasick automaton. One interaction
// may express several interests. Classification never fails; input that
// matches nothing degrades to a single low-intensity unknown interest.
package classifier

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/cache"
	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/recommend"
)

// CategoryLookup resolves the declared category of a catalog item.
type CategoryLookup interface {
	CategoryOf(itemID string) (recommend.Category, bool)
}

// SettingLexicon lists terms that reveal an indoor or outdoor setting.
type SettingLexicon struct {
	Indoor  []string `koanf:"indoor"`
	Outdoor []string `koanf:"outdoor"`
}

// Config contains configuration for the classifier.
type Config struct {
	// Lexicon maps category names to trigger terms. Nil uses DefaultLexicon.
	Lexicon map[recommend.Category][]string `koanf:"-"`

	// Settings lists setting terms. Empty uses DefaultSettingLexicon.
	Settings SettingLexicon `koanf:"settings"`

	// BaseIntensity is the intensity of any matched interest. Default: 0.5.
	BaseIntensity float64 `koanf:"base_intensity"`

	// FeedbackBoost is added when explicit feedback was given. Default: 0.3.
	FeedbackBoost float64 `koanf:"feedback_boost"`

	// MatchBoost is scaled by match strength and added. Default: 0.2.
	MatchBoost float64 `koanf:"match_boost"`

	// UnknownIntensity is the intensity of the unknown fallback. Default: 0.2.
	UnknownIntensity float64 `koanf:"unknown_intensity"`

	// FullStrengthTerms is the number of distinct matched terms at which
	// match strength reaches 1. Default: 2.
	FullStrengthTerms int `koanf:"full_strength_terms"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Lexicon:           DefaultLexicon(),
		Settings:          DefaultSettingLexicon(),
		BaseIntensity:     0.5,
		FeedbackBoost:     0.3,
		MatchBoost:        0.2,
		UnknownIntensity:  0.2,
		FullStrengthTerms: 2,
	}
}

// Classifier turns interactions into interests. It is safe for concurrent use.
type Classifier struct {
	cfg      Config
	terms    *cache.AhoCorasick[recommend.Category]
	settings *cache.AhoCorasick[recommend.Environment]
	lookup   CategoryLookup
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a classifier. lookup may be nil; then only SelectedCategory
// is used to resolve a selected item.
//
//nolint:gocritic // hugeParam: cfg is copied once at construction
func New(cfg Config, lookup CategoryLookup, logger zerolog.Logger) (*Classifier, error) {
	def := DefaultConfig()
	if cfg.Lexicon == nil {
		cfg.Lexicon = def.Lexicon
	}
	if len(cfg.Settings.Indoor) == 0 && len(cfg.Settings.Outdoor) == 0 {
		cfg.Settings = def.Settings
	}
	if cfg.FullStrengthTerms <= 0 {
		cfg.FullStrengthTerms = def.FullStrengthTerms
	}

	for name, v := range map[string]float64{
		"base_intensity":    cfg.BaseIntensity,
		"feedback_boost":    cfg.FeedbackBoost,
		"match_boost":       cfg.MatchBoost,
		"unknown_intensity": cfg.UnknownIntensity,
	} {
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("%s must be in [0, 1], got %f", name, v)
		}
	}

	terms := cache.NewAhoCorasick[recommend.Category](true)
	for category, words := range cfg.Lexicon {
		if !category.Valid() || category == recommend.CategoryUnknown {
			return nil, fmt.Errorf("lexicon category %q is not a known category", category)
		}
		terms.AddPatterns(words, category)
	}
	terms.Build()

	settings := cache.NewAhoCorasick[recommend.Environment](true)
	settings.AddPatterns(cfg.Settings.Indoor, recommend.EnvironmentIndoor)
	settings.AddPatterns(cfg.Settings.Outdoor, recommend.EnvironmentOutdoor)
	settings.Build()

	return &Classifier{
		cfg:      cfg,
		terms:    terms,
		settings: settings,
		lookup:   lookup,
		now:      time.Now,
		logger:   logger.With().Str("component", "classifier").Logger(),
	}, nil
}

// WithClock sets the clock used for interactions without a timestamp.
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	if now != nil {
		c.now = now
	}
	return c
}

// Classify returns one Interest per matched category in AllCategories
// order, or a single unknown Interest when nothing matched.
func (c *Classifier) Classify(in *recommend.Interaction) []recommend.Interest {
	if in == nil {
		in = &recommend.Interaction{}
	}

	capturedAt := in.Timestamp
	if capturedAt.IsZero() {
		capturedAt = c.now()
	}
	sourceItem := ""
	if in.SelectedItemID != nil {
		sourceItem = *in.SelectedItemID
	}

	strength := c.matchStrengths(in.QueryText)
	if category, ok := c.selectedCategory(in); ok {
		strength[category] = 1
	}

	querySetting := c.querySetting(in.QueryText)
	feedback := 0.0
	if in.HasFeedback() {
		feedback = 1
	}

	var out []recommend.Interest
	for _, category := range recommend.AllCategories() {
		s, ok := strength[category]
		if !ok || category == recommend.CategoryUnknown {
			continue
		}
		setting := querySetting
		if setting == recommend.EnvironmentEither {
			setting = DefaultSetting(category)
		}
		intensity := clamp01(c.cfg.BaseIntensity + c.cfg.FeedbackBoost*feedback + c.cfg.MatchBoost*s)
		out = append(out, recommend.Interest{
			Category:   category,
			Intensity:  intensity,
			SourceItem: sourceItem,
			CapturedAt: capturedAt,
			SessionID:  in.SessionID,
			Setting:    setting,
		})
		metrics.RecordInterest(category.String())
	}

	if len(out) == 0 {
		metrics.RecordInterest(recommend.CategoryUnknown.String())
		c.logger.Debug().Str("user_id", in.UserID).Msg("interaction matched no category")
		return []recommend.Interest{{
			Category:   recommend.CategoryUnknown,
			Intensity:  c.cfg.UnknownIntensity,
			SourceItem: sourceItem,
			CapturedAt: capturedAt,
			SessionID:  in.SessionID,
			Setting:    querySetting,
		}}
	}

	return out
}

// matchStrengths counts distinct matched terms per category and scales
// them to [0, 1].
func (c *Classifier) matchStrengths(query string) map[recommend.Category]float64 {
	strength := make(map[recommend.Category]float64)
	if query == "" {
		return strength
	}

	distinct := make(map[recommend.Category]map[string]struct{})
	for _, m := range c.terms.Search(query) {
		if distinct[m.Data] == nil {
			distinct[m.Data] = make(map[string]struct{})
		}
		distinct[m.Data][m.Pattern] = struct{}{}
	}

	for category, terms := range distinct {
		strength[category] = clamp01(float64(len(terms)) / float64(c.cfg.FullStrengthTerms))
	}
	return strength
}

// selectedCategory resolves the category of the selected item from the
// declared category or, failing that, the catalog lookup.
func (c *Classifier) selectedCategory(in *recommend.Interaction) (recommend.Category, bool) {
	if in.SelectedCategory != nil && *in.SelectedCategory != "" {
		category := recommend.ParseCategory(*in.SelectedCategory)
		return category, category != recommend.CategoryUnknown
	}
	if in.SelectedItemID != nil && c.lookup != nil {
		category, ok := c.lookup.CategoryOf(*in.SelectedItemID)
		if ok && category.Valid() && category != recommend.CategoryUnknown {
			return category, true
		}
	}
	return "", false
}

// querySetting votes indoor against outdoor terms in the query. A tie or
// no terms yields either.
func (c *Classifier) querySetting(query string) recommend.Environment {
	if query == "" {
		return recommend.EnvironmentEither
	}
	indoor, outdoor := 0, 0
	for _, m := range c.settings.Search(query) {
		switch m.Data {
		case recommend.EnvironmentIndoor:
			indoor++
		case recommend.EnvironmentOutdoor:
			outdoor++
		}
	}
	switch {
	case indoor > outdoor:
		return recommend.EnvironmentIndoor
	case outdoor > indoor:
		return recommend.EnvironmentOutdoor
	default:
		return recommend.EnvironmentEither
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
