// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package profile

import (
	"math"
	"time"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

// decayFactor returns exp(-ln2/halfLife * age). Future timestamps count as age 0.
func decayFactor(age, halfLife time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	lambda := math.Ln2 / halfLife.Hours()
	return math.Exp(-lambda * age.Hours())
}

// categoryWeights sums decayed intensities per category and divides by the
// largest sum, so the top category is exactly 1. Ages are measured from the
// newest interest (or now, if that is earlier); max-normalisation makes the
// result the same as measuring from now, and the newest interest keeps a
// factor of 1 however old the log is. A log whose intensities are all zero
// falls back to interest counts per category.
func categoryWeights(log []recommend.Interest, now time.Time, halfLife time.Duration) map[recommend.Category]float64 {
	if len(log) == 0 {
		return map[recommend.Category]float64{}
	}

	ref := log[0].CapturedAt
	for i := range log {
		if log[i].CapturedAt.After(ref) {
			ref = log[i].CapturedAt
		}
	}
	if ref.After(now) {
		ref = now
	}

	sums := make(map[recommend.Category]float64)
	counts := make(map[recommend.Category]float64)
	for i := range log {
		in := &log[i]
		sums[in.Category] += in.Intensity * decayFactor(ref.Sub(in.CapturedAt), halfLife)
		counts[in.Category]++
	}

	weights := normalizeByMax(sums)
	if len(weights) == 0 {
		return normalizeByMax(counts)
	}
	return weights
}

// timePreference counts interests per time bucket, in loc, and divides by
// the busiest bucket.
func timePreference(log []recommend.Interest, loc *time.Location) map[recommend.TimeBucket]float64 {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[recommend.TimeBucket]float64)
	for i := range log {
		counts[recommend.BucketForHour(log[i].CapturedAt.In(loc).Hour())]++
	}
	return normalizeByMax(counts)
}

// locationPreference votes over the settings of the last window interests.
// More indoor than outdoor votes gives indoor and vice versa; a tie with
// votes gives mixed; no votes gives unknown.
func locationPreference(log []recommend.Interest, window int) recommend.LocationPreference {
	start := len(log) - window
	if start < 0 {
		start = 0
	}

	indoor, outdoor := 0, 0
	for i := start; i < len(log); i++ {
		switch log[i].Setting {
		case recommend.EnvironmentIndoor:
			indoor++
		case recommend.EnvironmentOutdoor:
			outdoor++
		}
	}

	switch {
	case indoor == 0 && outdoor == 0:
		return recommend.LocationUnknown
	case indoor > outdoor:
		return recommend.LocationIndoor
	case outdoor > indoor:
		return recommend.LocationOutdoor
	default:
		return recommend.LocationMixed
	}
}

// activityLevel is the number of interests captured within window before
// now, divided by norm and clamped to [0, 1].
func activityLevel(log []recommend.Interest, now time.Time, window time.Duration, norm int) float64 {
	since := now.Add(-window)
	recent := 0
	for i := range log {
		if log[i].CapturedAt.After(since) {
			recent++
		}
	}
	return math.Min(1, float64(recent)/float64(norm))
}

// derive recomputes every derived field of p from its interest log at now.
func derive(p *recommend.UserProfile, now time.Time, cfg *Config, loc *time.Location) {
	p.CategoryWeights = categoryWeights(p.InterestLog, now, cfg.HalfLife)
	p.TimePreference = timePreference(p.InterestLog, loc)
	p.LocationPreference = locationPreference(p.InterestLog, cfg.LocationWindow)
	p.ActivityLevel = activityLevel(p.InterestLog, now, cfg.ActivityWindow, cfg.ActivityNorm)
}

func normalizeByMax[K comparable](m map[K]float64) map[K]float64 {
	maxVal := 0.0
	for _, v := range m {
		if v > maxVal {
			maxVal = v
		}
	}

	out := make(map[K]float64, len(m))
	if maxVal <= 0 {
		return out
	}
	for k, v := range m {
		out[k] = v / maxVal
	}
	return out
}
