// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package contextual

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

// SeasonRange assigns a season to an inclusive month range. Ranges may
// wrap the year end (November to February).
type SeasonRange struct {
	Season recommend.Season `json:"season" koanf:"season"`
	From   time.Month       `json:"from" koanf:"from"`
	To     time.Month       `json:"to" koanf:"to"`
}

// Locale holds the climate calendar of a destination.
type Locale struct {
	Name string

	// Location is the destination time zone used for time buckets and months.
	Location *time.Location

	// Seasons maps every month to a season.
	Seasons [12]recommend.Season

	// Temperatures are typical values per season, used when a reading
	// carries no temperature.
	Temperatures map[recommend.Season]float64
}

// NewLocale builds a locale from month ranges. Every month must be covered
// exactly once.
func NewLocale(name string, loc *time.Location, ranges []SeasonRange, temps map[recommend.Season]float64) (Locale, error) {
	if loc == nil {
		loc = time.UTC
	}
	l := Locale{Name: name, Location: loc, Temperatures: temps}

	var covered [12]bool
	for _, r := range ranges {
		switch r.Season {
		case recommend.SeasonHot, recommend.SeasonRainy, recommend.SeasonCool:
		default:
			return Locale{}, fmt.Errorf("locale %s: unknown season %q", name, r.Season)
		}
		if r.From < time.January || r.From > time.December || r.To < time.January || r.To > time.December {
			return Locale{}, fmt.Errorf("locale %s: month range %d-%d out of bounds", name, r.From, r.To)
		}
		for m := r.From; ; m = m%12 + 1 {
			if covered[m-1] {
				return Locale{}, fmt.Errorf("locale %s: month %s assigned twice", name, m)
			}
			covered[m-1] = true
			l.Seasons[m-1] = r.Season
			if m == r.To {
				break
			}
		}
	}
	for i, ok := range covered {
		if !ok {
			return Locale{}, fmt.Errorf("locale %s: month %s has no season", name, time.Month(i+1))
		}
	}
	return l, nil
}

// SeasonOf returns the season for the month of t in the locale's time zone.
func (l Locale) SeasonOf(t time.Time) recommend.Season {
	return l.Seasons[t.In(l.Location).Month()-1]
}

// Thailand is the default locale: hot March to May, rainy June to
// October, cool November to February.
func Thailand() Locale {
	l, err := NewLocale("th", time.FixedZone("ICT", 7*60*60), []SeasonRange{
		{Season: recommend.SeasonHot, From: time.March, To: time.May},
		{Season: recommend.SeasonRainy, From: time.June, To: time.October},
		{Season: recommend.SeasonCool, From: time.November, To: time.February},
	}, map[recommend.Season]float64{
		recommend.SeasonHot:   34,
		recommend.SeasonRainy: 29,
		recommend.SeasonCool:  26,
	})
	if err != nil {
		panic(err)
	}
	return l
}

// Vietnam follows the southern climate: hot March to May, rainy June to
// November, cool December to February.
func Vietnam() Locale {
	l, err := NewLocale("vn", time.FixedZone("ICT", 7*60*60), []SeasonRange{
		{Season: recommend.SeasonHot, From: time.March, To: time.May},
		{Season: recommend.SeasonRainy, From: time.June, To: time.November},
		{Season: recommend.SeasonCool, From: time.December, To: time.February},
	}, map[recommend.Season]float64{
		recommend.SeasonHot:   33,
		recommend.SeasonRainy: 28,
		recommend.SeasonCool:  25,
	})
	if err != nil {
		panic(err)
	}
	return l
}

// LookupLocale returns a built-in locale by name.
func LookupLocale(name string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "th":
		return Thailand(), nil
	case "vn":
		return Vietnam(), nil
	default:
		return Locale{}, fmt.Errorf("unknown locale %q", name)
	}
}
