// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package contextual

import (
	"strings"
	"time"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

// Snapshot maps raw readings to an enumerated context. It is a pure
// function and never fails: nil readings produce a clock-only snapshot
// with unknown weather.
//
//nolint:gocritic // hugeParam: Locale is read-only
func Snapshot(raw *recommend.RawReadings, now time.Time, locale Locale) recommend.ContextSnapshot {
	if locale.Location == nil {
		locale = Thailand()
	}

	at := now
	weather := recommend.WeatherUnknown
	var temp *float64
	if raw != nil {
		if !raw.Timestamp.IsZero() {
			at = raw.Timestamp
		}
		weather = weatherFromReadings(raw)
		temp = raw.TemperatureC
	}

	local := at.In(locale.Location)
	season := locale.SeasonOf(local)

	snap := recommend.ContextSnapshot{
		Weather:    weather,
		TimeBucket: recommend.BucketForHour(local.Hour()),
		Season:     season,
		CapturedAt: at,
	}
	if temp != nil {
		snap.TemperatureC = *temp
	} else {
		snap.TemperatureC = locale.Temperatures[season]
	}
	return snap
}

func weatherFromReadings(raw *recommend.RawReadings) recommend.Weather {
	if raw.WeatherCode != nil {
		return WeatherFromCode(*raw.WeatherCode)
	}
	return WeatherFromCondition(raw.Condition)
}

// WeatherFromCode maps a WMO weather interpretation code.
func WeatherFromCode(code int) recommend.Weather {
	switch {
	case code == 0 || code == 1:
		return recommend.WeatherSunny
	case code == 2 || code == 3:
		return recommend.WeatherCloudy
	case code >= 45 && code <= 48:
		return recommend.WeatherFoggy
	case code >= 51 && code <= 67, code >= 80 && code <= 82:
		return recommend.WeatherRainy
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return recommend.WeatherSnowy
	case code >= 95 && code <= 99:
		return recommend.WeatherStormy
	default:
		return recommend.WeatherUnknown
	}
}

// conditionTerms are checked in order; the first substring found wins.
var conditionTerms = []struct {
	term    string
	weather recommend.Weather
}{
	{"thunder", recommend.WeatherStormy},
	{"storm", recommend.WeatherStormy},
	{"snow", recommend.WeatherSnowy},
	{"sleet", recommend.WeatherSnowy},
	{"rain", recommend.WeatherRainy},
	{"drizzle", recommend.WeatherRainy},
	{"shower", recommend.WeatherRainy},
	{"fog", recommend.WeatherFoggy},
	{"mist", recommend.WeatherFoggy},
	{"haze", recommend.WeatherFoggy},
	{"cloud", recommend.WeatherCloudy},
	{"overcast", recommend.WeatherCloudy},
	{"clear", recommend.WeatherSunny},
	{"sun", recommend.WeatherSunny},
	{"fair", recommend.WeatherSunny},
}

// WeatherFromCondition maps a textual condition such as "light rain".
func WeatherFromCondition(condition string) recommend.Weather {
	c := strings.ToLower(condition)
	if c == "" {
		return recommend.WeatherUnknown
	}
	for _, ct := range conditionTerms {
		if strings.Contains(c, ct.term) {
			return ct.weather
		}
	}
	return recommend.WeatherUnknown
}
