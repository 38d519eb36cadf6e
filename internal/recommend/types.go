// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/wayfinder/internal/validation"
)

// Category is a kind of travel experience a user can be interested in.
type Category string

const (
	CategoryNature    Category = "nature"
	CategoryCity      Category = "city"
	CategoryCulture   Category = "culture"
	CategoryAdventure Category = "adventure"
	CategoryFood      Category = "food"
	CategoryHistory   Category = "history"
	CategoryShopping  Category = "shopping"
	CategoryNightlife Category = "nightlife"
	CategoryWellness  Category = "wellness"
	CategoryBeach     Category = "beach"

	// CategoryUnknown is the fallback for unclassifiable signals.
	CategoryUnknown Category = "unknown"
)

// allCategories is the fixed order used for feature vectors. Unknown is last.
var allCategories = []Category{
	CategoryNature,
	CategoryCity,
	CategoryCulture,
	CategoryAdventure,
	CategoryFood,
	CategoryHistory,
	CategoryShopping,
	CategoryNightlife,
	CategoryWellness,
	CategoryBeach,
	CategoryUnknown,
}

// AllCategories returns every known category in feature-vector order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory maps a free-form category name to a Category.
// Unrecognized names map to CategoryUnknown.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryUnknown
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// TimeBucket is a coarse time-of-day bucket.
type TimeBucket string

const (
	TimeMorning   TimeBucket = "morning"
	TimeAfternoon TimeBucket = "afternoon"
	TimeEvening   TimeBucket = "evening"
	TimeNight     TimeBucket = "night"
)

// AllTimeBuckets returns the time buckets in chronological order starting at morning.
func AllTimeBuckets() []TimeBucket {
	return []TimeBucket{TimeMorning, TimeAfternoon, TimeEvening, TimeNight}
}

// BucketForHour maps an hour of day (0-23) to its bucket:
// 05-11 morning, 12-17 afternoon, 18-21 evening, otherwise night.
func BucketForHour(hour int) TimeBucket {
	switch {
	case hour >= 5 && hour < 12:
		return TimeMorning
	case hour >= 12 && hour < 18:
		return TimeAfternoon
	case hour >= 18 && hour < 22:
		return TimeEvening
	default:
		return TimeNight
	}
}

// Season is a locale-specific climatic season.
type Season string

const (
	SeasonHot   Season = "hot"
	SeasonRainy Season = "rainy"
	SeasonCool  Season = "cool"
)

// Weather is the enumerated current weather condition.
type Weather string

const (
	WeatherSunny   Weather = "sunny"
	WeatherCloudy  Weather = "cloudy"
	WeatherRainy   Weather = "rainy"
	WeatherStormy  Weather = "stormy"
	WeatherFoggy   Weather = "foggy"
	WeatherSnowy   Weather = "snowy"
	WeatherUnknown Weather = "unknown"
)

// Need returns the indoor/outdoor setting the weather implies.
// Unknown weather implies no preference and returns EnvironmentEither.
func (w Weather) Need() Environment {
	switch w {
	case WeatherSunny, WeatherCloudy, WeatherFoggy:
		return EnvironmentOutdoor
	case WeatherRainy, WeatherStormy, WeatherSnowy:
		return EnvironmentIndoor
	default:
		return EnvironmentEither
	}
}

// Environment describes whether an activity happens indoors or outdoors.
type Environment string

const (
	EnvironmentIndoor  Environment = "indoor"
	EnvironmentOutdoor Environment = "outdoor"
	EnvironmentEither  Environment = "either"
)

// LocationPreference is the user's learned indoor/outdoor preference.
type LocationPreference string

const (
	LocationIndoor  LocationPreference = "indoor"
	LocationOutdoor LocationPreference = "outdoor"
	LocationMixed   LocationPreference = "mixed"
	LocationUnknown LocationPreference = "unknown"
)

// Matches reports whether an item with the given weather dependency suits
// this preference. Items usable in either setting suit a mixed preference.
func (p LocationPreference) Matches(dep Environment) bool {
	switch p {
	case LocationIndoor:
		return dep == EnvironmentIndoor
	case LocationOutdoor:
		return dep == EnvironmentOutdoor
	case LocationMixed:
		return dep == EnvironmentEither
	default:
		return false
	}
}

// Interest is a typed, time-stamped, intensity-weighted signal that a user
// favors a category of experience. Interest values are immutable once created.
type Interest struct {
	// Category is the experience category.
	Category Category `json:"category"`

	// Intensity is the signal strength in [0, 1].
	Intensity float64 `json:"intensity"`

	// SourceItem is the item that produced the signal, if any.
	SourceItem string `json:"source_item,omitempty"`

	// CapturedAt is when the signal was observed.
	CapturedAt time.Time `json:"captured_at"`

	// SessionID is the session the signal came from.
	SessionID string `json:"session_id,omitempty"`

	// Setting is the inferred indoor/outdoor signal. Empty or either when
	// the interaction carried no setting signal.
	Setting Environment `json:"setting,omitempty"`
}

// UserProfile is the aggregated interest state of one user.
type UserProfile struct {
	UserID string `json:"user_id"`

	// CategoryWeights are decayed weights normalized so the top category is 1.0.
	CategoryWeights map[Category]float64 `json:"category_weights"`

	LocationPreference LocationPreference `json:"location_preference"`

	// ActivityLevel is recent interaction volume scaled to [0, 1].
	ActivityLevel float64 `json:"activity_level"`

	// TimePreference holds per-bucket activity normalized by the busiest bucket.
	TimePreference map[TimeBucket]float64 `json:"time_preference"`

	// InterestLog is bounded; the oldest entries are evicted first.
	InterestLog []Interest `json:"interest_log"`

	LastUpdated time.Time `json:"last_updated"`
}

// Weight returns the category weight, or 0 if the category is absent.
func (p *UserProfile) Weight(c Category) float64 {
	if p == nil {
		return 0
	}
	return p.CategoryWeights[c]
}

// TopCategory returns the highest weighted category. Ties resolve to the
// category that comes first in AllCategories order.
func (p *UserProfile) TopCategory() (Category, float64) {
	best, bestWeight := CategoryUnknown, 0.0
	if p == nil {
		return best, bestWeight
	}
	for _, c := range allCategories {
		if w := p.CategoryWeights[c]; w > bestWeight {
			best, bestWeight = c, w
		}
	}
	return best, bestWeight
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.CategoryWeights = make(map[Category]float64, len(p.CategoryWeights))
	for k, v := range p.CategoryWeights {
		out.CategoryWeights[k] = v
	}
	out.TimePreference = make(map[TimeBucket]float64, len(p.TimePreference))
	for k, v := range p.TimePreference {
		out.TimePreference[k] = v
	}
	out.InterestLog = make([]Interest, len(p.InterestLog))
	copy(out.InterestLog, p.InterestLog)
	return &out
}

// Interaction is the inbound record produced by the request-handling layer.
// Optional fields are pointers so that absence is distinguishable from zero.
type Interaction struct {
	UserID    string `json:"user_id" validate:"required,max=256"`
	SessionID string `json:"session_id,omitempty" validate:"max=256"`

	// QueryText is the free-text query; may be empty.
	QueryText string `json:"query_text,omitempty" validate:"max=4096"`

	// SelectedItemID is the item the user picked, if any.
	SelectedItemID *string `json:"selected_item_id,omitempty" validate:"omitempty,min=1,max=256"`

	// SelectedCategory is the declared category of the selected item, if known.
	SelectedCategory *string `json:"selected_category,omitempty" validate:"omitempty,max=64"`

	// FeedbackSatisfaction is explicit satisfaction in [0, 1], if given.
	FeedbackSatisfaction *float64 `json:"feedback_satisfaction,omitempty" validate:"omitempty,gte=0,lte=1"`

	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the record structure. Failures wrap ErrInvalidArgument.
func (i *Interaction) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: interaction is nil", ErrInvalidArgument)
	}
	if strings.TrimSpace(i.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidArgument)
	}
	if verr := validation.ValidateStruct(i); verr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, verr.Error())
	}
	return nil
}

// HasFeedback reports whether explicit feedback was supplied.
func (i *Interaction) HasFeedback() bool {
	return i != nil && i.FeedbackSatisfaction != nil
}

// RawReadings are the external weather and clock readings fed to the
// context engine. Every field is optional.
type RawReadings struct {
	// WeatherCode is a WMO weather interpretation code.
	WeatherCode *int `json:"weather_code,omitempty"`

	// Condition is a textual weather condition ("rain", "clear", ...).
	// Used when WeatherCode is absent.
	Condition string `json:"condition,omitempty"`

	TemperatureC *float64 `json:"temperature_c,omitempty"`

	// Timestamp is the reading time. Zero means "now".
	Timestamp time.Time `json:"timestamp"`
}

// ContextSnapshot is the enumerated context of one recommendation request.
type ContextSnapshot struct {
	Weather      Weather    `json:"weather"`
	TemperatureC float64    `json:"temperature_c"`
	TimeBucket   TimeBucket `json:"time_bucket"`
	Season       Season     `json:"season"`
	CapturedAt   time.Time  `json:"captured_at"`
}

// CandidateItem is a catalog entry with its suitability attributes.
type CandidateItem struct {
	ItemID   string   `json:"item_id" koanf:"item_id" validate:"required,max=256"`
	Category Category `json:"category" koanf:"category" validate:"required,max=64"`

	// WeatherDependency is indoor, outdoor or either.
	WeatherDependency Environment `json:"weather_dependency" koanf:"weather_dependency" validate:"required,oneof=indoor outdoor either"`

	TimeAffinity     map[TimeBucket]float64 `json:"time_affinity" koanf:"time_affinity" validate:"omitempty,dive,keys,oneof=morning afternoon evening night,endkeys,gte=0,lte=1"`
	SeasonalAffinity map[Season]float64     `json:"seasonal_affinity" koanf:"seasonal_affinity" validate:"omitempty,dive,keys,oneof=hot rainy cool,endkeys,gte=0,lte=1"`
}

// Validate checks required fields and value ranges. Failures wrap ErrInvalidArgument.
//
//nolint:gocritic // hugeParam: value receiver keeps candidates immutable
func (c CandidateItem) Validate() error {
	if strings.TrimSpace(c.ItemID) == "" {
		return fmt.Errorf("%w: item_id is required", ErrInvalidArgument)
	}
	if verr := validation.ValidateStruct(&c); verr != nil {
		return fmt.Errorf("%w: item %s: %s", ErrInvalidArgument, c.ItemID, verr.Error())
	}
	return nil
}

// ClusterAssignment records the cluster a user belongs to.
type ClusterAssignment struct {
	UserID    string `json:"user_id"`
	ClusterID int    `json:"cluster_id"`

	// Centroid holds the cluster's centroid category weights.
	Centroid map[Category]float64 `json:"cluster_centroid_category_weights"`
}

// Recommendation is one ranked, explained result.
type Recommendation struct {
	ItemID                 string   `json:"item_id"`
	CompositeScore         float64  `json:"composite_score"`
	ProfileComponent       float64  `json:"profile_component"`
	ContextComponent       float64  `json:"context_component"`
	CollaborativeComponent float64  `json:"collaborative_component"`
	Reasons                []string `json:"reasons"`
}

// Request is a recommendation request.
type Request struct {
	// RequestID is for tracing. Generated if empty.
	RequestID string `json:"request_id,omitempty"`

	// UserID is optional; empty means anonymous (cold start).
	UserID string `json:"user_id,omitempty"`

	Candidates []CandidateItem `json:"candidates"`
	Context    ContextSnapshot `json:"context"`

	// TopK is the number of results. Zero uses the configured default.
	TopK int `json:"top_k"`
}

// Response contains ranked recommendations and metadata.
type Response struct {
	Recommendations []Recommendation `json:"recommendations"`
	Metadata        ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID string `json:"request_id"`

	// ColdStart is true when no profile existed for the user.
	ColdStart bool `json:"cold_start"`

	// ClusterID is the user's cluster, or -1 without an assignment.
	ClusterID int `json:"cluster_id"`

	// Fallback is true when every candidate fell below the minimum composite
	// score and results were ranked by context alone.
	Fallback bool `json:"fallback"`

	CandidateCount int       `json:"candidate_count"`
	LatencyMS      int64     `json:"latency_ms"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// ProfileReader reads decayed user profiles. Implementations return an
// error wrapping ErrNotFound when no profile exists.
type ProfileReader interface {
	Read(ctx context.Context, userID string) (*UserProfile, error)
}

// AssignmentReader exposes the current cluster assignment set.
type AssignmentReader interface {
	Assignment(userID string) (ClusterAssignment, bool)
}
