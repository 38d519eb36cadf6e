// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package classifier

import "github.com/tomtom215/wayfinder/internal/recommend"

// DefaultLexicon returns the built-in trigger terms per category.
// Terms are matched case-insensitively on word boundaries.
func DefaultLexicon() map[recommend.Category][]string {
	return map[recommend.Category][]string{
		recommend.CategoryNature: {
			"nature", "park", "national park", "waterfall", "forest", "jungle",
			"mountain", "lake", "river", "garden", "wildlife", "scenery", "viewpoint",
		},
		recommend.CategoryCity: {
			"city", "downtown", "skyline", "rooftop", "landmark", "tower",
			"sightseeing", "neighborhood", "square", "architecture",
		},
		recommend.CategoryCulture: {
			"culture", "cultural", "museum", "gallery", "art", "temple", "shrine",
			"festival", "theatre", "theater", "craft", "performance", "tradition",
		},
		recommend.CategoryAdventure: {
			"adventure", "hike", "hiking", "trek", "trekking", "climbing", "zipline",
			"rafting", "kayak", "kayaking", "diving", "snorkeling", "surfing", "extreme",
		},
		recommend.CategoryFood: {
			"food", "eat", "restaurant", "street food", "cafe", "coffee", "cooking class",
			"dinner", "lunch", "breakfast", "cuisine", "noodles", "dessert", "seafood",
		},
		recommend.CategoryHistory: {
			"history", "historic", "historical", "ruins", "ancient", "heritage",
			"palace", "fort", "monument", "old town", "war memorial",
		},
		recommend.CategoryShopping: {
			"shopping", "shop", "mall", "market", "boutique", "souvenir",
			"outlet", "bazaar", "department store",
		},
		recommend.CategoryNightlife: {
			"nightlife", "bar", "pub", "club", "nightclub", "cocktail",
			"live music", "night market", "party", "karaoke",
		},
		recommend.CategoryWellness: {
			"wellness", "spa", "massage", "yoga", "meditation", "retreat",
			"hot spring", "sauna", "relax", "relaxing",
		},
		recommend.CategoryBeach: {
			"beach", "island", "sea", "ocean", "coast", "bay", "sand", "sunset cruise",
		},
	}
}

// DefaultSettingLexicon returns the built-in indoor and outdoor setting terms.
func DefaultSettingLexicon() SettingLexicon {
	return SettingLexicon{
		Indoor: []string{
			"indoor", "indoors", "museum", "gallery", "mall", "spa", "cinema",
			"aquarium", "theatre", "theater", "cafe", "restaurant", "class",
		},
		Outdoor: []string{
			"outdoor", "outdoors", "hike", "hiking", "beach", "park", "trek",
			"waterfall", "garden", "viewpoint", "kayak", "island", "street food",
		},
	}
}

// categorySetting is the setting assumed for a category when the query
// carries no setting terms.
var categorySetting = map[recommend.Category]recommend.Environment{
	recommend.CategoryNature:    recommend.EnvironmentOutdoor,
	recommend.CategoryAdventure: recommend.EnvironmentOutdoor,
	recommend.CategoryBeach:     recommend.EnvironmentOutdoor,
	recommend.CategoryCulture:   recommend.EnvironmentIndoor,
	recommend.CategoryShopping:  recommend.EnvironmentIndoor,
	recommend.CategoryWellness:  recommend.EnvironmentIndoor,
}

// DefaultSetting returns the setting assumed for a category, or either.
func DefaultSetting(c recommend.Category) recommend.Environment {
	if env, ok := categorySetting[c]; ok {
		return env
	}
	return recommend.EnvironmentEither
}
