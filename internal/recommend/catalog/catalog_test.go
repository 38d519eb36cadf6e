// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/recommend"
)

const yamlCatalog = `
items:
  - item_id: wat-pho
    category: culture
    weather_dependency: indoor
    time_affinity:
      morning: 0.9
      afternoon: 0.7
    seasonal_affinity:
      hot: 0.8
      rainy: 0.9
      cool: 0.8
  - item_id: railay-beach
    category: Beach
    weather_dependency: outdoor
    time_affinity:
      afternoon: 1
    seasonal_affinity:
      cool: 1
  - item_id: night-market
    category: street-art
    weather_dependency: either
`

const jsonCatalog = `{
  "items": [
    {"item_id": "chatuchak", "category": "shopping", "weather_dependency": "either",
     "time_affinity": {"morning": 0.6, "afternoon": 0.8}},
    {"item_id": "doi-suthep", "category": "nature", "weather_dependency": "outdoor",
     "seasonal_affinity": {"cool": 0.9}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	c, err := Load(writeFile(t, "catalog.yaml", yamlCatalog), zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	item, ok := c.Get("wat-pho")
	if !ok {
		t.Fatal("Get(wat-pho) not found")
	}
	if item.Category != recommend.CategoryCulture || item.WeatherDependency != recommend.EnvironmentIndoor {
		t.Errorf("wat-pho = %+v", item)
	}
	if got := item.TimeAffinity[recommend.TimeMorning]; got != 0.9 {
		t.Errorf("morning affinity = %f, want 0.9", got)
	}
	if got := item.SeasonalAffinity[recommend.SeasonRainy]; got != 0.9 {
		t.Errorf("rainy affinity = %f, want 0.9", got)
	}

	// Integer affinity and mixed-case category.
	beach, _ := c.Get("railay-beach")
	if beach.Category != recommend.CategoryBeach {
		t.Errorf("railay-beach category = %s, want beach", beach.Category)
	}
	if got := beach.TimeAffinity[recommend.TimeAfternoon]; got != 1 {
		t.Errorf("afternoon affinity = %f, want 1", got)
	}

	if cat, ok := c.CategoryOf("night-market"); !ok || cat != recommend.CategoryUnknown {
		t.Errorf("CategoryOf(night-market) = %s, %v, want unknown, true", cat, ok)
	}
	if _, ok := c.CategoryOf("missing"); ok {
		t.Error("CategoryOf(missing) ok = true, want false")
	}

	ids := make([]string, 0, 3)
	for _, it := range c.Items() {
		ids = append(ids, it.ItemID)
	}
	if want := []string{"wat-pho", "railay-beach", "night-market"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Items() order = %v, want %v", ids, want)
	}
	if want := []string{"night-market", "railay-beach", "wat-pho"}; !reflect.DeepEqual(c.IDs(), want) {
		t.Errorf("IDs() = %v, want %v", c.IDs(), want)
	}
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	c, err := Load(writeFile(t, "catalog.json", jsonCatalog), zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	item, ok := c.Get("doi-suthep")
	if !ok {
		t.Fatal("Get(doi-suthep) not found")
	}
	if got := item.SeasonalAffinity[recommend.SeasonCool]; got != 0.9 {
		t.Errorf("cool affinity = %f, want 0.9", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		file        string
		content     string
		wantInvalid bool
	}{
		{
			name:    "unsupported extension",
			file:    "catalog.toml",
			content: "items = []",
		},
		{
			name:    "malformed yaml",
			file:    "catalog.yaml",
			content: "items: [\n  - item_id: x\n",
		},
		{
			name: "missing item id",
			file: "catalog.yaml",
			content: `
items:
  - category: food
    weather_dependency: indoor
`,
			wantInvalid: true,
		},
		{
			name: "bad dependency",
			file: "catalog.yaml",
			content: `
items:
  - item_id: x
    category: food
    weather_dependency: underwater
`,
			wantInvalid: true,
		},
		{
			name: "affinity above one",
			file: "catalog.yaml",
			content: `
items:
  - item_id: x
    category: food
    weather_dependency: indoor
    time_affinity:
      evening: 1.5
`,
			wantInvalid: true,
		},
		{
			name: "unknown season key",
			file: "catalog.yaml",
			content: `
items:
  - item_id: x
    category: food
    weather_dependency: indoor
    seasonal_affinity:
      monsoon: 0.5
`,
			wantInvalid: true,
		},
		{
			name: "duplicate id",
			file: "catalog.yaml",
			content: `
items:
  - item_id: x
    category: food
    weather_dependency: indoor
  - item_id: x
    category: city
    weather_dependency: outdoor
`,
			wantInvalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeFile(t, tt.file, tt.content), zerolog.Nop())
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if tt.wantInvalid && !errors.Is(err, recommend.ErrInvalidArgument) {
				t.Errorf("Load() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), zerolog.Nop()); err == nil {
		t.Error("Load() error = nil, want error")
	}
}

func TestReload_SwapsTable(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "catalog.yaml", yamlCatalog)
	c, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before := c.Items()

	updated := `
items:
  - item_id: lumpini-park
    category: nature
    weather_dependency: outdoor
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() after reload = %d, want 1", c.Len())
	}
	if _, ok := c.Get("wat-pho"); ok {
		t.Error("old item still present after reload")
	}
	if len(before) != 3 {
		t.Errorf("previously returned slice changed: len = %d", len(before))
	}
}

func TestReload_KeepsTableOnError(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "catalog.yaml", yamlCatalog)
	c, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("items:\n  - item_id: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(); err == nil {
		t.Fatal("Reload() error = nil, want error")
	}
	if c.Len() != 3 {
		t.Errorf("Len() after failed reload = %d, want 3", c.Len())
	}
}

func TestNew_InMemory(t *testing.T) {
	t.Parallel()

	c, err := New([]recommend.CandidateItem{
		{ItemID: "a", Category: "food", WeatherDependency: recommend.EnvironmentEither},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Reload(); err != nil {
		t.Errorf("Reload() on in-memory catalog error = %v", err)
	}
	if err := c.Watch(); err == nil {
		t.Error("Watch() on in-memory catalog error = nil, want error")
	}
	if cat, ok := c.CategoryOf("a"); !ok || cat != recommend.CategoryFood {
		t.Errorf("CategoryOf(a) = %s, %v", cat, ok)
	}

	if _, err := New([]recommend.CandidateItem{{ItemID: "b"}}, zerolog.Nop()); !errors.Is(err, recommend.ErrInvalidArgument) {
		t.Errorf("New() invalid item error = %v, want ErrInvalidArgument", err)
	}
}

func TestWatchAndClose(t *testing.T) {
	t.Parallel()

	c, err := Load(writeFile(t, "catalog.yaml", yamlCatalog), zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := c.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := c.Watch(); err != nil {
		t.Errorf("second Watch() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
