// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfinder/internal/middleware"
	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/recommend/clustering"
)

type fakeClustering struct {
	mu       sync.Mutex
	status   clustering.Status
	triggers int
}

func (f *fakeClustering) Status() clustering.Status { return f.status }

func (f *fakeClustering) Trigger() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	return f.triggers == 1
}

type fakeContext struct {
	snap recommend.ContextSnapshot
}

func (f *fakeContext) Current(context.Context) recommend.ContextSnapshot { return f.snap }
func (f *fakeContext) BreakerState() string                              { return "closed" }

type fakeRecommender struct {
	mu   sync.Mutex
	last recommend.Request
	err  error
}

//nolint:gocritic // hugeParam: matches Recommender
func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	recs := make([]recommend.Recommendation, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		recs = append(recs, recommend.Recommendation{ItemID: c.ItemID})
	}
	return &recommend.Response{
		Recommendations: recs,
		Metadata:        recommend.ResponseMetadata{RequestID: req.RequestID, ClusterID: -1},
	}, nil
}

func (f *fakeRecommender) GetStats() recommend.Stats { return recommend.Stats{RequestCount: 7} }

func (f *fakeRecommender) lastRequest() recommend.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type fakeIntake struct {
	running bool
	err     error
	got     []*recommend.Interaction
}

func (f *fakeIntake) Publish(_ context.Context, in *recommend.Interaction) error {
	if f.err != nil {
		return f.err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	f.got = append(f.got, in)
	return nil
}

func (f *fakeIntake) IsRunning() bool { return f.running }

type fakeCatalog struct {
	items []recommend.CandidateItem
}

func (f *fakeCatalog) Items() []recommend.CandidateItem { return f.items }

func (f *fakeCatalog) Get(id string) (recommend.CandidateItem, bool) {
	for _, it := range f.items {
		if it.ItemID == id {
			return it, true
		}
	}
	return recommend.CandidateItem{}, false
}

func (f *fakeCatalog) Len() int            { return len(f.items) }
func (f *fakeCatalog) LoadedAt() time.Time { return time.Time{} }

func testCatalog() *fakeCatalog {
	return &fakeCatalog{items: []recommend.CandidateItem{
		{ItemID: "wat-pho", Category: recommend.CategoryCulture, WeatherDependency: recommend.EnvironmentEither},
		{ItemID: "night-market", Category: recommend.CategoryFood, WeatherDependency: recommend.EnvironmentOutdoor},
	}}
}

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Error    *APIError       `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	router := NewRouter(NewHandler(Dependencies{}), RouterConfig{})

	rec, env := do(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("GET /healthz = %d %q", rec.Code, env.Status)
	}
	if env.Metadata.RequestID == "" || rec.Header().Get(middleware.RequestIDHeader) != env.Metadata.RequestID {
		t.Errorf("request id not propagated: header %q, body %q", rec.Header().Get(middleware.RequestIDHeader), env.Metadata.RequestID)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		deps       Dependencies
		wantStatus int
	}{
		{name: "nothing configured", wantStatus: http.StatusOK},
		{name: "all ready", deps: Dependencies{Intake: &fakeIntake{running: true}, Catalog: testCatalog()}, wantStatus: http.StatusOK},
		{name: "intake stopped", deps: Dependencies{Intake: &fakeIntake{}, Catalog: testCatalog()}, wantStatus: http.StatusServiceUnavailable},
		{name: "empty catalog", deps: Dependencies{Intake: &fakeIntake{running: true}, Catalog: &fakeCatalog{}}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router := NewRouter(NewHandler(tt.deps), RouterConfig{})
			rec, env := do(t, router, http.MethodGet, "/readyz", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET /readyz = %d, want %d", rec.Code, tt.wantStatus)
			}
			var rs ReadinessStatus
			if err := json.Unmarshal(env.Data, &rs); err != nil {
				t.Fatal(err)
			}
			if rs.Ready != (tt.wantStatus == http.StatusOK) {
				t.Errorf("ready = %v", rs.Ready)
			}
		})
	}
}

func TestClusteringEndpoints(t *testing.T) {
	t.Parallel()

	fc := &fakeClustering{status: clustering.Status{Generation: 4, Status: clustering.StatusOK, Clusters: 3}}
	router := NewRouter(NewHandler(Dependencies{Clustering: fc}), RouterConfig{TriggerLimit: 2, TriggerWindow: time.Minute})

	rec, env := do(t, router, http.MethodGet, "/api/v1/clustering/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var st clustering.Status
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatal(err)
	}
	if st.Generation != 4 || st.Clusters != 3 || st.Status != clustering.StatusOK {
		t.Errorf("status = %+v", st)
	}

	wantQueued := []bool{true, false}
	for i, want := range wantQueued {
		rec, env := do(t, router, http.MethodPost, "/api/v1/clustering/trigger", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("trigger %d = %d", i, rec.Code)
		}
		var tr TriggerResult
		if err := json.Unmarshal(env.Data, &tr); err != nil {
			t.Fatal(err)
		}
		if tr.Queued != want {
			t.Errorf("trigger %d queued = %v, want %v", i, tr.Queued, want)
		}
	}

	rec, env = do(t, router, http.MethodPost, "/api/v1/clustering/trigger", "")
	if rec.Code != http.StatusTooManyRequests || env.Error == nil || env.Error.Code != "RATE_LIMITED" {
		t.Errorf("third trigger = %d %+v, want 429 RATE_LIMITED", rec.Code, env.Error)
	}

	rec, _ = do(t, router, http.MethodGet, "/api/v1/clustering/trigger", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET trigger = %d, want 405", rec.Code)
	}
}

func TestUnconfiguredComponents(t *testing.T) {
	t.Parallel()
	router := NewRouter(NewHandler(Dependencies{}), RouterConfig{})

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/clustering/status", ""},
		{http.MethodPost, "/api/v1/clustering/trigger", ""},
		{http.MethodGet, "/api/v1/context", ""},
		{http.MethodGet, "/api/v1/stats", ""},
		{http.MethodPost, "/api/v1/interactions", `{"user_id":"u1"}`},
		{http.MethodPost, "/api/v1/recommendations", `{}`},
	}
	for _, tt := range tests {
		rec, env := do(t, router, tt.method, tt.path, tt.body)
		if rec.Code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != codeUnavailable {
			t.Errorf("%s %s = %d %+v, want 503", tt.method, tt.path, rec.Code, env.Error)
		}
	}
}

func TestContextAndStats(t *testing.T) {
	t.Parallel()

	snap := recommend.ContextSnapshot{Weather: recommend.WeatherRainy, TimeBucket: recommend.TimeEvening}
	router := NewRouter(NewHandler(Dependencies{
		Context:     &fakeContext{snap: snap},
		Recommender: &fakeRecommender{},
	}), RouterConfig{})

	_, env := do(t, router, http.MethodGet, "/api/v1/context", "")
	var cs ContextStatus
	if err := json.Unmarshal(env.Data, &cs); err != nil {
		t.Fatal(err)
	}
	if cs.Snapshot.Weather != recommend.WeatherRainy || cs.Breaker != "closed" {
		t.Errorf("context = %+v", cs)
	}

	_, env = do(t, router, http.MethodGet, "/api/v1/stats", "")
	var stats recommend.Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.RequestCount != 7 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPublishInteraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		intakeErr  error
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "accepted", body: `{"user_id":"u1","query_text":"temples and street food"}`, wantStatus: http.StatusAccepted},
		{name: "missing user", body: `{"query_text":"museum"}`, wantStatus: http.StatusBadRequest, wantCode: codeValidation},
		{name: "feedback out of range", body: `{"user_id":"u1","feedback_satisfaction":1.5}`, wantStatus: http.StatusBadRequest, wantCode: codeValidation},
		{name: "unknown field", body: `{"user_id":"u1","mood":"happy"}`, wantStatus: http.StatusBadRequest, wantCode: codeBadJSON},
		{name: "empty body", wantStatus: http.StatusBadRequest, wantCode: codeBadJSON},
		{name: "intake down", intakeErr: errors.New("publish to interactions: closed"), body: `{"user_id":"u1"}`, wantStatus: http.StatusServiceUnavailable, wantCode: codeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			intake := &fakeIntake{running: true, err: tt.intakeErr}
			router := NewRouter(NewHandler(Dependencies{Intake: intake}), RouterConfig{})

			rec, env := do(t, router, http.MethodPost, "/api/v1/interactions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
				}
				return
			}
			if len(intake.got) != 1 || intake.got[0].UserID != "u1" {
				t.Errorf("published = %+v", intake.got)
			}
		})
	}
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	evening := recommend.ContextSnapshot{Weather: recommend.WeatherSunny, TimeBucket: recommend.TimeEvening}

	tests := []struct {
		name       string
		body       string
		noCatalog  bool
		recErr     error
		wantStatus int
		wantCode   string
		wantItems  []string
		wantCtx    recommend.Weather
	}{
		{
			name:       "whole catalog with engine context",
			body:       `{"user_id":"u1","top_k":5}`,
			wantStatus: http.StatusOK,
			wantItems:  []string{"wat-pho", "night-market"},
			wantCtx:    recommend.WeatherSunny,
		},
		{
			name:       "item ids from catalog",
			body:       `{"item_ids":["night-market"]}`,
			wantStatus: http.StatusOK,
			wantItems:  []string{"night-market"},
			wantCtx:    recommend.WeatherSunny,
		},
		{
			name:       "explicit candidates and context",
			body:       `{"candidates":[{"item_id":"spa","category":"wellness","weather_dependency":"indoor"}],"context":{"weather":"rainy","time_bucket":"night"}}`,
			wantStatus: http.StatusOK,
			wantItems:  []string{"spa"},
			wantCtx:    recommend.WeatherRainy,
		},
		{
			name:       "unknown item id",
			body:       `{"item_ids":["atlantis"]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeNotFound,
		},
		{
			name:       "item ids without catalog",
			body:       `{"item_ids":["wat-pho"]}`,
			noCatalog:  true,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeNotFound,
		},
		{
			name:       "negative top_k",
			body:       `{"top_k":-1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeValidation,
		},
		{
			name:       "engine rejects input",
			body:       `{}`,
			recErr:     fmt.Errorf("%w: too many candidates", recommend.ErrInvalidArgument),
			wantStatus: http.StatusBadRequest,
			wantCode:   codeValidation,
		},
		{
			name:       "engine failure",
			body:       `{}`,
			recErr:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   codeInternal,
		},
		{
			name:       "malformed json",
			body:       `{"top_k":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeBadJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &fakeRecommender{err: tt.recErr}
			deps := Dependencies{Recommender: rec, Context: &fakeContext{snap: evening}}
			if !tt.noCatalog {
				deps.Catalog = testCatalog()
			}
			router := NewRouter(NewHandler(deps), RouterConfig{})

			res, env := do(t, router, http.MethodPost, "/api/v1/recommendations", tt.body)
			if res.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", res.Code, tt.wantStatus, res.Body.String())
			}
			if tt.wantCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
				}
				return
			}

			var resp recommend.Response
			if err := json.Unmarshal(env.Data, &resp); err != nil {
				t.Fatal(err)
			}
			if len(resp.Recommendations) != len(tt.wantItems) {
				t.Fatalf("got %d recommendations, want %d", len(resp.Recommendations), len(tt.wantItems))
			}
			for i, id := range tt.wantItems {
				if resp.Recommendations[i].ItemID != id {
					t.Errorf("rec[%d] = %s, want %s", i, resp.Recommendations[i].ItemID, id)
				}
			}

			last := rec.lastRequest()
			if last.Context.Weather != tt.wantCtx {
				t.Errorf("context weather = %s, want %s", last.Context.Weather, tt.wantCtx)
			}
			if last.RequestID == "" || last.RequestID != env.Metadata.RequestID {
				t.Errorf("request id %q not passed through (envelope %q)", last.RequestID, env.Metadata.RequestID)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	router := NewRouter(NewHandler(Dependencies{}), RouterConfig{})
	rec, env := do(t, router, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != codeNotFound {
		t.Errorf("GET /api/v1/nope = %d %+v", rec.Code, env.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	router := NewRouter(NewHandler(Dependencies{}), RouterConfig{})
	do(t, router, http.MethodGet, "/healthz", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Errorf("GET /metrics = %d, body missing api_requests_total", rec.Code)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
