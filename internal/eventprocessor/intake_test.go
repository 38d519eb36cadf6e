// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/recommend"
	"github.com/tomtom215/wayfinder/internal/recommend/classifier"
	"github.com/tomtom215/wayfinder/internal/recommend/profile"
)

const waitTimeout = 5 * time.Second

// mockIngester validates like the profile store and records ingested
// interactions. fail decides the error for each call (1-based); nil means
// success.
type mockIngester struct {
	mu       sync.Mutex
	calls    atomic.Int32
	ingested []recommend.Interaction
	done     chan string
	fail     func(call int32, in *recommend.Interaction) error
}

func newMockIngester() *mockIngester {
	return &mockIngester{done: make(chan string, 16)}
}

func (m *mockIngester) IngestInteraction(ctx context.Context, in *recommend.Interaction) (*recommend.UserProfile, error) {
	call := m.calls.Add(1)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if m.fail != nil {
		if err := m.fail(call, in); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	m.ingested = append(m.ingested, *in)
	m.mu.Unlock()
	m.done <- in.UserID
	return &recommend.UserProfile{UserID: in.UserID}, nil
}

func (m *mockIngester) wait(t *testing.T, wantUser string) {
	t.Helper()
	select {
	case got := <-m.done:
		if got != wantUser {
			t.Fatalf("ingested user = %s, want %s", got, wantUser)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s to be ingested", wantUser)
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	cfg.CloseTimeout = time.Second
	return cfg
}

func startIntake(t *testing.T, cfg Config, ingester Ingester) *Intake {
	t.Helper()

	intake, err := NewIntake(cfg, ingester, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewIntake() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- intake.Run(ctx) }()

	select {
	case <-intake.Running():
	case <-time.After(waitTimeout):
		t.Fatal("intake router did not start")
	}

	t.Cleanup(func() {
		cancel()
		_ = intake.Close()
		<-runErr
	})
	return intake
}

func interaction(user, query string) *recommend.Interaction {
	return &recommend.Interaction{
		UserID:    user,
		SessionID: "s-1",
		QueryText: query,
		Timestamp: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestIntake_IngestsPublishedInteraction(t *testing.T) {
	t.Parallel()

	ing := newMockIngester()
	intake := startIntake(t, testConfig(), ing)

	if !intake.IsRunning() {
		t.Error("IsRunning() = false after start")
	}
	if err := intake.Publish(context.Background(), interaction("alice", "temple tour")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	ing.wait(t, "alice")

	ing.mu.Lock()
	defer ing.mu.Unlock()
	if len(ing.ingested) != 1 || ing.ingested[0].QueryText != "temple tour" || ing.ingested[0].SessionID != "s-1" {
		t.Errorf("ingested = %+v", ing.ingested)
	}
	if !ing.ingested[0].Timestamp.Equal(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", ing.ingested[0].Timestamp)
	}
}

func TestIntake_PublishRejectsInvalid(t *testing.T) {
	t.Parallel()

	intake, err := NewIntake(testConfig(), newMockIngester(), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewIntake() error = %v", err)
	}
	defer func() { _ = intake.Close() }()

	bad := -0.5
	tests := []struct {
		name string
		in   *recommend.Interaction
	}{
		{name: "nil", in: nil},
		{name: "empty user", in: &recommend.Interaction{QueryText: "beach"}},
		{name: "feedback out of range", in: &recommend.Interaction{UserID: "u", FeedbackSatisfaction: &bad}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := intake.Publish(context.Background(), tt.in); !errors.Is(err, recommend.ErrInvalidArgument) {
				t.Errorf("Publish() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestIntake_PoisonMessagesAreAcked(t *testing.T) {
	t.Parallel()

	ing := newMockIngester()
	intake := startIntake(t, testConfig(), ing)

	garbage := message.NewMessage(watermill.NewUUID(), []byte(`{not json`))
	if err := intake.PublishMessage(garbage); err != nil {
		t.Fatalf("PublishMessage() error = %v", err)
	}
	// Decodes but fails validation inside the store.
	missingUser := message.NewMessage(watermill.NewUUID(), []byte(`{"query_text":"spa"}`))
	if err := intake.PublishMessage(missingUser); err != nil {
		t.Fatalf("PublishMessage() error = %v", err)
	}

	if err := intake.Publish(context.Background(), interaction("bob", "beach")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	ing.wait(t, "bob")

	if got := ing.calls.Load(); got != 2 {
		t.Errorf("ingest calls = %d, want 2 (missing user once, bob once)", got)
	}
}

func TestIntake_InvalidArgumentNotRetried(t *testing.T) {
	t.Parallel()

	ing := newMockIngester()
	ing.fail = func(call int32, in *recommend.Interaction) error {
		if in.UserID == "carol" {
			return recommend.ErrInvalidArgument
		}
		return nil
	}
	intake := startIntake(t, testConfig(), ing)

	if err := intake.Publish(context.Background(), interaction("carol", "museum")); err != nil {
		t.Fatal(err)
	}
	if err := intake.Publish(context.Background(), interaction("dave", "museum")); err != nil {
		t.Fatal(err)
	}
	ing.wait(t, "dave")

	if got := ing.calls.Load(); got != 2 {
		t.Errorf("ingest calls = %d, want 2 (no retry for invalid input)", got)
	}
}

func TestIntake_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	ing := newMockIngester()
	ing.fail = func(call int32, _ *recommend.Interaction) error {
		if call <= 2 {
			return errors.New("backend busy")
		}
		return nil
	}
	intake := startIntake(t, testConfig(), ing)

	if err := intake.Publish(context.Background(), interaction("erin", "hiking")); err != nil {
		t.Fatal(err)
	}
	ing.wait(t, "erin")

	if got := ing.calls.Load(); got != 3 {
		t.Errorf("ingest calls = %d, want 3", got)
	}
}

func TestIntake_RecoversPanics(t *testing.T) {
	t.Parallel()

	ing := newMockIngester()
	ing.fail = func(call int32, _ *recommend.Interaction) error {
		if call == 1 {
			panic("boom")
		}
		return nil
	}
	intake := startIntake(t, testConfig(), ing)

	if err := intake.Publish(context.Background(), interaction("frank", "market")); err != nil {
		t.Fatal(err)
	}
	ing.wait(t, "frank")
}

func TestIntake_DropsAfterRetriesExhausted(t *testing.T) {
	t.Parallel()

	ing := newMockIngester()
	ing.fail = func(_ int32, in *recommend.Interaction) error {
		if in.UserID == "gina" {
			return errors.New("disk full")
		}
		return nil
	}
	cfg := testConfig()
	intake := startIntake(t, cfg, ing)

	if err := intake.Publish(context.Background(), interaction("gina", "spa")); err != nil {
		t.Fatal(err)
	}
	if err := intake.Publish(context.Background(), interaction("hank", "spa")); err != nil {
		t.Fatal(err)
	}
	ing.wait(t, "hank")

	if got, want := ing.calls.Load(), int32(cfg.RetryMaxRetries+2); got != want {
		t.Errorf("ingest calls = %d, want %d (%d attempts for gina, 1 for hank)", got, want, cfg.RetryMaxRetries+1)
	}
}

func TestIntake_EndToEndWithProfileStore(t *testing.T) {
	t.Parallel()

	cls, err := classifier.New(classifier.DefaultConfig(), nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	store, err := profile.NewStore(profile.DefaultConfig(), nil, cls, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	intake := startIntake(t, testConfig(), store)
	if err := intake.Publish(context.Background(), interaction("ivy", "museum and street food")); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(waitTimeout)
	for {
		p, err := store.Read(context.Background(), "ivy")
		if err == nil {
			if p.Weight(recommend.CategoryCulture) == 0 || p.Weight(recommend.CategoryFood) == 0 {
				t.Errorf("weights = %v, want culture and food", p.CategoryWeights)
			}
			return
		}
		if !errors.Is(err, recommend.ErrNotFound) {
			t.Fatalf("Read() error = %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("profile never appeared")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewIntake_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		modify   func(*Config)
		ingester Ingester
	}{
		{name: "nil ingester", modify: func(*Config) {}},
		{name: "empty topic", modify: func(c *Config) { c.Topic = "" }, ingester: newMockIngester()},
		{name: "negative buffer", modify: func(c *Config) { c.BufferSize = -1 }, ingester: newMockIngester()},
		{name: "zero close timeout", modify: func(c *Config) { c.CloseTimeout = 0 }, ingester: newMockIngester()},
		{name: "negative retries", modify: func(c *Config) { c.RetryMaxRetries = -1 }, ingester: newMockIngester()},
		{name: "multiplier below one", modify: func(c *Config) { c.RetryMultiplier = 0.5 }, ingester: newMockIngester()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if _, err := NewIntake(cfg, tt.ingester, nil, zerolog.Nop()); err == nil {
				t.Error("NewIntake() error = nil, want error")
			}
		})
	}
}
