// Wayfinder - Tourism Personalization and Recommendation Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfinder/internal/metrics"
	"github.com/tomtom215/wayfinder/internal/recommend"
)

const handlerName = "interaction-intake"

// Metadata keys set on published messages.
const (
	MetadataUserID    = "user_id"
	MetadataSessionID = "session_id"
)

// Ingester consumes validated interactions.
type Ingester interface {
	IngestInteraction(ctx context.Context, in *recommend.Interaction) (*recommend.UserProfile, error)
}

// Intake is the asynchronous interaction pipeline.
type Intake struct {
	cfg      Config
	pubsub   *gochannel.GoChannel
	router   *message.Router
	ingester Ingester
	logger   zerolog.Logger
	running  atomic.Bool
}

// NewIntake wires a Go channel pub/sub and a router feeding ingester.
// wmLogger receives Watermill's own logs; nil discards them.
//
//nolint:gocritic // hugeParam: cfg copied once; logger by value is acceptable for zerolog
func NewIntake(cfg Config, ingester Ingester, wmLogger watermill.LoggerAdapter, logger zerolog.Logger) (*Intake, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid intake config: %w", err)
	}
	if ingester == nil {
		return nil, errors.New("intake requires an ingester")
	}
	if wmLogger == nil {
		wmLogger = watermill.NopLogger{}
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	i := &Intake{
		cfg:      cfg,
		pubsub:   pubsub,
		router:   router,
		ingester: ingester,
		logger:   logger.With().Str("component", "intake").Logger(),
	}

	// Outermost first: drop exhausted messages, retry, then recover panics
	// so a panicking handler is retried like any other failure.
	router.AddMiddleware(i.dropExhausted)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)
	router.AddMiddleware(middleware.Recoverer)

	router.AddConsumerHandler(handlerName, cfg.Topic, pubsub, i.handle)

	return i, nil
}

// Run starts the router and blocks until ctx is canceled or Close is called.
func (i *Intake) Run(ctx context.Context) error {
	i.running.Store(true)
	defer i.running.Store(false)

	i.logger.Info().Str("topic", i.cfg.Topic).Msg("interaction intake started")
	if err := i.router.Run(ctx); err != nil {
		return fmt.Errorf("intake router: %w", err)
	}
	return nil
}

// Running is closed once the router is consuming.
func (i *Intake) Running() <-chan struct{} {
	return i.router.Running()
}

// IsRunning reports whether the router is running.
func (i *Intake) IsRunning() bool {
	return i.running.Load()
}

// Close stops the router and the pub/sub.
func (i *Intake) Close() error {
	rerr := i.router.Close()
	perr := i.pubsub.Close()
	return errors.Join(rerr, perr)
}

// Publish validates and enqueues an interaction. Invalid interactions are
// rejected here with an error wrapping recommend.ErrInvalidArgument.
func (i *Intake) Publish(ctx context.Context, in *recommend.Interaction) error {
	if in == nil {
		return fmt.Errorf("%w: nil interaction", recommend.ErrInvalidArgument)
	}
	if err := in.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataUserID, in.UserID)
	if in.SessionID != "" {
		msg.Metadata.Set(MetadataSessionID, in.SessionID)
	}
	msg.SetContext(ctx)

	return i.PublishMessage(msg)
}

// PublishMessage enqueues a raw message on the intake topic.
func (i *Intake) PublishMessage(msgs ...*message.Message) error {
	if err := i.pubsub.Publish(i.cfg.Topic, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", i.cfg.Topic, err)
	}
	return nil
}

// handle decodes and ingests one message. Poison messages are acked.
func (i *Intake) handle(msg *message.Message) error {
	var in recommend.Interaction
	if err := json.Unmarshal(msg.Payload, &in); err != nil {
		metrics.RecordIntakeMessage("rejected")
		i.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable interaction")
		return nil
	}

	if _, err := i.ingester.IngestInteraction(msg.Context(), &in); err != nil {
		if errors.Is(err, recommend.ErrInvalidArgument) {
			metrics.RecordIntakeMessage("rejected")
			i.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping invalid interaction")
			return nil
		}
		return fmt.Errorf("ingest interaction for %s: %w", in.UserID, err)
	}

	metrics.RecordIntakeMessage("ingested")
	return nil
}

// dropExhausted acks messages that still fail after all retries so the
// Go channel does not redeliver them forever.
func (i *Intake) dropExhausted(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			metrics.RecordIntakeMessage("failed")
			i.logger.Error().Err(err).
				Str("message_uuid", msg.UUID).
				Str("user_id", msg.Metadata.Get(MetadataUserID)).
				Msg("dropping interaction after retries")
			return nil, nil
		}
		return out, nil
	}
}
