// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

// Package eventbus carries gateway events between nodes with Watermill.
//
// Every node publishes the events its notification service emits and runs a
// Relay that hands every event on the topic to its local hub. Subscriptions
// deliberately use no queue group: each node must see each event, because the
// recipient's connections may live on any of them.
//
// Backends:
//
//   - memory: watermill GoChannel, single process. Useful for tests and for
//     exercising the bus path without a broker.
//   - nats: watermill-nats over core NATS (JetStream disabled). Optionally an
//     embedded nats-server is started in-process.
package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/animebell/internal/breaker"
	"github.com/tomtom215/animebell/internal/config"
	"github.com/tomtom215/animebell/internal/logging"
)

// Backend names accepted by events.backend. "none" means no bus at all:
// the service writes straight into the hub.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// Bus owns the watermill publisher and subscriber for one backend.
type Bus struct {
	backend    string
	topic      string
	publisher  message.Publisher
	subscriber message.Subscriber
	embedded   *EmbeddedServer
	emitter    *Publisher
}

// Open connects the configured backend. It must not be called with
// BackendNone.
func Open(cfg *config.EventsConfig) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLoggerFor("eventbus"))

	b := &Bus{backend: cfg.Backend, topic: cfg.Topic}
	switch cfg.Backend {
	case BackendMemory:
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, logger)
		b.publisher = ch
		b.subscriber = ch

	case BackendNATS:
		if err := b.openNATS(cfg, logger); err != nil {
			b.Close() //nolint:errcheck
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported event bus backend %q", cfg.Backend)
	}

	b.emitter = NewPublisher(b.publisher, cfg.Topic, breaker.New(breaker.DefaultConfig("eventbus-publish"), nil))
	logging.Info().
		Str("backend", cfg.Backend).
		Str("topic", cfg.Topic).
		Msg("event bus ready")
	return b, nil
}

func (b *Bus) openNATS(cfg *config.EventsConfig, logger watermill.LoggerAdapter) error {
	url := cfg.NATSURL
	if cfg.Embedded {
		srv, err := StartEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort)
		if err != nil {
			return err
		}
		b.embedded = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("embedded NATS server started")
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("animebell"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	marshaler := &wmNats.NATSMarshaler{}
	jetStream := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   marshaler,
		JetStream:   jetStream,
	}, logger)
	if err != nil {
		return fmt.Errorf("create NATS publisher: %w", err)
	}
	b.publisher = pub

	// No queue group: every node gets every event.
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      marshaler,
		JetStream:        jetStream,
	}, logger)
	if err != nil {
		return fmt.Errorf("create NATS subscriber: %w", err)
	}
	b.subscriber = sub
	return nil
}

// Publisher is the Emitter that publishes onto the bus.
func (b *Bus) Publisher() *Publisher {
	return b.emitter
}

// NewRelay builds the consumer that feeds sink.
func (b *Bus) NewRelay(sink Sink) *Relay {
	return NewRelay(b.subscriber, b.topic, sink)
}

// Backend returns the configured backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Ping is the readiness check for the bus.
func (b *Bus) Ping(context.Context) error {
	if b.emitter == nil || b.emitter.Closed() {
		return ErrPublisherClosed
	}
	if b.embedded != nil && !b.embedded.IsRunning() {
		return errors.New("embedded NATS server is not running")
	}
	return nil
}

// Close shuts the publisher, the subscriber and any embedded server.
func (b *Bus) Close() error {
	var errs []error
	if b.emitter != nil {
		_ = b.emitter.Close()
	}
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	// GoChannel is both publisher and subscriber; closing twice is a no-op.
	if b.subscriber != nil {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
	}
	return errors.Join(errs...)
}
