// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/metrics"
	"github.com/tomtom215/animebell/internal/models"
)

// Sink receives decoded events. *websocket.Hub implements it.
type Sink interface {
	Deliver(recipient string, ev models.Event) error
}

// errSubscriptionClosed makes the supervisor restart the relay when the
// broker drops the subscription underneath it.
var errSubscriptionClosed = errors.New("event bus subscription closed")

// Relay consumes the topic and hands every event to the local Sink.
// It implements suture.Service.
type Relay struct {
	subscriber message.Subscriber
	topic      string
	sink       Sink
}

func NewRelay(sub message.Subscriber, topic string, sink Sink) *Relay {
	return &Relay{subscriber: sub, topic: topic, sink: sink}
}

// Serve runs until ctx is done.
func (r *Relay) Serve(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.topic, err)
	}
	logging.Info().Str("topic", r.topic).Msg("event bus relay started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errSubscriptionClosed
			}
			r.handle(msg)
		}
	}
}

// handle always acks. Redelivering a push that failed locally would only
// reorder it behind newer events; clients recover through their snapshot.
func (r *Relay) handle(msg *message.Message) {
	defer msg.Ack()

	recipient, ev, err := decodeMessage(msg.Payload)
	if err != nil {
		metrics.BusMalformed.Inc()
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Str("topic", r.topic).
			Msg("dropping malformed bus message")
		return
	}

	metrics.BusConsumed.WithLabelValues(string(ev.Type())).Inc()
	if err := r.sink.Deliver(recipient, ev); err != nil {
		logging.Warn().
			Err(err).
			Str("event", string(ev.Type())).
			Str("recipient_id", recipient).
			Msg("local delivery failed")
	}
}

func (r *Relay) String() string {
	return "eventbus-relay"
}
