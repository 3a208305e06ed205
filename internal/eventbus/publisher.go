// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/animebell/internal/metrics"
	"github.com/tomtom215/animebell/internal/models"
)

var ErrPublisherClosed = errors.New("event bus publisher is closed")

// Publisher puts gateway events on the bus. It satisfies the notification
// service's Emitter, so the service never knows whether delivery is local or
// spread across nodes.
type Publisher struct {
	publisher message.Publisher
	topic     string
	breaker   *gobreaker.CircuitBreaker[any]

	mu     sync.RWMutex
	closed bool
}

// NewPublisher publishes to topic through pub. breaker may be nil.
func NewPublisher(pub message.Publisher, topic string, breaker *gobreaker.CircuitBreaker[any]) *Publisher {
	return &Publisher{publisher: pub, topic: topic, breaker: breaker}
}

// Publish sends one event for recipient.
func (p *Publisher) Publish(ctx context.Context, recipient string, ev models.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	msg, err := encodeMessage(recipient, ev)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	if p.breaker != nil {
		_, err = p.breaker.Execute(func() (any, error) {
			return nil, p.publisher.Publish(p.topic, msg)
		})
	} else {
		err = p.publisher.Publish(p.topic, msg)
	}
	if err != nil {
		metrics.BusPublishErrors.Inc()
		return fmt.Errorf("publish %s: %w", ev.Type(), err)
	}
	metrics.BusPublished.WithLabelValues(string(ev.Type())).Inc()
	return nil
}

func (p *Publisher) Notify(ctx context.Context, recipient string, n *models.Notification) error {
	return p.Publish(ctx, recipient, models.NewNotificationEvent{Notification: n})
}

func (p *Publisher) UnreadCountChanged(ctx context.Context, recipient string, count int) error {
	return p.Publish(ctx, recipient, models.UnreadCountEvent{Count: count})
}

func (p *Publisher) NotificationRemoved(ctx context.Context, recipient, notificationID string) error {
	return p.Publish(ctx, recipient, models.NotificationDeletedEvent{NotificationID: notificationID})
}

// Close marks the publisher closed. The underlying watermill publisher is
// owned by the Bus.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Publisher) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
