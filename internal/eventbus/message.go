// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package eventbus

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/animebell/internal/models"
)

// Metadata keys set on every bus message.
const (
	MetadataEvent     = "event"
	MetadataRecipient = "recipient"
)

// envelope is the bus payload: the socket frame plus its routing key.
//
//	{"recipient":"42","event":"unreadCountUpdate","data":{"count":3}}
type envelope struct {
	Recipient string           `json:"recipient"`
	Event     models.EventType `json:"event"`
	Data      json.RawMessage  `json:"data"`
}

func encodeMessage(recipient string, ev models.Event) (*message.Message, error) {
	if recipient == "" {
		return nil, fmt.Errorf("%w: empty recipient", models.ErrMalformedEvent)
	}
	raw, err := models.EncodeEvent(ev)
	if err != nil {
		return nil, err
	}
	var frame models.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("re-read frame: %w", err)
	}

	payload, err := json.Marshal(envelope{Recipient: recipient, Event: frame.Event, Data: frame.Data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set(MetadataEvent, string(ev.Type()))
	msg.Metadata.Set(MetadataRecipient, recipient)
	return msg, nil
}

func decodeMessage(payload []byte) (string, models.Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", models.ErrMalformedEvent, err)
	}
	if env.Recipient == "" {
		return "", nil, fmt.Errorf("%w: empty recipient", models.ErrMalformedEvent)
	}
	ev, err := models.DecodePayload(env.Event, env.Data)
	if err != nil {
		return "", nil, err
	}
	return env.Recipient, ev, nil
}
