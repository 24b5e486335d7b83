// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

// Package bus fans accepted engagement events out to in-process
// consumers over a Watermill gochannel pub/sub. Durability lives in
// the event store; the bus is best-effort delivery for live features,
// so a failed publish never rolls an accepted event back.
package bus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/townpulse/townpulse/internal/models"
)

// TopicEngagementAccepted carries every accepted engagement event.
const TopicEngagementAccepted = "engagement.accepted"

// Bus is the in-process event bus.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// New creates the bus. buffer bounds each subscriber's channel; a slow
// subscriber buffers up to that many events before publishes block.
func New(buffer int64) *Bus {
	if buffer <= 0 {
		buffer = 256
	}

	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: buffer,
		}, NewLoggerAdapter()),
	}
}

// PublishEvent marshals and publishes one accepted event.
func (b *Bus) PublishEvent(event models.EngagementEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicEngagementAccepted, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}

// Subscribe returns a channel of accepted-event messages. Consumers
// must Ack or Nack every message.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicEngagementAccepted)
}

// DecodeEvent unmarshals a bus message back into an event.
func DecodeEvent(msg *message.Message) (models.EngagementEvent, error) {
	var event models.EngagementEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return models.EngagementEvent{}, fmt.Errorf("decode event message %s: %w", msg.UUID, err)
	}
	return event, nil
}

// Close shuts the pub/sub down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
