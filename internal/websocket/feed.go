// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package websocket

import (
	"context"

	"github.com/townpulse/townpulse/internal/bus"
	"github.com/townpulse/townpulse/internal/logging"
)

// Feed bridges the in-process event bus to the websocket hub. It subscribes
// to accepted engagement events and fans each one out as a live message.
type Feed struct {
	bus *bus.Bus
	hub *Hub
}

// NewFeed creates a Feed connecting the given bus to the given hub.
func NewFeed(eventBus *bus.Bus, hub *Hub) *Feed {
	return &Feed{bus: eventBus, hub: hub}
}

// RunWithContext consumes accepted events until the context is canceled.
// Designed for use with suture supervision; a decode failure is logged and
// the offending message dropped rather than crashing the feed.
func (f *Feed) RunWithContext(ctx context.Context) error {
	messages, err := f.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	log := logging.WithComponent("websocket-feed")
	log.Info().Msg("live engagement feed started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("live engagement feed stopped")
			return ctx.Err()

		case msg, ok := <-messages:
			if !ok {
				log.Info().Msg("event bus closed, stopping live feed")
				return nil
			}

			event, err := bus.DecodeEvent(msg)
			if err != nil {
				log.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping undecodable event")
				msg.Ack()
				continue
			}

			f.hub.BroadcastEngagement(event)
			msg.Ack()
		}
	}
}
