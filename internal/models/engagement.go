// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the kind of community entity an engagement
// event is attached to.
type EntityType string

// Entity types. The set is closed; anything else is rejected at
// validation time.
const (
	EntityShop     EntityType = "shop"
	EntityCharity  EntityType = "charity"
	EntityQuestion EntityType = "question"
	EntityInfoPage EntityType = "info_page"
	EntityPhoto    EntityType = "photo"
	EntityEvent    EntityType = "event"
)

// Action identifies what a user did to an entity.
type Action string

// Actions. The set is closed; every action is legal against every
// entity type.
const (
	ActionView    Action = "view"
	ActionLike    Action = "like"
	ActionSave    Action = "save"
	ActionShare   Action = "share"
	ActionComment Action = "comment"
	ActionAnswer  Action = "answer"
	ActionReview  Action = "review"
	ActionVote    Action = "vote"
	ActionRSVP    Action = "rsvp"
)

// entityTypes is the membership set for EntityType.
var entityTypes = map[EntityType]struct{}{
	EntityShop:     {},
	EntityCharity:  {},
	EntityQuestion: {},
	EntityInfoPage: {},
	EntityPhoto:    {},
	EntityEvent:    {},
}

// actions is the membership set for Action.
var actions = map[Action]struct{}{
	ActionView:    {},
	ActionLike:    {},
	ActionSave:    {},
	ActionShare:   {},
	ActionComment: {},
	ActionAnswer:  {},
	ActionReview:  {},
	ActionVote:    {},
	ActionRSVP:    {},
}

// Valid reports whether t is a member of the closed entity type set.
func (t EntityType) Valid() bool {
	_, ok := entityTypes[t]
	return ok
}

// Valid reports whether a is a member of the closed action set.
func (a Action) Valid() bool {
	_, ok := actions[a]
	return ok
}

// EntityTypes returns all valid entity types in declaration order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityShop, EntityCharity, EntityQuestion,
		EntityInfoPage, EntityPhoto, EntityEvent,
	}
}

// Actions returns all valid actions in declaration order.
func Actions() []Action {
	return []Action{
		ActionView, ActionLike, ActionSave, ActionShare,
		ActionComment, ActionAnswer, ActionReview, ActionVote, ActionRSVP,
	}
}

// EngagementEvent is one recorded interaction between a user and an
// entity. Points are stamped when the event is accepted and never
// recomputed afterwards, so weight changes only affect new events.
// SessionID lets anonymous bursts be deduplicated downstream; Metadata
// is an opaque bag carried through unchanged. The engine interprets
// neither.
type EngagementEvent struct {
	ID         string                 `json:"id"`
	EntityType EntityType             `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     Action                 `json:"action"`
	UserID     string                 `json:"user_id,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Points     int                    `json:"points"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewEngagementEvent builds an event with a fresh ID and a UTC
// occurred-at timestamp. Points are left for the caller to stamp.
func NewEngagementEvent(entityType EntityType, entityID string, action Action, userID string) EngagementEvent {
	return EngagementEvent{
		ID:         uuid.New().String(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}
