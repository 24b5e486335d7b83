// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package validation

import (
	"github.com/townpulse/townpulse/internal/models"
)

// ValidateEvent checks the domain invariants of an engagement event:
// entity type and action must belong to their closed sets and the
// entity id must be non-empty. Every type/action combination is legal,
// so there is no cross-field rule. Pure function, never panics.
func ValidateEvent(entityType models.EntityType, entityID string, action models.Action) *RequestValidationError {
	var errs []ValidationError

	if !entityType.Valid() {
		errs = append(errs, ValidationError{
			field:   "entity_type",
			tag:     "entity_type",
			value:   string(entityType),
			message: "entity_type must be a known entity type",
		})
	}

	if entityID == "" {
		errs = append(errs, ValidationError{
			field:   "entity_id",
			tag:     "required",
			message: "entity_id is required",
		})
	}

	if !action.Valid() {
		errs = append(errs, ValidationError{
			field:   "action",
			tag:     "action",
			value:   string(action),
			message: "action must be a known action",
		})
	}

	if len(errs) == 0 {
		return nil
	}
	return &RequestValidationError{errors: errs}
}
