// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package trending

import (
	"math"

	"github.com/townpulse/townpulse/internal/models"
)

// DefaultDeadBand is the percentage change treated as noise. Movement
// within +/- this band classifies as steady.
const DefaultDeadBand = 5.0

// Calculator classifies period-over-period score movement.
type Calculator struct {
	// DeadBand is the steady threshold in percent; <=0 uses the default.
	DeadBand float64
}

// NewCalculator returns a calculator with the given dead band.
func NewCalculator(deadBand float64) Calculator {
	if deadBand <= 0 {
		deadBand = DefaultDeadBand
	}
	return Calculator{DeadBand: deadBand}
}

// Classify compares the current score against the prior score and
// returns the direction plus the percentage change rounded to one
// decimal place.
//
// A zero prior leaves the percentage undefined (nil): a positive
// current is "new", two zero scores are steady. Otherwise the change
// is (current-prior)/prior*100, with movement inside the dead band
// reported as steady.
func (c Calculator) Classify(current, prior int) (models.TrendDirection, *float64) {
	if prior == 0 {
		if current > 0 {
			return models.TrendNew, nil
		}
		return models.TrendSteady, nil
	}

	changePct := roundToOneDecimal(float64(current-prior) / float64(prior) * 100.0)

	switch {
	case changePct > c.DeadBand:
		return models.TrendUp, &changePct
	case changePct < -c.DeadBand:
		return models.TrendDown, &changePct
	default:
		return models.TrendSteady, &changePct
	}
}

// roundToOneDecimal rounds half away from zero to one decimal place.
func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
