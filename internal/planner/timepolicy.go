package planner

import "math"

const (
	minTimeScale = 0.85
	maxTimeScale = 1.15
	// Every started quarter hour outside the template range moves one more set.
	minutesPerSet = 15
)

// TimePolicy describes how the session length relates to the session range a template is designed for.
type TimePolicy struct {
	Scale    float64
	AboveMax bool
	BelowMin bool
	OverBy   int
	UnderBy  int
}

// NewTimePolicy returns a neutral policy when any input is non-positive or the range is inverted.
func NewTimePolicy(sessionMinutes, rangeMin, rangeMax int) TimePolicy {
	if sessionMinutes <= 0 || rangeMin <= 0 || rangeMax <= 0 || rangeMax < rangeMin {
		return TimePolicy{Scale: 1, AboveMax: false, BelowMin: false, OverBy: 0, UnderBy: 0}
	}
	mid := float64(rangeMin+rangeMax) / 2 //nolint:mnd // midpoint
	p := TimePolicy{
		Scale:    min(max(float64(sessionMinutes)/mid, minTimeScale), maxTimeScale),
		AboveMax: sessionMinutes > rangeMax,
		BelowMin: sessionMinutes < rangeMin,
		OverBy:   0,
		UnderBy:  0,
	}
	if p.AboveMax {
		p.OverBy = sessionMinutes - rangeMax
	}
	if p.BelowMin {
		p.UnderBy = rangeMin - sessionMinutes
	}
	return p
}

// AdjustSets scales base sets to the session length. The result is always within [1, base+maxExtra] where maxExtra
// is 2 for compound, main and primary slots and 1 otherwise.
func AdjustSets(base int, slotType SlotType, p TimePolicy) int {
	maxExtra := slotType.maxExtraSets()
	var sets int
	switch {
	case p.AboveMax:
		sets = base + min(maxExtra, 1+p.OverBy/minutesPerSet)
	case p.BelowMin:
		sets = max(base-(1+p.UnderBy/minutesPerSet), 1)
	default:
		sets = int(math.Round(float64(base) * p.Scale))
	}
	return max(min(sets, base+maxExtra), 1)
}
