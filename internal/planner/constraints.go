package planner

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/ptr"
)

// GenerationContext is the normalised input of one generation or recalibration. Id sets are sorted.
type GenerationContext struct {
	UserID                int
	Goal                  Goal
	Level                 Level
	DaysPerWeek           int
	SessionMinutes        int
	Place                 string
	Style                 string
	Injuries              []string
	BlockedMuscles        []string
	PreferredEquipmentIDs []int
	AvailableEquipmentIDs []int
}

// withAvailableEquipment returns a copy of gc constrained to the given equipment.
func (gc GenerationContext) withAvailableEquipment(ids []int) GenerationContext {
	gc.AvailableEquipmentIDs = sortedIDs(ids)
	return gc
}

func (gc GenerationContext) isBlocked(muscle string) bool {
	return slices.Contains(gc.BlockedMuscles, normalize(muscle))
}

//nolint:gochecknoglobals // lookup table, ordered so that the blocked set is deterministic
var injuryBlockedMuscles = []struct {
	injury  string
	muscles []string
}{
	{injury: "knee", muscles: []string{"quads", "hamstrings", "legs"}},
	{injury: "back", muscles: []string{"back", "lower_back", "hamstrings"}},
	{injury: "shoulder", muscles: []string{"shoulders", "chest"}},
	{injury: "elbow", muscles: []string{"triceps", "biceps"}},
	{injury: "wrist", muscles: []string{"forearms"}},
}

// blockedMuscles maps free-text injury tags to the primary muscles that must not be trained. A tag matches when it
// contains the injury keyword, so "left knee pain" blocks the knee muscles.
func blockedMuscles(injuries []string) []string {
	var blocked []string
	for _, injury := range injuries {
		tag := normalize(injury)
		if tag == "" {
			continue
		}
		for _, rule := range injuryBlockedMuscles {
			if strings.Contains(tag, rule.injury) {
				blocked = append(blocked, rule.muscles...)
			}
		}
	}
	slices.Sort(blocked)
	return slices.Compact(blocked)
}

// levelFromActivity buckets a free-text activity level. Anything unrecognised is intermediate.
func levelFromActivity(activity string) Level {
	switch l := Level(normalize(activity)); l {
	case LevelBeginner, LevelAdvanced:
		return l
	case LevelIntermediate:
	}
	return LevelIntermediate
}

// ResolveContext merges stored preferences with overrides into a GenerationContext.
//
// Available equipment is always empty here. Equipment only constrains recalibration.
func ResolveContext(
	userID int,
	prefs Preferences,
	preferredEquipmentIDs []int,
	o Overrides,
) (GenerationContext, error) {
	gc := buildContext(userID, prefs, preferredEquipmentIDs, o)
	if !gc.Goal.valid() {
		return GenerationContext{}, errors.Wrap(ErrInvalidGoal, "resolve context", slog.String("goal", string(gc.Goal)))
	}
	if !gc.Level.valid() {
		return GenerationContext{}, errors.Wrap(ErrInvalidLevel, "resolve context", slog.String("level", string(gc.Level)))
	}
	if gc.DaysPerWeek < 1 || gc.DaysPerWeek > 7 {
		return GenerationContext{}, errors.Wrap(ErrInvalidSchedule, "resolve context", slog.Int("days", gc.DaysPerWeek))
	}
	return gc, nil
}

// buildContext resolves precedence without validating goal and schedule, which recalibration does not depend on.
// The level comes from the override, then the stored workout level and last from the activity level.
func buildContext(userID int, prefs Preferences, preferredEquipmentIDs []int, o Overrides) GenerationContext {
	level := Level(normalize(string(ptr.ValueOr(o.WorkoutLevel, prefs.WorkoutLevel))))
	if level == "" {
		level = levelFromActivity(prefs.ActivityLevel)
	}

	injuries := prefs.Injuries
	if o.Injuries != nil {
		injuries = o.Injuries
	}
	injuries = sortedStrings(injuries)

	return GenerationContext{
		UserID:                userID,
		Goal:                  Goal(normalize(string(ptr.ValueOr(o.Goal, prefs.Goal)))),
		Level:                 level,
		DaysPerWeek:           ptr.ValueOr(o.WorkoutDays, prefs.WorkoutDays),
		SessionMinutes:        ptr.ValueOr(o.SessionMinutes, prefs.SessionMinutes),
		Place:                 normalize(ptr.ValueOr(o.WorkoutPlace, prefs.WorkoutPlace)),
		Style:                 normalize(ptr.ValueOr(o.PreferredStyle, prefs.PreferredStyle)),
		Injuries:              injuries,
		BlockedMuscles:        blockedMuscles(injuries),
		PreferredEquipmentIDs: sortedIDs(preferredEquipmentIDs),
		AvailableEquipmentIDs: []int{},
	}
}

// sortedIDs returns a sorted copy without duplicates. The result is never nil.
func sortedIDs(ids []int) []int {
	out := append(make([]int, 0, len(ids)), ids...)
	slices.Sort(out)
	return slices.Compact(out)
}
