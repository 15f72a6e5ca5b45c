package planner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

const restFocus = "rest"

// generator turns a selected template into a plan that has not been stored yet.
type generator struct {
	catalog  Catalog
	selector selector
	logger   *slog.Logger
}

// build schedules the template days and fills every slot. Slots without any eligible exercise are skipped and days
// that end up empty become rest days.
func (g generator) build(
	ctx context.Context,
	gc GenerationContext,
	tpl Template,
	days []TemplateDay,
	start time.Time,
) (Plan, error) {
	plan := Plan{
		ID:         0,
		UserID:     gc.UserID,
		TemplateID: tpl.ID,
		FacilityID: 0,
		StartDate:  start,
		Status:     PlanStatusActive,
		Days:       make([]PlanDay, 0, 7), //nolint:mnd // days in a week
	}
	policy := NewTimePolicy(gc.SessionMinutes, tpl.SessionMinutesMin, tpl.SessionMinutesMax)

	for _, sd := range ScheduleDays(days, gc.DaysPerWeek) {
		day := PlanDay{
			ID:            0,
			PlanID:        0,
			TemplateDayID: 0,
			Weekday:       sd.Weekday,
			WeekdayName:   sd.Name,
			IsRest:        true,
			Focus:         restFocus,
			FacilityID:    0,
			Exercises:     nil,
		}
		if sd.TemplateDay != nil {
			exercises, err := g.fillSlots(ctx, gc, policy, sd.TemplateDay.Slots)
			if err != nil {
				return Plan{}, fmt.Errorf("fill %s: %w", sd.Name, err)
			}
			if len(exercises) > 0 {
				day.TemplateDayID = sd.TemplateDay.ID
				day.IsRest = false
				day.Focus = sd.TemplateDay.Focus
				day.Exercises = exercises
			}
		}
		plan.Days = append(plan.Days, day)
	}
	return plan, nil
}

func (g generator) fillSlots(
	ctx context.Context,
	gc GenerationContext,
	policy TimePolicy,
	slots []TemplateDaySlot,
) ([]PlanDayExercise, error) {
	var (
		exercises []PlanDayExercise
		usedToday []int
	)
	for _, slot := range slots {
		exerciseID, originalID, err := g.exerciseForSlot(ctx, gc, slot, usedToday)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot.ID, err)
		}
		if exerciseID == 0 {
			g.logger.LogAttrs(ctx, slog.LevelWarn, "no exercise for slot",
				slog.Int("slot_id", slot.ID),
				slog.String("target_muscle", slot.TargetMuscle),
				slog.String("movement_pattern", slot.MovementPattern))
			continue
		}
		exercises = append(exercises, PlanDayExercise{
			ID:                 0,
			PlanDayID:          0,
			TemplateSlotID:     slot.ID,
			ExerciseID:         exerciseID,
			SlotType:           slot.SlotType,
			Sets:               AdjustSets(slot.Sets, slot.SlotType, policy),
			RepsMin:            slot.RepsMin,
			RepsMax:            slot.RepsMax,
			RestSeconds:        slot.RestSeconds,
			OrderIndex:         slot.OrderIndex,
			IsModified:         originalID != 0,
			OriginalExerciseID: originalID,
		})
		usedToday = append(usedToday, exerciseID)
	}
	return exercises, nil
}

// exerciseForSlot keeps the seed exercise of the slot when it is still allowed. A seed that is blocked by an
// injury or already used today is replaced and reported as the original. Zero means nothing was found.
func (g generator) exerciseForSlot(
	ctx context.Context,
	gc GenerationContext,
	slot TemplateDaySlot,
	usedToday []int,
) (int, int, error) {
	req := SlotRequest{
		SeedExerciseID:   slot.ExerciseID,
		TargetMuscle:     slot.TargetMuscle,
		MovementPattern:  slot.MovementPattern,
		SlotType:         slot.SlotType,
		ExcludeIDs:       usedToday,
		EnforceEquipment: false,
	}
	if slot.ExerciseID == 0 {
		ex, ok, err := g.selector.pick(ctx, gc, req)
		if err != nil || !ok {
			return 0, 0, err
		}
		return ex.ID, 0, nil
	}

	seed, err := g.catalog.Exercise(ctx, slot.ExerciseID)
	if err != nil {
		return 0, 0, fmt.Errorf("get seed exercise: %w", err)
	}
	if !slices.Contains(usedToday, seed.ID) && !gc.isBlocked(seed.PrimaryMuscle) {
		return seed.ID, 0, nil
	}
	replacement, ok, err := g.selector.pick(ctx, gc, req)
	if err != nil || !ok {
		return 0, 0, err
	}
	return replacement.ID, seed.ID, nil
}
