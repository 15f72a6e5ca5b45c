package planner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/myrjola/gymplan/internal/logging"
)

const (
	reasonDropped    = "no compatible replacement for the facility equipment; volume redistributed"
	reasonReplaced   = "replaced with an exercise the facility equipment supports"
	reasonUnassigned = "remaining exercises had no capacity for the dropped volume"
)

// planStore persists the changes recalibration makes to a plan day.
type planStore interface {
	UpdateExercise(ctx context.Context, ex PlanDayExercise) error
	DeleteExercise(ctx context.Context, id int) error
	UpdateDay(ctx context.Context, day PlanDay) error
}

// recalibration holds what stays the same for every day of one recalibration call.
type recalibration struct {
	// gc carries the facility equipment as available equipment.
	gc     GenerationContext
	policy TimePolicy
	scope  NoticeScope
	planID int
}

// recalibrator re-evaluates plan days against the equipment of a facility.
type recalibrator struct {
	catalog  Catalog
	plans    planStore
	selector selector
	logger   *slog.Logger
}

// day replaces or drops every exercise of day the facility cannot support and redistributes the dropped volume. day
// is updated in place and persisted. Rest days are left untouched.
func (r recalibrator) day(ctx context.Context, rc recalibration, day *PlanDay) ([]Notice, error) {
	if day.IsRest {
		return nil, nil
	}
	ctx = logging.WithAttrs(ctx, slog.Int("plan_day_id", day.ID))

	usedToday := make([]int, 0, len(day.Exercises))
	for _, ex := range day.Exercises {
		usedToday = append(usedToday, ex.ExerciseID)
	}

	var (
		notices []Notice
		dropped []droppedEntry
		kept    = make([]PlanDayExercise, 0, len(day.Exercises))
	)
	for _, row := range day.Exercises {
		ex, err := r.catalog.Exercise(ctx, row.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("get exercise %d: %w", row.ExerciseID, err)
		}
		if IsTrueBodyweight(ex) || IsSupported(ex, rc.gc.AvailableEquipmentIDs) {
			if row.IsModified && row.ExerciseID == row.OriginalExerciseID {
				row.IsModified, row.OriginalExerciseID = false, 0
				if err = r.plans.UpdateExercise(ctx, row); err != nil {
					return nil, fmt.Errorf("clear reverted exercise %d: %w", row.ID, err)
				}
			}
			kept = append(kept, row)
			continue
		}

		replacement, found, slotType, baseSets, err := r.replacement(ctx, rc.gc, row, ex, usedToday)
		if err != nil {
			return nil, fmt.Errorf("replace exercise %d: %w", row.ID, err)
		}
		if !found {
			if err = r.plans.DeleteExercise(ctx, row.ID); err != nil {
				return nil, fmt.Errorf("drop exercise %d: %w", row.ID, err)
			}
			dropped = append(dropped, droppedEntry{Sets: row.Sets, SlotType: row.SlotType})
			notices = append(notices, DroppedNotice{
				Scope:          rc.scope,
				PlanID:         rc.planID,
				PlanDayID:      day.ID,
				PlanExerciseID: row.ID,
				ExerciseID:     row.ExerciseID,
				SetsLost:       row.Sets,
				Reason:         reasonDropped,
			})
			r.logger.LogAttrs(ctx, slog.LevelInfo, "dropped exercise",
				slog.Int("exercise_id", row.ExerciseID), slog.Int("sets_lost", row.Sets))
			continue
		}

		from := row.ExerciseID
		pristine := row.pristineExerciseID()
		usedToday = append(usedToday, replacement.ID)
		row.ExerciseID = replacement.ID
		row.IsModified = replacement.ID != pristine
		row.OriginalExerciseID = 0
		if row.IsModified {
			row.OriginalExerciseID = pristine
		}
		row.Sets = AdjustSets(baseSets, slotType, rc.policy)
		if err = r.plans.UpdateExercise(ctx, row); err != nil {
			return nil, fmt.Errorf("update exercise %d: %w", row.ID, err)
		}
		kept = append(kept, row)
		notices = append(notices, ReplacedNotice{
			Scope:          rc.scope,
			PlanID:         rc.planID,
			PlanDayID:      day.ID,
			PlanExerciseID: row.ID,
			FromExerciseID: from,
			ToExerciseID:   replacement.ID,
			Reason:         reasonReplaced,
		})
	}

	day.Exercises = kept
	if len(dropped) > 0 {
		unassigned, err := r.redistribute(ctx, day, dropped)
		if err != nil {
			return nil, err
		}
		if unassigned > 0 {
			notices = append(notices, UnassignedVolumeNotice{
				Scope:     rc.scope,
				PlanID:    rc.planID,
				PlanDayID: day.ID,
				Sets:      unassigned,
				Reason:    reasonUnassigned,
			})
		}
	}
	if len(day.Exercises) == 0 {
		day.IsRest = true
		day.Focus = restFocus
		if err := r.plans.UpdateDay(ctx, *day); err != nil {
			return nil, fmt.Errorf("mark rest day: %w", err)
		}
	}
	return notices, nil
}

// replacement finds a supported exercise for row through the selector and falls back to the lowest id bodyweight
// exercise for the same muscle. It also returns the slot type and base sets the new set count derives from.
func (r recalibrator) replacement(
	ctx context.Context,
	gc GenerationContext,
	row PlanDayExercise,
	current Exercise,
	usedToday []int,
) (Exercise, bool, SlotType, int, error) {
	req := SlotRequest{
		SeedExerciseID:   row.pristineExerciseID(),
		TargetMuscle:     current.PrimaryMuscle,
		MovementPattern:  "",
		SlotType:         row.SlotType,
		ExcludeIDs:       slices.Clone(usedToday),
		EnforceEquipment: true,
	}
	baseSets := row.Sets
	if row.TemplateSlotID != 0 {
		slot, err := r.catalog.TemplateSlot(ctx, row.TemplateSlotID)
		if err != nil {
			return Exercise{}, false, "", 0, fmt.Errorf("get template slot: %w", err)
		}
		if slot.TargetMuscle != "" {
			req.TargetMuscle = slot.TargetMuscle
		}
		req.MovementPattern = slot.MovementPattern
		req.SlotType = slot.SlotType
		baseSets = slot.Sets
	}

	ex, ok, err := r.selector.pick(ctx, gc, req)
	if err != nil {
		return Exercise{}, false, "", 0, err
	}
	if !ok {
		ex, ok, err = r.catalog.FirstBodyweightExercise(ctx, ExerciseQuery{
			Muscle:         normalize(req.TargetMuscle),
			ExcludeIDs:     req.ExcludeIDs,
			BlockedMuscles: gc.BlockedMuscles,
			NameAllowlist:  nil,
			Limit:          1,
		})
		if err != nil {
			return Exercise{}, false, "", 0, fmt.Errorf("bodyweight fallback: %w", err)
		}
	}
	return ex, ok, req.SlotType, baseSets, nil
}

// redistribute spreads the dropped volume over the kept exercises of day and persists the grown rows. It returns
// the number of sets nothing had capacity for.
func (r recalibrator) redistribute(ctx context.Context, day *PlanDay, dropped []droppedEntry) (int, error) {
	before := make(map[int]int, len(day.Exercises))
	for _, ex := range day.Exercises {
		before[ex.ID] = ex.Sets
	}
	res := redistribute(day.Exercises, dropped)
	for _, ex := range day.Exercises {
		if ex.Sets == before[ex.ID] {
			continue
		}
		if err := r.plans.UpdateExercise(ctx, ex); err != nil {
			return 0, fmt.Errorf("update redistributed exercise %d: %w", ex.ID, err)
		}
	}
	if res.Unassigned() > 0 {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "could not redistribute all dropped sets",
			slog.Int("lost", res.Lost), slog.Int("unassigned", res.Unassigned()))
	}
	return res.Unassigned(), nil
}
