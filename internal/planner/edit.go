package planner

import (
	"context"
	"log/slog"

	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/logging"
)

const (
	maxEditSets        = 20
	maxEditReps        = 100
	maxEditRestSeconds = 600
)

// ExerciseEdit is a partial update of a plan exercise. Nil fields keep their stored value.
type ExerciseEdit struct {
	ExerciseID  *int `json:"exercise_id"`
	Sets        *int `json:"sets"`
	RepsMin     *int `json:"reps_min"`
	RepsMax     *int `json:"reps_max"`
	RestSeconds *int `json:"rest_seconds"`
}

// apply returns row with the edit merged in. Swapping to another exercise marks the row modified against the
// exercise it had before any replacement and swapping back clears the mark.
func (e ExerciseEdit) apply(row PlanDayExercise) (PlanDayExercise, error) {
	if e.ExerciseID != nil && *e.ExerciseID != row.ExerciseID {
		pristine := row.pristineExerciseID()
		row.ExerciseID = *e.ExerciseID
		row.IsModified = row.ExerciseID != pristine
		row.OriginalExerciseID = 0
		if row.IsModified {
			row.OriginalExerciseID = pristine
		}
	}
	for _, f := range []struct {
		dst    *int
		src    *int
		lo, hi int
	}{
		{dst: &row.Sets, src: e.Sets, lo: 1, hi: maxEditSets},
		{dst: &row.RepsMin, src: e.RepsMin, lo: 1, hi: maxEditReps},
		{dst: &row.RepsMax, src: e.RepsMax, lo: 1, hi: maxEditReps},
		{dst: &row.RestSeconds, src: e.RestSeconds, lo: 0, hi: maxEditRestSeconds},
	} {
		if f.src == nil {
			continue
		}
		if *f.src < f.lo || *f.src > f.hi {
			return PlanDayExercise{}, errors.Wrap(ErrInvalidExerciseEdit, "apply edit", slog.Int("value", *f.src))
		}
		*f.dst = *f.src
	}
	if row.RepsMin > row.RepsMax {
		return PlanDayExercise{}, errors.Wrap(ErrInvalidExerciseEdit, "apply edit",
			slog.Int("reps_min", row.RepsMin), slog.Int("reps_max", row.RepsMax))
	}
	return row, nil
}

// UpdatePlanExercise edits an exercise of a plan owned by the user.
func (s *Service) UpdatePlanExercise(
	ctx context.Context,
	userID, planExerciseID int,
	edit ExerciseEdit,
) (PlanDayExercise, error) {
	ctx = logging.WithAttrs(ctx, slog.Int("user_id", userID), slog.Int("plan_exercise_id", planExerciseID))
	var row PlanDayExercise
	err := s.withUserTx(ctx, userID, func(repos repositories) error {
		current, err := ownedExercise(ctx, repos, userID, planExerciseID)
		if err != nil {
			return err
		}
		if edit.ExerciseID != nil {
			if _, err = repos.catalog.Exercise(ctx, *edit.ExerciseID); err != nil {
				return err
			}
		}
		if row, err = edit.apply(current); err != nil {
			return err
		}
		return repos.plans.UpdateExercise(ctx, row)
	})
	if err != nil {
		return PlanDayExercise{}, errors.Wrap(err, "update plan exercise")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "updated plan exercise",
		slog.Int("exercise_id", row.ExerciseID), slog.Bool("is_modified", row.IsModified))
	return row, nil
}

// DeletePlanExercise removes an exercise from a plan owned by the user and returns the day it belonged to. A day
// left without exercises becomes a rest day.
func (s *Service) DeletePlanExercise(ctx context.Context, userID, planExerciseID int) (PlanDay, error) {
	ctx = logging.WithAttrs(ctx, slog.Int("user_id", userID), slog.Int("plan_exercise_id", planExerciseID))
	var day PlanDay
	err := s.withUserTx(ctx, userID, func(repos repositories) error {
		row, err := ownedExercise(ctx, repos, userID, planExerciseID)
		if err != nil {
			return err
		}
		if err = repos.plans.DeleteExercise(ctx, row.ID); err != nil {
			return err
		}
		if day, _, err = repos.plans.GetDay(ctx, row.PlanDayID); err != nil {
			return err
		}
		if len(day.Exercises) > 0 || day.IsRest {
			return nil
		}
		day.IsRest = true
		day.Focus = restFocus
		return repos.plans.UpdateDay(ctx, day)
	})
	if err != nil {
		return PlanDay{}, errors.Wrap(err, "delete plan exercise")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "deleted plan exercise",
		slog.Int("plan_day_id", day.ID), slog.Bool("is_rest", day.IsRest))
	return day, nil
}

func ownedExercise(
	ctx context.Context,
	repos repositories,
	userID, planExerciseID int,
) (PlanDayExercise, error) {
	row, owner, err := repos.plans.GetExercise(ctx, planExerciseID)
	if err != nil {
		return PlanDayExercise{}, err
	}
	if owner != userID {
		return PlanDayExercise{}, errors.Wrap(ErrUnauthorized, "owned exercise",
			slog.Int("plan_exercise_id", planExerciseID))
	}
	return row, nil
}
