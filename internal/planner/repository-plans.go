package planner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/gymplan/internal/errors"
)

// sqlitePlanRepository stores plans, their days and their exercises.
type sqlitePlanRepository struct {
	q queryer
}

// DeleteActivePlan removes the active plan of the user. Days and exercises cascade.
func (r *sqlitePlanRepository) DeleteActivePlan(ctx context.Context, userID int) error {
	if _, err := r.q.ExecContext(ctx,
		`DELETE FROM workout_plans WHERE user_id = ? AND status = 'active'`, userID); err != nil {
		return fmt.Errorf("delete active plan: %w", err)
	}
	return nil
}

// Create inserts the plan with all days and exercises and returns it with the assigned ids.
func (r *sqlitePlanRepository) Create(ctx context.Context, plan Plan) (Plan, error) {
	if err := r.q.QueryRowContext(ctx, `
		INSERT INTO workout_plans (user_id, template_id, facility_id, start_date, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		plan.UserID, plan.TemplateID, nullID(plan.FacilityID), plan.StartDate.Format(time.DateOnly), plan.Status,
	).Scan(&plan.ID); err != nil {
		return Plan{}, fmt.Errorf("insert plan: %w", err)
	}

	for i := range plan.Days {
		day := &plan.Days[i]
		day.PlanID = plan.ID
		if err := r.q.QueryRowContext(ctx, `
			INSERT INTO workout_plan_days (plan_id, template_day_id, weekday, weekday_name, is_rest, focus, facility_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			day.PlanID, nullID(day.TemplateDayID), day.Weekday, day.WeekdayName, day.IsRest, day.Focus,
			nullID(day.FacilityID),
		).Scan(&day.ID); err != nil {
			return Plan{}, fmt.Errorf("insert plan day %d: %w", day.Weekday, err)
		}
		for j := range day.Exercises {
			ex := &day.Exercises[j]
			ex.PlanDayID = day.ID
			if err := r.q.QueryRowContext(ctx, `
				INSERT INTO workout_plan_day_exercises (plan_day_id, template_slot_id, exercise_id, slot_type, sets,
				                                        reps_min, reps_max, rest_seconds, order_index, is_modified,
				                                        original_exercise_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id`,
				ex.PlanDayID, nullID(ex.TemplateSlotID), ex.ExerciseID, ex.SlotType, ex.Sets, ex.RepsMin, ex.RepsMax,
				ex.RestSeconds, ex.OrderIndex, ex.IsModified, nullID(ex.OriginalExerciseID),
			).Scan(&ex.ID); err != nil {
				return Plan{}, fmt.Errorf("insert plan exercise: %w", err)
			}
		}
	}
	return plan, nil
}

// ActivePlanID returns ErrPlanNotFound when the user has no active plan.
func (r *sqlitePlanRepository) ActivePlanID(ctx context.Context, userID int) (int, error) {
	var id int
	err := r.q.QueryRowContext(ctx,
		`SELECT id FROM workout_plans WHERE user_id = ? AND status = 'active'`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.Wrap(ErrPlanNotFound, "active plan", slog.Int("user_id", userID))
	}
	if err != nil {
		return 0, fmt.Errorf("query active plan: %w", err)
	}
	return id, nil
}

// Get returns the plan with its days in weekday order and their exercises in order index order.
func (r *sqlitePlanRepository) Get(ctx context.Context, planID int) (Plan, error) {
	var (
		plan       Plan
		facilityID sql.NullInt64
		startDate  string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, template_id, facility_id, start_date, status
		FROM workout_plans
		WHERE id = ?`, planID).Scan(
		&plan.ID, &plan.UserID, &plan.TemplateID, &facilityID, &startDate, &plan.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, errors.Wrap(ErrPlanNotFound, "get plan", slog.Int("plan_id", planID))
	}
	if err != nil {
		return Plan{}, fmt.Errorf("query plan: %w", err)
	}
	plan.FacilityID = int(facilityID.Int64)
	if plan.StartDate, err = time.Parse(time.DateOnly, startDate); err != nil {
		return Plan{}, fmt.Errorf("parse start date: %w", err)
	}

	if plan.Days, err = r.days(ctx, `WHERE d.plan_id = ?`, planID); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// GetDay returns the day with its exercises and the id of the user owning it.
func (r *sqlitePlanRepository) GetDay(ctx context.Context, planDayID int) (PlanDay, int, error) {
	var userID int
	err := r.q.QueryRowContext(ctx, `
		SELECT p.user_id
		FROM workout_plan_days d
		         JOIN workout_plans p ON p.id = d.plan_id
		WHERE d.id = ?`, planDayID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanDay{}, 0, errors.Wrap(ErrPlanDayNotFound, "get plan day", slog.Int("plan_day_id", planDayID))
	}
	if err != nil {
		return PlanDay{}, 0, fmt.Errorf("query plan day owner: %w", err)
	}
	days, err := r.days(ctx, `WHERE d.id = ?`, planDayID)
	if err != nil {
		return PlanDay{}, 0, err
	}
	return days[0], userID, nil
}

// GetExercise returns the plan exercise and the id of the user owning it.
func (r *sqlitePlanRepository) GetExercise(ctx context.Context, id int) (PlanDayExercise, int, error) {
	var userID int
	err := r.q.QueryRowContext(ctx, `
		SELECT p.user_id
		FROM workout_plan_day_exercises e
		         JOIN workout_plan_days d ON d.id = e.plan_day_id
		         JOIN workout_plans p ON p.id = d.plan_id
		WHERE e.id = ?`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanDayExercise{}, 0, errors.Wrap(ErrPlanExerciseNotFound, "get plan exercise",
			slog.Int("plan_exercise_id", id))
	}
	if err != nil {
		return PlanDayExercise{}, 0, fmt.Errorf("query plan exercise owner: %w", err)
	}
	exercises, err := r.exercises(ctx, `WHERE e.id = ?`, id)
	if err != nil {
		return PlanDayExercise{}, 0, err
	}
	return exercises[0], userID, nil
}

// days loads the plan days matching where together with their exercises.
func (r *sqlitePlanRepository) days(ctx context.Context, where string, args ...any) (_ []PlanDay, err error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT d.id, d.plan_id, d.template_day_id, d.weekday, d.weekday_name, d.is_rest, d.focus, d.facility_id
		FROM workout_plan_days d `+where+`
		ORDER BY d.weekday`, args...)
	if err != nil {
		return nil, fmt.Errorf("query plan days: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var (
		days  []PlanDay
		index = make(map[int]int)
	)
	for rows.Next() {
		var (
			day                       PlanDay
			templateDayID, facilityID sql.NullInt64
		)
		if err = rows.Scan(&day.ID, &day.PlanID, &templateDayID, &day.Weekday, &day.WeekdayName, &day.IsRest,
			&day.Focus, &facilityID); err != nil {
			return nil, fmt.Errorf("scan plan day: %w", err)
		}
		day.TemplateDayID = int(templateDayID.Int64)
		day.FacilityID = int(facilityID.Int64)
		day.Exercises = []PlanDayExercise{}
		index[day.ID] = len(days)
		days = append(days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	exercises, err := r.exercises(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	for _, ex := range exercises {
		if i, ok := index[ex.PlanDayID]; ok {
			days[i].Exercises = append(days[i].Exercises, ex)
		}
	}
	return days, nil
}

func (r *sqlitePlanRepository) exercises(
	ctx context.Context,
	where string,
	args ...any,
) (_ []PlanDayExercise, err error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT e.id, e.plan_day_id, e.template_slot_id, e.exercise_id, e.slot_type, e.sets, e.reps_min, e.reps_max,
		       e.rest_seconds, e.order_index, e.is_modified, e.original_exercise_id
		FROM workout_plan_day_exercises e
		         JOIN workout_plan_days d ON d.id = e.plan_day_id `+where+`
		ORDER BY e.plan_day_id, e.order_index, e.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query plan exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []PlanDayExercise
	for rows.Next() {
		var (
			ex                 PlanDayExercise
			slotID, originalID sql.NullInt64
		)
		if err = rows.Scan(&ex.ID, &ex.PlanDayID, &slotID, &ex.ExerciseID, &ex.SlotType, &ex.Sets, &ex.RepsMin,
			&ex.RepsMax, &ex.RestSeconds, &ex.OrderIndex, &ex.IsModified, &originalID); err != nil {
			return nil, fmt.Errorf("scan plan exercise: %w", err)
		}
		ex.TemplateSlotID = int(slotID.Int64)
		ex.OriginalExerciseID = int(originalID.Int64)
		exercises = append(exercises, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return exercises, nil
}

func (r *sqlitePlanRepository) UpdateExercise(ctx context.Context, ex PlanDayExercise) error {
	if _, err := r.q.ExecContext(ctx, `
		UPDATE workout_plan_day_exercises
		SET exercise_id          = ?,
		    sets                 = ?,
		    reps_min             = ?,
		    reps_max             = ?,
		    rest_seconds         = ?,
		    is_modified          = ?,
		    original_exercise_id = ?
		WHERE id = ?`,
		ex.ExerciseID, ex.Sets, ex.RepsMin, ex.RepsMax, ex.RestSeconds, ex.IsModified, nullID(ex.OriginalExerciseID),
		ex.ID); err != nil {
		return fmt.Errorf("update plan exercise: %w", err)
	}
	return nil
}

func (r *sqlitePlanRepository) DeleteExercise(ctx context.Context, id int) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM workout_plan_day_exercises WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete plan exercise: %w", err)
	}
	return nil
}

// UpdateDay stores the rest flag, focus and facility override of day.
func (r *sqlitePlanRepository) UpdateDay(ctx context.Context, day PlanDay) error {
	if _, err := r.q.ExecContext(ctx, `
		UPDATE workout_plan_days
		SET is_rest     = ?,
		    focus       = ?,
		    facility_id = ?
		WHERE id = ?`,
		day.IsRest, day.Focus, nullID(day.FacilityID), day.ID); err != nil {
		return fmt.Errorf("update plan day: %w", err)
	}
	return nil
}

func (r *sqlitePlanRepository) SetFacility(ctx context.Context, planID, facilityID int) error {
	if _, err := r.q.ExecContext(ctx,
		`UPDATE workout_plans SET facility_id = ? WHERE id = ?`, nullID(facilityID), planID); err != nil {
		return fmt.Errorf("update plan facility: %w", err)
	}
	return nil
}
