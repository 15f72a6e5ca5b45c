package planner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/myrjola/gymplan/internal/errors"
)

// sqliteCatalog implements Catalog.
type sqliteCatalog struct {
	q queryer
}

const exerciseColumns = `e.id, e.name, e.primary_muscle, COALESCE(e.difficulty, '')`

func (c *sqliteCatalog) ListExercisesByMuscle(ctx context.Context, eq ExerciseQuery) (_ []Exercise, err error) {
	limit := eq.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.q.QueryContext(ctx, `
		SELECT `+exerciseColumns+`
		FROM exercises e
		WHERE (:muscle = '' OR LOWER(e.primary_muscle) = :muscle)
		  AND (:allow_count = 0 OR e.name IN (SELECT value FROM json_each(:allowlist)))
		  AND e.id NOT IN (SELECT value FROM json_each(:exclude))
		  AND LOWER(e.primary_muscle) NOT IN (SELECT value FROM json_each(:blocked))
		ORDER BY e.id
		LIMIT :limit`,
		sql.Named("muscle", normalize(eq.Muscle)),
		sql.Named("allow_count", len(eq.NameAllowlist)),
		sql.Named("allowlist", jsonArray(eq.NameAllowlist)),
		sql.Named("exclude", jsonArray(eq.ExcludeIDs)),
		sql.Named("blocked", jsonArray(eq.BlockedMuscles)),
		sql.Named("limit", limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []Exercise
	for rows.Next() {
		var ex Exercise
		if err = rows.Scan(&ex.ID, &ex.Name, &ex.PrimaryMuscle, &ex.Difficulty); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if err = c.attachEquipment(ctx, exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// attachEquipment loads the equipment requirements of all exercises with one query.
func (c *sqliteCatalog) attachEquipment(ctx context.Context, exercises []Exercise) (err error) {
	if len(exercises) == 0 {
		return nil
	}
	ids := make([]int, len(exercises))
	byID := make(map[int]*Exercise, len(exercises))
	for i := range exercises {
		ids[i] = exercises[i].ID
		exercises[i].EquipmentIDs = []int{}
		byID[exercises[i].ID] = &exercises[i]
	}
	rows, err := c.q.QueryContext(ctx, `
		SELECT exercise_id, equipment_id
		FROM exercise_equipment
		WHERE exercise_id IN (SELECT value FROM json_each(?))
		ORDER BY exercise_id, equipment_id`, jsonArray(ids))
	if err != nil {
		return fmt.Errorf("query exercise equipment: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	for rows.Next() {
		var exerciseID, equipmentID int
		if err = rows.Scan(&exerciseID, &equipmentID); err != nil {
			return fmt.Errorf("scan exercise equipment: %w", err)
		}
		if ex, ok := byID[exerciseID]; ok {
			ex.EquipmentIDs = append(ex.EquipmentIDs, equipmentID)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

func (c *sqliteCatalog) FirstBodyweightExercise(ctx context.Context, eq ExerciseQuery) (Exercise, bool, error) {
	var ex Exercise
	err := c.q.QueryRowContext(ctx, `
		SELECT `+exerciseColumns+`
		FROM exercises e
		WHERE (:muscle = '' OR LOWER(e.primary_muscle) = :muscle)
		  AND e.id NOT IN (SELECT value FROM json_each(:exclude))
		  AND LOWER(e.primary_muscle) NOT IN (SELECT value FROM json_each(:blocked))
		  AND NOT EXISTS (SELECT 1
		                  FROM exercise_equipment ee
		                  WHERE ee.exercise_id = e.id
		                    AND ee.equipment_id <> :bodyweight)
		ORDER BY e.id
		LIMIT 1`,
		sql.Named("muscle", normalize(eq.Muscle)),
		sql.Named("exclude", jsonArray(eq.ExcludeIDs)),
		sql.Named("blocked", jsonArray(eq.BlockedMuscles)),
		sql.Named("bodyweight", BodyweightEquipmentID),
	).Scan(&ex.ID, &ex.Name, &ex.PrimaryMuscle, &ex.Difficulty)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, false, nil
	}
	if err != nil {
		return Exercise{}, false, fmt.Errorf("query bodyweight exercise: %w", err)
	}
	if ex.EquipmentIDs, err = c.RequiredEquipmentIDs(ctx, ex.ID); err != nil {
		return Exercise{}, false, err
	}
	return ex, true, nil
}

func (c *sqliteCatalog) Exercise(ctx context.Context, id int) (Exercise, error) {
	var ex Exercise
	err := c.q.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises e WHERE e.id = ?`, id).
		Scan(&ex.ID, &ex.Name, &ex.PrimaryMuscle, &ex.Difficulty)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, errors.Wrap(ErrExerciseNotFound, "get exercise", slog.Int("exercise_id", id))
	}
	if err != nil {
		return Exercise{}, fmt.Errorf("query exercise: %w", err)
	}
	if ex.EquipmentIDs, err = c.RequiredEquipmentIDs(ctx, id); err != nil {
		return Exercise{}, err
	}
	return ex, nil
}

func (c *sqliteCatalog) RequiredEquipmentIDs(ctx context.Context, exerciseID int) ([]int, error) {
	ids, err := queryInts(ctx, c.q, `
		SELECT equipment_id FROM exercise_equipment WHERE exercise_id = ? ORDER BY equipment_id`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("query required equipment: %w", err)
	}
	return ids, nil
}

func (c *sqliteCatalog) FacilityEquipmentIDs(ctx context.Context, facilityID int) ([]int, error) {
	ids, err := queryInts(ctx, c.q, `
		SELECT equipment_id
		FROM facility_equipment
		WHERE facility_id = ?
		  AND status = 'active'
		ORDER BY equipment_id`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("query facility equipment: %w", err)
	}
	return ids, nil
}

func (c *sqliteCatalog) FacilityExists(ctx context.Context, facilityID int) (bool, error) {
	var exists bool
	if err := c.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM facilities WHERE id = ?)`, facilityID).
		Scan(&exists); err != nil {
		return false, fmt.Errorf("query facility: %w", err)
	}
	return exists, nil
}

func (c *sqliteCatalog) PreferredEquipmentIDs(ctx context.Context, userID int) ([]int, error) {
	ids, err := queryInts(ctx, c.q, `
		SELECT equipment_id FROM user_preferred_equipment WHERE user_id = ? ORDER BY equipment_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query preferred equipment: %w", err)
	}
	return ids, nil
}

const templateColumns = `id, name, goal, level, split_type, days_per_week, session_minutes_min, session_minutes_max,
       updated_at`

func scanTemplate(scan func(dest ...any) error) (Template, error) {
	var (
		t         Template
		updatedAt string
	)
	if err := scan(&t.ID, &t.Name, &t.Goal, &t.Level, &t.SplitType, &t.DaysPerWeek, &t.SessionMinutesMin,
		&t.SessionMinutesMax, &updatedAt); err != nil {
		return Template{}, err //nolint:wrapcheck // wrapped by callers
	}
	var err error
	if t.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return Template{}, err
	}
	return t, nil
}

func (c *sqliteCatalog) TemplatesByGoal(ctx context.Context, goal Goal) (_ []Template, err error) {
	rows, err := c.q.QueryContext(ctx, `SELECT `+templateColumns+` FROM workout_templates WHERE goal = ? ORDER BY id`,
		goal)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var templates []Template
	for rows.Next() {
		var t Template
		if t, err = scanTemplate(rows.Scan); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return templates, nil
}

func (c *sqliteCatalog) Template(ctx context.Context, id int) (Template, error) {
	t, err := scanTemplate(c.q.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM workout_templates WHERE id = ?`, id).Scan)
	if err != nil {
		return Template{}, fmt.Errorf("query template %d: %w", id, err)
	}
	return t, nil
}

func (c *sqliteCatalog) TemplateDays(ctx context.Context, templateID int) (_ []TemplateDay, err error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, template_id, COALESCE(weekday, 0), day_number, focus
		FROM workout_template_days
		WHERE template_id = ?
		ORDER BY COALESCE(weekday, 99), day_number, id`, templateID)
	if err != nil {
		return nil, fmt.Errorf("query template days: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var days []TemplateDay
	for rows.Next() {
		var d TemplateDay
		if err = rows.Scan(&d.ID, &d.TemplateID, &d.Weekday, &d.DayNumber, &d.Focus); err != nil {
			return nil, fmt.Errorf("scan template day: %w", err)
		}
		days = append(days, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	slots, err := c.templateSlots(ctx, templateID)
	if err != nil {
		return nil, err
	}
	for i := range days {
		days[i].Slots = slots[days[i].ID]
	}
	return days, nil
}

const slotColumns = `s.id, s.template_day_id, s.target_muscle, s.movement_pattern, s.slot_type,
       COALESCE(s.exercise_id, 0), s.sets, s.reps_min, s.reps_max, s.rest_seconds, s.order_index`

func scanSlot(scan func(dest ...any) error) (TemplateDaySlot, error) {
	var s TemplateDaySlot
	err := scan(&s.ID, &s.TemplateDayID, &s.TargetMuscle, &s.MovementPattern, &s.SlotType, &s.ExerciseID, &s.Sets,
		&s.RepsMin, &s.RepsMax, &s.RestSeconds, &s.OrderIndex)
	return s, err //nolint:wrapcheck // wrapped by callers
}

func (c *sqliteCatalog) templateSlots(ctx context.Context, templateID int) (_ map[int][]TemplateDaySlot, err error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT `+slotColumns+`
		FROM workout_template_day_slots s
		         JOIN workout_template_days d ON d.id = s.template_day_id
		WHERE d.template_id = ?
		ORDER BY s.template_day_id, s.order_index, s.id`, templateID)
	if err != nil {
		return nil, fmt.Errorf("query template slots: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	slots := make(map[int][]TemplateDaySlot)
	for rows.Next() {
		var s TemplateDaySlot
		if s, err = scanSlot(rows.Scan); err != nil {
			return nil, fmt.Errorf("scan template slot: %w", err)
		}
		slots[s.TemplateDayID] = append(slots[s.TemplateDayID], s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return slots, nil
}

func (c *sqliteCatalog) TemplateSlot(ctx context.Context, id int) (TemplateDaySlot, error) {
	s, err := scanSlot(c.q.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM workout_template_day_slots s WHERE s.id = ?`, id).Scan)
	if err != nil {
		return TemplateDaySlot{}, fmt.Errorf("query template slot %d: %w", id, err)
	}
	return s, nil
}
