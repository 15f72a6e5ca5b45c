// Package catalog loads the reference data of the planner from YAML seed files into the database.
package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/myrjola/gymplan/internal/errors"
	"github.com/myrjola/gymplan/internal/sqlite"

	_ "embed"
)

//go:embed default.yaml
var defaultSeed []byte

var ErrInvalidSeed = errors.NewSentinel("invalid catalog seed")

type Seed struct {
	Equipment  []Equipment `yaml:"equipment"`
	Facilities []Facility  `yaml:"facilities"`
	Exercises  []Exercise  `yaml:"exercises"`
	Templates  []Template  `yaml:"templates"`
}

type Equipment struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type Facility struct {
	ID        int                 `yaml:"id"`
	Name      string              `yaml:"name"`
	Equipment []FacilityEquipment `yaml:"equipment"`
}

// FacilityEquipment is equipment present at a facility. Status defaults to active.
type FacilityEquipment struct {
	ID     int    `yaml:"id"`
	Status string `yaml:"status"`
}

type Exercise struct {
	ID            int    `yaml:"id"`
	Name          string `yaml:"name"`
	PrimaryMuscle string `yaml:"primary_muscle"`
	Difficulty    string `yaml:"difficulty"`
	Equipment     []int  `yaml:"equipment"`
}

type Template struct {
	ID                int    `yaml:"id"`
	Name              string `yaml:"name"`
	Goal              string `yaml:"goal"`
	Level             string `yaml:"level"`
	SplitType         string `yaml:"split_type"`
	DaysPerWeek       int    `yaml:"days_per_week"`
	SessionMinutesMin int    `yaml:"session_minutes_min"`
	SessionMinutesMax int    `yaml:"session_minutes_max"`
	// UpdatedAt uses the 2006-01-02T15:04:05.000Z layout. Empty means now.
	UpdatedAt string `yaml:"updated_at"`
	Days      []Day  `yaml:"days"`
}

// Day is a template day. Weekday 0 lets the scheduler place the day.
type Day struct {
	ID        int    `yaml:"id"`
	Weekday   int    `yaml:"weekday"`
	DayNumber int    `yaml:"day_number"`
	Focus     string `yaml:"focus"`
	Slots     []Slot `yaml:"slots"`
}

// Slot is an exercise slot. The position in the list is the order index.
type Slot struct {
	ID              int    `yaml:"id"`
	TargetMuscle    string `yaml:"target_muscle"`
	MovementPattern string `yaml:"movement_pattern"`
	SlotType        string `yaml:"slot_type"`
	ExerciseID      int    `yaml:"exercise_id"`
	Sets            int    `yaml:"sets"`
	RepsMin         int    `yaml:"reps_min"`
	RepsMax         int    `yaml:"reps_max"`
	RestSeconds     int    `yaml:"rest_seconds"`
}

// Parse decodes and validates a seed. Unknown keys are rejected so that typos do not go unnoticed.
func Parse(b []byte) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("%w: decode: %w", ErrInvalidSeed, err)
	}
	if err := seed.validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// Default returns the catalog shipped with the binary.
func Default() (Seed, error) {
	return Parse(defaultSeed)
}

// Load reads a seed file or returns the default catalog when path is empty.
func Load(path string) (Seed, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	return Parse(b)
}

func (s Seed) validate() error {
	equipment := make(map[int]bool, len(s.Equipment))
	for _, e := range s.Equipment {
		if e.ID <= 0 || equipment[e.ID] {
			return errors.Wrap(ErrInvalidSeed, "duplicate or non-positive equipment id", slog.Int("id", e.ID))
		}
		equipment[e.ID] = true
	}
	for _, f := range s.Facilities {
		for _, fe := range f.Equipment {
			if !equipment[fe.ID] {
				return errors.Wrap(ErrInvalidSeed, "unknown facility equipment",
					slog.Int("facility_id", f.ID), slog.Int("equipment_id", fe.ID))
			}
			switch fe.Status {
			case "", "active", "inactive", "maintenance":
			default:
				return errors.Wrap(ErrInvalidSeed, "unknown equipment status", slog.String("status", fe.Status))
			}
		}
	}
	exercises := make(map[int]bool, len(s.Exercises))
	for _, ex := range s.Exercises {
		if ex.ID <= 0 || exercises[ex.ID] {
			return errors.Wrap(ErrInvalidSeed, "duplicate or non-positive exercise id", slog.Int("id", ex.ID))
		}
		exercises[ex.ID] = true
		for _, id := range ex.Equipment {
			if !equipment[id] {
				return errors.Wrap(ErrInvalidSeed, "unknown exercise equipment",
					slog.String("exercise", ex.Name), slog.Int("equipment_id", id))
			}
		}
	}
	for _, t := range s.Templates {
		for _, d := range t.Days {
			for _, slot := range d.Slots {
				if slot.ExerciseID != 0 && !exercises[slot.ExerciseID] {
					return errors.Wrap(ErrInvalidSeed, "unknown slot exercise",
						slog.Int("slot_id", slot.ID), slog.Int("exercise_id", slot.ExerciseID))
				}
				if slot.Sets < 1 {
					return errors.Wrap(ErrInvalidSeed, "slot needs at least one set", slog.Int("slot_id", slot.ID))
				}
			}
		}
	}
	return nil
}

// Apply upserts the seed in one transaction. Running it again with the same seed changes nothing.
func (s Seed) Apply(ctx context.Context, db *sqlite.Database) error {
	if err := db.WithTx(ctx, func(tx *sql.Tx) error {
		return s.apply(ctx, tx)
	}); err != nil {
		return fmt.Errorf("apply catalog seed: %w", err)
	}
	return nil
}

func (s Seed) apply(ctx context.Context, tx *sql.Tx) error {
	for _, e := range s.Equipment {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO equipment (id, name) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name`, e.ID, e.Name); err != nil {
			return fmt.Errorf("upsert equipment %d: %w", e.ID, err)
		}
	}
	for _, f := range s.Facilities {
		if err := applyFacility(ctx, tx, f); err != nil {
			return err
		}
	}
	for _, ex := range s.Exercises {
		if err := applyExercise(ctx, tx, ex); err != nil {
			return err
		}
	}
	for _, t := range s.Templates {
		if err := applyTemplate(ctx, tx, t); err != nil {
			return err
		}
	}
	return nil
}

func applyFacility(ctx context.Context, tx *sql.Tx, f Facility) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO facilities (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`, f.ID, f.Name); err != nil {
		return fmt.Errorf("upsert facility %d: %w", f.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM facility_equipment WHERE facility_id = ?`, f.ID); err != nil {
		return fmt.Errorf("clear facility equipment %d: %w", f.ID, err)
	}
	for _, fe := range f.Equipment {
		status := fe.Status
		if status == "" {
			status = "active"
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO facility_equipment (facility_id, equipment_id, status) VALUES (?, ?, ?)`,
			f.ID, fe.ID, status); err != nil {
			return fmt.Errorf("insert facility equipment %d/%d: %w", f.ID, fe.ID, err)
		}
	}
	return nil
}

func applyExercise(ctx context.Context, tx *sql.Tx, ex Exercise) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO exercises (id, name, primary_muscle, difficulty) VALUES (?, ?, ?, NULLIF(?, ''))
		ON CONFLICT (id) DO UPDATE SET name           = excluded.name,
		                               primary_muscle = excluded.primary_muscle,
		                               difficulty     = excluded.difficulty`,
		ex.ID, ex.Name, ex.PrimaryMuscle, ex.Difficulty); err != nil {
		return fmt.Errorf("upsert exercise %q: %w", ex.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exercise_equipment WHERE exercise_id = ?`, ex.ID); err != nil {
		return fmt.Errorf("clear exercise equipment %q: %w", ex.Name, err)
	}
	for _, id := range ex.Equipment {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exercise_equipment (exercise_id, equipment_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING`, ex.ID, id); err != nil {
			return fmt.Errorf("insert exercise equipment %q: %w", ex.Name, err)
		}
	}
	return nil
}

func applyTemplate(ctx context.Context, tx *sql.Tx, t Template) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO workout_templates (id, name, goal, level, split_type, days_per_week, session_minutes_min,
		                               session_minutes_max, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, COALESCE(NULLIF(?, ''), STRFTIME('%Y-%m-%dT%H:%M:%fZ')))
		ON CONFLICT (id) DO UPDATE SET name                = excluded.name,
		                               goal                = excluded.goal,
		                               level               = excluded.level,
		                               split_type          = excluded.split_type,
		                               days_per_week       = excluded.days_per_week,
		                               session_minutes_min = excluded.session_minutes_min,
		                               session_minutes_max = excluded.session_minutes_max,
		                               updated_at          = excluded.updated_at`,
		t.ID, t.Name, t.Goal, t.Level, t.SplitType, t.DaysPerWeek, t.SessionMinutesMin, t.SessionMinutesMax,
		t.UpdatedAt); err != nil {
		return fmt.Errorf("upsert template %q: %w", t.Name, err)
	}
	for _, d := range t.Days {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workout_template_days (id, template_id, weekday, day_number, focus)
			VALUES (?, ?, NULLIF(?, 0), ?, ?)
			ON CONFLICT (id) DO UPDATE SET template_id = excluded.template_id,
			                               weekday     = excluded.weekday,
			                               day_number  = excluded.day_number,
			                               focus       = excluded.focus`,
			d.ID, t.ID, d.Weekday, d.DayNumber, d.Focus); err != nil {
			return fmt.Errorf("upsert template day %d: %w", d.ID, err)
		}
		for i, slot := range d.Slots {
			slotType := slot.SlotType
			if slotType == "" {
				slotType = "other"
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO workout_template_day_slots (id, template_day_id, target_muscle, movement_pattern, slot_type,
				                                        exercise_id, sets, reps_min, reps_max, rest_seconds,
				                                        order_index)
				VALUES (?, ?, ?, ?, ?, NULLIF(?, 0), ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET template_day_id  = excluded.template_day_id,
				                               target_muscle    = excluded.target_muscle,
				                               movement_pattern = excluded.movement_pattern,
				                               slot_type        = excluded.slot_type,
				                               exercise_id      = excluded.exercise_id,
				                               sets             = excluded.sets,
				                               reps_min         = excluded.reps_min,
				                               reps_max         = excluded.reps_max,
				                               rest_seconds     = excluded.rest_seconds,
				                               order_index      = excluded.order_index`,
				slot.ID, d.ID, slot.TargetMuscle, slot.MovementPattern, slotType, slot.ExerciseID, slot.Sets,
				slot.RepsMin, slot.RepsMax, slot.RestSeconds, i); err != nil {
				return fmt.Errorf("upsert template slot %d: %w", slot.ID, err)
			}
		}
	}
	return nil
}
