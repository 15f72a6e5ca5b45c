package planner

import (
	"strings"
	"time"
)

// Goal is the training goal a template is designed for.
type Goal string

const (
	GoalLoseFat     Goal = "lose_fat"
	GoalBuildMuscle Goal = "build_muscle"
	GoalEndurance   Goal = "endurance"
	GoalStrength    Goal = "strength"
)

func (g Goal) valid() bool {
	switch g {
	case GoalLoseFat, GoalBuildMuscle, GoalEndurance, GoalStrength:
		return true
	}
	return false
}

// Level is the training experience of a user or the difficulty of an exercise.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// rank maps beginner, intermediate and advanced to 1, 2 and 3. Unknown levels rank as intermediate.
func (l Level) rank() int {
	switch Level(normalize(string(l))) {
	case LevelBeginner:
		return 1
	case LevelAdvanced:
		return 3 //nolint:mnd // advanced
	case LevelIntermediate:
		return 2 //nolint:mnd // intermediate
	}
	return 2 //nolint:mnd // unknown ranks as intermediate
}

type SplitType string

const (
	SplitFullBody   SplitType = "full_body"
	SplitUpperLower SplitType = "upper_lower"
	SplitPPL        SplitType = "ppl"
)

// SlotType categorises an exercise slot. Heavy categories tolerate more extra sets.
type SlotType string

const (
	SlotCompound SlotType = "compound"
	SlotMain     SlotType = "main"
	SlotPrimary  SlotType = "primary"
	SlotOther    SlotType = "other"
)

// maxExtraSets is how many sets above its baseline a slot of this type may receive.
func (s SlotType) maxExtraSets() int {
	switch SlotType(normalize(string(s))) {
	case SlotCompound, SlotMain, SlotPrimary:
		return 2 //nolint:mnd // heavy slots
	case SlotOther:
	}
	return 1
}

const (
	PlaceHome = "home"
	PlaceGym  = "gym"

	StyleStrength  = "strength"
	StyleEndurance = "endurance"
)

type Template struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Goal              Goal      `json:"goal"`
	Level             Level     `json:"level"`
	SplitType         SplitType `json:"split_type"`
	DaysPerWeek       int       `json:"days_per_week"`
	SessionMinutesMin int       `json:"session_minutes_min"`
	SessionMinutesMax int       `json:"session_minutes_max"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TemplateDay is one training day of a template. Weekday is zero when the day floats.
type TemplateDay struct {
	ID         int               `json:"id"`
	TemplateID int               `json:"template_id"`
	Weekday    int               `json:"weekday,omitempty"`
	DayNumber  int               `json:"day_number"`
	Focus      string            `json:"focus"`
	Slots      []TemplateDaySlot `json:"slots"`
}

// TemplateDaySlot is a single exercise position within a template day. ExerciseID is the optional seed exercise.
type TemplateDaySlot struct {
	ID              int      `json:"id"`
	TemplateDayID   int      `json:"template_day_id"`
	TargetMuscle    string   `json:"target_muscle"`
	MovementPattern string   `json:"movement_pattern"`
	SlotType        SlotType `json:"slot_type"`
	ExerciseID      int      `json:"exercise_id,omitempty"`
	Sets            int      `json:"sets"`
	RepsMin         int      `json:"reps_min"`
	RepsMax         int      `json:"reps_max"`
	RestSeconds     int      `json:"rest_seconds"`
	OrderIndex      int      `json:"order_index"`
}

// Exercise is a catalog exercise. An empty EquipmentIDs means no equipment is needed.
type Exercise struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	PrimaryMuscle string `json:"primary_muscle"`
	Difficulty    Level  `json:"difficulty,omitempty"`
	EquipmentIDs  []int  `json:"equipment_ids"`
}

type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusArchived PlanStatus = "archived"
)

// Plan is a user's seven-day workout plan. A zero FacilityID means no facility is associated.
type Plan struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	TemplateID int        `json:"template_id"`
	FacilityID int        `json:"facility_id,omitempty"`
	StartDate  time.Time  `json:"start_date"`
	Status     PlanStatus `json:"status"`
	Days       []PlanDay  `json:"days"`
}

// PlanDay is one weekday of a plan. FacilityID overrides the plan facility when non-zero.
type PlanDay struct {
	ID            int               `json:"id"`
	PlanID        int               `json:"plan_id"`
	TemplateDayID int               `json:"template_day_id,omitempty"`
	Weekday       int               `json:"weekday"`
	WeekdayName   string            `json:"weekday_name"`
	IsRest        bool              `json:"is_rest"`
	Focus         string            `json:"focus"`
	FacilityID    int               `json:"facility_id,omitempty"`
	Exercises     []PlanDayExercise `json:"exercises"`
}

// PlanDayExercise is a concrete exercise of a plan day. OriginalExerciseID is non-zero iff IsModified.
type PlanDayExercise struct {
	ID                 int      `json:"id"`
	PlanDayID          int      `json:"plan_day_id"`
	TemplateSlotID     int      `json:"template_slot_id,omitempty"`
	ExerciseID         int      `json:"exercise_id"`
	SlotType           SlotType `json:"slot_type"`
	Sets               int      `json:"sets"`
	RepsMin            int      `json:"reps_min"`
	RepsMax            int      `json:"reps_max"`
	RestSeconds        int      `json:"rest_seconds"`
	OrderIndex         int      `json:"order_index"`
	IsModified         bool     `json:"is_modified"`
	OriginalExerciseID int      `json:"original_exercise_id,omitempty"`
}

// pristineExerciseID is the exercise the row had before any replacement.
func (e PlanDayExercise) pristineExerciseID() int {
	if e.OriginalExerciseID != 0 {
		return e.OriginalExerciseID
	}
	return e.ExerciseID
}

// Preferences are the stored planning inputs of a user. Empty values mean not set.
type Preferences struct {
	Goal           Goal     `json:"goal"`
	ActivityLevel  string   `json:"activity_level"`
	WorkoutLevel   Level    `json:"workout_level"`
	WorkoutDays    int      `json:"workout_days"`
	SessionMinutes int      `json:"session_minutes"`
	WorkoutPlace   string   `json:"workout_place"`
	PreferredStyle string   `json:"preferred_style"`
	Injuries       []string `json:"injuries"`
}

// Overrides replace stored preferences for a single generation. Nil fields keep the stored value.
type Overrides struct {
	Goal           *Goal    `json:"goal"`
	WorkoutLevel   *Level   `json:"workout_level"`
	WorkoutDays    *int     `json:"workout_days"`
	SessionMinutes *int     `json:"session_minutes"`
	WorkoutPlace   *string  `json:"workout_place"`
	PreferredStyle *string  `json:"preferred_style"`
	Injuries       []string `json:"injuries"`
	// FacilityID recalibrates the fresh plan for the facility and associates it with the plan.
	FacilityID *int `json:"facility_id"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
