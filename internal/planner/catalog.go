package planner

import "context"

// ExerciseQuery filters catalog exercises. Empty fields do not filter.
type ExerciseQuery struct {
	// Muscle matches the primary muscle case-insensitively.
	Muscle         string
	ExcludeIDs     []int
	BlockedMuscles []string
	NameAllowlist  []string
	Limit          int
}

// Catalog is the read-only reference data the planner works on.
type Catalog interface {
	// ListExercisesByMuscle returns matching exercises ordered by id together with their equipment.
	ListExercisesByMuscle(ctx context.Context, q ExerciseQuery) ([]Exercise, error)
	// FirstBodyweightExercise returns the lowest id true bodyweight exercise matching q.
	FirstBodyweightExercise(ctx context.Context, q ExerciseQuery) (Exercise, bool, error)
	Exercise(ctx context.Context, id int) (Exercise, error)
	RequiredEquipmentIDs(ctx context.Context, exerciseID int) ([]int, error)
	// FacilityEquipmentIDs returns only equipment with active status.
	FacilityEquipmentIDs(ctx context.Context, facilityID int) ([]int, error)
	FacilityExists(ctx context.Context, facilityID int) (bool, error)
	PreferredEquipmentIDs(ctx context.Context, userID int) ([]int, error)
	TemplatesByGoal(ctx context.Context, goal Goal) ([]Template, error)
	Template(ctx context.Context, id int) (Template, error)
	// TemplateDays returns the days of a template with their slots in order.
	TemplateDays(ctx context.Context, templateID int) ([]TemplateDay, error)
	TemplateSlot(ctx context.Context, id int) (TemplateDaySlot, error)
}
