package planner

import "github.com/myrjola/gymplan/internal/errors"

var (
	ErrPreferencesNotFound  = errors.NewSentinel("preferences not found")
	ErrInvalidGoal          = errors.NewSentinel("invalid goal")
	ErrInvalidSchedule      = errors.NewSentinel("workout days must be between 1 and 7")
	ErrInvalidLevel         = errors.NewSentinel("workout level must be beginner, intermediate or advanced")
	ErrNoTemplateFound      = errors.NewSentinel("no template found for goal")
	ErrPlanNotFound         = errors.NewSentinel("plan not found")
	ErrPlanDayNotFound      = errors.NewSentinel("plan day not found")
	ErrPlanExerciseNotFound = errors.NewSentinel("plan exercise not found")
	ErrInvalidExerciseEdit  = errors.NewSentinel("sets 1-20, reps 1-100 with reps_min <= reps_max, rest 0-600 s")
	ErrUnauthorized         = errors.NewSentinel("not owned by user")
	ErrFacilityNotFound     = errors.NewSentinel("facility not found")
	ErrExerciseNotFound     = errors.NewSentinel("exercise not found")
)
