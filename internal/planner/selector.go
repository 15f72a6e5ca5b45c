package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"log/slog"
	"slices"
)

const (
	candidateLimit = 120
	topTierSize    = 3
)

// featureWeights weigh target, pattern, equipment, level, preferred equipment and home features in that order.
//
//nolint:gochecknoglobals // constant weights
var featureWeights = []float64{0.30, 0.20, 0.20, 0.15, 0.10, 0.05}

// nameAllowlists narrows candidates of a movement pattern or slot type to exercise names known to train it.
//
//nolint:gochecknoglobals // lookup table
var nameAllowlists = func() map[string][]string {
	var (
		squat = []string{"Goblet Squat", "Bodyweight Squat", "Barbell Back Squat", "Leg Press"}
		hinge = []string{
			"Romanian Deadlift (Dumbbell)", "Romanian Deadlift (Barbell)", "Deadlift (Conventional)", "Glute Bridge",
			"Hip Thrust (Barbell)",
		}
		push = []string{
			"Dumbbell Bench Press", "Barbell Bench Press", "Machine Chest Press", "Push-up",
			"Incline Dumbbell Press", "Incline Push-up", "Decline Push-up",
		}
		press = []string{"Dumbbell Shoulder Press", "Barbell Overhead Press", "Arnold Press"}
		row   = []string{
			"Seated Cable Row", "One-Arm Dumbbell Row", "Barbell Row", "T-Bar Row", "Chest-Supported Row (Machine)",
		}
		pulldown = []string{"Lat Pulldown", "Assisted Pull-up", "Pull-up"}
		biceps   = []string{
			"Dumbbell Curl", "Hammer Curl", "Barbell Curl", "Cable Curl", "Incline Dumbbell Curl",
			"Preacher Curl (Machine)",
		}
		triceps = []string{
			"Triceps Pushdown", "Cable Triceps Extension (Overhead)", "Overhead Triceps Extension (Dumbbell)",
			"Skull Crushers", "Bench Dips", "Triceps Dips (Assisted)",
		}
		core = []string{
			"Plank", "Side Plank", "Dead Bug", "Crunch", "Russian Twist", "Cable Crunch", "Hanging Knee Raise",
		}
		cardio = []string{
			"Mountain Climbers", "High Knees", "Jumping Jacks", "Burpees", "Treadmill Walk", "Treadmill Run",
			"Stationary Bike", "Rowing Machine", "Elliptical", "Jump Rope",
		}
	)
	return map[string][]string{
		"squat": squat, "quad_compound": squat,
		"hinge":           hinge,
		"horizontal_push": push, "chest_compound": push, "push": push,
		"vertical_push": press, "shoulder_press": press,
		"row": row, "back_row": row, "pull": row,
		"vertical_pull": pulldown, "lat_vertical_pull": pulldown,
		"biceps": biceps, "arms_biceps": biceps,
		"triceps": triceps, "arms_triceps": triceps,
		"core": core, "core_flexion": core, "core_rotation": core, "core_anti_extension": core,
		"conditioning": cardio, "cardio": cardio, "cardio_1": cardio, "cardio_2": cardio,
	}
}()

// allowlistFor looks up the movement pattern first and the slot type second.
func allowlistFor(pattern string, slotType SlotType) []string {
	if names, ok := nameAllowlists[normalize(pattern)]; ok {
		return names
	}
	return nameAllowlists[normalize(string(slotType))]
}

// SlotRequest describes the slot an exercise is selected for.
type SlotRequest struct {
	// SeedExerciseID is the exercise the slot was designed around, zero when none.
	SeedExerciseID  int
	TargetMuscle    string
	MovementPattern string
	SlotType        SlotType
	// ExcludeIDs are the exercises already used on the same day.
	ExcludeIDs []int
	// EnforceEquipment admits only true bodyweight exercises and exercises the available equipment supports.
	EnforceEquipment bool
}

// selector ranks the candidates of a slot and picks one deterministically.
type selector struct {
	catalog Catalog
	logger  *slog.Logger
}

// pick returns false when no candidate survives filtering.
func (s selector) pick(ctx context.Context, gc GenerationContext, req SlotRequest) (Exercise, bool, error) {
	target := normalize(req.TargetMuscle)
	allowlist := allowlistFor(req.MovementPattern, req.SlotType)
	q := ExerciseQuery{
		Muscle:         target,
		ExcludeIDs:     req.ExcludeIDs,
		BlockedMuscles: gc.BlockedMuscles,
		NameAllowlist:  allowlist,
		Limit:          candidateLimit,
	}
	candidates, err := s.catalog.ListExercisesByMuscle(ctx, q)
	if err != nil {
		return Exercise{}, false, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) == 0 && len(allowlist) > 0 {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "widening candidates without allowlist",
			slog.String("target_muscle", target),
			slog.String("movement_pattern", req.MovementPattern),
			slog.String("slot_type", string(req.SlotType)))
		q.NameAllowlist = nil
		if candidates, err = s.catalog.ListExercisesByMuscle(ctx, q); err != nil {
			return Exercise{}, false, fmt.Errorf("list candidates without allowlist: %w", err)
		}
	}
	if req.EnforceEquipment {
		candidates = slices.DeleteFunc(candidates, func(ex Exercise) bool {
			return !IsTrueBodyweight(ex) && !IsSupported(ex, gc.AvailableEquipmentIDs)
		})
	}
	if len(candidates) == 0 {
		return Exercise{}, false, nil
	}

	matrix := make([][]float64, len(candidates))
	for i, ex := range candidates {
		matrix[i] = features(ex, gc, target, allowlist)
	}
	order := rankTOPSIS(matrix, featureWeights)
	tier := order[:min(topTierSize, len(order))]
	return candidates[tier[stableSeed(gc, req)%uint32(len(tier))]], true, nil //nolint:gosec // len(tier) <= 3
}

// features scores a candidate on target, pattern, equipment, level, preferred equipment and home fitness.
func features(ex Exercise, gc GenerationContext, target string, allowlist []string) []float64 {
	targetMatch := 1.0
	if target != "" && normalize(ex.PrimaryMuscle) != target {
		targetMatch = 0
	}
	patternMatch := 0.5
	if len(allowlist) > 0 {
		patternMatch = 0
		if slices.Contains(allowlist, ex.Name) {
			patternMatch = 1
		}
	}
	var preferred, home float64
	if intersects(ex.EquipmentIDs, gc.PreferredEquipmentIDs) {
		preferred = 1
	}
	if gc.Place == PlaceHome && intersects(ex.EquipmentIDs, homeEquipmentIDs) {
		home = 1
	}
	// Equipment fitness is enforced as a filter so every surviving candidate fits.
	return []float64{targetMatch, patternMatch, 1, levelMatch(ex.Difficulty, gc), preferred, home}
}

func levelMatch(difficulty Level, gc GenerationContext) float64 {
	if normalize(string(difficulty)) == "" {
		return 0.5 //nolint:mnd // unknown difficulty
	}
	var score float64
	switch abs(difficulty.rank() - gc.Level.rank()) {
	case 0:
		score = 1
	case 1:
		score = 0.6 //nolint:mnd // adjacent level
	default:
		score = 0.2 //nolint:mnd // distant level
	}
	d := Level(normalize(string(difficulty)))
	if (gc.Style == StyleStrength && d == LevelAdvanced) || (gc.Style == StyleEndurance && d == LevelBeginner) {
		score += 0.1 //nolint:mnd // style nudge
	}
	return min(score, 1)
}

// stableSeed hashes everything that identifies a selection so that identical inputs pick the same exercise while
// different slots and users spread over the top tier.
func stableSeed(gc GenerationContext, req SlotRequest) uint32 {
	tuple := []any{
		gc.UserID,
		req.SeedExerciseID,
		normalize(req.TargetMuscle),
		normalize(req.MovementPattern),
		normalize(string(req.SlotType)),
		gc.Place,
		gc.Style,
		sortedStrings(gc.Injuries),
		sortedIDs(gc.PreferredEquipmentIDs),
		sortedIDs(gc.AvailableEquipmentIDs),
	}
	b, err := json.Marshal(tuple)
	if err != nil {
		// Ints and strings always marshal.
		panic(err)
	}
	return crc32.ChecksumIEEE(b)
}

func sortedStrings(s []string) []string {
	out := append(make([]string, 0, len(s)), s...)
	slices.Sort(out)
	return out
}
