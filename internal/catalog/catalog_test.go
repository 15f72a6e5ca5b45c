package catalog_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/gymplan/internal/catalog"
	"github.com/myrjola/gymplan/internal/catalogtest"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	seed, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if seed.Equipment[0].ID != 1 || seed.Equipment[0].Name != "Bodyweight" {
		t.Errorf("first equipment = %+v, want bodyweight with id 1", seed.Equipment[0])
	}
	goals := make(map[string]bool)
	for _, tpl := range seed.Templates {
		goals[tpl.Goal] = true
	}
	want := map[string]bool{"lose_fat": true, "build_muscle": true, "endurance": true, "strength": true}
	if diff := cmp.Diff(want, goals); diff != "" {
		t.Errorf("template goals mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown key",
			yaml: "equipment:\n  - { id: 1, nmae: Bodyweight }\n",
		},
		{
			name: "duplicate equipment",
			yaml: "equipment:\n  - { id: 1, name: A }\n  - { id: 1, name: B }\n",
		},
		{
			name: "unknown exercise equipment",
			yaml: "exercises:\n  - { id: 1, name: Push-up, equipment: [9] }\n",
		},
		{
			name: "unknown facility status",
			yaml: "equipment:\n  - { id: 1, name: A }\nfacilities:\n  - { id: 1, name: Gym, equipment: [{ id: 1, status: broken }] }\n",
		},
		{
			name: "slot without sets",
			yaml: "templates:\n  - id: 1\n    days:\n      - id: 1\n        slots:\n          - { id: 1, sets: 0 }\n",
		},
		{
			name: "unknown slot exercise",
			yaml: "templates:\n  - id: 1\n    days:\n      - id: 1\n        slots:\n          - { id: 1, sets: 3, exercise_id: 7 }\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := catalog.Parse([]byte(tt.yaml)); !errors.Is(err, catalog.ErrInvalidSeed) {
				t.Errorf("Parse error = %v, want %v", err, catalog.ErrInvalidSeed)
			}
		})
	}
}

func TestSeed_Apply(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	db := catalogtest.NewDatabase(t)
	seed, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	// Applying twice must not duplicate rows.
	if err = seed.Apply(ctx, db); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	counts := map[string]int{}
	for _, table := range []string{"equipment", "facilities", "exercises", "workout_templates"} {
		var n int
		if err = db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		counts[table] = n
	}
	want := map[string]int{
		"equipment":         len(seed.Equipment),
		"facilities":        len(seed.Facilities),
		"exercises":         len(seed.Exercises),
		"workout_templates": len(seed.Templates),
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("row counts mismatch (-want +got):\n%s", diff)
	}

	var floating, maintenance int
	if err = db.ReadOnly.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM workout_template_days WHERE weekday IS NULL").Scan(&floating); err != nil {
		t.Fatalf("count floating days: %v", err)
	}
	if floating == 0 {
		t.Error("weekday 0 should be stored as a floating day")
	}
	if err = db.ReadOnly.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM facility_equipment WHERE status = 'maintenance'").Scan(&maintenance); err != nil {
		t.Fatalf("count maintenance: %v", err)
	}
	if maintenance != 1 {
		t.Errorf("got %d equipment in maintenance, want 1", maintenance)
	}
}
