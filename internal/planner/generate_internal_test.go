package planner

import (
	"testing"
	"time"

	"github.com/myrjola/gymplan/internal/testhelpers"
)

func Test_generator_build_emptyDayBecomesRest(t *testing.T) {
	t.Parallel()
	catalog := &stubCatalog{byMuscle: map[string][]Exercise{
		"chest": {{ID: 1, Name: "Push-up", PrimaryMuscle: "chest", EquipmentIDs: nil}},
	}}
	logger := testhelpers.NewTestLogger(t)
	g := generator{catalog: catalog, selector: selector{catalog: catalog, logger: logger}, logger: logger}
	days := []TemplateDay{
		{ID: 11, TemplateID: 1, Weekday: 1, DayNumber: 1, Focus: "push", Slots: []TemplateDaySlot{
			{ID: 101, TemplateDayID: 11, TargetMuscle: "chest", SlotType: SlotMain, Sets: 3, RepsMin: 8, RepsMax: 12},
		}},
		{ID: 12, TemplateID: 1, Weekday: 3, DayNumber: 2, Focus: "legs", Slots: []TemplateDaySlot{
			{ID: 201, TemplateDayID: 12, TargetMuscle: "calves", SlotType: SlotMain, Sets: 3, RepsMin: 8, RepsMax: 12},
			{ID: 202, TemplateDayID: 12, TargetMuscle: "quads", SlotType: SlotOther, Sets: 2, RepsMin: 10, RepsMax: 15},
		}},
	}
	tpl := Template{ID: 1, Name: "Test", Goal: GoalStrength, DaysPerWeek: 2}
	gc := GenerationContext{UserID: 1, Level: LevelBeginner, DaysPerWeek: 2}

	plan, err := g.build(t.Context(), gc, tpl, days, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(plan.Days) != 7 {
		t.Fatalf("got %d days, want 7", len(plan.Days))
	}
	monday, wednesday := plan.Days[0], plan.Days[2]
	if monday.IsRest || monday.TemplateDayID != 11 || len(monday.Exercises) != 1 {
		t.Errorf("monday = %+v, want a training day of template day 11", monday)
	}
	if !wednesday.IsRest || wednesday.Focus != restFocus || len(wednesday.Exercises) != 0 {
		t.Errorf("wednesday = %+v, want a rest day", wednesday)
	}
	if wednesday.TemplateDayID != 0 {
		t.Errorf("empty wednesday keeps template day %d", wednesday.TemplateDayID)
	}
	for _, day := range plan.Days {
		if day.IsRest && day.TemplateDayID != 0 {
			t.Errorf("%s: rest day has template day %d", day.WeekdayName, day.TemplateDayID)
		}
	}
}
