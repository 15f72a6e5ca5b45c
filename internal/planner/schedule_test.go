package planner_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/gymplan/internal/planner"
)

// scheduledIDs lists the template day id per weekday, zero on rest days.
func scheduledIDs(days []planner.ScheduledDay) []int {
	ids := make([]int, 0, len(days))
	for _, d := range days {
		if d.TemplateDay == nil {
			ids = append(ids, 0)
			continue
		}
		ids = append(ids, d.TemplateDay.ID)
	}
	return ids
}

func TestScheduleDays(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		days        []planner.TemplateDay
		daysPerWeek int
		want        []int
	}{
		{
			name:        "floating days on canonical weekdays",
			days:        []planner.TemplateDay{{ID: 13, DayNumber: 3}, {ID: 11, DayNumber: 1}, {ID: 12, DayNumber: 2}},
			daysPerWeek: 3,
			want:        []int{11, 0, 12, 0, 13, 0, 0},
		},
		{
			name:        "anchored day keeps its weekday",
			days:        []planner.TemplateDay{{ID: 1, DayNumber: 1}, {ID: 2, DayNumber: 2}, {ID: 3, DayNumber: 3, Weekday: 6}},
			daysPerWeek: 3,
			want:        []int{1, 0, 2, 0, 0, 3, 0},
		},
		{
			name:        "anchored day on a canonical weekday",
			days:        []planner.TemplateDay{{ID: 1, DayNumber: 1}, {ID: 2, DayNumber: 2, Weekday: 1}},
			daysPerWeek: 2,
			want:        []int{2, 0, 0, 1, 0, 0, 0},
		},
		{
			name:        "more floating days than canonical weekdays",
			days:        []planner.TemplateDay{{ID: 1, DayNumber: 1}, {ID: 2, DayNumber: 2}, {ID: 3, DayNumber: 3}},
			daysPerWeek: 2,
			want:        []int{1, 0, 0, 2, 0, 0, 0},
		},
		{
			name:        "no template days",
			days:        nil,
			daysPerWeek: 4,
			want:        []int{0, 0, 0, 0, 0, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := planner.ScheduleDays(tt.days, tt.daysPerWeek)
			if diff := cmp.Diff(tt.want, scheduledIDs(got)); diff != "" {
				t.Errorf("ScheduleDays mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScheduleDays_weekdayNames(t *testing.T) {
	t.Parallel()
	got := planner.ScheduleDays(nil, 7)
	names := make([]string, 0, len(got))
	for i, d := range got {
		if d.Weekday != i+1 {
			t.Errorf("day %d has weekday %d", i, d.Weekday)
		}
		names = append(names, d.Name)
	}
	want := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("weekday names mismatch (-want +got):\n%s", diff)
	}
}
