package planner

import (
	"cmp"
	"slices"
	"time"
)

// workoutWeekdays are the canonical training weekdays per number of training days, Monday being 1.
//
//nolint:gochecknoglobals // lookup table
var workoutWeekdays = map[int][]int{
	1: {1},
	2: {1, 4},
	3: {1, 3, 5},
	4: {1, 2, 4, 5},
	5: {1, 2, 3, 4, 5},
	6: {1, 2, 3, 4, 5, 6},
	7: {1, 2, 3, 4, 5, 6, 7},
}

// weekdayName returns the English name of weekday 1..7 where 1 is Monday.
func weekdayName(weekday int) string {
	return time.Weekday(weekday % 7).String() //nolint:mnd // Sunday is 0 in time.Weekday
}

// ScheduledDay is a weekday with the template day trained on it. TemplateDay is nil on rest days.
type ScheduledDay struct {
	Weekday     int
	Name        string
	TemplateDay *TemplateDay
}

// ScheduleDays maps template days onto the seven weekdays.
//
// A template day with a fixed weekday takes that weekday. The remaining canonical training weekdays receive the
// floating template days in day number order. Weekdays left without a template day are rest days.
func ScheduleDays(days []TemplateDay, daysPerWeek int) []ScheduledDay {
	anchored := make(map[int]*TemplateDay)
	var floating []*TemplateDay
	for i := range days {
		d := &days[i]
		if d.Weekday >= 1 && d.Weekday <= 7 {
			if _, taken := anchored[d.Weekday]; !taken {
				anchored[d.Weekday] = d
			}
			continue
		}
		floating = append(floating, d)
	}
	slices.SortStableFunc(floating, func(a, b *TemplateDay) int {
		return cmp.Compare(a.DayNumber, b.DayNumber)
	})

	canonical := workoutWeekdays[daysPerWeek]
	scheduled := make([]ScheduledDay, 0, 7) //nolint:mnd // days in a week
	for weekday := 1; weekday <= 7; weekday++ {
		day := ScheduledDay{Weekday: weekday, Name: weekdayName(weekday), TemplateDay: anchored[weekday]}
		if day.TemplateDay == nil && slices.Contains(canonical, weekday) && len(floating) > 0 {
			day.TemplateDay, floating = floating[0], floating[1:]
		}
		scheduled = append(scheduled, day)
	}
	return scheduled
}
