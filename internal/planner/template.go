package planner

import (
	"log/slog"

	"github.com/myrjola/gymplan/internal/errors"
)

// desiredSplit is the split type that suits the number of training days.
func desiredSplit(days int) SplitType {
	switch {
	case days <= 3: //nolint:mnd // full body up to three days
		return SplitFullBody
	case days <= 4: //nolint:mnd // upper/lower for four days
		return SplitUpperLower
	}
	return SplitPPL
}

// templatePenalty scores how badly t fits gc. Lower is better.
func templatePenalty(t Template, gc GenerationContext) int {
	penalty := 100*abs(t.DaysPerWeek-gc.DaysPerWeek) + 20*abs(t.Level.rank()-gc.Level.rank())
	if t.SplitType != desiredSplit(gc.DaysPerWeek) {
		penalty += 5
	}
	if gc.SessionMinutes <= 0 || gc.SessionMinutes < t.SessionMinutesMin || gc.SessionMinutes > t.SessionMinutesMax {
		penalty += 3
	}
	return penalty
}

// SelectTemplate picks the template of gc.Goal with the lowest penalty. Ties go to the most recently updated template
// and then to the lowest id.
func SelectTemplate(templates []Template, gc GenerationContext) (Template, error) {
	var (
		best        Template
		bestPenalty int
		found       bool
	)
	for _, t := range templates {
		if t.Goal != gc.Goal {
			continue
		}
		p := templatePenalty(t, gc)
		if !found || p < bestPenalty || (p == bestPenalty && preferTemplate(t, best)) {
			best, bestPenalty, found = t, p, true
		}
	}
	if !found {
		return Template{}, errors.Wrap(ErrNoTemplateFound, "select template", slog.String("goal", string(gc.Goal)))
	}
	return best, nil
}

func preferTemplate(a, b Template) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
