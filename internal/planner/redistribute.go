package planner

import (
	"cmp"
	"slices"
)

// droppedEntry is the volume of an exercise removed from a day.
type droppedEntry struct {
	Sets     int
	SlotType SlotType
}

// redistribution is the outcome of spreading lost sets over the remaining exercises of a day.
type redistribution struct {
	Lost     int
	Assigned int
}

func (r redistribution) Unassigned() int {
	return r.Lost - r.Assigned
}

// redistribute hands out the sets of dropped round-robin over rows in order index order, one set at a time. A row
// never grows beyond its entry sets plus the cap of its slot type. rows is sorted and modified in place.
//
// The loop stops when everything is assigned, when a full sweep finds no capacity left or after
// lost*len(rows)+len(rows) steps.
func redistribute(rows []PlanDayExercise, dropped []droppedEntry) redistribution {
	res := redistribution{Lost: 0, Assigned: 0}
	for _, d := range dropped {
		res.Lost += d.Sets
	}
	if res.Lost <= 0 || len(rows) == 0 {
		return res
	}

	slices.SortStableFunc(rows, func(a, b PlanDayExercise) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	baseline := make([]int, len(rows))
	for i, row := range rows {
		baseline[i] = row.Sets
	}

	bound := res.Lost*len(rows) + len(rows)
	withoutCapacity := 0
	for step := 0; res.Assigned < res.Lost && step < bound; step++ {
		i := step % len(rows)
		if rows[i].Sets < baseline[i]+rows[i].SlotType.maxExtraSets() {
			rows[i].Sets++
			res.Assigned++
			withoutCapacity = 0
			continue
		}
		withoutCapacity++
		if withoutCapacity >= len(rows) {
			break
		}
	}
	return res
}
